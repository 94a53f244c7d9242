package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const locationKey contextKey = "location"

var locationCache sync.Map

// Timezone resolves the caller's IANA timezone from the X-Timezone header (or ?tz=) and stores it
// on the context. Unknown names fall back to def.
func Timezone(def *time.Location) func(http.Handler) http.Handler {
	if def == nil {
		def = time.UTC
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.Header.Get("X-Timezone"))
			if name == "" {
				name = strings.TrimSpace(r.URL.Query().Get("tz"))
			}

			loc := def
			if name != "" {
				if l, err := LoadLocation(name); err == nil {
					loc = l
				} else {
					log.Debug().Str("timezone", name).Msg("unknown timezone, using default")
				}
			}

			ctx := context.WithValue(r.Context(), locationKey, loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadLocation is time.LoadLocation with a process-wide cache.
func LoadLocation(name string) (*time.Location, error) {
	if v, ok := locationCache.Load(name); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	locationCache.Store(name, loc)
	return loc, nil
}

// GetLocation extracts the caller location from context
func GetLocation(ctx context.Context) *time.Location {
	if loc, ok := ctx.Value(locationKey).(*time.Location); ok && loc != nil {
		return loc
	}
	return time.UTC
}
