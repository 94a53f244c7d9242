package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/hotelreservas/booking-gateway/internal/pkg/errorhandler"
)

// Recover turns handler panics into a 500 envelope. http.ErrAbortHandler is re-raised so the
// server can drop the connection.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			errorhandler.HandlePanicError(r.Context(), w, rec, string(debug.Stack()))
		}()

		next.ServeHTTP(w, r)
	})
}
