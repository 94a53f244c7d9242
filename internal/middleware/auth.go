package middleware

import (
	"net/http"
	"strings"

	"github.com/hotelreservas/booking-gateway/internal/pkg/jwt"
	"github.com/hotelreservas/booking-gateway/internal/pkg/response"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
)

type contextKey string

// Auth returns middleware that validates JWT and attaches a session.Session to the context.
// Timezone must run before it so the session picks up the caller's location.
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, msg := authenticate(jwtService, r)
			if sess == nil {
				response.Unauthorized(w, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sess)))
		})
	}
}

// OptionalAuth attaches a session when a valid token is present and lets anonymous requests through.
func OptionalAuth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				if sess, _ := authenticate(jwtService, r); sess != nil {
					r = r.WithContext(session.WithContext(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromQuery copies ?token= into the Authorization header for clients that cannot set
// headers, such as browser websockets. An explicit header wins.
func TokenFromQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if token := r.URL.Query().Get("token"); token != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func authenticate(jwtService *jwt.Service, r *http.Request) (*session.Session, string) {
	// Extract token from header
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, "Missing authorization header"
	}

	// Check Bearer prefix
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, "Invalid authorization header format"
	}

	// Validate token
	claims, err := jwtService.ValidateAccessToken(parts[1])
	if err != nil {
		if err == jwt.ErrExpiredToken {
			return nil, "Token expired"
		}
		return nil, "Invalid token"
	}

	return &session.Session{
		UserID:   claims.UserID,
		Role:     claims.Role,
		Email:    claims.Email,
		Token:    parts[1],
		Location: GetLocation(r.Context()),
	}, ""
}

// GetSession extracts the session from context
func GetSession(r *http.Request) *session.Session {
	return session.FromContext(r.Context())
}

// RequireRole returns middleware that checks user role
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetSession(r).HasRole(roles...) {
				next.ServeHTTP(w, r)
				return
			}

			response.Forbidden(w, "Insufficient permissions")
		})
	}
}

// RequireStaff returns middleware that requires admin or employee role
func RequireStaff() func(http.Handler) http.Handler {
	return RequireRole(jwt.RoleAdmin, jwt.RoleEmployee)
}
