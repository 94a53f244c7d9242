package availability

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns availability router. Searching is public; a valid token is forwarded when present.
func (h *Handler) Routes(optionalAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(optionalAuth)

	r.Get("/rooms", h.Search)

	return r
}
