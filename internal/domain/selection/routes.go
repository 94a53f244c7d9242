package selection

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns selection router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Put("/range", h.SetRange)
	r.Post("/rooms/toggle", h.Toggle)

	return r
}
