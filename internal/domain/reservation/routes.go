package reservation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hotelreservas/booking-gateway/internal/middleware"
)

// Routes returns client reservation router. extra registers more routes behind the same auth.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, extra ...func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)

	for _, register := range extra {
		register(r)
	}

	return r
}

// AdminRoutes returns staff reservation router (ADMIN, EMPLEADO)
func (h *Handler) AdminRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireStaff())

	r.Post("/", h.StaffCreate)
	r.Patch("/{id}/status", h.UpdateStatus)

	return r
}
