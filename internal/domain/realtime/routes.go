package realtime

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hotelreservas/booking-gateway/internal/middleware"
)

// Routes returns websocket router. Browsers pass the token as ?token=.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TokenFromQuery)
	r.Use(authMiddleware)

	r.Get("/reservations", h.WebSocket)

	return r
}
