package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hotelreservas/booking-gateway/internal/config"
	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/domain/payment"
	"github.com/hotelreservas/booking-gateway/internal/domain/realtime"
	"github.com/hotelreservas/booking-gateway/internal/domain/reservation"
	"github.com/hotelreservas/booking-gateway/internal/domain/selection"
	"github.com/hotelreservas/booking-gateway/internal/middleware"
	"github.com/hotelreservas/booking-gateway/internal/pkg/jwt"
	pkgresponse "github.com/hotelreservas/booking-gateway/internal/pkg/response"
)

type routerHandlers struct {
	availability *availability.Handler
	selection    *selection.Handler
	reservation  *reservation.Handler
	payment      *payment.Handler
	realtime     *realtime.Handler // nil when realtime is disabled
}

func newRouter(cfg *config.Config, jwtService *jwt.Service, defaultLoc *time.Location, h routerHandlers) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(chimw.Compress(5))
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(middleware.Timezone(defaultLoc))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status": "ok",
			"env":    cfg.Env,
		})
	})

	authMiddleware := middleware.Auth(jwtService)

	if h.realtime != nil {
		r.Mount("/ws", h.realtime.Routes(authMiddleware))
	}

	r.Mount("/webhooks", h.payment.WebhookRoutes())

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/availability", h.availability.Routes(middleware.OptionalAuth(jwtService)))
		r.Mount("/selection", h.selection.Routes(authMiddleware))
		r.Mount("/reservations", h.reservation.Routes(authMiddleware, h.payment.ReservationRoutes))
		r.Mount("/admin/reservations", h.reservation.AdminRoutes(authMiddleware))
	})

	return r
}
