package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hotelreservas/booking-gateway/internal/config"
	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/domain/payment"
	"github.com/hotelreservas/booking-gateway/internal/domain/reservation"
	"github.com/hotelreservas/booking-gateway/internal/domain/selection"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/jwt"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) (chi.Router, *jwt.Service) {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(backend.Close)

	cfg := &config.Config{Env: "test", AllowedOrigins: []string{"http://localhost:3000"}}
	jwtService := jwt.NewService(testSecret, time.Hour)
	hotel := hotelapi.NewClient(backend.URL, "service", time.Second, "booking-gateway/test")

	availabilityService := availability.NewService(hotel, nil, 0)
	store := selection.NewStore(nil, time.Hour)
	reservationService := reservation.NewService(
		hotel,
		availabilityService,
		store,
		reservation.NewRepository(nil),
		reservation.NewGuard(nil, time.Minute),
		nil,
		nil,
		reservation.Config{},
	)
	paymentService := payment.NewService(payment.NewRepository(nil), nil, reservationService, payment.Config{WebhookSecret: "whsec"})

	reservationHandler := reservation.NewHandler(reservationService)
	r := newRouter(cfg, jwtService, time.UTC, routerHandlers{
		availability: availability.NewHandler(availabilityService),
		selection:    selection.NewHandler(selection.NewService(store, availabilityService)),
		reservation:  reservationHandler,
		payment:      payment.NewHandler(paymentService, reservationHandler.WriteError, reservation.ParseID),
	})
	return r, jwtService
}

func TestRouterWiring(t *testing.T) {
	r, jwtService := newTestRouter(t)

	clientToken, err := jwtService.GenerateAccessToken(42, jwt.RoleClient, "guest@example.com")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{name: "health", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "availability is public", method: http.MethodGet, path: "/api/v1/availability/rooms", want: http.StatusUnprocessableEntity},
		{name: "selection requires auth", method: http.MethodGet, path: "/api/v1/selection", want: http.StatusUnauthorized},
		{name: "reservations require auth", method: http.MethodGet, path: "/api/v1/reservations", want: http.StatusUnauthorized},
		{name: "payment intent bad id", method: http.MethodPost, path: "/api/v1/reservations/abc/payment-intent", token: clientToken, want: http.StatusBadRequest},
		{name: "admin rejects clients", method: http.MethodPost, path: "/api/v1/admin/reservations", token: clientToken, body: `{}`, want: http.StatusForbidden},
		{name: "webhook checks signature", method: http.MethodPost, path: "/webhooks/payments", body: `{}`, want: http.StatusUnauthorized},
		{name: "realtime disabled", method: http.MethodGet, path: "/ws/reservations", token: clientToken, want: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
}
