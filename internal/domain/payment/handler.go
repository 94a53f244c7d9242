package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hotelreservas/booking-gateway/internal/middleware"
	"github.com/hotelreservas/booking-gateway/internal/pkg/errorhandler"
	"github.com/hotelreservas/booking-gateway/internal/pkg/paywidget"
	"github.com/hotelreservas/booking-gateway/internal/pkg/response"
	"github.com/hotelreservas/booking-gateway/internal/pkg/validator"
)

const maxWebhookBody = 1 << 20

// ErrorWriter renders errors that are not payment specific
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// ReservationIDParser reads the reservation id from the URL
type ReservationIDParser func(w http.ResponseWriter, r *http.Request) (int64, bool)

// Handler handles payment HTTP requests
type Handler struct {
	service  *Service
	fallback ErrorWriter
	parseID  ReservationIDParser
}

// NewHandler creates payment handler
func NewHandler(service *Service, fallback ErrorWriter, parseID ReservationIDParser) *Handler {
	return &Handler{service: service, fallback: fallback, parseID: parseID}
}

// CreateIntent handles POST /reservations/{id}/payment-intent
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	out, err := h.service.CreateIntent(r.Context(), middleware.GetSession(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, out)
}

// Result handles POST /reservations/{id}/payment-result
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req ResultRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	out, err := h.service.Result(r.Context(), middleware.GetSession(r), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, out)
}

// Webhook handles POST /webhooks/payments
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Invalid webhook body")
		return
	}

	err = h.service.HandleWebhook(r.Context(), payload, r.Header.Get(paywidget.SignatureHeader))
	switch {
	case err == nil:
		response.OK(w, map[string]string{"status": "ok"})
	case errors.Is(err, ErrInvalidSignature):
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("payment webhook rejected: bad signature")
		response.Unauthorized(w, "Invalid signature")
	case errors.Is(err, ErrInvalidPayload):
		response.BadRequest(w, "Invalid webhook data")
	default:
		// non-2xx makes the provider retry
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "WEBHOOK_FAILED", "Webhook could not be applied", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		response.Unauthorized(w, "User not authenticated")
	case errors.Is(err, ErrPaymentsDisabled):
		response.ServiceUnavailable(w, "PAYMENTS_DISABLED", "Online payment is not available")
	case errors.Is(err, ErrNotPayable):
		response.Conflict(w, "Only pending reservations can be paid")
	case errors.Is(err, ErrNothingToPay):
		response.Error(w, http.StatusUnprocessableEntity, "NOTHING_TO_PAY", "Reservation total is zero")
	case errors.Is(err, ErrIntentNotFound):
		response.NotFound(w, "Payment intent not found")
	case errors.Is(err, ErrIntentMismatch):
		response.Forbidden(w, "Payment intent does not belong to this reservation")
	case errors.Is(err, ErrPaymentNotCompleted):
		response.Error(w, http.StatusPaymentRequired, "PAYMENT_NOT_COMPLETED", "The payment has not been completed")
	case errors.Is(err, ErrAmountMismatch):
		errorhandler.HandleError(r.Context(), w, http.StatusConflict, "AMOUNT_MISMATCH", "Paid amount does not match the reservation", err)
	case errors.Is(err, ErrProvider):
		response.BadGateway(w, "PAYMENT_PROVIDER_ERROR", "The payment provider is not responding, please try again")
	case errors.Is(err, ErrConfirmFailed):
		errorhandler.HandleError(r.Context(), w, http.StatusBadGateway, "CONFIRMATION_FAILED", "Payment received but the reservation could not be confirmed yet", err)
	case h.fallback != nil:
		h.fallback(w, r, err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

// ReservationRoutes registers the payment endpoints under an authenticated reservations router
func (h *Handler) ReservationRoutes(r chi.Router) {
	r.Post("/{id}/payment-intent", h.CreateIntent)
	r.Post("/{id}/payment-result", h.Result)
}

// WebhookRoutes returns webhook router (no auth, but signature verification)
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/payments", h.Webhook)
	return r
}
