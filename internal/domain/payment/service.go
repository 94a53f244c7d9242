package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/hotelreservas/booking-gateway/internal/domain/reservation"
	"github.com/hotelreservas/booking-gateway/internal/pkg/errorhandler"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/logger"
	"github.com/hotelreservas/booking-gateway/internal/pkg/paywidget"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
)

// Provider is the payment widget API
type Provider interface {
	CreateIntent(ctx context.Context, req paywidget.CreateIntentRequest) (*paywidget.Intent, error)
	GetIntent(ctx context.Context, id string) (*paywidget.Intent, error)
}

// Reservations is the part of the reservation service payments rely on
type Reservations interface {
	GetOwned(ctx context.Context, sess *session.Session, id int64) (*reservation.View, error)
	Confirm(ctx context.Context, token string, id int64) (*hotelapi.Reserva, error)
}

// Config holds payment settings
type Config struct {
	Currency      string
	WebhookSecret string
}

// Service handles payment business logic
type Service struct {
	repo         Repository
	provider     Provider
	reservations Reservations
	cfg          Config
}

// NewService creates payment service. provider may be nil when payments are disabled.
func NewService(repo Repository, provider Provider, reservations Reservations, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "MXN"
	}
	return &Service{
		repo:         repo,
		provider:     provider,
		reservations: reservations,
		cfg:          cfg,
	}
}

// CreateIntent opens a provider intent for the full price of a pending reservation owned by the caller.
func (s *Service) CreateIntent(ctx context.Context, sess *session.Session, reservaID int64) (*IntentResponse, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	if s.provider == nil {
		return nil, ErrPaymentsDisabled
	}

	view, err := s.reservations.GetOwned(ctx, sess, reservaID)
	if err != nil {
		return nil, err
	}
	if view.Reserva.Estado != hotelapi.EstadoPendiente {
		return nil, ErrNotPayable
	}
	if view.Total <= 0 {
		return nil, ErrNothingToPay
	}

	intent, err := s.provider.CreateIntent(ctx, paywidget.CreateIntentRequest{
		Amount:      paywidget.ToMinorUnits(view.Total),
		Currency:    s.cfg.Currency,
		Description: "Reserva #" + strconv.FormatInt(reservaID, 10),
		Metadata: map[string]string{
			"reserva_id": strconv.FormatInt(reservaID, 10),
			"user_id":    strconv.FormatInt(sess.UserID, 10),
		},
	})
	if err != nil {
		errorhandler.LogExternalServiceError(ctx, "paywidget", "POST /v1/payment_intents", 0, err, "")
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	p := &Intent{
		ID:               uuid.New(),
		ReservaID:        reservaID,
		UserID:           sess.UserID,
		ProviderIntentID: intent.ID,
		Amount:           view.Total,
		Currency:         s.cfg.Currency,
		Status:           StatusPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Int64("reserva_id", reservaID).
		Str("intent_id", intent.ID).
		Float64("amount", view.Total).
		Msg("payment intent created")

	return &IntentResponse{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       view.Total,
		Currency:     s.cfg.Currency,
	}, nil
}

// Result handles the widget callback. The browser's status is only trusted to record a failure;
// success is re-read from the provider before the reservation is confirmed.
func (s *Service) Result(ctx context.Context, sess *session.Session, reservaID int64, req ResultRequest) (*ResultResponse, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	if s.provider == nil {
		return nil, ErrPaymentsDisabled
	}

	p, err := s.repo.GetByProviderID(ctx, req.IntentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrIntentNotFound
	}
	if p.ReservaID != reservaID || p.UserID != sess.UserID {
		return nil, ErrIntentMismatch
	}

	if req.Status != paywidget.StatusSucceeded {
		updated, err := s.repo.UpdateLocked(ctx, req.IntentID, nil, func(p *Intent) (Status, error) {
			if p.IsPaid() {
				return p.Status, nil
			}
			return StatusFailed, nil
		})
		if err != nil {
			return nil, err
		}
		return &ResultResponse{ReservaID: reservaID, Status: string(updated.Status)}, nil
	}

	intent, err := s.provider.GetIntent(ctx, req.IntentID)
	if err != nil {
		errorhandler.LogExternalServiceError(ctx, "paywidget", "GET /v1/payment_intents/{id}", 0, err, "")
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	if !intent.Succeeded() {
		return nil, ErrPaymentNotCompleted
	}

	estado, err := s.confirm(ctx, sess.Token, intent, nil)
	if err != nil {
		return nil, err
	}
	return &ResultResponse{ReservaID: reservaID, Status: string(StatusCompleted), Estado: string(estado)}, nil
}

// HandleWebhook verifies and applies a provider notification.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.cfg.WebhookSecret == "" || !paywidget.VerifySignature(payload, signature, s.cfg.WebhookSecret) {
		return ErrInvalidSignature
	}

	ev, err := paywidget.ParseWebhook(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	log := logger.FromContext(ctx).With().Str("event", ev.Type).Str("intent_id", ev.Data.ID).Logger()

	switch ev.Type {
	case paywidget.EventIntentSucceeded:
		if !ev.Data.Succeeded() {
			return fmt.Errorf("%w: status %q", ErrInvalidPayload, ev.Data.Status)
		}
		_, err := s.confirm(ctx, "", &ev.Data, payload)
		if errors.Is(err, ErrIntentNotFound) {
			log.Warn().Msg("webhook for unknown payment intent")
			return nil
		}
		return err

	case paywidget.EventIntentFailed:
		_, err := s.repo.UpdateLocked(ctx, ev.Data.ID, payload, func(p *Intent) (Status, error) {
			if p.IsPaid() {
				return p.Status, nil
			}
			return StatusFailed, nil
		})
		if errors.Is(err, ErrIntentNotFound) {
			log.Warn().Msg("webhook for unknown payment intent")
			return nil
		}
		return err

	default:
		log.Debug().Msg("ignoring webhook event")
		return nil
	}
}

// confirm marks the reservation CONFIRMADA and the intent completed under the intent row lock, so
// the widget callback and the webhook cannot both apply it.
func (s *Service) confirm(ctx context.Context, token string, intent *paywidget.Intent, raw []byte) (hotelapi.Estado, error) {
	var estado hotelapi.Estado

	_, err := s.repo.UpdateLocked(ctx, intent.ID, raw, func(p *Intent) (Status, error) {
		if p.IsPaid() {
			estado = hotelapi.EstadoConfirmada
			return p.Status, nil
		}
		if intent.Amount != paywidget.ToMinorUnits(p.Amount) {
			return p.Status, fmt.Errorf("%w: expected %d, got %d", ErrAmountMismatch, paywidget.ToMinorUnits(p.Amount), intent.Amount)
		}

		r, err := s.reservations.Confirm(ctx, token, p.ReservaID)
		if err != nil {
			return p.Status, fmt.Errorf("%w: %w", ErrConfirmFailed, err)
		}
		estado = r.Estado

		logger.FromContext(ctx).Info().
			Int64("reserva_id", p.ReservaID).
			Str("intent_id", p.ProviderIntentID).
			Msg("reservation paid and confirmed")
		return StatusCompleted, nil
	})
	if err != nil {
		return "", err
	}
	return estado, nil
}
