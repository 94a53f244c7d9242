package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hotelreservas/booking-gateway/internal/pkg/events"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/logger"
)

const compensationTimeout = 30 * time.Second

type composeInput struct {
	kind      Kind
	token     string
	userID    int64
	clienteID int64
	estado    hotelapi.Estado
	nota      string
	checkIn   time.Time
	checkOut  time.Time
	rooms     []hotelapi.Room
	nights    int
}

type composed struct {
	submission *Submission
	reserva    *hotelapi.Reserva
	details    []hotelapi.ReservaDetalle
	nights     int
	total      float64
}

// compose creates the header, then every detail concurrently. When any detail fails the created
// rows are undone; what could not be undone is left to the reconciliation worker.
func (s *Service) compose(ctx context.Context, in composeInput) (*composed, error) {
	var total float64
	roomIDs := make([]int64, 0, len(in.rooms))
	for _, r := range in.rooms {
		total += r.NightlyPrice() * float64(in.nights)
		roomIDs = append(roomIDs, r.ID)
	}

	sub := &Submission{
		ID:        uuid.New(),
		Kind:      in.kind,
		UserID:    in.userID,
		ClienteID: in.clienteID,
		RoomIDs:   roomIDs,
		CheckIn:   in.checkIn,
		CheckOut:  in.checkOut,
		Total:     total,
		Status:    StatusPending,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedger, err)
	}

	header := hotelapi.Reserva{
		FechaReserva: hotelapi.NewTimestamp(s.now()),
		FechaInicio:  hotelapi.NewTimestamp(in.checkIn),
		FechaFin:     hotelapi.NewTimestamp(in.checkOut),
		Estado:       in.estado,
		Activo:       true,
		Cliente:      &hotelapi.Ref{ID: in.clienteID},
	}

	created, err := s.backend.CreateReservation(ctx, in.token, header)
	if err != nil {
		s.logBackendError(ctx, "POST /reservas", err)
		s.finish(ctx, sub, StatusFailed, nil, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrReservationCreate, err)
	}
	if created == nil || created.ID == 0 {
		s.finish(ctx, sub, StatusFailed, nil, ErrMissingReservationID.Error())
		return nil, ErrMissingReservationID
	}

	sub.ReservaID = sql.NullInt64{Int64: created.ID, Valid: true}
	if err := s.repo.SetReservation(context.WithoutCancel(ctx), sub.ID, created.ID); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("submission_id", sub.ID.String()).Msg("failed to record reservation id")
	}

	details, detailErr := s.createDetails(ctx, in.token, created.ID, in.rooms, in.nota)
	detailIDs := make([]int64, 0, len(details))
	for _, d := range details {
		detailIDs = append(detailIDs, d.ID)
	}

	if detailErr != nil {
		s.logBackendError(ctx, "POST /reserva-detalles", detailErr)

		outcome, compErr := s.compensate(ctx, in.token, created.ID, detailIDs)
		status := StatusCompensated
		msg := detailErr.Error()
		if compErr != nil {
			status = StatusCompensationPending
			msg = errors.Join(detailErr, compErr).Error()
		}
		s.finish(ctx, sub, status, detailIDs, msg)

		logger.FromContext(ctx).Error().
			Err(detailErr).
			Int64("reserva_id", created.ID).
			Int("requested", len(in.rooms)).
			Int("created", len(details)).
			Str("compensation", outcome.String()).
			Msg("reservation detail creation failed")

		return nil, &PartialFailureError{
			ReservaID:  created.ID,
			Requested:  len(in.rooms),
			Created:    len(details),
			RolledBack: outcome != compensationNone,
			Err:        detailErr,
		}
	}

	s.finish(ctx, sub, StatusCompleted, detailIDs, "")
	sub.Status = StatusCompleted
	sub.DetailIDs = detailIDs

	if created.Estado == "" {
		created.Estado = in.estado
	}
	if created.FechaInicio.IsZero() {
		created.FechaInicio = header.FechaInicio
	}
	if created.FechaFin.IsZero() {
		created.FechaFin = header.FechaFin
	}
	if created.Cliente == nil {
		created.Cliente = header.Cliente
	}

	return &composed{
		submission: sub,
		reserva:    created,
		details:    details,
		nights:     in.nights,
		total:      total,
	}, nil
}

// createDetails posts one detail per room with a bounded number in flight. Every request runs to
// completion so the created ids are known for compensation.
func (s *Service) createDetails(ctx context.Context, token string, reservaID int64, rooms []hotelapi.Room, nota string) ([]hotelapi.ReservaDetalle, error) {
	results := make([]*hotelapi.ReservaDetalle, len(rooms))

	var g errgroup.Group
	g.SetLimit(s.cfg.DetailWorkers)

	for i, room := range rooms {
		i, room := i, room
		g.Go(func() error {
			d, err := s.backend.CreateReservationDetail(ctx, token, hotelapi.ReservaDetalle{
				PrecioUnitario: room.NightlyPrice(),
				Nota:           nota,
				Activo:         true,
				Reserva:        &hotelapi.Ref{ID: reservaID},
				Habitacion:     &room,
			})
			if err != nil {
				return fmt.Errorf("detail for room %d: %w", room.ID, err)
			}
			if d == nil || d.ID == 0 {
				return fmt.Errorf("detail for room %d: backend did not assign an id", room.ID)
			}
			results[i] = d
			return nil
		})
	}
	err := g.Wait()

	details := make([]hotelapi.ReservaDetalle, 0, len(rooms))
	for _, d := range results {
		if d != nil {
			details = append(details, *d)
		}
	}
	return details, err
}

type compensation int

const (
	compensationNone compensation = iota
	compensationDeleted
	compensationCancelled
)

func (c compensation) String() string {
	switch c {
	case compensationDeleted:
		return "deleted"
	case compensationCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// compensate deletes the given details and the header; when the header cannot be deleted it is
// cancelled instead. It runs detached from the request so a client disconnect cannot stop it.
func (s *Service) compensate(ctx context.Context, token string, reservaID int64, detailIDs []int64) (compensation, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	log := logger.FromContext(ctx)
	for _, id := range detailIDs {
		if err := s.backend.DeleteReservationDetail(ctx, token, id); err != nil && !errors.Is(err, hotelapi.ErrNotFound) {
			log.Warn().Err(err).Int64("detail_id", id).Int64("reserva_id", reservaID).Msg("failed to delete reservation detail")
		}
	}

	delErr := s.backend.DeleteReservation(ctx, token, reservaID)
	if delErr == nil || errors.Is(delErr, hotelapi.ErrNotFound) {
		return compensationDeleted, nil
	}
	log.Warn().Err(delErr).Int64("reserva_id", reservaID).Msg("failed to delete reservation, cancelling instead")

	if _, err := s.backend.UpdateReservationStatus(ctx, token, reservaID, hotelapi.EstadoCancelada); err != nil {
		return compensationNone, errors.Join(delErr, err)
	}
	return compensationCancelled, nil
}

func (s *Service) finish(ctx context.Context, sub *Submission, status Status, detailIDs []int64, errMsg string) {
	if err := s.repo.Finish(context.WithoutCancel(ctx), sub.ID, status, sub.ReservaID, detailIDs, errMsg); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("submission_id", sub.ID.String()).
			Str("status", string(status)).
			Msg("failed to update submission ledger")
	}
	sub.Status = status
}

func (c *composed) event(userID int64) events.ReservationEvent {
	return events.ReservationEvent{
		ReservaID:  c.reserva.ID,
		UserID:     userID,
		ClienteID:  c.reserva.ClienteID(),
		Estado:     string(c.reserva.Estado),
		RoomIDs:    c.submission.RoomIDs,
		Nights:     c.nights,
		Total:      c.total,
		CheckIn:    c.submission.CheckIn.UTC().Format(time.RFC3339),
		CheckOut:   c.submission.CheckOut.UTC().Format(time.RFC3339),
		OccurredAt: time.Now().UTC(),
	}
}

func (c *composed) result(redirectTo string) *SubmitResult {
	return &SubmitResult{
		SubmissionID: c.submission.ID,
		Reservation:  c.reserva,
		Details:      c.details,
		Nights:       c.nights,
		Total:        c.total,
		RedirectTo:   redirectTo,
	}
}
