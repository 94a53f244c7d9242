package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/domain/selection"
	"github.com/hotelreservas/booking-gateway/internal/pkg/errorhandler"
	"github.com/hotelreservas/booking-gateway/internal/pkg/events"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/logger"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
)

const publishTimeout = 5 * time.Second

// Backend is the part of the hotel REST API reservations need
type Backend interface {
	CreateReservation(ctx context.Context, token string, r hotelapi.Reserva) (*hotelapi.Reserva, error)
	CreateReservationDetail(ctx context.Context, token string, d hotelapi.ReservaDetalle) (*hotelapi.ReservaDetalle, error)
	UpdateReservationStatus(ctx context.Context, token string, id int64, estado hotelapi.Estado) (*hotelapi.Reserva, error)
	DeleteReservation(ctx context.Context, token string, id int64) error
	DeleteReservationDetail(ctx context.Context, token string, id int64) error
	GetReservation(ctx context.Context, token string, id int64) (*hotelapi.Reserva, error)
	ListReservationDetails(ctx context.Context, token string, reservaID int64) ([]hotelapi.ReservaDetalle, error)
	ListClientReservations(ctx context.Context, token string, clienteID int64) ([]hotelapi.Reserva, error)
	GetClientByUserID(ctx context.Context, token string, userID int64) (*hotelapi.Cliente, error)
}

// Notifier pushes reservation state changes to a connected user
type Notifier interface {
	NotifyReservationStatus(ctx context.Context, userID, reservaID int64, estado hotelapi.Estado)
}

type noopNotifier struct{}

func (noopNotifier) NotifyReservationStatus(context.Context, int64, int64, hotelapi.Estado) {}

// Config holds reservation service settings
type Config struct {
	DetailWorkers   int
	ProfileURL      string
	ReservationsURL string
}

// Service composes reservations on the hotel backend
type Service struct {
	backend      Backend
	availability *availability.Service
	selections   selection.Store
	repo         Repository
	guard        Guard
	publisher    events.Publisher
	notifier     Notifier
	cfg          Config
	now          func() time.Time
}

// NewService creates reservation service. publisher and notifier may be nil.
func NewService(
	backend Backend,
	availability *availability.Service,
	selections selection.Store,
	repo Repository,
	guard Guard,
	publisher events.Publisher,
	notifier Notifier,
	cfg Config,
) *Service {
	if cfg.DetailWorkers <= 0 {
		cfg.DetailWorkers = 4
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		backend:      backend,
		availability: availability,
		selections:   selections,
		repo:         repo,
		guard:        guard,
		publisher:    publisher,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Config returns the service settings
func (s *Service) Config() Config {
	return s.cfg
}

// Submit turns the caller's stored selection into one reservation plus one detail per room.
// The selection is cleared only on full success.
func (s *Service) Submit(ctx context.Context, sess *session.Session) (*SubmitResult, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	release, err := s.guard.Acquire(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	sel, err := s.selections.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if sel.IsEmpty() {
		return nil, ErrEmptySelection
	}

	r, err := availability.ParseRange(sel.Start, sel.End, sess.Loc(), s.now())
	if err != nil {
		return nil, err
	}

	cliente, err := s.resolveClient(ctx, sess)
	if err != nil {
		return nil, err
	}

	rooms, err := s.recheck(ctx, sess, r, sel.RoomIDs())
	if err != nil {
		return nil, err
	}

	checkIn, checkOut := StayInstants(r, sess.Loc())
	out, err := s.compose(ctx, composeInput{
		kind:      KindClient,
		token:     sess.Token,
		userID:    sess.UserID,
		clienteID: cliente.ID,
		estado:    hotelapi.EstadoPendiente,
		checkIn:   checkIn,
		checkOut:  checkOut,
		rooms:     rooms,
		nights:    r.Nights(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.selections.Update(ctx, sess.UserID, func(sel *selection.Selection) error {
		sel.Clear()
		return nil
	}); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("user_id", sess.UserID).Msg("failed to clear selection after submit")
	}

	s.publish(ctx, events.ReservationCreated, out.event(sess.UserID))
	s.notifier.NotifyReservationStatus(ctx, sess.UserID, out.reserva.ID, out.reserva.Estado)

	logger.FromContext(ctx).Info().
		Int64("user_id", sess.UserID).
		Int64("reserva_id", out.reserva.ID).
		Int("rooms", len(out.details)).
		Msg("reservation submitted")

	return out.result(s.cfg.ReservationsURL), nil
}

// CreateForClient is the staff booking path: rooms are resolved from availability and the
// reservation starts in the requested state (CONFIRMADA by default).
func (s *Service) CreateForClient(ctx context.Context, sess *session.Session, req StaffCreateRequest) (*SubmitResult, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	estado := hotelapi.EstadoConfirmada
	if req.Estado != "" {
		estado = hotelapi.NormalizeEstado(req.Estado)
	}
	if !initialStates[estado] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEstado, estado)
	}

	r, err := availability.ParseRange(req.Start, req.End, sess.Loc(), s.now())
	if err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	rooms, err := s.recheck(ctx, sess, r, uniqueIDs(req.RoomIDs))
	if err != nil {
		return nil, err
	}

	checkIn, checkOut := StayInstants(r, sess.Loc())
	out, err := s.compose(ctx, composeInput{
		kind:      KindStaff,
		token:     sess.Token,
		userID:    sess.UserID,
		clienteID: req.ClienteID,
		estado:    estado,
		nota:      req.Nota,
		checkIn:   checkIn,
		checkOut:  checkOut,
		rooms:     rooms,
		nights:    r.Nights(),
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ReservationCreated, out.event(sess.UserID))
	return out.result(""), nil
}

var initialStates = map[hotelapi.Estado]bool{
	hotelapi.EstadoPendiente:  true,
	hotelapi.EstadoConfirmada: true,
	hotelapi.EstadoCheckIn:    true,
}

// UpdateStatus moves a reservation along the front-desk state graph.
func (s *Service) UpdateStatus(ctx context.Context, sess *session.Session, id int64, estado string) (*hotelapi.Reserva, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	next := hotelapi.NormalizeEstado(estado)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEstado, estado)
	}

	current, err := s.getReservation(ctx, sess.Token, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Estado, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Estado, next)
	}
	return s.setStatus(ctx, sess.Token, current, next)
}

// Confirm marks a reservation CONFIRMADA after payment. Confirming twice is a no-op.
func (s *Service) Confirm(ctx context.Context, token string, id int64) (*hotelapi.Reserva, error) {
	current, err := s.getReservation(ctx, token, id)
	if err != nil {
		return nil, err
	}
	if current.Estado == hotelapi.EstadoConfirmada {
		return current, nil
	}
	if !CanTransition(current.Estado, hotelapi.EstadoConfirmada) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Estado, hotelapi.EstadoConfirmada)
	}
	return s.setStatus(ctx, token, current, hotelapi.EstadoConfirmada)
}

// Cancel lets the owner cancel while the reservation is PENDIENTE or CONFIRMADA.
func (s *Service) Cancel(ctx context.Context, sess *session.Session, id int64) (*hotelapi.Reserva, error) {
	current, err := s.getOwned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !Cancellable(current.Estado) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Estado, hotelapi.EstadoCancelada)
	}
	return s.setStatus(ctx, sess.Token, current, hotelapi.EstadoCancelada)
}

// List returns the caller's reservations
func (s *Service) List(ctx context.Context, sess *session.Session) ([]hotelapi.Reserva, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	cliente, err := s.resolveClient(ctx, sess)
	if err != nil {
		return nil, err
	}
	items, err := s.backend.ListClientReservations(ctx, sess.Token, cliente.ID)
	if err != nil {
		s.logBackendError(ctx, "GET /reservas", err)
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return items, nil
}

// GetOwned returns a reservation of the caller (any reservation for staff) with its details and
// a price summary derived from the stored instants.
func (s *Service) GetOwned(ctx context.Context, sess *session.Session, id int64) (*View, error) {
	r, err := s.getOwned(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	details, err := s.backend.ListReservationDetails(ctx, sess.Token, id)
	if err != nil {
		s.logBackendError(ctx, "GET /reserva-detalles", err)
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return NewView(r, details), nil
}

func (s *Service) getOwned(ctx context.Context, sess *session.Session, id int64) (*hotelapi.Reserva, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	r, err := s.getReservation(ctx, sess.Token, id)
	if err != nil {
		return nil, err
	}
	if sess.HasRole(staffRoles...) {
		return r, nil
	}

	cliente, err := s.resolveClient(ctx, sess)
	if err != nil {
		return nil, err
	}
	if r.ClienteID() != cliente.ID {
		return nil, ErrNotOwner
	}
	return r, nil
}

func (s *Service) getReservation(ctx context.Context, token string, id int64) (*hotelapi.Reserva, error) {
	r, err := s.backend.GetReservation(ctx, token, id)
	if errors.Is(err, hotelapi.ErrNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		s.logBackendError(ctx, "GET /reservas/{id}", err)
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if r.ID == 0 {
		r.ID = id
	}
	return r, nil
}

func (s *Service) setStatus(ctx context.Context, token string, current *hotelapi.Reserva, next hotelapi.Estado) (*hotelapi.Reserva, error) {
	updated, err := s.backend.UpdateReservationStatus(ctx, token, current.ID, next)
	if err != nil {
		s.logBackendError(ctx, "PATCH /reservas/{id}", err)
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if updated == nil {
		copied := *current
		updated = &copied
	}
	updated.Estado = next

	routingKey := events.ReservationStatus
	switch next {
	case hotelapi.EstadoConfirmada:
		routingKey = events.ReservationConfirmed
	case hotelapi.EstadoCancelada:
		routingKey = events.ReservationCancelled
	}

	ev := events.ReservationEvent{
		ReservaID:  updated.ID,
		ClienteID:  updated.ClienteID(),
		Estado:     string(next),
		OccurredAt: s.now().UTC(),
	}

	if sub, err := s.repo.GetByReservation(ctx, updated.ID); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("reserva_id", updated.ID).Msg("ledger lookup failed")
	} else if sub != nil {
		ev.UserID = sub.UserID
		if sub.Kind == KindClient {
			s.notifier.NotifyReservationStatus(ctx, sub.UserID, updated.ID, next)
		}
	}

	s.publish(ctx, routingKey, ev)
	return updated, nil
}

func (s *Service) resolveClient(ctx context.Context, sess *session.Session) (*hotelapi.Cliente, error) {
	c, err := s.backend.GetClientByUserID(ctx, sess.Token, sess.UserID)
	if errors.Is(err, hotelapi.ErrNotFound) {
		return nil, ErrProfileIncomplete
	}
	if err != nil {
		s.logBackendError(ctx, "GET /clientes/usuario/{id}", err)
		return nil, fmt.Errorf("%w: %w", ErrClientLookup, err)
	}
	return c, nil
}

// recheck re-queries availability and returns the fresh records of ids in the given order.
func (s *Service) recheck(ctx context.Context, sess *session.Session, r availability.DateRange, ids []int64) ([]hotelapi.Room, error) {
	available, err := s.availability.Available(ctx, sess, r, 0)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]hotelapi.Room, len(available))
	for _, room := range available {
		byID[room.ID] = room
	}

	rooms := make([]hotelapi.Room, 0, len(ids))
	var missing []int64
	for _, id := range ids {
		room, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		rooms = append(rooms, room)
	}
	if len(missing) > 0 {
		return nil, &RoomsUnavailableError{RoomIDs: missing}
	}
	return rooms, nil
}

func (s *Service) publish(ctx context.Context, routingKey string, ev events.ReservationEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, routingKey, ev); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("event", routingKey).Int64("reserva_id", ev.ReservaID).Msg("failed to publish reservation event")
	}
}

func (s *Service) logBackendError(ctx context.Context, endpoint string, err error) {
	status, body := hotelapi.StatusOf(err)
	errorhandler.LogExternalServiceError(ctx, "hotel-api", endpoint, status, err, body)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
