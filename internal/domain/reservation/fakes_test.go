package reservation

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/domain/selection"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
)

func testRoom(id int64, price float64) hotelapi.Room {
	return hotelapi.Room{
		ID:                  id,
		Numero:              strconv.FormatInt(100+id, 10),
		Activo:              true,
		CategoriaHabitacion: &hotelapi.Categoria{Nombre: "Doble", PrecioBase: &price},
	}
}

type fakeLister struct {
	rooms []hotelapi.Room
	err   error
}

func (f *fakeLister) ListAvailableRooms(context.Context, string, string, string, int) ([]hotelapi.Room, error) {
	return f.rooms, f.err
}

type fakeBackend struct {
	mu sync.Mutex

	cliente   *hotelapi.Cliente
	clientErr error

	createErr   error
	createEcho  *hotelapi.Reserva
	created     []hotelapi.Reserva
	failRooms   map[int64]bool
	details     []hotelapi.ReservaDetalle
	nextDetail  int64
	detailCalls int

	deleteErr      error
	deletedHeaders []int64
	deletedDetails []int64
	patchErr       error
	patched        map[int64]hotelapi.Estado
	reservations   map[int64]*hotelapi.Reserva
	listDetailsErr error
	storedDetails  map[int64][]hotelapi.ReservaDetalle
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		cliente:       &hotelapi.Cliente{ID: 9, Nombre: "Ana"},
		failRooms:     map[int64]bool{},
		nextDetail:    100,
		patched:       map[int64]hotelapi.Estado{},
		reservations:  map[int64]*hotelapi.Reserva{},
		storedDetails: map[int64][]hotelapi.ReservaDetalle{},
	}
}

func (f *fakeBackend) CreateReservation(_ context.Context, _ string, r hotelapi.Reserva) (*hotelapi.Reserva, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, r)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createEcho != nil {
		return f.createEcho, nil
	}
	out := r
	out.ID = 55
	return &out, nil
}

func (f *fakeBackend) CreateReservationDetail(_ context.Context, _ string, d hotelapi.ReservaDetalle) (*hotelapi.ReservaDetalle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if d.Habitacion != nil && f.failRooms[d.Habitacion.ID] {
		return nil, &hotelapi.HTTPError{Op: "create detail", Status: 500, Body: "boom"}
	}
	f.nextDetail++
	d.ID = f.nextDetail
	f.details = append(f.details, d)
	return &d, nil
}

func (f *fakeBackend) UpdateReservationStatus(_ context.Context, _ string, id int64, estado hotelapi.Estado) (*hotelapi.Reserva, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	f.patched[id] = estado
	if r, ok := f.reservations[id]; ok {
		r.Estado = estado
	}
	return nil, nil
}

func (f *fakeBackend) DeleteReservation(_ context.Context, _ string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedHeaders = append(f.deletedHeaders, id)
	return nil
}

func (f *fakeBackend) DeleteReservationDetail(_ context.Context, _ string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedDetails = append(f.deletedDetails, id)
	return nil
}

func (f *fakeBackend) GetReservation(_ context.Context, _ string, id int64) (*hotelapi.Reserva, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, &hotelapi.HTTPError{Op: "get reservation", Status: 404}
	}
	copied := *r
	return &copied, nil
}

func (f *fakeBackend) ListReservationDetails(_ context.Context, _ string, reservaID int64) ([]hotelapi.ReservaDetalle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listDetailsErr != nil {
		return nil, f.listDetailsErr
	}
	return f.storedDetails[reservaID], nil
}

func (f *fakeBackend) ListClientReservations(_ context.Context, _ string, clienteID int64) ([]hotelapi.Reserva, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []hotelapi.Reserva
	for _, r := range f.reservations {
		if r.ClienteID() == clienteID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetClientByUserID(context.Context, string, int64) (*hotelapi.Cliente, error) {
	if f.clientErr != nil {
		return nil, f.clientErr
	}
	return f.cliente, nil
}

type fakeRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*Submission
	createErr error
	setResErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[uuid.UUID]*Submission{}}
}

func (r *fakeRepo) Create(_ context.Context, s *Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	copied := *s
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	r.items[s.ID] = &copied
	return nil
}

func (r *fakeRepo) SetReservation(_ context.Context, id uuid.UUID, reservaID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setResErr != nil {
		return r.setResErr
	}
	s, ok := r.items[id]
	if !ok {
		return errors.New("not found")
	}
	s.ReservaID.Int64, s.ReservaID.Valid = reservaID, true
	return nil
}

func (r *fakeRepo) Finish(_ context.Context, id uuid.UUID, status Status, reservaID sql.NullInt64, detailIDs []int64, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return errors.New("not found")
	}
	s.Status = status
	if reservaID.Valid {
		s.ReservaID = reservaID
	}
	s.DetailIDs = detailIDs
	s.Error.String, s.Error.Valid = errMsg, errMsg != ""
	return nil
}

func (r *fakeRepo) RecordAttempt(_ context.Context, id uuid.UUID, status Status, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return errors.New("not found")
	}
	s.Status = status
	s.Attempts++
	s.Error.String, s.Error.Valid = errMsg, errMsg != ""
	return nil
}

func (r *fakeRepo) GetByReservation(_ context.Context, reservaID int64) (*Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.ReservaID.Valid && s.ReservaID.Int64 == reservaID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListForReconcile(_ context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Submission
	for _, s := range r.items {
		if s.Attempts >= maxAttempts {
			continue
		}
		if s.Status == StatusCompensationPending || (s.Status == StatusPending && s.UpdatedAt.Before(staleBefore)) {
			copied := *s
			out = append(out, &copied)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// only returns the single stored submission; tests create at most one
func (r *fakeRepo) only() *Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		return s
	}
	return nil
}

type notification struct {
	userID, reservaID int64
	estado            hotelapi.Estado
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) NotifyReservationStatus(_ context.Context, userID, reservaID int64, estado hotelapi.Estado) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userID, reservaID, estado})
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fixture struct {
	svc        *Service
	backend    *fakeBackend
	lister     *fakeLister
	selections *selection.MemoryStore
	repo       *fakeRepo
	guard      *MemoryGuard
	notifier   *fakeNotifier
	publisher  *fakePublisher
}

func newFixture(rooms ...hotelapi.Room) *fixture {
	f := &fixture{
		backend:    newFakeBackend(),
		lister:     &fakeLister{rooms: rooms},
		selections: selection.NewMemoryStore(time.Hour),
		repo:       newFakeRepo(),
		guard:      NewMemoryGuard(),
		notifier:   &fakeNotifier{},
		publisher:  &fakePublisher{},
	}
	f.svc = NewService(
		f.backend,
		availability.NewService(f.lister, nil, 50),
		f.selections,
		f.repo,
		f.guard,
		f.publisher,
		f.notifier,
		Config{DetailWorkers: 2, ProfileURL: "/perfil", ReservationsURL: "/mis-reservas"},
	)
	return f
}

func (f *fixture) selectRooms(t *testing.T, userID int64, start, end string, rooms ...hotelapi.Room) {
	t.Helper()
	sel := &selection.Selection{Rooms: rooms, Start: start, End: end}
	if err := f.selections.Save(context.Background(), userID, sel); err != nil {
		t.Fatalf("save selection: %v", err)
	}
}

var (
	guest = &session.Session{UserID: 42, Role: "CLIENTE", Token: "guest-token", Location: time.UTC}
	staff = &session.Session{UserID: 7, Role: "EMPLEADO", Token: "staff-token", Location: time.UTC}
)
