package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
)

type fakeLister struct {
	calls int
	start string
	end   string
	size  int
	token string
	rooms []hotelapi.Room
	err   error
}

func (f *fakeLister) ListAvailableRooms(_ context.Context, token, start, end string, size int) ([]hotelapi.Room, error) {
	f.calls++
	f.token, f.start, f.end, f.size = token, start, end, size
	return f.rooms, f.err
}

type fakeSigner struct{}

func (fakeSigner) SignedURL(_ context.Context, key string) (string, error) {
	return "https://signed.example/" + key + "?sig=1", nil
}

func price(v float64) *float64 { return &v }

func newTestService(l *fakeLister) *Service {
	svc := NewService(l, fakeSigner{}, 50)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSearchPreservesOrderAndSignsImages(t *testing.T) {
	lister := &fakeLister{rooms: []hotelapi.Room{
		{ID: 9, Numero: "201", Imagen: "rooms/201.jpg", CategoriaHabitacion: &hotelapi.Categoria{Nombre: "Suite", PrecioBase: price(150)}},
		{ID: 3, Numero: "103", Imagen: "https://cdn.example/103.jpg"},
	}}
	svc := newTestService(lister)

	sess := &session.Session{Token: "user-token", Location: time.FixedZone("UTC-6", -6*3600)}
	resp, err := svc.Search(context.Background(), sess, "2025-06-01", "2025-06-04", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lister.start != "2025-06-01T00:00:00Z" || lister.end != "2025-06-04T00:00:00Z" || lister.size != 50 || lister.token != "user-token" {
		t.Fatalf("unexpected backend query: %+v", lister)
	}
	if len(resp.Rooms) != 2 || resp.Rooms[0].ID != 9 || resp.Rooms[1].ID != 3 {
		t.Fatalf("backend order not preserved: %+v", resp.Rooms)
	}
	if resp.Rooms[0].ImagenURL != "https://signed.example/rooms/201.jpg?sig=1" {
		t.Fatalf("expected signed url, got %q", resp.Rooms[0].ImagenURL)
	}
	if resp.Rooms[1].ImagenURL != "https://cdn.example/103.jpg" || resp.Rooms[1].Categoria != "General" {
		t.Fatalf("unexpected second room: %+v", resp.Rooms[1])
	}
	if resp.Nights != 3 || resp.Rooms[0].PrecioNoche != 150 {
		t.Fatalf("unexpected pricing data: %+v", resp)
	}
}

func TestSearchValidationSkipsBackend(t *testing.T) {
	lister := &fakeLister{}
	svc := newTestService(lister)

	_, err := svc.Search(context.Background(), nil, "2025-06-04", "2025-06-01", 0)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if lister.calls != 0 {
		t.Fatalf("backend must not be called, got %d calls", lister.calls)
	}
}

func TestAvailableWrapsBackendFailure(t *testing.T) {
	cause := errors.New("connection refused")
	svc := newTestService(&fakeLister{err: cause})

	r, _ := ParseRange("2025-06-01", "2025-06-04", time.UTC, fixedNow)
	_, err := svc.Available(context.Background(), nil, r, 0)
	if !errors.Is(err, ErrAvailabilityUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped availability error, got %v", err)
	}
}

func TestHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{name: "ok", query: "start=2025-06-01&end=2025-06-04", status: http.StatusOK},
		{name: "validation", query: "start=2025-06-01&end=2025-05-30", status: http.StatusUnprocessableEntity},
		{name: "backend down", query: "start=2025-06-01&end=2025-06-04", err: errors.New("boom"), status: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(newTestService(&fakeLister{err: tc.err, rooms: []hotelapi.Room{{ID: 1}}}))

			req := httptest.NewRequest(http.MethodGet, "/rooms?"+tc.query, nil)
			w := httptest.NewRecorder()
			h.Search(w, req)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			var body struct {
				Success bool `json:"success"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid envelope: %v", err)
			}
			if body.Success != (tc.status == http.StatusOK) {
				t.Fatalf("unexpected success flag for %d", w.Code)
			}
		})
	}
}
