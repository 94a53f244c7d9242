package hotelapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "service-token", time.Second, "booking-gateway/test")
}

func TestListAvailableRoomsQueryAndShapes(t *testing.T) {
	bodies := map[string]string{
		"array": `[{"id":2,"numero":"102","capacidad":2,"activo":true,"categoriaHabitacion":{"nombre":"Suite","precioBase":150}},{"id":1,"numero":"101","capacidad":1,"activo":true}]`,
		"page":  `{"content":[{"id":2,"numero":"102","capacidad":2,"activo":true,"categoriaHabitacion":{"nombre":"Suite","precioBase":150}},{"id":1,"numero":"101","capacidad":1,"activo":true}],"totalElements":2}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/habitaciones/disponibles" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				q := r.URL.Query()
				if q.Get("fechaInicio") != "2025-06-01T00:00:00Z" || q.Get("fechaFin") != "2025-06-04T00:00:00Z" || q.Get("size") != "50" {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte("bad query " + r.URL.RawQuery))
					return
				}
				if r.Header.Get("Authorization") != "Bearer user-token" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				_, _ = w.Write([]byte(body))
			})

			rooms, err := client.ListAvailableRooms(context.Background(), "user-token", "2025-06-01T00:00:00Z", "2025-06-04T00:00:00Z", 50)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rooms) != 2 || rooms[0].ID != 2 || rooms[1].ID != 1 {
				t.Fatalf("expected backend order [2 1], got %+v", rooms)
			}
			if rooms[0].NightlyPrice() != 150 || rooms[0].CategoryName() != "Suite" {
				t.Fatalf("unexpected category data: %+v", rooms[0])
			}
			if rooms[1].NightlyPrice() != 0 || rooms[1].CategoryName() != "General" {
				t.Fatalf("expected defaults for room without category, got %v %q", rooms[1].NightlyPrice(), rooms[1].CategoryName())
			}
		})
	}
}

func TestServiceTokenFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer service-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteReservation(context.Background(), "", 7); err != nil {
		t.Fatalf("expected service token to be used, got %v", err)
	}
}

func TestCreateReservationSendsRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/reservas" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var in map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if in["estado"] != "PENDIENTE" || in["fechaInicio"] != "2025-06-01T21:00:00Z" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("unexpected body"))
			return
		}
		if _, ok := in["id"]; ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("id must not be sent"))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":55,"estado":"pendiente","fechaInicio":"2025-06-01T21:00:00","fechaFin":"2025-06-04T17:00:00Z","activo":true,"cliente":{"id":9,"nombre":"Ana"}}`))
	})

	out, err := client.CreateReservation(context.Background(), "tok", Reserva{
		FechaReserva: NewTimestamp(time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)),
		FechaInicio:  NewTimestamp(time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)),
		FechaFin:     NewTimestamp(time.Date(2025, 6, 4, 17, 0, 0, 0, time.UTC)),
		Estado:       EstadoPendiente,
		Activo:       true,
		Cliente:      &Ref{ID: 9},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ID != 55 || out.Estado != EstadoPendiente || out.ClienteID() != 9 {
		t.Fatalf("unexpected echo: %+v", out)
	}
	if !out.FechaInicio.Equal(time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)) {
		t.Fatalf("zone-less timestamp should decode as UTC, got %v", out.FechaInicio)
	}
}

func TestUpdateReservationStatusPatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/reservas/12" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(r.Body)
		if strings.TrimSpace(string(b)) != `{"id":12,"estado":"CONFIRMADA"}` {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write(b)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	out, err := client.UpdateReservationStatus(context.Background(), "tok", 12, EstadoConfirmada)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil echo for empty body, got %+v", out)
	}
}

func TestGetClientByUserIDNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"cliente no encontrado"}`))
	})

	_, err := client.GetClientByUserID(context.Background(), "tok", 3)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusNotFound {
		t.Fatalf("expected HTTPError 404, got %v", err)
	}
}

func TestHTTPErrorIncludesBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	})

	_, err := client.CreateReservationDetail(context.Background(), "tok", ReservaDetalle{Reserva: &Ref{ID: 1}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status=400") || !strings.Contains(err.Error(), "body=bad request") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}

func TestTimeoutClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "token", 20*time.Millisecond, "")
	_, err := client.GetReservation(context.Background(), "", 1)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}

func TestNetworkErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "token", time.Second, "")
	_, err := client.ListReservationDetails(context.Background(), "", 1)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network classification, got %v", err)
	}
}

func TestNormalizeEstado(t *testing.T) {
	cases := map[string]Estado{
		" confirmada ": EstadoConfirmada,
		"check-in":     EstadoCheckIn,
		"Check Out":    EstadoCheckOut,
		"FINALIZADA":   EstadoFinalizada,
	}
	for in, want := range cases {
		if got := NormalizeEstado(in); got != want || !got.Valid() {
			t.Fatalf("NormalizeEstado(%q) = %q, want %q", in, got, want)
		}
	}
	if NormalizeEstado("pagada").Valid() {
		t.Fatal("unknown state must not be valid")
	}
}
