package reservation

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
)

type envelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope: %v: %s", err, w.Body.String())
	}
	return env
}

func TestWriteErrorMapping(t *testing.T) {
	h := NewHandler(newFixture().svc)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", ErrNotAuthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty", ErrEmptySelection, http.StatusUnprocessableEntity, "EMPTY_SELECTION"},
		{"validation", &availability.ValidationError{Field: "start", Message: "required"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"profile", ErrProfileIncomplete, http.StatusPreconditionRequired, "PROFILE_INCOMPLETE"},
		{"in flight", ErrSubmissionInProgress, http.StatusConflict, "SUBMISSION_IN_PROGRESS"},
		{"taken", &RoomsUnavailableError{RoomIDs: []int64{2, 3}}, http.StatusConflict, "ROOMS_UNAVAILABLE"},
		{"partial", &PartialFailureError{ReservaID: 55, RolledBack: true, Err: errors.New("x")}, http.StatusBadGateway, "PARTIAL_FAILURE"},
		{"create", ErrReservationCreate, http.StatusBadGateway, "RESERVATION_CREATE_FAILED"},
		{"backend down", availability.ErrAvailabilityUnavailable, http.StatusServiceUnavailable, ""},
		{"not found", ErrReservationNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"not owner", ErrNotOwner, http.StatusForbidden, "FORBIDDEN"},
		{"transition", ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{"ledger", ErrLedger, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/reservations", nil)
			w := httptest.NewRecorder()
			h.WriteError(w, req, tc.err)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			env := decodeEnvelope(t, w)
			if env.Success || env.Error == nil {
				t.Fatalf("expected error envelope, got %s", w.Body.String())
			}
			if tc.code != "" && env.Error.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, env.Error.Code)
			}
		})
	}
}

func TestWriteErrorDetails(t *testing.T) {
	h := NewHandler(newFixture().svc)
	req := httptest.NewRequest(http.MethodPost, "/reservations", nil)

	w := httptest.NewRecorder()
	h.WriteError(w, req, ErrProfileIncomplete)
	if got := decodeEnvelope(t, w).Error.Details["redirect_to"]; got != "/perfil" {
		t.Fatalf("expected profile redirect, got %q", got)
	}

	w = httptest.NewRecorder()
	h.WriteError(w, req, &RoomsUnavailableError{RoomIDs: []int64{2, 3}})
	if got := decodeEnvelope(t, w).Error.Details["room_ids"]; got != "2,3" {
		t.Fatalf("expected room ids, got %q", got)
	}
}

func TestSubmitHandlerCreated(t *testing.T) {
	f := newFixture(testRoom(1, 100))
	f.selectRooms(t, guest.UserID, "2099-06-01", "2099-06-03", testRoom(1, 100))
	h := NewHandler(f.svc)

	req := httptest.NewRequest(http.MethodPost, "/reservations", nil)
	req = req.WithContext(session.WithContext(req.Context(), guest))
	w := httptest.NewRecorder()
	h.Submit(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data SubmitResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Reservation.ID != 55 || body.Data.Total != 200 || body.Data.Nights != 2 {
		t.Fatalf("unexpected response: %+v", body.Data)
	}
}

func TestAdminRoutesRequireStaff(t *testing.T) {
	h := NewHandler(newFixture().svc)
	withSession := func(s *session.Session) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), s)))
			})
		}
	}

	body := []byte(`{"estado":"confirmada"}`)

	r := chi.NewRouter()
	r.Mount("/admin/reservations", h.AdminRoutes(withSession(guest)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/admin/reservations/55/status", bytes.NewReader(body)))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client, got %d", w.Code)
	}

	r = chi.NewRouter()
	r.Mount("/admin/reservations", h.AdminRoutes(withSession(staff)))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/admin/reservations/abc/status", bytes.NewReader(body)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
}
