package reservation

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/middleware"
	"github.com/hotelreservas/booking-gateway/internal/pkg/errorhandler"
	"github.com/hotelreservas/booking-gateway/internal/pkg/response"
	"github.com/hotelreservas/booking-gateway/internal/pkg/validator"
)

// Handler handles reservation HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates reservation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /reservations
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Submit(r.Context(), middleware.GetSession(r))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	response.Created(w, SubmitResponseFromResult(result))
}

// List handles GET /reservations
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), middleware.GetSession(r))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	out := make([]ReservationResponse, 0, len(items))
	for i := range items {
		out = append(out, ReservationResponseFromEntity(&items[i]))
	}
	response.OK(w, out)
}

// Get handles GET /reservations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetOwned(r.Context(), middleware.GetSession(r), id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	response.OK(w, ViewResponse(view))
}

// Cancel handles POST /reservations/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Cancel(r.Context(), middleware.GetSession(r), id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	response.OK(w, ReservationResponseFromEntity(updated))
}

// StaffCreate handles POST /admin/reservations
func (h *Handler) StaffCreate(w http.ResponseWriter, r *http.Request) {
	var req StaffCreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.CreateForClient(r.Context(), middleware.GetSession(r), req)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	response.Created(w, SubmitResponseFromResult(result))
}

// UpdateStatus handles PATCH /admin/reservations/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), middleware.GetSession(r), id, req.Estado)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	response.OK(w, ReservationResponseFromEntity(updated))
}

// WriteError maps reservation errors onto the response envelope
func (h *Handler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unavailable *RoomsUnavailableError
		partial     *PartialFailureError
		vErr        *availability.ValidationError
	)

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		response.Unauthorized(w, "User not authenticated")
	case errors.Is(err, ErrEmptySelection):
		response.ErrorWithDetails(w, http.StatusUnprocessableEntity, "EMPTY_SELECTION", "Select at least one room", map[string]string{
			"rooms": ErrEmptySelection.Error(),
		})
	case errors.As(err, &vErr):
		response.ValidationError(w, vErr.Details())
	case errors.Is(err, ErrInvalidEstado):
		response.ValidationError(w, map[string]string{"estado": err.Error()})
	case errors.Is(err, ErrProfileIncomplete):
		response.ErrorWithDetails(w, http.StatusPreconditionRequired, "PROFILE_INCOMPLETE", "Complete your client profile before booking", map[string]string{
			"redirect_to": h.service.Config().ProfileURL,
		})
	case errors.Is(err, ErrSubmissionInProgress):
		response.Error(w, http.StatusConflict, "SUBMISSION_IN_PROGRESS", "A reservation is already being submitted")
	case errors.As(err, &unavailable):
		response.ErrorWithDetails(w, http.StatusConflict, "ROOMS_UNAVAILABLE", "Some selected rooms are no longer available", map[string]string{
			"room_ids": joinIDs(unavailable.RoomIDs),
		})
	case errors.Is(err, ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, ErrReservationNotFound):
		response.NotFound(w, "Reservation not found")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, "Reservation belongs to another client")
	case errors.As(err, &partial):
		response.ErrorWithDetails(w, http.StatusBadGateway, "PARTIAL_FAILURE", "The reservation could not be completed, please try again", map[string]string{
			"reserva_id":  strconv.FormatInt(partial.ReservaID, 10),
			"rolled_back": strconv.FormatBool(partial.RolledBack),
		})
	case errors.Is(err, ErrReservationCreate):
		response.BadGateway(w, "RESERVATION_CREATE_FAILED", "Could not create the reservation, please try again")
	case errors.Is(err, ErrMissingReservationID):
		response.BadGateway(w, "RESERVATION_CREATE_FAILED", "The hotel system did not confirm the reservation")
	case errors.Is(err, ErrClientLookup), errors.Is(err, ErrBackend):
		response.BadGateway(w, "HOTEL_API_ERROR", "The hotel system is not responding, please try again")
	case errors.Is(err, availability.ErrAvailabilityUnavailable):
		availability.WriteError(w, r, err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid reservation ID")
		return 0, false
	}
	return id, true
}

// ParseID reads the {id} URL parameter; it writes 400 and returns false when invalid.
func ParseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return parseID(w, r)
}
