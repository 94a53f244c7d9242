package selection

import (
	"errors"
	"net/http"

	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/middleware"
	"github.com/hotelreservas/booking-gateway/internal/pkg/response"
	"github.com/hotelreservas/booking-gateway/internal/pkg/validator"
)

// Handler handles selection HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates selection handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get handles GET /selection
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sel, err := h.service.Get(r.Context(), middleware.GetSession(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, h.service.Response(r.Context(), sel))
}

// SetRange handles PUT /selection/range
func (h *Handler) SetRange(w http.ResponseWriter, r *http.Request) {
	var req SetRangeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sel, err := h.service.SetRange(r.Context(), middleware.GetSession(r), req.Start, req.End)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, h.service.Response(r.Context(), sel))
}

// Toggle handles POST /selection/rooms/toggle
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sel, selected, err := h.service.Toggle(r.Context(), middleware.GetSession(r), req.RoomID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := h.service.Response(r.Context(), sel)
	resp.Selected = &selected
	response.OK(w, resp)
}

// Clear handles DELETE /selection
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sel, err := h.service.Clear(r.Context(), middleware.GetSession(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, h.service.Response(r.Context(), sel))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		response.Unauthorized(w, "User not authenticated")
	case errors.Is(err, ErrRangeRequired):
		response.ValidationError(w, map[string]string{"start": ErrRangeRequired.Error()})
	case errors.Is(err, ErrRoomNotAvailable), errors.Is(err, ErrConcurrentUpdate):
		response.Conflict(w, err.Error())
	default:
		availability.WriteError(w, r, err)
	}
}
