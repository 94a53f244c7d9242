package availability

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hotelreservas/booking-gateway/internal/middleware"
	"github.com/hotelreservas/booking-gateway/internal/pkg/errorhandler"
	"github.com/hotelreservas/booking-gateway/internal/pkg/response"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
)

const maxPageSize = 500

// Handler handles availability HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates availability handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Search handles GET /availability/rooms?start=&end=&size=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	size, _ := strconv.Atoi(q.Get("size"))
	if size < 0 {
		size = 0
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	sess := middleware.GetSession(r)
	if sess == nil {
		sess = &session.Session{Location: middleware.GetLocation(r.Context())}
	}

	resp, err := h.service.Search(r.Context(), sess, q.Get("start"), q.Get("end"), size)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	response.OK(w, resp)
}

// WriteError maps availability errors onto the response envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		response.ValidationError(w, vErr.Details())
	case errors.Is(err, ErrAvailabilityUnavailable):
		response.ServiceUnavailable(w, "AVAILABILITY_UNAVAILABLE", "Could not verify availability, please try again")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}
