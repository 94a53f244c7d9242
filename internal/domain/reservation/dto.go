package reservation

import (
	"time"

	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
)

// StaffCreateRequest represents POST /admin/reservations body
type StaffCreateRequest struct {
	ClienteID int64   `json:"cliente_id" validate:"required,gt=0"`
	RoomIDs   []int64 `json:"room_ids" validate:"required,min=1,dive,gt=0"`
	Start     string  `json:"start" validate:"required,date_ymd"`
	End       string  `json:"end" validate:"required,date_ymd"`
	Estado    string  `json:"estado" validate:"omitempty,estado_reserva"`
	Nota      string  `json:"nota" validate:"max=500"`
}

// UpdateStatusRequest represents PATCH /admin/reservations/{id}/status body
type UpdateStatusRequest struct {
	Estado string `json:"estado" validate:"required,estado_reserva"`
}

// ReservationResponse represents reservation in API response
type ReservationResponse struct {
	ID           int64   `json:"id"`
	Estado       string  `json:"estado"`
	ClienteID    int64   `json:"cliente_id,omitempty"`
	FechaReserva *string `json:"fecha_reserva,omitempty"`
	FechaInicio  *string `json:"fecha_inicio,omitempty"`
	FechaFin     *string `json:"fecha_fin,omitempty"`
	Activo       bool    `json:"activo"`
}

// DetailResponse represents one booked room
type DetailResponse struct {
	ID             int64   `json:"id"`
	RoomID         int64   `json:"room_id,omitempty"`
	Numero         string  `json:"numero,omitempty"`
	Categoria      string  `json:"categoria,omitempty"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Nota           string  `json:"nota,omitempty"`
}

// ReservationDetailResponse is a reservation with details and price summary
type ReservationDetailResponse struct {
	ReservationResponse
	Details []DetailResponse `json:"details"`
	Nights  int              `json:"nights"`
	Total   float64          `json:"total"`
}

// SubmitResponse is returned after a successful submission
type SubmitResponse struct {
	SubmissionID string              `json:"submission_id"`
	Reservation  ReservationResponse `json:"reservation"`
	Details      []DetailResponse    `json:"details"`
	Nights       int                 `json:"nights"`
	Total        float64             `json:"total"`
	RedirectTo   string              `json:"redirect_to,omitempty"`
}

func formatTimestamp(t hotelapi.Timestamp) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// ReservationResponseFromEntity maps a backend reservation
func ReservationResponseFromEntity(r *hotelapi.Reserva) ReservationResponse {
	return ReservationResponse{
		ID:           r.ID,
		Estado:       string(r.Estado),
		ClienteID:    r.ClienteID(),
		FechaReserva: formatTimestamp(r.FechaReserva),
		FechaInicio:  formatTimestamp(r.FechaInicio),
		FechaFin:     formatTimestamp(r.FechaFin),
		Activo:       r.Activo,
	}
}

// DetailResponsesFromEntities maps backend details
func DetailResponsesFromEntities(details []hotelapi.ReservaDetalle) []DetailResponse {
	out := make([]DetailResponse, 0, len(details))
	for _, d := range details {
		resp := DetailResponse{
			ID:             d.ID,
			PrecioUnitario: d.PrecioUnitario,
			Nota:           d.Nota,
		}
		if d.Habitacion != nil {
			resp.RoomID = d.Habitacion.ID
			resp.Numero = d.Habitacion.Numero
			resp.Categoria = d.Habitacion.CategoryName()
		}
		out = append(out, resp)
	}
	return out
}

// ViewResponse maps a priced reservation view
func ViewResponse(v *View) ReservationDetailResponse {
	return ReservationDetailResponse{
		ReservationResponse: ReservationResponseFromEntity(v.Reserva),
		Details:             DetailResponsesFromEntities(v.Details),
		Nights:              v.Nights,
		Total:               v.Total,
	}
}

// SubmitResponseFromResult maps a submission result
func SubmitResponseFromResult(r *SubmitResult) SubmitResponse {
	return SubmitResponse{
		SubmissionID: r.SubmissionID.String(),
		Reservation:  ReservationResponseFromEntity(r.Reservation),
		Details:      DetailResponsesFromEntities(r.Details),
		Nights:       r.Nights,
		Total:        r.Total,
		RedirectTo:   r.RedirectTo,
	}
}
