package reservation

import (
	"github.com/google/uuid"

	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/jwt"
)

var staffRoles = []string{jwt.RoleAdmin, jwt.RoleEmployee}

// SubmitResult is a fully composed reservation
type SubmitResult struct {
	SubmissionID uuid.UUID
	Reservation  *hotelapi.Reserva
	Details      []hotelapi.ReservaDetalle
	Nights       int
	Total        float64
	RedirectTo   string
}

// View is a stored reservation with its details and price summary
type View struct {
	Reserva *hotelapi.Reserva
	Details []hotelapi.ReservaDetalle
	Nights  int
	Total   float64
}

// NewView prices a reservation: nights come from the stored instants, the total from the
// per-detail price snapshots.
func NewView(r *hotelapi.Reserva, details []hotelapi.ReservaDetalle) *View {
	nights := StayNights(r.FechaInicio.Time, r.FechaFin.Time)
	var total float64
	for _, d := range details {
		total += d.PrecioUnitario * float64(nights)
	}
	return &View{
		Reserva: r,
		Details: details,
		Nights:  nights,
		Total:   total,
	}
}
