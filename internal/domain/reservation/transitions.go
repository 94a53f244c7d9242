package reservation

import "github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"

var transitions = map[hotelapi.Estado][]hotelapi.Estado{
	hotelapi.EstadoPendiente:  {hotelapi.EstadoConfirmada, hotelapi.EstadoCancelada},
	hotelapi.EstadoConfirmada: {hotelapi.EstadoCheckIn, hotelapi.EstadoCancelada},
	hotelapi.EstadoCheckIn:    {hotelapi.EstadoCheckOut},
	hotelapi.EstadoCheckOut:   {hotelapi.EstadoFinalizada},
}

// CanTransition reports whether a reservation may move from one state to another
func CanTransition(from, to hotelapi.Estado) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether the owner may still cancel
func Cancellable(e hotelapi.Estado) bool {
	return e == hotelapi.EstadoPendiente || e == hotelapi.EstadoConfirmada
}
