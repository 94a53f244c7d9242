package events

import (
	"context"
	"time"
)

// Routing keys
const (
	ReservationCreated   = "reservation.created"
	ReservationConfirmed = "reservation.confirmed"
	ReservationStatus    = "reservation.status_changed"
	ReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published whenever the gateway changes a reservation.
type ReservationEvent struct {
	ReservaID  int64     `json:"reserva_id"`
	UserID     int64     `json:"user_id,omitempty"`
	ClienteID  int64     `json:"cliente_id,omitempty"`
	Estado     string    `json:"estado"`
	RoomIDs    []int64   `json:"room_ids,omitempty"`
	Nights     int       `json:"nights,omitempty"`
	Total      float64   `json:"total,omitempty"`
	CheckIn    string    `json:"check_in,omitempty"`
	CheckOut   string    `json:"check_out,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends domain events to the broker. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Noop discards events; used when the broker is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }
