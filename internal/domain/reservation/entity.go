package reservation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status is the state of a submission in the gateway ledger
type Status string

const (
	StatusPending             Status = "pending"
	StatusCompleted           Status = "completed"
	StatusFailed              Status = "failed"
	StatusCompensated         Status = "compensated"
	StatusCompensationPending Status = "compensation_pending"
)

// Kind tells who composed the reservation
type Kind string

const (
	KindClient Kind = "client"
	KindStaff  Kind = "staff"
)

// Submission is one attempt to compose a reservation on the backend. It records enough to undo a
// half-created reservation after a crash or a failed rollback.
type Submission struct {
	ID        uuid.UUID      `db:"id"`
	Kind      Kind           `db:"kind"`
	UserID    int64          `db:"user_id"`
	ClienteID int64          `db:"cliente_id"`
	ReservaID sql.NullInt64  `db:"reserva_id"`
	RoomIDs   pq.Int64Array  `db:"room_ids"`
	DetailIDs pq.Int64Array  `db:"detail_ids"`
	CheckIn   time.Time      `db:"check_in"`
	CheckOut  time.Time      `db:"check_out"`
	Total     float64        `db:"total"`
	Status    Status         `db:"status"`
	Error     sql.NullString `db:"error"`
	Attempts  int            `db:"attempts"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// HasReservation reports whether the backend assigned a reservation id
func (s *Submission) HasReservation() bool {
	return s.ReservaID.Valid && s.ReservaID.Int64 > 0
}
