package payment

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents payment intent status
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// JSONRawMessage handles NULL json fields from DB
type JSONRawMessage []byte

func (j *JSONRawMessage) Scan(src any) error {
	if src == nil {
		*j = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = []byte(v)
	default:
		return fmt.Errorf("unsupported type: %T", src)
	}
	return nil
}

func (j JSONRawMessage) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// Intent is a payment intent opened for one reservation
type Intent struct {
	ID                 uuid.UUID      `db:"id" json:"id"`
	ReservaID          int64          `db:"reserva_id" json:"reserva_id"`
	UserID             int64          `db:"user_id" json:"user_id"`
	ProviderIntentID   string         `db:"provider_intent_id" json:"provider_intent_id"`
	Amount             float64        `db:"amount" json:"amount"`
	Currency           string         `db:"currency" json:"currency"`
	Status             Status         `db:"status" json:"status"`
	RawCallbackPayload JSONRawMessage `db:"raw_callback_payload" json:"raw_callback_payload,omitempty"`
	PaidAt             sql.NullTime   `db:"paid_at" json:"paid_at,omitempty"`
	FailedAt           sql.NullTime   `db:"failed_at" json:"failed_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// IsPaid checks if the intent is completed
func (p *Intent) IsPaid() bool {
	return p.Status == StatusCompleted
}
