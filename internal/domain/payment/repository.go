package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Repository defines payment intent data access
type Repository interface {
	Create(ctx context.Context, p *Intent) error
	GetByProviderID(ctx context.Context, providerIntentID string) (*Intent, error)
	// UpdateLocked runs fn with the intent row locked and stores the status fn returns.
	// raw is kept as the callback payload when non-empty.
	UpdateLocked(ctx context.Context, providerIntentID string, raw []byte, fn func(p *Intent) (Status, error)) (*Intent, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates payment repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Intent) error {
	query := `
		INSERT INTO payment_intents (id, reserva_id, user_id, provider_intent_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.ReservaID,
		p.UserID,
		p.ProviderIntentID,
		p.Amount,
		p.Currency,
		p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return fmt.Errorf("payment intent already exists: %w", err)
		}
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (r *repository) GetByProviderID(ctx context.Context, providerIntentID string) (*Intent, error) {
	query := `SELECT * FROM payment_intents WHERE provider_intent_id = $1`
	var p Intent
	err := r.db.GetContext(ctx, &p, query, providerIntentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdateLocked(ctx context.Context, providerIntentID string, raw []byte, fn func(p *Intent) (Status, error)) (*Intent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var p Intent
	err = tx.GetContext(ctx, &p, `SELECT * FROM payment_intents WHERE provider_intent_id = $1 FOR UPDATE`, providerIntentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIntentNotFound
		}
		return nil, err
	}

	next, err := fn(&p)
	if err != nil {
		return nil, err
	}

	if next != p.Status || len(raw) > 0 {
		var query string
		switch next {
		case StatusCompleted:
			query = `UPDATE payment_intents SET status = $2, raw_callback_payload = COALESCE($3, raw_callback_payload), paid_at = COALESCE(paid_at, NOW()), updated_at = NOW() WHERE id = $1`
		case StatusFailed:
			query = `UPDATE payment_intents SET status = $2, raw_callback_payload = COALESCE($3, raw_callback_payload), failed_at = NOW(), updated_at = NOW() WHERE id = $1`
		default:
			query = `UPDATE payment_intents SET status = $2, raw_callback_payload = COALESCE($3, raw_callback_payload), updated_at = NOW() WHERE id = $1`
		}

		var payload any
		if len(raw) > 0 {
			payload = string(raw)
		}
		if _, err := tx.ExecContext(ctx, query, p.ID, next, payload); err != nil {
			return nil, fmt.Errorf("failed to update payment intent: %w", err)
		}
		p.Status = next
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}
