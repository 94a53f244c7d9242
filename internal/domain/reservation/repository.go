package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines submission ledger data access
type Repository interface {
	Create(ctx context.Context, s *Submission) error
	SetReservation(ctx context.Context, id uuid.UUID, reservaID int64) error
	Finish(ctx context.Context, id uuid.UUID, status Status, reservaID sql.NullInt64, detailIDs []int64, errMsg string) error
	RecordAttempt(ctx context.Context, id uuid.UUID, status Status, errMsg string) error
	GetByReservation(ctx context.Context, reservaID int64) (*Submission, error)
	ListForReconcile(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*Submission, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates submission repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Submission) error {
	query := `
		INSERT INTO reservation_submissions
			(id, kind, user_id, cliente_id, room_ids, detail_ids, check_in, check_out, total, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if s.DetailIDs == nil {
		s.DetailIDs = pq.Int64Array{}
	}
	err := r.db.QueryRowxContext(ctx, query,
		s.ID,
		s.Kind,
		s.UserID,
		s.ClienteID,
		s.RoomIDs,
		s.DetailIDs,
		s.CheckIn,
		s.CheckOut,
		s.Total,
		s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (r *repository) SetReservation(ctx context.Context, id uuid.UUID, reservaID int64) error {
	query := `UPDATE reservation_submissions SET reserva_id = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, reservaID)
	return err
}

// Finish records the outcome. A valid reservaID is written as well, so the row still points at the
// backend reservation when the earlier SetReservation was lost.
func (r *repository) Finish(ctx context.Context, id uuid.UUID, status Status, reservaID sql.NullInt64, detailIDs []int64, errMsg string) error {
	query := `
		UPDATE reservation_submissions
		SET status = $2, reserva_id = COALESCE($3, reserva_id), detail_ids = $4, error = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $1
	`
	if detailIDs == nil {
		detailIDs = []int64{}
	}
	_, err := r.db.ExecContext(ctx, query, id, status, reservaID, pq.Int64Array(detailIDs), errMsg)
	return err
}

func (r *repository) RecordAttempt(ctx context.Context, id uuid.UUID, status Status, errMsg string) error {
	query := `
		UPDATE reservation_submissions
		SET status = $2, error = NULLIF($3, ''), attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, status, errMsg)
	return err
}

func (r *repository) GetByReservation(ctx context.Context, reservaID int64) (*Submission, error) {
	query := `
		SELECT * FROM reservation_submissions
		WHERE reserva_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var s Submission
	err := r.db.GetContext(ctx, &s, query, reservaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListForReconcile(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*Submission, error) {
	query := `
		SELECT * FROM reservation_submissions
		WHERE attempts < $2
		  AND (status = 'compensation_pending' OR (status = 'pending' AND updated_at < $1))
		ORDER BY created_at
		LIMIT $3
	`
	var items []*Submission
	err := r.db.SelectContext(ctx, &items, query, staleBefore, maxAttempts, limit)
	return items, err
}
