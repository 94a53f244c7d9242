package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
)

const reconcileBatch = 50

// Worker retries the compensation of submissions left half-done
type Worker struct {
	service     *Service
	interval    time.Duration
	staleAfter  time.Duration
	maxAttempts int
	stopCh      chan struct{}
}

// NewWorker creates a new reconciliation worker
func NewWorker(service *Service, interval, staleAfter time.Duration, maxAttempts int) *Worker {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	if staleAfter == 0 {
		staleAfter = 15 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Worker{
		service:     service,
		interval:    interval,
		staleAfter:  staleAfter,
		maxAttempts: maxAttempts,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Msg("Starting reservation reconciliation worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *Worker) Stop() {
	log.Info().Msg("Stopping reservation reconciliation worker...")
	close(w.stopCh)
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.reconcile()

	for {
		select {
		case <-ticker.C:
			w.reconcile()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := w.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list submissions for reconciliation")
		return
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("Reconciled reservation submissions")
	}
}

// RunOnce processes one batch and returns how many rows were looked at.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	staleBefore := w.service.now().Add(-w.staleAfter)
	items, err := w.service.repo.ListForReconcile(ctx, staleBefore, w.maxAttempts, reconcileBatch)
	if err != nil {
		return 0, err
	}
	for _, sub := range items {
		w.reconcileOne(ctx, sub)
	}
	return len(items), nil
}

func (w *Worker) reconcileOne(ctx context.Context, sub *Submission) {
	s := w.service
	logger := log.With().Str("submission_id", sub.ID.String()).Str("status", string(sub.Status)).Logger()

	if !sub.HasReservation() {
		// The header was never confirmed by the backend; nothing to undo.
		w.record(ctx, sub, StatusFailed, "abandoned before the reservation was created")
		return
	}
	reservaID := sub.ReservaID.Int64

	details, err := s.backend.ListReservationDetails(ctx, "", reservaID)
	if err != nil && !errors.Is(err, hotelapi.ErrNotFound) {
		logger.Warn().Err(err).Int64("reserva_id", reservaID).Msg("reconcile: listing details failed")
		w.record(ctx, sub, sub.Status, err.Error())
		return
	}

	// A pending row whose details all exist finished on the backend; only the ledger update was lost.
	if sub.Status == StatusPending && err == nil && len(sub.RoomIDs) > 0 && len(details) >= len(sub.RoomIDs) {
		w.record(ctx, sub, StatusCompleted, "")
		return
	}

	detailIDs := make([]int64, 0, len(details)+len(sub.DetailIDs))
	seen := make(map[int64]bool)
	for _, id := range sub.DetailIDs {
		if !seen[id] {
			seen[id] = true
			detailIDs = append(detailIDs, id)
		}
	}
	for _, d := range details {
		if d.ID != 0 && !seen[d.ID] {
			seen[d.ID] = true
			detailIDs = append(detailIDs, d.ID)
		}
	}

	outcome, compErr := s.compensate(ctx, "", reservaID, detailIDs)
	if compErr != nil {
		logger.Warn().Err(compErr).Int64("reserva_id", reservaID).Msg("reconcile: compensation failed")
		w.record(ctx, sub, StatusCompensationPending, compErr.Error())
		return
	}

	logger.Info().Int64("reserva_id", reservaID).Str("compensation", outcome.String()).Msg("reconcile: reservation rolled back")
	w.record(ctx, sub, StatusCompensated, "")
}

func (w *Worker) record(ctx context.Context, sub *Submission, status Status, msg string) {
	if err := w.service.repo.RecordAttempt(ctx, sub.ID, status, msg); err != nil {
		log.Error().Err(err).Str("submission_id", sub.ID.String()).Msg("reconcile: failed to update ledger")
	}
}
