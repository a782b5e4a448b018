package reportsink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher delivers one outbox entry to the downstream topic.
type Publisher interface {
	Publish(ctx context.Context, eventType string, key string, payload []byte) error
}

// Worker drains the outbox table and publishes entries in commit order.
// Multiple workers can run concurrently; SKIP LOCKED keeps them from
// contending on the same rows.
type Worker struct {
	db        *sql.DB
	publisher Publisher
	logger    *slog.Logger

	pollInterval time.Duration
	batchSize    int
}

// WorkerOption configures optional worker behavior.
type WorkerOption func(*Worker)

// WithPollInterval overrides the outbox polling interval.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.pollInterval = d }
}

// WithBatchSize overrides how many entries one poll claims.
func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) { w.batchSize = n }
}

// NewWorker constructs an outbox worker.
func NewWorker(db *sql.DB, publisher Publisher, logger *slog.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		db:           db,
		publisher:    publisher,
		logger:       logger,
		pollInterval: time.Second,
		batchSize:    100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until the context is cancelled. Publish failures leave the entry
// in place for the next poll.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// DrainOnce claims and publishes up to one batch of pending entries.
func (w *Worker) DrainOnce(ctx context.Context) error {
	for {
		published, err := w.drainBatch(ctx)
		if err != nil {
			return err
		}
		if published < w.batchSize {
			return nil
		}
	}
}

type outboxEntry struct {
	ID        uuid.UUID
	EventType string
	Key       string
	Payload   []byte
}

func (w *Worker) drainBatch(ctx context.Context) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim outbox entries: %w", err)
	}

	var entries []outboxEntry
	for rows.Next() {
		var e outboxEntry
		if err := rows.Scan(&e.ID, &e.Key, &e.EventType, &e.Payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("claim outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	for _, entry := range entries {
		if err := w.publisher.Publish(ctx, entry.EventType, entry.Key, entry.Payload); err != nil {
			// Entries after a failed publish stay queued so topic order
			// follows commit order.
			return 0, errors.Join(fmt.Errorf("publish outbox entry %s", entry.ID), err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM outbox WHERE id = $1`, entry.ID); err != nil {
			return 0, fmt.Errorf("delete outbox entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox tx: %w", err)
	}

	w.logger.DebugContext(ctx, "outbox entries published", "count", len(entries))
	return len(entries), nil
}
