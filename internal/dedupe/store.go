// Package dedupe keeps a record of provider message ids that were already
// handled, so redelivered webhooks do not replay a citizen's input.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/civic-portal/pkg/logging"
)

// DefaultRetention is how long a processed message id is remembered.
const DefaultRetention = 48 * time.Hour

// Guard answers whether a message id has been seen and records new ones.
type Guard interface {
	AlreadyProcessed(ctx context.Context, channel, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, channel, messageID string) (bool, error)
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres-backed Guard.
type Store struct {
	pool      rowQuerier
	retention time.Duration
}

var _ Guard = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, retention time.Duration) *Store {
	if pool == nil {
		panic("dedupe: pgx pool required")
	}
	return newStoreWithExec(pool, retention)
}

func newStoreWithExec(exec rowQuerier, retention time.Duration) *Store {
	if exec == nil {
		panic("dedupe: exec required")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{pool: exec, retention: retention}
}

// AlreadyProcessed checks if this channel/message id pair has been handled.
// Entries older than the retention window no longer count.
func (s *Store) AlreadyProcessed(ctx context.Context, channel, messageID string) (bool, error) {
	query := `
		SELECT 1 FROM processed_messages
		WHERE channel = $1 AND message_id = $2 AND processed_at > $3
	`
	cutoff := time.Now().UTC().Add(-s.retention)
	var exists int
	if err := s.pool.QueryRow(ctx, query, channel, messageID, cutoff).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("dedupe: check processed: %w", err)
	}
	return true, nil
}

// MarkProcessed records the message id, returning false if it already exists.
func (s *Store) MarkProcessed(ctx context.Context, channel, messageID string) (bool, error) {
	query := `
		INSERT INTO processed_messages (channel, message_id, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (channel, message_id) DO NOTHING
	`
	ct, err := s.pool.Exec(ctx, query, channel, messageID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("dedupe: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Sweep deletes entries past the retention window and returns how many went.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	ct, err := s.pool.Exec(ctx, `DELETE FROM processed_messages WHERE processed_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("dedupe: sweep: %w", err)
	}
	return ct.RowsAffected(), nil
}

// StartSweeper runs Sweep on an interval until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, every time.Duration, logger *logging.Logger) {
	if every <= 0 {
		every = time.Hour
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.Sweep(ctx)
				if err != nil {
					if logger != nil {
						logger.Error("dedupe sweep failed", "error", err)
					}
					continue
				}
				if logger != nil && deleted > 0 {
					logger.Info("dedupe sweep", "deleted", deleted)
				}
			}
		}
	}()
}
