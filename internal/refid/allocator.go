// Package refid hands out citizen-facing case references such as GRV00000042.
// References are allocated with an insert-if-absent so two concurrent intakes
// never share a number, at the cost of an occasional retry.
package refid

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	refWidth   = 8
	maxRetries = 10
)

// ErrExhausted is returned when allocation loses the insert race too many
// times in a row.
var ErrExhausted = errors.New("refid: allocation retries exhausted")

// Allocator reserves a unique reference for a given prefix.
type Allocator interface {
	Allocate(ctx context.Context, prefix string) (string, error)
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresAllocator backs references with a case_references reservation table.
type PostgresAllocator struct {
	pool rowQuerier
}

var _ Allocator = (*PostgresAllocator)(nil)

func NewPostgresAllocator(pool *pgxpool.Pool) *PostgresAllocator {
	if pool == nil {
		panic("refid: pgx pool required")
	}
	return &PostgresAllocator{pool: pool}
}

func newPostgresAllocatorWithQuerier(q rowQuerier) *PostgresAllocator {
	if q == nil {
		panic("refid: querier required")
	}
	return &PostgresAllocator{pool: q}
}

// Format renders a prefix and sequence number as a reference string.
func Format(prefix string, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, refWidth, seq)
}

// Allocate reserves the next reference for prefix. On a collision with a
// concurrent allocator it re-reads the high-water mark and tries again.
func (a *PostgresAllocator) Allocate(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("refid: prefix required")
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		var maxSeq int64
		err := a.pool.QueryRow(ctx,
			`SELECT COALESCE(MAX(seq), 0) FROM case_references WHERE prefix = $1`,
			prefix,
		).Scan(&maxSeq)
		if err != nil {
			return "", fmt.Errorf("refid: read sequence: %w", err)
		}

		next := maxSeq + 1
		ct, err := a.pool.Exec(ctx,
			`INSERT INTO case_references (prefix, seq) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			prefix, next,
		)
		if err != nil {
			return "", fmt.Errorf("refid: reserve reference: %w", err)
		}
		if ct.RowsAffected() > 0 {
			return Format(prefix, next), nil
		}
		// Someone else took this number; loop and read the new maximum.
	}
	return "", ErrExhausted
}
