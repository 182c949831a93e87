// Package numerator provides the PostgreSQL implementation of invoice serial counters.
// This is the infrastructure layer - it implements core/numerator.Counter.
package numerator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	corenumerator "invoicer/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, so the counter joins the
// caller's transaction when there is one.
type QuerierFunc func(ctx context.Context) Querier

const (
	advanceSQL = `
		UPDATE invoice_sequences
		SET current_val = current_val + 1, updated_at = NOW()
		WHERE company_id = $1 AND scope_key = $2
		RETURNING current_val`

	// Two first-use allocations may both reach the insert. ON CONFLICT turns
	// the loser into a plain increment of the winner's row.
	seedSQL = `
		INSERT INTO invoice_sequences (company_id, scope_key, current_val, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (company_id, scope_key)
		DO UPDATE SET current_val = invoice_sequences.current_val + 1, updated_at = NOW()
		RETURNING current_val`
)

// Service advances per-scope invoice counters with single-statement
// atomic updates.
type Service struct {
	querier QuerierFunc
}

// Ensure compile-time interface compliance.
var _ corenumerator.Counter = (*Service)(nil)

// New creates a counter service bound to one querier.
func New(q Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return q }}
}

// NewWithResolver creates a counter service that resolves its querier per call.
func NewWithResolver(fn QuerierFunc) *Service {
	return &Service{querier: fn}
}

// Next implements corenumerator.Counter.
func (s *Service) Next(ctx context.Context, k corenumerator.Key, seed corenumerator.SeedFunc) (int64, error) {
	if s == nil || s.querier == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}
	q := s.querier(ctx)
	scopeKey := k.Stem()

	var num int64
	err := q.QueryRow(ctx, advanceSQL, k.OwnerID, scopeKey).Scan(&num)
	if err == nil {
		return num, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("advance sequence %s: %w", scopeKey, err)
	}

	var start int64
	if seed != nil {
		if start, err = seed(ctx); err != nil {
			return 0, fmt.Errorf("seed sequence %s: %w", scopeKey, err)
		}
	}

	if err := q.QueryRow(ctx, seedSQL, k.OwnerID, scopeKey, start+1).Scan(&num); err != nil {
		return 0, fmt.Errorf("create sequence %s: %w", scopeKey, err)
	}
	return num, nil
}
