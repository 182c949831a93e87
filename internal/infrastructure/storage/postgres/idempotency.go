package postgres

import (
	"context"
	"fmt"
	"time"

	"invoicer/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent request.
type IdempotencyStatus string

const (
	IdempotencyStatusPending   IdempotencyStatus = "pending"
	IdempotencyStatusCompleted IdempotencyStatus = "completed"
)

// staleAfter is how long a pending key may go without completion before
// another request with the same key may take it over.
const staleAfter = time.Minute

// IdempotencyReplay is a stored response returned again for a repeated key.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore records responses to mutating requests by client key,
// so a resubmitted form does not create a second invoice.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl, now: time.Now}
}

const acquireSQL = `
	INSERT INTO sys_idempotency (subject, idempotency_key, operation, request_hash, status, created_at, updated_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
	ON CONFLICT (subject, idempotency_key) DO UPDATE
		SET expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
	RETURNING (xmax = 0) AS inserted, operation, request_hash, status,
		response_status, response_content_type, response, updated_at`

// Acquire claims key for a request of subject. It returns:
//   - (nil, nil) when the caller owns the key and should run the request;
//   - a replay when the same request already completed;
//   - an error when the key is in flight or was used for another request.
func (s *IdempotencyStore) Acquire(ctx context.Context, subject, key, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now().UTC()

	var (
		inserted    bool
		storedOp    string
		storedHash  string
		status      IdempotencyStatus
		code        *int
		contentType *string
		body        []byte
		updatedAt   time.Time
	)
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, acquireSQL,
		subject, key, operation, requestHash, IdempotencyStatusPending, now, now.Add(s.ttl),
	).Scan(&inserted, &storedOp, &storedHash, &status, &code, &contentType, &body, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if inserted {
		return nil, nil
	}

	if storedOp != operation || storedHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}

	if status == IdempotencyStatusCompleted && code != nil {
		replay := &IdempotencyReplay{StatusCode: *code, ContentType: "application/json", Body: body}
		if contentType != nil && *contentType != "" {
			replay.ContentType = *contentType
		}
		return replay, nil
	}

	if now.Sub(updatedAt) < staleAfter {
		return nil, apperror.NewIdempotencyConflict(key)
	}

	// The previous holder likely crashed; take the key over.
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency SET updated_at = $1
		WHERE subject = $2 AND idempotency_key = $3 AND status = $4 AND updated_at = $5`,
		now, subject, key, IdempotencyStatusPending, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return nil, nil
}

// Complete stores the response of a request that owned key.
func (s *IdempotencyStore) Complete(ctx context.Context, subject, key string, statusCode int, contentType string, body []byte) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1, response_status = $2, response_content_type = $3, response = $4, updated_at = $5
		WHERE subject = $6 AND idempotency_key = $7`,
		IdempotencyStatusCompleted, statusCode, contentType, body, s.now().UTC(), subject, key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release drops a pending key so the client may retry, used when the
// request failed before producing a response worth replaying.
func (s *IdempotencyStore) Release(ctx context.Context, subject, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency
		WHERE subject = $1 AND idempotency_key = $2 AND status = $3`,
		subject, key, IdempotencyStatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
