package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/id"
	"invoicer/internal/domain/invoice"
	"invoicer/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// MaxOutboxRetries is the number of failed deliveries after which a
// message is parked as failed.
const MaxOutboxRetries = 5

const outboxTable = "sys_outbox"

// OutboxMessage is a row of the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// OutboxPublisher writes invoice events to the outbox inside the caller's
// transaction, so an event exists exactly when its change committed.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ invoice.EventPublisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish implements invoice.EventPublisher. It must run in a transaction.
func (p *OutboxPublisher) Publish(ctx context.Context, e invoice.Event) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires a transaction")
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	sql, args, err := Builder().
		Insert(outboxTable).
		Columns("id", "aggregate_type", "aggregate_id", "event_type", "payload", "status", "created_at").
		Values(id.New(), "invoice", e.InvoiceID, e.Type, payload, OutboxStatusPending, e.OccurredAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build outbox insert: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers outbox messages, typically to a broker.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay moves pending outbox messages to a handler.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
	now       func() time.Time
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
		now:       time.Now,
	}
}

// ProcessBatch delivers up to batchSize due messages in creation order and
// returns how many were delivered. Rows stay locked until the batch
// commits, so several relays can run side by side.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	delivered := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := Builder().
			Select("id", "aggregate_type", "aggregate_id", "event_type", "payload", "status",
				"retry_count", "last_error", "next_retry_at", "created_at", "published_at").
			From(outboxTable).
			Where(squirrel.Eq{"status": OutboxStatusPending}).
			Where(squirrel.Or{squirrel.Eq{"next_retry_at": nil}, squirrel.LtOrEq{"next_retry_at": r.now().UTC()}}).
			OrderBy("created_at").
			Limit(uint64(r.batchSize)).
			Suffix("FOR UPDATE SKIP LOCKED").
			ToSql()
		if err != nil {
			return fmt.Errorf("build outbox fetch: %w", err)
		}

		var messages []*OutboxMessage
		if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &messages, sql, args...); err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.deliver(ctx, msg); err != nil {
				return err
			}
			if msg.Status == OutboxStatusPublished {
				delivered++
			}
		}
		return nil
	})
	return delivered, err
}

// deliver hands msg to the handler and records the outcome. A handler
// error schedules a retry with linear backoff; only storage errors abort.
func (r *OutboxRelay) deliver(ctx context.Context, msg *OutboxMessage) error {
	now := r.now().UTC()
	upd := Builder().Update(outboxTable).Where(squirrel.Eq{"id": msg.ID})

	if herr := r.handler.Handle(ctx, msg); herr != nil {
		retries := msg.RetryCount + 1
		status := OutboxStatusPending
		if retries >= MaxOutboxRetries {
			status = OutboxStatusFailed
		}
		logger.Warn(ctx, "outbox delivery failed",
			"message_id", msg.ID, "event_type", msg.EventType, "retry", retries, "error", herr)
		upd = upd.
			Set("retry_count", retries).
			Set("last_error", herr.Error()).
			Set("next_retry_at", now.Add(time.Duration(retries)*time.Minute)).
			Set("status", status)
		msg.Status = status
	} else {
		upd = upd.Set("status", OutboxStatusPublished).Set("published_at", now)
		msg.Status = OutboxStatusPublished
	}

	sql, args, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("build outbox update: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update outbox message %s: %w", msg.ID, err)
	}
	return nil
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := r.ProcessBatch(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Error(ctx, "outbox batch failed", "error", err)
		} else if n > 0 {
			logger.Debug(ctx, "outbox batch delivered", "count", n)
		}

		// A full batch means more may be waiting.
		if n == r.batchSize {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
