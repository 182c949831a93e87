package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/infrastructure/storage/postgres"
	"invoicer/pkg/logger"
)

const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyBodyBytes = 1 << 20

// IdempotencyStore is implemented by postgres.IdempotencyStore.
type IdempotencyStore interface {
	Acquire(ctx context.Context, subject, key, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	Complete(ctx context.Context, subject, key string, statusCode int, contentType string, body []byte) error
	Release(ctx context.Context, subject, key string) error
}

// bodyRecorder keeps a copy of the response body.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a client repeats a request
// with the same Idempotency-Key, so a double-submitted invoice form
// allocates one number. Requests without the header pass through. Must run
// after Session.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		subject := appctx.GetSubject(ctx)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("unreadable request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			_ = c.Error(apperror.NewValidation("request body too large").WithDetail("maxBytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sum := sha256.Sum256(body)
		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.Acquire(ctx, subject, key, operation, hex.EncodeToString(sum[:]))
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err)
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// Errors are written by ErrorHandler after this returns, so a failed
		// request releases the key and the client may retry it.
		status := c.Writer.Status()
		if len(c.Errors) > 0 || status >= http.StatusBadRequest {
			if err := store.Release(ctx, subject, key); err != nil {
				logger.Warn(ctx, "idempotency key release failed", "key", key, "error", err)
			}
			return
		}
		if err := store.Complete(ctx, subject, key, status, c.Writer.Header().Get("Content-Type"), rec.body.Bytes()); err != nil {
			logger.Warn(ctx, "idempotency key completion failed", "key", key, "error", err)
		}
	}
}
