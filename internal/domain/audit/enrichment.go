// Package audit fills authorship fields from the session identity.
package audit

import (
	"context"

	appctx "invoicer/internal/core/context"
)

// EnrichCreatedBy sets createdBy and updatedBy to the session subject.
// Use in BeforeCreate hooks. Without an identity in ctx it is a no-op.
func EnrichCreatedBy(ctx context.Context, createdBy, updatedBy *string) {
	subject := appctx.GetSubject(ctx)
	if subject == "" {
		return
	}
	if createdBy != nil {
		*createdBy = subject
	}
	if updatedBy != nil {
		*updatedBy = subject
	}
}

// EnrichUpdatedBy sets updatedBy to the session subject.
// Use in BeforeUpdate hooks.
func EnrichUpdatedBy(ctx context.Context, updatedBy *string) {
	if subject := appctx.GetSubject(ctx); subject != "" && updatedBy != nil {
		*updatedBy = subject
	}
}
