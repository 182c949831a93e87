// Package tx provides transaction management abstractions so domain services
// can group writes without depending on the database driver.
package tx

import (
	"context"
)

// Manager runs a unit of work inside one database transaction.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Func adapts a plain function to Manager. Tests use it to run units of
// work without a database.
type Func func(ctx context.Context, fn func(ctx context.Context) error) error

// RunInTransaction implements Manager.
func (f Func) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// Passthrough is a Manager that calls fn directly.
var Passthrough Manager = Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
