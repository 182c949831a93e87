package numbering

import (
	"context"
	"fmt"

	"invoicer/internal/core/numerator"
)

// NumberLister returns every invoice number stored under a key's stem.
type NumberLister interface {
	ListNumbers(ctx context.Context, ownerID, stem string) ([]string, error)
}

// Allocation is an issued invoice number together with its parts.
type Allocation struct {
	Key    numerator.Key
	Serial int64
	Number string
}

// MaxSerial returns the highest serial of k among existing, or 0.
// Numbers outside the scope or with an unparsable suffix are ignored.
func MaxSerial(k numerator.Key, existing []string) int64 {
	var maxSerial int64
	for _, n := range existing {
		if s, ok := numerator.ParseSerial(k, n); ok && s > maxSerial {
			maxSerial = s
		}
	}
	return maxSerial
}

// NextFromExisting computes the next number of k by scanning existing
// numbers: highest serial in scope plus one, "001" for an empty scope.
func NextFromExisting(k numerator.Key, existing []string) Allocation {
	serial := MaxSerial(k, existing) + 1
	return Allocation{Key: k, Serial: serial, Number: numerator.Format(k, serial, numerator.DefaultPadWidth)}
}

// Allocator issues invoice numbers.
type Allocator struct {
	strategy numerator.Strategy
	counter  numerator.Counter
	lister   NumberLister
}

// NewAllocator creates an Allocator. counter may be nil for StrategyScan.
func NewAllocator(strategy numerator.Strategy, counter numerator.Counter, lister NumberLister) *Allocator {
	return &Allocator{strategy: strategy, counter: counter, lister: lister}
}

// Strategy returns the configured strategy.
func (a *Allocator) Strategy() numerator.Strategy {
	return a.strategy
}

// Next issues the next number of k.
func (a *Allocator) Next(ctx context.Context, k numerator.Key) (Allocation, error) {
	if a.strategy == numerator.StrategyScan || a.counter == nil {
		return a.Preview(ctx, k)
	}

	seed := func(ctx context.Context) (int64, error) {
		existing, err := a.lister.ListNumbers(ctx, k.OwnerID, k.Stem())
		if err != nil {
			return 0, err
		}
		return MaxSerial(k, existing), nil
	}

	serial, err := a.counter.Next(ctx, k, seed)
	if err != nil {
		return Allocation{}, fmt.Errorf("allocate number for %s: %w", k.Stem(), err)
	}
	return Allocation{Key: k, Serial: serial, Number: numerator.Format(k, serial, numerator.DefaultPadWidth)}, nil
}

// Preview returns the number the scan rule would issue next without
// reserving it.
func (a *Allocator) Preview(ctx context.Context, k numerator.Key) (Allocation, error) {
	existing, err := a.lister.ListNumbers(ctx, k.OwnerID, k.Stem())
	if err != nil {
		return Allocation{}, fmt.Errorf("list numbers for %s: %w", k.Stem(), err)
	}
	return NextFromExisting(k, existing), nil
}
