package numbering

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/numerator"
)

type fakeLister struct {
	mu      sync.Mutex
	numbers []string
	calls   int
}

func (f *fakeLister) ListNumbers(_ context.Context, _ string, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]string(nil), f.numbers...), nil
}

func (f *fakeLister) add(n string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.numbers = append(f.numbers, n)
}

var numberPattern = regexp.MustCompile(`^[A-Z0-9]+-[A-Z0-9]+-\d{3}$`)

func TestNextFromExisting(t *testing.T) {
	rob := numerator.Key{OwnerID: "c1", Prefix: "ABC", Scope: "ROB"}

	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty scope starts at 001", nil, "ABC-ROB-001"},
		{"continues after max", []string{"ABC-ROB-001", "ABC-ROB-002"}, "ABC-ROB-003"},
		{"uses max not count", []string{"ABC-ROB-001", "ABC-ROB-007"}, "ABC-ROB-008"},
		{"ignores other scopes", []string{"ABC-IT-009", "ABC-ROB-001"}, "ABC-ROB-002"},
		{"ignores unparsable", []string{"ABC-ROB-abc", "ABC-ROB-1", "garbage"}, "ABC-ROB-001"},
		{"grows past 999", []string{"ABC-ROB-999"}, "ABC-ROB-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFromExisting(rob, tt.existing)
			assert.Equal(t, tt.want, got.Number)
		})
	}
}

func TestAllocator_SequentialSerialsHaveNoGaps(t *testing.T) {
	for _, strategy := range []numerator.Strategy{numerator.StrategyCounter, numerator.StrategyScan} {
		t.Run(string(strategy), func(t *testing.T) {
			lister := &fakeLister{}
			alloc := NewAllocator(strategy, numerator.NewMemoryCounter(), lister)
			key := numerator.Key{OwnerID: "c1", Prefix: "KITS", Scope: "ROB"}

			const n = 12
			for i := 1; i <= n; i++ {
				a, err := alloc.Next(context.Background(), key)
				require.NoError(t, err)
				assert.Regexp(t, numberPattern, a.Number)
				assert.Equal(t, fmt.Sprintf("KITS-ROB-%03d", i), a.Number)
				lister.add(a.Number)
			}
		})
	}
}

func TestAllocator_CounterContinuesLegacyNumbers(t *testing.T) {
	lister := &fakeLister{numbers: []string{"ABC-ROB-001", "ABC-ROB-002"}}
	alloc := NewAllocator(numerator.StrategyCounter, numerator.NewMemoryCounter(), lister)
	key := numerator.Key{OwnerID: "c1", Prefix: "ABC", Scope: "ROB"}

	a, err := alloc.Next(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "ABC-ROB-003", a.Number)

	b, err := alloc.Next(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "ABC-ROB-004", b.Number)
	assert.Equal(t, 1, lister.calls, "seed scan runs only for the first allocation")
}

func TestAllocator_CounterIsRaceFree(t *testing.T) {
	alloc := NewAllocator(numerator.StrategyCounter, numerator.NewMemoryCounter(), &fakeLister{})
	key := numerator.Key{OwnerID: "c1", Prefix: "ABC", Scope: "IT"}

	const n = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := alloc.Next(context.Background(), key)
			assert.NoError(t, err)
			mu.Lock()
			seen[a.Number] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestScopeFor(t *testing.T) {
	assert.Equal(t, "ROB", ScopeFor("robotics", ""))
	assert.Equal(t, "IT", ScopeFor("it_arvr", ""))
	assert.Equal(t, "3DP", ScopeFor("3dprinting", ""))
	assert.Equal(t, "GEN", ScopeFor("marketing", ""))
	assert.Equal(t, "MKT", ScopeFor("marketing", "mkt"))
}

func TestCompanyPrefix(t *testing.T) {
	assert.Equal(t, "ABC", CompanyPrefix("abc robotics"))
	assert.Equal(t, "ABC", CompanyPrefix("A B Cloud"))
	assert.Equal(t, "KI", CompanyPrefix("Ki"))
}
