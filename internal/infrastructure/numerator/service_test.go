package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	corenumerator "invoicer/internal/core/numerator"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the invoice_sequences table.
type mockQuerier struct {
	mu      sync.Mutex
	rows    map[string]int64
	inserts int
	fail    error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{rows: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return &mockRow{err: m.fail}
	}

	key := args[0].(string) + "/" + args[1].(string)
	switch {
	case strings.Contains(sql, "UPDATE invoice_sequences") && !strings.Contains(sql, "INSERT"):
		cur, ok := m.rows[key]
		if !ok {
			return &mockRow{err: pgx.ErrNoRows}
		}
		m.rows[key] = cur + 1
		return &mockRow{val: cur + 1}
	case strings.Contains(sql, "INSERT INTO invoice_sequences"):
		m.inserts++
		if cur, ok := m.rows[key]; ok {
			m.rows[key] = cur + 1
			return &mockRow{val: cur + 1}
		}
		start := args[2].(int64)
		m.rows[key] = start
		return &mockRow{val: start}
	}
	return &mockRow{err: errors.New("unexpected query")}
}

func TestNext_StartsAtOneWithoutSeed(t *testing.T) {
	svc := New(newMockQuerier())
	key := corenumerator.Key{OwnerID: "c1", Prefix: "ABC", Scope: "ROB"}

	for want := int64(1); want <= 3; want++ {
		got, err := svc.Next(context.Background(), key, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
}

func TestNext_SeedsOnlyOnFirstUse(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	key := corenumerator.Key{OwnerID: "c1", Prefix: "ABC", Scope: "ROB"}

	seedCalls := 0
	seed := func(context.Context) (int64, error) {
		seedCalls++
		return 2, nil
	}

	first, err := svc.Next(context.Background(), key, seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Next(context.Background(), key, seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != 3 || second != 4 {
		t.Errorf("expected 3 then 4, got %d then %d", first, second)
	}
	if seedCalls != 1 {
		t.Errorf("expected seed to run once, ran %d times", seedCalls)
	}
	if q.inserts != 1 {
		t.Errorf("expected one insert, got %d", q.inserts)
	}
}

func TestNext_ScopesAreIndependent(t *testing.T) {
	svc := New(newMockQuerier())
	rob := corenumerator.Key{OwnerID: "c1", Prefix: "ABC", Scope: "ROB"}
	it := corenumerator.Key{OwnerID: "c1", Prefix: "ABC", Scope: "IT"}
	other := corenumerator.Key{OwnerID: "c2", Prefix: "ABC", Scope: "ROB"}

	ctx := context.Background()
	_, _ = svc.Next(ctx, rob, nil)
	_, _ = svc.Next(ctx, rob, nil)

	if got, _ := svc.Next(ctx, it, nil); got != 1 {
		t.Errorf("IT scope: expected 1, got %d", got)
	}
	if got, _ := svc.Next(ctx, other, nil); got != 1 {
		t.Errorf("other company: expected 1, got %d", got)
	}
}

func TestNext_Concurrent(t *testing.T) {
	svc := New(newMockQuerier())
	key := corenumerator.Key{OwnerID: "c1", Prefix: "KITS", Scope: "GEN"}

	const n = 50
	var wg sync.WaitGroup
	results := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.Next(context.Background(), key, nil)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for v := range results {
		if seen[v] {
			t.Errorf("duplicate serial %d", v)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d unique serials, got %d", n, len(seen))
	}
}

func TestNext_PropagatesErrors(t *testing.T) {
	q := newMockQuerier()
	q.fail = errors.New("connection reset")
	svc := New(q)

	_, err := svc.Next(context.Background(), corenumerator.Key{OwnerID: "c1", Prefix: "A", Scope: "B"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	q.fail = nil
	_, err = svc.Next(context.Background(), corenumerator.Key{OwnerID: "c1", Prefix: "A", Scope: "B"},
		func(context.Context) (int64, error) { return 0, errors.New("scan failed") })
	if err == nil || !strings.Contains(err.Error(), "seed sequence") {
		t.Errorf("expected seed error, got %v", err)
	}
}
