package numerator

import (
	"context"
	"sync"
)

// SeedFunc reports the highest serial already stored for a key. Counters
// call it only when a key is used for the first time, so numbering continues
// after invoices that predate the counter.
type SeedFunc func(ctx context.Context) (int64, error)

// Counter hands out serials for a Key.
// Implementations live in the infrastructure layer.
type Counter interface {
	// Next atomically advances the counter of k and returns the new serial.
	Next(ctx context.Context, k Key, seed SeedFunc) (int64, error)
}

// MemoryCounter is an in-process Counter for tests and offline tooling.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[Key]int64
}

// NewMemoryCounter creates an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: make(map[Key]int64)}
}

// Next implements Counter.
func (c *MemoryCounter) Next(ctx context.Context, k Key, seed SeedFunc) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.values[k]
	if !ok && seed != nil {
		s, err := seed(ctx)
		if err != nil {
			return 0, err
		}
		cur = s
	}
	cur++
	c.values[k] = cur
	return cur, nil
}

var _ Counter = (*MemoryCounter)(nil)
