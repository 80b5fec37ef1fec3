// Package optimistic is a client-side helper for callers of the vote endpoint:
// it shows a vote count ahead of the server and settles it once the response
// (or the error) arrives.
package optimistic

import (
	"context"
	"sync"
)

// Counter is a displayed count that may run ahead of the server. Tentative
// adjustments are tracked individually so a failed one can be reversed
// exactly, even when others are still in flight.
type Counter struct {
	mu        sync.Mutex
	confirmed int64
	pending   map[uint64]int64
	seq       uint64
}

func NewCounter(initial int64) *Counter {
	return &Counter{confirmed: initial, pending: make(map[uint64]int64)}
}

// Value is the confirmed count plus every pending adjustment.
func (c *Counter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.confirmed
	for _, d := range c.pending {
		v += d
	}
	return v
}

// Pending returns the number of unresolved adjustments.
func (c *Counter) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Change is one tentative adjustment. The first Confirm or Rollback wins;
// later calls are no-ops.
type Change struct {
	c     *Counter
	id    uint64
	delta int64
	once  sync.Once
}

// Apply records delta tentatively.
func (c *Counter) Apply(delta int64) *Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.pending[c.seq] = delta
	return &Change{c: c, id: c.seq, delta: delta}
}

// Confirm settles the change with the server's count, which already
// includes it.
func (ch *Change) Confirm(authoritative int64) {
	ch.once.Do(func() {
		ch.c.mu.Lock()
		defer ch.c.mu.Unlock()
		delete(ch.c.pending, ch.id)
		ch.c.confirmed = authoritative
	})
}

// Rollback removes exactly this change's delta.
func (ch *Change) Rollback() {
	ch.once.Do(func() {
		ch.c.mu.Lock()
		defer ch.c.mu.Unlock()
		delete(ch.c.pending, ch.id)
	})
}

// Do applies delta, runs op, then confirms with the count op returns or rolls
// back when op fails.
func (c *Counter) Do(ctx context.Context, delta int64, op func(ctx context.Context) (int64, error)) error {
	ch := c.Apply(delta)
	count, err := op(ctx)
	if err != nil {
		ch.Rollback()
		return err
	}
	ch.Confirm(count)
	return nil
}

// VoteDelta is the count change when a voter moves from previous to next,
// where 0 means no vote.
func VoteDelta(previous, next int8) int64 {
	return int64(next) - int64(previous)
}
