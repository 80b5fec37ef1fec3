package realtime

import (
	"context"
	"errors"
)

var ErrFeedClosed = errors.New("change feed closed")

// MemoryFeed delivers events within a single process.
type MemoryFeed struct {
	hub *Hub
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{hub: NewHub()}
}

func (f *MemoryFeed) Publish(ctx context.Context, event ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.hub.Dispatch(event)
	return nil
}

func (f *MemoryFeed) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	return f.hub.Subscribe(ctx, filter)
}

func (f *MemoryFeed) Close() error {
	f.hub.Close()
	return nil
}
