package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yukikurage/questboard-api/internal/logger"
)

// RedisFeed publishes events on a Redis channel so every API instance sees
// every change. Received events are fanned out through a local Hub.
type RedisFeed struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	hub     *Hub
	cancel  context.CancelFunc
}

func NewRedisFeed(ctx context.Context, rdb *goredis.Client, channel string, log *logger.Logger) (*RedisFeed, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		channel = TableUserProgress
	}

	fctx, cancel := context.WithCancel(ctx)
	f := &RedisFeed{
		log:     log.With("service", "RedisChangeFeed"),
		rdb:     rdb,
		channel: channel,
		hub:     NewHub(),
		cancel:  cancel,
	}
	if err := f.startForwarder(fctx); err != nil {
		cancel()
		return nil, err
	}
	return f, nil
}

func (f *RedisFeed) Publish(ctx context.Context, event ChangeEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, f.channel, raw).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	return f.hub.Subscribe(ctx, filter)
}

func (f *RedisFeed) startForwarder(ctx context.Context) error {
	sub := f.rdb.Subscribe(ctx, f.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				event, err := decodeEvent([]byte(m.Payload))
				if err != nil {
					f.log.Warn("bad change event payload", "error", err)
					continue
				}
				f.hub.Dispatch(event)
			}
		}
	}()
	return nil
}

func (f *RedisFeed) Close() error {
	f.cancel()
	f.hub.Close()
	return nil
}

func decodeEvent(raw []byte) (ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return ChangeEvent{}, err
	}
	if e.Table == "" || e.UserID == "" || e.CompanyID == "" {
		return ChangeEvent{}, fmt.Errorf("incomplete change event")
	}
	return e, nil
}
