package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yukikurage/questboard-api/internal/logger"
)

const (
	listenBackoffMin = 500 * time.Millisecond
	listenBackoffMax = 30 * time.Second
)

// PostgresFeed uses LISTEN/NOTIFY on the primary database as the change bus.
type PostgresFeed struct {
	log     *logger.Logger
	pool    *pgxpool.Pool
	channel string
	hub     *Hub
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewPostgresFeed(ctx context.Context, pool *pgxpool.Pool, channel string, log *logger.Logger) (*PostgresFeed, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool required")
	}
	if channel == "" {
		channel = TableUserProgress
	}

	lctx, cancel := context.WithCancel(ctx)
	f := &PostgresFeed{
		log:     log.With("service", "PostgresChangeFeed"),
		pool:    pool,
		channel: channel,
		hub:     NewHub(),
		cancel:  cancel,
		stopped: make(chan struct{}),
	}

	// first LISTEN is synchronous so startup fails fast on a bad DSN
	conn, err := f.listen(lctx)
	if err != nil {
		cancel()
		return nil, err
	}
	go f.loop(lctx, conn)
	return f, nil
}

func (f *PostgresFeed) Publish(ctx context.Context, event ChangeEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := f.pool.Exec(ctx, "SELECT pg_notify($1, $2)", f.channel, string(raw)); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

func (f *PostgresFeed) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	return f.hub.Subscribe(ctx, filter)
}

func (f *PostgresFeed) Close() error {
	f.cancel()
	<-f.stopped
	f.hub.Close()
	return nil
}

func (f *PostgresFeed) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", f.channel, err)
	}
	return conn, nil
}

func (f *PostgresFeed) loop(ctx context.Context, conn *pgxpool.Conn) {
	defer close(f.stopped)
	backoff := listenBackoffMin

	for {
		if conn == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			var err error
			conn, err = f.listen(ctx)
			if err != nil {
				f.log.Warn("re-listen failed", "error", err, "retry_in", backoff)
				backoff = min(backoff*2, listenBackoffMax)
				continue
			}
			f.log.Info("change feed reconnected", "channel", f.channel)
			backoff = listenBackoffMin
		}

		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			// the connection may be mid-protocol; never return it to the pool
			_ = conn.Conn().Close(context.Background())
			conn.Release()
			conn = nil
			if ctx.Err() != nil {
				return
			}
			f.log.Warn("change feed connection lost", "error", err)
			continue
		}

		event, err := decodeEvent([]byte(n.Payload))
		if err != nil {
			f.log.Warn("bad change event payload", "error", err)
			continue
		}
		f.hub.Dispatch(event)
	}
}
