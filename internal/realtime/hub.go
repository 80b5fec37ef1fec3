package realtime

import (
	"context"
	"sync"
)

// Subscription delivers matching events in publish order. Its queue is
// unbounded so a slow reader never loses events.
type Subscription struct {
	filter Filter
	events chan ChangeEvent

	mu     sync.Mutex
	queue  []ChangeEvent
	notify chan struct{}
	done   chan struct{}
	once   sync.Once

	release func()
}

func newSubscription(filter Filter, release func()) *Subscription {
	return &Subscription{
		filter:  filter,
		events:  make(chan ChangeEvent),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		release: release,
	}
}

// Events is closed once the subscription is released.
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.events
}

// Done is closed once the subscription is released.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
}

func (s *Subscription) deliver(e ChangeEvent) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	s.queue = append(s.queue, e)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.events)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			}
		}
		e := s.queue[0]
		s.queue[0] = ChangeEvent{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.events <- e:
		case <-s.done:
			return
		}
	}
}

// Hub is the in-process fan-out shared by every Feed implementation.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

func (h *Hub) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrFeedClosed
	}
	id := h.nextID
	h.nextID++
	sub := newSubscription(filter, func() { h.remove(id) })
	h.subs[id] = sub
	h.mu.Unlock()

	go sub.run()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

// Dispatch hands e to every subscription whose filter matches.
func (h *Hub) Dispatch(e ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.filter.Match(e) {
			sub.deliver(e)
		}
	}
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Close releases every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}
