package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 16

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("live hub closed")

// Hub delivers events to in-process subscribers, keyed by topic.
// Delivery never blocks the publisher: a subscriber whose buffer is full
// misses the event and is expected to resync by re-fetching.
type Hub struct {
	subs    map[string]map[*Subscription]struct{}
	logger  *zap.Logger
	buffer  int
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewHub creates a hub. buffer <= 0 uses DefaultBuffer.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers interest in one topic.
// The caller owns the returned handle and must Close it when done.
func (h *Hub) Subscribe(topic string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &Subscription{
		topic: topic,
		ch:    make(chan Event, h.buffer),
		hub:   h,
	}
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}

	h.logger.Debug("live subscription opened",
		zap.String("topic", topic),
		zap.Int("subscribers", len(h.subs[topic])))
	return sub, nil
}

// Publish delivers e to local subscribers. It satisfies Publisher.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.Deliver(e)
	return nil
}

// Deliver fans e out to every subscriber of its topic.
func (h *Hub) Deliver(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[e.Topic()] {
		select {
		case sub.ch <- e:
		default:
			h.dropped.Add(1)
			h.logger.Debug("live subscriber buffer full, dropping event",
				zap.String("topic", sub.topic),
				zap.String("event", e.ID))
		}
	}
}

// Subscribers returns the number of open subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close releases every open subscription. Further Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]map[*Subscription]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, set := range subs {
		for sub := range set {
			sub.closeChannel()
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[sub.topic]
	if set == nil {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.topic)
	}
}

// Subscription is a scoped handle on one topic.
// Close is idempotent and safe to call from any goroutine.
type Subscription struct {
	hub   *Hub
	ch    chan Event
	topic string
	once  sync.Once
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string {
	return s.topic
}

// Events returns the delivery channel. It is closed when the subscription is released.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.hub.remove(s)
	s.closeChannel()
}

func (s *Subscription) closeChannel() {
	s.once.Do(func() {
		// Deliver holds the read lock while sending; taking the write lock
		// here guarantees no send is in flight when the channel closes.
		s.hub.mu.Lock()
		close(s.ch)
		s.hub.mu.Unlock()
	})
}
