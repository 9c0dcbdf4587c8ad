// Package hub fans out "proposals changed" ticks to websocket subscribe
// handlers. Ticks carry no payload: each subscriber re-queries its own scope
// and pushes the full snapshot, so a dropped tick at worst delays an update
// until the next write.
//
// With a redis address configured the tick travels through pub/sub and
// reaches every server instance; without one the hub stays in-process.
package hub

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mkravec/tripmate/internal/logging"
)

const redisChannel = "tripmate:proposals"

type Hub struct {
	log logging.Logger

	mu     sync.Mutex
	subs   map[chan struct{}]struct{}
	closed bool

	redis  *redis.Client
	pubsub *redis.PubSub
	done   chan struct{}
}

// New creates an in-process hub.
func New(log logging.Logger) *Hub {
	return &Hub{
		log:  log.With("component", "hub"),
		subs: map[chan struct{}]struct{}{},
	}
}

// NewWithRedis creates a hub bridged over redis pub/sub. Local publishes go
// through redis and come back via the subscription, so a tick reaches local
// subscribers exactly once regardless of which instance published it.
func NewWithRedis(ctx context.Context, log logging.Logger, addr string) (*Hub, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	h := New(log)
	h.redis = client
	h.pubsub = client.Subscribe(ctx, redisChannel)
	h.done = make(chan struct{})

	go h.forward()

	return h, nil
}

func (h *Hub) forward() {
	defer close(h.done)
	for range h.pubsub.Channel() {
		h.broadcast()
	}
}

// Subscribe registers a tick channel and returns it with its cancel
// function. The channel has a buffer of one; ticks arriving while one is
// already pending coalesce.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}

	return ch, cancel
}

// Publish wakes every subscriber, across instances when redis is
// configured.
func (h *Hub) Publish(ctx context.Context) {
	if h.redis != nil {
		if err := h.redis.Publish(ctx, redisChannel, "tick").Err(); err != nil {
			h.log.Error(ctx, "redis publish failed, falling back to local broadcast", "error", err)
			h.broadcast()
		}
		return
	}
	h.broadcast()
}

func (h *Hub) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	if h.pubsub != nil {
		_ = h.pubsub.Close()
		<-h.done
	}
	if h.redis != nil {
		return h.redis.Close()
	}
	return nil
}
