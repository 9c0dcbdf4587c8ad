package state

import (
	"context"
	"strings"
	"sync"

	"github.com/mkravec/tripmate/internal/client/store"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/logging"
)

// Key identifies one logical live query against the remote store.
type Key string

// KeyAll subscribes to the whole proposal collection.
const KeyAll Key = "all"

const ownedByPrefix = "owned-by:"

// KeyOwnedBy subscribes to proposals owned by one user.
func KeyOwnedBy(ownerID string) Key {
	return Key(ownedByPrefix + ownerID)
}

// Owner returns the owner id for owned-by keys.
func (k Key) Owner() (string, bool) {
	if strings.HasPrefix(string(k), ownedByPrefix) {
		return strings.TrimPrefix(string(k), ownedByPrefix), true
	}
	return "", false
}

type watch struct {
	gen    uint64
	cancel context.CancelFunc
}

// SubscriptionManager guarantees at most one active subscription per key.
// It owns the raw snapshot cache for each key; every other component only
// reads those cells. Stale deliveries from superseded subscriptions are
// discarded by comparing a per-key generation token.
type SubscriptionManager struct {
	store store.Store
	log   logging.Logger

	mu      sync.Mutex
	gens    map[Key]uint64
	active  map[Key]*watch
	cells   map[Key]*Cell[[]core.Proposal]
	pending map[Key]bool
	closed  bool

	loading *Cell[bool]
}

func NewSubscriptionManager(st store.Store, log logging.Logger) *SubscriptionManager {
	return &SubscriptionManager{
		store:   st,
		log:     log.With("module", "subscriptions"),
		gens:    make(map[Key]uint64),
		active:  make(map[Key]*watch),
		cells:   make(map[Key]*Cell[[]core.Proposal]),
		pending: make(map[Key]bool),
		loading: NewCell(false),
	}
}

// Loading is true while any key is waiting for its first snapshot.
func (m *SubscriptionManager) Loading() *Cell[bool] { return m.loading }

// Snapshot returns the raw snapshot cell for key, creating it empty if the
// key has never been observed. The cell identity is stable across
// subscription restarts.
func (m *SubscriptionManager) Snapshot(key Key) *Cell[[]core.Proposal] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cellLocked(key)
}

func (m *SubscriptionManager) cellLocked(key Key) *Cell[[]core.Proposal] {
	c, ok := m.cells[key]
	if !ok {
		c = NewCell([]core.Proposal(nil))
		m.cells[key] = c
	}
	return c
}

// Seed installs a snapshot (for example from the local cache) without
// touching the loading flag or subscription state. A key that already has
// an active subscription is left alone.
func (m *SubscriptionManager) Seed(key Key, snapshot []core.Proposal) {
	m.mu.Lock()
	if _, ok := m.active[key]; ok {
		m.mu.Unlock()
		return
	}
	cell := m.cellLocked(key)
	m.mu.Unlock()

	cell.Set(snapshot)
}

// StartListening opens a subscription for key. If one is already active the
// call is an idempotent no-op: a re-entrant request while the first is still
// loading must not create a second upstream connection.
func (m *SubscriptionManager) StartListening(key Key) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if _, ok := m.active[key]; ok {
		m.mu.Unlock()
		return
	}

	m.gens[key]++
	gen := m.gens[key]

	ctx, cancel := context.WithCancel(context.Background())
	m.active[key] = &watch{gen: gen, cancel: cancel}
	m.pending[key] = true
	m.mu.Unlock()

	m.loading.Set(true)

	go m.run(ctx, key, gen)
}

// Stop cancels the active subscription for key, if any. Idempotent. The
// last received snapshot stays in the cell.
func (m *SubscriptionManager) Stop(key Key) {
	m.mu.Lock()
	w, ok := m.active[key]
	if ok {
		delete(m.active, key)
		delete(m.pending, key)
	}
	stillLoading := len(m.pending) > 0
	m.mu.Unlock()

	if ok {
		w.cancel()
		m.loading.Set(stillLoading)
	}
}

// Close tears down every subscription. The manager must not be used after.
func (m *SubscriptionManager) Close() {
	m.mu.Lock()
	m.closed = true
	watches := make([]*watch, 0, len(m.active))
	for _, w := range m.active {
		watches = append(watches, w)
	}
	m.active = make(map[Key]*watch)
	m.pending = make(map[Key]bool)
	m.mu.Unlock()

	for _, w := range watches {
		w.cancel()
	}
	m.loading.Set(false)
}

func (m *SubscriptionManager) run(ctx context.Context, key Key, gen uint64) {
	ch, err := m.observe(ctx, key)
	if err != nil {
		m.log.Warn(ctx, "subscription failed to open", "key", key, "error", err)
		m.deactivate(key, gen)
		return
	}

	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				// Stream ended. Not fatal: the key becomes inactive and a
				// later StartListening starts fresh.
				if ctx.Err() == nil {
					m.log.Warn(ctx, "subscription stream closed", "key", key)
				}
				m.deactivate(key, gen)
				return
			}
			if cell := m.accept(key, gen); cell != nil {
				cell.Set(snap)
			} else {
				// A competing subscription replaced this generation; its
				// snapshots must never overwrite newer state.
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *SubscriptionManager) observe(ctx context.Context, key Key) (<-chan []core.Proposal, error) {
	if owner, ok := key.Owner(); ok {
		return m.store.ObserveByOwner(ctx, owner)
	}
	return m.store.ObserveAll(ctx)
}

// accept validates the generation token and clears the loading state for
// key. Returns the snapshot cell to publish into, or nil for stale
// deliveries.
func (m *SubscriptionManager) accept(key Key, gen uint64) *Cell[[]core.Proposal] {
	m.mu.Lock()
	w, ok := m.active[key]
	if !ok || w.gen != gen {
		m.mu.Unlock()
		return nil
	}
	delete(m.pending, key)
	stillLoading := len(m.pending) > 0
	cell := m.cellLocked(key)
	m.mu.Unlock()

	m.loading.Set(stillLoading)
	return cell
}

// deactivate removes the watch if this generation still owns it and clears
// its pending-loading state, leaving the last snapshot untouched.
func (m *SubscriptionManager) deactivate(key Key, gen uint64) {
	m.mu.Lock()
	w, ok := m.active[key]
	if ok && w.gen == gen {
		delete(m.active, key)
		delete(m.pending, key)
	}
	stillLoading := len(m.pending) > 0
	m.mu.Unlock()

	m.loading.Set(stillLoading)
}
