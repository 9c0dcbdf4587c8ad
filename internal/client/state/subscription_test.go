package state

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravec/tripmate/internal/client/store"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// fakeStore hands out channels the test feeds by hand, and counts upstream
// connections so idempotence is observable.
type fakeStore struct {
	store.Store

	mu           sync.Mutex
	observeErr   error
	allChans     []chan []core.Proposal
	ownerChans   map[string][]chan []core.Proposal
	observeCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{ownerChans: make(map[string][]chan []core.Proposal)}
}

func (f *fakeStore) ObserveAll(ctx context.Context) (<-chan []core.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observeCalls++
	if f.observeErr != nil {
		return nil, f.observeErr
	}
	ch := make(chan []core.Proposal, 8)
	f.allChans = append(f.allChans, ch)
	return ch, nil
}

func (f *fakeStore) ObserveByOwner(ctx context.Context, ownerID string) (<-chan []core.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observeCalls++
	ch := make(chan []core.Proposal, 8)
	f.ownerChans[ownerID] = append(f.ownerChans[ownerID], ch)
	return ch, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.observeCalls
}

func (f *fakeStore) allChan(i int) chan []core.Proposal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allChans[i]
}

func (f *fakeStore) allChanCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.allChans)
}

func TestSubscriptionManager_StartListening_Idempotent(t *testing.T) {
	fs := newFakeStore()
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.StartListening(KeyAll)
	m.StartListening(KeyAll)
	m.StartListening(KeyAll)

	require.Eventually(t, func() bool { return fs.calls() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fs.calls(), "re-entrant calls must not open a second upstream connection")
}

func TestSubscriptionManager_SnapshotDeliveryClearsLoading(t *testing.T) {
	fs := newFakeStore()
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.StartListening(KeyAll)
	assert.True(t, m.Loading().Get())

	require.Eventually(t, func() bool { return fs.allChanCount() == 1 }, time.Second, 5*time.Millisecond)
	fs.allChan(0) <- []core.Proposal{{ID: "p1"}}

	require.Eventually(t, func() bool {
		snap := m.Snapshot(KeyAll).Get()
		return len(snap) == 1 && snap[0].ID == "p1"
	}, time.Second, 5*time.Millisecond)
	assert.False(t, m.Loading().Get())
}

func TestSubscriptionManager_EmptySnapshotAlsoClearsLoading(t *testing.T) {
	fs := newFakeStore()
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.StartListening(KeyAll)
	require.Eventually(t, func() bool { return fs.allChanCount() == 1 }, time.Second, 5*time.Millisecond)

	fs.allChan(0) <- nil

	require.Eventually(t, func() bool { return !m.Loading().Get() }, time.Second, 5*time.Millisecond)
}

func TestSubscriptionManager_StopThenRestart_NewGeneration(t *testing.T) {
	fs := newFakeStore()
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.StartListening(KeyAll)
	require.Eventually(t, func() bool { return fs.allChanCount() == 1 }, time.Second, 5*time.Millisecond)

	m.Stop(KeyAll)
	m.StartListening(KeyAll)
	require.Eventually(t, func() bool { return fs.allChanCount() == 2 }, time.Second, 5*time.Millisecond)

	// A late delivery from the first, superseded subscription must never
	// overwrite newer state.
	fs.allChan(0) <- []core.Proposal{{ID: "stale"}}
	fs.allChan(1) <- []core.Proposal{{ID: "fresh"}}

	require.Eventually(t, func() bool {
		snap := m.Snapshot(KeyAll).Get()
		return len(snap) == 1 && snap[0].ID == "fresh"
	}, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	snap := m.Snapshot(KeyAll).Get()
	require.Len(t, snap, 1)
	assert.Equal(t, "fresh", snap[0].ID)
}

func TestSubscriptionManager_Stop_Idempotent(t *testing.T) {
	fs := newFakeStore()
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.Stop(KeyAll) // never started
	m.StartListening(KeyAll)
	m.Stop(KeyAll)
	m.Stop(KeyAll)

	assert.False(t, m.Loading().Get())
}

func TestSubscriptionManager_ObserveError_ClearsLoadingAndAllowsRetry(t *testing.T) {
	fs := newFakeStore()
	fs.observeErr = errors.New("network down")
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.StartListening(KeyAll)
	require.Eventually(t, func() bool { return !m.Loading().Get() }, time.Second, 5*time.Millisecond)

	// The failed key is inactive again, so a retry opens a fresh
	// subscription.
	fs.mu.Lock()
	fs.observeErr = nil
	fs.mu.Unlock()

	require.Eventually(t, func() bool {
		m.StartListening(KeyAll)
		return fs.allChanCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSubscriptionManager_StreamClose_KeepsLastValue(t *testing.T) {
	fs := newFakeStore()
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.StartListening(KeyAll)
	require.Eventually(t, func() bool { return fs.allChanCount() == 1 }, time.Second, 5*time.Millisecond)

	fs.allChan(0) <- []core.Proposal{{ID: "p1"}}
	require.Eventually(t, func() bool { return len(m.Snapshot(KeyAll).Get()) == 1 }, time.Second, 5*time.Millisecond)

	close(fs.allChan(0))

	// The list is left at its last-known value, not wiped.
	require.Eventually(t, func() bool { return !m.Loading().Get() }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, m.Snapshot(KeyAll).Get(), 1)
}

func TestSubscriptionManager_OwnerKeyRoutesToOwnerStream(t *testing.T) {
	fs := newFakeStore()
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.StartListening(KeyOwnedBy("u1"))

	require.Eventually(t, func() bool {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		return len(fs.ownerChans["u1"]) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSubscriptionManager_Seed_DoesNotTouchLoading(t *testing.T) {
	fs := newFakeStore()
	m := NewSubscriptionManager(fs, testLogger())
	defer m.Close()

	m.Seed(KeyAll, []core.Proposal{{ID: "cached"}})

	assert.False(t, m.Loading().Get())
	snap := m.Snapshot(KeyAll).Get()
	require.Len(t, snap, 1)
	assert.Equal(t, "cached", snap[0].ID)
}

func TestKey_Owner(t *testing.T) {
	owner, ok := KeyOwnedBy("u1").Owner()
	require.True(t, ok)
	assert.Equal(t, "u1", owner)

	_, ok = KeyAll.Owner()
	assert.False(t, ok)
}
