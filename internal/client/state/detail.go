package state

import (
	"sync"

	"github.com/mkravec/tripmate/internal/core"
)

// DetailResolver maps a requested proposal id to the entity itself. It
// serves from the broad snapshot cache when possible and otherwise arms the
// "all" subscription and waits. Resolution always re-checks the *current*
// target id when a snapshot arrives, so a target change during an in-flight
// fetch is honored with the latest data instead of a stale one.
type DetailResolver struct {
	mgr *SubscriptionManager

	mu     sync.Mutex
	target string

	resolved *Cell[*core.Proposal]
	loading  *Cell[bool]
	unsub    func()
}

func NewDetailResolver(mgr *SubscriptionManager) *DetailResolver {
	r := &DetailResolver{
		mgr:      mgr,
		resolved: NewCell[*core.Proposal](nil),
		loading:  NewCell(false),
	}
	r.unsub = mgr.Snapshot(KeyAll).Subscribe(r.onSnapshot)
	return r
}

// Resolved is the entity for the current target, nil while unresolved.
func (r *DetailResolver) Resolved() *Cell[*core.Proposal] { return r.resolved }

// Loading is true while a target is set but not yet resolved.
func (r *DetailResolver) Loading() *Cell[bool] { return r.loading }

// SetTarget requests resolution of id. An empty id clears the target, the
// resolved entity and the loading flag. Re-requesting an id that is already
// resolved is a no-op, avoiding redundant recomputation when the UI
// re-delivers the same route parameter.
func (r *DetailResolver) SetTarget(id string) {
	if id == "" {
		r.mu.Lock()
		r.target = ""
		r.mu.Unlock()
		r.resolved.Set(nil)
		r.loading.Set(false)
		return
	}

	r.mu.Lock()
	if id == r.target {
		if p := r.resolved.Get(); p != nil && !r.loading.Get() {
			r.mu.Unlock()
			return
		}
	}
	r.target = id
	r.mu.Unlock()

	if p := findByID(r.mgr.Snapshot(KeyAll).Get(), id); p != nil {
		r.resolved.Set(p)
		r.loading.Set(false)
		return
	}

	// Cache miss: publish the gap, then make sure the broad subscription
	// is running so a future snapshot can resolve it.
	r.resolved.Set(nil)
	r.loading.Set(true)
	r.mgr.StartListening(KeyAll)
}

// Close detaches the resolver from the snapshot cell.
func (r *DetailResolver) Close() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}

func (r *DetailResolver) onSnapshot(snap []core.Proposal) {
	r.mu.Lock()
	target := r.target
	r.mu.Unlock()
	if target == "" {
		return
	}

	if p := findByID(snap, target); p != nil {
		r.resolved.Set(p)
		r.loading.Set(false)
	}
}

func findByID(snap []core.Proposal, id string) *core.Proposal {
	for i := range snap {
		if snap[i].ID == id {
			p := snap[i]
			return &p
		}
	}
	return nil
}
