package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
)

// MemoryStore is an in-process Store. Every mutation re-emits the full
// current snapshot to all matching subscribers, mirroring the remote
// store's push semantics. Used by tests and by the CLI's offline mode.
type MemoryStore struct {
	mu        sync.Mutex
	proposals map[string]core.Proposal
	subs      map[int]*memSub
	next      int
	now       func() time.Time
}

type memSub struct {
	ch      chan []core.Proposal
	ownerID string // "" subscribes to the whole collection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		proposals: make(map[string]core.Proposal),
		subs:      make(map[int]*memSub),
		now:       time.Now,
	}
}

// Seed inserts proposals without emitting snapshots. Test setup helper.
func (s *MemoryStore) Seed(proposals ...core.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range proposals {
		s.proposals[p.ID] = p
	}
}

func (s *MemoryStore) ObserveAll(ctx context.Context) (<-chan []core.Proposal, error) {
	return s.observe(ctx, "")
}

func (s *MemoryStore) ObserveByOwner(ctx context.Context, ownerID string) (<-chan []core.Proposal, error) {
	return s.observe(ctx, ownerID)
}

func (s *MemoryStore) observe(ctx context.Context, ownerID string) (<-chan []core.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &memSub{ch: make(chan []core.Proposal, 16), ownerID: ownerID}

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = sub
	sub.send(s.snapshotLocked(ownerID))
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*core.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) Create(ctx context.Context, p core.Proposal, localImages []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = core.StatusPublished
	}
	p.ImageURLs = append(p.ImageURLs, storedURLs(localImages)...)
	p.UpdatedAt = s.now()

	s.proposals[p.ID] = p
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, p core.Proposal, localImages []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.proposals[p.ID]
	if !ok {
		return common.ErrNotFound
	}

	// Server-owned counters survive client updates untouched.
	p.Participants = existing.Participants
	p.PendingApplications = existing.PendingApplications
	if p.Status == "" {
		p.Status = existing.Status
	}
	p.ImageURLs = append(p.ImageURLs, storedURLs(localImages)...)
	p.UpdatedAt = s.now()

	s.proposals[p.ID] = p
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.proposals[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.proposals, id)
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) snapshotLocked(ownerID string) []core.Proposal {
	snap := make([]core.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		if ownerID != "" && p.OwnerID != ownerID {
			continue
		}
		snap = append(snap, p)
	}
	sort.Slice(snap, func(i, j int) bool { return snap[i].ID < snap[j].ID })
	return snap
}

func (s *MemoryStore) broadcastLocked() {
	for _, sub := range s.subs {
		sub.send(s.snapshotLocked(sub.ownerID))
	}
}

// send never blocks: when the subscriber's buffer is full the oldest
// pending snapshot is dropped, since only the latest one matters.
func (sub *memSub) send(snap []core.Proposal) {
	for {
		select {
		case sub.ch <- snap:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

func storedURLs(localImages []string) []string {
	urls := make([]string, 0, len(localImages))
	for _, ref := range localImages {
		urls = append(urls, "mem://images/"+ref)
	}
	return urls
}
