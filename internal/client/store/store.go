// Package store defines the remote proposal store contract consumed by the
// client state core, plus its implementations: a websocket/HTTP client for
// the tripmate server and an in-memory store for tests and offline demo.
package store

import (
	"context"

	"github.com/mkravec/tripmate/internal/core"
)

// Store is the abstract remote proposal collection.
//
// Observe streams deliver the full current result set on every change. The
// channel is closed when the subscription ends, normally (context canceled)
// or not (transport failure); callers distinguish the two via their own
// context.
//
// Create and Update take local image references still pending upload; the
// implementation is responsible for turning them into stored image URLs
// before the proposal is committed. A write's effect is only guaranteed
// visible once a later snapshot reflects it.
type Store interface {
	ObserveAll(ctx context.Context) (<-chan []core.Proposal, error)
	ObserveByOwner(ctx context.Context, ownerID string) (<-chan []core.Proposal, error)
	GetByID(ctx context.Context, id string) (*core.Proposal, error)
	Create(ctx context.Context, p core.Proposal, localImages []string) error
	Update(ctx context.Context, p core.Proposal, localImages []string) error
	DeleteByID(ctx context.Context, id string) error
}
