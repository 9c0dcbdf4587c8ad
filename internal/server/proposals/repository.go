package proposals

import (
	"context"

	"github.com/mkravec/tripmate/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *core.Proposal) error
	Update(ctx context.Context, p *core.Proposal) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*core.Proposal, error)
	SelectAll(ctx context.Context) ([]core.Proposal, error)
	SelectByOwner(ctx context.Context, ownerID string) ([]core.Proposal, error)
}
