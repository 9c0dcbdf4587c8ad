package proposals

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/logging"
)

// Publisher wakes subscribed snapshot streams after a write. The payload
// travels through re-query, not through the hub.
type Publisher interface {
	Publish(ctx context.Context)
}

type Service struct {
	repo Repository
	hub  Publisher
	log  logging.Logger
	now  func() time.Time
}

func NewService(repo Repository, hub Publisher, log logging.Logger) *Service {
	return &Service{
		repo: repo,
		hub:  hub,
		log:  log.With("component", "proposals"),
		now:  time.Now,
	}
}

// canTransition encodes the proposal lifecycle. A status can always stay
// where it is; forward moves are draft→published, published→full and
// published/full→concluded.
func canTransition(from, to core.Status) bool {
	if from == to {
		return true
	}
	switch from {
	case core.StatusDraft:
		return to == core.StatusPublished
	case core.StatusPublished:
		return to == core.StatusFull || to == core.StatusConcluded
	case core.StatusFull:
		return to == core.StatusConcluded
	}
	return false
}

func validate(p *core.Proposal) error {
	if strings.TrimSpace(p.Name) == "" {
		return common.ErrValidation
	}
	if p.EndDate.Before(p.StartDate) {
		return common.ErrValidation
	}
	if p.MinPrice > p.MaxPrice || p.MinPrice < 0 {
		return common.ErrValidation
	}
	if p.MaxParticipants < 1 {
		return common.ErrValidation
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID string, p core.Proposal) (*core.Proposal, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.OwnerID = userID
	if p.Status == "" {
		p.Status = core.StatusPublished
	}

	// Counters are server-owned; a create always starts from zero.
	p.Participants = 0
	p.PendingApplications = 0
	p.UpdatedAt = s.now()

	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "proposal created", "id", p.ID, "owner", userID)
	s.hub.Publish(ctx)
	return &p, nil
}

func (s *Service) Update(ctx context.Context, userID string, p core.Proposal) (*core.Proposal, error) {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != userID {
		return nil, common.ErrProposalNotOwned
	}

	if err := validate(&p); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = existing.Status
	}
	if !canTransition(existing.Status, p.Status) {
		return nil, common.ErrValidation
	}

	// Counters and ownership survive the edit untouched.
	p.OwnerID = existing.OwnerID
	p.Participants = existing.Participants
	p.PendingApplications = existing.PendingApplications
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &p); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "proposal updated", "id", p.ID)
	s.hub.Publish(ctx)
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.OwnerID != userID {
		return common.ErrProposalNotOwned
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info(ctx, "proposal deleted", "id", id)
	s.hub.Publish(ctx)
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*core.Proposal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SelectAll(ctx context.Context) ([]core.Proposal, error) {
	return s.repo.SelectAll(ctx)
}

func (s *Service) SelectByOwner(ctx context.Context, ownerID string) ([]core.Proposal, error) {
	return s.repo.SelectByOwner(ctx, ownerID)
}

// Join adds a participant. Filling the last seat moves the proposal to
// full.
func (s *Service) Join(ctx context.Context, id string) (*core.Proposal, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status == core.StatusFull || p.Status.Concluded() {
		return nil, common.ErrProposalFull
	}
	if p.Participants >= p.MaxParticipants {
		return nil, common.ErrProposalFull
	}

	p.Participants++
	if p.Participants >= p.MaxParticipants {
		p.Status = core.StatusFull
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "participant joined", "id", id, "participants", p.Participants)
	s.hub.Publish(ctx)
	return p, nil
}

// Conclude is owner-only and terminal.
func (s *Service) Conclude(ctx context.Context, userID, id string) (*core.Proposal, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != userID {
		return nil, common.ErrProposalNotOwned
	}
	if p.Status.Concluded() {
		return p, nil
	}
	if !canTransition(p.Status, core.StatusConcluded) {
		return nil, common.ErrValidation
	}

	p.Status = core.StatusConcluded
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "proposal concluded", "id", id)
	s.hub.Publish(ctx)
	return p, nil
}
