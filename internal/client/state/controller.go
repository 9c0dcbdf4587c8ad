package state

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkravec/tripmate/internal/client/store"
	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/logging"
)

// Controller is the outward surface of the proposal state core for one
// signed-in user: the draft editor, the subscription manager, the derived
// views, the detail resolver, and the imperative save/update/delete
// operations. Presentation layers observe its cells and never receive
// exceptions across the boundary; failures degrade to "no change" plus a
// logged diagnostic.
type Controller struct {
	userID string
	store  store.Store
	log    logging.Logger

	editor *DraftEditor
	mgr    *SubscriptionManager
	views  *Views
	detail *DetailResolver
	saving *Cell[bool]
}

func NewController(userID string, st store.Store, log logging.Logger) *Controller {
	mgr := NewSubscriptionManager(st, log)
	return &Controller{
		userID: userID,
		store:  st,
		log:    log.With("module", "proposal_controller"),
		editor: NewDraftEditor(userID),
		mgr:    mgr,
		views:  NewViews(userID, mgr),
		detail: NewDetailResolver(mgr),
		saving: NewCell(false),
	}
}

func (c *Controller) Editor() *DraftEditor                { return c.editor }
func (c *Controller) Subscriptions() *SubscriptionManager { return c.mgr }
func (c *Controller) Views() *Views                       { return c.views }
func (c *Controller) Detail() *DetailResolver             { return c.detail }

// Saving is true while a write operation is in flight.
func (c *Controller) Saving() *Cell[bool] { return c.saving }

// StartListening arms the subscriptions the list screens need.
func (c *Controller) StartListening() {
	c.mgr.StartListening(KeyAll)
	c.mgr.StartListening(KeyOwnedBy(c.userID))
}

// Save validates the draft synchronously and, if it passes, creates a new
// proposal. On write failure the draft is preserved so the user can retry
// without re-entering anything.
func (c *Controller) Save(ctx context.Context) error {
	if !c.editor.ValidateNow() {
		return common.ErrValidation
	}

	d := c.editor.Snapshot()
	p := d.ToProposal()
	p.ID = uuid.NewString()

	c.saving.Set(true)
	defer c.saving.Set(false)

	if err := c.store.Create(ctx, p, d.Images); err != nil {
		c.log.Error(ctx, "create failed", "error", err)
		return err
	}

	c.editor.Reset(c.userID)
	return nil
}

// Update validates and commits the draft over an existing proposal.
func (c *Controller) Update(ctx context.Context, id string) error {
	if !c.editor.ValidateNow() {
		return common.ErrValidation
	}

	d := c.editor.Snapshot()
	p := d.ToProposal()
	p.ID = id

	c.saving.Set(true)
	defer c.saving.Set(false)

	if err := c.store.Update(ctx, p, d.Images); err != nil {
		c.log.Error(ctx, "update failed", "id", id, "error", err)
		return err
	}

	c.editor.Reset(c.userID)
	return nil
}

// Delete removes a proposal. The local caches are not patched; the change
// becomes visible through the next subscription snapshot.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.saving.Set(true)
	defer c.saving.Set(false)

	if err := c.store.DeleteByID(ctx, id); err != nil {
		c.log.Error(ctx, "delete failed", "id", id, "error", err)
		return err
	}
	return nil
}

// LoadForEdit fills the draft from an existing proposal, serving from the
// snapshot cache when possible.
func (c *Controller) LoadForEdit(ctx context.Context, id string) error {
	p, err := c.lookup(ctx, id)
	if err != nil {
		return err
	}
	c.editor.LoadProposal(*p)
	return nil
}

// LoadForDuplicate fills the draft with a copy of the source proposal,
// detached from it and owned by newOwnerID.
func (c *Controller) LoadForDuplicate(ctx context.Context, sourceID, newOwnerID string) error {
	p, err := c.lookup(ctx, sourceID)
	if err != nil {
		return err
	}
	c.editor.LoadDuplicate(*p, newOwnerID)
	return nil
}

// ResetDraft discards the edit session and starts over for ownerID.
func (c *Controller) ResetDraft(ownerID string) {
	c.editor.Reset(ownerID)
}

// Close releases every stateful component. Callers must invoke it
// deterministically on teardown.
func (c *Controller) Close() {
	c.detail.Close()
	c.views.Close()
	c.mgr.Close()
	c.editor.Close()
}

func (c *Controller) lookup(ctx context.Context, id string) (*core.Proposal, error) {
	if p := findByID(c.mgr.Snapshot(KeyAll).Get(), id); p != nil {
		return p, nil
	}
	p, err := c.store.GetByID(ctx, id)
	if err != nil {
		c.log.Error(ctx, "load failed", "id", id, "error", err)
		return nil, err
	}
	return p, nil
}
