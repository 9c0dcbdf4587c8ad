package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravec/tripmate/internal/client/store"
	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
)

// failingStore wraps a MemoryStore and fails writes on demand.
type failingStore struct {
	*store.MemoryStore
	createErr error
}

func (f *failingStore) Create(ctx context.Context, p core.Proposal, localImages []string) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.MemoryStore.Create(ctx, p, localImages)
}

func newTestController(t *testing.T, st store.Store) *Controller {
	t.Helper()
	c := NewController("u1", st, testLogger())
	c.editor.debounce = 10 * time.Millisecond
	c.editor.now = func() time.Time { return day(2026, 9, 1) }
	t.Cleanup(c.Close)
	return c
}

func TestController_SaveInvalidDraft(t *testing.T) {
	c := newTestController(t, store.NewMemoryStore())

	err := c.Save(context.Background())
	require.ErrorIs(t, err, common.ErrValidation)

	// The synchronous validation published the errors.
	assert.Equal(t, "Name cannot be empty", c.Editor().Errors().Get()[FieldName])
	assert.False(t, c.Saving().Get())
}

func TestController_SaveValidDraft(t *testing.T) {
	ms := store.NewMemoryStore()
	c := newTestController(t, ms)

	fillValid(c.Editor())
	require.NoError(t, c.Save(context.Background()))

	// The draft resets after a successful save.
	assert.Empty(t, c.Editor().Snapshot().Name)
	assert.False(t, c.Editor().Dirty().Get())
	assert.False(t, c.Saving().Get())
}

func TestController_SaveFailurePreservesDraft(t *testing.T) {
	fst := &failingStore{MemoryStore: store.NewMemoryStore(), createErr: errors.New("write failed")}
	c := newTestController(t, fst)

	fillValid(c.Editor())
	err := c.Save(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrValidation)

	// Nothing was discarded; the user can retry as-is.
	assert.Equal(t, "Dolomites", c.Editor().Snapshot().Name)
	assert.True(t, c.Editor().Dirty().Get())

	fst.createErr = nil
	require.NoError(t, c.Save(context.Background()))
	assert.Empty(t, c.Editor().Snapshot().Name)
}

func TestController_UpdateExisting(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Seed(core.Proposal{ID: "p1", OwnerID: "u1", Name: "Old", Participants: 3})
	c := newTestController(t, ms)

	require.NoError(t, c.LoadForEdit(context.Background(), "p1"))
	c.Editor().SetName("New name")
	fillDatesAndRest(c.Editor())

	require.NoError(t, c.Update(context.Background(), "p1"))

	p, err := ms.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "New name", p.Name)
	assert.Equal(t, 3, p.Participants, "server-owned counters survive the round trip")
}

// fillDatesAndRest completes a loaded draft so it passes validation.
func fillDatesAndRest(e *DraftEditor) {
	start := day(2026, 9, 10)
	end := day(2026, 9, 14)
	e.SetDescription("Updated description")
	e.SetTypology("hiking")
	e.SetDates(&start, &end)
	e.SetMinPrice(100)
	e.SetMaxPrice(400)
	e.SetMaxParticipants("6")
	e.SetStops([]string{"Bolzano"})
	e.SetActivities([]string{"hiking"})
	e.AddImage("cover.jpg")
}

func TestController_Delete(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Seed(core.Proposal{ID: "p1", OwnerID: "u1"})
	c := newTestController(t, ms)

	require.NoError(t, c.Delete(context.Background(), "p1"))

	_, err := ms.GetByID(context.Background(), "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestController_LoadForEdit_NotFound(t *testing.T) {
	c := newTestController(t, store.NewMemoryStore())

	err := c.LoadForEdit(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestController_LoadForDuplicate(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Seed(core.Proposal{ID: "p1", OwnerID: "u9", Name: "Alps"})
	c := newTestController(t, ms)

	require.NoError(t, c.LoadForDuplicate(context.Background(), "p1", "u1"))

	d := c.Editor().Snapshot()
	assert.Empty(t, d.ID)
	assert.Equal(t, "u1", d.OwnerID)
	assert.Equal(t, "Alps", d.Name)
}

func TestController_EndToEnd_SaveShowsUpInViews(t *testing.T) {
	ms := store.NewMemoryStore()
	c := newTestController(t, ms)
	c.views.now = func() time.Time { return day(2026, 9, 1) }

	c.StartListening()
	require.Eventually(t, func() bool {
		return !c.Subscriptions().Loading().Get()
	}, time.Second, 5*time.Millisecond)

	fillValid(c.Editor())
	require.NoError(t, c.Save(context.Background()))

	require.Eventually(t, func() bool {
		owned := c.Views().Owned().Get()
		return len(owned) == 1 && owned[0].Name == "Dolomites"
	}, time.Second, 5*time.Millisecond)
}
