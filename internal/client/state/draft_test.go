package state

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravec/tripmate/internal/core"
)

// newTestEditor returns an editor with a short debounce window and a fixed
// clock so date rules are stable.
func newTestEditor(t *testing.T) *DraftEditor {
	t.Helper()
	e := NewDraftEditor("u1")
	e.debounce = 10 * time.Millisecond
	e.now = func() time.Time { return day(2026, 9, 1) }
	t.Cleanup(e.Close)
	return e
}

func waitForError(t *testing.T, e *DraftEditor, field Field, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.Errors().Get()[field] == want
	}, time.Second, 5*time.Millisecond, "field %s should settle on %q, have %q", field, want, e.Errors().Get()[field])
}

func waitForNoError(t *testing.T, e *DraftEditor, field Field) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := e.Errors().Get()[field]
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestDraftEditor_SetName_DebouncedValidation(t *testing.T) {
	e := newTestEditor(t)

	// A burst of keystrokes settles into one validation of the final value.
	e.SetName("D")
	e.SetName("Do")
	e.SetName("Dol")

	waitForNoError(t, e, FieldName)
	assert.Equal(t, "Dol", e.Snapshot().Name)

	e.SetName("")
	waitForError(t, e, FieldName, "Name cannot be empty")
}

func TestDraftEditor_SettersMarkDirty(t *testing.T) {
	e := newTestEditor(t)
	assert.False(t, e.Dirty().Get())

	e.SetName("Dolomites")
	assert.True(t, e.Dirty().Get())
}

func TestDraftEditor_UnchangedValueDoesNotMarkDirty(t *testing.T) {
	e := newTestEditor(t)

	e.SetName("Dolomites")
	e.Reset("u1")
	require.False(t, e.Dirty().Get())

	e.SetName("")
	assert.False(t, e.Dirty().Get(), "setting the same value is not an edit")
}

func TestDraftEditor_DescriptionCapRejectsInput(t *testing.T) {
	e := newTestEditor(t)

	ok := strings.Repeat("a", maxDescriptionLen)
	e.SetDescription(ok)
	assert.Equal(t, ok, e.Snapshot().Description)

	// Past the cap the edit is rejected outright, not flagged as an error.
	e.SetDescription(ok + "b")
	assert.Equal(t, ok, e.Snapshot().Description)
	waitForNoError(t, e, FieldDescription)
}

func TestDraftEditor_MinPriceClampPullsMaxUp(t *testing.T) {
	e := newTestEditor(t)

	e.SetMaxPrice(200)
	e.SetMinPrice(500)

	d := e.Snapshot()
	assert.Equal(t, 500, d.MinPrice)
	assert.Equal(t, 500, d.MaxPrice)
	waitForNoError(t, e, FieldPrice)
}

func TestDraftEditor_MaxPriceClampPullsMinDown(t *testing.T) {
	e := newTestEditor(t)

	e.SetMinPrice(400)
	e.SetMaxPrice(150)

	d := e.Snapshot()
	assert.Equal(t, 150, d.MinPrice)
	assert.Equal(t, 150, d.MaxPrice)
	waitForNoError(t, e, FieldPrice)
}

func TestDraftEditor_ClampMarksDirty(t *testing.T) {
	e := newTestEditor(t)

	e.SetMinPrice(500)
	assert.True(t, e.Dirty().Get())
}

func TestDraftEditor_SetDates_ValidatesImmediately(t *testing.T) {
	e := newTestEditor(t)

	start := day(2026, 9, 5)
	end := day(2026, 9, 3)
	e.SetDates(&start, &end)
	assert.Equal(t, "Start date must not be after end date", e.Errors().Get()[FieldDates])

	end = day(2026, 9, 7)
	e.SetDates(&start, &end)
	_, ok := e.Errors().Get()[FieldDates]
	assert.False(t, ok)
}

func TestDraftEditor_ListEditsValidateImmediately(t *testing.T) {
	e := newTestEditor(t)

	e.SetStops(nil)
	assert.Equal(t, "Add at least one itinerary stop", e.Errors().Get()[FieldStops])

	e.AddStop("Bolzano")
	_, ok := e.Errors().Get()[FieldStops]
	assert.False(t, ok)
}

func TestDraftEditor_ValidateNow_AuthoritativeAndSynchronous(t *testing.T) {
	e := newTestEditor(t)

	// No debounce has fired yet; ValidateNow must still see everything.
	ok := e.ValidateNow()
	require.False(t, ok)

	errs := e.Errors().Get()
	assert.Equal(t, "Name cannot be empty", errs[FieldName])
	assert.Contains(t, errs, FieldDates)
	assert.Contains(t, errs, FieldImages)
}

func TestDraftEditor_ValidateNow_ValidDraft(t *testing.T) {
	e := newTestEditor(t)
	fillValid(e)

	assert.True(t, e.ValidateNow())
	assert.Empty(t, e.Errors().Get())
}

func fillValid(e *DraftEditor) {
	start := day(2026, 9, 10)
	end := day(2026, 9, 14)
	e.SetName("Dolomites")
	e.SetDescription("Hiking week")
	e.SetTypology("hiking")
	e.SetDates(&start, &end)
	e.SetMinPrice(100)
	e.SetMaxPrice(400)
	e.SetMaxParticipants("6")
	e.SetStops([]string{"Bolzano"})
	e.SetActivities([]string{"via ferrata"})
	e.AddImage("cover.jpg")
}

func TestDraftEditor_Reset_ClearsEverything(t *testing.T) {
	e := newTestEditor(t)
	fillValid(e)
	require.True(t, e.Dirty().Get())

	e.Reset("u2")

	d := e.Snapshot()
	assert.Equal(t, "u2", d.OwnerID)
	assert.Empty(t, d.Name)
	assert.False(t, e.Dirty().Get())
	assert.Empty(t, e.Errors().Get())
}

func TestDraftEditor_LoadProposal_ForEdit(t *testing.T) {
	e := newTestEditor(t)

	p := core.Proposal{
		ID:              "p1",
		OwnerID:         "u1",
		Name:            "Alps",
		Description:     "Snowy",
		Typology:        "ski",
		StartDate:       day(2026, 12, 10),
		EndDate:         day(2026, 12, 15),
		MinPrice:        300,
		MaxPrice:        900,
		MaxParticipants: 4,
		Stops:           []string{"Chamonix"},
		Activities:      []string{"skiing"},
		ImageURLs:       []string{"https://img/1"},
	}
	e.LoadProposal(p)

	d := e.Snapshot()
	assert.Equal(t, "p1", d.ID)
	assert.Equal(t, "Alps", d.Name)
	assert.Equal(t, "4", d.MaxParticipants)
	assert.Equal(t, []string{"https://img/1"}, d.ExistingImageURLs)
	assert.Empty(t, d.Images)
	assert.False(t, e.Dirty().Get())
}

func TestDraftEditor_LoadDuplicate_DetachesFromSource(t *testing.T) {
	e := newTestEditor(t)

	p := core.Proposal{ID: "p1", OwnerID: "u1", Name: "Alps", MaxParticipants: 4}
	e.LoadDuplicate(p, "u2")

	d := e.Snapshot()
	assert.Empty(t, d.ID, "duplicate must not carry the source id")
	assert.Equal(t, "u2", d.OwnerID)
	assert.Equal(t, "Alps", d.Name)
}

func TestDraft_ToProposal(t *testing.T) {
	today := day(2026, 9, 1)
	d := validDraft(today)
	d.ID = "p9"

	p := d.ToProposal()
	assert.Equal(t, "p9", p.ID)
	assert.Equal(t, "u1", p.OwnerID)
	assert.Equal(t, 6, p.MaxParticipants)
	assert.Equal(t, today, p.StartDate)
	assert.Equal(t, []string{"Bolzano"}, p.Stops)
}
