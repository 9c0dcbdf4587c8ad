package state

import (
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mkravec/tripmate/internal/core"
)

// Field identifies one editable draft field in the validation error map.
type Field string

const (
	FieldName         Field = "name"
	FieldDescription  Field = "description"
	FieldTypology     Field = "typology"
	FieldDates        Field = "dates"
	FieldPrice        Field = "price"
	FieldParticipants Field = "participants"
	FieldStops        Field = "stops"
	FieldActivities   Field = "activities"
	FieldImages       Field = "images"
)

// maxDescriptionLen is enforced at input time: edits that would exceed it
// are rejected outright rather than flagged as a validation error.
const maxDescriptionLen = 5000

// Draft is the in-progress edit state for one proposal. It is owned by a
// single DraftEditor and mutated only through its setters.
type Draft struct {
	// ID is set when editing an existing proposal, empty for create and
	// duplicate flows.
	ID string

	Name        string
	Description string
	Typology    string
	StartDate   *time.Time
	EndDate     *time.Time
	MinPrice    int
	MaxPrice    int

	// MaxParticipants holds the raw text input; it is parsed during
	// validation.
	MaxParticipants string

	Stops      []string
	Activities []string

	// Images are local references pending upload; ExistingImageURLs are
	// already-stored URLs carried over from a loaded proposal.
	Images            []string
	ExistingImageURLs []string

	OwnerID string
}

// ToProposal converts a validated draft into the entity sent to the store.
// Callers must run ValidateNow first; the participant count parse is assumed
// to succeed here.
func (d Draft) ToProposal() core.Proposal {
	participants, _ := strconv.Atoi(d.MaxParticipants)
	p := core.Proposal{
		ID:              d.ID,
		OwnerID:         d.OwnerID,
		Name:            d.Name,
		Description:     d.Description,
		Typology:        d.Typology,
		MinPrice:        d.MinPrice,
		MaxPrice:        d.MaxPrice,
		MaxParticipants: participants,
		Stops:           append([]string(nil), d.Stops...),
		Activities:      append([]string(nil), d.Activities...),
		ImageURLs:       append([]string(nil), d.ExistingImageURLs...),
	}
	if d.StartDate != nil {
		p.StartDate = *d.StartDate
	}
	if d.EndDate != nil {
		p.EndDate = *d.EndDate
	}
	return p
}

func (d Draft) clone() Draft {
	c := d
	c.Stops = append([]string(nil), d.Stops...)
	c.Activities = append([]string(nil), d.Activities...)
	c.Images = append([]string(nil), d.Images...)
	c.ExistingImageURLs = append([]string(nil), d.ExistingImageURLs...)
	if d.StartDate != nil {
		t := *d.StartDate
		c.StartDate = &t
	}
	if d.EndDate != nil {
		t := *d.EndDate
		c.EndDate = &t
	}
	return c
}

// DraftEditor owns one draft edit session: per-field setters, the reactive
// validation error map, and the unsaved-changes flag. Text and numeric
// fields validate on a debounce window; date and list edits validate
// immediately. ValidateNow is the authoritative synchronous check that
// gates saving.
type DraftEditor struct {
	mu    sync.Mutex
	draft Draft

	errors *Cell[map[Field]string]
	dirty  *Cell[bool]

	now        func() time.Time
	debounce   time.Duration
	debouncers map[Field]*Debouncer
}

func NewDraftEditor(ownerID string) *DraftEditor {
	return &DraftEditor{
		draft:      Draft{OwnerID: ownerID},
		errors:     NewCell(map[Field]string{}),
		dirty:      NewCell(false),
		now:        time.Now,
		debounce:   DefaultDebounce,
		debouncers: make(map[Field]*Debouncer),
	}
}

// SetDebounceInterval overrides the validation debounce window. Only
// effective before the first edit; existing per-field debouncers keep their
// interval.
func (e *DraftEditor) SetDebounceInterval(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d > 0 {
		e.debounce = d
	}
}

// Errors exposes the per-field validation error map. Absence of a key means
// the field is valid (or not yet validated).
func (e *DraftEditor) Errors() *Cell[map[Field]string] { return e.errors }

// Dirty exposes the unsaved-changes flag.
func (e *DraftEditor) Dirty() *Cell[bool] { return e.dirty }

// Snapshot returns a copy of the current draft.
func (e *DraftEditor) Snapshot() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.clone()
}

func (e *DraftEditor) SetName(v string) {
	e.mu.Lock()
	if e.draft.Name == v {
		e.mu.Unlock()
		return
	}
	e.draft.Name = v
	e.mu.Unlock()

	e.dirty.Set(true)
	e.validateLater(FieldName, func(d Draft) string { return validateName(d.Name) })
}

// SetDescription rejects edits past the input cap instead of recording an
// error for them.
func (e *DraftEditor) SetDescription(v string) {
	if utf8.RuneCountInString(v) > maxDescriptionLen {
		return
	}
	e.mu.Lock()
	if e.draft.Description == v {
		e.mu.Unlock()
		return
	}
	e.draft.Description = v
	e.mu.Unlock()

	e.dirty.Set(true)
	e.validateLater(FieldDescription, func(d Draft) string { return validateDescription(d.Description) })
}

func (e *DraftEditor) SetTypology(v string) {
	e.mu.Lock()
	if e.draft.Typology == v {
		e.mu.Unlock()
		return
	}
	e.draft.Typology = v
	e.mu.Unlock()

	e.dirty.Set(true)
	e.validateLater(FieldTypology, func(d Draft) string { return validateTypology(d.Typology) })
}

// SetDates updates both range bounds. Date validation is cheap, so it runs
// immediately on every change.
func (e *DraftEditor) SetDates(start, end *time.Time) {
	e.mu.Lock()
	e.draft.StartDate = start
	e.draft.EndDate = end
	e.mu.Unlock()

	e.dirty.Set(true)
	e.setError(FieldDates, validateDates(start, end, e.today()))
}

// SetMinPrice pulls the maximum up when the new minimum exceeds it. The
// clamp is silent normalization, not an error, but it still marks the draft
// dirty.
func (e *DraftEditor) SetMinPrice(v int) {
	e.mu.Lock()
	e.draft.MinPrice = v
	if v > e.draft.MaxPrice {
		e.draft.MaxPrice = v
	}
	e.mu.Unlock()

	e.dirty.Set(true)
	e.validateLater(FieldPrice, func(d Draft) string { return validatePrice(d.MinPrice, d.MaxPrice) })
}

// SetMaxPrice is the symmetric clamp: a maximum below the current minimum
// drags the minimum down.
func (e *DraftEditor) SetMaxPrice(v int) {
	e.mu.Lock()
	e.draft.MaxPrice = v
	if v < e.draft.MinPrice {
		e.draft.MinPrice = v
	}
	e.mu.Unlock()

	e.dirty.Set(true)
	e.validateLater(FieldPrice, func(d Draft) string { return validatePrice(d.MinPrice, d.MaxPrice) })
}

func (e *DraftEditor) SetMaxParticipants(raw string) {
	e.mu.Lock()
	if e.draft.MaxParticipants == raw {
		e.mu.Unlock()
		return
	}
	e.draft.MaxParticipants = raw
	e.mu.Unlock()

	e.dirty.Set(true)
	e.validateLater(FieldParticipants, func(d Draft) string { return validateParticipants(d.MaxParticipants) })
}

func (e *DraftEditor) SetStops(stops []string) {
	e.mu.Lock()
	e.draft.Stops = append([]string(nil), stops...)
	e.mu.Unlock()

	e.dirty.Set(true)
	e.setError(FieldStops, validateStops(stops))
}

func (e *DraftEditor) AddStop(stop string) {
	e.mu.Lock()
	e.draft.Stops = append(e.draft.Stops, stop)
	stops := e.draft.Stops
	e.mu.Unlock()

	e.dirty.Set(true)
	e.setError(FieldStops, validateStops(stops))
}

func (e *DraftEditor) SetActivities(activities []string) {
	e.mu.Lock()
	e.draft.Activities = append([]string(nil), activities...)
	e.mu.Unlock()

	e.dirty.Set(true)
	e.setError(FieldActivities, validateActivities(activities))
}

func (e *DraftEditor) AddActivity(activity string) {
	e.mu.Lock()
	e.draft.Activities = append(e.draft.Activities, activity)
	activities := e.draft.Activities
	e.mu.Unlock()

	e.dirty.Set(true)
	e.setError(FieldActivities, validateActivities(activities))
}

func (e *DraftEditor) AddImage(ref string) {
	e.mu.Lock()
	e.draft.Images = append(e.draft.Images, ref)
	total := len(e.draft.Images) + len(e.draft.ExistingImageURLs)
	e.mu.Unlock()

	e.dirty.Set(true)
	e.setError(FieldImages, validateImageCount(total))
}

func (e *DraftEditor) RemoveImage(i int) {
	e.mu.Lock()
	if i < 0 || i >= len(e.draft.Images) {
		e.mu.Unlock()
		return
	}
	e.draft.Images = append(e.draft.Images[:i], e.draft.Images[i+1:]...)
	total := len(e.draft.Images) + len(e.draft.ExistingImageURLs)
	e.mu.Unlock()

	e.dirty.Set(true)
	e.setError(FieldImages, validateImageCount(total))
}

// ValidateNow runs the full synchronous check against the current draft and
// replaces the whole error map. This is the authoritative gate for save;
// the debounced per-field checks exist only for live UI feedback.
func (e *DraftEditor) ValidateNow() bool {
	d := e.Snapshot()
	m := validateDraft(d, e.today())
	e.errors.Set(m)
	return len(m) == 0
}

// Reset discards the session and starts a fresh draft for ownerID.
func (e *DraftEditor) Reset(ownerID string) {
	e.mu.Lock()
	e.draft = Draft{OwnerID: ownerID}
	e.mu.Unlock()

	e.errors.Set(map[Field]string{})
	e.dirty.Set(false)
}

// LoadProposal fills the draft from an existing proposal for editing.
func (e *DraftEditor) LoadProposal(p core.Proposal) {
	e.load(p, p.ID, p.OwnerID)
}

// LoadDuplicate fills the draft from a source proposal but detaches it:
// no id, a new owner, ready to be saved as a new trip.
func (e *DraftEditor) LoadDuplicate(p core.Proposal, newOwnerID string) {
	e.load(p, "", newOwnerID)
}

func (e *DraftEditor) load(p core.Proposal, id, ownerID string) {
	start := p.StartDate
	end := p.EndDate

	e.mu.Lock()
	e.draft = Draft{
		ID:                id,
		Name:              p.Name,
		Description:       p.Description,
		Typology:          p.Typology,
		StartDate:         &start,
		EndDate:           &end,
		MinPrice:          p.MinPrice,
		MaxPrice:          p.MaxPrice,
		MaxParticipants:   strconv.Itoa(p.MaxParticipants),
		Stops:             append([]string(nil), p.Stops...),
		Activities:        append([]string(nil), p.Activities...),
		ExistingImageURLs: append([]string(nil), p.ImageURLs...),
		OwnerID:           ownerID,
	}
	e.mu.Unlock()

	e.errors.Set(map[Field]string{})
	e.dirty.Set(false)
}

// Close cancels pending debounced validations. The editor must not be used
// afterwards.
func (e *DraftEditor) Close() {
	e.mu.Lock()
	debouncers := make([]*Debouncer, 0, len(e.debouncers))
	for _, b := range e.debouncers {
		debouncers = append(debouncers, b)
	}
	e.mu.Unlock()

	for _, b := range debouncers {
		b.Stop()
	}
}

func (e *DraftEditor) today() time.Time {
	return core.DayStart(e.now())
}

// validateLater schedules a debounced check that reads the draft at fire
// time, so a burst of edits is validated once against the final value.
func (e *DraftEditor) validateLater(field Field, check func(Draft) string) {
	e.debouncerFor(field).Trigger(func() {
		d := e.Snapshot()
		e.setError(field, check(d))
	})
}

func (e *DraftEditor) debouncerFor(field Field) *Debouncer {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.debouncers[field]
	if !ok {
		b = NewDebouncer(e.debounce)
		e.debouncers[field] = b
	}
	return b
}

// setError updates one entry of the error map, publishing a fresh copy so
// subscribers never observe in-place mutation.
func (e *DraftEditor) setError(field Field, msg string) {
	cur := e.errors.Get()
	next := make(map[Field]string, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	if msg == "" {
		delete(next, field)
	} else {
		next[field] = msg
	}
	e.errors.Set(next)
}
