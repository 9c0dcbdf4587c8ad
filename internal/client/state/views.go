package state

import (
	"sort"
	"strings"
	"time"

	"github.com/mkravec/tripmate/internal/core"
)

// descriptionSearchMinQuery: free-text search always matches on name, and
// on description only once the query is longer than this.
const descriptionSearchMinQuery = 3

// Views derives the consistent proposal lists consumed by the list screens.
// Every output is a pure function of the raw snapshot cells and the filter
// cells: recomputing with the same inputs yields identical ordered content,
// no matter how often or in which order the recomputations run.
type Views struct {
	userID string
	now    func() time.Time

	// Filter inputs. Each one is an independent cell; unset means
	// "matches everything".
	statusFilter   *Cell[[]core.Status]
	query          *Cell[string]
	favoritesOnly  *Cell[bool]
	favorites      *Cell[map[string]bool]
	criteria       *Cell[core.Criteria]
	filtersApplied *Cell[bool]

	// Raw inputs, owned by the subscription manager.
	allSnap   *Cell[[]core.Proposal]
	ownedSnap *Cell[[]core.Proposal]

	// Derived outputs. Never mutated directly, only replaced wholesale.
	owned          *Cell[[]core.Proposal]
	statusFiltered *Cell[[]core.Proposal]
	open           *Cell[[]core.Proposal]
	concluded      *Cell[[]core.Proposal]
	explore        *Cell[[]core.Proposal]

	unsubs []func()
}

func NewViews(userID string, mgr *SubscriptionManager) *Views {
	v := &Views{
		userID:         userID,
		now:            time.Now,
		statusFilter:   NewCell([]core.Status(nil)),
		query:          NewCell(""),
		favoritesOnly:  NewCell(false),
		favorites:      NewCell(map[string]bool{}),
		criteria:       NewCell(core.Criteria{}),
		filtersApplied: NewCell(false),
		allSnap:        mgr.Snapshot(KeyAll),
		ownedSnap:      mgr.Snapshot(KeyOwnedBy(userID)),
		owned:          NewCell([]core.Proposal(nil)),
		statusFiltered: NewCell([]core.Proposal(nil)),
		open:           NewCell([]core.Proposal(nil)),
		concluded:      NewCell([]core.Proposal(nil)),
		explore:        NewCell([]core.Proposal(nil)),
	}

	recompute := func() { v.Recompute() }
	v.unsubs = append(v.unsubs,
		v.allSnap.Subscribe(func([]core.Proposal) { recompute() }),
		v.ownedSnap.Subscribe(func([]core.Proposal) { recompute() }),
		v.statusFilter.Subscribe(func([]core.Status) { recompute() }),
		v.query.Subscribe(func(string) { recompute() }),
		v.favoritesOnly.Subscribe(func(bool) { recompute() }),
		v.favorites.Subscribe(func(map[string]bool) { recompute() }),
		v.criteria.Subscribe(func(core.Criteria) { recompute() }),
		v.filtersApplied.Subscribe(func(bool) { recompute() }),
	)

	v.Recompute()
	return v
}

// Owned is the user's proposals, start date descending.
func (v *Views) Owned() *Cell[[]core.Proposal] { return v.owned }

// StatusFilteredOwned is Owned narrowed by the active status filter.
func (v *Views) StatusFilteredOwned() *Cell[[]core.Proposal] { return v.statusFiltered }

// Open is the not-yet-concluded part of StatusFilteredOwned.
func (v *Views) Open() *Cell[[]core.Proposal] { return v.open }

// Concluded is the user's concluded proposals.
func (v *Views) Concluded() *Cell[[]core.Proposal] { return v.concluded }

// Explore is the discovery list over everyone else's upcoming proposals.
func (v *Views) Explore() *Cell[[]core.Proposal] { return v.explore }

func (v *Views) SetStatusFilter(statuses []core.Status) {
	v.statusFilter.Set(append([]core.Status(nil), statuses...))
}

func (v *Views) SetQuery(q string) { v.query.Set(q) }

func (v *Views) SetFavoritesOnly(on bool) { v.favoritesOnly.Set(on) }

// SetFavorites replaces the favorite-id set, normally after a profile
// re-fetch.
func (v *Views) SetFavorites(ids []string) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	v.favorites.Set(set)
}

// ApplyFilters activates the advanced criteria. Explore only honors them
// once they have been explicitly applied.
func (v *Views) ApplyFilters(c core.Criteria) {
	v.criteria.Set(c)
	v.filtersApplied.Set(true)
}

// ClearFilters deactivates the advanced criteria.
func (v *Views) ClearFilters() {
	v.criteria.Set(core.Criteria{})
	v.filtersApplied.Set(false)
}

// Recompute re-derives every output from the current inputs. Invoked
// automatically whenever any input cell changes; calling it again by hand
// only forces re-evaluation, it can never alter the result.
func (v *Views) Recompute() {
	ownedRaw := v.ownedSnap.Get()
	allRaw := v.allSnap.Get()
	statuses := v.statusFilter.Get()
	query := v.query.Get()
	favOnly := v.favoritesOnly.Get()
	favorites := v.favorites.Get()
	criteria := v.criteria.Get()
	applied := v.filtersApplied.Get()
	today := core.DayStart(v.now())

	owned := sortByStartDesc(filter(ownedRaw, func(p core.Proposal) bool {
		return p.OwnerID == v.userID
	}))

	statusFiltered := filter(owned, func(p core.Proposal) bool {
		return statusMatches(statuses, p.Status)
	})

	open := filter(statusFiltered, func(p core.Proposal) bool {
		return !p.Status.Concluded()
	})

	// The concluded shelf ignores the status filter: a concluded trip
	// stays visible there regardless of which active statuses are picked.
	concluded := filter(owned, func(p core.Proposal) bool {
		return p.Status.Concluded()
	})

	explore := computeExplore(allRaw, v.userID, today, query, favOnly, favorites, criteria, applied)

	v.owned.Set(owned)
	v.statusFiltered.Set(statusFiltered)
	v.open.Set(open)
	v.concluded.Set(concluded)
	v.explore.Set(explore)
}

// Close detaches the combinator from its input cells.
func (v *Views) Close() {
	for _, unsub := range v.unsubs {
		unsub()
	}
	v.unsubs = nil
}

func computeExplore(
	all []core.Proposal,
	userID string,
	today time.Time,
	query string,
	favOnly bool,
	favorites map[string]bool,
	criteria core.Criteria,
	applied bool,
) []core.Proposal {
	result := filter(all, func(p core.Proposal) bool {
		if p.OwnerID == userID || p.Status.Concluded() {
			return false
		}
		return !core.DayStart(p.StartDate).Before(today)
	})

	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		searchDescription := len([]rune(q)) > descriptionSearchMinQuery
		result = filter(result, func(p core.Proposal) bool {
			if strings.Contains(strings.ToLower(p.Name), q) {
				return true
			}
			return searchDescription && strings.Contains(strings.ToLower(p.Description), q)
		})
	}

	if favOnly {
		result = filter(result, func(p core.Proposal) bool {
			return favorites[p.ID]
		})
	}

	if applied {
		result = filter(result, criteria.Matches)
	}

	return sortByStartAsc(result)
}

func statusMatches(active []core.Status, s core.Status) bool {
	if len(active) == 0 {
		return true
	}
	for _, a := range active {
		if a == s {
			return true
		}
	}
	return false
}

func filter(in []core.Proposal, keep func(core.Proposal) bool) []core.Proposal {
	out := make([]core.Proposal, 0, len(in))
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Ties on start date break by id so equal inputs always produce
// byte-identical orderings.

func sortByStartDesc(in []core.Proposal) []core.Proposal {
	out := append([]core.Proposal(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortByStartAsc(in []core.Proposal) []core.Proposal {
	out := append([]core.Proposal(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
