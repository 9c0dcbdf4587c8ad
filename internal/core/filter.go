package core

import (
	"strings"
	"time"
)

// Criteria is the set of advanced explore filters. Every field is optional;
// the zero value matches everything. Active predicates combine with AND.
type Criteria struct {
	Typologies      []string   `json:"typologies,omitempty"`
	Destination     string     `json:"destination,omitempty"`
	MinPrice        *int       `json:"min_price,omitempty"`
	MaxPrice        *int       `json:"max_price,omitempty"`
	StartAfter      *time.Time `json:"start_after,omitempty"`
	EndBefore       *time.Time `json:"end_before,omitempty"`
	MaxDurationDays *int       `json:"max_duration_days,omitempty"`
	MaxGroupSize    *int       `json:"max_group_size,omitempty"`
}

// IsZero reports whether no predicate is set.
func (c Criteria) IsZero() bool {
	return len(c.Typologies) == 0 &&
		c.Destination == "" &&
		c.MinPrice == nil &&
		c.MaxPrice == nil &&
		c.StartAfter == nil &&
		c.EndBefore == nil &&
		c.MaxDurationDays == nil &&
		c.MaxGroupSize == nil
}

// Matches reports whether p passes every active predicate.
func (c Criteria) Matches(p Proposal) bool {
	if len(c.Typologies) > 0 {
		found := false
		for _, t := range c.Typologies {
			if strings.EqualFold(t, p.Typology) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if c.Destination != "" {
		dest := strings.ToLower(c.Destination)
		found := false
		for _, stop := range p.Stops {
			if strings.Contains(strings.ToLower(stop), dest) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Price predicate: the proposal's price range must intersect the
	// requested one.
	if c.MinPrice != nil && p.MaxPrice < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && p.MinPrice > *c.MaxPrice {
		return false
	}

	if c.StartAfter != nil && DayStart(p.StartDate).Before(DayStart(*c.StartAfter)) {
		return false
	}
	if c.EndBefore != nil && DayStart(p.EndDate).After(DayStart(*c.EndBefore)) {
		return false
	}

	if c.MaxDurationDays != nil && p.DurationDays() > *c.MaxDurationDays {
		return false
	}
	if c.MaxGroupSize != nil && p.MaxParticipants > *c.MaxGroupSize {
		return false
	}

	return true
}
