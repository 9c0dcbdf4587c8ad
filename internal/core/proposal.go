// Package core defines the travel proposal domain model shared by the
// client state core and the server.
package core

import "time"

// Status is the lifecycle state of a proposal.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusFull      Status = "full"
	StatusConcluded Status = "concluded"
)

// Concluded reports whether s is the terminal lifecycle state.
func (s Status) Concluded() bool { return s == StatusConcluded }

// Proposal is the committed, server-of-record representation of a group
// trip. The client never mutates it in place; every change goes through an
// explicit create/update/delete operation and comes back through the
// subscription stream.
type Proposal struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Typology    string    `json:"typology"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`

	// Price bounds in whole currency units, MinPrice <= MaxPrice.
	MinPrice int `json:"min_price"`
	MaxPrice int `json:"max_price"`

	MaxParticipants int      `json:"max_participants"`
	Stops           []string `json:"stops"`
	Activities      []string `json:"activities"`

	// ImageURLs are the stored object URLs, distinct from any local image
	// references still pending upload on the client.
	ImageURLs []string `json:"image_urls"`

	// Server-owned counters.
	Participants        int `json:"participants"`
	PendingApplications int `json:"pending_applications"`

	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DurationDays is the trip length in whole days, inclusive of both bounds'
// dates. A trip starting and ending on the same day lasts one day.
func (p Proposal) DurationDays() int {
	start := DayStart(p.StartDate)
	end := DayStart(p.EndDate)
	return int(end.Sub(start).Hours()/24) + 1
}

// DayStart truncates t to local midnight. Date comparisons in validation
// and filtering are day-granular.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
