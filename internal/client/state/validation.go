package state

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mkravec/tripmate/internal/core"
)

// Validation rules are pure functions from field values to a user-facing
// error message, "" meaning valid. They never touch the network.

const minTextLen = 2

func validateName(name string) string {
	t := strings.TrimSpace(name)
	if t == "" {
		return "Name cannot be empty"
	}
	if utf8.RuneCountInString(t) < minTextLen {
		return "Name is too short"
	}
	return ""
}

func validateDescription(description string) string {
	t := strings.TrimSpace(description)
	if t == "" {
		return "Description cannot be empty"
	}
	if utf8.RuneCountInString(t) < minTextLen {
		return "Description is too short"
	}
	return ""
}

func validateTypology(typology string) string {
	if strings.TrimSpace(typology) == "" {
		return "Typology cannot be empty"
	}
	return ""
}

// validateDates checks the range against "today" as of validation time, not
// as of when the draft was opened.
func validateDates(start, end *time.Time, today time.Time) string {
	if start == nil || end == nil {
		return "Both start and end dates must be set"
	}
	s := core.DayStart(*start)
	if s.After(core.DayStart(*end)) {
		return "Start date must not be after end date"
	}
	if s.Before(today) {
		return "Start date cannot be in the past"
	}
	return ""
}

// validatePrice reports the single remaining price error state. Setters
// clamp the bounds symmetrically before this runs, so it can only fire on
// drafts loaded with inconsistent data.
func validatePrice(min, max int) string {
	if min > max {
		return "Minimum price cannot exceed maximum price"
	}
	return ""
}

func validateParticipants(raw string) string {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return "Participants must be a positive whole number"
	}
	return ""
}

func validateStops(stops []string) string {
	if len(stops) == 0 {
		return "Add at least one itinerary stop"
	}
	return ""
}

func validateActivities(activities []string) string {
	if len(activities) == 0 {
		return "Add at least one suggested activity"
	}
	return ""
}

func validateImageCount(total int) string {
	if total == 0 {
		return "Add at least one image"
	}
	return ""
}

// validateDraft runs every rule and returns the populated error map.
// Aggregate validity is the map being empty.
func validateDraft(d Draft, today time.Time) map[Field]string {
	m := make(map[Field]string)

	set := func(f Field, msg string) {
		if msg != "" {
			m[f] = msg
		}
	}

	set(FieldName, validateName(d.Name))
	set(FieldDescription, validateDescription(d.Description))
	set(FieldTypology, validateTypology(d.Typology))
	set(FieldDates, validateDates(d.StartDate, d.EndDate, today))
	set(FieldPrice, validatePrice(d.MinPrice, d.MaxPrice))
	set(FieldParticipants, validateParticipants(d.MaxParticipants))
	set(FieldStops, validateStops(d.Stops))
	set(FieldActivities, validateActivities(d.Activities))
	set(FieldImages, validateImageCount(len(d.Images)+len(d.ExistingImageURLs)))

	return m
}
