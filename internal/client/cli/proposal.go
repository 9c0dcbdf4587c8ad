package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mkravec/tripmate/internal/client/state"
)

const dateLayout = "2006-01-02"

// NewProposal walks through the draft fields interactively and saves.
func (a *App) NewProposal(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	a.controller.ResetDraft(a.userID)

	if err := a.fillDraft(); err != nil {
		return err
	}
	return a.saveDraft(ctx, "")
}

// Edit loads an existing proposal into the draft and re-prompts each field,
// keeping the current value on empty input.
func (a *App) Edit(ctx context.Context, id string) error {
	if !a.requireLogin() {
		return nil
	}
	if err := a.controller.LoadForEdit(ctx, id); err != nil {
		fmt.Println("Failed to load proposal:", err)
		return err
	}

	if err := a.fillDraft(); err != nil {
		return err
	}
	return a.saveDraft(ctx, id)
}

// Duplicate copies an existing proposal into a fresh draft owned by the
// current user and saves it as a new trip.
func (a *App) Duplicate(ctx context.Context, id string) error {
	if !a.requireLogin() {
		return nil
	}
	if err := a.controller.LoadForDuplicate(ctx, id, a.userID); err != nil {
		fmt.Println("Failed to load proposal:", err)
		return err
	}

	if err := a.fillDraft(); err != nil {
		return err
	}
	return a.saveDraft(ctx, "")
}

func (a *App) Delete(ctx context.Context, id string) error {
	if !a.requireLogin() {
		return nil
	}
	if err := a.controller.Delete(ctx, id); err != nil {
		fmt.Println("Delete failed:", err)
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

// fillDraft prompts for every field. Empty input keeps the draft's current
// value, which makes the same flow serve create, edit and duplicate.
func (a *App) fillDraft() error {
	editor := a.controller.Editor()
	d := editor.Snapshot()

	if v, err := a.promptDefault("Name", d.Name); err != nil {
		return err
	} else if v != "" {
		editor.SetName(v)
	}

	if v, err := a.promptDefault("Description", d.Description); err != nil {
		return err
	} else if v != "" {
		editor.SetDescription(v)
	}

	if v, err := a.promptDefault("Typology", d.Typology); err != nil {
		return err
	} else if v != "" {
		editor.SetTypology(v)
	}

	if err := a.promptDates(editor, d); err != nil {
		return err
	}

	if v, err := a.promptDefault("Minimum price", strconv.Itoa(d.MinPrice)); err != nil {
		return err
	} else if n, convErr := strconv.Atoi(v); convErr == nil {
		editor.SetMinPrice(n)
	}

	if v, err := a.promptDefault("Maximum price", strconv.Itoa(d.MaxPrice)); err != nil {
		return err
	} else if n, convErr := strconv.Atoi(v); convErr == nil {
		editor.SetMaxPrice(n)
	}

	if v, err := a.promptDefault("Max participants", d.MaxParticipants); err != nil {
		return err
	} else if v != "" {
		editor.SetMaxParticipants(v)
	}

	if stops, err := GetList(a.reader, "Stops", os.Stdout); err != nil {
		return err
	} else if len(stops) > 0 {
		editor.SetStops(stops)
	}

	if activities, err := GetList(a.reader, "Activities", os.Stdout); err != nil {
		return err
	} else if len(activities) > 0 {
		editor.SetActivities(activities)
	}

	if images, err := GetList(a.reader, "Image files", os.Stdout); err != nil {
		return err
	} else {
		for _, img := range images {
			editor.AddImage(img)
		}
	}

	return nil
}

func (a *App) promptDates(editor *state.DraftEditor, d state.Draft) error {
	cur := ""
	if d.StartDate != nil && d.EndDate != nil {
		cur = d.StartDate.Format(dateLayout) + " " + d.EndDate.Format(dateLayout)
	}
	v, err := a.promptDefault("Dates (start end, "+dateLayout+")", cur)
	if err != nil || v == "" || v == cur {
		return err
	}

	var startRaw, endRaw string
	if _, err := fmt.Sscanf(v, "%s %s", &startRaw, &endRaw); err != nil {
		fmt.Println("Expected two dates, keeping current value.")
		return nil
	}
	start, err1 := time.Parse(dateLayout, startRaw)
	end, err2 := time.Parse(dateLayout, endRaw)
	if err1 != nil || err2 != nil {
		fmt.Println("Unparseable dates, keeping current value.")
		return nil
	}
	editor.SetDates(&start, &end)
	return nil
}

func (a *App) promptDefault(label, current string) (string, error) {
	prompt := label
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]", label, current)
	}
	return GetSimpleText(a.reader, prompt, os.Stdout)
}

// saveDraft validates and commits: Update when id is set, Create otherwise.
// Validation failures print the per-field messages and keep the draft.
func (a *App) saveDraft(ctx context.Context, id string) error {
	var err error
	if id == "" {
		err = a.controller.Save(ctx)
	} else {
		err = a.controller.Update(ctx, id)
	}

	if err != nil {
		errs := a.controller.Editor().Errors().Get()
		if len(errs) > 0 {
			fmt.Println("Cannot save yet:")
			for field, msg := range errs {
				fmt.Printf("  %-14s %s\n", field+":", msg)
			}
		} else {
			fmt.Println("Save failed:", err)
		}
		return err
	}

	fmt.Println("Saved.")
	return nil
}
