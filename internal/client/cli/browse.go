package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/mkravec/tripmate/internal/core"
)

// Favorite toggles a proposal's favorite flag and prints the explore list
// with the refreshed set.
func (a *App) Favorite(ctx context.Context, id string) error {
	if !a.requireLogin() {
		return nil
	}
	if err := a.favorites.Toggle(ctx, id); err != nil {
		fmt.Println("Toggle failed:", err)
		return err
	}
	fmt.Println("Done.")
	return nil
}

// Search sets the explore free-text query and prints the result. An empty
// query clears the search.
func (a *App) Search(ctx context.Context, query string) error {
	if !a.requireLogin() {
		return nil
	}
	a.controller.Views().SetQuery(query)
	return a.Explore(ctx)
}

// Filter prompts for the advanced explore criteria. Entering nothing at all
// clears any active filters.
func (a *App) Filter(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}

	var c core.Criteria

	if v, err := GetSimpleText(a.reader, "Destination (empty to skip)", os.Stdout); err != nil {
		return err
	} else {
		c.Destination = v
	}

	if v, err := GetSimpleText(a.reader, "Max budget (empty to skip)", os.Stdout); err != nil {
		return err
	} else if n, convErr := strconv.Atoi(v); convErr == nil {
		c.MaxPrice = &n
	}

	if v, err := GetSimpleText(a.reader, "Max group size (empty to skip)", os.Stdout); err != nil {
		return err
	} else if n, convErr := strconv.Atoi(v); convErr == nil {
		c.MaxGroupSize = &n
	}

	if v, err := GetSimpleText(a.reader, "Max duration in days (empty to skip)", os.Stdout); err != nil {
		return err
	} else if n, convErr := strconv.Atoi(v); convErr == nil {
		c.MaxDurationDays = &n
	}

	views := a.controller.Views()
	if c.IsZero() {
		views.ClearFilters()
		fmt.Println("Filters cleared.")
	} else {
		views.ApplyFilters(c)
		fmt.Println("Filters applied.")
	}
	return a.Explore(ctx)
}
