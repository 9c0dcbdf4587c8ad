package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mkravec/tripmate/internal/core"
)

func (a *App) requireLogin() bool {
	if !a.isLoggedIn() {
		fmt.Println("Please login first.")
		return false
	}
	return true
}

// List prints the user's own proposals: open trips first, then the
// concluded shelf.
func (a *App) List(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	views := a.controller.Views()

	fmt.Println("Your trips:")
	printProposals(views.Open().Get(), nil)

	if concluded := views.Concluded().Get(); len(concluded) > 0 {
		fmt.Println("Concluded:")
		printProposals(concluded, nil)
	}
	return nil
}

// Explore prints the discovery list, marking favorites with a star.
func (a *App) Explore(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}

	profile, err := a.store.Profile(ctx)
	var favorites map[string]bool
	if err == nil {
		favorites = profile.FavoriteSet()
	}

	fmt.Println("Explore:")
	printProposals(a.controller.Views().Explore().Get(), favorites)
	return nil
}

// Show resolves one proposal through the detail resolver and prints it.
func (a *App) Show(ctx context.Context, id string) error {
	if !a.requireLogin() {
		return nil
	}
	detail := a.controller.Detail()

	done := make(chan *core.Proposal, 1)
	unsub := detail.Resolved().Subscribe(func(p *core.Proposal) {
		if p != nil && p.ID == id {
			select {
			case done <- p:
			default:
			}
		}
	})
	defer unsub()

	detail.SetTarget(id)

	if p := detail.Resolved().Get(); p != nil && p.ID == id {
		printDetail(p)
		return nil
	}

	select {
	case p := <-done:
		printDetail(p)
	case <-time.After(5 * time.Second):
		fmt.Println("Proposal not found (yet); try again once the connection catches up.")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func printProposals(ps []core.Proposal, favorites map[string]bool) {
	if len(ps) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, p := range ps {
		star := " "
		if favorites[p.ID] {
			star = "*"
		}
		fmt.Printf("  %s %-12s %-24s %s  %s - %s\n",
			star, p.ID, p.Name, p.Status,
			p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"))
	}
}

func printDetail(p *core.Proposal) {
	fmt.Printf("%s (%s)\n", p.Name, p.ID)
	fmt.Printf("  Status:       %s\n", p.Status)
	fmt.Printf("  Typology:     %s\n", p.Typology)
	fmt.Printf("  Dates:        %s - %s\n", p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"))
	fmt.Printf("  Price:        %d - %d\n", p.MinPrice, p.MaxPrice)
	fmt.Printf("  Participants: %d/%d (%d pending)\n", p.Participants, p.MaxParticipants, p.PendingApplications)
	fmt.Printf("  Stops:        %v\n", p.Stops)
	fmt.Printf("  Activities:   %v\n", p.Activities)
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
}
