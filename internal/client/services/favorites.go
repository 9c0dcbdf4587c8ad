// Package services holds client-side application services that sit between
// the transport layer and the reactive state core.
package services

import (
	"context"
	"fmt"

	"github.com/mkravec/tripmate/internal/core"
)

// ProfileAPI is the slice of the remote store the favorites service needs.
type ProfileAPI interface {
	Profile(ctx context.Context) (*core.Profile, error)
	ToggleFavorite(ctx context.Context, proposalID string) error
}

// FavoritesSink receives the authoritative favorite-id set after every
// change. Implemented by the state views.
type FavoritesSink interface {
	SetFavorites(ids []string)
}

// FavoritesService toggles favorites on the server and then re-fetches the
// profile, so the local set always mirrors what the server committed rather
// than an optimistic guess.
type FavoritesService struct {
	api  ProfileAPI
	sink FavoritesSink
}

func NewFavoritesService(api ProfileAPI, sink FavoritesSink) *FavoritesService {
	return &FavoritesService{api: api, sink: sink}
}

// Refresh pulls the profile and pushes the favorite set into the sink.
func (s *FavoritesService) Refresh(ctx context.Context) error {
	profile, err := s.api.Profile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}
	s.sink.SetFavorites(profile.Favorites)
	return nil
}

// Toggle flips the favorite state of proposalID and refreshes. When the
// toggle succeeds but the refresh fails, the local set is left untouched;
// the next successful refresh converges it.
func (s *FavoritesService) Toggle(ctx context.Context, proposalID string) error {
	if err := s.api.ToggleFavorite(ctx, proposalID); err != nil {
		return fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return s.Refresh(ctx)
}
