package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravec/tripmate/internal/core"
)

type fakeProfileAPI struct {
	favorites   []string
	toggleErr   error
	profileErr  error
	toggledIDs  []string
	profileHits int
}

func (f *fakeProfileAPI) Profile(ctx context.Context) (*core.Profile, error) {
	f.profileHits++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &core.Profile{ID: "u1", Favorites: f.favorites}, nil
}

func (f *fakeProfileAPI) ToggleFavorite(ctx context.Context, proposalID string) error {
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.toggledIDs = append(f.toggledIDs, proposalID)
	f.favorites = append(f.favorites, proposalID)
	return nil
}

type fakeSink struct {
	sets [][]string
}

func (f *fakeSink) SetFavorites(ids []string) {
	f.sets = append(f.sets, ids)
}

func TestFavoritesService_Refresh(t *testing.T) {
	api := &fakeProfileAPI{favorites: []string{"p1", "p2"}}
	sink := &fakeSink{}
	s := NewFavoritesService(api, sink)

	require.NoError(t, s.Refresh(context.Background()))

	require.Len(t, sink.sets, 1)
	assert.Equal(t, []string{"p1", "p2"}, sink.sets[0])
}

func TestFavoritesService_ToggleRefetchesProfile(t *testing.T) {
	api := &fakeProfileAPI{}
	sink := &fakeSink{}
	s := NewFavoritesService(api, sink)

	require.NoError(t, s.Toggle(context.Background(), "p1"))

	assert.Equal(t, []string{"p1"}, api.toggledIDs)
	assert.Equal(t, 1, api.profileHits, "toggle must be followed by a profile re-fetch")
	require.Len(t, sink.sets, 1)
	assert.Equal(t, []string{"p1"}, sink.sets[0])
}

func TestFavoritesService_ToggleFailureLeavesSinkUntouched(t *testing.T) {
	api := &fakeProfileAPI{toggleErr: errors.New("boom")}
	sink := &fakeSink{}
	s := NewFavoritesService(api, sink)

	err := s.Toggle(context.Background(), "p1")
	require.Error(t, err)
	assert.Empty(t, sink.sets)
	assert.Zero(t, api.profileHits)
}

func TestFavoritesService_RefreshFailureLeavesSinkUntouched(t *testing.T) {
	api := &fakeProfileAPI{profileErr: errors.New("boom")}
	sink := &fakeSink{}
	s := NewFavoritesService(api, sink)

	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Empty(t, sink.sets)
}
