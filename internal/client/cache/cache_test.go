package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
)

func setupCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_SaveAndLoad(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	snap := []core.Proposal{
		{ID: "p1", Name: "Alps", StartDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "p2", Name: "Coast"},
	}
	require.NoError(t, c.Save(ctx, "all", snap))

	got, err := c.Load(ctx, "all")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alps", got[0].Name)
	assert.True(t, got[0].StartDate.Equal(snap[0].StartDate))
}

func TestCache_SaveReplacesExisting(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "all", []core.Proposal{{ID: "old"}}))
	require.NoError(t, c.Save(ctx, "all", []core.Proposal{{ID: "new"}}))

	got, err := c.Load(ctx, "all")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestCache_LoadMissingKey(t *testing.T) {
	c := setupCache(t)

	_, err := c.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCache_KeysAreIndependent(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "all", []core.Proposal{{ID: "a"}}))
	require.NoError(t, c.Save(ctx, "owned-by:u1", []core.Proposal{{ID: "b"}}))

	got, err := c.Load(ctx, "owned-by:u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestCache_DeleteByKey(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "all", []core.Proposal{{ID: "a"}}))
	require.NoError(t, c.DeleteByKey(ctx, "all"))

	_, err := c.Load(ctx, "all")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, c.DeleteByKey(ctx, "all"))
}
