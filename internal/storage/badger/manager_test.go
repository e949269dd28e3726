package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestStateStorage_RoundTrip(t *testing.T) {
	state := newTestManager(t).StateStorage()
	ctx := context.Background()

	_, err := state.Get(ctx, "current_wallpaper_key")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	require.NoError(t, state.SetMany(ctx, map[string]string{
		"Current_Wallpaper_Key":  "1031",
		"current_wallpaper_path": "/cache/wallpaper_1031.jpg",
	}))
	value, err := state.Get(ctx, "current_wallpaper_key")
	require.NoError(t, err)
	assert.Equal(t, "1031", value, "keys are case-insensitive")

	require.NoError(t, state.SetMany(ctx, map[string]string{"current_wallpaper_key": "1032"}))
	all, err := state.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"current_wallpaper_key":  "1032",
		"current_wallpaper_path": "/cache/wallpaper_1031.jpg",
	}, all)

	require.NoError(t, state.Delete(ctx, "current_wallpaper_key"))
	assert.ErrorIs(t, state.Delete(ctx, "current_wallpaper_key"), interfaces.ErrKeyNotFound)
}

func TestStateStorage_RejectsEmptyKeyAtomically(t *testing.T) {
	state := newTestManager(t).StateStorage()
	ctx := context.Background()

	err := state.SetMany(ctx, map[string]string{"current_wallpaper_key": "1031", "  ": "x"})
	assert.Error(t, err)

	all, err := state.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "nothing written when any key is invalid")

	assert.NoError(t, state.SetMany(ctx, nil))
}

func TestCatalogStorage_ReplaceAllAndLoad(t *testing.T) {
	store := newTestManager(t).CatalogStorage()
	ctx := context.Background()

	empty, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := []models.CatalogItem{
		{ID: "2041", DisplayName: "Rurino"},
		{ID: "1031", DisplayName: "Kaho"},
		{ID: "1032", DisplayName: "Sayaka"},
	}
	require.NoError(t, store.ReplaceAll(ctx, first))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, []string{"2041", "1031", "1032"}, []string{loaded[0].ID, loaded[1].ID, loaded[2].ID}, "backend order preserved")

	require.NoError(t, store.ReplaceAll(ctx, first[1:2]))
	loaded, err = store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "1031", loaded[0].ID)
}

func TestNewManager_ResetOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	m, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, m.StateStorage().SetMany(ctx, map[string]string{"k": "v"}))
	require.NoError(t, m.Close())

	m, err = NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path, ResetOnStartup: true})
	require.NoError(t, err)
	defer m.Close()

	_, err = m.StateStorage().Get(ctx, "k")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}
