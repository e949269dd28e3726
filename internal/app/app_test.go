package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
	"github.com/ternarybob/kabegami/internal/services/events"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/card-illustrations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"id": 1031, "name": "Kaho", "assets": {"images": {"full": true}}},
			{"id": 1032, "name": null, "assets": {"images": {"full": "true"}}},
			{"id": 1033, "name": "No image", "assets": {"images": {"full": false}}}
		]`)
	})
	mux.HandleFunc("/api/card-illustrations/image/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestConfig(t *testing.T, baseURL string) *common.Config {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Catalog.BaseURL = baseURL
	cfg.Catalog.RateLimit = 0
	cfg.Wallpaper.Disabled = true
	common.ApplyFlagOverrides(cfg, 0, "", t.TempDir())
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestApp_StartRotatesOnStartup(t *testing.T) {
	backend := newBackend(t)
	cfg := newTestConfig(t, backend.URL)

	application, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	require.NoError(t, application.Start(context.Background()))

	assert.Len(t, application.CatalogService.Current(), 2)
	assert.True(t, application.SchedulerService.IsRunning())

	entries := application.History.All()
	require.Len(t, entries, 1)
	assert.Equal(t, models.OutcomeWallpaperNotSupported, entries[0].Result)

	_, err = os.Stat(filepath.Join(cfg.Paths.Cache, entries[0].FileName))
	assert.NoError(t, err, "the image is cached even when no setter is available")

	_, err = os.Stat(cfg.Paths.Settings)
	assert.NoError(t, err, "settings file is seeded on first run")
}

func TestApp_CatalogSurvivesRestartOffline(t *testing.T) {
	backend := newBackend(t)
	cfg := newTestConfig(t, backend.URL)
	cfg.Rotation.RotateOnAppStart = false

	first, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	require.NoError(t, first.Start(context.Background()))
	require.Len(t, first.CatalogService.Current(), 2)
	require.NoError(t, first.Close())

	backend.Close()

	second, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Start(context.Background()))

	assert.Len(t, second.CatalogService.Current(), 2, "snapshot restored from badger")
}

func TestApp_StateRecorderStoresCurrentWallpaper(t *testing.T) {
	backend := newBackend(t)
	cfg := newTestConfig(t, backend.URL)
	cfg.Rotation.RotateOnAppStart = false

	application, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	err = application.EventService.PublishSync(context.Background(), interfaces.Event{
		Type: interfaces.EventWallpaperChanged,
		Payload: models.WallpaperChanged{
			Item:      models.CatalogItem{ID: "1031"},
			LocalPath: "/tmp/wallpaper_1031.jpg",
			Reason:    models.ReasonManual,
		},
	})
	require.NoError(t, err)

	value, err := application.StorageManager.StateStorage().Get(context.Background(), events.KeyCurrentWallpaperKey)
	require.NoError(t, err)
	assert.Equal(t, "1031", value)
}

func TestApp_SettingsChangeReArmsTimer(t *testing.T) {
	backend := newBackend(t)
	cfg := newTestConfig(t, backend.URL)
	cfg.Rotation.RotateOnAppStart = false

	application, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()
	require.NoError(t, application.Start(context.Background()))

	next := application.SettingsService.Current()
	next.RotateIntervalMinutes = 42
	_, err = application.SettingsService.Update(next)
	require.NoError(t, err)

	assert.Equal(t, 42, application.SchedulerService.Status().IntervalMinutes)
}
