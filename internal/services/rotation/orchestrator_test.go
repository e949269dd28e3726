package rotation

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
	"github.com/ternarybob/kabegami/internal/services/cache"
	"github.com/ternarybob/kabegami/internal/services/favorites"
	"github.com/ternarybob/kabegami/internal/services/history"
	"github.com/ternarybob/kabegami/internal/services/selector"
)

type fakeCatalog struct {
	items []models.CatalogItem
}

func (f *fakeCatalog) Refresh(context.Context) ([]models.CatalogItem, error) { return f.items, nil }
func (f *fakeCatalog) Current() []models.CatalogItem                         { return f.items }
func (f *fakeCatalog) Search(string) []models.CatalogItem                    { return f.items }
func (f *fakeCatalog) Get(key string) (models.CatalogItem, bool) {
	for _, item := range f.items {
		if item.ID == key {
			return item, true
		}
	}
	return models.CatalogItem{}, false
}

type fakeSetter struct {
	calls int32
	fail  string
}

func (f *fakeSetter) Name() string { return "fake" }
func (f *fakeSetter) TrySet(string) (bool, string) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail != "" {
		return false, f.fail
	}
	return true, ""
}

type fakeEvents struct {
	mu        sync.Mutex
	published []interfaces.Event
	syncErr   error
	panicSync bool
}

func (f *fakeEvents) Subscribe(interfaces.EventType, interfaces.EventHandler) error { return nil }
func (f *fakeEvents) Publish(_ context.Context, e interfaces.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, e)
	return nil
}
func (f *fakeEvents) PublishSync(_ context.Context, e interfaces.Event) error {
	if f.panicSync {
		panic("observer exploded")
	}
	f.mu.Lock()
	f.published = append(f.published, e)
	f.mu.Unlock()
	return f.syncErr
}
func (f *fakeEvents) Close() error { return nil }

func (f *fakeEvents) types() []interfaces.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]interfaces.EventType, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	orch    *Orchestrator
	catalog *fakeCatalog
	history *history.Ledger
	favs    *favorites.Store
	setter  *fakeSetter
	events  *fakeEvents
	fetches *int32
	cache   *cache.Manager
}

func newFixture(t *testing.T, withSetter bool, ids ...string) *fixture {
	t.Helper()
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		if strings.Contains(r.URL.Path, "broken") {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("image:" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	logger := arbor.NewLogger()

	cm, err := cache.NewManager(filepath.Join(dir, "cache"), logger)
	require.NoError(t, err)
	ledger, err := history.NewLedger(filepath.Join(dir, "history.json"), cm.Root(), logger)
	require.NoError(t, err)
	favs := favorites.NewStore(filepath.Join(dir, "favorites.json"), logger)

	items := make([]models.CatalogItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.CatalogItem{ID: id, DisplayName: id, FullImageURL: srv.URL + "/img/" + id})
	}
	cat := &fakeCatalog{items: items}

	f := &fixture{catalog: cat, history: ledger, favs: favs, events: &fakeEvents{}, fetches: &fetches, cache: cm}
	var setter interfaces.WallpaperSetter
	if withSetter {
		f.setter = &fakeSetter{}
		setter = f.setter
	}

	f.orch = NewOrchestrator(cat, selector.NewWithSource(rand.NewSource(1)), cm, ledger, favs, setter, f.events, logger)
	return f
}

func defaultPrefs() models.RotationPreferences {
	return models.Settings{
		RecentExcludeCount: 30,
		PreferFavorites:    true,
		ExcludeBlocked:     true,
		CacheMaxMB:         2048,
		HistoryMaxEntries:  100,
	}.Preferences()
}

func TestApplyNext_Success(t *testing.T) {
	f := newFixture(t, true, "1011", "1021")

	result := f.orch.ApplyNext(context.Background(), defaultPrefs())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, models.OutcomeOK, result.Outcome)
	assert.Equal(t, models.ReasonAuto, result.Reason)
	assert.NotEmpty(t, result.AttemptID)
	require.NotNil(t, result.Item)
	assert.Contains(t, []string{"1011", "1021"}, result.Item.ID)
	assert.FileExists(t, result.LocalPath)

	entries := f.history.All()
	require.Len(t, entries, 1)
	assert.Equal(t, models.OutcomeOK, entries[0].Result)
	assert.Equal(t, "wallpaper_"+result.Item.ID+".jpg", entries[0].FileName)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.setter.calls))
	assert.Equal(t, []interfaces.EventType{interfaces.EventWallpaperChanged}, f.events.types())
}

func TestApplyNext_NoCandidates(t *testing.T) {
	f := newFixture(t, true)

	result := f.orch.ApplyNext(context.Background(), defaultPrefs())
	assert.False(t, result.Success)
	assert.Equal(t, models.OutcomeNoCandidates, result.Outcome)
	assert.Empty(t, f.history.All())
	assert.Empty(t, f.events.types())
}

func TestApplyNext_NoEligibleWhenRecent(t *testing.T) {
	f := newFixture(t, true, "X")
	require.NoError(t, f.history.Append(models.HistoryEntry{Key: "X", Result: models.OutcomeOK}))

	prefs := defaultPrefs()
	prefs.RecentExcludeCount = 1
	result := f.orch.ApplyNext(context.Background(), prefs)
	assert.Equal(t, models.OutcomeNoEligibleCandidates, result.Outcome)
	assert.Len(t, f.history.All(), 1, "no entry appended")
	assert.Equal(t, int32(0), atomic.LoadInt32(f.fetches))
}

func TestApplyItem_DownloadFailed(t *testing.T) {
	f := newFixture(t, true, "broken")

	result := f.orch.ApplyNext(context.Background(), defaultPrefs())
	assert.Equal(t, models.OutcomeDownloadFailed, result.Outcome)
	assert.NotEmpty(t, result.Error)

	entries := f.history.All()
	require.Len(t, entries, 1)
	assert.Equal(t, models.OutcomeDownloadFailed, entries[0].Result)
	assert.Empty(t, entries[0].FileName)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.setter.calls), "setter never called")
	assert.Equal(t, []interfaces.EventType{interfaces.EventRotationFailed}, f.events.types())
}

func TestApplyItem_SetterUnavailable(t *testing.T) {
	f := newFixture(t, false, "1011")

	result := f.orch.ApplyNext(context.Background(), defaultPrefs())
	assert.Equal(t, models.OutcomeWallpaperNotSupported, result.Outcome)
	assert.FileExists(t, result.LocalPath, "file stays cached")

	entries := f.history.All()
	require.Len(t, entries, 1)
	assert.Equal(t, models.OutcomeWallpaperNotSupported, entries[0].Result)
	assert.NotContains(t, f.events.types(), interfaces.EventWallpaperChanged)
	assert.False(t, f.orch.SetterAvailable())
	assert.Equal(t, "unavailable", f.orch.SetterName())
}

func TestApplyItem_SetterFailed(t *testing.T) {
	f := newFixture(t, true, "1011")
	f.setter.fail = "access denied"

	result := f.orch.ApplyItem(context.Background(), f.catalog.items[0], defaultPrefs(), models.ReasonManual)
	assert.Equal(t, models.OutcomeSetWallpaperFailed, result.Outcome)
	assert.Equal(t, "access denied", result.Error)
	assert.Equal(t, models.ReasonManual, result.Reason)
	assert.Equal(t, models.OutcomeSetWallpaperFailed, f.history.All()[0].Result)
}

func TestApplyItem_InvalidKey(t *testing.T) {
	f := newFixture(t, true)

	result := f.orch.ApplyItem(context.Background(), models.CatalogItem{ID: ""}, defaultPrefs(), models.ReasonManual)
	assert.Equal(t, models.OutcomeInvalidKey, result.Outcome)
	require.Len(t, f.history.All(), 1)
	assert.Equal(t, models.OutcomeInvalidKey, f.history.All()[0].Result)
}

func TestApplyItem_ObserverFailureStillSucceeds(t *testing.T) {
	f := newFixture(t, true, "1011")
	f.events.syncErr = errors.New("observer failed")

	result := f.orch.ApplyItem(context.Background(), f.catalog.items[0], defaultPrefs(), models.ReasonManual)
	assert.True(t, result.Success)
	assert.Equal(t, MsgUpdatedWithError, result.Message)

	f.events.syncErr = nil
	f.events.panicSync = true
	result = f.orch.ApplyItem(context.Background(), f.catalog.items[0], defaultPrefs(), models.ReasonManual)
	assert.True(t, result.Success)
	assert.Equal(t, MsgUpdatedWithError, result.Message)
	assert.Len(t, f.history.All(), 2)
}

func TestApplyKey(t *testing.T) {
	f := newFixture(t, true, "1011", "1021")

	result, err := f.orch.ApplyKey(context.Background(), "1021", defaultPrefs(), models.ReasonHistoryReplay)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "1021", result.Item.ID)
	assert.Equal(t, models.ReasonHistoryReplay, result.Reason)

	_, err = f.orch.ApplyKey(context.Background(), "nope", defaultPrefs(), models.ReasonHistoryReplay)
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Len(t, f.history.All(), 1)
}

func TestApplyNext_RecencyRotatesThroughPool(t *testing.T) {
	f := newFixture(t, true, "a", "b", "c")
	prefs := defaultPrefs()
	prefs.RecentExcludeCount = 2

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		result := f.orch.ApplyNext(context.Background(), prefs)
		require.True(t, result.Success)
		assert.False(t, seen[result.Item.ID], "repeat within recency window")
		seen[result.Item.ID] = true
	}
	assert.Len(t, seen, 3)
}

func TestApplyNext_TrimsHistory(t *testing.T) {
	f := newFixture(t, true, "a", "b", "c", "d")
	prefs := defaultPrefs()
	prefs.RecentExcludeCount = 0
	prefs.HistoryMaxEntries = 2

	for i := 0; i < 4; i++ {
		require.True(t, f.orch.ApplyNext(context.Background(), prefs).Success)
	}
	assert.Len(t, f.history.All(), 2)
}

func TestApplyNext_ConcurrentCallsAppendInOrder(t *testing.T) {
	f := newFixture(t, true, "a", "b", "c", "d", "e", "f")
	prefs := defaultPrefs()
	prefs.RecentExcludeCount = 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.orch.ApplyNext(context.Background(), prefs)
		}()
	}
	wg.Wait()

	entries := f.history.All()
	require.Len(t, entries, 8)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].At.Before(entries[i-1].At))
	}
}

type gatedSetter struct {
	entered chan string
	release chan struct{}
	present bool
}

func (g *gatedSetter) Name() string { return "gated" }
func (g *gatedSetter) TrySet(path string) (bool, string) {
	g.entered <- path
	<-g.release
	_, err := os.Stat(path)
	g.present = err == nil
	return true, ""
}

func TestTrimCache_WaitsForInFlightAttempt(t *testing.T) {
	f := newFixture(t, false, "a")
	gate := &gatedSetter{entered: make(chan string, 1), release: make(chan struct{})}
	f.orch.setter = gate

	prefs := defaultPrefs()
	prefs.CacheMaxBytes = 1

	done := make(chan models.RotationResult, 1)
	go func() { done <- f.orch.ApplyNext(context.Background(), prefs) }()

	path := <-gate.entered

	trimmed := make(chan int, 1)
	go func() {
		removed, err := f.orch.TrimCache(prefs)
		assert.NoError(t, err)
		trimmed <- removed
	}()

	select {
	case <-trimmed:
		t.Fatal("trim ran while an attempt was applying")
	case <-time.After(100 * time.Millisecond):
	}

	close(gate.release)
	result := <-done
	assert.Equal(t, models.OutcomeOK, result.Outcome)
	assert.True(t, gate.present, "file present when the setter applied it")

	assert.Equal(t, 0, <-trimmed, "just-applied file is protected by history")
	assert.FileExists(t, path)
}

func TestTrimCache_EvictsUnprotected(t *testing.T) {
	f := newFixture(t, true, "a", "b")
	prefs := defaultPrefs()
	prefs.RecentExcludeCount = 0

	_, err := f.orch.ApplyKey(context.Background(), "a", prefs, models.ReasonManual)
	require.NoError(t, err)
	_, err = f.orch.ApplyKey(context.Background(), "b", prefs, models.ReasonManual)
	require.NoError(t, err)

	keep, err := f.cache.PathForKey("b")
	require.NoError(t, err)

	prefs.CacheMaxBytes = 1
	removed, err := f.orch.TrimCache(prefs, keep)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.FileExists(t, keep)
}
