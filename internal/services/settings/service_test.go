package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *recordingEvents) Subscribe(interfaces.EventType, interfaces.EventHandler) error { return nil }
func (r *recordingEvents) Publish(ctx context.Context, e interfaces.Event) error {
	return r.PublishSync(ctx, e)
}
func (r *recordingEvents) PublishSync(_ context.Context, e interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}
func (r *recordingEvents) Close() error { return nil }

func seed() models.Settings {
	return FromConfig(common.NewDefaultConfig().Rotation)
}

func TestFromConfig_Defaults(t *testing.T) {
	s := seed()
	assert.True(t, s.AutoRotateEnabled)
	assert.Equal(t, 15, s.RotateIntervalMinutes)
	assert.True(t, s.RotateOnAppStart)
	assert.Equal(t, 30, s.RecentExcludeCount)
	assert.True(t, s.PreferFavorites)
	assert.True(t, s.ExcludeBlocked)
	assert.False(t, s.ExcludeThirdEvolution)
	assert.Equal(t, 2048, s.CacheMaxMB)
	assert.Equal(t, 100, s.HistoryMaxEntries)
}

func TestNewService_CreatesFileFromSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	svc, err := NewService(path, seed(), nil, arbor.NewLogger())
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, 15, svc.Current().RotateIntervalMinutes)
}

func TestNewService_PartialFileKeepsSeedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("rotateIntervalMinutes = 5\nexcludeThirdEvolution = true\n"), 0644))

	svc, err := NewService(path, seed(), nil, arbor.NewLogger())
	require.NoError(t, err)

	cur := svc.Current()
	assert.Equal(t, 5, cur.RotateIntervalMinutes)
	assert.True(t, cur.ExcludeThirdEvolution)
	assert.Equal(t, 30, cur.RecentExcludeCount)
	assert.Contains(t, cur.Preferences().ExcludeRules, models.ThirdEvolutionRule)
}

func TestNewService_CorruptFileFallsBackToSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is = = not toml"), 0644))

	svc, err := NewService(path, seed(), nil, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, seed().RotateIntervalMinutes, svc.Current().RotateIntervalMinutes)
}

func TestNewService_InvalidFileKeepsSeedRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := "[[excludeRules]]\ntype = \"bogus\"\nvalue = \"x\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	base := seed()
	base.ExcludeRules = []models.ExclusionRule{models.ThirdEvolutionRule}

	svc, err := NewService(path, base, nil, arbor.NewLogger())
	require.NoError(t, err)

	rules := svc.Current().ExcludeRules
	require.Len(t, rules, 1)
	assert.Equal(t, models.ThirdEvolutionRule, rules[0])
	assert.True(t, rules[0].Matches("1012"))
	assert.Equal(t, models.ThirdEvolutionRule, base.ExcludeRules[0], "caller's seed left untouched")
}

func TestUpdate_PersistsAndPublishes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	events := &recordingEvents{}
	svc, err := NewService(path, seed(), events, arbor.NewLogger())
	require.NoError(t, err)

	next := svc.Current()
	next.RotateIntervalMinutes = 42
	next.ExcludeRules = []models.ExclusionRule{{Type: models.ExclusionSegment, Value: "30", Start: 4, End: 6}}

	saved, err := svc.Update(next)
	require.NoError(t, err)
	assert.Equal(t, 42, saved.RotateIntervalMinutes)
	assert.Equal(t, 42, svc.Current().RotateIntervalMinutes)

	require.Len(t, events.events, 1)
	assert.Equal(t, interfaces.EventSettingsChanged, events.events[0].Type)

	reloaded, err := NewService(path, seed(), nil, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, 42, reloaded.Current().RotateIntervalMinutes)
	require.Len(t, reloaded.Current().ExcludeRules, 1)
	assert.Equal(t, "30", reloaded.Current().ExcludeRules[0].Value)
}

func TestUpdate_RejectsInvalid(t *testing.T) {
	svc, err := NewService(filepath.Join(t.TempDir(), "settings.toml"), seed(), nil, arbor.NewLogger())
	require.NoError(t, err)

	bad := svc.Current()
	bad.RecentExcludeCount = -1
	_, err = svc.Update(bad)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	bad = svc.Current()
	bad.ExcludeRules = []models.ExclusionRule{{Type: "regex", Value: "x"}}
	_, err = svc.Update(bad)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	bad = svc.Current()
	bad.ExcludeRules = []models.ExclusionRule{{Type: models.ExclusionSegment, Value: "3", Start: 4, End: 4}}
	_, err = svc.Update(bad)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	assert.Equal(t, 30, svc.Current().RecentExcludeCount)
}
