package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

type memoryState struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryState) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return v, nil
}

func (m *memoryState) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *memoryState) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryState) Snapshot(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func TestStateRecorder_RecordsCurrentWallpaper(t *testing.T) {
	logger := arbor.NewLogger()
	state := &memoryState{}
	svc := NewService(logger)
	require.NoError(t, SubscribeStateRecorder(svc, state, logger))

	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	err := svc.PublishSync(context.Background(), interfaces.Event{
		Type: interfaces.EventWallpaperChanged,
		Payload: models.WallpaperChanged{
			Item:      models.CatalogItem{ID: "1031"},
			LocalPath: "/cache/wallpaper_1031.jpg",
			Reason:    models.ReasonStartup,
			At:        at,
		},
	})
	require.NoError(t, err)

	all, err := state.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1031", all[KeyCurrentWallpaperKey])
	assert.Equal(t, "/cache/wallpaper_1031.jpg", all[KeyCurrentWallpaperPath])
	assert.Equal(t, models.ReasonStartup, all[KeyCurrentWallpaperReason])
	assert.Equal(t, "2026-10-18T09:30:00Z", all[KeyLastChangedAt])
}

func TestStateRecorder_RejectsWrongPayload(t *testing.T) {
	handler := NewStateRecorder(&memoryState{}, arbor.NewLogger())
	err := handler(context.Background(), interfaces.Event{Type: interfaces.EventWallpaperChanged, Payload: "nope"})
	assert.Error(t, err)
}
