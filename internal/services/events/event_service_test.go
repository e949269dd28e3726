package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
)

func TestSubscribe_NilHandler(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	assert.Error(t, svc.Subscribe(interfaces.EventCatalogUpdated, nil))
}

func TestPublishSync_WaitsForAllHandlers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	var calls int32

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Subscribe(interfaces.EventWallpaperChanged, func(ctx context.Context, e interfaces.Event) error {
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&calls, 1)
			return nil
		}))
	}

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventWallpaperChanged}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPublishSync_AggregatesErrorsAndPanics(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	var ran int32

	require.NoError(t, svc.Subscribe(interfaces.EventWallpaperChanged, func(context.Context, interfaces.Event) error {
		return errors.New("observer failed")
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventWallpaperChanged, func(context.Context, interfaces.Event) error {
		panic("observer exploded")
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventWallpaperChanged, func(context.Context, interfaces.Event) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}))

	var err error
	assert.NotPanics(t, func() {
		err = svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventWallpaperChanged})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors")
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestPublish_Async(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, svc.Subscribe(interfaces.EventCatalogUpdated, func(_ context.Context, e interfaces.Event) error {
		defer wg.Done()
		assert.Equal(t, interfaces.EventCatalogUpdated, e.Type)
		return nil
	}))

	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventCatalogUpdated}))
	wg.Wait()
}

func TestPublish_NoSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	assert.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventSettingsChanged}))
	assert.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventSettingsChanged}))
}

func TestClose_DropsSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	require.NoError(t, svc.Subscribe(interfaces.EventSettingsChanged, func(context.Context, interfaces.Event) error {
		t.Fatal("handler must not run after Close")
		return nil
	}))

	require.NoError(t, svc.Close())
	assert.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventSettingsChanged}))
}
