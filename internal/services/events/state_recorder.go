package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

// State keys written on every wallpaper change
const (
	KeyCurrentWallpaperKey    = "current_wallpaper_key"
	KeyCurrentWallpaperPath   = "current_wallpaper_path"
	KeyCurrentWallpaperReason = "current_wallpaper_reason"
	KeyLastChangedAt          = "last_changed_at"
)

// NewStateRecorder returns a wallpaper_changed handler that stores the current
// wallpaper in state storage for status queries across restarts
func NewStateRecorder(state interfaces.StateStorage, logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		changed, ok := event.Payload.(models.WallpaperChanged)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}

		at := changed.At
		if at.IsZero() {
			at = time.Now()
		}

		err := state.SetMany(ctx, map[string]string{
			KeyCurrentWallpaperKey:    changed.Item.Key(),
			KeyCurrentWallpaperPath:   changed.LocalPath,
			KeyCurrentWallpaperReason: changed.Reason,
			KeyLastChangedAt:          at.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("failed to record current wallpaper: %w", err)
		}

		logger.Debug().Str("key", changed.Item.Key()).Msg("Current wallpaper recorded")
		return nil
	}
}

// SubscribeStateRecorder wires NewStateRecorder to wallpaper_changed
func SubscribeStateRecorder(eventService interfaces.EventService, state interfaces.StateStorage, logger arbor.ILogger) error {
	return eventService.Subscribe(interfaces.EventWallpaperChanged, NewStateRecorder(state, logger))
}
