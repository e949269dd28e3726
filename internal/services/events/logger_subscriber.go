package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

// NewLoggerSubscriber creates an event handler that logs all events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Debug().
			Str("event_type", string(event.Type))

		switch payload := event.Payload.(type) {
		case models.WallpaperChanged:
			logEvent = logEvent.
				Str("key", payload.Item.Key()).
				Str("reason", payload.Reason).
				Str("path", payload.LocalPath)
		case models.RotationResult:
			logEvent = logEvent.
				Str("outcome", string(payload.Outcome)).
				Str("reason", payload.Reason)
			if payload.Item != nil {
				logEvent = logEvent.Str("key", payload.Item.Key())
			}
		case models.Settings:
			logEvent = logEvent.
				Bool("auto_rotate", payload.AutoRotateEnabled).
				Int("interval_minutes", payload.RotateIntervalMinutes)
		case map[string]interface{}:
			if count, ok := payload["count"].(int); ok {
				logEvent = logEvent.Int("count", count)
			}
		}

		logEvent.Msg("Event published")

		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	for _, eventType := range interfaces.AllEventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Info().
		Int("event_type_count", len(interfaces.AllEventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
