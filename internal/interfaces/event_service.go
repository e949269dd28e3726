package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventWallpaperChanged is published after every successful apply; payload models.WallpaperChanged
	EventWallpaperChanged EventType = "wallpaper_changed"
	// EventRotationFailed is published when an attempt ends in a failure outcome; payload models.RotationResult
	EventRotationFailed EventType = "rotation_failed"
	// EventCatalogUpdated is published after a snapshot replacement; payload map with "count"
	EventCatalogUpdated EventType = "catalog_updated"
	// EventSettingsChanged is published after settings are saved; payload models.Settings
	EventSettingsChanged EventType = "settings_changed"
)

// AllEventTypes lists every event type the daemon publishes
var AllEventTypes = []EventType{
	EventWallpaperChanged,
	EventRotationFailed,
	EventCatalogUpdated,
	EventSettingsChanged,
}

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers without waiting
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
