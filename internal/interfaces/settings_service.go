package interfaces

import "github.com/ternarybob/kabegami/internal/models"

// SettingsProvider exposes the live settings value. Callers read it on every use.
type SettingsProvider interface {
	Current() models.Settings
}

// SettingsService is a SettingsProvider that can also be changed at runtime
type SettingsService interface {
	SettingsProvider

	// Update validates, persists, and publishes the new settings
	Update(settings models.Settings) (models.Settings, error)
}
