package handlers

import (
	"time"

	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

// CatalogBrowser is the catalog service plus refresh bookkeeping
type CatalogBrowser interface {
	interfaces.CatalogService
	LastRefresh() time.Time
}

// SetterInfo describes the wallpaper setter chosen at startup
type SetterInfo interface {
	SetterAvailable() bool
	SetterName() string
}

// CacheTrimmer runs an eviction pass serialised with rotation attempts
type CacheTrimmer interface {
	TrimCache(prefs models.RotationPreferences, extraProtected ...string) (int, error)
}
