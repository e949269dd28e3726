package interfaces

import (
	"context"

	"github.com/ternarybob/kabegami/internal/models"
)

// RotationService executes single rotation attempts end to end
type RotationService interface {
	// ApplyNext selects from the catalog snapshot and applies the pick
	ApplyNext(ctx context.Context, prefs models.RotationPreferences) models.RotationResult

	// ApplyNextWithReason is ApplyNext tagged with a provenance other than auto
	ApplyNextWithReason(ctx context.Context, prefs models.RotationPreferences, reason string) models.RotationResult

	// ApplyItem applies a specific item; reason is carried to the change event
	ApplyItem(ctx context.Context, item models.CatalogItem, prefs models.RotationPreferences, reason string) models.RotationResult

	// ApplyKey resolves key in the snapshot and applies it
	ApplyKey(ctx context.Context, key string, prefs models.RotationPreferences, reason string) (models.RotationResult, error)
}
