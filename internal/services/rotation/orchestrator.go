// Package rotation runs single wallpaper rotation attempts: select, cache,
// apply, record, notify.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
	"github.com/ternarybob/kabegami/internal/services/cache"
	"github.com/ternarybob/kabegami/internal/services/selector"
)

// ErrUnknownKey is returned by ApplyKey when the key is not in the catalog snapshot
var ErrUnknownKey = errors.New("key not found in catalog")

// Status messages returned with each result
const (
	MsgNoCandidates     = "No cards available."
	MsgNoEligible       = "No eligible cards."
	MsgInvalidKey       = "Invalid card key."
	MsgDownloadFailed   = "Download failed."
	MsgNotSupported     = "Setting the wallpaper is not supported on this platform."
	MsgSetFailed        = "Failed to set wallpaper."
	MsgUpdated          = "Wallpaper updated."
	MsgUpdatedWithError = "Wallpaper updated (with notification error)."
)

// Orchestrator implements interfaces.RotationService. Attempts are serialised.
type Orchestrator struct {
	catalog      interfaces.CatalogService
	selector     *selector.Selector
	cache        interfaces.CacheManager
	history      interfaces.HistoryLedger
	favorites    interfaces.FavoritesStore
	setter       interfaces.WallpaperSetter
	eventService interfaces.EventService
	logger       arbor.ILogger

	mu  sync.Mutex
	now func() time.Time
}

// Compile-time assertion
var _ interfaces.RotationService = (*Orchestrator)(nil)

// NewOrchestrator wires one orchestrator. setter may be nil (unavailable
// platform) and eventService may be nil (no observers).
func NewOrchestrator(
	catalog interfaces.CatalogService,
	sel *selector.Selector,
	cacheManager interfaces.CacheManager,
	history interfaces.HistoryLedger,
	favorites interfaces.FavoritesStore,
	setter interfaces.WallpaperSetter,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) *Orchestrator {
	if sel == nil {
		sel = selector.New()
	}
	return &Orchestrator{
		catalog:      catalog,
		selector:     sel,
		cache:        cacheManager,
		history:      history,
		favorites:    favorites,
		setter:       setter,
		eventService: eventService,
		logger:       logger,
		now:          time.Now,
	}
}

// SetterAvailable reports whether a wallpaper setter was found for this host
func (o *Orchestrator) SetterAvailable() bool {
	return o.setter != nil
}

// SetterName returns the active setter name, or "unavailable"
func (o *Orchestrator) SetterName() string {
	if o.setter == nil {
		return "unavailable"
	}
	return o.setter.Name()
}

// ApplyNext picks from the current catalog snapshot and applies the pick with reason auto
func (o *Orchestrator) ApplyNext(ctx context.Context, prefs models.RotationPreferences) models.RotationResult {
	return o.applyNext(ctx, prefs, models.ReasonAuto)
}

// ApplyNextWithReason is ApplyNext with an explicit provenance tag (manual, startup)
func (o *Orchestrator) ApplyNextWithReason(ctx context.Context, prefs models.RotationPreferences, reason string) models.RotationResult {
	return o.applyNext(ctx, prefs, reason)
}

func (o *Orchestrator) applyNext(ctx context.Context, prefs models.RotationPreferences, reason string) models.RotationResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := models.RotationResult{AttemptID: uuid.New().String(), Reason: reason}

	candidates := o.catalog.Current()
	if len(candidates) == 0 {
		return o.finish(result, models.OutcomeNoCandidates, MsgNoCandidates, "")
	}

	recentKeys := o.history.RecentKeys(prefs.RecentExcludeCount)
	item, ok := o.selector.PickNext(
		candidates,
		recentKeys,
		o.favorites.FavoriteKeys(),
		o.favorites.BlockedKeys(),
		prefs,
	)
	if !ok {
		o.logger.Debug().
			Int("candidates", len(candidates)).
			Int("recent", len(recentKeys)).
			Msg("Selector found no eligible candidates")
		return o.finish(result, models.OutcomeNoEligibleCandidates, MsgNoEligible, "")
	}

	return o.applyLocked(ctx, result, item, prefs)
}

// ApplyItem applies a specific item
func (o *Orchestrator) ApplyItem(ctx context.Context, item models.CatalogItem, prefs models.RotationPreferences, reason string) models.RotationResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := models.RotationResult{AttemptID: uuid.New().String(), Reason: reason}
	return o.applyLocked(ctx, result, item, prefs)
}

// ApplyKey resolves key in the current snapshot and applies it.
// An unknown key returns ErrUnknownKey and records nothing.
func (o *Orchestrator) ApplyKey(ctx context.Context, key string, prefs models.RotationPreferences, reason string) (models.RotationResult, error) {
	item, ok := o.catalog.Get(key)
	if !ok {
		return models.RotationResult{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return o.ApplyItem(ctx, item, prefs, reason), nil
}

// TrimCache runs one eviction pass under the attempt lock so it never races a
// rotation between download and history append. Recent history paths and
// extraProtected are kept.
func (o *Orchestrator) TrimCache(prefs models.RotationPreferences, extraProtected ...string) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	protected := o.history.RecentLocalPaths(prefs.RecentExcludeCount)
	protected = append(protected, extraProtected...)

	removed, err := o.cache.Evict(prefs.CacheMaxBytes, protected)
	if err != nil {
		return removed, fmt.Errorf("cache trim failed: %w", err)
	}

	o.logger.Info().Int("removed", removed).Int("protected", len(protected)).Msg("Cache trimmed")
	return removed, nil
}

// applyLocked must be called with o.mu held
func (o *Orchestrator) applyLocked(ctx context.Context, result models.RotationResult, item models.CatalogItem, prefs models.RotationPreferences) models.RotationResult {
	picked := item
	result.Item = &picked

	protected := o.history.RecentLocalPaths(prefs.RecentExcludeCount)

	localPath, err := o.cache.EnsureLocal(ctx, item, prefs.CacheMaxBytes, protected)
	if err != nil {
		if errors.Is(err, cache.ErrInvalidKey) {
			o.record(item.Key(), "", models.OutcomeInvalidKey, prefs)
			return o.finish(result, models.OutcomeInvalidKey, MsgInvalidKey, err.Error())
		}
		o.record(item.Key(), "", models.OutcomeDownloadFailed, prefs)
		return o.finish(result, models.OutcomeDownloadFailed, MsgDownloadFailed, err.Error())
	}

	result.LocalPath = localPath
	fileName := filepath.Base(localPath)

	if o.setter == nil {
		o.record(item.Key(), fileName, models.OutcomeWallpaperNotSupported, prefs)
		return o.finish(result, models.OutcomeWallpaperNotSupported, MsgNotSupported, "")
	}

	// Cancellation is not honoured past this point; the change cannot be undone
	if ok, errText := o.setter.TrySet(localPath); !ok {
		o.record(item.Key(), fileName, models.OutcomeSetWallpaperFailed, prefs)
		return o.finish(result, models.OutcomeSetWallpaperFailed, MsgSetFailed, errText)
	}

	o.record(item.Key(), fileName, models.OutcomeOK, prefs)

	message := MsgUpdated
	if err := o.notifyChanged(result, picked, localPath); err != nil {
		o.logger.Error().Err(err).Str("key", item.Key()).Msg("Wallpaper change handler failed")
		message = MsgUpdatedWithError
	}

	return o.finish(result, models.OutcomeOK, message, "")
}

// record appends one history entry and enforces the cap. Ledger failures
// are logged; the attempt outcome stands.
func (o *Orchestrator) record(key string, fileName string, outcome models.Outcome, prefs models.RotationPreferences) {
	entry := models.HistoryEntry{
		At:       o.now(),
		Key:      key,
		FileName: fileName,
		Result:   outcome,
	}
	if err := o.history.Append(entry); err != nil {
		o.logger.Error().Err(err).Str("key", key).Str("outcome", string(outcome)).Msg("Failed to append history entry")
		return
	}
	if err := o.history.TrimToMax(prefs.HistoryMaxEntries); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to trim history")
	}
}

// notifyChanged publishes wallpaper_changed synchronously; observer panics become errors
func (o *Orchestrator) notifyChanged(result models.RotationResult, item models.CatalogItem, localPath string) (err error) {
	if o.eventService == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()

	return o.eventService.PublishSync(context.Background(), interfaces.Event{
		Type: interfaces.EventWallpaperChanged,
		Payload: models.WallpaperChanged{
			AttemptID: result.AttemptID,
			Item:      item,
			LocalPath: localPath,
			Reason:    result.Reason,
			At:        o.now(),
		},
	})
}

func (o *Orchestrator) finish(result models.RotationResult, outcome models.Outcome, message string, errText string) models.RotationResult {
	result.Outcome = outcome
	result.Success = outcome.IsSuccess()
	result.Message = message
	result.Error = errText

	key := ""
	if result.Item != nil {
		key = result.Item.Key()
	}

	if result.Success {
		o.logger.Info().
			Str("attempt_id", result.AttemptID).
			Str("key", key).
			Str("reason", result.Reason).
			Str("path", result.LocalPath).
			Msg("Wallpaper applied")
		return result
	}

	o.logger.Warn().
		Str("attempt_id", result.AttemptID).
		Str("key", key).
		Str("reason", result.Reason).
		Str("outcome", string(outcome)).
		Str("error", errText).
		Msg("Rotation attempt failed")

	// Only failures after a pick are broadcast
	if result.Item != nil && o.eventService != nil {
		if err := o.eventService.Publish(context.Background(), interfaces.Event{
			Type:    interfaces.EventRotationFailed,
			Payload: result,
		}); err != nil {
			o.logger.Debug().Err(err).Msg("Failed to publish rotation failure")
		}
	}

	return result
}
