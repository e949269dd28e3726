package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/services/events"
)

// CacheHandler reports and trims the image cache
type CacheHandler struct {
	cache    interfaces.CacheManager
	trimmer  CacheTrimmer
	settings interfaces.SettingsProvider
	state    interfaces.StateStorage
	logger   arbor.ILogger
}

// NewCacheHandler creates a new cache handler. state may be nil.
func NewCacheHandler(
	cacheManager interfaces.CacheManager,
	trimmer CacheTrimmer,
	settings interfaces.SettingsProvider,
	state interfaces.StateStorage,
	logger arbor.ILogger,
) *CacheHandler {
	return &CacheHandler{
		cache:    cacheManager,
		trimmer:  trimmer,
		settings: settings,
		state:    state,
		logger:   logger,
	}
}

// UsageHandler handles GET /api/cache
func (h *CacheHandler) UsageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	usage, err := h.cache.Usage()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read cache usage")
		WriteError(w, http.StatusInternalServerError, "Failed to read cache usage")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"root":      usage.Root,
		"files":     usage.Files,
		"bytes":     usage.Bytes,
		"max_bytes": h.settings.Current().Preferences().CacheMaxBytes,
	})
}

// TrimHandler handles POST /api/cache/trim - runs one eviction pass under the
// current budget, protecting recent history and the current wallpaper
func (h *CacheHandler) TrimHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	prefs := h.settings.Current().Preferences()
	var extra []string
	if current := h.currentPath(r.Context()); current != "" {
		extra = append(extra, current)
	}

	removed, err := h.trimmer.TrimCache(prefs, extra...)
	if err != nil {
		h.logger.Error().Err(err).Msg("Cache trim failed")
		WriteError(w, http.StatusInternalServerError, "Cache trim failed")
		return
	}

	usage, err := h.cache.Usage()
	if err != nil {
		h.logger.Error().Err(err).Int("removed", removed).Msg("Failed to read cache usage after trim")
		WriteError(w, http.StatusInternalServerError, "Failed to read cache usage")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
		"files":   usage.Files,
		"bytes":   usage.Bytes,
	})
}

func (h *CacheHandler) currentPath(ctx context.Context) string {
	if h.state == nil {
		return ""
	}
	path, err := h.state.Get(ctx, events.KeyCurrentWallpaperPath)
	if err != nil {
		return ""
	}
	return path
}
