package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
	"github.com/ternarybob/kabegami/internal/services/rotation"
)

// RotationHandler handles manual rotation requests
type RotationHandler struct {
	rotation interfaces.RotationService
	settings interfaces.SettingsProvider
	logger   arbor.ILogger
}

// NewRotationHandler creates a new rotation handler
func NewRotationHandler(rotationService interfaces.RotationService, settings interfaces.SettingsProvider, logger arbor.ILogger) *RotationHandler {
	return &RotationHandler{
		rotation: rotationService,
		settings: settings,
		logger:   logger,
	}
}

// RotateHandler handles POST /api/rotate - picks and applies the next wallpaper.
// Failure outcomes are returned as a 200 with success=false.
func (h *RotationHandler) RotateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	prefs := h.settings.Current().Preferences()
	result := h.rotation.ApplyNextWithReason(r.Context(), prefs, models.ReasonManual)

	WriteJSON(w, http.StatusOK, result)
}

// ApplyHandler handles POST /api/rotate/{id} - applies a specific catalog item
func (h *RotationHandler) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	key, ok := PathSegment(r.URL.Path, "/api/rotate/", "")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Missing card id")
		return
	}

	h.applyKey(w, r, key, models.ReasonManual)
}

// ReplayHandler handles POST /api/history/replay?key= - re-applies a wallpaper from history
func (h *RotationHandler) ReplayHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "Missing key parameter")
		return
	}

	h.applyKey(w, r, key, models.ReasonHistoryReplay)
}

func (h *RotationHandler) applyKey(w http.ResponseWriter, r *http.Request, key string, reason string) {
	prefs := h.settings.Current().Preferences()
	result, err := h.rotation.ApplyKey(r.Context(), key, prefs, reason)
	if err != nil {
		if errors.Is(err, rotation.ErrUnknownKey) {
			WriteError(w, http.StatusNotFound, "Card not found in catalog")
			return
		}
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to apply wallpaper")
		WriteError(w, http.StatusInternalServerError, "Failed to apply wallpaper")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
