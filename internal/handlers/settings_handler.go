package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/services/settings"
)

// SettingsHandler reads and updates the live settings
type SettingsHandler struct {
	settings interfaces.SettingsService
	logger   arbor.ILogger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService interfaces.SettingsService, logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{
		settings: settingsService,
		logger:   logger,
	}
}

// GetHandler handles GET /api/settings
func (h *SettingsHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, h.settings.Current())
}

// UpdateHandler handles PUT /api/settings. Fields omitted from the body keep their current values.
func (h *SettingsHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	next := h.settings.Current()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse settings body")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.settings.Update(next)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidSettings) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Failed to update settings")
		WriteError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	WriteJSON(w, http.StatusOK, saved)
}
