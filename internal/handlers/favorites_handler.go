package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

// FavoritesHandler exposes the favorite and blocked key sets
type FavoritesHandler struct {
	favorites interfaces.FavoritesStore
	logger    arbor.ILogger
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(favorites interfaces.FavoritesStore, logger arbor.ILogger) *FavoritesHandler {
	return &FavoritesHandler{
		favorites: favorites,
		logger:    logger,
	}
}

// ListHandler handles GET /api/favorites
func (h *FavoritesHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, models.Favorites{
		FavoriteKeys: h.favorites.FavoriteKeys(),
		BlockedKeys:  h.favorites.BlockedKeys(),
	})
}

// ToggleFavoriteHandler handles POST /api/favorites/{id}/toggle
func (h *FavoritesHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	key, ok := PathSegment(r.URL.Path, "/api/favorites/", "/toggle")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Missing card id")
		return
	}

	state, err := h.favorites.ToggleFavorite(key)
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to toggle favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to toggle favorite")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"key":      key,
		"favorite": state,
	})
}

// ToggleBlockedHandler handles POST /api/blocked/{id}/toggle
func (h *FavoritesHandler) ToggleBlockedHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	key, ok := PathSegment(r.URL.Path, "/api/blocked/", "/toggle")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Missing card id")
		return
	}

	state, err := h.favorites.ToggleBlocked(key)
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to toggle blocked")
		WriteError(w, http.StatusInternalServerError, "Failed to toggle blocked")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"key":     key,
		"blocked": state,
	})
}
