package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

// CatalogHandler serves catalog search and refresh
type CatalogHandler struct {
	catalog CatalogBrowser
	logger  arbor.ILogger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog CatalogBrowser, logger arbor.ILogger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// SearchHandler handles GET /api/catalog?q= - blank query lists the whole snapshot
func (h *CatalogHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	items := h.catalog.Search(query)

	response := map[string]interface{}{
		"items": items,
		"count": len(items),
		"query": query,
	}
	if last := h.catalog.LastRefresh(); !last.IsZero() {
		response["last_refresh"] = last.UTC().Format(time.RFC3339)
	}

	WriteJSON(w, http.StatusOK, response)
}

// RefreshHandler handles POST /api/catalog/refresh. The previous snapshot is kept on failure.
func (h *CatalogHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	items, err := h.catalog.Refresh(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Manual catalog refresh failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"count":  len(items),
	})
}
