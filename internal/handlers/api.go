package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
)

// APIHandler serves the system endpoints: version, health and the JSON 404
type APIHandler struct {
	catalog   interfaces.CatalogService
	setter    SetterInfo
	startedAt time.Time
	logger    arbor.ILogger
}

func NewAPIHandler(catalog interfaces.CatalogService, setter SetterInfo, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		catalog:   catalog,
		setter:    setter,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// HealthResponse is "ok" only when there is something to rotate and a way to apply it
type HealthResponse struct {
	Status          string  `json:"status"`
	CatalogItems    int     `json:"catalogItems"`
	SetterAvailable bool    `json:"setterAvailable"`
	UptimeSeconds   float64 `json:"uptimeSeconds"`
	Version         string  `json:"version"`
}

// VersionHandler handles GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, common.CurrentBuild())
}

// HealthHandler handles GET /api/health. A degraded daemon still answers 200
// so the tray shell can tell it apart from one that is not running.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	resp := HealthResponse{
		Status:          "ok",
		CatalogItems:    len(h.catalog.Current()),
		SetterAvailable: h.setter.SetterAvailable(),
		UptimeSeconds:   time.Since(h.startedAt).Truncate(time.Second).Seconds(),
		Version:         common.GetVersion(),
	}
	if resp.CatalogItems == 0 || !resp.SetterAvailable {
		resp.Status = "degraded"
	}

	WriteJSON(w, http.StatusOK, resp)
}

// NotFoundHandler answers unknown API paths in the same envelope as WriteError
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("No route")

	WriteJSON(w, http.StatusNotFound, map[string]string{
		"status": "error",
		"error":  "No such endpoint",
		"path":   r.URL.Path,
	})
}
