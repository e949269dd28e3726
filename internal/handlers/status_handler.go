package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/services/events"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	state     interfaces.StateStorage
	scheduler interfaces.SchedulerService
	catalog   CatalogBrowser
	setter    SetterInfo
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(
	state interfaces.StateStorage,
	scheduler interfaces.SchedulerService,
	catalog CatalogBrowser,
	setter SetterInfo,
	logger arbor.ILogger,
) *StatusHandler {
	return &StatusHandler{
		state:     state,
		scheduler: scheduler,
		catalog:   catalog,
		setter:    setter,
		logger:    logger,
	}
}

// CurrentWallpaper is the last applied wallpaper as recorded in the KV store
type CurrentWallpaper struct {
	Key       string `json:"key"`
	Path      string `json:"path"`
	Reason    string `json:"reason"`
	ChangedAt string `json:"changed_at"`
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Version          string                     `json:"version"`
	Current          *CurrentWallpaper          `json:"current,omitempty"`
	CatalogCount     int                        `json:"catalog_count"`
	CatalogRefreshed string                     `json:"catalog_refreshed,omitempty"`
	SetterAvailable  bool                       `json:"setter_available"`
	Setter           string                     `json:"setter"`
	Scheduler        interfaces.SchedulerStatus `json:"scheduler"`
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := StatusResponse{
		Version:         common.GetFullVersion(),
		CatalogCount:    len(h.catalog.Current()),
		SetterAvailable: h.setter.SetterAvailable(),
		Setter:          h.setter.SetterName(),
		Scheduler:       h.scheduler.Status(),
	}
	if last := h.catalog.LastRefresh(); !last.IsZero() {
		status.CatalogRefreshed = last.UTC().Format(time.RFC3339)
	}

	if h.state != nil {
		values, err := h.state.Snapshot(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to read current wallpaper state")
		} else if key := values[events.KeyCurrentWallpaperKey]; key != "" {
			status.Current = &CurrentWallpaper{
				Key:       key,
				Path:      values[events.KeyCurrentWallpaperPath],
				Reason:    values[events.KeyCurrentWallpaperReason],
				ChangedAt: values[events.KeyLastChangedAt],
			}
		}
	}

	WriteJSON(w, http.StatusOK, status)
}
