package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
)

// SchedulerHandler handles scheduler-related endpoints
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
	logger           arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// StatusHandler handles GET /api/scheduler
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, h.schedulerService.Status())
}

// StartHandler handles POST /api/scheduler/start - (re)arms the rotation timer
func (h *SchedulerHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.schedulerService.Start(); err != nil {
		h.logger.Error().Err(err).Msg("Failed to start scheduler")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, h.schedulerService.Status())
}

// StopHandler handles POST /api/scheduler/stop
func (h *SchedulerHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.schedulerService.Stop(); err != nil {
		h.logger.Error().Err(err).Msg("Failed to stop scheduler")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, h.schedulerService.Status())
}

// TriggerHandler handles POST /api/scheduler/trigger - fires one scheduled tick now
func (h *SchedulerHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.schedulerService.RunNow()

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Rotation tick triggered",
	})
}
