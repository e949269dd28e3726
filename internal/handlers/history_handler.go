package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 10000
)

// HistoryHandler lists the rotation ledger
type HistoryHandler struct {
	history interfaces.HistoryLedger
	logger  arbor.ILogger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history interfaces.HistoryLedger, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

// ListHandler handles GET /api/history?limit= - newest last; limit=0 returns everything
func (h *HistoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := GetLimitParam(r, defaultHistoryLimit, maxHistoryLimit)

	entries := h.history.All()
	if limit > 0 {
		entries = h.history.RecentEntries(limit)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"base_path": h.history.BasePath(),
		"entries":   entries,
		"count":     len(entries),
	})
}
