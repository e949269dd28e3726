package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)

	// API routes - Rotation
	mux.HandleFunc("/api/rotate", s.app.RotationHandler.RotateHandler)         // POST - next wallpaper
	mux.HandleFunc("/api/rotate/", s.app.RotationHandler.ApplyHandler)         // POST /{id}
	mux.HandleFunc("/api/history", s.app.HistoryHandler.ListHandler)           // GET ?limit=
	mux.HandleFunc("/api/history/replay", s.app.RotationHandler.ReplayHandler) // POST ?key=

	// API routes - Catalog
	mux.HandleFunc("/api/catalog", s.app.CatalogHandler.SearchHandler)
	mux.HandleFunc("/api/catalog/refresh", s.app.CatalogHandler.RefreshHandler)

	// API routes - Favorites and blocked
	mux.HandleFunc("/api/favorites", s.app.FavoritesHandler.ListHandler)
	mux.HandleFunc("/api/favorites/", s.app.FavoritesHandler.ToggleFavoriteHandler) // POST /{id}/toggle
	mux.HandleFunc("/api/blocked/", s.app.FavoritesHandler.ToggleBlockedHandler)    // POST /{id}/toggle

	// API routes - Settings
	mux.HandleFunc("/api/settings", s.handleSettingsRoute)

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler", s.app.SchedulerHandler.StatusHandler)
	mux.HandleFunc("/api/scheduler/", s.handleSchedulerRoutes)

	// API routes - Cache
	mux.HandleFunc("/api/cache", s.app.CacheHandler.UsageHandler)
	mux.HandleFunc("/api/cache/trim", s.app.CacheHandler.TrimHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)
	mux.HandleFunc("/", s.handleRoot)

	return mux
}

// handleRoot answers the bare root with a pointer to the API and 404s everything else
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	http.Redirect(w, r, "/api/status", http.StatusFound)
}

// handleSettingsRoute routes GET and PUT /api/settings
func (s *Server) handleSettingsRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet: s.app.SettingsHandler.GetHandler,
		http.MethodPut: s.app.SettingsHandler.UpdateHandler,
	})
}

// handleSchedulerRoutes routes /api/scheduler/{start,stop,trigger}
func (s *Server) handleSchedulerRoutes(w http.ResponseWriter, r *http.Request) {
	RouteByAction(w, r, "/api/scheduler/", ActionRouter{
		"start":   s.app.SchedulerHandler.StartHandler,
		"stop":    s.app.SchedulerHandler.StopHandler,
		"trigger": s.app.SchedulerHandler.TriggerHandler,
	}, s.app.APIHandler.NotFoundHandler)
}
