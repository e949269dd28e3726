package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/ternarybob/kabegami/internal/handlers"
)

type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers
type MethodRouter map[string]RouteHandler

// RouteByMethod dispatches on r.Method. Unlisted methods get 405 with an Allow header.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		allowed := make([]string, 0, len(routes))
		for method := range routes {
			allowed = append(allowed, method)
		}
		sort.Strings(allowed)
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		handlers.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	handler(w, r)
}

// ActionRouter maps the single path segment after a prefix to its handler,
// e.g. "start" under "/api/scheduler/"
type ActionRouter map[string]RouteHandler

// RouteByAction dispatches prefix+action. A trailing slash is tolerated; nested
// paths and unknown actions go to notFound.
func RouteByAction(w http.ResponseWriter, r *http.Request, prefix string, actions ActionRouter, notFound RouteHandler) {
	action, ok := strings.CutPrefix(r.URL.Path, prefix)
	action = strings.TrimSuffix(action, "/")
	if !ok || action == "" || strings.Contains(action, "/") {
		notFound(w, r)
		return
	}

	handler, ok := actions[action]
	if !ok {
		notFound(w, r)
		return
	}
	handler(w, r)
}
