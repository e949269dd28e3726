package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"golang.org/x/time/rate"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Localhost daemon; the tray shell may load from file://
	},
}

// throttledEvents may be dropped when they arrive faster than the configured spacing.
// wallpaper_changed and rotation_failed are always delivered.
var throttledEvents = map[interfaces.EventType]bool{
	interfaces.EventSettingsChanged: true,
	interfaces.EventCatalogUpdated:  true,
}

// WSMessage is the envelope for every message sent to clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// HelloMessage is sent once per connection
type HelloMessage struct {
	ServerInstanceID string `json:"serverInstanceId"` // Changes on every daemon start - clients reset state on change
	Version          string `json:"version"`
}

// WebSocketHandler streams daemon events to GUI and tray clients
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	throttler        *rate.Limiter   // nil = no throttling
	allowedEvents    map[string]bool // Whitelist of events to broadcast (empty = allow all)
	serverInstanceID string
}

// NewWebSocketHandler creates the handler and subscribes it to every daemon event.
// eventService may be nil in tests that broadcast directly.
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		allowedEvents:    make(map[string]bool),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	if config != nil {
		for _, eventType := range config.AllowedEvents {
			h.allowedEvents[eventType] = true
		}
		if len(h.allowedEvents) > 0 {
			logger.Debug().
				Int("allowed_events", len(h.allowedEvents)).
				Msg("Initialized event whitelist for WebSocketHandler")
		}

		if config.Throttle != "" {
			if duration, err := time.ParseDuration(config.Throttle); err == nil && duration > 0 {
				h.throttler = rate.NewLimiter(rate.Every(duration), 1)
				logger.Debug().Str("interval", config.Throttle).Msg("WebSocket throttler initialized")
			} else {
				logger.Warn().
					Err(err).
					Str("interval", config.Throttle).
					Msg("Failed to parse websocket throttle interval - throttler disabled")
			}
		}
	}

	if eventService != nil {
		h.SubscribeToEvents()
	}

	return h
}

// ServerInstanceID returns the id generated at startup
func (h *WebSocketHandler) ServerInstanceID() string {
	return h.serverInstanceID
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendHello(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		clientCount := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", clientCount)
	}()

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHandler) sendHello(conn *websocket.Conn) {
	data, err := json.Marshal(WSMessage{
		Type: "hello",
		Payload: HelloMessage{
			ServerInstanceID: h.serverInstanceID,
			Version:          common.GetVersion(),
		},
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal hello message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send hello")
		}
	}
}

// Broadcast sends one message to every connected client
func (h *WebSocketHandler) Broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("Failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to send message to client")
		}
	}
}

// shouldBroadcastEvent applies the whitelist
func (h *WebSocketHandler) shouldBroadcastEvent(eventType interfaces.EventType) bool {
	if len(h.allowedEvents) == 0 {
		return true
	}
	return h.allowedEvents[string(eventType)]
}

// SubscribeToEvents forwards every allowed daemon event to connected clients
func (h *WebSocketHandler) SubscribeToEvents() {
	for _, eventType := range interfaces.AllEventTypes {
		if !h.shouldBroadcastEvent(eventType) {
			continue
		}
		if err := h.eventService.Subscribe(eventType, h.handleEvent); err != nil {
			h.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to subscribe websocket handler")
		}
	}
}

func (h *WebSocketHandler) handleEvent(ctx context.Context, event interfaces.Event) error {
	if h.throttler != nil && throttledEvents[event.Type] && !h.throttler.Allow() {
		h.logger.Trace().Str("event_type", string(event.Type)).Msg("WebSocket event throttled")
		return nil
	}
	h.Broadcast(string(event.Type), event.Payload)
	return nil
}

// Close disconnects every client
func (h *WebSocketHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		mutex := h.clientMutex[conn]
		mutex.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		mutex.Unlock()
		conn.Close()
	}
}
