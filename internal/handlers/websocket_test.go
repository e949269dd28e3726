package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
	"github.com/ternarybob/kabegami/internal/services/events"
)

func dialWS(t *testing.T, handler *WebSocketHandler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return handler.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_HelloCarriesInstanceID(t *testing.T) {
	handler := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{})
	conn := dialWS(t, handler)

	msg := readMessage(t, conn)
	assert.Equal(t, "hello", msg.Type)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, handler.ServerInstanceID(), payload["serverInstanceId"])
}

func TestWebSocket_ForwardsWallpaperChanged(t *testing.T) {
	eventService := events.NewService(arbor.NewLogger())
	handler := NewWebSocketHandler(eventService, arbor.NewLogger(), &common.WebSocketConfig{})
	conn := dialWS(t, handler)
	readMessage(t, conn) // hello

	err := eventService.PublishSync(context.Background(), interfaces.Event{
		Type: interfaces.EventWallpaperChanged,
		Payload: models.WallpaperChanged{
			AttemptID: "a1",
			Item:      models.CatalogItem{ID: "1031"},
			Reason:    models.ReasonManual,
		},
	})
	require.NoError(t, err)

	msg := readMessage(t, conn)
	assert.Equal(t, string(interfaces.EventWallpaperChanged), msg.Type)
	payload := msg.Payload.(map[string]interface{})
	assert.Equal(t, "a1", payload["attempt_id"])
	assert.Equal(t, models.ReasonManual, payload["reason"])
}

func TestWebSocket_AllowedEventsFilter(t *testing.T) {
	eventService := events.NewService(arbor.NewLogger())
	handler := NewWebSocketHandler(eventService, arbor.NewLogger(), &common.WebSocketConfig{
		AllowedEvents: []string{string(interfaces.EventRotationFailed)},
	})
	conn := dialWS(t, handler)
	readMessage(t, conn) // hello

	ctx := context.Background()
	require.NoError(t, eventService.PublishSync(ctx, interfaces.Event{Type: interfaces.EventCatalogUpdated, Payload: map[string]interface{}{"count": 3}}))
	require.NoError(t, eventService.PublishSync(ctx, interfaces.Event{Type: interfaces.EventRotationFailed, Payload: models.RotationResult{Outcome: models.OutcomeDownloadFailed}}))

	msg := readMessage(t, conn)
	assert.Equal(t, string(interfaces.EventRotationFailed), msg.Type, "catalog_updated is not whitelisted")
}

func TestWebSocket_ThrottleDropsBurstsOfSettingsChanges(t *testing.T) {
	handler := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{Throttle: "1h"})
	conn := dialWS(t, handler)
	readMessage(t, conn) // hello

	ctx := context.Background()
	require.NoError(t, handler.handleEvent(ctx, interfaces.Event{Type: interfaces.EventSettingsChanged, Payload: models.Settings{RotateIntervalMinutes: 1}}))
	require.NoError(t, handler.handleEvent(ctx, interfaces.Event{Type: interfaces.EventSettingsChanged, Payload: models.Settings{RotateIntervalMinutes: 2}}))
	require.NoError(t, handler.handleEvent(ctx, interfaces.Event{Type: interfaces.EventWallpaperChanged, Payload: models.WallpaperChanged{AttemptID: "a2"}}))

	first := readMessage(t, conn)
	assert.Equal(t, string(interfaces.EventSettingsChanged), first.Type)

	second := readMessage(t, conn)
	assert.Equal(t, string(interfaces.EventWallpaperChanged), second.Type, "the second settings change is throttled, wallpaper changes never are")
}
