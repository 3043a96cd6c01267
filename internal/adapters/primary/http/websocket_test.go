package http

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

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

func dialEvents(t *testing.T, f *testFixture) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.server.StartEventStream(ctx)

	ts := httptest.NewServer(f.handler)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) services.StoreEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event services.StoreEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestWebSocket_StreamsStoreEvents(t *testing.T) {
	f := newTestFixture(t)
	p := f.seed()

	conn := dialEvents(t, f)

	hello := readEvent(t, conn)
	assert.Equal(t, EventTypeConnected, hello.Type)
	require.NotNil(t, hello.Presentation)
	assert.Equal(t, p.ID, hello.Presentation.ID)

	f.store.Dispatch(services.UpdatePresentation{Presentation: entities.Presentation{
		ID:     p.ID,
		Title:  "Renamed",
		Slides: p.Slides,
	}})

	event := readEvent(t, conn)
	assert.Equal(t, services.UpdatePresentation{}.Type(), event.Type)
	assert.Equal(t, p.ID, event.PresentationID)
	require.NotNil(t, event.Presentation)
	assert.Equal(t, "Renamed", event.Presentation.Title)
}

func TestWebSocket_HelloWithoutCurrent(t *testing.T) {
	f := newTestFixture(t)

	conn := dialEvents(t, f)

	hello := readEvent(t, conn)
	assert.Equal(t, EventTypeConnected, hello.Type)
	assert.Nil(t, hello.Presentation)
	assert.Empty(t, hello.PresentationID)
}

func TestIsValidOrigin(t *testing.T) {
	dev := newTestFixture(t).server

	prodConfig := getTestServerConfig()
	prodConfig.Environment = "production"
	prodConfig.CORSOrigins = []string{"https://slides.example.com", "*.example.org"}
	prod := NewServer(Dependencies{Presentations: dev.presentations}, prodConfig, nil)

	tests := []struct {
		name   string
		server *Server
		origin string
		want   bool
	}{
		{"empty origin", prod, "", true},
		{"dev localhost", dev, "http://localhost:5173", true},
		{"dev lan", dev, "http://192.168.1.20:3000", true},
		{"dev private class b", dev, "http://172.20.0.4", true},
		{"dev public", dev, "http://203.0.113.9", false},
		{"prod exact", prod, "https://slides.example.com", true},
		{"prod wildcard", prod, "https://app.example.org", true},
		{"prod unknown", prod, "https://evil.example.net", false},
		{"malformed", prod, "://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, tt.server.isValidOrigin(req))
		})
	}
}

func TestIsPrivateClassB(t *testing.T) {
	assert.True(t, isPrivateClassB("172.16.0.1"))
	assert.True(t, isPrivateClassB("172.31.255.255"))
	assert.False(t, isPrivateClassB("172.32.0.1"))
	assert.False(t, isPrivateClassB("10.0.0.1"))
}
