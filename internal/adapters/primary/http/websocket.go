package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// EventTypeConnected is the first event every stream client receives.
const EventTypeConnected = "connected"

// createUpgrader creates a WebSocket upgrader with proper origin validation
func (s *Server) createUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.isValidOrigin(r)
		},
	}
}

// WebSocketClient is one subscriber of the store event stream. The stream
// is read-only; edits go through the REST API.
type WebSocketClient struct {
	id      string
	conn    *websocket.Conn
	send    chan services.StoreEvent
	manager *ConnectionManager
	logger  *HTTPLogger
}

// handleWebSocket upgrades the request and streams store events
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.createUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	client := &WebSocketClient{
		id:      uuid.New().String(),
		conn:    conn,
		send:    make(chan services.StoreEvent, 256),
		manager: s.connMgr,
		logger:  s.logger,
	}

	// The snapshot goes in before registration so it is always first.
	hello := services.StoreEvent{Type: EventTypeConnected, Timestamp: time.Now()}
	if current, ok := s.store.Current(); ok {
		hello.PresentationID = current.ID
		hello.Presentation = &current
	}
	client.send <- hello

	if !s.connMgr.RegisterConnection(&Connection{ID: client.id, Send: client.send}) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump keeps the connection alive and notices when the peer leaves
func (c *WebSocketClient) readPump() {
	defer func() {
		c.manager.Unregister(c.id)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket connection error: %v", err)
			}
			break
		}
		c.logger.Debug("Ignoring message from stream client %s: %s", c.id, message)
	}
}

// writePump pumps messages to the WebSocket connection
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The channel has been closed
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isValidOrigin validates WebSocket connection origins based on environment
func (s *Server) isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Allow empty origin (same-origin requests)
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid origin URL %q: %v", origin, err)
		return false
	}

	// Development mode: allow localhost and LAN addresses
	if s.config.IsDevelopment() {
		return s.isDevelopmentOrigin(originURL)
	}

	return s.isProductionOrigin(originURL)
}

// isDevelopmentOrigin validates origins for development environment
func (s *Server) isDevelopmentOrigin(originURL *url.URL) bool {
	hostname := originURL.Hostname()

	switch hostname {
	case "localhost", "127.0.0.1", "0.0.0.0":
		return true
	}

	// Allow private network ranges (192.168.x.x, 10.x.x.x, 172.16-31.x.x)
	return strings.HasPrefix(hostname, "192.168.") ||
		strings.HasPrefix(hostname, "10.") ||
		isPrivateClassB(hostname)
}

// isProductionOrigin validates origins for production environment
func (s *Server) isProductionOrigin(originURL *url.URL) bool {
	for _, allowedOrigin := range s.config.GetCORSOrigins() {
		if allowedOrigin == "*" || originURL.String() == allowedOrigin {
			return true
		}

		// Support wildcard subdomains (*.example.com)
		if strings.HasPrefix(allowedOrigin, "*.") {
			domain := strings.TrimPrefix(allowedOrigin, "*")
			if strings.HasSuffix(originURL.Hostname(), domain) {
				return true
			}
		}
	}

	s.logger.Warn("WebSocket connection rejected: origin %s not in whitelist %v",
		originURL.String(), s.config.GetCORSOrigins())
	return false
}

// isPrivateClassB checks for 172.16.0.0 to 172.31.255.255 range
func isPrivateClassB(hostname string) bool {
	if !strings.HasPrefix(hostname, "172.") {
		return false
	}

	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		return false
	}

	switch parts[1] {
	case "16", "17", "18", "19", "20", "21", "22", "23", "24", "25", "26", "27", "28", "29", "30", "31":
		return true
	default:
		return false
	}
}
