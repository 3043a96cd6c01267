package http

import (
	"context"
	"sync"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

// Connection represents a WebSocket connection
type Connection struct {
	ID   string
	Send chan services.StoreEvent
}

// ConnectionManager fans store events out to WebSocket connections
type ConnectionManager struct {
	connections map[string]*Connection
	broadcast   chan services.StoreEvent
	register    chan *Connection
	unregister  chan string
	mu          sync.RWMutex
	done        chan struct{}
	metrics     *monitoring.Metrics
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(metrics *monitoring.Metrics) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		broadcast:   make(chan services.StoreEvent, 256),
		register:    make(chan *Connection),
		unregister:  make(chan string),
		done:        make(chan struct{}),
		metrics:     metrics,
	}
}

// Run starts the connection manager main loop
func (cm *ConnectionManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(cm.done)
			cm.CloseAll()
			return

		case conn := <-cm.register:
			cm.mu.Lock()
			cm.connections[conn.ID] = conn
			cm.mu.Unlock()
			cm.metrics.ClientConnected()

		case id := <-cm.unregister:
			cm.remove(id)

		case event := <-cm.broadcast:
			cm.mu.Lock()
			for id, conn := range cm.connections {
				select {
				case conn.Send <- event:
				default:
					// Client too slow, close connection
					close(conn.Send)
					delete(cm.connections, id)
					cm.metrics.ClientDisconnected()
				}
			}
			cm.mu.Unlock()
		}
	}
}

func (cm *ConnectionManager) remove(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if conn, ok := cm.connections[id]; ok {
		delete(cm.connections, id)
		close(conn.Send)
		cm.metrics.ClientDisconnected()
	}
}

// RegisterConnection adds a new connection. It returns false once the
// manager has stopped.
func (cm *ConnectionManager) RegisterConnection(conn *Connection) bool {
	select {
	case cm.register <- conn:
		return true
	case <-cm.done:
		return false
	}
}

// Unregister removes a connection
func (cm *ConnectionManager) Unregister(connID string) {
	select {
	case cm.unregister <- connID:
	case <-cm.done:
	}
}

// Broadcast sends an event to all connections
func (cm *ConnectionManager) Broadcast(event services.StoreEvent) {
	select {
	case cm.broadcast <- event:
	case <-cm.done:
		// Manager is shutting down
	}
}

// Count returns the number of registered connections.
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll closes all connections
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for id, conn := range cm.connections {
		close(conn.Send)
		delete(cm.connections, id)
		cm.metrics.ClientDisconnected()
	}
}
