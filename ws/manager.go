package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is the envelope pushed to dashboard clients.
type Event struct {
	Type      string      `json:"type"` // device_state | occupancy | energy_saving | hourly_run
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	mu   sync.Mutex // gorilla connections allow one concurrent writer
	conn *websocket.Conn
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Manager keeps track of dashboard websocket connections and fans events out to them.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*client // clientID -> conn
	log     *zap.Logger
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{clients: make(map[string]*client), log: log.Named("ws")}
}

// Register registers a client connection, replacing any existing one.
func (m *Manager) Register(clientID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.clients[clientID]; ok && old.conn != conn {
		// close old connection to avoid leaks
		_ = old.conn.Close()
	}
	m.clients[clientID] = &client{conn: conn}
}

// Unregister removes a client connection. It does nothing when clientID has
// since been registered with a different connection.
func (m *Manager) Unregister(clientID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[clientID]; ok && c.conn == conn {
		_ = c.conn.Close()
		delete(m.clients, clientID)
	}
}

// SendTo sends a text message to one client if connected.
func (m *Manager) SendTo(clientID string, payload []byte) error {
	m.mu.RLock()
	c, ok := m.clients[clientID]
	m.mu.RUnlock()
	if !ok || c == nil {
		return errors.New("client not connected")
	}
	return c.write(payload)
}

// Publish broadcasts an event to every connected client. Clients that fail
// to receive it are dropped.
func (m *Manager) Publish(eventType string, data interface{}) {
	if m == nil {
		return
	}
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		m.log.Warn("marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	m.mu.RLock()
	targets := make(map[string]*client, len(m.clients))
	for id, c := range m.clients {
		targets[id] = c
	}
	m.mu.RUnlock()

	for id, c := range targets {
		if err := c.write(payload); err != nil {
			m.log.Debug("dropping client", zap.String("client_id", id), zap.Error(err))
			m.Unregister(id, c.conn)
		}
	}
}

// IsConnected returns whether a client is currently connected.
func (m *Manager) IsConnected(clientID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[clientID]
	return ok
}

// List returns a copy of current connected client IDs.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	return ids
}
