package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is the wire format pushed to dashboard clients. Group routes
// the message to one subscription group; an empty group broadcasts.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
	Group     string      `json:"group,omitempty"`
}

// Hub manages all WebSocket connections and their group memberships.
type Hub struct {
	connections      map[string]*Connection
	groupConnections map[string]map[string]bool

	broadcast  chan *Message
	register   chan *Connection
	unregister chan *Connection

	connectionCount int64
	config          *Config
	mu              sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// Config tunes the hub and its connections.
type Config struct {
	MaxConnections    int64
	HeartbeatInterval time.Duration
	ConnectionTimeout time.Duration
	MessageBufferSize int
	ReadBufferSize    int
	WriteBufferSize   int
	MaxMessageSize    int
	MessageQueueSize  int
	// Drop the message when a connection's send buffer is full. A slow
	// dashboard client recovers through full refresh, never by blocking
	// the fanout.
	DropOnFull bool
}

func DefaultConfig() *Config {
	return &Config{
		MaxConnections:    10000,
		HeartbeatInterval: 30 * time.Second,
		ConnectionTimeout: 60 * time.Second,
		MessageBufferSize: 256,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		MaxMessageSize:    4096,
		MessageQueueSize:  1000,
		DropOnFull:        true,
	}
}

// NewHub creates a hub and starts its run loop.
func NewHub(config *Config) *Hub {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := &Hub{
		connections:      make(map[string]*Connection),
		groupConnections: make(map[string]map[string]bool),
		broadcast:        make(chan *Message, config.MessageQueueSize),
		register:         make(chan *Connection, 256),
		unregister:       make(chan *Connection, 256),
		config:           config,
		ctx:              ctx,
		cancel:           cancel,
	}

	go hub.run()
	return hub
}

// Broadcast queues a message for fanout. Never blocks the caller.
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		logrus.Warn("websocket broadcast queue full, message dropped")
	}
}

func (h *Hub) run() {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.register:
			h.registerConnection(conn)
		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		case message := <-h.broadcast:
			if message.Timestamp == 0 {
				message.Timestamp = time.Now().Unix()
			}
			data, err := json.Marshal(message)
			if err != nil {
				logrus.Errorf("websocket message marshal failed: %v", err)
				continue
			}
			if message.Group != "" {
				h.sendToGroup(message.Group, data)
			} else {
				h.sendToAll(data)
			}
		case <-ticker.C:
			h.checkHeartbeats()
		}
	}
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
		conn.Conn.Close()
		logrus.Warnf("websocket connection limit reached: %d", h.config.MaxConnections)
		return
	}

	h.connections[conn.ID] = conn
	atomic.AddInt64(&h.connectionCount, 1)

	for group := range conn.Groups {
		if h.groupConnections[group] == nil {
			h.groupConnections[group] = make(map[string]bool)
		}
		h.groupConnections[group][conn.ID] = true
	}

	logrus.Infof("websocket connection registered: %s, connections: %d",
		conn.ID, atomic.LoadInt64(&h.connectionCount))
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[conn.ID]; !exists {
		return
	}
	delete(h.connections, conn.ID)
	atomic.AddInt64(&h.connectionCount, -1)

	for group := range conn.Groups {
		if h.groupConnections[group] != nil {
			delete(h.groupConnections[group], conn.ID)
			if len(h.groupConnections[group]) == 0 {
				delete(h.groupConnections, group)
			}
		}
	}

	close(conn.Send)
	logrus.Infof("websocket connection unregistered: %s, connections: %d",
		conn.ID, atomic.LoadInt64(&h.connectionCount))
}

func (h *Hub) sendToGroup(group string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID := range h.groupConnections[group] {
		if conn, ok := h.connections[connID]; ok && conn.IsAlive {
			h.trySend(conn, data)
		}
	}
}

func (h *Hub) sendToAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections {
		if conn.IsAlive {
			h.trySend(conn, data)
		}
	}
}

func (h *Hub) trySend(conn *Connection, data []byte) {
	if h.config.DropOnFull {
		select {
		case conn.Send <- data:
		default:
			logrus.Debugf("connection %s send buffer full, message dropped", conn.ID)
		}
		return
	}
	conn.Send <- data
}

func (h *Hub) checkHeartbeats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	for _, conn := range h.connections {
		if now.Sub(conn.lastPing()) > h.config.ConnectionTimeout {
			logrus.Warnf("connection %s heartbeat timed out, closing", conn.ID)
			conn.setAlive(false)
			conn.Conn.Close()
		}
	}
}

// GetConnectionCount returns the current number of connections.
func (h *Hub) GetConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

// GetGroupConnections returns the number of connections in a group.
func (h *Hub) GetGroupConnections(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groupConnections[group])
}

// Close shuts the hub down and closes every connection.
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	for _, conn := range h.connections {
		conn.Conn.Close()
	}
	h.mu.Unlock()

	logrus.Info("websocket hub closed")
}
