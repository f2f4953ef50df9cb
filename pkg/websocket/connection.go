package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Connection is one dashboard client.
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	LastPing time.Time
	IsAlive  bool
	Groups   map[string]bool
	mu       sync.RWMutex
}

func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// Origin checks belong at the reverse proxy in this deployment.
			return true
		},
	}
}

// HandleWebSocket upgrades the HTTP connection and wires it into the hub.
// The client lands in the given groups; more can be joined over the wire.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, groups ...string) {
	upgrader := newUpgrader(hub.config)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("websocket upgrade failed: %v", err)
		return
	}

	connection := &Connection{
		ID:       generateConnectionID(),
		Conn:     conn,
		Send:     make(chan []byte, hub.config.MessageBufferSize),
		Hub:      hub,
		LastPing: time.Now(),
		IsAlive:  true,
		Groups:   make(map[string]bool),
	}
	for _, g := range groups {
		connection.Groups[g] = true
	}

	hub.register <- connection

	go connection.writePump()
	go connection.readPump()
}

func generateConnectionID() string {
	return fmt.Sprintf("conn_%d", time.Now().UnixNano())
}

func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(int64(c.Hub.config.MaxMessageSize))
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.LastPing = time.Now()
		c.mu.Unlock()
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("websocket read error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Connection) writePump() {
	interval := c.Hub.config.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(time.Duration(float64(interval) * 0.9))
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// Drain queued messages into the same frame.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		logrus.Errorf("websocket message parse failed: %v", err)
		return
	}

	switch msg.Type {
	case "ping":
		c.handlePing()
	case "join_group":
		c.handleJoinGroup(msg)
	case "leave_group":
		c.handleLeaveGroup(msg)
	default:
		logrus.Warnf("unknown websocket message type: %s", msg.Type)
	}
}

func (c *Connection) handlePing() {
	c.mu.Lock()
	c.LastPing = time.Now()
	c.mu.Unlock()

	c.reply(Message{Type: "pong", Timestamp: time.Now().Unix()})
}

func (c *Connection) handleJoinGroup(msg Message) {
	group, ok := msg.Data.(string)
	if !ok {
		logrus.Warnf("invalid group name: %v", msg.Data)
		return
	}
	c.JoinGroup(group)
	c.reply(Message{Type: "group_joined", Data: group, Timestamp: time.Now().Unix()})
}

func (c *Connection) handleLeaveGroup(msg Message) {
	group, ok := msg.Data.(string)
	if !ok {
		logrus.Warnf("invalid group name: %v", msg.Data)
		return
	}
	c.LeaveGroup(group)
	c.reply(Message{Type: "group_left", Data: group, Timestamp: time.Now().Unix()})
}

func (c *Connection) reply(message Message) {
	data, _ := json.Marshal(message)
	select {
	case c.Send <- data:
	default:
		logrus.Warnf("connection %s send buffer full", c.ID)
	}
}

// JoinGroup subscribes the connection to a group.
func (c *Connection) JoinGroup(group string) {
	c.mu.Lock()
	c.Groups[group] = true
	c.mu.Unlock()

	c.Hub.mu.Lock()
	if c.Hub.groupConnections[group] == nil {
		c.Hub.groupConnections[group] = make(map[string]bool)
	}
	c.Hub.groupConnections[group][c.ID] = true
	c.Hub.mu.Unlock()
}

// LeaveGroup unsubscribes the connection from a group.
func (c *Connection) LeaveGroup(group string) {
	c.mu.Lock()
	delete(c.Groups, group)
	c.mu.Unlock()

	c.Hub.mu.Lock()
	if c.Hub.groupConnections[group] != nil {
		delete(c.Hub.groupConnections[group], c.ID)
		if len(c.Hub.groupConnections[group]) == 0 {
			delete(c.Hub.groupConnections, group)
		}
	}
	c.Hub.mu.Unlock()
}

// IsInGroup reports whether the connection belongs to a group.
func (c *Connection) IsInGroup(group string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Groups[group]
}

func (c *Connection) lastPing() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LastPing
}

func (c *Connection) setAlive(alive bool) {
	c.mu.Lock()
	c.IsAlive = alive
	c.mu.Unlock()
}
