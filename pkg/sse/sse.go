package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Client is one event-stream subscriber.
type Client struct {
	id     string
	groups map[string]bool
	ch     chan string
	done   chan struct{}
}

// Hub fans server-sent events out to subscribed clients. It mirrors the
// websocket hub's group model so the dashboard can fall back to SSE
// behind proxies that break websockets.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	groups   map[string]map[string]bool // group -> clientID set
	interval time.Duration
	retryMs  int
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		clients:  make(map[string]*Client),
		groups:   make(map[string]map[string]bool),
		interval: interval,
		retryMs:  5000,
	}
}

func (h *Hub) AddClient(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Client{id: id, groups: make(map[string]bool), ch: make(chan string, 64), done: make(chan struct{})}
	h.clients[id] = c
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		close(c.done)
		for g := range c.groups {
			delete(h.groups[g], id)
		}
		delete(h.clients, id)
	}
	h.mu.Unlock()
}

func (h *Hub) Join(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	c.groups[group] = true
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]bool)
	}
	h.groups[group][id] = true
}

func (h *Hub) Leave(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(c.groups, group)
	if h.groups[group] != nil {
		delete(h.groups[group], id)
	}
}

// BroadcastJSON pushes a named event to every client.
func (h *Hub) BroadcastJSON(event string, v interface{}) {
	b, _ := json.Marshal(v)
	h.sendAll(formatEvent(event, string(b)))
}

// SendToGroupJSON pushes a named event to one group.
func (h *Hub) SendToGroupJSON(group, event string, v interface{}) {
	b, _ := json.Marshal(v)
	msg := formatEvent(event, string(b))

	h.mu.RLock()
	for id := range h.groups[group] {
		if c := h.clients[id]; c != nil {
			select {
			case c.ch <- msg:
			default:
			}
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) sendAll(msg string) {
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.ch <- msg:
		default:
		}
	}
	h.mu.RUnlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of clients joined to a group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func formatEvent(event, data string) string {
	if event == "" {
		return fmt.Sprintf("data: %s\n\n", data)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}

// Serve holds the response open and streams events until the client
// goes away. The client is joined to every group passed in; a ?group=
// query joins one more.
func (h *Hub) Serve(c *gin.Context, clientID string, groups ...string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	flusher.Flush()

	client := h.AddClient(clientID)
	defer h.RemoveClient(clientID)
	for _, g := range groups {
		h.Join(clientID, g)
	}
	if gid := c.Query("group"); gid != "" {
		h.Join(clientID, gid)
	}

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-client.ch:
			c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}
