package handlers

import (
	"strconv"

	"CampusSOS/internal/realtime"
	"CampusSOS/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleWebSocket upgrades the dashboard connection. Every client joins
// the alerts group; ?alert_id= additionally joins that alert's movement
// group.
func (h *Handlers) handleWebSocket(c *gin.Context) {
	groups := []string{realtime.GroupAlerts}
	if raw := c.Query("alert_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			groups = append(groups, realtime.LocationGroup(uint(id)))
		}
	}
	websocket.HandleWebSocket(h.hub, c.Writer, c.Request, groups...)
}

// handleEvents is the SSE fallback for clients behind websocket-hostile
// proxies. It speaks the same groups as the websocket hub: every client
// joins the alerts group, ?group= joins one more (movement groups).
func (h *Handlers) handleEvents(c *gin.Context) {
	clientID := uuid.NewString()
	h.sse.Serve(c, clientID, realtime.GroupAlerts)
}
