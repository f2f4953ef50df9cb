package realtime

import (
	"fmt"
	"strings"

	"CampusSOS/internal/feed"
	"CampusSOS/pkg/metrics"
	"CampusSOS/pkg/sse"
	"CampusSOS/pkg/websocket"
)

// Dashboard push groups. Every dashboard joins GroupAlerts; a client
// tracking one alert's movement additionally joins LocationGroup(id).
const GroupAlerts = "alerts"

func LocationGroup(alertID uint) string {
	return fmt.Sprintf("location:%d", alertID)
}

// Bridge fans change feed events out to the websocket and SSE hubs so
// browser clients see the same stream in-process subscribers do.
type Bridge struct {
	feed feed.Feed
	ws   *websocket.Hub
	sse  *sse.Hub
	m    *metrics.Metrics

	sub *feed.Subscription
}

func NewBridge(f feed.Feed, ws *websocket.Hub, sseHub *sse.Hub, m *metrics.Metrics) *Bridge {
	return &Bridge{feed: f, ws: ws, sse: sseHub, m: m}
}

// Start opens the feed subscription. Events arriving before Start are
// not replayed; clients recover through full refresh.
func (b *Bridge) Start() {
	b.sub = b.feed.Subscribe(feed.Filter{}, b.handle)
}

// Close releases the feed subscription.
func (b *Bridge) Close() {
	b.sub.Release()
}

func (b *Bridge) handle(e feed.Event) {
	if b.m != nil {
		b.m.RecordFeedEvent(e.Table, string(e.Type))
	}

	group := GroupAlerts
	if e.Table == feed.TableLocationUpdates {
		loc := e.Location()
		if loc == nil {
			return
		}
		group = LocationGroup(loc.AlertID)
	}

	msgType := messageType(e)
	if b.ws != nil {
		b.ws.Broadcast(&websocket.Message{Type: msgType, Data: e.New, Group: group})
	}
	if b.sse != nil {
		b.sse.SendToGroupJSON(group, msgType, e.New)
	}
}

// messageType maps a feed event to the wire message name, e.g.
// alerts INSERT -> alert_insert.
func messageType(e feed.Event) string {
	table := strings.TrimSuffix(e.Table, "s")
	if e.Table == feed.TableLocationUpdates {
		table = "location"
	}
	return table + "_" + strings.ToLower(string(e.Type))
}
