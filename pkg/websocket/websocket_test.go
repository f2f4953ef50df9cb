package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	assert.NotNil(t, hub)
	assert.Equal(t, int64(10000), hub.config.MaxConnections)
	assert.Equal(t, 30*time.Second, hub.config.HeartbeatInterval)

	hub.Close()
}

func TestHubConnectionManagement(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := &Connection{
		ID:      "test_conn_1",
		IsAlive: true,
		Groups:  map[string]bool{"alerts": true},
	}

	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int64(1), hub.GetConnectionCount())
	assert.Equal(t, 1, hub.GetGroupConnections("alerts"))

	hub.unregister <- conn
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int64(0), hub.GetConnectionCount())
	assert.Equal(t, 0, hub.GetGroupConnections("alerts"))
}

func TestHubGroupManagement(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn1 := &Connection{ID: "test_conn_1", IsAlive: true, Groups: make(map[string]bool), Hub: hub}
	conn2 := &Connection{ID: "test_conn_2", IsAlive: true, Groups: make(map[string]bool), Hub: hub}

	hub.register <- conn1
	hub.register <- conn2
	time.Sleep(100 * time.Millisecond)

	conn1.JoinGroup("location:1")
	conn2.JoinGroup("location:1")
	assert.Equal(t, 2, hub.GetGroupConnections("location:1"))

	conn1.LeaveGroup("location:1")
	assert.Equal(t, 1, hub.GetGroupConnections("location:1"))

	hub.unregister <- conn1
	hub.unregister <- conn2
	time.Sleep(100 * time.Millisecond)
}

func TestGroupMessageRouting(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	member := &Connection{
		ID:      "member",
		IsAlive: true,
		Groups:  map[string]bool{"alerts": true},
		Send:    make(chan []byte, 8),
	}
	outsider := &Connection{
		ID:      "outsider",
		IsAlive: true,
		Groups:  make(map[string]bool),
		Send:    make(chan []byte, 8),
	}

	hub.register <- member
	hub.register <- outsider
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(&Message{Type: "alert_insert", Data: "x", Group: "alerts"})

	assert.Eventually(t, func() bool { return len(member.Send) == 1 },
		time.Second, 5*time.Millisecond)
	assert.Empty(t, outsider.Send)
}

func TestBroadcastAllReachesEveryConnection(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conns := make([]*Connection, 3)
	for i := range conns {
		conns[i] = &Connection{
			ID:      generateConnectionID() + string(rune('a'+i)),
			IsAlive: true,
			Groups:  make(map[string]bool),
			Send:    make(chan []byte, 8),
		}
		hub.register <- conns[i]
	}
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(&Message{Type: "refresh"})

	assert.Eventually(t, func() bool {
		for _, c := range conns {
			if len(c.Send) != 1 {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestDropOnFull(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := &Connection{
		ID:      "slow",
		IsAlive: true,
		Groups:  make(map[string]bool),
		Send:    make(chan []byte, 1),
	}
	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(&Message{Type: "a"})
	hub.Broadcast(&Message{Type: "b"})
	time.Sleep(100 * time.Millisecond)

	// Second message dropped, fanout never blocked.
	assert.Equal(t, 1, len(conn.Send))
}

func TestConnectionMessageHandling(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := &Connection{
		ID:      "test_conn_1",
		IsAlive: true,
		Groups:  make(map[string]bool),
		Send:    make(chan []byte, 8),
		Hub:     hub,
	}

	conn.handlePing()

	conn.handleJoinGroup(Message{Type: "join_group", Data: "location:7"})
	assert.True(t, conn.IsInGroup("location:7"))

	conn.handleLeaveGroup(Message{Type: "leave_group", Data: "location:7"})
	assert.False(t, conn.IsInGroup("location:7"))
}
