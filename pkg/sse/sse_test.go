package sse

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, hub *Hub, defaultGroups ...string) *httptest.Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/events", func(c *gin.Context) {
		hub.Serve(c, c.Query("id"), defaultGroups...)
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

// openStream connects a client and feeds every wire line into a channel.
func openStream(t *testing.T, url string) <-chan string {
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	return lines
}

func waitForLine(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed before %q arrived", want)
			}
			if line == want {
				return
			}
		case <-deadline:
			t.Fatalf("%q never arrived on the wire", want)
		}
	}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	assert.Eventually(t, func() bool { return hub.ClientCount() == n },
		time.Second, 10*time.Millisecond)
}

func waitForGroup(t *testing.T, hub *Hub, group string, n int) {
	t.Helper()
	assert.Eventually(t, func() bool { return hub.GroupSize(group) == n },
		time.Second, 10*time.Millisecond)
}

func TestServeDeliversGroupEvents(t *testing.T) {
	hub := NewHub(time.Minute)
	srv := newStreamServer(t, hub)

	lines := openStream(t, srv.URL+"/events?id=c1&group=g")
	waitForLine(t, lines, "retry: 5000")
	waitForGroup(t, hub, "g", 1)

	hub.SendToGroupJSON("g", "alert_insert", map[string]int{"id": 7})

	waitForLine(t, lines, "event: alert_insert")
	waitForLine(t, lines, `data: {"id":7}`)
}

func TestServeJoinsDefaultGroups(t *testing.T) {
	hub := NewHub(time.Minute)
	srv := newStreamServer(t, hub, "alerts")

	// No ?group= query; the default group alone must carry events.
	lines := openStream(t, srv.URL+"/events?id=c1")
	waitForGroup(t, hub, "alerts", 1)

	hub.SendToGroupJSON("alerts", "alert_update", map[string]string{"status": "resolved"})

	waitForLine(t, lines, "event: alert_update")
	waitForLine(t, lines, `data: {"status":"resolved"}`)
}

func TestServeBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub(time.Minute)
	srv := newStreamServer(t, hub)

	a := openStream(t, srv.URL+"/events?id=a")
	b := openStream(t, srv.URL+"/events?id=b")
	waitForClients(t, hub, 2)

	hub.BroadcastJSON("ping", map[string]int{"n": 1})

	waitForLine(t, a, "event: ping")
	waitForLine(t, b, "event: ping")
}

func TestServeCleansUpOnDisconnect(t *testing.T) {
	hub := NewHub(time.Minute)
	srv := newStreamServer(t, hub)

	resp, err := http.Get(srv.URL + "/events?id=c1&group=g")
	require.NoError(t, err)
	waitForClients(t, hub, 1)

	resp.Body.Close()
	waitForClients(t, hub, 0)
}
