package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creative-arena-backend/internal/events"

	"github.com/gorilla/websocket"
)

func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contestID := strings.TrimPrefix(r.URL.Path, "/")
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddConnection(contestID, c)
		defer hub.RemoveConnection(contestID, c)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, contestID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + contestID
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func waitForRoom(t *testing.T, hub *Hub, contestID string, size int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize(contestID) != size {
		if time.Now().After(deadline) {
			t.Fatalf("room %s: expected %d connections, got %d", contestID, size, hub.RoomSize(contestID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishReachesOnlyContestRoom(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	a := dial(t, srv, "contest-a")
	b := dial(t, srv, "contest-b")
	waitForRoom(t, hub, "contest-a", 1)
	waitForRoom(t, hub, "contest-b", 1)

	err := hub.Publish(context.Background(), events.Event{
		Type:      events.WinnerDeclared,
		ContestID: "contest-a",
		Data:      map[string]string{"submissionId": "s2"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := a.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type string       `json:"type"`
		Data events.Event `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != events.WinnerDeclared || msg.Data.ContestID != "contest-a" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	_ = b.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Fatalf("contest-b should not receive contest-a events")
	}
}

func TestHub_RemovesClosedConnections(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	c := dial(t, srv, "contest-a")
	waitForRoom(t, hub, "contest-a", 1)

	c.Close()
	waitForRoom(t, hub, "contest-a", 0)

	hub.Broadcast("contest-a", Message{Type: "noop"})
}
