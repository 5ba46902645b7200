package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"creative-arena-backend/internal/events"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Hub groups live connections into one room per contest.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]*conn
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]*conn),
	}
}

func (h *Hub) AddConnection(contestID string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[contestID] == nil {
		h.rooms[contestID] = make(map[*websocket.Conn]*conn)
	}
	h.rooms[contestID][ws] = &conn{ws: ws}
	slog.Debug("ws client connected", "contest_id", contestID, "total", len(h.rooms[contestID]))
}

func (h *Hub) RemoveConnection(contestID string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(contestID, ws)
}

func (h *Hub) removeLocked(contestID string, ws *websocket.Conn) {
	conns, ok := h.rooms[contestID]
	if !ok {
		return
	}
	if _, ok := conns[ws]; !ok {
		return
	}
	delete(conns, ws)
	ws.Close()
	if len(conns) == 0 {
		delete(h.rooms, contestID)
	}
	slog.Debug("ws client disconnected", "contest_id", contestID)
}

func (h *Hub) RoomSize(contestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[contestID])
}

func (h *Hub) Broadcast(contestID string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("ws marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.rooms[contestID]))
	for _, c := range h.rooms[contestID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			slog.Warn("ws write failed", "contest_id", contestID, "error", err)
			h.RemoveConnection(contestID, c.ws)
		}
	}
}

// Publish makes the hub an events sink.
func (h *Hub) Publish(_ context.Context, event events.Event) error {
	if event.ContestID == "" {
		return nil
	}
	h.Broadcast(event.ContestID, Message{Type: event.Type, Data: event})
	return nil
}

var _ events.Publisher = (*Hub)(nil)
