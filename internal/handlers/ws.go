package handlers

import (
	"log/slog"
	"net/http"

	"creative-arena-backend/internal/services"
	"creative-arena-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub            *ws.Hub
	contestService *services.ContestService
}

func NewWSHandler(hub *ws.Hub, contestService *services.ContestService) *WSHandler {
	return &WSHandler{hub: hub, contestService: contestService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      Live contest updates
// @Description  Connect via WebSocket to receive events for one contest
// @Tags         websocket
// @Param        id path string true "Contest ID"
// @Failure      404 {object} ErrorResponse
// @Router       /ws/contests/{id} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	contest, err := h.contestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.hub.AddConnection(contest.ID, conn)
	defer h.hub.RemoveConnection(contest.ID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
