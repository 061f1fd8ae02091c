package v1

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/evergreenbh/intake/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are handled by the gateway in front of this service.
		return true
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 1 << 16
)

// HandleWebSocket upgrades the connection and processes turns over it.
// The client sends TurnRequest frames; each turn is answered by ordered
// delta frames and a terminal done frame. Turns on one connection are
// processed sequentially, which preserves the per-conversation ordering
// guarantee.
// GET /v1/conversations/:conversation_id/ws
func (h *Handler) HandleWebSocket(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ERROR: failed to upgrade websocket: %v", err)
		return err
	}
	defer ws.Close()

	ws.SetReadLimit(wsReadLimit)

	writeChunk := func(chunk domain.StreamChunk) error {
		ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return ws.WriteJSON(chunk)
	}

	ctx := c.Request().Context()
	for {
		var req domain.TurnRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARN: websocket read error: %v", err)
			}
			return nil
		}
		if req.Text == "" {
			_ = writeChunk(domain.StreamChunk{Type: domain.ChunkError, Error: "text is required"})
			continue
		}

		if _, err := h.service.PostTurn(ctx, conversationID, req.Text, writeChunk); err != nil {
			_ = writeChunk(domain.StreamChunk{Type: domain.ChunkError, Error: err.Error()})
		}
	}
}
