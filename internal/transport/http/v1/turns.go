package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/evergreenbh/intake/internal/domain"
)

// PostTurn processes one user turn. With ?stream=true the reply is sent as
// an SSE stream of delta frames terminated by a done frame carrying the
// turn metadata; otherwise the final TurnResult is returned as JSON.
// POST /v1/conversations/:conversation_id/turns
func (h *Handler) PostTurn(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	var req domain.TurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}

	if c.QueryParam("stream") == "true" {
		return h.postTurnStream(c, conversationID, req.Text)
	}

	result, err := h.service.PostTurn(c.Request().Context(), conversationID, req.Text, nil)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) postTurnStream(c echo.Context, conversationID, text string) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	flusher, _ := resp.Writer.(http.Flusher)

	writeChunk := func(chunk domain.StreamChunk) error {
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", data); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	_, err := h.service.PostTurn(c.Request().Context(), conversationID, text, writeChunk)
	if err != nil {
		// Headers are already sent; deliver the failure as an error frame.
		_ = writeChunk(domain.StreamChunk{Type: domain.ChunkError, Error: err.Error()})
	}
	return nil
}
