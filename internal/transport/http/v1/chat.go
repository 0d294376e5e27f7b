package v1

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/feastline/concierge/internal/domain"
)

// ChatStream runs one chat turn and streams its events as newline-delimited
// JSON, one event per line, ending with the done event.
// POST /api/agent/chat/stream
func (h *Handler) ChatStream(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" && req.Media == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	emit := func(e domain.Event) error {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		if _, err := fmt.Fprintf(resp, "%s\n", payload); err != nil {
			return err
		}
		resp.Flush()
		return nil
	}

	// Errors are already reported in-stream as error events; a write error
	// means the client is gone.
	if err := h.service.Chat(c.Request().Context(), req, emit); err != nil {
		log.Printf("WARN: chat stream for %s ended with error: %v", req.ConversationID, err)
	}
	return nil
}
