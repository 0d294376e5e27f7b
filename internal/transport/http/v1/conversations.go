package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/feastline/concierge/internal/service"
)

type conversationHistoryRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ListConversations returns a page of conversation summaries.
// POST /api/conversation/history
func (h *Handler) ListConversations(c echo.Context) error {
	req := conversationHistoryRequest{Limit: 10}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	page, err := h.service.ListConversations(c.Request().Context(), req.UserID, req.Limit, req.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, page)
}

// GetConversation returns one conversation with its recent messages.
// GET /api/conversation/:conversation_id
func (h *Handler) GetConversation(c echo.Context) error {
	conv, err := h.service.GetConversation(c.Request().Context(), c.Param("conversation_id"))
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, conv)
}

// DeleteConversation removes a conversation and its messages.
// DELETE /api/conversation/:conversation_id
func (h *Handler) DeleteConversation(c echo.Context) error {
	err := h.service.DeleteConversation(c.Request().Context(), c.Param("conversation_id"))
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Conversation deleted successfully",
	})
}
