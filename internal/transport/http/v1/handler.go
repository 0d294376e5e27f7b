// Package v1 provides the HTTP handlers for the assistant API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/feastline/concierge/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Conversational agent
	e.POST("/api/agent/chat/stream", h.ChatStream)

	// Orders
	e.POST("/create_order", h.CreateOrder)
	e.GET("/get_order/:order_id", h.GetOrder)

	// Conversation history
	e.POST("/api/conversation/history", h.ListConversations)
	e.GET("/api/conversation/:conversation_id", h.GetConversation)
	e.DELETE("/api/conversation/:conversation_id", h.DeleteConversation)

	// Raw food-data proxies for the frontend
	e.GET("/api/restaurants", h.GetRestaurants)
	e.GET("/api/menu", h.GetMenu)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
