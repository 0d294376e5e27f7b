package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/feastline/concierge/internal/domain"
	"github.com/feastline/concierge/internal/service"
)

type createOrderRequest struct {
	Foods []domain.OrderItem `json:"foods"`
}

// CreateOrder creates an order from the submitted line items.
// POST /create_order
func (h *Handler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(req.Foods) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "foods is required"})
	}

	order, err := h.service.CreateOrder(c.Request().Context(), req.Foods)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"order_id":    order.OrderID,
		"foods":       order.Items,
		"total_price": order.TotalPrice,
	})
}

// GetOrder returns a stored order.
// GET /get_order/:order_id
func (h *Handler) GetOrder(c echo.Context) error {
	order, err := h.service.GetOrder(c.Request().Context(), c.Param("order_id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, order)
}
