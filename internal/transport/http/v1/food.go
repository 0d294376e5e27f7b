package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetRestaurants proxies the raw restaurant listing.
// GET /api/restaurants?lat=..&lng=..
func (h *Handler) GetRestaurants(c echo.Context) error {
	lat := queryFloat(c, "lat")
	lng := queryFloat(c, "lng")

	data, err := h.service.Restaurants(c.Request().Context(), lat, lng)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, data)
}

// GetMenu proxies the raw menu payload for a restaurant.
// GET /api/menu?restaurantId=..&lat=..&lng=..
func (h *Handler) GetMenu(c echo.Context) error {
	restaurantID := c.QueryParam("restaurantId")
	if restaurantID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "restaurantId is required"})
	}

	data, err := h.service.Menu(c.Request().Context(), restaurantID, queryFloat(c, "lat"), queryFloat(c, "lng"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, data)
}

func queryFloat(c echo.Context, name string) float64 {
	if raw := c.QueryParam(name); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return 0
}
