// Package http provides the HTTP server for the assistant backend.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/feastline/concierge/internal/service"
	v1 "github.com/feastline/concierge/internal/transport/http/v1"
)

// NewServer creates and configures the public HTTP server: the chat stream,
// order endpoints, conversation history, and raw food-data proxies.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1.NewHandler(svc).RegisterRoutes(e)

	return e
}
