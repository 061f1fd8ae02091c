// Package http provides the HTTP server for the intake service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/evergreenbh/intake/internal/service"
	v1 "github.com/evergreenbh/intake/internal/transport/http/v1"
)

// NewServer creates and configures the HTTP server. It serves the
// presentation-layer API (conversations, turns, streaming) and the
// read-only audit endpoints for clinical tooling.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)

	return e
}
