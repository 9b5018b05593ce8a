package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/handler"
	"github.com/coogmusic/coog-backend/internal/metrics"
	"github.com/coogmusic/coog-backend/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// the liveness check and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers registration, login and the identity echo.
// Register and login share the login limiter so password guessing is
// throttled per client IP.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth *middleware.Authenticator, loginLimiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, loginLimiter)
	g.POST("/login", a.Login, loginLimiter)

	// any authenticated role
	g.GET("/me", a.Me, auth.Require())
}
