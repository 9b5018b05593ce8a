package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/model"
)

// RequireRole admits only callers whose role equals role exactly.  There is
// no hierarchy: admin does not satisfy an artist requirement.  It must run
// after Authenticator.Require; without an identity the request is refused.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok || id.Role != role {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
