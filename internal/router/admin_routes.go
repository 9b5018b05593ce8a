package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/handler"
	"github.com/coogmusic/coog-backend/internal/middleware"
	"github.com/coogmusic/coog-backend/internal/model"
)

// RegisterAdmin registers admin-only endpoints under /admin.  All routes
// require a valid token and the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, f *handler.FollowHandler, auth *middleware.Authenticator) {
	g := e.Group(
		"/admin",
		auth.Require(),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Accounts ----
	g.POST("/users/:userId/deactivate", a.Deactivate)
	g.POST("/users/:userId/activate", a.Activate)

	// ---- Artists ----
	g.POST("/artists/:artistId/recount", f.Recount)
}
