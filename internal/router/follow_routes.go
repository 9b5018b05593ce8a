package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/handler"
	"github.com/coogmusic/coog-backend/internal/middleware"
	"github.com/coogmusic/coog-backend/internal/model"
)

// RegisterFollow registers the follow relationship endpoints.  Every role
// may follow; the handler additionally checks that :userId is the caller
// unless the caller is an admin.
func RegisterFollow(e *echo.Echo, h *handler.FollowHandler, auth *middleware.Authenticator, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/follow/user",
		auth.Require(model.RoleListener, model.RoleArtist, model.RoleAdmin),
		limiter,
	)
	g.POST("/:userId/follower/:artistId", h.Follow)
	g.POST("/:userId/unfollow/:artistId", h.Unfollow)
	g.GET("/:userId/follow-status/:artistId", h.Status)
}
