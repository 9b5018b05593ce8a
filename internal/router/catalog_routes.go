package router

import (
	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/handler"
	"github.com/coogmusic/coog-backend/internal/middleware"
)

// RegisterCatalog registers artist profile reads and play tracking.  The
// profile is public and served through the response cache; follow writes
// invalidate the cached entry.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, auth *middleware.Authenticator, cache, limiter echo.MiddlewareFunc) {
	e.GET("/artists/:artistId", h.GetArtist, cache)
	e.POST("/songs/:songId/play", h.PlaySong, auth.Require(), limiter)
}
