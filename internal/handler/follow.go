package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/middleware"
	"github.com/coogmusic/coog-backend/internal/model"
	"github.com/coogmusic/coog-backend/internal/repository"
	"github.com/coogmusic/coog-backend/internal/service"
)

// FollowManager is implemented by *service.FollowService.
type FollowManager interface {
	Follow(ctx context.Context, userID, artistID uint64) (service.FollowResult, error)
	Unfollow(ctx context.Context, userID, artistID uint64) (service.FollowResult, error)
	Status(ctx context.Context, userID, artistID uint64) (model.FollowStatus, error)
	Recount(ctx context.Context, artistID uint64) (uint64, error)
}

// PathInvalidator drops cached responses for a URL path.
// *middleware.CacheInvalidator implements it.
type PathInvalidator interface {
	InvalidatePath(ctx context.Context, path string)
}

type FollowHandler struct {
	Follows FollowManager
	Cache   PathInvalidator // optional
	Timeout time.Duration
	Log     *slog.Logger
}

func NewFollowHandler(follows FollowManager, cache PathInvalidator, log *slog.Logger) *FollowHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FollowHandler{Follows: follows, Cache: cache, Timeout: 5 * time.Second, Log: log}
}

type followResp struct {
	Message       string             `json:"message"`
	Status        model.FollowStatus `json:"status"`
	FollowerCount uint64             `json:"followerCount"`
}

// Follow handles POST /follow/user/:userId/follower/:artistId.
func (h *FollowHandler) Follow(c echo.Context) error {
	userID, artistID, ok := h.pair(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Follows.Follow(ctx, userID, artistID)
	if err != nil {
		return h.fail(c, err)
	}
	h.invalidate(ctx, artistID)
	return c.JSON(http.StatusOK, followResp{
		Message:       "artist followed",
		Status:        res.Status,
		FollowerCount: res.FollowerCount,
	})
}

// Unfollow handles POST /follow/user/:userId/unfollow/:artistId.
func (h *FollowHandler) Unfollow(c echo.Context) error {
	userID, artistID, ok := h.pair(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Follows.Unfollow(ctx, userID, artistID)
	if err != nil {
		return h.fail(c, err)
	}
	h.invalidate(ctx, artistID)
	return c.JSON(http.StatusOK, followResp{
		Message:       "artist unfollowed",
		Status:        res.Status,
		FollowerCount: res.FollowerCount,
	})
}

// Status handles GET /follow/user/:userId/follow-status/:artistId.
func (h *FollowHandler) Status(c echo.Context) error {
	userID, artistID, ok := h.pair(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	st, err := h.Follows.Status(ctx, userID, artistID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": st})
}

// Recount handles POST /admin/artists/:artistId/recount.
func (h *FollowHandler) Recount(c echo.Context) error {
	artistID, ok := pathID(c, "artistId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid artist id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	n, err := h.Follows.Recount(ctx, artistID)
	if err != nil {
		return h.fail(c, err)
	}
	h.invalidate(ctx, artistID)
	return c.JSON(http.StatusOK, echo.Map{"artistId": artistID, "followerCount": n})
}

// pair reads both path ids and checks that the caller acts for itself.
// Admins may act for any user.  When ok is false the error response has
// already been written.
func (h *FollowHandler) pair(c echo.Context) (userID, artistID uint64, ok bool) {
	if userID, ok = pathID(c, "userId"); !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
		return 0, 0, false
	}
	if artistID, ok = pathID(c, "artistId"); !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid artist id"})
		return 0, 0, false
	}
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
		return 0, 0, false
	}
	if id.UserID != userID && id.Role != model.RoleAdmin {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return 0, 0, false
	}
	return userID, artistID, true
}

func (h *FollowHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrAlreadyFollowing):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already following"})
	case errors.Is(err, service.ErrNotFollowing):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not following"})
	case errors.Is(err, service.ErrCannotFollowSelf):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot follow yourself"})
	case errors.Is(err, repository.ErrArtistNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "artist not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	h.Log.Error("follow operation failed", "path", c.Request().URL.Path, "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

func (h *FollowHandler) invalidate(ctx context.Context, artistID uint64) {
	if h.Cache != nil {
		h.Cache.InvalidatePath(ctx, "/artists/"+strconv.FormatUint(artistID, 10))
	}
}
