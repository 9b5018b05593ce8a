package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/middleware"
	"github.com/coogmusic/coog-backend/internal/model"
	"github.com/coogmusic/coog-backend/internal/repository"
)

// AccountStatusSetter is implemented by *repository.UserRepo.
type AccountStatusSetter interface {
	SetStatus(ctx context.Context, id uint64, status model.AccountStatus) error
}

// AdminHandler serves account moderation endpoints.  Routes must sit behind
// RequireRole(admin).
type AdminHandler struct {
	Users   AccountStatusSetter
	Timeout time.Duration
	Log     *slog.Logger
}

func NewAdminHandler(users AccountStatusSetter, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{Users: users, Timeout: 5 * time.Second, Log: log}
}

// Deactivate handles POST /admin/users/:userId/deactivate.
func (h *AdminHandler) Deactivate(c echo.Context) error {
	return h.setStatus(c, model.StatusDeactivated)
}

// Activate handles POST /admin/users/:userId/activate.
func (h *AdminHandler) Activate(c echo.Context) error {
	return h.setStatus(c, model.StatusActive)
}

func (h *AdminHandler) setStatus(c echo.Context, status model.AccountStatus) error {
	id, ok := pathID(c, "userId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if caller, ok := middleware.CurrentIdentity(c); ok && caller.UserID == id && status == model.StatusDeactivated {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Users.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.Log.Error("set account status failed", "user_id", id, "status", status, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Log.Info("account status changed", "user_id", id, "status", status)
	return c.JSON(http.StatusOK, echo.Map{"userId": id, "status": status})
}
