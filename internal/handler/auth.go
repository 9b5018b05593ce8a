package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/metrics"
	"github.com/coogmusic/coog-backend/internal/middleware"
	"github.com/coogmusic/coog-backend/internal/model"
	"github.com/coogmusic/coog-backend/internal/repository"
	"github.com/coogmusic/coog-backend/internal/utils"
)

// UserStore is the slice of *repository.UserRepo the auth endpoints use.
type UserStore interface {
	Create(ctx context.Context, in repository.NewUser, cost int) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// TokenIssuer signs access tokens.  *utils.TokenCodec implements it.
type TokenIssuer interface {
	Issue(userID uint64, role model.Role) (utils.AccessToken, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users      UserStore
	Tokens     TokenIssuer
	BcryptCost int
	Timeout    time.Duration
	Log        *slog.Logger
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, bcryptCost int, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	// build the timing pad now so the first unknown-user login is not slower
	utils.BurnPasswordCheck("", bcryptCost)
	return &AuthHandler{Users: users, Tokens: tokens, BcryptCost: bcryptCost, Timeout: 5 * time.Second, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	Role       string `json:"role"` // listener | artist | admin
	ArtistName string `json:"artistName"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResp struct {
	Message string     `json:"message"`
	UserID  uint64     `json:"userId"`
	Role    model.Role `json:"role"`
}

type loginResp struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type meResp struct {
	UserID   uint64     `json:"userId"`
	Role     model.Role `json:"role"`
	ArtistID *uint64    `json:"artistId"`
}

// bcrypt ignores input past 72 bytes and newer versions refuse it.
const maxPasswordBytes = 72

// Register creates an account.  An empty role defaults to listener.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}
	if len(req.Password) > maxPasswordBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too long"})
	}
	role := model.Role(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.RoleListener
	}
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be listener, artist or admin"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	u, err := h.Users.Create(ctx, repository.NewUser{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Role:       role,
		ArtistName: strings.TrimSpace(req.ArtistName),
	}, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistration) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username or email already in use"})
		}
		h.Log.Error("register failed", "username", req.Username, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, registerResp{
		Message: "user registered",
		UserID:  u.ID,
		Role:    u.Role,
	})
}

// Login checks the password and returns a signed access token.  An unknown
// username and a wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.BurnPasswordCheck(req.Password, h.BcryptCost)
			return h.invalidCredentials(c)
		}
		h.Log.Error("login lookup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return h.invalidCredentials(c)
	}
	if !u.Active() {
		metrics.AuthFailures.WithLabelValues("deactivated").Inc()
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
	}

	access, err := h.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		h.Log.Error("issue token failed", "user_id", u.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		Message:   "login successful",
		Token:     access.Token,
		ExpiresAt: access.Exp,
	})
}

func (h *AuthHandler) invalidCredentials(c echo.Context) error {
	metrics.AuthFailures.WithLabelValues("credentials").Inc()
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
}

// Me echoes the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	return c.JSON(http.StatusOK, meResp{UserID: id.UserID, Role: id.Role, ArtistID: id.ArtistID})
}
