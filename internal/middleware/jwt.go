package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/metrics"
	"github.com/coogmusic/coog-backend/internal/model"
	"github.com/coogmusic/coog-backend/internal/repository"
	"github.com/coogmusic/coog-backend/internal/utils"
)

// TokenVerifier decodes access tokens.  *utils.TokenCodec implements it.
type TokenVerifier interface {
	Verify(raw string) (*utils.Claims, error)
}

// UserLookup loads a user by id.  *repository.UserRepo implements it.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Authenticator validates bearer tokens on protected routes.  When
// VerifyUser is set, the user row is re-fetched on every request so a token
// cannot outlive a removed or deactivated account; this costs one query
// per request.
type Authenticator struct {
	Tokens     TokenVerifier
	Users      UserLookup
	VerifyUser bool
	Timeout    time.Duration
	Log        *slog.Logger
}

// NewAuthenticator builds an Authenticator.  users may be nil only when
// verifyUser is false.
func NewAuthenticator(tokens TokenVerifier, users UserLookup, verifyUser bool, log *slog.Logger) *Authenticator {
	if tokens == nil || (verifyUser && users == nil) {
		panic("nil dependency passed to NewAuthenticator")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{Tokens: tokens, Users: users, VerifyUser: verifyUser, Timeout: 5 * time.Second, Log: log}
}

// Require returns middleware that authenticates the request and, when
// roles are given, only admits callers whose role is one of them.
//
//	401 missing bearer token     – header absent or not exactly "Bearer <token>"
//	403 invalid or expired token – signature, algorithm, or expiry check failed
//	403 insufficient role        – role not in the allow-list
//	401 user not found           – token subject no longer exists
//	403 account deactivated      – token subject has been deactivated
func (a *Authenticator) Require(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return a.reject(c, http.StatusUnauthorized, "missing", "missing bearer token")
			}

			claims, err := a.Tokens.Verify(raw)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, utils.ErrExpiredToken) {
					reason = "expired"
				}
				a.Log.Debug("token rejected", "reason", reason, "err", err, "path", c.Path())
				return a.reject(c, http.StatusForbidden, reason, "invalid or expired token")
			}

			if len(allowed) > 0 && !allowed[claims.Role] {
				return a.reject(c, http.StatusForbidden, "role", "insufficient role")
			}

			id := Identity{UserID: claims.UserID, Role: claims.Role}
			if a.VerifyUser {
				ctx, cancel := context.WithTimeout(c.Request().Context(), a.Timeout)
				u, err := a.Users.GetByID(ctx, claims.UserID)
				cancel()
				switch {
				case errors.Is(err, repository.ErrUserNotFound):
					return a.reject(c, http.StatusUnauthorized, "user_not_found", "user not found")
				case err != nil:
					a.Log.Error("auth user lookup failed", "user_id", claims.UserID, "err", err)
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
				case !u.Active():
					return a.reject(c, http.StatusForbidden, "deactivated", "account deactivated")
				}
				// the stored role wins over a stale token claim
				if u.Role != claims.Role {
					if len(allowed) > 0 && !allowed[u.Role] {
						return a.reject(c, http.StatusForbidden, "role", "insufficient role")
					}
					id.Role = u.Role
				}
				id.ArtistID = u.ArtistID
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}

func (a *Authenticator) reject(c echo.Context, status int, reason, msg string) error {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	return c.JSON(status, echo.Map{"error": msg})
}

// bearerToken extracts the token from an Authorization header of exactly
// the form "Bearer <token>".
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := header[len(prefix):]
	if tok == "" || strings.ContainsAny(tok, " \t\r\n") {
		return "", false
	}
	return tok, true
}
