package middleware

// identity.go holds the authenticated caller attached to the echo context by
// Authenticator and read by RequireRole, the rate limiter and handlers.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/model"
)

const identityKey = "identity"

// Identity is the decoded caller of a request.  ArtistID is only known when
// the user row was re-fetched during authentication.
type Identity struct {
	UserID   uint64
	Role     model.Role
	ArtistID *uint64
}

// SetIdentity attaches id to the request context.
func SetIdentity(c echo.Context, id Identity) { c.Set(identityKey, id) }

// CurrentIdentity returns the identity attached by Authenticator.
func CurrentIdentity(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// userID returns the caller's id for keying, or "anon" for guests.
func userID(c echo.Context) string {
	if id, ok := CurrentIdentity(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
