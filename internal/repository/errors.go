// Package repository holds the MySQL data access layer.  Every statement is
// parameterized.  The sentinel values below let higher layers distinguish
// failure scenarios with errors.Is; anything else is a database failure and
// is reported to clients as a generic 500.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrUserNotFound is returned when no users row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrArtistNotFound is returned when no artists row matches the lookup.
var ErrArtistNotFound = errors.New("artist not found")

// ErrSongNotFound is returned when no songs row matches the lookup.
var ErrSongNotFound = errors.New("song not found")

// ErrDuplicateRegistration signals that the username or email is already
// taken.  Handlers translate it into HTTP 409.
var ErrDuplicateRegistration = errors.New("username or email already in use")

// isDuplicateKey reports whether err is MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
