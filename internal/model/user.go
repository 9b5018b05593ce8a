package model

import "time"

// Role is the name of a user's role as stored in users.role and carried in
// the access token.  Comparisons are exact and case-sensitive.
type Role string

const (
	RoleListener Role = "listener"
	RoleArtist   Role = "artist"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleListener, RoleArtist, RoleAdmin:
		return true
	}
	return false
}

// AccountStatus mirrors users.status.
type AccountStatus string

const (
	StatusActive      AccountStatus = "active"
	StatusDeactivated AccountStatus = "deactivated"
)

// User represents an application user record as stored in the
// `users` table.  The password hash never leaves the repository and
// handler layers; response types carry their own JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique email address (lower-cased).
//  PasswordHash – bcrypt hashed password.
//  Role         – listener, artist or admin.
//  Status       – active or deactivated.
//  ArtistID     – artist profile owned by this user (artists only).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64        // users.id
	Username     string        // users.username
	Email        string        // users.email
	PasswordHash string        // users.password_hash
	Role         Role          // users.role
	Status       AccountStatus // users.status
	ArtistID     *uint64       // users.artist_id (nullable)
	CreatedAt    time.Time     // users.created_at
	UpdatedAt    time.Time     // users.updated_at
}

// Active reports whether the account may authenticate.
func (u User) Active() bool { return u.Status == StatusActive }
