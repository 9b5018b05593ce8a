package model

import "time"

// FollowStatus is the state of a (user, artist) pair.  Only
// FollowFollowing and FollowNotFollowing are ever stored; FollowAbsent
// means no row exists yet and is reported to clients as "not_followed".
type FollowStatus string

const (
	FollowAbsent       FollowStatus = "not_followed"
	FollowFollowing    FollowStatus = "following"
	FollowNotFollowing FollowStatus = "not_following"
)

// Follow models a row in the `follows` table.  There is at most one row
// per (UserID, ArtistID); it is toggled, never deleted.  FollowDate is
// the time of the most recent transition to following.
type Follow struct {
	UserID     uint64
	ArtistID   uint64
	Status     FollowStatus
	FollowDate time.Time
}

// Song carries the play counters touched by the play endpoint and the
// monthly reset job.
type Song struct {
	ID           uint64
	ArtistID     uint64
	Title        string
	PlayCount    uint64
	MonthlyPlays uint64
}
