package model

import "time"

// Artist is a row of the `artists` table.  FollowerCount is a
// denormalized copy of the number of following rows in `follows`
// for this artist and is only written by the follow repository.
type Artist struct {
	ID            uint64    // artists.id
	UserID        uint64    // artists.user_id
	Name          string    // artists.name
	FollowerCount uint64    // artists.follower_count
	CreatedAt     time.Time // artists.created_at
}
