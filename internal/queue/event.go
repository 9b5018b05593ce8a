// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import "time"

// FollowEvent is published after a follow or unfollow commits.  It carries
// enough to write an activity line without querying the database.
type FollowEvent struct {
	Action        string    `json:"action"` // follow | unfollow
	UserID        uint64    `json:"user_id"`
	ArtistID      uint64    `json:"artist_id"`
	FollowerCount uint64    `json:"follower_count"`
	OccurredAt    time.Time `json:"occurred_at"`
}
