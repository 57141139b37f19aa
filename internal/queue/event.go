// Package queue defines message payloads exchanged over the message
// broker plus the publisher and consumer for review activity.
package queue

// ReviewActivityEvent is published after a review mutation commits.
// It carries enough for downstream consumers to log or feed analytics
// without querying the primary database.
type ReviewActivityEvent struct {
	Action     string `json:"action"` // created | updated | deleted
	ReviewID   uint64 `json:"review_id"`
	UserID     uint64 `json:"user_id"`
	MovieID    uint64 `json:"movie_id"`
	Rating     int    `json:"rating"`
	OccurredAt string `json:"occurred_at"`
}
