package model

// Review represents a row in the `reviews` table. A user may hold at
// most one review per movie, enforced by a unique key on
// (user_id, movie_id). Rating is an integer from 1 to 5.
type Review struct {
	ID        uint64  `json:"id"`
	UserID    uint64  `json:"user_id"`
	MovieID   uint64  `json:"movie_id"`
	Rating    int     `json:"rating"`
	Comment   *string `json:"comment"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// ReviewUpdate carries the optional fields of a partial review
// update. Nil pointers mean "leave unchanged".
type ReviewUpdate struct {
	Rating  *int
	Comment *string
}
