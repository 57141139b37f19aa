package model

// Movie represents a catalog entry as stored in the `movies` table
// plus its ordered genre list from `movie_genres`. AverageRating and
// ReviewCount are derived from the movie's reviews and are rewritten
// inside the same transaction as every review mutation, so they never
// drift from the underlying review set. Release dates are plain
// calendar dates and are carried as YYYY-MM-DD strings end to end.
type Movie struct {
	ID            uint64   `json:"id"`
	Title         string   `json:"title"`
	Description   *string  `json:"description"`
	ReleaseDate   string   `json:"release_date"`
	Genres        []string `json:"genres"`
	AverageRating float64  `json:"average_rating"`
	ReviewCount   int      `json:"review_count"`
	CreatedBy     uint64   `json:"created_by"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// MovieUpdate carries the optional fields of a partial movie update.
// Nil pointers (and a nil Genres slice) mean "leave unchanged".
type MovieUpdate struct {
	Title       *string
	Description *string
	ReleaseDate *string
	Genres      []string
}

// MovieFilter defines the catalog listing predicate and pagination.
// All filters are combined with AND; zero values disable a filter.
// Page is 1-based.
type MovieFilter struct {
	Query string // case-insensitive substring match on title
	Genre string // exact membership in the genre list
	Year  int    // exact release year
	Page  int
	Limit int
}
