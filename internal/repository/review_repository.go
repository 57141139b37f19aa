package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kinotage/movie-reviews/internal/model"
)

// ReviewRepo persists reviews. Every mutation runs inside a single
// transaction that also recomputes the owning movie's average_rating
// and review_count, so the derived columns are never observably stale
// or half-written: either the review row and both aggregates commit
// together or none of them do. Concurrent writers serialize through
// the database rather than in-process locking.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewColumns = `id, user_id, movie_id, rating, comment,
		DATE_FORMAT(created_at, '%Y-%m-%dT%TZ'),
		DATE_FORMAT(updated_at, '%Y-%m-%dT%TZ')`

// Create inserts a review and refreshes the movie aggregates in one
// transaction. The unique (user_id, movie_id) key is the
// authoritative duplicate guard; hitting it yields ErrDuplicateReview.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (user_id, movie_id, rating, comment) VALUES (?,?,?,?)",
		rev.UserID, rev.MovieID, rev.Rating, rev.Comment)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateReview
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rev.ID = uint64(id)

	if err := recalcMovieRatingTx(ctx, tx, rev.MovieID); err != nil {
		return err
	}
	if err := scanReviewTx(ctx, tx, rev.ID, rev); err != nil {
		return err
	}
	return tx.Commit()
}

// Update applies a partial update and refreshes the aggregates of the
// review's movie in the same transaction. Returns sql.ErrNoRows when
// the review does not exist.
func (r *ReviewRepo) Update(ctx context.Context, id uint64, upd model.ReviewUpdate) (model.Review, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Review{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var movieID uint64
	if err := tx.QueryRowContext(ctx, "SELECT movie_id FROM reviews WHERE id=? FOR UPDATE", id).Scan(&movieID); err != nil {
		return model.Review{}, err
	}

	sets := []string{}
	args := []any{}
	if upd.Rating != nil {
		sets = append(sets, "rating=?")
		args = append(args, *upd.Rating)
	}
	if upd.Comment != nil {
		sets = append(sets, "comment=?")
		args = append(args, *upd.Comment)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			"UPDATE reviews SET "+strings.Join(sets, ", ")+", updated_at=NOW() WHERE id=?", args...); err != nil {
			return model.Review{}, err
		}
	}
	if err := recalcMovieRatingTx(ctx, tx, movieID); err != nil {
		return model.Review{}, err
	}
	var rev model.Review
	if err := scanReviewTx(ctx, tx, id, &rev); err != nil {
		return model.Review{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Review{}, err
	}
	return rev, nil
}

// Delete removes a review and refreshes the aggregates of its movie
// in the same transaction. Deleting the last review brings the movie
// back to average 0, count 0.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var movieID uint64
	if err := tx.QueryRowContext(ctx, "SELECT movie_id FROM reviews WHERE id=? FOR UPDATE", id).Scan(&movieID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id); err != nil {
		return err
	}
	if err := recalcMovieRatingTx(ctx, tx, movieID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches a review by id. Returns sql.ErrNoRows when absent.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	var rev model.Review
	var comment sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE id=? LIMIT 1", id).
		Scan(&rev.ID, &rev.UserID, &rev.MovieID, &rev.Rating, &comment, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return model.Review{}, err
	}
	if comment.Valid {
		rev.Comment = &comment.String
	}
	return rev, nil
}

// GetByUserAndMovie fetches the single review a user holds for a
// movie, if any.
func (r *ReviewRepo) GetByUserAndMovie(ctx context.Context, userID, movieID uint64) (model.Review, error) {
	var rev model.Review
	var comment sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE user_id=? AND movie_id=? LIMIT 1", userID, movieID).
		Scan(&rev.ID, &rev.UserID, &rev.MovieID, &rev.Rating, &comment, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return model.Review{}, err
	}
	if comment.Valid {
		rev.Comment = &comment.String
	}
	return rev, nil
}

// ListForMovie returns all reviews for a movie, newest first.
func (r *ReviewRepo) ListForMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE movie_id=? ORDER BY created_at DESC, id DESC", movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		var rev model.Review
		var comment sql.NullString
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.MovieID, &rev.Rating, &comment,
			&rev.CreatedAt, &rev.UpdatedAt); err != nil {
			return nil, err
		}
		if comment.Valid {
			rev.Comment = &comment.String
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// recalcMovieRatingTx rewrites a movie's derived rating columns from
// its current review set. COALESCE brings an empty aggregate back to
// zero instead of NULL.
func recalcMovieRatingTx(ctx context.Context, tx *sql.Tx, movieID uint64) error {
	var (
		avg   float64
		count int
	)
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE movie_id=?", movieID).
		Scan(&avg, &count)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE movies SET average_rating=?, review_count=?, updated_at=NOW() WHERE id=?",
		avg, count, movieID)
	return err
}

func scanReviewTx(ctx context.Context, tx *sql.Tx, id uint64, rev *model.Review) error {
	var comment sql.NullString
	err := tx.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE id=? LIMIT 1", id).
		Scan(&rev.ID, &rev.UserID, &rev.MovieID, &rev.Rating, &comment, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return err
	}
	if comment.Valid {
		rev.Comment = &comment.String
	}
	return nil
}
