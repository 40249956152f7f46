package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/postid"
	"github.com/mirari/uploader/internal/scoring"
)

type scoreRepository struct {
	db *sqlx.DB
}

func NewScoreRepository(db *sqlx.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

// Vote upserts the caller's vote and recomputes the post's aggregates from
// the vote table in one transaction. Retracted (NULL) votes are excluded
// from both counts.
func (r *scoreRepository) Vote(ctx context.Context, userID int64, id postid.PostID, upvote *bool) (*model.InternalScore, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO post_votes (user_id, post_id, upvote)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT post_votes_pkey DO
			UPDATE SET upvote = $3
	`, userID, id.Int(), upvote)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			// The vote's post FK failed: no such post.
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("upsert vote: %w", err)
	}

	var agg struct {
		Total     int       `db:"total"`
		Up        *int      `db:"up"`
		CreatedOn time.Time `db:"created_on"`
	}
	err = tx.GetContext(ctx, &agg, `
		SELECT COUNT(post_votes.upvote) AS total,
		       SUM(post_votes.upvote::int) AS up,
		       posts.created_on
		FROM posts
		LEFT JOIN post_votes
			ON post_votes.post_id = posts.post_id
				AND post_votes.upvote IS NOT NULL
		WHERE posts.post_id = $1
		GROUP BY posts.post_id
	`, id.Int())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("aggregate votes: %w", err)
	}

	up := 0
	if agg.Up != nil {
		up = *agg.Up
	}
	total := agg.Total
	down := total - up

	if err := upsertScore(ctx, tx, id, up, down, agg.CreatedOn); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &model.InternalScore{Up: up, Down: down, Total: total}, nil
}

// upsertScore recomputes and stores the derived score columns.
func upsertScore(ctx context.Context, tx *sqlx.Tx, id postid.PostID, up, down int, created time.Time) error {
	top := up - down
	hot := scoring.Hot(up, down, created)
	best := scoring.Confidence(up, up+down)
	controversial := scoring.Controversial(up, down)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO post_scores (post_id, upvotes, downvotes, top, hot, best, controversial)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (post_id) DO
			UPDATE SET upvotes = $2, downvotes = $3, top = $4,
				hot = $5, best = $6, controversial = $7
	`, id.Int(), up, down, top, hot, best, controversial)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}
