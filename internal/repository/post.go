package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/postid"
	"github.com/mirari/uploader/internal/scoring"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

const selectPostQuery = `
	SELECT posts.post_id, posts.uploader, posts.title, posts.description,
	       ratings.rating, privacies.privacy, posts.parent, posts.filename,
	       media_types.file_type, media_types.mime_type, posts.width, posts.height,
	       posts.created_on, posts.updated_on
	FROM posts
	INNER JOIN ratings ON ratings.rating_id = posts.rating_id
	INNER JOIN privacies ON privacies.privacy_id = posts.privacy_id
	LEFT JOIN media_types ON media_types.media_type_id = posts.media_type_id
	WHERE posts.post_id = $1 AND posts.uploader = $2
`

// GetByID fetches the caller's own post with its joined lookup values.
func (r *postRepository) GetByID(ctx context.Context, userID int64, id postid.PostID) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post, selectPostQuery, id.Int(), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.ownershipError(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// CreatePost returns the caller's unpublished slot. The partial unique index
// on (uploader) WHERE privacy = unpublished makes the insert a no-op when the
// slot already exists, so every call reads back the same post id.
func (r *postRepository) CreatePost(ctx context.Context, userID int64) (postid.PostID, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := newPostID(ctx, tx)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (post_id, uploader, privacy_id)
		VALUES ($1, $2, (SELECT privacy_id FROM privacies WHERE privacy = 'unpublished'))
		ON CONFLICT (uploader) WHERE privacy_id = 4 DO NOTHING
	`, id.Int(), userID)
	if err != nil {
		return 0, fmt.Errorf("insert unpublished post: %w", err)
	}

	// Read back whichever row holds the slot; on conflict it predates this
	// call and its id wins.
	var postID int64
	err = tx.GetContext(ctx, &postID, `
		SELECT post_id FROM posts
		WHERE uploader = $1
			AND privacy_id = (SELECT privacy_id FROM privacies WHERE privacy = 'unpublished')
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("read unpublished post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return postid.PostID(postID), nil
}

// CreatePostWithFields inserts a draft carrying the given fields. A privacy
// field triggers the transition inside the same transaction.
func (r *postRepository) CreatePostWithFields(ctx context.Context, userID int64, fields CreateFields, awaitTags AwaitTags) (postid.PostID, *PrivacyChange, []string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := newPostID(ctx, tx)
	if err != nil {
		return 0, nil, nil, err
	}

	rating := model.RatingGeneral
	if fields.Rating != nil {
		rating = *fields.Rating
	}

	var parent *int64
	if fields.ReplyTo != nil {
		p := fields.ReplyTo.Int()
		parent = &p
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (post_id, uploader, title, description, parent,
			rating_id, privacy_id)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT rating_id FROM ratings WHERE rating = $6),
			(SELECT privacy_id FROM privacies WHERE privacy = 'draft'))
	`, id.Int(), userID, fields.Title, fields.Description, parent, string(rating))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("insert draft post: %w", err)
	}

	var change *PrivacyChange
	var tags []string
	if fields.Privacy != nil {
		change, tags, err = r.transition(ctx, tx, userID, id, model.PrivacyDraft, *fields.Privacy, rating, awaitTags)
		if err != nil {
			return 0, nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	return id, change, tags, nil
}

// RecordUpload commits the upload's media metadata, returning the previous
// filename so the replaced blob can be deleted after commit.
func (r *postRepository) RecordUpload(ctx context.Context, userID int64, id postid.PostID, rec UploadRecord) (*string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldFilename *string
	err = tx.GetContext(ctx, &oldFilename, `
		SELECT filename FROM posts WHERE post_id = $1 AND uploader = $2
	`, id.Int(), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.ownershipError(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read post for upload: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE posts
		SET updated_on = NOW(),
			media_type_id = (SELECT media_type_id FROM media_types WHERE mime_type = $3),
			filename = $4,
			width = $5,
			height = $6
		WHERE post_id = $1 AND uploader = $2
	`, id.Int(), userID, rec.Mime, rec.Filename, rec.Width, rec.Height)
	if err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return oldFilename, nil
}

// UpdateMetadata builds the dynamic UPDATE for the provided fields and runs
// the privacy transition, when requested, in the same transaction.
func (r *postRepository) UpdateMetadata(ctx context.Context, userID int64, id postid.PostID, patch MetadataPatch, awaitTags AwaitTags) (*PrivacyChange, []string, error) {
	if patch.Empty() {
		return nil, nil, model.ErrNoParams
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	oldPrivacy, oldRating, err := r.readForUpdate(ctx, tx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	set := []string{"updated_on = NOW()"}
	args := []interface{}{id.Int(), userID}

	// Empty string clears the column; nil leaves it untouched.
	if patch.Title != nil {
		args = append(args, nullable(*patch.Title))
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, nullable(*patch.Description))
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.Rating != nil {
		args = append(args, string(*patch.Rating))
		set = append(set, fmt.Sprintf("rating_id = (SELECT rating_id FROM ratings WHERE rating = $%d)", len(args)))
	}

	if len(set) > 1 {
		query := fmt.Sprintf(`UPDATE posts SET %s WHERE post_id = $1 AND uploader = $2`, strings.Join(set, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, nil, fmt.Errorf("update metadata: %w", err)
		}
	}

	var change *PrivacyChange
	var tags []string
	if patch.Privacy != nil {
		rating := oldRating
		if patch.Rating != nil {
			rating = *patch.Rating
		}
		change, tags, err = r.transition(ctx, tx, userID, id, oldPrivacy, *patch.Privacy, rating, awaitTags)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	return change, tags, nil
}

// UpdatePrivacy runs the privacy transition on its own.
func (r *postRepository) UpdatePrivacy(ctx context.Context, userID int64, id postid.PostID, privacy model.Privacy, awaitTags AwaitTags) (*PrivacyChange, []string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	oldPrivacy, rating, err := r.readForUpdate(ctx, tx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	change, tags, err := r.transition(ctx, tx, userID, id, oldPrivacy, privacy, rating, awaitTags)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	return change, tags, nil
}

// readForUpdate reads the post's privacy and rating under a row lock, so
// concurrent transitions on one post serialize.
func (r *postRepository) readForUpdate(ctx context.Context, tx *sqlx.Tx, userID int64, id postid.PostID) (model.Privacy, model.Rating, error) {
	var row struct {
		Privacy model.Privacy `db:"privacy"`
		Rating  model.Rating  `db:"rating"`
	}
	err := tx.GetContext(ctx, &row, `
		SELECT privacies.privacy, ratings.rating
		FROM posts
		INNER JOIN privacies ON privacies.privacy_id = posts.privacy_id
		INNER JOIN ratings ON ratings.rating_id = posts.rating_id
		WHERE posts.post_id = $1 AND posts.uploader = $2
		FOR UPDATE OF posts
	`, id.Int(), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", r.ownershipError(ctx, id)
	}
	if err != nil {
		return "", "", fmt.Errorf("read post privacy: %w", err)
	}
	return row.Privacy, row.Rating, nil
}

// transition applies the privacy change inside the caller's transaction.
// The tag fetch started before the transaction is awaited after the SQL
// writes so the caller can schedule counter deltas on return.
func (r *postRepository) transition(ctx context.Context, tx *sqlx.Tx, userID int64, id postid.PostID, old, new model.Privacy, rating model.Rating, awaitTags AwaitTags) (*PrivacyChange, []string, error) {
	if err := validateTransition(old, new); err != nil {
		return nil, nil, err
	}

	if old.Draftlike() && !new.Draftlike() {
		// First publish: the uploader's self-upvote, the initial score row
		// and the post update land in one atomic statement.
		now := time.Now()
		_, err := tx.ExecContext(ctx, `
			WITH vote_insert AS (
				INSERT INTO post_votes (user_id, post_id, upvote)
				VALUES ($1, $2, true)
				ON CONFLICT ON CONSTRAINT post_votes_pkey DO
					UPDATE SET upvote = true
			), score_insert AS (
				INSERT INTO post_scores (post_id, upvotes, downvotes, top, hot, best, controversial)
				VALUES ($2, 1, 0, 1, $3, $4, $5)
				ON CONFLICT (post_id) DO
					UPDATE SET upvotes = 1, downvotes = 0, top = 1,
						hot = EXCLUDED.hot, best = EXCLUDED.best, controversial = EXCLUDED.controversial
			)
			UPDATE posts
			SET created_on = NOW(), updated_on = NOW(),
				privacy_id = (SELECT privacy_id FROM privacies WHERE privacy = $6)
			WHERE post_id = $2 AND uploader = $1
		`, userID, id.Int(), scoring.Hot(1, 0, now), scoring.Confidence(1, 1), scoring.Controversial(1, 0), string(new))
		if err != nil {
			return nil, nil, fmt.Errorf("publish post: %w", err)
		}
	} else {
		_, err := tx.ExecContext(ctx, `
			UPDATE posts
			SET updated_on = NOW(),
				privacy_id = (SELECT privacy_id FROM privacies WHERE privacy = $3)
			WHERE post_id = $1 AND uploader = $2
		`, id.Int(), userID, string(new))
		if err != nil {
			return nil, nil, fmt.Errorf("update privacy: %w", err)
		}
	}

	var tags []string
	if awaitTags != nil {
		var err error
		tags, err = awaitTags()
		if err != nil {
			return nil, nil, fmt.Errorf("await tags: %w", err)
		}
	}

	return &PrivacyChange{Old: old, New: new, Rating: rating}, tags, nil
}

// validateTransition enforces the privacy state machine. Violations are
// client errors.
func validateTransition(old, new model.Privacy) error {
	switch {
	case new == model.PrivacyUnpublished:
		return model.ErrUnpublishForbidden
	case old == new:
		return model.ErrSamePrivacy
	case new == model.PrivacyDraft && old != model.PrivacyUnpublished:
		return model.ErrDraftFromPublished
	}
	return nil
}

// ownershipError distinguishes a missing post from a foreign one.
func (r *postRepository) ownershipError(ctx context.Context, id postid.PostID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE post_id = $1)`, id.Int()); err != nil {
		return fmt.Errorf("check post existence: %w", err)
	}
	if exists {
		return model.ErrNotPostOwner
	}
	return model.ErrPostNotFound
}

// newPostID draws random 48-bit ids until one is free. Expected to succeed
// on the first attempt with overwhelming probability.
func newPostID(ctx context.Context, tx *sqlx.Tx) (postid.PostID, error) {
	for {
		id, err := postid.New()
		if err != nil {
			return 0, err
		}

		var taken int
		if err := tx.GetContext(ctx, &taken, `SELECT count(1) FROM posts WHERE post_id = $1`, id.Int()); err != nil {
			return 0, fmt.Errorf("check post id: %w", err)
		}
		if taken == 0 {
			return id, nil
		}
	}
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
