package repository

import (
	"context"

	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/postid"
)

// MetadataPatch carries the optional fields of an update. A nil pointer
// means "unchanged"; an empty title/description string means "clear to null".
type MetadataPatch struct {
	Title       *string
	Description *string
	Rating      *model.Rating
	Privacy     *model.Privacy
}

// Empty reports whether the patch carries no field at all.
func (p MetadataPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Rating == nil && p.Privacy == nil
}

// CreateFields are the optional fields of a draft creation.
type CreateFields struct {
	ReplyTo     *postid.PostID
	Title       *string
	Description *string
	Rating      *model.Rating
	Privacy     *model.Privacy
}

// PrivacyChange reports a committed privacy transition. Rating is the
// post's effective rating after the transaction, for counter keying.
type PrivacyChange struct {
	Old    model.Privacy
	New    model.Privacy
	Rating model.Rating
}

// AwaitTags resolves the tag fetch started before the transaction; it is
// awaited between the SQL writes and the commit.
type AwaitTags func() ([]string, error)

// UploadRecord is the media metadata committed by an image upload.
type UploadRecord struct {
	Filename string
	Mime     string
	Width    int
	Height   int
}

type PostRepository interface {
	// CreatePost returns the caller's unpublished slot, creating it if
	// needed. Idempotent per user until the slot is published.
	CreatePost(ctx context.Context, userID int64) (postid.PostID, error)

	// CreatePostWithFields inserts a draft carrying the given fields. When
	// fields include a privacy, the transition runs in the same transaction
	// and is reported back for counter scheduling.
	CreatePostWithFields(ctx context.Context, userID int64, fields CreateFields, awaitTags AwaitTags) (postid.PostID, *PrivacyChange, []string, error)

	// GetByID fetches the caller's own post.
	GetByID(ctx context.Context, userID int64, id postid.PostID) (*model.Post, error)

	// RecordUpload commits the new filename, media type and dimensions, and
	// returns the previous filename for post-commit blob cleanup.
	RecordUpload(ctx context.Context, userID int64, id postid.PostID, rec UploadRecord) (oldFilename *string, err error)

	// UpdateMetadata applies the patch; a privacy in the patch runs the
	// transition in the same transaction.
	UpdateMetadata(ctx context.Context, userID int64, id postid.PostID, patch MetadataPatch, awaitTags AwaitTags) (*PrivacyChange, []string, error)

	// UpdatePrivacy runs the privacy transition on its own.
	UpdatePrivacy(ctx context.Context, userID int64, id postid.PostID, privacy model.Privacy, awaitTags AwaitTags) (*PrivacyChange, []string, error)

	// CountForKey runs the canonical COUNT(1) for a counter key.
	CountForKey(ctx context.Context, key string) (int64, error)
}

type ScoreRepository interface {
	// Vote upserts the caller's vote and recomputes the post's aggregates
	// in one transaction. A nil upvote retracts.
	Vote(ctx context.Context, userID int64, id postid.PostID, upvote *bool) (*model.InternalScore, error)
}

type UserRepository interface {
	// GetByID fetches the local user row.
	GetByID(ctx context.Context, userID int64) (*model.User, error)

	// SetIcon points the user at a new icon post and returns the previous
	// pointer for blob cleanup.
	SetIcon(ctx context.Context, userID, iconPostID int64) (previous *int64, err error)

	// SetBanner points the user at a new banner post and returns the
	// previous pointer for blob cleanup.
	SetBanner(ctx context.Context, userID, bannerPostID int64) (previous *int64, err error)
}
