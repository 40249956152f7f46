package model

import (
	"errors"
	"time"
)

// Privacy is a post's visibility state. Stored as a privacy_id lookup in the
// database; the string form is what crosses the API boundary.
type Privacy string

const (
	PrivacyPublic      Privacy = "public"
	PrivacyUnlisted    Privacy = "unlisted"
	PrivacyPrivate     Privacy = "private"
	PrivacyUnpublished Privacy = "unpublished"
	PrivacyDraft       Privacy = "draft"
)

var privacies = map[Privacy]struct{}{
	PrivacyPublic:      {},
	PrivacyUnlisted:    {},
	PrivacyPrivate:     {},
	PrivacyUnpublished: {},
	PrivacyDraft:       {},
}

// Valid reports whether p names a known privacy state.
func (p Privacy) Valid() bool {
	_, ok := privacies[p]
	return ok
}

// Draftlike reports whether a post in this state has never been published.
// created_on is only stamped on the first transition out of a draftlike state.
func (p Privacy) Draftlike() bool {
	return p == PrivacyUnpublished || p == PrivacyDraft
}

// Rating is a post's content rating.
type Rating string

const (
	RatingGeneral  Rating = "general"
	RatingMature   Rating = "mature"
	RatingExplicit Rating = "explicit"
)

var ratings = map[Rating]struct{}{
	RatingGeneral:  {},
	RatingMature:   {},
	RatingExplicit: {},
}

// Valid reports whether r names a known rating.
func (r Rating) Valid() bool {
	_, ok := ratings[r]
	return ok
}

// MediaType describes the stored original file.
type MediaType struct {
	FileType string `db:"file_type" json:"file_type"`
	Mime     string `db:"mime_type" json:"mime_type"`
}

// Size is the pixel dimensions of the stored original.
type Size struct {
	Width  int `db:"width" json:"width"`
	Height int `db:"height" json:"height"`
}

// Post is the relational post row plus its joined lookup values.
type Post struct {
	PostID      int64     `db:"post_id" json:"-"`
	Uploader    int64     `db:"uploader" json:"user_id"`
	Title       *string   `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Rating      Rating    `db:"rating" json:"rating"`
	Privacy     Privacy   `db:"privacy" json:"privacy"`
	Parent      *int64    `db:"parent" json:"-"`
	Filename    *string   `db:"filename" json:"filename"`
	CreatedOn   time.Time `db:"created_on" json:"created"`
	UpdatedOn   time.Time `db:"updated_on" json:"updated"`

	// Nullable media columns, populated once a blob has been uploaded.
	FileType *string `db:"file_type" json:"-"`
	MimeType *string `db:"mime_type" json:"-"`
	Width    *int    `db:"width" json:"-"`
	Height   *int    `db:"height" json:"-"`
}

// Media returns the post's media type, or nil when nothing was uploaded.
func (p *Post) Media() *MediaType {
	if p.FileType == nil || p.MimeType == nil {
		return nil
	}
	return &MediaType{FileType: *p.FileType, Mime: *p.MimeType}
}

// Dimensions returns the post's image size, or nil when nothing was uploaded.
func (p *Post) Dimensions() *Size {
	if p.Width == nil || p.Height == nil {
		return nil
	}
	return &Size{Width: *p.Width, Height: *p.Height}
}

// Field bounds for post metadata.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 10000
)

// Post errors
var (
	ErrPostNotFound       = errors.New("post not found")
	ErrNotPostOwner       = errors.New("not the owner of this post")
	ErrTitleTooLong       = errors.New("title too long")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrNoParams           = errors.New("no params were provided")
	ErrInvalidRating      = errors.New("invalid rating")
	ErrInvalidPrivacy     = errors.New("invalid privacy")
	ErrSamePrivacy        = errors.New("post is already set to the requested privacy")
	ErrUnpublishForbidden = errors.New("posts cannot be set back to unpublished")
	ErrDraftFromPublished = errors.New("only unpublished posts can be set to draft")
)
