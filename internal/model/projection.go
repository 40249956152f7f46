package model

import "time"

// PostProjection is the fully hydrated post view held in the post cache,
// keyed by the external post id string.
type PostProjection struct {
	PostID      string     `json:"post_id"`
	UserID      int64      `json:"user_id"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Rating      Rating     `json:"rating"`
	Privacy     Privacy    `json:"privacy"`
	Parent      *string    `json:"parent"`
	Filename    *string    `json:"filename"`
	Media       *MediaType `json:"media_type"`
	Size        *Size      `json:"size"`
	Created     time.Time  `json:"created"`
	Updated     time.Time  `json:"updated"`
}
