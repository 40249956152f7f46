package model

import "errors"

// User is the slice of the user record this service reads and writes: the
// handle used to key icon/banner renditions and the pointers to the posts
// currently serving as the user's icon and banner.
type User struct {
	UserID int64  `db:"user_id" json:"user_id"`
	Handle string `db:"handle" json:"handle"`
	Icon   *int64 `db:"icon" json:"-"`
	Banner *int64 `db:"banner" json:"-"`
}

// UserProjection is the denormalized user record held in the user cache.
// Icon and Banner carry external post id strings.
type UserProjection struct {
	UserID int64   `json:"user_id"`
	Handle string  `json:"handle"`
	Icon   *string `json:"icon"`
	Banner *string `json:"banner"`
}

var ErrUserNotFound = errors.New("user not found")
