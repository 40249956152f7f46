package model

import "errors"

// Vote is a single user's vote on a post. A nil Upvote means the vote was
// retracted; retracted votes are excluded from score aggregates.
type Vote struct {
	UserID int64 `db:"user_id"`
	PostID int64 `db:"post_id"`
	Upvote *bool `db:"upvote"`
}

// InternalScore is the denormalized aggregate cached per post.
type InternalScore struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Total int `json:"total"`
}

// Score is the aggregate returned to the voting user, including their own vote
// as 1, -1 or 0.
type Score struct {
	Up       int `json:"up"`
	Down     int `json:"down"`
	Total    int `json:"total"`
	UserVote int `json:"user_vote"`
}

// ScoreRow is the post_scores table row.
type ScoreRow struct {
	PostID        int64   `db:"post_id"`
	Upvotes       int     `db:"upvotes"`
	Downvotes     int     `db:"downvotes"`
	Top           int     `db:"top"`
	Hot           float64 `db:"hot"`
	Best          float64 `db:"best"`
	Controversial float64 `db:"controversial"`
}

// ErrInvalidVote is returned for vote values outside {up, down, retract}.
var ErrInvalidVote = errors.New("the given vote is invalid (vote value must be integer. 1 = up, -1 = down, 0 or null to remove vote)")
