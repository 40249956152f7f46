package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mirari/uploader/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT user_id, handle, icon, banner FROM users WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) SetIcon(ctx context.Context, userID, iconPostID int64) (*int64, error) {
	return r.setPointer(ctx, "icon", userID, iconPostID)
}

func (r *userRepository) SetBanner(ctx context.Context, userID, bannerPostID int64) (*int64, error) {
	return r.setPointer(ctx, "banner", userID, bannerPostID)
}

// setPointer swaps the user's icon/banner post pointer and returns the
// previous value in one statement, so concurrent swaps read consistent
// cleanup targets.
func (r *userRepository) setPointer(ctx context.Context, column string, userID, postID int64) (*int64, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET %[1]s = $2
		FROM (SELECT %[1]s AS previous FROM users WHERE user_id = $1 FOR UPDATE) old
		WHERE users.user_id = $1
		RETURNING old.previous
	`, column)

	var previous *int64
	err := r.db.GetContext(ctx, &previous, query, userID, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set user %s: %w", column, err)
	}
	return previous, nil
}
