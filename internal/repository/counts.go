package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/mirari/uploader/internal/model"
)

// CountForKey runs the canonical COUNT(1) that seeds a counter key:
// "_" for the global public tally, "@{user_id}" per uploader, a rating name
// per rating, anything else a tag.
func (r *postRepository) CountForKey(ctx context.Context, key string) (int64, error) {
	var count int64
	var err error

	switch {
	case key == "_":
		err = r.db.GetContext(ctx, &count, `
			SELECT COUNT(1) FROM posts
			WHERE privacy_id = (SELECT privacy_id FROM privacies WHERE privacy = 'public')
		`)

	case strings.HasPrefix(key, "@"):
		err = r.db.GetContext(ctx, &count, `
			SELECT COUNT(1) FROM posts
			WHERE privacy_id = (SELECT privacy_id FROM privacies WHERE privacy = 'public')
				AND uploader = $1
		`, strings.TrimPrefix(key, "@"))

	case model.Rating(key).Valid():
		err = r.db.GetContext(ctx, &count, `
			SELECT COUNT(1) FROM posts
			WHERE privacy_id = (SELECT privacy_id FROM privacies WHERE privacy = 'public')
				AND rating_id = (SELECT rating_id FROM ratings WHERE rating = $1)
		`, key)

	default:
		err = r.db.GetContext(ctx, &count, `
			SELECT COUNT(1)
			FROM tags
			INNER JOIN tag_post ON tag_post.tag_id = tags.tag_id
			INNER JOIN posts ON posts.post_id = tag_post.post_id
			WHERE tags.tag = $1
				AND posts.privacy_id = (SELECT privacy_id FROM privacies WHERE privacy = 'public')
		`, key)
	}

	if err != nil {
		return 0, fmt.Errorf("count for key %q: %w", key, err)
	}
	return count, nil
}
