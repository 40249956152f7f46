package service

import (
	"context"
	"log"

	"github.com/mirari/uploader/internal/cache"
	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/postid"
	"github.com/mirari/uploader/internal/repository"
)

// ScoreService persists votes and keeps the score caches warm.
type ScoreService struct {
	scoreRepo  repository.ScoreRepository
	scoreCache cache.ScoreCache
}

func NewScoreService(scoreRepo repository.ScoreRepository, scoreCache cache.ScoreCache) *ScoreService {
	return &ScoreService{scoreRepo: scoreRepo, scoreCache: scoreCache}
}

// Vote records the caller's vote and returns the recomputed aggregates.
// vote must be 1, -1, 0 or nil; 0 and nil retract.
func (s *ScoreService) Vote(ctx context.Context, userID int64, postID string, vote *int) (*model.Score, error) {
	upvote, userVote, err := parseVote(vote)
	if err != nil {
		return nil, err
	}

	id, err := postid.Parse(postID)
	if err != nil {
		return nil, err
	}

	score, err := s.scoreRepo.Vote(ctx, userID, id, upvote)
	if err != nil {
		return nil, err
	}

	// Write-through after commit, best-effort.
	go func() {
		ctx := context.Background()
		if err := s.scoreCache.PutScore(ctx, id.String(), *score); err != nil {
			log.Printf("[Scoring] Score cache write FAILED: post=%s err=%v", id.String(), err)
		}
		if err := s.scoreCache.PutVote(ctx, userID, id.String(), userVote); err != nil {
			log.Printf("[Scoring] Vote cache write FAILED: user=%d post=%s err=%v", userID, id.String(), err)
		}
	}()

	return &model.Score{
		Up:       score.Up,
		Down:     score.Down,
		Total:    score.Total,
		UserVote: userVote,
	}, nil
}

// parseVote maps the wire value onto the nullable upvote column.
func parseVote(vote *int) (upvote *bool, userVote int, err error) {
	if vote == nil {
		return nil, 0, nil
	}
	switch *vote {
	case 0:
		return nil, 0, nil
	case 1:
		up := true
		return &up, 1, nil
	case -1:
		up := false
		return &up, -1, nil
	}
	return nil, 0, model.ErrInvalidVote
}
