package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/mirari/uploader/internal/cache"
	"github.com/mirari/uploader/internal/client"
	"github.com/mirari/uploader/internal/images"
	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/postid"
	"github.com/mirari/uploader/internal/queue"
	"github.com/mirari/uploader/internal/repository"
	"github.com/mirari/uploader/internal/storage"
)

// UploadService coordinates post creation, image uploads, metadata updates
// and privacy transitions across the relational store, the object store and
// the caches.
type UploadService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	pipeline  *images.Pipeline
	store     storage.ObjectStore
	postCache cache.PostCache
	userCache cache.UserCache
	publisher queue.Publisher
	tagClient client.TagClient
	userClient client.UserClient
	cdnClient  client.CDNClient
}

func NewUploadService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	pipeline *images.Pipeline,
	store storage.ObjectStore,
	postCache cache.PostCache,
	userCache cache.UserCache,
	publisher queue.Publisher,
	tagClient client.TagClient,
	userClient client.UserClient,
	cdnClient client.CDNClient,
) *UploadService {
	return &UploadService{
		postRepo:   postRepo,
		userRepo:   userRepo,
		pipeline:   pipeline,
		store:      store,
		postCache:  postCache,
		userCache:  userCache,
		publisher:  publisher,
		tagClient:  tagClient,
		userClient: userClient,
		cdnClient:  cdnClient,
	}
}

// CreatePost returns the caller's unpublished slot, creating it on first
// call. Repeated calls return the same post id until the slot is published.
func (s *UploadService) CreatePost(ctx context.Context, userID int64) (string, error) {
	id, err := s.postRepo.CreatePost(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return id.String(), nil
}

// CreatePostWithFields inserts a draft populated with the given fields. A
// privacy field triggers the transition within the same transaction.
func (s *UploadService) CreatePostWithFields(ctx context.Context, userID int64, req model.CreateRequest) (string, error) {
	fields, err := createFields(req)
	if err != nil {
		return "", err
	}

	// A brand-new post has no tags yet; nothing to fetch.
	awaitTags := repository.AwaitTags(func() ([]string, error) { return nil, nil })

	id, change, tags, err := s.postRepo.CreatePostWithFields(ctx, userID, fields, awaitTags)
	if err != nil {
		return "", err
	}

	if change != nil {
		s.scheduleCounterDeltas(userID, id, change, tags)
	}

	return id.String(), nil
}

// UploadImage validates and processes the upload, commits the media
// metadata, then stores the derivation set and cleans up the replaced
// original.
func (s *UploadService) UploadImage(ctx context.Context, userID int64, fileData []byte, filename string, postID string, webResize *int) (*model.UploadResult, error) {
	id, err := postid.Parse(postID)
	if err != nil {
		return nil, err
	}

	prep, err := s.pipeline.Prepare(fileData, filename, webResize)
	if err != nil {
		return nil, err
	}
	defer prep.Close()

	oldFilename, err := s.postRepo.RecordUpload(ctx, userID, id, repository.UploadRecord{
		Filename: prep.Filename,
		Mime:     prep.Mime,
		Width:    prep.Width,
		Height:   prep.Height,
	})
	if err != nil {
		return nil, err
	}

	url, renditions, thumbnails, err := s.pipeline.Renditions(id.String(), prep)
	if err != nil {
		return nil, err
	}

	for key, body := range renditions {
		if err := s.store.Put(ctx, key, body, contentTypeForKey(key, prep.Mime)); err != nil {
			return nil, fmt.Errorf("upload rendition: %w", err)
		}
	}

	// Drop the replaced original once the new one is in place.
	if oldFilename != nil && *oldFilename != prep.Filename {
		oldKey := fmt.Sprintf("%s/%s", id.String(), *oldFilename)
		if err := s.store.Delete(ctx, oldKey); err != nil {
			log.Printf("[Uploader] Old original delete FAILED: key=%s err=%v", oldKey, err)
		}
	}

	s.patchPostCacheAfterUpload(ctx, id.String(), prep)

	return &model.UploadResult{
		PostID:     id.String(),
		URL:        url,
		Thumbnails: thumbnails,
	}, nil
}

// UpdatePostMetadata validates and applies a metadata patch; a privacy field
// runs the transition in the same transaction.
func (s *UploadService) UpdatePostMetadata(ctx context.Context, userID int64, req model.UpdateRequest) error {
	id, err := postid.Parse(req.PostID)
	if err != nil {
		return err
	}

	patch := repository.MetadataPatch{
		Title:       req.Title,
		Description: req.Description,
		Rating:      req.Rating,
		Privacy:     req.Privacy,
	}
	if err := validatePatch(patch); err != nil {
		return err
	}

	var awaitTags repository.AwaitTags
	if req.Privacy != nil {
		awaitTags = s.startTagFetch(ctx, id.String())
	}

	change, tags, err := s.postRepo.UpdateMetadata(ctx, userID, id, patch, awaitTags)
	if err != nil {
		return err
	}

	if change != nil {
		s.scheduleCounterDeltas(userID, id, change, tags)
		// created_on may have been stamped; force the next read to SQL.
		if err := s.postCache.Evict(ctx, id.String()); err != nil {
			log.Printf("[Uploader] Post cache evict FAILED: post=%s err=%v", id.String(), err)
		}
		return nil
	}

	err = s.postCache.Patch(ctx, id.String(), func(p *model.PostProjection) {
		p.Updated = time.Now()
		if patch.Title != nil {
			p.Title = clearable(*patch.Title)
		}
		if patch.Description != nil {
			p.Description = clearable(*patch.Description)
		}
		if patch.Rating != nil {
			p.Rating = *patch.Rating
		}
	})
	if err != nil {
		log.Printf("[Uploader] Post cache patch FAILED: post=%s err=%v", id.String(), err)
	}
	return nil
}

// UpdatePrivacy runs the privacy transition and schedules counter deltas.
func (s *UploadService) UpdatePrivacy(ctx context.Context, userID int64, postID string, privacy model.Privacy) error {
	id, err := postid.Parse(postID)
	if err != nil {
		return err
	}
	if !privacy.Valid() {
		return model.ErrInvalidPrivacy
	}

	awaitTags := s.startTagFetch(ctx, id.String())

	change, tags, err := s.postRepo.UpdatePrivacy(ctx, userID, id, privacy, awaitTags)
	if err != nil {
		return err
	}

	s.scheduleCounterDeltas(userID, id, change, tags)

	// Evict rather than patch: a first publish bumps created_on.
	if err := s.postCache.Evict(ctx, id.String()); err != nil {
		log.Printf("[Uploader] Post cache evict FAILED: post=%s err=%v", id.String(), err)
	}
	return nil
}

// startTagFetch kicks off the tag lookup in parallel with the SQL work; the
// repository awaits it between its writes and the commit.
func (s *UploadService) startTagFetch(ctx context.Context, postID string) repository.AwaitTags {
	type result struct {
		tags []string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		groups, err := s.tagClient.FetchTagGroups(ctx, postID)
		if err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{tags: client.FlattenTags(groups)}
	}()

	return func() ([]string, error) {
		r := <-ch
		return r.tags, r.err
	}
}

// scheduleCounterDeltas fires the counter updates for a committed privacy
// transition through the worker stream. Fire-and-forget: the request
// finishing or failing no longer affects them.
func (s *UploadService) scheduleCounterDeltas(userID int64, id postid.PostID, change *repository.PrivacyChange, tags []string) {
	var delta int64
	switch {
	case change.New == model.PrivacyPublic && change.Old != model.PrivacyPublic:
		delta = 1
	case change.Old == model.PrivacyPublic && change.New != model.PrivacyPublic:
		delta = -1
	default:
		return
	}

	keys := make([]string, 0, len(tags)+3)
	keys = append(keys, "_", fmt.Sprintf("@%d", userID), string(change.Rating))
	keys = append(keys, tags...)

	postIDStr := id.String()
	go func() {
		// Detached from the request context: scheduled deltas run to
		// completion even when the caller disconnects.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, key := range keys {
			event := queue.NewCounterDelta(key, delta, postIDStr)
			if _, err := s.publisher.Publish(ctx, queue.StreamCounters, event); err != nil {
				log.Printf("[Uploader] Counter delta publish FAILED: key=%s post=%s err=%v", key, postIDStr, err)
			}
		}
	}()
}

// patchPostCacheAfterUpload patches the cached projection in place so reads
// see the new media without a SQL round-trip.
func (s *UploadService) patchPostCacheAfterUpload(ctx context.Context, postID string, prep *images.Prepared) {
	err := s.postCache.Patch(ctx, postID, func(p *model.PostProjection) {
		filename := prep.Filename
		p.Updated = time.Now()
		p.Filename = &filename
		p.Media = &model.MediaType{FileType: prep.FileType, Mime: prep.Mime}
		p.Size = &model.Size{Width: prep.Width, Height: prep.Height}
	})
	if err != nil {
		log.Printf("[Uploader] Post cache patch FAILED: post=%s err=%v", postID, err)
	}
}

// createFields validates a create request into repository fields.
func createFields(req model.CreateRequest) (repository.CreateFields, error) {
	fields := repository.CreateFields{
		Title:       req.Title,
		Description: req.Description,
		Rating:      req.Rating,
		Privacy:     req.Privacy,
	}

	if err := validatePatch(repository.MetadataPatch{
		Title:       req.Title,
		Description: req.Description,
		Rating:      req.Rating,
		Privacy:     req.Privacy,
	}); err != nil && err != model.ErrNoParams {
		return repository.CreateFields{}, err
	}

	if req.ReplyTo != nil {
		parent, err := postid.Parse(*req.ReplyTo)
		if err != nil {
			return repository.CreateFields{}, err
		}
		fields.ReplyTo = &parent
	}

	return fields, nil
}

// validatePatch enforces the metadata field bounds.
func validatePatch(patch repository.MetadataPatch) error {
	if patch.Empty() {
		return model.ErrNoParams
	}
	if patch.Title != nil && len(*patch.Title) > model.MaxTitleLength {
		return model.ErrTitleTooLong
	}
	if patch.Description != nil && len(*patch.Description) > model.MaxDescriptionLength {
		return model.ErrDescriptionTooLong
	}
	if patch.Rating != nil && !patch.Rating.Valid() {
		return model.ErrInvalidRating
	}
	if patch.Privacy != nil && !patch.Privacy.Valid() {
		return model.ErrInvalidPrivacy
	}
	return nil
}

// clearable maps the empty string to a cleared (nil) field.
func clearable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// contentTypeForKey picks the MIME type for a rendition key; the original
// keeps its detected type.
func contentTypeForKey(key, originalMime string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".webp":
		return model.ContentTypeWebP
	case ".jpg", ".jpeg":
		return model.ContentTypeJPEG
	}
	return originalMime
}
