package service

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/mirari/uploader/internal/client"
	"github.com/mirari/uploader/internal/images"
	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/postid"
)

// SetIcon crops a square region out of one of the caller's posts, renders
// the icon pair, and repoints the user record at the new post.
func (s *UploadService) SetIcon(ctx context.Context, userID int64, postID string, coords model.Coordinates) error {
	if err := images.ValidateIconCrop(coords); err != nil {
		return err
	}
	return s.setProfileImage(ctx, userID, postID, coords, "icons", images.CropIcon, s.userRepo.SetIcon, func(p *model.UserProjection, id string) {
		p.Icon = &id
	})
}

// SetBanner is SetIcon for the 3:1 banner crop.
func (s *UploadService) SetBanner(ctx context.Context, userID int64, postID string, coords model.Coordinates) error {
	if err := images.ValidateBannerCrop(coords); err != nil {
		return err
	}
	return s.setProfileImage(ctx, userID, postID, coords, "banners", images.CropBanner, s.userRepo.SetBanner, func(p *model.UserProjection, id string) {
		p.Banner = &id
	})
}

// setProfileImage is the shared icon/banner procedure: fetch post and user
// in parallel, pull the original through the CDN, crop, store the rendition
// pair, swap the user's pointer, and clean up the replaced pair.
func (s *UploadService) setProfileImage(
	ctx context.Context,
	userID int64,
	postID string,
	coords model.Coordinates,
	folder string,
	crop func([]byte, model.Coordinates) (image.Image, error),
	repoint func(context.Context, int64, int64) (*int64, error),
	patchUser func(*model.UserProjection, string),
) error {
	id, err := postid.Parse(postID)
	if err != nil {
		return err
	}

	post, user, err := s.fetchPostAndUser(ctx, userID, id)
	if err != nil {
		return err
	}
	if post.Filename == nil {
		return model.ErrNoMediaUploaded
	}

	original, err := s.cdnClient.FetchOriginal(ctx, id.String(), *post.Filename)
	if err != nil {
		return err
	}

	img, err := crop(original, coords)
	if err != nil {
		return err
	}

	webpData, jpegData, err := images.EncodePair(img)
	if err != nil {
		return err
	}

	handle := strings.ToLower(user.Handle)
	webpKey := fmt.Sprintf("%s/%s/%s.webp", id.String(), folder, handle)
	jpegKey := fmt.Sprintf("%s/%s/%s.jpg", id.String(), folder, handle)

	if err := s.store.Put(ctx, webpKey, webpData, model.ContentTypeWebP); err != nil {
		return err
	}
	if err := s.store.Put(ctx, jpegKey, jpegData, model.ContentTypeJPEG); err != nil {
		return err
	}

	previous, err := repoint(ctx, userID, id.Int())
	if err != nil {
		return err
	}

	// Drop the replaced pair once the pointer has moved.
	if previous != nil && *previous != id.Int() {
		prevID := postid.PostID(*previous).String()
		for _, key := range []string{
			fmt.Sprintf("%s/%s/%s.webp", prevID, folder, handle),
			fmt.Sprintf("%s/%s/%s.jpg", prevID, folder, handle),
		} {
			if err := s.store.Delete(ctx, key); err != nil {
				log.Printf("[Uploader] Old %s delete FAILED: key=%s err=%v", folder, key, err)
			}
		}
	}

	idStr := id.String()
	if err := s.userCache.Patch(ctx, userID, func(p *model.UserProjection) { patchUser(p, idStr) }); err != nil {
		log.Printf("[Uploader] User cache patch FAILED: user=%d err=%v", userID, err)
	}
	return nil
}

// fetchPostAndUser runs the post read and the user lookup concurrently.
func (s *UploadService) fetchPostAndUser(ctx context.Context, userID int64, id postid.PostID) (*model.Post, *client.RemoteUser, error) {
	type postResult struct {
		post *model.Post
		err  error
	}
	postCh := make(chan postResult, 1)

	go func() {
		post, err := s.postRepo.GetByID(ctx, userID, id)
		postCh <- postResult{post: post, err: err}
	}()

	user, userErr := s.userClient.FetchUser(ctx, userID)
	pr := <-postCh

	if pr.err != nil {
		return nil, nil, pr.err
	}
	if userErr != nil {
		return nil, nil, userErr
	}
	return pr.post, user, nil
}
