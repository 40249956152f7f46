package model

import (
	"errors"
	"path/filepath"
	"strings"
)

// Thumbnail rendition presets: the length of the longest side, in pixels.
// The largest preset is additionally rendered as a JPEG fallback.
var ThumbnailSizes = []int{100, 200, 400, 800, 1200}

const (
	// MaxThumbnailSize is the largest preset, used for the JPEG fallback.
	MaxThumbnailSize = 1200

	// EncodeQuality is applied to every lossy rendition on save.
	EncodeQuality = 85

	// MaxUploadSizeBytes bounds a single multipart image upload.
	MaxUploadSizeBytes = 100 * 1024 * 1024
)

// Icon and banner geometry.
const (
	IconSize         = 400
	BannerMaxWidth   = 1800
	BannerMaxHeight  = 600
	BannerAspectLong = 3 // banner crops are 3:1
)

// Supported image content types.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

// mimeFromExtension maps a client filename extension to the MIME type the
// sniffed bytes must agree with.
var mimeFromExtension = map[string]string{
	".jpg":  ContentTypeJPEG,
	".jpeg": ContentTypeJPEG,
	".png":  ContentTypePNG,
	".gif":  ContentTypeGIF,
	".webp": ContentTypeWebP,
}

// MimeForFilename returns the MIME type implied by the filename's extension.
func MimeForFilename(filename string) (string, bool) {
	mime, ok := mimeFromExtension[strings.ToLower(filepath.Ext(filename))]
	return mime, ok
}

// Media errors
var (
	ErrInvalidImage      = errors.New("file is not a valid image")
	ErrMimeMismatch      = errors.New("file extension does not match detected content type")
	ErrFileTooLarge      = errors.New("file too large")
	ErrInvalidWebResize  = errors.New("web_resize must be a positive integer")
	ErrBadCropGeometry   = errors.New("invalid crop geometry")
	ErrCropOutOfBounds   = errors.New("crop exceeds image bounds")
	ErrNoMediaUploaded   = errors.New("post has no uploaded media")
)

// Coordinates is a crop rectangle within the original image.
type Coordinates struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UploadResult is the response body for a successful image upload.
type UploadResult struct {
	PostID     string         `json:"post_id"`
	URL        string         `json:"url"`
	Emoji      *string        `json:"emoji"`
	Thumbnails map[int]string `json:"thumbnails"`
}
