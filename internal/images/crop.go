package images

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/mirari/uploader/internal/model"
)

// ValidateIconCrop enforces a square crop.
func ValidateIconCrop(c model.Coordinates) error {
	if c.Width <= 0 || c.Height <= 0 || c.Width != c.Height {
		return model.ErrBadCropGeometry
	}
	return nil
}

// ValidateBannerCrop enforces a 3:1 crop, tolerant of integer rounding.
func ValidateBannerCrop(c model.Coordinates) error {
	if c.Width <= 0 || c.Height <= 0 {
		return model.ErrBadCropGeometry
	}
	if int(math.Round(float64(c.Width)/model.BannerAspectLong)) != c.Height {
		return model.ErrBadCropGeometry
	}
	return nil
}

// CropIcon cuts the square crop out of the original and bounds it at the
// icon size.
func CropIcon(data []byte, c model.Coordinates) (image.Image, error) {
	img, err := crop(data, c)
	if err != nil {
		return nil, err
	}
	return resizeLongSide(img, model.IconSize), nil
}

// CropBanner cuts the 3:1 crop out of the original and shrinks it to fit
// within the banner bounds only when it exceeds them.
func CropBanner(data []byte, c model.Coordinates) (image.Image, error) {
	img, err := crop(data, c)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > model.BannerMaxWidth || bounds.Dy() > model.BannerMaxHeight {
		img = imaging.Fit(img, model.BannerMaxWidth, model.BannerMaxHeight, imaging.CatmullRom)
	}
	return img, nil
}

func crop(data []byte, c model.Coordinates) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.ErrInvalidImage
	}

	bounds := img.Bounds()
	rect := image.Rect(c.Left, c.Top, c.Left+c.Width, c.Top+c.Height)
	if !rect.In(bounds) {
		return nil, model.ErrCropOutOfBounds
	}

	return imaging.Crop(img, rect), nil
}

// EncodePair produces the WebP and JPEG renditions stored for icons and
// banners.
func EncodePair(img image.Image) (webpData, jpegData []byte, err error) {
	var wbuf bytes.Buffer
	if err := webp.Encode(&wbuf, img, &webp.Options{Quality: model.EncodeQuality}); err != nil {
		return nil, nil, fmt.Errorf("encode webp: %w", err)
	}

	jpegData, err = encodeAs(img, model.ContentTypeJPEG)
	if err != nil {
		return nil, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return wbuf.Bytes(), jpegData, nil
}
