// Package images implements the rendition pipeline: probe, scratch file,
// metadata strip, resize, and the derivation set uploaded for each post.
package images

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/mirari/uploader/internal/model"
)

// Prepared is a validated, stripped, possibly web-resized original, ready
// for rendition generation. Callers must Close it to drop the scratch file.
type Prepared struct {
	// Filename is the client filename, with a "-web" infix when a web
	// resize was applied.
	Filename string

	// FileType and Mime describe the detected media type.
	FileType string
	Mime     string

	// Width and Height are the dimensions of the (possibly resized) original.
	Width  int
	Height int

	// Image is the decoded raster used for rendition generation.
	Image image.Image

	// Data is the stripped, re-encoded original to store.
	Data []byte

	scratchPath string
}

// Close deletes the scratch file. Runs on both success and failure paths.
func (p *Prepared) Close() {
	if p.scratchPath == "" {
		return
	}
	if err := os.Remove(p.scratchPath); err != nil {
		log.Printf("[Pipeline] Scratch delete FAILED: path=%s err=%v", p.scratchPath, err)
	}
	p.scratchPath = ""
}

// Pipeline validates uploads and produces the derivation set.
type Pipeline struct {
	scratchDir string
}

func NewPipeline(scratchDir string) *Pipeline {
	return &Pipeline{scratchDir: scratchDir}
}

// Prepare runs the pre-transaction half of an upload: probe the bytes as an
// image, spool them to a scratch file, strip metadata, verify the filename
// extension agrees with the sniffed type, and apply an optional web resize.
//
// Validation failures are client errors; a strip failure is internal.
func (p *Pipeline) Prepare(fileData []byte, filename string, webResize *int) (prep *Prepared, err error) {
	if webResize != nil && *webResize <= 0 {
		return nil, model.ErrInvalidWebResize
	}

	// Probe before touching the disk; junk bytes are a client error.
	if _, _, err := image.DecodeConfig(bytes.NewReader(fileData)); err != nil {
		return nil, model.ErrInvalidImage
	}

	scratchPath := filepath.Join(p.scratchDir, fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(filename)))
	if err := os.WriteFile(scratchPath, fileData, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch file: %w", err)
	}

	// Failure returns set prep to nil, so the cleanup holds its own reference.
	scratch := &Prepared{scratchPath: scratchPath}
	prep = scratch
	defer func() {
		if err != nil {
			scratch.Close()
		}
	}()

	sniffed := sniffMime(fileData)
	wantMime, ok := model.MimeForFilename(filename)
	if !ok || wantMime != sniffed {
		return nil, model.ErrMimeMismatch
	}

	// Decoding and re-encoding the scratch file is the metadata strip:
	// nothing but raster data survives the round trip.
	img, err := imaging.Open(scratchPath)
	if err != nil {
		return nil, fmt.Errorf("strip metadata: %w", err)
	}

	if webResize != nil {
		img = resizeLongSide(img, *webResize)
		filename = webFilename(filename)
	}

	data, err := encodeAs(img, sniffed)
	if err != nil {
		return nil, fmt.Errorf("re-encode original: %w", err)
	}

	bounds := img.Bounds()
	prep.Filename = filename
	prep.FileType = fileTypeForMime(sniffed)
	prep.Mime = sniffed
	prep.Width = bounds.Dx()
	prep.Height = bounds.Dy()
	prep.Image = img
	prep.Data = data
	return prep, nil
}

// Renditions enumerates the derivation set for a prepared original: the
// original under "{post_id}/{filename}", a WebP per preset size, and a JPEG
// at the largest preset.
func (p *Pipeline) Renditions(postID string, prep *Prepared) (url string, renditions map[string][]byte, thumbnails map[int]string, err error) {
	url = fmt.Sprintf("%s/%s", postID, prep.Filename)
	renditions = map[string][]byte{url: prep.Data}
	thumbnails = make(map[int]string, len(model.ThumbnailSizes)+1)

	for _, size := range model.ThumbnailSizes {
		thumb := resizeLongSide(prep.Image, size)

		var buf bytes.Buffer
		if err := webp.Encode(&buf, thumb, &webp.Options{Quality: model.EncodeQuality}); err != nil {
			return "", nil, nil, fmt.Errorf("encode %d thumbnail: %w", size, err)
		}

		key := fmt.Sprintf("%s/thumbnails/%d.webp", postID, size)
		renditions[key] = buf.Bytes()
		thumbnails[size] = key
	}

	// JPEG fallback at the largest preset for clients without WebP.
	jpegThumb := resizeLongSide(prep.Image, model.MaxThumbnailSize)
	jpegData, err := encodeAs(jpegThumb, model.ContentTypeJPEG)
	if err != nil {
		return "", nil, nil, fmt.Errorf("encode jpeg thumbnail: %w", err)
	}
	renditions[fmt.Sprintf("%s/thumbnails/%d.jpg", postID, model.MaxThumbnailSize)] = jpegData

	return url, renditions, thumbnails, nil
}

// resizeLongSide scales so the longest side fits size, flooring the short
// side. Images already within the budget pass through untouched.
func resizeLongSide(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	long := w
	if h > w {
		long = h
	}
	if size >= long {
		return img
	}

	ratio := float64(size) / float64(long)
	if w >= h {
		return imaging.Resize(img, size, int(math.Floor(float64(h)*ratio)), imaging.CatmullRom)
	}
	return imaging.Resize(img, int(math.Floor(float64(w)*ratio)), size, imaging.CatmullRom)
}

// webFilename adds the "-web" infix before the extension.
func webFilename(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "-web" + ext
}

// sniffMime detects the content type from the leading bytes.
func sniffMime(data []byte) string {
	n := len(data)
	if n > 512 {
		n = 512
	}
	mime := http.DetectContentType(data[:n])
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

func fileTypeForMime(mime string) string {
	switch mime {
	case model.ContentTypeJPEG:
		return "jpg"
	case model.ContentTypePNG:
		return "png"
	case model.ContentTypeWebP:
		return "webp"
	case model.ContentTypeGIF:
		return "gif"
	}
	return strings.TrimPrefix(mime, "image/")
}

// encodeAs re-encodes the raster in the given format. Lossy formats use the
// single pipeline quality constant.
func encodeAs(img image.Image, mime string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch mime {
	case model.ContentTypeJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(model.EncodeQuality))
	case model.ContentTypePNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case model.ContentTypeGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	case model.ContentTypeWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: model.EncodeQuality})
	default:
		err = fmt.Errorf("unsupported media type %q", mime)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
