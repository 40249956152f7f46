package images

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirari/uploader/internal/model"
)

// jpegBytes renders a solid test image of the given size as JPEG.
func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 120, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 120, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func scratchEntries(t *testing.T, dir string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestPrepareWebResize(t *testing.T) {
	scratch := t.TempDir()
	pipeline := NewPipeline(scratch)

	size := 1500
	prep, err := pipeline.Prepare(jpegBytes(t, 3000, 1000), "photo.jpg", &size)
	require.NoError(t, err)
	defer prep.Close()

	assert.Equal(t, 1500, prep.Width)
	assert.Equal(t, 500, prep.Height)
	assert.Equal(t, "photo-web.jpg", prep.Filename)
	assert.Equal(t, model.ContentTypeJPEG, prep.Mime)
	assert.Equal(t, "jpg", prep.FileType)
}

func TestPrepareWebResizePassThrough(t *testing.T) {
	pipeline := NewPipeline(t.TempDir())

	size := 1500
	prep, err := pipeline.Prepare(jpegBytes(t, 800, 600), "photo.jpg", &size)
	require.NoError(t, err)
	defer prep.Close()

	// Under the budget: dimensions unchanged, filename still renamed.
	assert.Equal(t, 800, prep.Width)
	assert.Equal(t, 600, prep.Height)
	assert.Equal(t, "photo-web.jpg", prep.Filename)
}

func TestPrepareRejectsNonPositiveWebResize(t *testing.T) {
	pipeline := NewPipeline(t.TempDir())

	for _, size := range []int{0, -1} {
		size := size
		_, err := pipeline.Prepare(jpegBytes(t, 100, 100), "photo.jpg", &size)
		assert.ErrorIs(t, err, model.ErrInvalidWebResize)
	}
}

func TestPrepareRejectsJunkBytes(t *testing.T) {
	scratch := t.TempDir()
	pipeline := NewPipeline(scratch)

	_, err := pipeline.Prepare([]byte("not an image at all"), "photo.jpg", nil)
	assert.ErrorIs(t, err, model.ErrInvalidImage)
	assert.Zero(t, scratchEntries(t, scratch), "junk bytes must not leave scratch files")
}

func TestPrepareRejectsMimeMismatch(t *testing.T) {
	scratch := t.TempDir()
	pipeline := NewPipeline(scratch)

	// PNG bytes under a .jpg name: sniffed type wins, request is rejected.
	_, err := pipeline.Prepare(pngBytes(t, 100, 100), "photo.jpg", nil)
	assert.ErrorIs(t, err, model.ErrMimeMismatch)
	assert.Zero(t, scratchEntries(t, scratch), "scratch file must be deleted on failure")
}

func TestPrepareCleansScratchOnClose(t *testing.T) {
	scratch := t.TempDir()
	pipeline := NewPipeline(scratch)

	prep, err := pipeline.Prepare(jpegBytes(t, 200, 100), "photo.jpg", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, scratchEntries(t, scratch))

	prep.Close()
	assert.Zero(t, scratchEntries(t, scratch))
}

func TestRenditions(t *testing.T) {
	pipeline := NewPipeline(t.TempDir())

	prep, err := pipeline.Prepare(jpegBytes(t, 2000, 1500), "photo.jpg", nil)
	require.NoError(t, err)
	defer prep.Close()

	url, renditions, thumbnails, err := pipeline.Renditions("AAAAAAAB", prep)
	require.NoError(t, err)

	assert.Equal(t, "AAAAAAAB/photo.jpg", url)
	assert.Contains(t, renditions, url)

	for _, size := range model.ThumbnailSizes {
		key := fmt.Sprintf("AAAAAAAB/thumbnails/%d.webp", size)
		assert.Contains(t, renditions, key)
		assert.Equal(t, key, thumbnails[size])
		assert.NotEmpty(t, renditions[key])
	}

	assert.Contains(t, renditions, "AAAAAAAB/thumbnails/1200.jpg")
	assert.Len(t, renditions, len(model.ThumbnailSizes)+2)
}

func TestResizeLongSide(t *testing.T) {
	cases := []struct {
		w, h, size     int
		wantW, wantH   int
	}{
		{3000, 1000, 1500, 1500, 500},
		{1000, 3000, 1500, 500, 1500},
		{800, 600, 1500, 800, 600},   // pass-through
		{1500, 1500, 1500, 1500, 1500}, // exact fit passes through
		{999, 100, 100, 100, 10},     // short side floors
	}

	for _, tc := range cases {
		img := imaging.New(tc.w, tc.h, color.NRGBA{A: 255})
		out := resizeLongSide(img, tc.size)
		bounds := out.Bounds()
		assert.Equal(t, tc.wantW, bounds.Dx(), "%dx%d @ %d width", tc.w, tc.h, tc.size)
		assert.Equal(t, tc.wantH, bounds.Dy(), "%dx%d @ %d height", tc.w, tc.h, tc.size)
	}
}

func TestWebFilename(t *testing.T) {
	assert.Equal(t, "photo-web.jpg", webFilename("photo.jpg"))
	assert.Equal(t, "a.b-web.png", webFilename("a.b.png"))
	assert.Equal(t, "noext-web", webFilename("noext"))
}
