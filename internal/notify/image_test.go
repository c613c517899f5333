package notify

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.png")
	writePNG(t, path, 16, 8)

	img := LoadImage(path, DefaultImageSize)
	require.NotNil(t, img)

	assert.Equal(t, 16, img.Width)
	assert.Equal(t, 8, img.Height)
	assert.Equal(t, 64, img.Rowstride())
	assert.Len(t, img.Pix, 16*8*4)
	assert.Equal(t, []byte{200, 10, 10, 255}, img.Pix[:4])
}

func TestLoadImageScalesDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	writePNG(t, path, 400, 200)

	img := LoadImage(path, 100)
	require.NotNil(t, img)

	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 50, img.Height)
	assert.Len(t, img.Pix, img.Rowstride()*img.Height)
}

func TestLoadImageInvalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o600))

	assert.Nil(t, LoadImage("", DefaultImageSize), "empty path")
	assert.Nil(t, LoadImage(filepath.Join(dir, "missing.png"), DefaultImageSize), "missing file")
	assert.Nil(t, LoadImage(garbage, DefaultImageSize), "undecodable file")
}
