package notify

import (
	"image"
	"image/draw"
	_ "image/gif"  // GIF decoder for icons
	_ "image/jpeg" // JPEG decoder for icons
	_ "image/png"  // PNG decoder for icons
	"os"

	"github.com/nfnt/resize"
)

// DefaultImageSize is the largest edge, in pixels, of a posted image.
const DefaultImageSize = 256

// Image is a decoded, non-premultiplied RGBA image.
type Image struct {
	Width  int
	Height int
	Pix    []byte // 4 bytes per pixel, rows are Width*4 bytes
}

// LoadImage decodes the image at path and scales it down to fit in a
// maxSize x maxSize box, keeping its aspect ratio.
// Returns nil if the file is missing or cannot be decoded.
func LoadImage(path string, maxSize uint) *Image {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil
	}

	return FromImage(img, maxSize)
}

// FromImage converts img, scaling it down to maxSize if needed.
// maxSize 0 keeps the original size.
func FromImage(img image.Image, maxSize uint) *Image {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	if maxSize > 0 && (uint(b.Dx()) > maxSize || uint(b.Dy()) > maxSize) { //nolint:gosec // bounds are non-negative
		img = resize.Thumbnail(maxSize, maxSize, img, resize.Lanczos3)
		b = img.Bounds()
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	return &Image{
		Width:  dst.Rect.Dx(),
		Height: dst.Rect.Dy(),
		Pix:    dst.Pix,
	}
}

// Rowstride returns the number of bytes per row.
func (img *Image) Rowstride() int {
	return img.Width * 4
}
