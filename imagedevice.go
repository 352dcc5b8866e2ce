package strata

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ImageDevice allocates CPU-side textures backed by *image.RGBA. It is used
// for headless atlas building, tooling and tests.
type ImageDevice struct {
	// MaxSize caps texture dimensions, mimicking a GPU limit. Zero means
	// unlimited.
	MaxSize int

	// Allocations counts successful NewTexture calls.
	Allocations int
}

// NewTexture allocates a transparent texture.
func (d *ImageDevice) NewTexture(width, height int, opts TextureOptions) (Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if d.MaxSize > 0 && (width > d.MaxSize || height > d.MaxSize) {
		return nil, fmt.Errorf("texture %dx%d exceeds device limit %d", width, height, d.MaxSize)
	}
	d.Allocations++
	return &ImageTexture{img: image.NewRGBA(image.Rect(0, 0, width, height)), filter: opts.Filter}, nil
}

// ImageTexture is a Texture held in CPU memory.
type ImageTexture struct {
	img      *image.RGBA
	filter   Filter
	disposed bool
}

// Image returns the backing image. It is nil after Dispose.
func (t *ImageTexture) Image() *image.RGBA {
	return t.img
}

// Disposed reports whether Dispose has been called.
func (t *ImageTexture) Disposed() bool {
	return t.disposed
}

func (t *ImageTexture) Size() image.Point {
	if t.img == nil {
		return image.Point{}
	}
	return t.img.Bounds().Size()
}

func (t *ImageTexture) Upload(dst image.Point, src image.Image) {
	t.mustLive()
	b := src.Bounds()
	draw.Copy(t.img, dst, src, b, draw.Src, nil)
}

func (t *ImageTexture) Copy(src Texture, srcRect image.Rectangle, dst image.Point) {
	t.mustLive()
	switch s := src.(type) {
	case *ImageTexture:
		s.mustLive()
		draw.Copy(t.img, dst, s.img, srcRect, draw.Src, nil)
	default:
		contractf("cannot copy %T into an ImageTexture", src)
	}
}

func (t *ImageTexture) Clear() {
	t.mustLive()
	draw.Draw(t.img, t.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (t *ImageTexture) Dispose() {
	t.img = nil
	t.disposed = true
}

func (t *ImageTexture) mustLive() {
	if t.disposed {
		contractf("use of disposed texture")
	}
}
