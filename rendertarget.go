package strata

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// renderTexturePool keeps offscreen ebiten.Images keyed by power-of-two
// dimensions. After warmup, Acquire/Release are zero-alloc.
type renderTexturePool struct {
	buckets map[image.Point][]*ebiten.Image
	live    int
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	key := image.Pt(bitCeil(w), bitCeil(h))

	if stack := p.buckets[key]; len(stack) > 0 {
		img := stack[len(stack)-1]
		p.buckets[key] = stack[:len(stack)-1]
		img.Clear()
		return img
	}

	p.live++
	Logger().Debug("strata: render target allocated", "width", key.X, "height", key.Y, "live", p.live)
	return ebiten.NewImageWithOptions(
		image.Rectangle{Max: key},
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool. It is cleared on the next Acquire,
// not here.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	if p.buckets == nil {
		p.buckets = make(map[image.Point][]*ebiten.Image)
	}
	key := img.Bounds().Size()
	p.buckets[key] = append(p.buckets[key], img)
}

// Idle reports how many released images are waiting for reuse.
func (p *renderTexturePool) Idle() int {
	n := 0
	for _, s := range p.buckets {
		n += len(s)
	}
	return n
}

// Drain deallocates every idle image.
func (p *renderTexturePool) Drain() {
	for k, s := range p.buckets {
		for _, img := range s {
			img.Deallocate()
			p.live--
		}
		delete(p.buckets, k)
	}
}
