package strata

import (
	"image"
	"iter"
)

// AtlasConfig configures a DynamicAtlas. The zero value is an empty,
// nearest-filtered atlas that allocates on first Add.
type AtlasConfig struct {
	// Size pre-allocates the texture. Zero defers allocation to the first Add.
	Size image.Point
	// Filter is the sampling filter of the atlas texture.
	Filter Filter
}

// DynamicAtlas packs bitmaps into one growable texture. Entries never move:
// when the texture runs out of room it is reallocated larger and the old
// pixels are copied to the same offsets, so rectangles and UVs handed out
// earlier stay valid.
//
// K is any comparable key type (glyph IDs, strings, structs).
type DynamicAtlas[K comparable] struct {
	dev    Device
	owner  *OwnedTexture
	packer *Packer[K]
	size   image.Point
	filter Filter
}

// NewDynamicAtlas creates an atlas on dev.
func NewDynamicAtlas[K comparable](dev Device, cfg AtlasConfig) (*DynamicAtlas[K], error) {
	a := &DynamicAtlas[K]{
		dev:    dev,
		owner:  Own(nil, cfg.Filter),
		packer: NewPacker[K](),
		filter: cfg.Filter,
	}
	if cfg.Size.X > 0 && cfg.Size.Y > 0 {
		if err := a.Reserve(cfg.Size); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// NewDynamicAtlasFrom creates an atlas seeded with the entries and pixels of
// a pre-assembled static atlas. New entries are packed after the seeded ones.
func NewDynamicAtlasFrom[K comparable](dev Device, s *StaticAtlas[K], cfg AtlasConfig) (*DynamicAtlas[K], error) {
	a, err := NewDynamicAtlas[K](dev, cfg)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 && s.Size() == (image.Point{}) {
		return a, nil
	}
	if err := a.Reserve(s.Size()); err != nil {
		return nil, err
	}
	a.packer = s.packer.Clone()
	a.owner.Texture().Upload(image.Point{}, s.Image)
	return a, nil
}

// Add makes bitmap available under key and returns its rectangle in the atlas
// texture. The texture grows as needed; the only failure is an allocation
// error wrapping ErrOutOfMemory. Adding a key that is already present returns
// its existing rectangle and does not upload.
func (a *DynamicAtlas[K]) Add(key K, bitmap image.Image) (image.Rectangle, error) {
	if r, ok := a.packer.Lookup(key); ok {
		return r, nil
	}

	b := bitmap.Bounds()
	entry := b.Size()

	undo := a.packer.mark()
	bounds := a.size
	if _, ok := a.packer.Insert(key, entry, bounds); !ok {
		if bounds.X == 0 || bounds.Y == 0 {
			bounds = initialAtlasSize(entry)
		} else {
			bounds = growAtlasSize(bounds)
		}
		for {
			if _, ok := a.packer.Insert(key, entry, bounds); ok {
				break
			}
			bounds = growAtlasSize(bounds)
		}
	}

	r, _ := a.packer.Lookup(key)
	if err := a.Reserve(bounds); err != nil {
		// Without a texture the entry would be invisible; forget it so the
		// caller can retry once memory is available.
		a.packer.rollback(undo, key)
		return image.Rectangle{}, err
	}
	if !r.Empty() {
		a.owner.Texture().Upload(r.Min, bitmap)
	}
	return r, nil
}

// Reserve grows the texture to at least size, copying existing pixels at
// unchanged offsets. It is a no-op when the current texture already covers
// size. The atlas never shrinks. A zero axis keeps the current extent on
// that axis; if that leaves the texture without area nothing is allocated.
func (a *DynamicAtlas[K]) Reserve(size image.Point) error {
	if size.X < 0 || size.Y < 0 {
		contractf("atlas reserve with negative size %v", size)
	}
	want := image.Pt(max(a.size.X, size.X), max(a.size.Y, size.Y))
	if want == a.size || want.X == 0 || want.Y == 0 {
		return nil
	}

	tex, err := a.dev.NewTexture(want.X, want.Y, TextureOptions{Filter: a.filter})
	if err != nil {
		return outOfMemory("atlas texture", want.X, want.Y, err)
	}
	if old := a.owner.Texture(); old != nil {
		tex.Copy(old, image.Rectangle{Max: a.size}, image.Point{})
	}
	a.owner.Replace(tex)

	Logger().Debug("strata: atlas texture reallocated",
		"from_width", a.size.X, "from_height", a.size.Y,
		"width", want.X, "height", want.Y, "entries", a.packer.Len())
	a.size = want
	return nil
}

// Clear removes every entry and blanks the texture. The texture keeps its
// size, so refilling (for example a per-frame glyph cache) does not
// reallocate.
func (a *DynamicAtlas[K]) Clear() {
	a.packer.Reset()
	if tex := a.owner.Texture(); tex != nil {
		tex.Clear()
	}
}

// Entry returns the rectangle of key. It panics if key was never added.
func (a *DynamicAtlas[K]) Entry(key K) image.Rectangle {
	r, ok := a.packer.Lookup(key)
	if !ok {
		contractf("atlas entry %v not found", key)
	}
	return r
}

// Lookup returns the rectangle of key and whether it exists.
func (a *DynamicAtlas[K]) Lookup(key K) (image.Rectangle, bool) {
	return a.packer.Lookup(key)
}

// Contains reports whether key has been added.
func (a *DynamicAtlas[K]) Contains(key K) bool {
	_, ok := a.packer.Lookup(key)
	return ok
}

// Entries returns the number of live entries.
func (a *DynamicAtlas[K]) Entries() int {
	return a.packer.Len()
}

// All iterates over live entries in unspecified order.
func (a *DynamicAtlas[K]) All() iter.Seq2[K, image.Rectangle] {
	return a.packer.All()
}

// Size returns the texture size, or the zero point before the first
// allocation.
func (a *DynamicAtlas[K]) Size() image.Point {
	return a.size
}

// Texture returns a reference to the atlas texture. The reference follows
// reallocations and empties when the atlas is disposed.
func (a *DynamicAtlas[K]) Texture() TextureRef {
	return a.owner.Ref()
}

// Dispose releases the texture. References obtained from Texture become
// empty. The atlas must not be used afterwards.
func (a *DynamicAtlas[K]) Dispose() {
	a.owner.Dispose()
	a.packer.Reset()
	a.size = image.Point{}
}
