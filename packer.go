package strata

import (
	"image"
	"iter"
	"math/bits"
)

// Packer places keyed rectangles inside a bounded region using a shelf
// policy: entries fill the current row left to right, and when the row cannot
// hold an entry a new row starts at the bottom of the previous one.
//
// The packer never moves an entry once placed and never looks back at
// earlier rows. Growing the bounds between calls is therefore always safe:
// previously returned rectangles stay valid and untouched. Growth is the
// caller's job; Insert only reports whether the entry fits.
//
// Packer has no GPU dependency.
type Packer[K comparable] struct {
	entries map[K]image.Rectangle

	x      int // next free column in the current row
	rowY   int // top of the current row
	rowH   int // height of the tallest entry in the current row
	extent image.Point
}

// NewPacker creates an empty packer.
func NewPacker[K comparable]() *Packer[K] {
	return &Packer[K]{entries: make(map[K]image.Rectangle)}
}

// Insert places an entry of the given size inside a region of size bounds and
// returns its offset. If the entry does not fit, ok is false and the packer is
// unchanged. Inserting a key that is already present returns the existing
// offset.
func (p *Packer[K]) Insert(key K, size, bounds image.Point) (offset image.Point, ok bool) {
	if size.X < 0 || size.Y < 0 {
		contractf("packer insert with negative size %v", size)
	}
	if r, exists := p.entries[key]; exists {
		return r.Min, true
	}

	// Current row.
	if p.x+size.X <= bounds.X && p.rowY+size.Y <= bounds.Y {
		offset = image.Pt(p.x, p.rowY)
		p.x += size.X
		p.rowH = max(p.rowH, size.Y)
		p.record(key, offset, size)
		return offset, true
	}

	// New row below the current one.
	y := p.rowY + p.rowH
	if size.X <= bounds.X && y+size.Y <= bounds.Y {
		offset = image.Pt(0, y)
		p.rowY = y
		p.rowH = size.Y
		p.x = size.X
		p.record(key, offset, size)
		return offset, true
	}

	return image.Point{}, false
}

// Place records an entry at a fixed rectangle, as produced by an external
// packer. Subsequent inserts start on a fresh row below every recorded
// rectangle, so they cannot overlap it. Placing an existing key replaces its
// rectangle.
func (p *Packer[K]) Place(key K, r image.Rectangle) {
	r = r.Canon()
	p.entries[key] = r
	p.extent = image.Pt(max(p.extent.X, r.Max.X), max(p.extent.Y, r.Max.Y))
	p.rowY = p.extent.Y
	p.rowH = 0
	p.x = 0
}

func (p *Packer[K]) record(key K, offset, size image.Point) {
	r := image.Rectangle{Min: offset, Max: offset.Add(size)}
	p.entries[key] = r
	p.extent = image.Pt(max(p.extent.X, r.Max.X), max(p.extent.Y, r.Max.Y))
}

// packerMark is a saved cursor used to undo the most recent insertion.
type packerMark struct {
	x, rowY, rowH int
	extent        image.Point
}

func (p *Packer[K]) mark() packerMark {
	return packerMark{x: p.x, rowY: p.rowY, rowH: p.rowH, extent: p.extent}
}

// rollback removes key and restores the cursor saved by mark. key must be the
// only entry inserted since the mark.
func (p *Packer[K]) rollback(m packerMark, key K) {
	delete(p.entries, key)
	p.x, p.rowY, p.rowH, p.extent = m.x, m.rowY, m.rowH, m.extent
}

// Lookup returns the rectangle placed for key.
func (p *Packer[K]) Lookup(key K) (image.Rectangle, bool) {
	r, ok := p.entries[key]
	return r, ok
}

// Len returns the number of placed entries.
func (p *Packer[K]) Len() int {
	return len(p.entries)
}

// Extent returns the smallest size containing every placed rectangle.
func (p *Packer[K]) Extent() image.Point {
	return p.extent
}

// All iterates over placed entries in unspecified order.
func (p *Packer[K]) All() iter.Seq2[K, image.Rectangle] {
	return func(yield func(K, image.Rectangle) bool) {
		for k, r := range p.entries {
			if !yield(k, r) {
				return
			}
		}
	}
}

// Reset forgets every entry.
func (p *Packer[K]) Reset() {
	clear(p.entries)
	p.x, p.rowY, p.rowH = 0, 0, 0
	p.extent = image.Point{}
}

// Clone returns an independent copy of the packer state.
func (p *Packer[K]) Clone() *Packer[K] {
	c := *p
	c.entries = make(map[K]image.Rectangle, len(p.entries))
	for k, r := range p.entries {
		c.entries[k] = r
	}
	return &c
}

// bitCeil returns the smallest power of two >= n (minimum 1).
func bitCeil(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// initialAtlasSize is the first allocation for an entry of the given size:
// the bit-ceiling of size+1 on each axis.
func initialAtlasSize(size image.Point) image.Point {
	return image.Pt(bitCeil(size.X+1), bitCeil(size.Y+1))
}

// growAtlasSize doubles the smaller dimension of size (width on ties).
func growAtlasSize(size image.Point) image.Point {
	size.X = max(size.X, 1)
	size.Y = max(size.Y, 1)
	if size.X <= size.Y {
		size.X *= 2
	} else {
		size.Y *= 2
	}
	return size
}
