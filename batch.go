package strata

import (
	"slices"
	"sort"
)

// MaxBatchVertices is the vertex ceiling of one batch, set by 16-bit indices.
const MaxBatchVertices = 65535

// meshBatch is a homogeneous group of vertices and indices sharing primitive,
// texture, transform and blend mode: one draw call.
type meshBatch struct {
	layer     int
	prim      Primitive
	texture   TextureRef
	transform Matrix
	blend     BlendMode

	pos     []Vec2
	uv      []Vec2
	tint    []Color
	indices []uint16
}

// accepts reports whether a request with this state and vertex count can be
// appended to b. For textured primitives an unassigned batch texture matches
// any request.
func (b *meshBatch) accepts(prim Primitive, transform Matrix, blend BlendMode, tex TextureRef, nv int) bool {
	if b.prim != prim || b.transform != transform || b.blend != blend {
		return false
	}
	if prim.Textured() && b.texture != tex && !b.texture.IsZero() {
		return false
	}
	return len(b.pos)+nv <= MaxBatchVertices
}

// grow appends nv vertices (white tint, zero position and UV) and ni zero
// indices, returning the offsets of the new ranges.
func (b *meshBatch) grow(nv, ni int) (vstart, istart int) {
	vstart = len(b.pos)
	istart = len(b.indices)

	b.pos = slices.Grow(b.pos, nv)[:vstart+nv]
	b.uv = slices.Grow(b.uv, nv)[:vstart+nv]
	b.tint = slices.Grow(b.tint, nv)[:vstart+nv]
	clear(b.pos[vstart:])
	clear(b.uv[vstart:])
	for i := vstart; i < vstart+nv; i++ {
		b.tint[i] = White
	}

	b.indices = slices.Grow(b.indices, ni)[:istart+ni]
	clear(b.indices[istart:])
	return vstart, istart
}

// reset empties b for reuse, keeping its array capacity.
func (b *meshBatch) reset() {
	b.texture = TextureRef{}
	b.pos = b.pos[:0]
	b.uv = b.uv[:0]
	b.tint = b.tint[:0]
	b.indices = b.indices[:0]
}

// --- Sorted store ---

// layerBounds returns the half-open index range of batches whose layer lies
// in [minLayer, maxLayer]. batches must be sorted by layer.
func layerBounds(batches []*meshBatch, minLayer, maxLayer int) (lo, hi int) {
	lo = sort.Search(len(batches), func(i int) bool { return batches[i].layer >= minLayer })
	hi = lo + sort.Search(len(batches)-lo, func(i int) bool { return batches[lo+i].layer > maxLayer })
	return lo, hi
}

// findOrCreate scans the layer's batches for one that accepts the request and
// otherwise inserts a new batch after the layer's existing ones. The scan is a
// plain linear search: realistic per-layer batch counts are small.
func (r *Renderer) findOrCreate(layer int, prim Primitive, transform Matrix, blend BlendMode, tex TextureRef, nv int) *meshBatch {
	lo, hi := layerBounds(r.batches, layer, layer)
	for _, b := range r.batches[lo:hi] {
		if b.accepts(prim, transform, blend, tex, nv) {
			if prim.Textured() && b.texture.IsZero() {
				b.texture = tex
			}
			return b
		}
	}

	b := r.newBatch()
	b.layer = layer
	b.prim = prim
	b.transform = transform
	b.blend = blend
	if prim.Textured() {
		b.texture = tex
	}
	r.batches = slices.Insert(r.batches, hi, b)
	return b
}

// newBatch takes a recycled batch if one is available.
func (r *Renderer) newBatch() *meshBatch {
	if n := len(r.free); n > 0 {
		b := r.free[n-1]
		r.free[n-1] = nil
		r.free = r.free[:n-1]
		return b
	}
	return &meshBatch{}
}

// releaseBatches recycles and removes batches[lo:hi].
func (r *Renderer) releaseBatches(lo, hi int) {
	for _, b := range r.batches[lo:hi] {
		b.reset()
		r.free = append(r.free, b)
	}
	r.batches = slices.Delete(r.batches, lo, hi)
}
