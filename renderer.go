package strata

import (
	"math"
)

// styleField marks which Style fields were set explicitly.
type styleField uint8

const (
	styleTransform styleField = 1 << iota
	styleBlend
	styleTexture
)

// Style carries optional per-call overrides of transform, blend mode and
// texture. Unset fields fall back to the layer's defaults and then to the
// renderer's global defaults. The zero Style overrides nothing.
type Style struct {
	transform Matrix
	blend     BlendMode
	texture   TextureRef
	set       styleField
}

// WithTransform returns s with an explicit transform.
func (s Style) WithTransform(m Matrix) Style {
	s.transform = m
	s.set |= styleTransform
	return s
}

// WithBlend returns s with an explicit blend mode.
func (s Style) WithBlend(b BlendMode) Style {
	s.blend = b
	s.set |= styleBlend
	return s
}

// WithTexture returns s with an explicit texture.
func (s Style) WithTexture(t TextureRef) Style {
	s.texture = t
	s.set |= styleTexture
	return s
}

// Transform returns the transform and whether it is set.
func (s Style) Transform() (Matrix, bool) { return s.transform, s.set&styleTransform != 0 }

// Blend returns the blend mode and whether it is set.
func (s Style) Blend() (BlendMode, bool) { return s.blend, s.set&styleBlend != 0 }

// Texture returns the texture and whether it is set.
func (s Style) Texture() (TextureRef, bool) { return s.texture, s.set&styleTexture != 0 }

// Renderer collects primitives into layer-sorted batches and draws them
// through a Context. Allocation calls merge compatible primitives into
// existing batches of the same layer, so primitives sharing state are best
// issued in layer-adjacent bursts.
//
// Within a layer, batches draw in creation order, but a primitive may merge
// into an earlier batch than one created with different state in between.
// Use separate layers when the order of differently-styled primitives matters.
//
// A Renderer is not safe for concurrent use. While a StaggeredDraw is active
// every mutating method panics.
type Renderer struct {
	ctx    *Context
	target RenderTarget

	batches []*meshBatch // sorted by layer, ties by insertion order
	free    []*meshBatch

	global Style
	layers map[int]Style

	locked bool

	vb VertexBuffer
	ib IndexBuffer
}

// NewRenderer creates a renderer drawing to target through ctx. A nil target
// keeps whatever target the Graphics has bound.
func NewRenderer(ctx *Context, target RenderTarget) *Renderer {
	return &Renderer{
		ctx:    ctx,
		target: target,
		global: Style{}.WithTransform(Identity).WithBlend(BlendNormal).WithTexture(TextureRef{}),
		layers: make(map[int]Style),
	}
}

func (r *Renderer) checkUnlocked(op string) {
	if r.locked {
		contractf("%s on a renderer locked by an active staggered draw", op)
	}
}

// Locked reports whether a StaggeredDraw is active for this renderer.
func (r *Renderer) Locked() bool {
	return r.locked
}

// Context returns the renderer's draw context.
func (r *Renderer) Context() *Context {
	return r.ctx
}

// Target returns the render target.
func (r *Renderer) Target() RenderTarget {
	return r.target
}

// SetTarget changes the render target.
func (r *Renderer) SetTarget(t RenderTarget) {
	r.checkUnlocked("SetTarget")
	r.target = t
}

// --- Defaults ---

// SetDefaultTransform sets the global default transform.
func (r *Renderer) SetDefaultTransform(m Matrix) {
	r.checkUnlocked("SetDefaultTransform")
	r.global = r.global.WithTransform(m)
}

// SetDefaultBlend sets the global default blend mode.
func (r *Renderer) SetDefaultBlend(b BlendMode) {
	r.checkUnlocked("SetDefaultBlend")
	r.global = r.global.WithBlend(b)
}

// SetDefaultTexture sets the global default texture.
func (r *Renderer) SetDefaultTexture(t TextureRef) {
	r.checkUnlocked("SetDefaultTexture")
	r.global = r.global.WithTexture(t)
}

// SetLayerTransform overrides the default transform for one layer.
func (r *Renderer) SetLayerTransform(layer int, m Matrix) {
	r.checkUnlocked("SetLayerTransform")
	r.layers[layer] = r.layers[layer].WithTransform(m)
}

// SetLayerBlend overrides the default blend mode for one layer.
func (r *Renderer) SetLayerBlend(layer int, b BlendMode) {
	r.checkUnlocked("SetLayerBlend")
	r.layers[layer] = r.layers[layer].WithBlend(b)
}

// SetLayerTexture overrides the default texture for one layer.
func (r *Renderer) SetLayerTexture(layer int, t TextureRef) {
	r.checkUnlocked("SetLayerTexture")
	r.layers[layer] = r.layers[layer].WithTexture(t)
}

// ClearLayerDefaults removes every override of one layer.
func (r *Renderer) ClearLayerDefaults(layer int) {
	r.checkUnlocked("ClearLayerDefaults")
	delete(r.layers, layer)
}

// LayerDefaults returns the overrides set for a layer.
func (r *Renderer) LayerDefaults(layer int) Style {
	return r.layers[layer]
}

// resolve applies explicit style, then layer defaults, then global defaults.
func (r *Renderer) resolve(layer int, st Style) (Matrix, BlendMode, TextureRef) {
	ld := r.layers[layer]

	transform := r.global.transform
	if m, ok := st.Transform(); ok {
		transform = m
	} else if m, ok := ld.Transform(); ok {
		transform = m
	}

	blend := r.global.blend
	if b, ok := st.Blend(); ok {
		blend = b
	} else if b, ok := ld.Blend(); ok {
		blend = b
	}

	tex := r.global.texture
	if t, ok := st.Texture(); ok {
		tex = t
	} else if t, ok := ld.Texture(); ok {
		tex = t
	}
	return transform, blend, tex
}

// --- Allocation ---

// Vertices is a writable window into a batch's vertex arrays. New vertices
// start at the origin with zero UVs and a white tint. The slices stay valid
// until the next allocation on the same renderer.
type Vertices struct {
	Pos  []Vec2
	UV   []Vec2
	Tint []Color
}

// Len returns the number of vertices in the window.
func (v Vertices) Len() int {
	return len(v.Pos)
}

// Set writes one vertex.
func (v Vertices) Set(i int, pos, uv Vec2, tint Color) {
	v.Pos[i] = pos
	v.UV[i] = uv
	v.Tint[i] = tint
}

// SetTint tints every vertex in the window.
func (v Vertices) SetTint(c Color) {
	for i := range v.Tint {
		v.Tint[i] = c
	}
}

// MeshView is a writable window for a caller-indexed mesh. Indices are
// relative to the whole batch: write Base+i to reference the i-th vertex of
// this window, or use SetTriangle.
type MeshView struct {
	Vertices
	Indices []uint16
	Base    uint16
}

// SetTriangle writes triangle t (indices 3t..3t+2) from window-local vertex
// indices.
func (m MeshView) SetTriangle(t, a, b, c int) {
	m.Indices[3*t] = m.Base + uint16(a)
	m.Indices[3*t+1] = m.Base + uint16(b)
	m.Indices[3*t+2] = m.Base + uint16(c)
}

// alloc reserves nv vertices and ni indices in a compatible batch. An empty
// allocation leaves the store untouched and returns a nil batch.
func (r *Renderer) alloc(layer int, prim Primitive, st Style, nv, ni int) (b *meshBatch, vs, is int) {
	r.checkUnlocked("allocation")
	if nv < 0 || ni < 0 {
		contractf("negative allocation (%d vertices, %d indices)", nv, ni)
	}
	if nv == 0 && ni == 0 {
		return nil, 0, 0
	}
	if nv > MaxBatchVertices {
		contractf("allocation of %d vertices exceeds the %d vertex batch ceiling", nv, MaxBatchVertices)
	}
	transform, blend, tex := r.resolve(layer, st)
	if !prim.Textured() {
		tex = TextureRef{}
	}
	b = r.findOrCreate(layer, prim, transform, blend, tex, nv)
	vs, is = b.grow(nv, ni)
	return b, vs, is
}

func (b *meshBatch) window(vs, nv int) Vertices {
	return Vertices{
		Pos:  b.pos[vs : vs+nv : vs+nv],
		UV:   b.uv[vs : vs+nv : vs+nv],
		Tint: b.tint[vs : vs+nv : vs+nv],
	}
}

// Fan allocates an untextured triangle fan of n vertices: vertex 0 is the hub
// and every adjacent pair of rim vertices forms a triangle with it.
func (r *Renderer) Fan(layer, n int, st Style) Vertices {
	return r.fan(layer, PrimitiveTriangles, n, st)
}

// TexturedFan is Fan with texture coordinates sampled from the resolved
// texture.
func (r *Renderer) TexturedFan(layer, n int, st Style) Vertices {
	return r.fan(layer, PrimitiveTexturedTriangles, n, st)
}

func (r *Renderer) fan(layer int, prim Primitive, n int, st Style) Vertices {
	if n < 3 {
		contractf("fan needs at least 3 vertices, got %d", n)
	}
	b, vs, is := r.alloc(layer, prim, st, n, 3*(n-2))
	fanIndices(b.indices[is:], uint16(vs), n)
	return b.window(vs, n)
}

// Outline allocates an untextured closed ring of n steps as 2n vertices.
// Vertex 2i is the outer and 2i+1 the inner point of step i; consecutive
// steps are joined by two triangles and the last step joins the first.
func (r *Renderer) Outline(layer, n int, st Style) Vertices {
	return r.outline(layer, PrimitiveTriangles, n, st)
}

// TexturedOutline is Outline sampling the resolved texture.
func (r *Renderer) TexturedOutline(layer, n int, st Style) Vertices {
	return r.outline(layer, PrimitiveTexturedTriangles, n, st)
}

func (r *Renderer) outline(layer int, prim Primitive, n int, st Style) Vertices {
	if n < 2 {
		contractf("outline needs at least 2 ring steps, got %d", n)
	}
	b, vs, is := r.alloc(layer, prim, st, 2*n, 6*n)
	outlineIndices(b.indices[is:], uint16(vs), n)
	return b.window(vs, 2*n)
}

// Lines allocates n/2 independent line segments: vertices 2i and 2i+1.
func (r *Renderer) Lines(layer, n int, st Style) Vertices {
	if n%2 != 0 {
		contractf("lines need an even vertex count, got %d", n)
	}
	b, vs, is := r.alloc(layer, PrimitiveLines, st, n, n)
	if b == nil {
		return Vertices{}
	}
	for i := 0; i < n; i++ {
		b.indices[is+i] = uint16(vs + i)
	}
	return b.window(vs, n)
}

// LineStrip allocates a polyline through n vertices.
func (r *Renderer) LineStrip(layer, n int, st Style) Vertices {
	if n < 2 {
		contractf("line strip needs at least 2 vertices, got %d", n)
	}
	b, vs, is := r.alloc(layer, PrimitiveLines, st, n, 2*(n-1))
	stripIndices(b.indices[is:], uint16(vs), n, false)
	return b.window(vs, n)
}

// LineLoop allocates a closed polyline through n vertices.
func (r *Renderer) LineLoop(layer, n int, st Style) Vertices {
	if n < 2 {
		contractf("line loop needs at least 2 vertices, got %d", n)
	}
	b, vs, is := r.alloc(layer, PrimitiveLines, st, n, 2*n)
	stripIndices(b.indices[is:], uint16(vs), n, true)
	return b.window(vs, n)
}

// Mesh allocates an untextured triangle mesh whose indices the caller writes.
func (r *Renderer) Mesh(layer, vertices, indices int, st Style) MeshView {
	return r.mesh(layer, PrimitiveTriangles, vertices, indices, st)
}

// TexturedMesh allocates a textured triangle mesh whose indices the caller
// writes.
func (r *Renderer) TexturedMesh(layer, vertices, indices int, st Style) MeshView {
	return r.mesh(layer, PrimitiveTexturedTriangles, vertices, indices, st)
}

func (r *Renderer) mesh(layer int, prim Primitive, nv, ni int, st Style) MeshView {
	if ni%3 != 0 {
		contractf("mesh index count %d is not a multiple of 3", ni)
	}
	b, vs, is := r.alloc(layer, prim, st, nv, ni)
	if b == nil {
		return MeshView{}
	}
	return MeshView{
		Vertices: b.window(vs, nv),
		Indices:  b.indices[is : is+ni : is+ni],
		Base:     uint16(vs),
	}
}

// --- Index generation ---

func fanIndices(dst []uint16, base uint16, n int) {
	for i := 1; i < n-1; i++ {
		j := 3 * (i - 1)
		dst[j] = base
		dst[j+1] = base + uint16(i)
		dst[j+2] = base + uint16(i+1)
	}
}

func outlineIndices(dst []uint16, base uint16, n int) {
	for i := 0; i < n; i++ {
		a := base + uint16(2*i)
		next := (i + 1) % n
		c := base + uint16(2*next)
		j := 6 * i
		dst[j], dst[j+1], dst[j+2] = a, a+1, c
		dst[j+3], dst[j+4], dst[j+5] = a+1, c+1, c
	}
}

func stripIndices(dst []uint16, base uint16, n int, closed bool) {
	for i := 0; i < n-1; i++ {
		dst[2*i] = base + uint16(i)
		dst[2*i+1] = base + uint16(i+1)
	}
	if closed {
		dst[2*(n-1)] = base + uint16(n-1)
		dst[2*(n-1)+1] = base
	}
}

// --- Store management ---

// Reset drops every batch.
func (r *Renderer) Reset() {
	r.checkUnlocked("Reset")
	r.releaseBatches(0, len(r.batches))
}

// BatchCount returns the number of batches holding indices, i.e. the draw
// calls a full Draw would issue.
func (r *Renderer) BatchCount() int {
	n := 0
	for _, b := range r.batches {
		if len(b.indices) > 0 {
			n++
		}
	}
	return n
}

// pending reports whether any batch, drawable or not, is waiting to be
// consumed.
func (r *Renderer) pending() bool {
	return len(r.batches) > 0
}

// VertexCount returns the number of vertices across all batches.
func (r *Renderer) VertexCount() int {
	n := 0
	for _, b := range r.batches {
		n += len(b.pos)
	}
	return n
}

// Layers returns the distinct layers holding batches, ascending.
func (r *Renderer) Layers() []int {
	return distinctLayers(r.batches)
}

func distinctLayers(batches []*meshBatch) []int {
	var out []int
	for i, b := range batches {
		if i == 0 || b.layer != batches[i-1].layer {
			out = append(out, b.layer)
		}
	}
	return out
}

// Draw draws and consumes every batch.
func (r *Renderer) Draw() DrawStats {
	s := r.Stagger(math.MinInt, math.MaxInt)
	defer s.Close()
	s.Draw()
	return s.Stats()
}
