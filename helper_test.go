package strata

import (
	"image"
	"image/color"
	"slices"
)

// fakeTarget is a RenderTarget with no backing storage.
type fakeTarget struct {
	name string
	w, h int
}

func (t *fakeTarget) Size() image.Point { return image.Pt(t.w, t.h) }

// drawRecord is one Draw call observed by the recorder, with the state that
// was bound and a copy of the vertices and indices it referenced.
type drawRecord struct {
	Prim      Primitive
	Target    RenderTarget
	Blend     BlendMode
	Texture   Texture
	Transform Matrix

	BaseVertex, FirstIndex int
	Vertices               []Vertex
	Indices                []uint16 // relative to BaseVertex
}

// recorder is a Graphics that records every call.
type recorder struct {
	calls []string
	draws []drawRecord

	target    RenderTarget
	blend     BlendMode
	texture   Texture
	transform Matrix
	vb        *VertexBuffer
	ib        *IndexBuffer

	vbVersions []uint64
}

func (g *recorder) SetTarget(t RenderTarget) {
	g.calls = append(g.calls, "target")
	g.target = t
}

func (g *recorder) SetBlend(b BlendMode) {
	g.calls = append(g.calls, "blend")
	g.blend = b
}

func (g *recorder) SetTexture(t Texture) {
	g.calls = append(g.calls, "texture")
	g.texture = t
}

func (g *recorder) SetTransform(m Matrix) {
	g.calls = append(g.calls, "transform")
	g.transform = m
}

func (g *recorder) SetBuffers(v *VertexBuffer, i *IndexBuffer) {
	g.calls = append(g.calls, "buffers")
	g.vb, g.ib = v, i
}

func (g *recorder) Draw(p Primitive, baseVertex, vertexCount, firstIndex, indexCount int) {
	g.calls = append(g.calls, "draw")
	g.vbVersions = append(g.vbVersions, g.vb.Version())
	g.draws = append(g.draws, drawRecord{
		Prim:       p,
		Target:     g.target,
		Blend:      g.blend,
		Texture:    g.texture,
		Transform:  g.transform,
		BaseVertex: baseVertex,
		FirstIndex: firstIndex,
		Vertices:   slices.Clone(g.vb.Data()[baseVertex : baseVertex+vertexCount]),
		Indices:    slices.Clone(g.ib.Data()[firstIndex : firstIndex+indexCount]),
	})
}

// count returns how many calls of kind were recorded.
func (g *recorder) count(kind string) int {
	n := 0
	for _, c := range g.calls {
		if c == kind {
			n++
		}
	}
	return n
}

func (g *recorder) reset() {
	g.calls = g.calls[:0]
	g.draws = g.draws[:0]
	g.vbVersions = g.vbVersions[:0]
}

// newTestRenderer returns a renderer drawing into a recorder.
func newTestRenderer() (*Renderer, *recorder) {
	g := &recorder{}
	return NewRenderer(NewContext(g), &fakeTarget{name: "screen", w: 640, h: 480}), g
}

// solid returns a w x h image filled with c.
func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

// tinted allocates a 3-vertex fan on layer with a tint identifying it.
func tinted(r *Renderer, layer int, c Color, st Style) {
	r.Fan(layer, 3, st).SetTint(c)
}
