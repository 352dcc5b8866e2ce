package strata

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Device       = (*EbitenDevice)(nil)
	_ Texture      = (*EbitenTexture)(nil)
	_ RenderTarget = (*EbitenTexture)(nil)
	_ RenderTarget = (*EbitenTarget)(nil)
	_ Graphics     = (*EbitenGraphics)(nil)
	_ Device       = (*ImageDevice)(nil)
	_ Texture      = (*ImageTexture)(nil)
)

func TestEbitenDeviceNewTexture(t *testing.T) {
	dev := &EbitenDevice{MaxSize: 256}

	_, err := dev.NewTexture(0, 16, TextureOptions{})
	assert.Error(t, err)
	_, err = dev.NewTexture(512, 16, TextureOptions{})
	assert.Error(t, err)

	tex, err := dev.NewTexture(64, 32, TextureOptions{Filter: FilterLinear})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 32), tex.Size())
	tex.Dispose()
	assert.Equal(t, image.Point{}, tex.Size())
}

func TestEbitenAtlasOutOfMemory(t *testing.T) {
	a, err := NewDynamicAtlas[string](&EbitenDevice{MaxSize: 32}, AtlasConfig{})
	require.NoError(t, err)
	_, err = a.Add("big", solid(40, 8, red))
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestEbitenTransformVertices(t *testing.T) {
	g := NewEbitenGraphics()
	g.SetTransform(Translate(10, 0).Mul(Scale(2, 2)))
	src := []Vertex{{X: 1, Y: 2, U: 3, V: 4, R: 1, G: 0.5, A: 0.25}}

	g.transformVertices(src, true)
	require.Len(t, g.verts, 1)
	v := g.verts[0]
	assert.Equal(t, float32(12), v.DstX)
	assert.Equal(t, float32(4), v.DstY)
	assert.Equal(t, float32(3), v.SrcX)
	assert.Equal(t, float32(4), v.SrcY)
	assert.Equal(t, float32(0.5), v.ColorG)
	assert.Equal(t, float32(0.25), v.ColorA)

	g.transformVertices(src, false)
	assert.Equal(t, float32(0.5), g.verts[0].SrcX, "untextured vertices sample the white pixel")
}

func TestEbitenExpandLines(t *testing.T) {
	g := NewEbitenGraphics()
	g.LineWidth = 2
	src := []Vertex{{X: 0, Y: 0, A: 1}, {X: 10, Y: 0, A: 1}, {X: 5, Y: 5, A: 1}}

	g.expandLines(src, []uint16{0, 1, 2, 2})
	require.Len(t, g.verts, 4, "zero-length segments are dropped")
	assert.Equal(t, []uint32{0, 1, 2, 1, 3, 2}, g.inds32)
	assert.InDelta(t, 1, g.verts[0].DstY, 1e-6)
	assert.InDelta(t, -1, g.verts[1].DstY, 1e-6)
	assert.InDelta(t, 10, g.verts[2].DstX, 1e-6)
}

func TestEbitenGraphicsRejectsForeignTypes(t *testing.T) {
	g := NewEbitenGraphics()
	assert.Panics(t, func() { g.SetTarget(&fakeTarget{}) })
	assert.Panics(t, func() { g.SetTexture(&ImageTexture{}) })
	assert.Panics(t, func() { g.Draw(PrimitiveTriangles, 0, 0, 0, 0) }, "no target bound")
}

func TestEbitenRendererEndToEnd(t *testing.T) {
	dev := NewEbitenDevice()
	target := dev.AcquireTarget(64, 64)
	defer dev.ReleaseTarget(target)

	atlas, err := NewDynamicAtlas[string](dev, AtlasConfig{})
	require.NoError(t, err)
	r1, err := atlas.Add("red", solid(8, 8, red))
	require.NoError(t, err)

	gfx := NewEbitenGraphics()
	r := NewRenderer(NewContext(gfx), target)
	r.FillRect(0, Rect{Width: 10, Height: 10}, White, Style{})
	r.Polyline(1, []Vec2{{0, 0}, {20, 20}}, false, White, Style{})
	r.Sprite(2, Rect{X: 20, Y: 20, Width: 8, Height: 8}, r1, White, Style{}.WithTexture(atlas.Texture()))

	stats := r.Draw()
	assert.Equal(t, 3, stats.DrawCalls)
	assert.Equal(t, 3, gfx.DrawCalls)
	assert.Zero(t, stats.Skipped)
}

func TestPipelineSlots(t *testing.T) {
	p := &Pipeline{slots: []string{"Time", "Offset", "View", "Tint", "Matrix"}, uniforms: map[string]any{}}

	p.SetFloat(0, 1.5)
	p.SetVec2(1, Vec2{X: 2, Y: 3})
	p.SetMatrix(2, Translate(4, 5))
	p.SetColor(3, Color{R: 1, A: 1})
	p.SetFloats(4, []float32{1, 2})

	assert.Equal(t, float32(1.5), p.uniforms["Time"])
	assert.Equal(t, []float32{2, 3}, p.uniforms["Offset"])
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 0, 4, 5, 1}, p.uniforms["View"])
	assert.Equal(t, []float32{1, 0, 0, 1}, p.uniforms["Tint"])
	assert.Equal(t, []float32{1, 2}, p.uniforms["Matrix"])

	assert.Panics(t, func() { p.SetFloat(5, 0) })
	assert.Panics(t, func() { p.SetImage(0, nil) }, "unit 0 is the bound texture")
	assert.NotPanics(t, func() { p.SetImage(3, nil) })
}
