package strata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTexture(t *testing.T) *OwnedTexture {
	t.Helper()
	tex, err := (&ImageDevice{}).NewTexture(16, 16, TextureOptions{})
	require.NoError(t, err)
	return Own(tex, FilterNearest)
}

func TestCompatibleFansMerge(t *testing.T) {
	r, g := newTestRenderer()
	r.Fan(0, 4, Style{})
	r.Fan(0, 4, Style{})

	assert.Equal(t, 1, r.BatchCount())
	assert.Equal(t, 8, r.VertexCount())

	stats := r.Draw()
	assert.Equal(t, 1, stats.DrawCalls)
	require.Len(t, g.draws, 1)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, g.draws[0].Indices)
}

func TestDifferentStateSplitsBatches(t *testing.T) {
	tests := []struct {
		name string
		a, b Style
	}{
		{"blend", Style{}.WithBlend(BlendNormal), Style{}.WithBlend(BlendAdd)},
		{"transform", Style{}, Style{}.WithTransform(Translate(1, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRenderer()
			r.Fan(0, 3, tt.a)
			r.Fan(0, 3, tt.b)
			r.Fan(0, 3, tt.a)
			assert.Equal(t, 2, r.BatchCount())
			assert.Equal(t, 9, r.VertexCount())
		})
	}
}

func TestDifferentPrimitivesSplitBatches(t *testing.T) {
	r, _ := newTestRenderer()
	r.Fan(0, 3, Style{})
	r.Lines(0, 2, Style{})
	r.TexturedFan(0, 3, Style{})
	assert.Equal(t, 3, r.BatchCount())
}

func TestUntexturedBatchesIgnoreTexture(t *testing.T) {
	r, g := newTestRenderer()
	a, b := newTestTexture(t), newTestTexture(t)
	r.Fan(0, 3, Style{}.WithTexture(a.Ref()))
	r.Fan(0, 3, Style{}.WithTexture(b.Ref()))
	assert.Equal(t, 1, r.BatchCount())

	r.Draw()
	require.Len(t, g.draws, 1)
	assert.Nil(t, g.draws[0].Texture)
}

func TestTexturedBatchesSplitByTexture(t *testing.T) {
	r, g := newTestRenderer()
	a, b := newTestTexture(t), newTestTexture(t)
	r.TexturedFan(0, 3, Style{}.WithTexture(a.Ref()))
	r.TexturedFan(0, 3, Style{}.WithTexture(b.Ref()))
	r.TexturedFan(0, 3, Style{}.WithTexture(a.Ref()))
	assert.Equal(t, 2, r.BatchCount())

	r.Draw()
	require.Len(t, g.draws, 2)
	assert.Same(t, a.Texture(), g.draws[0].Texture)
	assert.Same(t, b.Texture(), g.draws[1].Texture)
	assert.Len(t, g.draws[0].Vertices, 6)
}

func TestUnassignedTexturedBatchAdoptsTexture(t *testing.T) {
	r, g := newTestRenderer()
	a := newTestTexture(t)
	r.TexturedFan(0, 3, Style{})
	r.TexturedFan(0, 3, Style{}.WithTexture(a.Ref()))
	assert.Equal(t, 1, r.BatchCount())

	r.Draw()
	require.Len(t, g.draws, 1)
	assert.Same(t, a.Texture(), g.draws[0].Texture)
}

func TestVertexCeilingSplitsBatches(t *testing.T) {
	r, _ := newTestRenderer()
	r.Mesh(0, 30000, 0, Style{})
	r.Mesh(0, 30000, 0, Style{})
	assert.Equal(t, 1, r.BatchCount(), "60000 vertices fit one batch")

	r.Mesh(0, 5535, 0, Style{})
	assert.Equal(t, 1, r.BatchCount(), "exactly 65535 vertices fit one batch")

	r.Mesh(0, 1, 0, Style{})
	assert.Equal(t, 2, r.BatchCount(), "vertex 65536 opens a new batch")
	assert.Equal(t, MaxBatchVertices+1, r.VertexCount())
}

func TestAllocationOverCeilingPanics(t *testing.T) {
	r, _ := newTestRenderer()
	assert.Panics(t, func() { r.Mesh(0, MaxBatchVertices+1, 0, Style{}) })
	assert.Zero(t, r.BatchCount())
}

func TestAllocationContracts(t *testing.T) {
	r, _ := newTestRenderer()
	assert.Panics(t, func() { r.Fan(0, 2, Style{}) }, "fan < 3")
	assert.Panics(t, func() { r.Outline(0, 1, Style{}) }, "outline < 2")
	assert.Panics(t, func() { r.Lines(0, 3, Style{}) }, "odd lines")
	assert.Panics(t, func() { r.LineStrip(0, 1, Style{}) }, "strip < 2")
	assert.Panics(t, func() { r.Mesh(0, 3, 4, Style{}) }, "mesh indices not a multiple of 3")
	assert.Panics(t, func() { r.Mesh(0, -1, 0, Style{}) }, "negative count")
}

func TestNewVerticesAreWhiteAtOrigin(t *testing.T) {
	r, _ := newTestRenderer()
	v := r.Fan(0, 3, Style{})
	for i := range v.Len() {
		assert.Equal(t, White, v.Tint[i])
		assert.Equal(t, Vec2{}, v.Pos[i])
		assert.Equal(t, Vec2{}, v.UV[i])
	}
}

func TestStyleResolution(t *testing.T) {
	r, g := newTestRenderer()
	r.SetDefaultBlend(BlendScreen)
	r.SetLayerBlend(1, BlendAdd)
	r.SetLayerTransform(1, Translate(5, 5))

	tinted(r, 0, Color{R: 1, A: 1}, Style{})
	tinted(r, 1, Color{G: 1, A: 1}, Style{})
	tinted(r, 1, Color{B: 1, A: 1}, Style{}.WithBlend(BlendMultiply))

	r.Draw()
	require.Len(t, g.draws, 3)

	assert.Equal(t, BlendScreen, g.draws[0].Blend, "layer 0 uses global default")
	assert.Equal(t, Identity, g.draws[0].Transform)

	assert.Equal(t, BlendAdd, g.draws[1].Blend, "layer default beats global")
	assert.Equal(t, Translate(5, 5), g.draws[1].Transform)

	assert.Equal(t, BlendMultiply, g.draws[2].Blend, "explicit style beats layer default")
	assert.Equal(t, Translate(5, 5), g.draws[2].Transform, "unset fields still fall back")
}

func TestLayerDefaults(t *testing.T) {
	r, _ := newTestRenderer()
	tex := newTestTexture(t)
	r.SetLayerTexture(3, tex.Ref())

	st := r.LayerDefaults(3)
	got, ok := st.Texture()
	assert.True(t, ok)
	assert.Equal(t, tex.Ref(), got)
	_, ok = st.Blend()
	assert.False(t, ok)

	r.ClearLayerDefaults(3)
	_, ok = r.LayerDefaults(3).Texture()
	assert.False(t, ok)
}

func TestLayersSortedRegardlessOfAllocationOrder(t *testing.T) {
	r, _ := newTestRenderer()
	for _, layer := range []int{3, -1, 2, 3, 0} {
		r.Fan(layer, 3, Style{})
	}
	assert.Equal(t, []int{-1, 0, 2, 3}, r.Layers())
	assert.Equal(t, 4, r.BatchCount())
}

func TestLockedRendererPanics(t *testing.T) {
	r, _ := newTestRenderer()
	r.Fan(0, 3, Style{})
	s := r.Stagger(0, 0)
	require.True(t, r.Locked())

	mutators := map[string]func(){
		"Fan":               func() { r.Fan(0, 3, Style{}) },
		"Mesh":              func() { r.Mesh(0, 3, 3, Style{}) },
		"Lines":             func() { r.Lines(0, 2, Style{}) },
		"SetDefaultBlend":   func() { r.SetDefaultBlend(BlendAdd) },
		"SetLayerTransform": func() { r.SetLayerTransform(0, Identity) },
		"SetTarget":         func() { r.SetTarget(nil) },
		"Reset":             func() { r.Reset() },
		"Stagger":           func() { r.Stagger(0, 1) },
		"Draw":              func() { r.Draw() },
	}
	for name, fn := range mutators {
		assert.Panics(t, fn, name)
	}

	s.Close()
	assert.False(t, r.Locked())
	assert.NotPanics(t, func() { r.Fan(0, 3, Style{}) })
}

func TestOutlineIndices(t *testing.T) {
	dst := make([]uint16, 18)
	outlineIndices(dst, 10, 3)
	assert.Equal(t, []uint16{
		10, 11, 12, 11, 13, 12,
		12, 13, 14, 13, 15, 14,
		14, 15, 10, 15, 11, 10,
	}, dst)
}

func TestLineIndices(t *testing.T) {
	r, g := newTestRenderer()
	r.LineStrip(0, 3, Style{})
	r.LineLoop(1, 3, Style{})
	r.Lines(2, 4, Style{})
	r.Draw()

	require.Len(t, g.draws, 3)
	assert.Equal(t, []uint16{0, 1, 1, 2}, g.draws[0].Indices)
	assert.Equal(t, []uint16{0, 1, 1, 2, 2, 0}, g.draws[1].Indices)
	assert.Equal(t, []uint16{0, 1, 2, 3}, g.draws[2].Indices)
	for _, d := range g.draws {
		assert.Equal(t, PrimitiveLines, d.Prim)
	}
}

func TestMeshViewBase(t *testing.T) {
	r, g := newTestRenderer()
	r.Fan(0, 4, Style{})
	m := r.Mesh(0, 3, 3, Style{})
	assert.Equal(t, uint16(4), m.Base)
	m.SetTriangle(0, 0, 2, 1)

	r.Draw()
	require.Len(t, g.draws, 1)
	assert.Equal(t, []uint16{4, 6, 5}, g.draws[0].Indices[6:])
}

func TestVerticesReachUpload(t *testing.T) {
	r, g := newTestRenderer()
	v := r.Fan(0, 3, Style{})
	v.Set(1, Vec2{X: 10, Y: 20}, Vec2{X: 3, Y: 4}, Color{R: 0.5, G: 0.25, B: 1, A: 0.75})
	r.Draw()

	require.Len(t, g.draws, 1)
	assert.Equal(t, Vertex{X: 10, Y: 20, U: 3, V: 4, R: 0.5, G: 0.25, B: 1, A: 0.75}, g.draws[0].Vertices[1])
}

func TestEmptyAllocationsCreateNoBatch(t *testing.T) {
	r, g := newTestRenderer()
	assert.Zero(t, r.Lines(0, 0, Style{}).Len())
	m := r.Mesh(1, 0, 0, Style{})
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Indices)

	assert.Zero(t, r.BatchCount())
	assert.False(t, r.pending())
	assert.Empty(t, r.Layers())

	// Vertices without indices occupy a batch that draws nothing.
	r.Mesh(2, 3, 0, Style{})
	assert.Zero(t, r.BatchCount())
	assert.True(t, r.pending())

	r.Draw()
	assert.Empty(t, g.draws)
	assert.False(t, r.pending())
}

func TestResetRecyclesBatches(t *testing.T) {
	r, _ := newTestRenderer()
	r.Fan(0, 3, Style{})
	r.Fan(1, 3, Style{})
	r.Reset()

	assert.Zero(t, r.BatchCount())
	assert.Len(t, r.free, 2)

	v := r.Fan(0, 3, Style{})
	assert.Len(t, r.free, 1)
	assert.Equal(t, 3, v.Len(), "recycled batch starts empty")
	assert.Equal(t, 3, r.VertexCount())
}

func BenchmarkRendererFan(b *testing.B) {
	r, _ := newTestRenderer()
	for b.Loop() {
		for i := range 1000 {
			r.Fan(i%4, 6, Style{}).SetTint(White)
		}
		r.Draw()
	}
}
