package strata

import "image"

// Vertex is the interleaved layout written into a VertexBuffer when a batch
// is uploaded. Positions and texture coordinates are in pixels; the color is
// a straight-alpha tint.
type Vertex struct {
	X, Y       float32
	U, V       float32
	R, G, B, A float32
}

// RenderTarget is an opaque drawable surface.
type RenderTarget interface {
	Size() image.Point
}

// Graphics is the host graphics API as seen by strata: global state setters
// and indexed draw issuance. Implementations need not deduplicate state; the
// Context in front of them does.
type Graphics interface {
	SetTarget(t RenderTarget)
	SetBlend(b BlendMode)
	// SetTexture binds the texture sampled by textured primitives. nil binds
	// no texture (untextured primitives).
	SetTexture(t Texture)
	SetTransform(m Matrix)
	SetBuffers(v *VertexBuffer, i *IndexBuffer)
	// Draw issues one indexed draw call. Indices are relative to baseVertex;
	// vertexCount bounds the vertices they may reference.
	Draw(p Primitive, baseVertex, vertexCount, firstIndex, indexCount int)
}

type stateBit uint8

const (
	stateTarget stateBit = 1 << iota
	stateBlend
	stateTexture
	stateTransform
	stateBuffers
)

// Context sits in front of a Graphics and skips state changes that would not
// change anything. Renderers drawing to the same Graphics should share one
// Context so the memo stays truthful across them.
type Context struct {
	g     Graphics
	valid stateBit

	target    RenderTarget
	blend     BlendMode
	texture   Texture
	transform Matrix
	vb        *VertexBuffer
	ib        *IndexBuffer
}

// NewContext wraps g.
func NewContext(g Graphics) *Context {
	return &Context{g: g}
}

// Graphics returns the wrapped graphics API.
func (c *Context) Graphics() Graphics {
	return c.g
}

// Invalidate forgets all memoized state. Call it after drawing to the
// underlying Graphics without going through strata.
func (c *Context) Invalidate() {
	c.valid = 0
	c.target = nil
	c.texture = nil
	c.vb = nil
	c.ib = nil
}

// setTarget and friends return true when a state change was emitted.

func (c *Context) setTarget(t RenderTarget) bool {
	if c.valid&stateTarget != 0 && c.target == t {
		return false
	}
	c.g.SetTarget(t)
	c.target = t
	c.valid |= stateTarget
	return true
}

func (c *Context) setBlend(b BlendMode) bool {
	if c.valid&stateBlend != 0 && c.blend == b {
		return false
	}
	c.g.SetBlend(b)
	c.blend = b
	c.valid |= stateBlend
	return true
}

func (c *Context) setTexture(t Texture) bool {
	if c.valid&stateTexture != 0 && c.texture == t {
		return false
	}
	c.g.SetTexture(t)
	c.texture = t
	c.valid |= stateTexture
	return true
}

func (c *Context) setTransform(m Matrix) bool {
	if c.valid&stateTransform != 0 && c.transform == m {
		return false
	}
	c.g.SetTransform(m)
	c.transform = m
	c.valid |= stateTransform
	return true
}

func (c *Context) setBuffers(v *VertexBuffer, i *IndexBuffer) bool {
	if c.valid&stateBuffers != 0 && c.vb == v && c.ib == i {
		return false
	}
	c.g.SetBuffers(v, i)
	c.vb, c.ib = v, i
	c.valid |= stateBuffers
	return true
}
