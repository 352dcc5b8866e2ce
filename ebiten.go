package strata

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// EbitenDevice allocates textures as Ebitengine images.
type EbitenDevice struct {
	// MaxSize caps texture dimensions. Zero means unlimited.
	MaxSize int

	pool renderTexturePool
}

// NewEbitenDevice creates a device.
func NewEbitenDevice() *EbitenDevice {
	return &EbitenDevice{}
}

// NewTexture allocates a transparent Ebitengine image.
func (d *EbitenDevice) NewTexture(width, height int, opts TextureOptions) (Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if d.MaxSize > 0 && (width > d.MaxSize || height > d.MaxSize) {
		return nil, fmt.Errorf("texture %dx%d exceeds device limit %d", width, height, d.MaxSize)
	}
	return &EbitenTexture{img: ebiten.NewImage(width, height), filter: opts.Filter}, nil
}

// AcquireTarget returns a cleared offscreen texture of at least (w, h)
// pixels from the device's pool. Dimensions are rounded up to powers of two.
func (d *EbitenDevice) AcquireTarget(w, h int) *EbitenTexture {
	return &EbitenTexture{img: d.pool.Acquire(w, h)}
}

// ReleaseTarget returns a texture obtained from AcquireTarget to the pool.
func (d *EbitenDevice) ReleaseTarget(t *EbitenTexture) {
	if t == nil || t.img == nil {
		return
	}
	d.pool.Release(t.img)
	t.img = nil
}

// EbitenTexture is a Texture backed by an *ebiten.Image. It is also a
// RenderTarget, so renderers can draw into it.
type EbitenTexture struct {
	img    *ebiten.Image
	filter Filter
}

// WrapEbitenImage adopts an existing image as a texture.
func WrapEbitenImage(img *ebiten.Image, filter Filter) *EbitenTexture {
	return &EbitenTexture{img: img, filter: filter}
}

// Image returns the underlying *ebiten.Image.
func (t *EbitenTexture) Image() *ebiten.Image {
	return t.img
}

func (t *EbitenTexture) Size() image.Point {
	if t.img == nil {
		return image.Point{}
	}
	return t.img.Bounds().Size()
}

// Upload writes src into the texture. Pixels are converted to premultiplied
// RGBA first when src is not already an *image.RGBA.
func (t *EbitenTexture) Upload(dst image.Point, src image.Image) {
	b := src.Bounds()
	if b.Empty() {
		return
	}
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rectangle{Max: b.Size()})
		draw.Copy(rgba, image.Point{}, src, b, draw.Src, nil)
	}
	region := image.Rectangle{Min: dst, Max: dst.Add(b.Size())}
	t.img.SubImage(region).(*ebiten.Image).WritePixels(rgba.Pix[:4*b.Dx()*b.Dy()])
}

// Copy replaces the pixels at dst with srcRect of src.
func (t *EbitenTexture) Copy(src Texture, srcRect image.Rectangle, dst image.Point) {
	s, ok := src.(*EbitenTexture)
	if !ok {
		contractf("cannot copy %T into an EbitenTexture", src)
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(float64(dst.X), float64(dst.Y))
	op.Blend = ebiten.BlendCopy
	t.img.DrawImage(s.img.SubImage(srcRect).(*ebiten.Image), &op)
}

func (t *EbitenTexture) Clear() {
	t.img.Clear()
}

func (t *EbitenTexture) Dispose() {
	if t.img != nil {
		t.img.Deallocate()
		t.img = nil
	}
}

// ReadImage reads the texture back as a straight-alpha image. It must be
// called while the game loop is running.
func (t *EbitenTexture) ReadImage() *image.NRGBA {
	return readNRGBA(t.img)
}

// readNRGBA reads img back and converts premultiplied RGBA to straight
// alpha.
func readNRGBA(img *ebiten.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, 4*w*h)
	img.ReadPixels(pixels)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(pixels); i += 4 {
		r, g, bl, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			bl = uint8(min(int(bl)*255/int(a), 255))
		}
		out.Pix[i] = r
		out.Pix[i+1] = g
		out.Pix[i+2] = bl
		out.Pix[i+3] = a
	}
	return out
}

// EbitenTarget is a RenderTarget wrapping an *ebiten.Image such as the screen
// handed to ebiten.Game.Draw.
type EbitenTarget struct {
	img *ebiten.Image
}

// NewEbitenTarget wraps img.
func NewEbitenTarget(img *ebiten.Image) *EbitenTarget {
	return &EbitenTarget{img: img}
}

// SetImage rebinds the target, e.g. to this frame's screen.
func (t *EbitenTarget) SetImage(img *ebiten.Image) {
	t.img = img
}

// Image returns the wrapped image.
func (t *EbitenTarget) Image() *ebiten.Image {
	return t.img
}

// ReadImage reads the target back as a straight-alpha image.
func (t *EbitenTarget) ReadImage() *image.NRGBA {
	return readNRGBA(t.img)
}

func (t *EbitenTarget) Size() image.Point {
	if t.img == nil {
		return image.Point{}
	}
	return t.img.Bounds().Size()
}

// --- Graphics ---

// EbitenGraphics implements Graphics on top of Ebitengine's DrawTriangles.
// Ebitengine has no vertex transform state, so the bound transform is applied
// to vertices on the CPU at draw time. Line primitives are expanded into
// screen-space quads LineWidth pixels wide.
type EbitenGraphics struct {
	// LineWidth is the width of line primitives in pixels. Default 1.
	LineWidth float32
	// AntiAlias enables Ebitengine's anti-aliasing for triangle draws.
	AntiAlias bool

	target    *ebiten.Image
	blend     BlendMode
	tex       *EbitenTexture
	transform Matrix
	vb        *VertexBuffer
	ib        *IndexBuffer
	pipeline  *Pipeline

	verts  []ebiten.Vertex
	inds32 []uint32

	// DrawCalls counts DrawTriangles submissions since creation.
	DrawCalls int
}

// NewEbitenGraphics creates a graphics adapter with 1px lines.
func NewEbitenGraphics() *EbitenGraphics {
	return &EbitenGraphics{LineWidth: 1, transform: Identity}
}

func (g *EbitenGraphics) SetTarget(t RenderTarget) {
	switch t := t.(type) {
	case *EbitenTarget:
		g.target = t.img
	case *EbitenTexture:
		g.target = t.img
	case nil:
		g.target = nil
	default:
		contractf("EbitenGraphics cannot draw to %T", t)
	}
}

func (g *EbitenGraphics) SetBlend(b BlendMode) { g.blend = b }

func (g *EbitenGraphics) SetTexture(t Texture) {
	switch t := t.(type) {
	case *EbitenTexture:
		g.tex = t
	case nil:
		g.tex = nil
	default:
		contractf("EbitenGraphics cannot sample %T", t)
	}
}

func (g *EbitenGraphics) SetTransform(m Matrix) { g.transform = m }

func (g *EbitenGraphics) SetBuffers(v *VertexBuffer, i *IndexBuffer) {
	g.vb, g.ib = v, i
}

// SetPipeline binds a shader pipeline for triangle draws. nil restores the
// default pipeline. Line draws always use the default pipeline.
func (g *EbitenGraphics) SetPipeline(p *Pipeline) {
	g.pipeline = p
}

func (g *EbitenGraphics) Draw(p Primitive, baseVertex, vertexCount, firstIndex, indexCount int) {
	if g.target == nil {
		contractf("draw without a render target")
	}
	if g.vb == nil || g.ib == nil {
		contractf("draw without bound buffers")
	}
	src := g.vb.Data()[baseVertex : baseVertex+vertexCount]
	idx := g.ib.Data()[firstIndex : firstIndex+indexCount]

	img := ensureWhitePixel()
	filter := FilterNearest
	if p.Textured() && g.tex != nil {
		img = g.tex.img
		filter = g.tex.filter
	}

	if p == PrimitiveLines {
		g.expandLines(src, idx)
		var op ebiten.DrawTrianglesOptions
		op.Blend = g.blend.EbitenBlend()
		g.target.DrawTriangles32(g.verts, g.inds32, img, &op)
		g.DrawCalls++
		return
	}

	g.transformVertices(src, p.Textured())
	if g.pipeline != nil {
		var op ebiten.DrawTrianglesShaderOptions
		op.Blend = g.blend.EbitenBlend()
		op.Uniforms = g.pipeline.uniforms
		op.Images = g.pipeline.images
		op.Images[0] = img
		g.target.DrawTrianglesShader(g.verts, idx, g.pipeline.shader, &op)
	} else {
		var op ebiten.DrawTrianglesOptions
		op.Blend = g.blend.EbitenBlend()
		op.Filter = filter.ebitenFilter()
		op.AntiAlias = g.AntiAlias
		g.target.DrawTriangles(g.verts, idx, img, &op)
	}
	g.DrawCalls++
}

// transformVertices applies the bound transform to src, writing Ebitengine
// vertices into the scratch buffer. Untextured vertices sample the centre of
// the white pixel.
//
// Matrix layout: [0]=a, [1]=b, [2]=c, [3]=d, [4]=tx, [5]=ty
// newX = a*x + c*y + tx, newY = b*x + d*y + ty
func (g *EbitenGraphics) transformVertices(src []Vertex, textured bool) {
	if cap(g.verts) < len(src) {
		g.verts = make([]ebiten.Vertex, len(src))
	}
	g.verts = g.verts[:len(src)]

	a, b, c, d, tx, ty := g.transform[0], g.transform[1], g.transform[2], g.transform[3], g.transform[4], g.transform[5]
	for i := range src {
		s := &src[i]
		ox := float64(s.X)
		oy := float64(s.Y)
		v := ebiten.Vertex{
			DstX:   float32(a*ox + c*oy + tx),
			DstY:   float32(b*ox + d*oy + ty),
			SrcX:   0.5,
			SrcY:   0.5,
			ColorR: s.R,
			ColorG: s.G,
			ColorB: s.B,
			ColorA: s.A,
		}
		if textured {
			v.SrcX, v.SrcY = s.U, s.V
		}
		g.verts[i] = v
	}
}

// expandLines turns index pairs into quads of LineWidth pixels, measured
// after the transform so width does not scale with zoom.
func (g *EbitenGraphics) expandLines(src []Vertex, idx []uint16) {
	g.verts = g.verts[:0]
	g.inds32 = g.inds32[:0]
	half := float64(g.LineWidth) / 2
	if half <= 0 {
		half = 0.5
	}

	for i := 0; i+1 < len(idx); i += 2 {
		p0, p1 := &src[idx[i]], &src[idx[i+1]]
		x0, y0 := g.transform.Apply(float64(p0.X), float64(p0.Y))
		x1, y1 := g.transform.Apply(float64(p1.X), float64(p1.Y))
		dx, dy := x1-x0, y1-y0
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half

		base := uint32(len(g.verts))
		g.verts = append(g.verts,
			lineVertex(x0+nx, y0+ny, p0),
			lineVertex(x0-nx, y0-ny, p0),
			lineVertex(x1+nx, y1+ny, p1),
			lineVertex(x1-nx, y1-ny, p1),
		)
		g.inds32 = append(g.inds32,
			base, base+1, base+2,
			base+1, base+3, base+2,
		)
	}
}

func lineVertex(x, y float64, s *Vertex) ebiten.Vertex {
	return ebiten.Vertex{
		DstX: float32(x), DstY: float32(y),
		SrcX: 0.5, SrcY: 0.5,
		ColorR: s.R, ColorG: s.G, ColorB: s.B, ColorA: s.A,
	}
}

// --- White pixel singleton (strata is single-threaded, no sync.Once) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image sampled
// by untextured primitives.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage
}

// --- Shader pipeline ---

// Pipeline is a Kage shader with uniform slots addressed by index. Slot i
// names the i-th uniform passed to NewPipeline. Image 0 is always the bound
// texture; images 1-3 can be set with SetImage.
type Pipeline struct {
	shader   *ebiten.Shader
	slots    []string
	uniforms map[string]any
	images   [4]*ebiten.Image
}

// NewPipeline compiles a Kage shader.
func NewPipeline(kage []byte, uniforms ...string) (*Pipeline, error) {
	sh, err := ebiten.NewShader(kage)
	if err != nil {
		return nil, fmt.Errorf("strata: compile shader: %w", err)
	}
	return &Pipeline{
		shader:   sh,
		slots:    uniforms,
		uniforms: make(map[string]any, len(uniforms)),
	}, nil
}

func (p *Pipeline) slot(i int) string {
	if i < 0 || i >= len(p.slots) {
		contractf("pipeline uniform slot %d out of range (have %d)", i, len(p.slots))
	}
	return p.slots[i]
}

// SetFloat sets a float uniform.
func (p *Pipeline) SetFloat(slot int, v float32) {
	p.uniforms[p.slot(slot)] = v
}

// SetFloats sets an array or vector uniform. v is copied.
func (p *Pipeline) SetFloats(slot int, v []float32) {
	p.uniforms[p.slot(slot)] = append([]float32(nil), v...)
}

// SetVec2 sets a vec2 uniform.
func (p *Pipeline) SetVec2(slot int, v Vec2) {
	p.uniforms[p.slot(slot)] = []float32{v.X, v.Y}
}

// SetColor sets a vec4 uniform from a color.
func (p *Pipeline) SetColor(slot int, c Color) {
	p.uniforms[p.slot(slot)] = []float32{c.R, c.G, c.B, c.A}
}

// SetMatrix sets a mat3 uniform (column-major) from an affine matrix.
func (p *Pipeline) SetMatrix(slot int, m Matrix) {
	p.uniforms[p.slot(slot)] = []float32{
		float32(m[0]), float32(m[1]), 0,
		float32(m[2]), float32(m[3]), 0,
		float32(m[4]), float32(m[5]), 1,
	}
}

// SetImage binds an extra texture to image unit 1-3.
func (p *Pipeline) SetImage(unit int, t *EbitenTexture) {
	if unit < 1 || unit >= len(p.images) {
		contractf("pipeline image unit %d out of range [1, %d]", unit, len(p.images)-1)
	}
	if t == nil {
		p.images[unit] = nil
		return
	}
	p.images[unit] = t.img
}

// Dispose releases the shader.
func (p *Pipeline) Dispose() {
	p.shader.Deallocate()
}
