package strata

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera produces the view matrix for a world-space layer: position, zoom,
// rotation, and viewport. Feed Matrix() to Renderer.SetLayerTransform (or
// Style.WithTransform) to draw world-space primitives through it.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	// Bounds is the world-space rectangle the camera is clamped to when
	// BoundsEnabled is true.
	Bounds Rect

	scroll *scrollAnim
	zoom   *gween.Tween
}

// NewCamera creates a Camera with zoom 1 centred on the origin.
func NewCamera(viewport Rect) *Camera {
	return &Camera{Zoom: 1, Viewport: viewport}
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scroll = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// ZoomTo animates the zoom factor over duration seconds.
func (c *Camera) ZoomTo(zoom float64, duration float32, easeFn ease.TweenFunc) {
	c.zoom = gween.New(float32(c.Zoom), float32(zoom), duration, easeFn)
}

// Animating reports whether a scroll or zoom tween is in progress.
func (c *Camera) Animating() bool {
	return c.scroll != nil || c.zoom != nil
}

// SetBounds enables camera bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables camera bounds clamping.
func (c *Camera) ClearBounds() {
	c.BoundsEnabled = false
}

// Update advances scroll and zoom tweens by dt seconds and applies bounds
// clamping.
func (c *Camera) Update(dt float32) {
	if c.scroll != nil {
		if !c.scroll.doneX {
			val, done := c.scroll.tweenX.Update(dt)
			c.X = float64(val)
			c.scroll.doneX = done
		}
		if !c.scroll.doneY {
			val, done := c.scroll.tweenY.Update(dt)
			c.Y = float64(val)
			c.scroll.doneY = done
		}
		if c.scroll.doneX && c.scroll.doneY {
			c.scroll = nil
		}
	}

	if c.zoom != nil {
		val, done := c.zoom.Update(dt)
		c.Zoom = float64(val)
		if done {
			c.zoom = nil
		}
	}

	if c.BoundsEnabled {
		c.clampToBounds()
	}
}

// clampToBounds restricts camera position so the visible area stays within Bounds.
func (c *Camera) clampToBounds() {
	halfW := float64(c.Viewport.Width) / (2 * c.Zoom)
	halfH := float64(c.Viewport.Height) / (2 * c.Zoom)

	bx, by := float64(c.Bounds.X), float64(c.Bounds.Y)
	bw, bh := float64(c.Bounds.Width), float64(c.Bounds.Height)

	minX, maxX := bx+halfW, bx+bw-halfW
	minY, maxY := by+halfH, by+bh-halfH

	// Bounds smaller than the visible area centre the camera.
	if minX > maxX {
		c.X = bx + bw/2
	} else {
		c.X = math.Max(minX, math.Min(c.X, maxX))
	}
	if minY > maxY {
		c.Y = by + bh/2
	} else {
		c.Y = math.Max(minY, math.Min(c.Y, maxY))
	}
}

// Matrix returns the world-to-screen view matrix.
//
// view = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) Matrix() Matrix {
	cx := float64(c.Viewport.X + c.Viewport.Width/2)
	cy := float64(c.Viewport.Y + c.Viewport.Height/2)
	return Translate(cx, cy).
		Mul(Scale(c.Zoom, c.Zoom)).
		Mul(Rotate(-c.Rotation)).
		Mul(Translate(-c.X, -c.Y))
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return c.Matrix().Apply(wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	return c.Matrix().Invert().Apply(sx, sy)
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's
// visible area in world space.
func (c *Camera) VisibleBounds() Rect {
	inv := c.Matrix().Invert()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range c.Viewport.Corners() {
		x, y := inv.Apply(float64(p.X), float64(p.Y))
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Rect{X: float32(minX), Y: float32(minY), Width: float32(maxX - minX), Height: float32(maxY - minY)}
}
