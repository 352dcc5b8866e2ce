package strata

import (
	"fmt"
	"image"
	"math"

	"github.com/rclancey/earcut"
)

// circleSegments picks a segment count for a circle of the given radius when
// the caller passes zero: roughly one segment per 6 pixels of circumference.
func circleSegments(radius float32, segments int) int {
	if segments > 0 {
		return max(segments, 3)
	}
	n := int(math.Ceil(2 * math.Pi * float64(radius) / 6))
	return min(max(n, 12), 128)
}

// FillRect draws a solid rectangle.
func (r *Renderer) FillRect(layer int, rect Rect, c Color, st Style) {
	v := r.Fan(layer, 4, st)
	for i, p := range rect.Corners() {
		v.Pos[i] = p
	}
	v.SetTint(c)
}

// FillCircle draws a solid circle as a fan. segments <= 0 picks a count
// from the radius.
func (r *Renderer) FillCircle(layer int, center Vec2, radius float32, segments int, c Color, st Style) {
	n := circleSegments(radius, segments)
	v := r.Fan(layer, n+2, st)
	v.Pos[0] = center
	for i := 0; i <= n; i++ {
		v.Pos[i+1] = circlePoint(center, radius, i, n)
	}
	v.SetTint(c)
}

func circlePoint(center Vec2, radius float32, i, n int) Vec2 {
	theta := 2 * math.Pi * float64(i%n) / float64(n)
	return Vec2{
		X: center.X + radius*float32(math.Cos(theta)),
		Y: center.Y + radius*float32(math.Sin(theta)),
	}
}

// FillPolygon draws a simple polygon, convex or not, triangulated with
// earcut. Polygons with fewer than 3 points draw nothing.
func (r *Renderer) FillPolygon(layer int, points []Vec2, c Color, st Style) error {
	if len(points) < 3 {
		return nil
	}
	coords := make([]float64, 2*len(points))
	for i, p := range points {
		coords[2*i] = float64(p.X)
		coords[2*i+1] = float64(p.Y)
	}
	tris, err := earcut.Earcut(coords, nil, 2)
	if err != nil {
		return fmt.Errorf("strata: triangulate %d-point polygon: %w", len(points), err)
	}
	if len(tris) == 0 {
		return nil
	}
	m := r.Mesh(layer, len(points), len(tris), st)
	copy(m.Pos, points)
	m.SetTint(c)
	for i, idx := range tris {
		m.Indices[i] = m.Base + uint16(idx)
	}
	return nil
}

// StrokeRect draws a rectangle border of the given width centred on the
// rectangle's edges.
func (r *Renderer) StrokeRect(layer int, rect Rect, width float32, c Color, st Style) {
	h := width / 2
	outer := Rect{X: rect.X - h, Y: rect.Y - h, Width: rect.Width + width, Height: rect.Height + width}
	inner := Rect{X: rect.X + h, Y: rect.Y + h, Width: max(rect.Width-width, 0), Height: max(rect.Height-width, 0)}
	oc, ic := outer.Corners(), inner.Corners()

	v := r.Outline(layer, 4, st)
	for i := range 4 {
		v.Pos[2*i] = oc[i]
		v.Pos[2*i+1] = ic[i]
	}
	v.SetTint(c)
}

// StrokeCircle draws a ring of the given width centred on the circle.
func (r *Renderer) StrokeCircle(layer int, center Vec2, radius, width float32, segments int, c Color, st Style) {
	n := circleSegments(radius, segments)
	outer := radius + width/2
	inner := max(radius-width/2, 0)

	v := r.Outline(layer, n, st)
	for i := range n {
		v.Pos[2*i] = circlePoint(center, outer, i, n)
		v.Pos[2*i+1] = circlePoint(center, inner, i, n)
	}
	v.SetTint(c)
}

// Polyline draws hairline segments through points. closed joins the last
// point back to the first.
func (r *Renderer) Polyline(layer int, points []Vec2, closed bool, c Color, st Style) {
	if len(points) < 2 {
		return
	}
	var v Vertices
	if closed {
		v = r.LineLoop(layer, len(points), st)
	} else {
		v = r.LineStrip(layer, len(points), st)
	}
	copy(v.Pos, points)
	v.SetTint(c)
}

// Ribbon draws a path of the given width as a triangle strip. Interior joins
// are mitered, with the miter extension capped at twice the half-width.
// For N points: 2N vertices, 6(N-1) indices.
func (r *Renderer) Ribbon(layer int, points []Vec2, width float32, c Color, st Style) {
	n := len(points)
	if n < 2 {
		return
	}
	m := r.Mesh(layer, 2*n, 6*(n-1), st)
	half := float64(width) / 2

	for i := range n {
		var nx, ny float64
		switch i {
		case 0:
			nx, ny = perpendicular(points[0], points[1])
		case n - 1:
			nx, ny = perpendicular(points[n-2], points[n-1])
		default:
			nx0, ny0 := perpendicular(points[i-1], points[i])
			nx1, ny1 := perpendicular(points[i], points[i+1])
			nx, ny = nx0+nx1, ny0+ny1
			if ln := math.Hypot(nx, ny); ln > 1e-10 {
				nx /= ln
				ny /= ln
			}
			if dot := nx0*nx + ny0*ny; dot > 0.1 {
				scale := min(1/dot, 2)
				nx *= scale
				ny *= scale
			}
		}
		p := points[i]
		m.Pos[2*i] = Vec2{X: p.X + float32(nx*half), Y: p.Y + float32(ny*half)}
		m.Pos[2*i+1] = Vec2{X: p.X - float32(nx*half), Y: p.Y - float32(ny*half)}
	}
	m.SetTint(c)

	for i := range n - 1 {
		a := 2 * i
		m.SetTriangle(2*i, a, a+1, a+2)
		m.SetTriangle(2*i+1, a+1, a+3, a+2)
	}
}

// perpendicular returns the unit left-perpendicular of the segment from a to b.
func perpendicular(a, b Vec2) (float64, float64) {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	ln := math.Hypot(dx, dy)
	if ln < 1e-10 {
		return 0, -1
	}
	return -dy / ln, dx / ln
}

// Sprite draws the src region of the resolved texture into dst. Use an atlas
// entry rectangle as src and the atlas texture in st (or as a layer default).
func (r *Renderer) Sprite(layer int, dst Rect, src image.Rectangle, tint Color, st Style) {
	v := r.TexturedFan(layer, 4, st)
	pos := dst.Corners()
	uv := Rect{
		X: float32(src.Min.X), Y: float32(src.Min.Y),
		Width: float32(src.Dx()), Height: float32(src.Dy()),
	}.Corners()
	for i := range 4 {
		v.Set(i, pos[i], uv[i], tint)
	}
}

// GridMesh is a textured mesh of (Cols+1)*(Rows+1) vertices laid out row by
// row. Vertices can be moved freely after allocation to distort the image.
type GridMesh struct {
	MeshView
	Cols, Rows int
}

// Index returns the window-local index of the vertex at (col, row).
func (g GridMesh) Index(col, row int) int {
	return row*(g.Cols+1) + col
}

// Offset moves the vertex at (col, row) by (dx, dy).
func (g GridMesh) Offset(col, row int, dx, dy float32) {
	i := g.Index(col, row)
	g.Pos[i].X += dx
	g.Pos[i].Y += dy
}

// Grid draws the src region of the resolved texture into dst as a grid of
// cols x rows cells and returns it for per-vertex distortion. cols and rows
// are clamped to at least 1.
func (r *Renderer) Grid(layer int, dst Rect, src image.Rectangle, cols, rows int, st Style) GridMesh {
	cols = max(cols, 1)
	rows = max(rows, 1)
	vcols := cols + 1
	vrows := rows + 1

	m := r.TexturedMesh(layer, vcols*vrows, 6*cols*rows, st)
	cellW := dst.Width / float32(cols)
	cellH := dst.Height / float32(rows)
	srcW := float32(src.Dx()) / float32(cols)
	srcH := float32(src.Dy()) / float32(rows)

	for row := range vrows {
		for col := range vcols {
			i := row*vcols + col
			m.Pos[i] = Vec2{X: dst.X + float32(col)*cellW, Y: dst.Y + float32(row)*cellH}
			m.UV[i] = Vec2{X: float32(src.Min.X) + float32(col)*srcW, Y: float32(src.Min.Y) + float32(row)*srcH}
		}
	}

	t := 0
	for row := range rows {
		for col := range cols {
			tl := row*vcols + col
			tr := tl + 1
			bl := tl + vcols
			br := bl + 1
			m.SetTriangle(t, tl, bl, tr)
			m.SetTriangle(t+1, tr, bl, br)
			t += 2
		}
	}
	return GridMesh{MeshView: m, Cols: cols, Rows: rows}
}
