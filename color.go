package strata

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a straight (non-premultiplied) RGBA tint with components in [0, 1].
// It is stored per vertex, so it uses float32 like the rest of the vertex data.
type Color struct {
	R, G, B, A float32
}

// White is the default tint (no color modification).
var White = Color{1, 1, 1, 1}

// Transparent is fully transparent black.
var Transparent = Color{}

// ColorFromHex parses "#rgb", "#rrggbb" or "#rrggbbaa". The leading '#' is
// optional.
func ColorFromHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	alpha := float32(1)
	if len(s) == 8 {
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("strata: invalid hex color alpha %q: %w", s, err)
		}
		alpha = float32(a) / 255
		s = s[:6]
	}
	c, err := colorful.Hex("#" + s)
	if err != nil {
		return Color{}, fmt.Errorf("strata: invalid hex color %q: %w", s, err)
	}
	return Color{float32(c.R), float32(c.G), float32(c.B), alpha}, nil
}

// ColorHSV builds an opaque color from hue (degrees), saturation and value
// in [0, 1].
func ColorHSV(h, s, v float64) Color {
	c := colorful.Hsv(h, s, v).Clamped()
	return Color{float32(c.R), float32(c.G), float32(c.B), 1}
}

// Lerp blends toward to by t in linear RGB. Alpha is interpolated linearly.
func (c Color) Lerp(to Color, t float64) Color {
	a := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
	b := colorful.Color{R: float64(to.R), G: float64(to.G), B: float64(to.B)}
	m := a.BlendLinearRgb(b, t).Clamped()
	return Color{
		R: float32(m.R),
		G: float32(m.G),
		B: float32(m.B),
		A: c.A + (to.A-c.A)*float32(t),
	}
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// RGBA implements color.Color, returning premultiplied 16-bit components.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.toNRGBA().RGBA()
}

func (c Color) toNRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
