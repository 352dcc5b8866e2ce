package strata

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window opened by Run. Zero values get defaults:
// 640x480, "strata" title.
type RunConfig struct {
	Title   string
	Width   int
	Height  int
	ShowFPS bool
	// ClearColor fills the screen before each frame. Transparent skips the
	// fill.
	ClearColor Color
	// AtlasSize pre-sizes Frame.Atlas. Zero starts it empty.
	AtlasSize int
}

// Frame is the per-frame state handed to App.Draw. Primitives allocated on
// Renderer that are still pending when Draw returns are drawn to Screen.
type Frame struct {
	Renderer *Renderer
	Device   *EbitenDevice
	Screen   *EbitenTarget
	// Graphics is the backend shared by every renderer on Renderer's
	// Context. Pipelines are bound here.
	Graphics *EbitenGraphics
	// Atlas is a shared string-keyed atlas that lives as long as the window.
	Atlas *DynamicAtlas[string]
	// Stats are the previous frame's draw statistics.
	Stats DrawStats
}

// App is the callback pair driven by Run.
type App interface {
	// Update advances the simulation by dt seconds.
	Update(dt float32) error
	// Draw records this frame's primitives.
	Draw(f *Frame)
}

type game struct {
	app   App
	cfg   RunConfig
	frame Frame
}

// Run opens a window and drives app until it returns an error or the window
// closes. It wraps ebiten.RunGame with a renderer, device and atlas.
func Run(app App, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	if cfg.Title == "" {
		cfg.Title = "strata"
	}

	g, err := newGame(app, cfg)
	if err != nil {
		return err
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(g)
}

func newGame(app App, cfg RunConfig) (*game, error) {
	dev := NewEbitenDevice()
	atlasCfg := AtlasConfig{Filter: FilterLinear}
	if cfg.AtlasSize > 0 {
		atlasCfg.Size.X, atlasCfg.Size.Y = cfg.AtlasSize, cfg.AtlasSize
	}
	atlas, err := NewDynamicAtlas[string](dev, atlasCfg)
	if err != nil {
		return nil, err
	}

	gfx := NewEbitenGraphics()
	screen := NewEbitenTarget(nil)
	return &game{
		app:      app,
		cfg:      cfg,
		frame: Frame{
			Renderer: NewRenderer(NewContext(gfx), screen),
			Device:   dev,
			Screen:   screen,
			Graphics: gfx,
			Atlas:    atlas,
		},
	}, nil
}

func (g *game) Update() error {
	return g.app.Update(1 / float32(ebiten.TPS()))
}

func (g *game) Draw(screen *ebiten.Image) {
	g.frame.Screen.SetImage(screen)
	// Ebitengine hands over a new screen image each frame.
	g.frame.Renderer.Context().Invalidate()
	if g.cfg.ClearColor.A > 0 {
		screen.Fill(g.cfg.ClearColor)
	}

	g.app.Draw(&g.frame)

	r := g.frame.Renderer
	if r.pending() {
		g.frame.Stats = r.Draw()
	}

	if g.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nDraws: %d",
			ebiten.ActualFPS(), ebiten.ActualTPS(), g.frame.Stats.DrawCalls))
	}
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}
