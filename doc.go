// Package strata is a batched, layer-ordered 2D primitive renderer with a
// dynamically growing texture atlas, built for [Ebitengine].
//
// Callers issue many small primitives (fans, outlines, lines, meshes) in any
// order, each tagged with an integer layer. Strata merges compatible
// primitives into as few draw calls as possible while keeping painter's
// order between layers, and only emits the GPU state changes that are
// actually needed.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	type app struct{}
//
//	func (app) Update(dt float32) error { return nil }
//	func (app) Draw(f *strata.Frame) {
//		f.Renderer.FillRect(0, strata.Rect{X: 10, Y: 10, Width: 80, Height: 40},
//			strata.Color{R: 1, A: 1}, strata.Style{})
//	}
//
//	strata.Run(app{}, strata.RunConfig{Title: "Hello", Width: 640, Height: 480})
//
// For full control, implement [ebiten.Game] yourself and wire a [Renderer]
// to an [EbitenGraphics]:
//
//	gfx := strata.NewEbitenGraphics()
//	screen := strata.NewEbitenTarget(nil)
//	r := strata.NewRenderer(strata.NewContext(gfx), screen)
//
//	func (g *Game) Draw(s *ebiten.Image) {
//		screen.SetImage(s)
//		r.Context().Invalidate()
//		// ... allocate primitives ...
//		r.Draw()
//	}
//
// # Batching
//
// Every allocation call ([Renderer.Fan], [Renderer.Outline],
// [Renderer.Lines], [Renderer.Mesh] and their textured forms) takes a layer
// and a [Style]. Unset style fields fall back to per-layer defaults and then
// to the renderer's global defaults. An allocation joins the first batch in
// its layer with the same primitive, transform, blend mode and texture,
// provided the batch stays within [MaxBatchVertices]; otherwise a new batch
// is appended to the layer. The returned views write straight into the
// batch's arrays.
//
// Higher-level helpers such as [Renderer.FillRect], [Renderer.FillPolygon],
// [Renderer.StrokeCircle], [Renderer.Sprite] and [Renderer.Grid] are built
// on these calls.
//
// # Drawing
//
// [Renderer.Stagger] uploads a layer range once and returns a
// [StaggeredDraw] that can draw individual layers in any order, which lets
// several renderers interleave their layers with [DrawLayered]. While a
// session is open the renderer is locked and allocation panics. Closing the
// session consumes the drawn batches.
//
// # Atlases
//
// [DynamicAtlas] packs bitmaps into one texture with a shelf [Packer],
// doubling the texture's shorter side whenever an entry does not fit.
// Earlier entries keep their rectangles across growth, and texture
// coordinates are in pixels, so geometry that already references the atlas
// stays valid. [BuildStaticAtlas] packs a known set of bitmaps up front on
// the CPU, and [LoadTexturePackerAtlas] reads a TexturePacker JSON sheet.
//
// # Shaders
//
// A [Pipeline] wraps a Kage shader. Bind it with
// [EbitenGraphics.SetPipeline] between [StaggeredDraw.DrawLayer] calls to
// shade selected layers; nil restores the default pipeline.
//
// # Logging
//
// Strata is silent by default. Pass a *slog.Logger to [SetLogger] to see
// atlas growth and draw statistics at debug level.
//
// [Ebitengine]: https://ebitengine.org
package strata
