package strata

import "slices"

// LayerSession is a drawing session that can draw one layer at a time.
// *StaggeredDraw implements it.
type LayerSession interface {
	// Layers returns the layers the session holds, ascending.
	Layers() []int
	DrawLayer(layer int)
	Close()
}

// Layered is anything that can open a LayerSession over a layer range.
// *Renderer implements it.
type Layered interface {
	BeginLayers(minLayer, maxLayer int) LayerSession
}

// BeginLayers opens a StaggeredDraw; it lets a Renderer take part in
// DrawLayered.
func (r *Renderer) BeginLayers(minLayer, maxLayer int) LayerSession {
	return r.Stagger(minLayer, maxLayer)
}

// DrawLayered draws several layered sources in lock-step. It opens one
// session per source up front, then walks the layers in ascending order and,
// for each layer, draws every source in argument order before moving on. The
// result is layer-major, source-minor ordering, so primitives from different
// renderers sharing a layer stack correctly.
//
// Only layers that some session actually holds are visited. Every session is
// closed before DrawLayered returns, including when a draw panics.
func DrawLayered(minLayer, maxLayer int, sources ...Layered) {
	sessions := make([]LayerSession, 0, len(sources))
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()
	for _, src := range sources {
		sessions = append(sessions, src.BeginLayers(minLayer, maxLayer))
	}

	for _, layer := range mergeLayers(sessions) {
		if layer < minLayer || layer > maxLayer {
			continue
		}
		for _, s := range sessions {
			s.DrawLayer(layer)
		}
	}
}

// mergeLayers returns the sorted union of every session's layers.
func mergeLayers(sessions []LayerSession) []int {
	var all []int
	for _, s := range sessions {
		all = append(all, s.Layers()...)
	}
	slices.Sort(all)
	return slices.Compact(all)
}
