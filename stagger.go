package strata

// batchOffset locates one batch inside the renderer's uploaded buffers.
type batchOffset struct {
	vertex int
	index  int
}

// StaggeredDraw is a drawing session over a layer range of one renderer. It
// uploads the range once on creation; afterwards single layers (DrawLayer)
// or the whole range (Draw) can be drawn any number of times, in any order,
// without uploading again. Close removes the range from the renderer.
//
// While a session is active the renderer is locked: allocations, default
// changes and new sessions panic. Always Close a session, typically with
// defer; closing is what consumes the batches, whether or not anything was
// drawn.
type StaggeredDraw struct {
	r       *Renderer
	lo, hi  int // owned batch range in r.batches
	offsets []batchOffset
	closed  bool
	stats   DrawStats
}

// Stagger opens a session over the batches whose layer lies in
// [minLayer, maxLayer]. It panics if a session is already active for r.
func (r *Renderer) Stagger(minLayer, maxLayer int) *StaggeredDraw {
	if r.locked {
		contractf("staggered draw already active for this renderer")
	}
	if minLayer > maxLayer {
		contractf("staggered draw over empty layer range [%d, %d]", minLayer, maxLayer)
	}
	lo, hi := layerBounds(r.batches, minLayer, maxLayer)
	r.locked = true
	s := &StaggeredDraw{r: r, lo: lo, hi: hi}
	s.upload()
	return s
}

// upload writes every owned batch into the renderer's buffers in one pass.
func (s *StaggeredDraw) upload() {
	r := s.r
	batches := r.batches[s.lo:s.hi]

	nv, ni := 0, 0
	s.offsets = make([]batchOffset, len(batches))
	for i, b := range batches {
		s.offsets[i] = batchOffset{vertex: nv, index: ni}
		nv += len(b.pos)
		ni += len(b.indices)
	}

	r.vb.Resize(nv)
	r.ib.Resize(ni)
	verts := r.vb.Data()
	inds := r.ib.Data()
	for i, b := range batches {
		off := s.offsets[i]
		for j := range b.pos {
			p, uv, c := b.pos[j], b.uv[j], b.tint[j]
			verts[off.vertex+j] = Vertex{
				X: p.X, Y: p.Y,
				U: uv.X, V: uv.Y,
				R: c.R, G: c.G, B: c.B, A: c.A,
			}
		}
		copy(inds[off.index:], b.indices)
	}

	s.stats.Batches = len(batches)
	s.stats.Vertices = nv
	s.stats.Indices = ni
}

func (s *StaggeredDraw) mustOpen(op string) {
	if s.closed {
		contractf("%s on a closed staggered draw", op)
	}
}

// Layers returns the distinct layers in the session, ascending.
func (s *StaggeredDraw) Layers() []int {
	s.mustOpen("Layers")
	return distinctLayers(s.r.batches[s.lo:s.hi])
}

// DrawLayer draws only the batches of one layer. Layers outside the session
// range draw nothing.
func (s *StaggeredDraw) DrawLayer(layer int) {
	s.mustOpen("DrawLayer")
	owned := s.r.batches[s.lo:s.hi]
	a, b := layerBounds(owned, layer, layer)
	s.drawRange(a, b)
}

// Draw draws every batch in the session in layer order.
func (s *StaggeredDraw) Draw() {
	s.mustOpen("Draw")
	s.drawRange(0, s.hi-s.lo)
}

// drawRange draws owned batches [a, b), relative to the session range.
func (s *StaggeredDraw) drawRange(a, b int) {
	r := s.r
	ctx := r.ctx
	for i := a; i < b; i++ {
		batch := r.batches[s.lo+i]
		if len(batch.indices) == 0 {
			continue
		}

		var tex Texture
		if batch.prim.Textured() {
			if tex = batch.texture.Texture(); tex == nil {
				Logger().Warn("strata: skipping textured batch with empty texture",
					"layer", batch.layer, "vertices", len(batch.pos))
				s.stats.Skipped++
				continue
			}
		}

		changes := 0
		if r.target != nil && ctx.setTarget(r.target) {
			changes++
		}
		if ctx.setBuffers(&r.vb, &r.ib) {
			changes++
		}
		if ctx.setBlend(batch.blend) {
			changes++
		}
		if ctx.setTexture(tex) {
			changes++
		}
		if ctx.setTransform(batch.transform) {
			changes++
		}
		s.stats.StateChanges += changes

		off := s.offsets[i]
		ctx.g.Draw(batch.prim, off.vertex, len(batch.pos), off.index, len(batch.indices))
		s.stats.DrawCalls++
	}
}

// Stats returns the counters accumulated so far.
func (s *StaggeredDraw) Stats() DrawStats {
	return s.stats
}

// Closed reports whether Close has been called.
func (s *StaggeredDraw) Closed() bool {
	return s.closed
}

// Close removes the session's batches from the renderer and unlocks it.
// Closing twice is a no-op.
func (s *StaggeredDraw) Close() {
	if s.closed {
		return
	}
	s.closed = true
	r := s.r
	r.releaseBatches(s.lo, s.hi)
	r.vb.Clear()
	r.ib.Clear()
	r.locked = false
	s.stats.log()
}
