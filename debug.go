package strata

import (
	"context"
	"log/slog"
)

// DrawStats holds per-session upload and draw-call metrics.
type DrawStats struct {
	Batches      int // batches owned by the session
	Vertices     int // vertices uploaded
	Indices      int // indices uploaded
	DrawCalls    int // draw calls issued
	StateChanges int // state setters that reached the Graphics
	Skipped      int // textured batches skipped because their texture was empty
}

// Add returns the sum of two stats, for aggregating several sessions.
func (s DrawStats) Add(o DrawStats) DrawStats {
	return DrawStats{
		Batches:      s.Batches + o.Batches,
		Vertices:     s.Vertices + o.Vertices,
		Indices:      s.Indices + o.Indices,
		DrawCalls:    s.DrawCalls + o.DrawCalls,
		StateChanges: s.StateChanges + o.StateChanges,
		Skipped:      s.Skipped + o.Skipped,
	}
}

// log emits the stats at debug level.
func (s DrawStats) log() {
	l := Logger()
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.Debug("strata: staggered draw closed",
		"batches", s.Batches,
		"vertices", s.Vertices,
		"indices", s.Indices,
		"draw_calls", s.DrawCalls,
		"state_changes", s.StateChanges,
		"skipped", s.Skipped)
}
