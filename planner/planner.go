// Package planner implements the per-frame keyframe/delta/empty decision
// described in spec §4.2, against a fingerprint.Cache and a tile.Cell
// grid.
package planner

import (
	"github.com/e7canasta/pixelmirror/fingerprint"
	"github.com/e7canasta/pixelmirror/tile"
)

// Decision is the planner's verdict for one captured frame.
type Decision int

const (
	DecisionEmpty Decision = iota
	DecisionDelta
	DecisionKeyframe
)

func (d Decision) String() string {
	switch d {
	case DecisionEmpty:
		return "empty"
	case DecisionDelta:
		return "delta"
	case DecisionKeyframe:
		return "keyframe"
	default:
		return "unknown"
	}
}

// Plan is the outcome of Planner.Plan for one frame.
type Plan struct {
	Decision Decision
	// Changed holds the cells to transmit, in raster order. Populated for
	// DecisionDelta (the changed cells) and DecisionKeyframe (every cell,
	// so the caller can hand them straight to a tile-by-tile encoder if it
	// prefers that to a whole-frame codec); empty for DecisionEmpty.
	Changed []tile.Cell
}

// Planner decides keyframe vs. delta vs. empty for a captured frame and
// drives the corresponding fingerprint.Cache updates (spec §3's
// cache-consistency invariant: the cache always reflects exactly what was
// last transmitted, never what was merely captured).
type Planner struct {
	threshold float64 // FALLBACK_THRESHOLD, default 0.7

	// invalid forces the next Plan to emit a Keyframe. True at
	// construction (first frame of session) and after Invalidate (spec
	// §4.2: connection start, explicit Resync, or a sender-side encode
	// failure on any tile).
	invalid bool
}

// New creates a Planner with the given fallback threshold.
func New(threshold float64) *Planner {
	return &Planner{threshold: threshold, invalid: true}
}

// Invalidate forces the next Plan call to emit a Keyframe and refresh the
// entire cache, per spec §4.2's cache-invalidation triggers.
func (p *Planner) Invalidate() {
	p.invalid = true
}

// Plan computes the keyframe/delta/empty decision for one frame's cells
// against cache, and commits cache updates for exactly the cells
// transmitted (never for cells merely inspected and found unchanged, and
// never for cells skipped by a Delta decision).
//
// pixelsOf must return the raw RGB bytes of a cell's rectangle; it is
// called once per cell, in the order cells appears.
func (p *Planner) Plan(cache *fingerprint.Cache, cells []tile.Cell, pixelsOf func(tile.Cell) []byte) Plan {
	total := len(cells)
	if total == 0 {
		return Plan{Decision: DecisionEmpty}
	}

	digests := make([]fingerprint.Digest, total)
	changedIdx := make([]int, 0, total)

	for i, c := range cells {
		d := fingerprint.Sum(pixelsOf(c))
		digests[i] = d
		cached, ok := cache.Lookup(c.Coord)
		if !ok || cached != d {
			changedIdx = append(changedIdx, i)
		}
	}

	if !p.invalid && len(changedIdx) == 0 {
		// spec §4.2 tie-break: identical content after the first keyframe
		// yields a single Empty, with no cache mutation.
		return Plan{Decision: DecisionEmpty}
	}

	forceKeyframe := p.invalid || float64(len(changedIdx)) > p.threshold*float64(total)

	if forceKeyframe {
		// Refresh cache for all tiles from the captured frame, even ones
		// that didn't change, since this frame's keyframe payload carries
		// their content too (spec §4.2 step 4).
		for i, c := range cells {
			cache.Commit(c.Coord, digests[i])
		}
		p.invalid = false
		return Plan{Decision: DecisionKeyframe, Changed: append([]tile.Cell(nil), cells...)}
	}

	out := make([]tile.Cell, len(changedIdx))
	for j, i := range changedIdx {
		cache.Commit(cells[i].Coord, digests[i])
		out[j] = cells[i]
	}
	return Plan{Decision: DecisionDelta, Changed: out}
}
