// Package receiver reconstructs a W×H canvas from decoded wire.Record
// values, tracks sequence expectations, and decides when to ask the
// sender for a fresh Keyframe.
package receiver

import (
	"errors"

	"github.com/e7canasta/pixelmirror/codec"
	"github.com/e7canasta/pixelmirror/wire"
)

// ErrNotReady is returned by Apply for a Delta arriving while the canvas
// has no Keyframe yet (spec §4.5): the caller must discard the frame and
// request a Resync.
var ErrNotReady = errors.New("receiver: canvas not ready for delta")

// ErrTileRejected is returned by Apply when a Delta's tile payload fails
// to decode or its declared (tw, th) disagrees with the record. The
// canvas is left byte-identical to its pre-Apply state.
var ErrTileRejected = errors.New("receiver: tile rejected")

// Canvas is a W×H RGB buffer reconstructed from a sequence of
// wire.Record values. It is owned exclusively by one connection; a fresh
// connection gets a fresh Canvas.
type Canvas struct {
	w, h  int
	tile  int
	pixel []byte
	ready bool

	tileCodec  codec.TileCodec
	frameCodec codec.FrameCodec
}

// New creates an empty, not-ready Canvas of the given geometry.
func New(w, h, tileSize int, tileCodec codec.TileCodec, frameCodec codec.FrameCodec) *Canvas {
	return &Canvas{
		w:          w,
		h:          h,
		tile:       tileSize,
		pixel:      make([]byte, w*h*3),
		tileCodec:  tileCodec,
		frameCodec: frameCodec,
	}
}

// Ready reports whether a Keyframe has been applied since the last
// Invalidate/construction.
func (c *Canvas) Ready() bool { return c.ready }

// Pixels returns the canvas's current raw RGB bytes. Callers must not
// retain or mutate the returned slice across the next Apply call.
func (c *Canvas) Pixels() []byte { return c.pixel }

// Invalidate marks the canvas not-ready, as spec §3's "fresh connection"
// and §4.5's rewind-to-placeholder both require. The backing buffer is
// left as-is; the next Keyframe will overwrite it entirely.
func (c *Canvas) Invalidate() {
	c.ready = false
}

// Apply applies one decoded record to the canvas per spec §4.5.
//
// On success it returns nil. On ErrNotReady the caller must send a
// Resync and must not retry this record. On ErrTileRejected or a
// geometry mismatch the canvas has already been rewound to its
// pre-Apply state, ready is now false, and the caller must send a
// Resync.
func (c *Canvas) Apply(rec wire.Record) error {
	switch rec.Kind {
	case wire.KindEmpty:
		return nil

	case wire.KindKeyframe:
		decoded, err := c.frameCodec.DecodeFrame(rec.Payload, rec.W, rec.H)
		if err != nil {
			c.ready = false
			return ErrTileRejected
		}
		if rec.W != c.w || rec.H != c.h {
			c.ready = false
			return ErrTileRejected
		}
		copy(c.pixel, decoded)
		c.ready = true
		return nil

	case wire.KindDelta:
		if !c.ready {
			return ErrNotReady
		}
		return c.applyDelta(rec)

	default:
		return ErrTileRejected
	}
}

// applyDelta pastes every tile record of rec in order, snapshotting each
// overwritten region before paste so a mid-delta failure can be rewound
// (spec §4.5 option (b): cheaper than double-buffering the full canvas
// when deltas touch a small fraction of the grid, the common case this
// system targets).
func (c *Canvas) applyDelta(rec wire.Record) error {
	type snapshot struct {
		x, y, w, h int
		pixels     []byte
	}
	snaps := make([]snapshot, 0, len(rec.Tiles))

	rewind := func() {
		for i := len(snaps) - 1; i >= 0; i-- {
			s := snaps[i]
			c.pasteAt(s.x, s.y, s.w, s.h, s.pixels)
		}
		c.ready = false
	}

	for _, t := range rec.Tiles {
		x, y := t.TX*c.tile, t.TY*c.tile
		if x < 0 || y < 0 || x+t.TW > c.w || y+t.TH > c.h {
			rewind()
			return ErrTileRejected
		}

		decoded, err := c.tileCodec.DecodeTile(t.Data, t.TW, t.TH)
		if err != nil {
			rewind()
			return ErrTileRejected
		}
		if len(decoded) != t.TW*t.TH*3 {
			rewind()
			return ErrTileRejected
		}

		snaps = append(snaps, snapshot{x: x, y: y, w: t.TW, h: t.TH, pixels: c.cropAt(x, y, t.TW, t.TH)})
		c.pasteAt(x, y, t.TW, t.TH, decoded)
	}
	return nil
}

func (c *Canvas) cropAt(x, y, w, h int) []byte {
	const bpp = 3
	out := make([]byte, w*h*bpp)
	for row := 0; row < h; row++ {
		srcOff := ((y+row)*c.w + x) * bpp
		copy(out[row*w*bpp:(row+1)*w*bpp], c.pixel[srcOff:srcOff+w*bpp])
	}
	return out
}

func (c *Canvas) pasteAt(x, y, w, h int, pixels []byte) {
	const bpp = 3
	for row := 0; row < h; row++ {
		dstOff := ((y+row)*c.w + x) * bpp
		copy(c.pixel[dstOff:dstOff+w*bpp], pixels[row*w*bpp:(row+1)*w*bpp])
	}
}
