package main

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// syntheticSource is a placeholder sender.FrameSource that paints a solid
// gray frame whose level increments on every call, instead of a real
// desktop capture (desktop
// frame acquisition is out of scope; a real deployment supplies its own
// FrameSource here). It exists so this binary runs end to end without a
// platform-specific capture backend.
type syntheticSource struct {
	w, h    int
	traceID string
	tick    atomic.Uint64
}

func newSyntheticSource(w, h int) *syntheticSource {
	s := &syntheticSource{w: w, h: h, traceID: uuid.New().String()}
	slog.Info("sender: synthetic frame source started", "trace_id", s.traceID, "width", w, "height", h)
	return s
}

func (s *syntheticSource) Geometry() (int, int) { return s.w, s.h }

func (s *syntheticSource) NextFrame(ctx context.Context) ([]byte, error) {
	n := s.tick.Add(1)
	v := byte(n % 256)

	buf := make([]byte, s.w*s.h*3)
	for i := range buf {
		buf[i] = v
	}
	return buf, nil
}
