package receiver

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/e7canasta/pixelmirror/bus"
	"github.com/e7canasta/pixelmirror/transport"
	"github.com/e7canasta/pixelmirror/wire"
)

// Stats are additive, observation-only counters for the receiving side,
// mirroring sender.Stats so a single diagnostics shape can describe
// either end of a connection.
type Stats struct {
	KeyframesApplied uint64
	DeltasApplied    uint64
	EmptiesApplied   uint64
	Rejected         uint64
	Resyncs          uint64
	SequenceGaps     uint64
}

// Session is the receiving side's unit of per-connection state: it wires
// a Canvas and SequenceMonitor to a transport.Manager's inbound messages
// and republishes every successfully-applied frame onto a SnapshotBus for
// UI consumption (spec §3, §5).
//
// A fresh connection gets a fresh Session, mirroring the fresh-Canvas
// requirement: there is no cross-connection state to carry over.
type Session struct {
	canvas  *Canvas
	monitor *SequenceMonitor
	manager *transport.Manager
	out     *bus.SnapshotBus

	seq   uint64
	stats Stats
}

// NewSession wires canvas, a fresh SequenceMonitor, manager's inbound
// messages, and out together. It registers the manager.OnMessage
// callback itself; callers must not also consume manager's inbound
// messages elsewhere.
func NewSession(canvas *Canvas, manager *transport.Manager, out *bus.SnapshotBus) *Session {
	s := &Session{
		canvas:  canvas,
		monitor: NewSequenceMonitor(),
		manager: manager,
		out:     out,
	}
	manager.OnMessage(s.handle)
	return s
}

// Stats returns a snapshot of the session's telemetry counters.
func (s *Session) Stats() Stats {
	return Stats{
		KeyframesApplied: atomic.LoadUint64(&s.stats.KeyframesApplied),
		DeltasApplied:    atomic.LoadUint64(&s.stats.DeltasApplied),
		EmptiesApplied:   atomic.LoadUint64(&s.stats.EmptiesApplied),
		Rejected:         atomic.LoadUint64(&s.stats.Rejected),
		Resyncs:          atomic.LoadUint64(&s.stats.Resyncs),
		SequenceGaps:     atomic.LoadUint64(&s.stats.SequenceGaps),
	}
}

// handle is the transport.Manager.OnMessage callback: decode, classify
// sequence, apply to canvas, publish on success, request Resync on any
// rejection (spec §4.5, §4.6).
func (s *Session) handle(raw []byte) {
	rec, err := wire.Decode(raw)
	if err != nil {
		slog.Warn("receiver: malformed frame", "error", err)
		s.requestResync()
		return
	}

	if rec.Kind == wire.KindEmpty || rec.Kind == wire.KindKeyframe || rec.Kind == wire.KindDelta {
		verdict := s.monitor.Observe(rec.Seq, rec.Kind)
		if verdict == VerdictDiscard {
			return
		}
		s.observeLatency(rec.TS)

		if verdict == VerdictGapResync {
			// spec §4.6/S5: a gap on a Delta sends a Resync but still
			// applies this frame's tiles — the gap is reported, not
			// discarded. The monitor already advanced expected_seq in
			// Observe, so it stays primed; the canvas stays ready.
			atomic.AddUint64(&s.stats.SequenceGaps, 1)
			atomic.AddUint64(&s.stats.Resyncs, 1)
			s.sendResync()
		}
	}

	if err := s.canvas.Apply(rec); err != nil {
		atomic.AddUint64(&s.stats.Rejected, 1)
		s.requestResync()
		return
	}

	switch rec.Kind {
	case wire.KindKeyframe:
		atomic.AddUint64(&s.stats.KeyframesApplied, 1)
	case wire.KindDelta:
		atomic.AddUint64(&s.stats.DeltasApplied, 1)
	case wire.KindEmpty:
		atomic.AddUint64(&s.stats.EmptiesApplied, 1)
	default:
		return
	}

	s.publish()
}

func (s *Session) observeLatency(tsMillis uint64) {
	now := uint64(time.Now().UnixMilli())
	if now < tsMillis {
		return
	}
	s.manager.ReportLatency(time.Duration(now-tsMillis) * time.Millisecond)
}

func (s *Session) publish() {
	seq := atomic.AddUint64(&s.seq, 1)
	pixels := s.canvas.Pixels()
	cp := make([]byte, len(pixels))
	copy(cp, pixels)
	s.out.Publish(bus.Snapshot{Pixels: cp, W: s.canvas.w, H: s.canvas.h, Seq: seq})
}

// requestResync is for frames this session cannot recover from: it
// invalidates the canvas and unprimes the monitor before asking the
// sender for a fresh keyframe. A bare sequence gap is not one of these
// cases (see VerdictGapResync handling in handle) — that path calls
// sendResync directly instead, since the canvas and monitor are still
// good.
func (s *Session) requestResync() {
	atomic.AddUint64(&s.stats.Resyncs, 1)
	s.canvas.Invalidate()
	s.monitor.Reset()
	s.sendResync()
}

func (s *Session) sendResync() {
	msg, err := wire.Encode(wire.Resync())
	if err != nil {
		slog.Warn("receiver: encode resync", "error", err)
		return
	}
	if err := s.manager.Send(msg); err != nil {
		slog.Warn("receiver: send resync", "error", err)
	}
}

