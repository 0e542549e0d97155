// Package sender drives the capture → plan → encode → write pipeline
// for one connection's outbound direction.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/e7canasta/pixelmirror/codec"
	"github.com/e7canasta/pixelmirror/fingerprint"
	"github.com/e7canasta/pixelmirror/planner"
	"github.com/e7canasta/pixelmirror/tile"
	"github.com/e7canasta/pixelmirror/transport"
	"github.com/e7canasta/pixelmirror/wire"
)

// FrameSource is the acquisition seam: a concrete implementation (screen
// capture, test fixture) supplies raw RGB frames at a fixed geometry for
// the lifetime of a session.
type FrameSource interface {
	Geometry() (w, h int)
	NextFrame(ctx context.Context) ([]byte, error)
}

// Config parameterizes one Session (spec.md §6's SessionConfig fields).
type Config struct {
	TileSize          int
	FallbackThreshold float64
	CaptureInterval   time.Duration
	WorkerPoolSize    int // P, default 1

	// MonitorID is a pass-through field for an application shell's
	// FrameSource constructor; the core never enumerates monitors
	// itself (acquisition stays out of scope).
	MonitorID int
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		TileSize:          64,
		FallbackThreshold: 0.7,
		CaptureInterval:   100 * time.Millisecond,
		WorkerPoolSize:    1,
	}
}

// Stats are additive, observation-only counters (never gate core
// behavior): FramesSent by kind, TilesSent, BytesSent, Resyncs.
type Stats struct {
	KeyframesSent uint64
	DeltasSent    uint64
	EmptiesSent   uint64
	TilesSent     uint64
	BytesSent     uint64
	Resyncs       uint64
	CodecFailures uint64
}

// Session is the sender-side unit of per-connection state: config,
// fingerprint cache, delta planner, and the transport manager that
// carries its output.
type Session struct {
	cfg Config

	source     FrameSource
	tileCodec  codec.TileCodec
	frameCodec codec.FrameCodec
	manager    *transport.Manager

	cache   *fingerprint.Cache
	planner *planner.Planner

	// resyncCh funnels a client's Resync request into Run's own goroutine
	// (see HandleResync): the capture loop is the sole caller of emit, the
	// planner, and the cache, so a request arriving on the transport
	// reader goroutine must be relayed here rather than acted on directly.
	resyncCh chan struct{}

	seq   uint32
	stats Stats
}

// New creates a Session. source, the codecs, and manager are all
// supplied by the caller; Session owns none of their lifecycles beyond
// calling them.
func New(cfg Config, source FrameSource, tileCodec codec.TileCodec, frameCodec codec.FrameCodec, manager *transport.Manager) *Session {
	return &Session{
		cfg:        cfg,
		source:     source,
		tileCodec:  tileCodec,
		frameCodec: frameCodec,
		manager:    manager,
		cache:      fingerprint.New(),
		planner:    planner.New(cfg.FallbackThreshold),
		resyncCh:   make(chan struct{}, 1),
	}
}

// Stats returns a snapshot of the session's telemetry counters.
func (s *Session) Stats() Stats {
	return Stats{
		KeyframesSent: atomic.LoadUint64(&s.stats.KeyframesSent),
		DeltasSent:    atomic.LoadUint64(&s.stats.DeltasSent),
		EmptiesSent:   atomic.LoadUint64(&s.stats.EmptiesSent),
		TilesSent:     atomic.LoadUint64(&s.stats.TilesSent),
		BytesSent:     atomic.LoadUint64(&s.stats.BytesSent),
		Resyncs:       atomic.LoadUint64(&s.stats.Resyncs),
		CodecFailures: atomic.LoadUint64(&s.stats.CodecFailures),
	}
}

// Run drives the capture loop until ctx is cancelled. Each tick captures
// one frame, plans it, encodes the result, and hands the wire-encoded
// message to manager.Send.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.CaptureInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				slog.Warn("sender: tick failed", "error", err)
			}
		case <-s.resyncCh:
			if err := s.resyncTick(ctx); err != nil {
				slog.Warn("sender: resync tick failed", "error", err)
			}
		}
	}
}

func (s *Session) tick(ctx context.Context) error {
	pixels, err := s.source.NextFrame(ctx)
	if err != nil {
		return fmt.Errorf("sender: capture: %w", err)
	}
	w, h := s.source.Geometry()
	return s.emit(pixels, w, h)
}

func (s *Session) emit(pixels []byte, w, h int) error {
	cells := tile.Partition(w, h, s.cfg.TileSize)
	pixelsOf := func(c tile.Cell) []byte { return tile.Crop(pixels, w, c.Rect) }

	plan := s.planner.Plan(s.cache, cells, pixelsOf)
	seq := atomic.AddUint32(&s.seq, 1) - 1
	ts := uint64(time.Now().UnixMilli())

	var rec wire.Record
	switch plan.Decision {
	case planner.DecisionEmpty:
		rec = wire.Empty(seq, ts)
		atomic.AddUint64(&s.stats.EmptiesSent, 1)

	case planner.DecisionKeyframe:
		payload, err := s.frameCodec.EncodeFrame(pixels, w, h)
		if err != nil {
			atomic.AddUint64(&s.stats.CodecFailures, 1)
			s.planner.Invalidate()
			return fmt.Errorf("sender: keyframe encode: %w", err)
		}
		rec = wire.Keyframe(seq, ts, w, h, s.cfg.TileSize, payload)
		atomic.AddUint64(&s.stats.KeyframesSent, 1)
		atomic.AddUint64(&s.stats.BytesSent, uint64(len(payload)))

	case planner.DecisionDelta:
		tiles, err := s.encodeTiles(plan.Changed, pixelsOf)
		if err != nil {
			// spec §4.2 failure handling: discard the partial delta,
			// invalidate the cache, force a Keyframe next tick. No
			// retry within this tick (one attempt per tile per frame).
			atomic.AddUint64(&s.stats.CodecFailures, 1)
			s.cache.Invalidate()
			s.planner.Invalidate()
			return fmt.Errorf("sender: delta encode: %w", err)
		}
		rec = wire.Delta(seq, ts, tiles)
		atomic.AddUint64(&s.stats.DeltasSent, 1)
		atomic.AddUint64(&s.stats.TilesSent, uint64(len(tiles)))
		for _, t := range tiles {
			atomic.AddUint64(&s.stats.BytesSent, uint64(len(t.Data)))
		}
	}

	// TS is stamped once encoding is done, right before serialization, so
	// the receiver's latency measurement excludes capture and encode time.
	rec.TS = uint64(time.Now().UnixMilli())
	msg, err := wire.Encode(rec)
	if err != nil {
		return fmt.Errorf("sender: wire encode: %w", err)
	}
	return s.manager.Send(msg)
}

// HandleResync answers a client Resync request with a fresh keyframe
// (supplemented feature: the original's redraw_full_frame command, spec
// §4.2's generic cache-invalidation trigger made concrete for the server
// side). It is called from the transport's reader goroutine, a different
// goroutine than the one running Run's capture loop, so it must not touch
// planner, cache, or emit itself: it only records the request and wakes
// Run, which performs the actual invalidate-and-capture on its own
// goroutine via resyncTick. A request arriving while one is already
// pending is coalesced into it.
func (s *Session) HandleResync(ctx context.Context) error {
	select {
	case s.resyncCh <- struct{}{}:
	default:
	}
	return nil
}

// resyncTick runs a Resync-triggered capture on Run's goroutine: invalidate
// the planner and cache so the next emit forces a Keyframe, then capture
// and emit exactly like an ordinary tick.
func (s *Session) resyncTick(ctx context.Context) error {
	atomic.AddUint64(&s.stats.Resyncs, 1)
	s.planner.Invalidate()
	s.cache.Invalidate()
	return s.tick(ctx)
}
