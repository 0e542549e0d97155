// Package control exposes a small net/http diagnostics surface over one
// session's sender or receiver stats and connection status, grounded in the
// teacher's MQTT control-plane handler but adapted to a pull-based HTTP
// endpoint: there is no remote command surface here, only read-only
// snapshots (spec §9's non-goals exclude a full control plane; this is
// strictly diagnostics).
package control

import (
	"net/http"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/e7canasta/pixelmirror/receiver"
	"github.com/e7canasta/pixelmirror/sender"
	"github.com/e7canasta/pixelmirror/transport"
)

// Snapshot is the diagnostics body: sender stats plus the connection's
// current status and last-observed latency. Encoded with cbor rather
// than JSON because it is a byte-for-byte stats snapshot, not a
// human-edited document.
type Snapshot struct {
	Status     string        `cbor:"status"`
	LatencyMS  int64         `cbor:"latency_ms"`
	Keyframes  uint64        `cbor:"keyframes_sent"`
	Deltas     uint64        `cbor:"deltas_sent"`
	Empties    uint64        `cbor:"empties_sent"`
	TilesSent  uint64        `cbor:"tiles_sent"`
	BytesSent  uint64        `cbor:"bytes_sent"`
	Resyncs    uint64        `cbor:"resyncs"`
	CodecFails uint64        `cbor:"codec_failures"`
	CapturedAt time.Time     `cbor:"captured_at"`
}

// Handler serves Snapshot values over HTTP, tracking whatever
// Session/Manager it was wired to at construction.
type Handler struct {
	session *sender.Session
	manager *transport.Manager

	mu      sync.RWMutex
	status  transport.Status
	latency time.Duration
}

// NewHandler creates a Handler and subscribes to manager's status and
// latency callbacks so ServeHTTP never blocks on the core to ask.
func NewHandler(session *sender.Session, manager *transport.Manager) *Handler {
	h := &Handler{session: session, manager: manager}
	manager.OnStatus(func(s transport.Status) {
		h.mu.Lock()
		h.status = s
		h.mu.Unlock()
	})
	manager.OnLatency(func(d time.Duration) {
		h.mu.Lock()
		h.latency = d
		h.mu.Unlock()
	})
	return h
}

// ServeHTTP writes the current Snapshot as CBOR. Any method, any path:
// this handler is meant to be mounted at a single diagnostics route.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	status, latency := h.status, h.latency
	h.mu.RUnlock()

	stats := h.session.Stats()
	snap := Snapshot{
		Status:     status.String(),
		LatencyMS:  latency.Milliseconds(),
		Keyframes:  stats.KeyframesSent,
		Deltas:     stats.DeltasSent,
		Empties:    stats.EmptiesSent,
		TilesSent:  stats.TilesSent,
		BytesSent:  stats.BytesSent,
		Resyncs:    stats.Resyncs,
		CodecFails: stats.CodecFailures,
		CapturedAt: time.Now(),
	}

	body, err := cbor.Marshal(snap)
	if err != nil {
		http.Error(w, "control: encode snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/cbor")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// ReceiverSnapshot is the receiving side's diagnostics body.
type ReceiverSnapshot struct {
	Status           string    `cbor:"status"`
	LatencyMS        int64     `cbor:"latency_ms"`
	KeyframesApplied uint64    `cbor:"keyframes_applied"`
	DeltasApplied    uint64    `cbor:"deltas_applied"`
	EmptiesApplied   uint64    `cbor:"empties_applied"`
	Rejected         uint64    `cbor:"rejected"`
	Resyncs          uint64    `cbor:"resyncs"`
	SequenceGaps     uint64    `cbor:"sequence_gaps"`
	CapturedAt       time.Time `cbor:"captured_at"`
}

// ReceiverHandler is ReceiverSnapshot's counterpart of Handler, for a
// process running the receiving side of a connection.
type ReceiverHandler struct {
	session *receiver.Session
	manager *transport.Manager

	mu      sync.RWMutex
	status  transport.Status
	latency time.Duration
}

// NewReceiverHandler creates a ReceiverHandler and subscribes to
// manager's status and latency callbacks.
func NewReceiverHandler(session *receiver.Session, manager *transport.Manager) *ReceiverHandler {
	h := &ReceiverHandler{session: session, manager: manager}
	manager.OnStatus(func(s transport.Status) {
		h.mu.Lock()
		h.status = s
		h.mu.Unlock()
	})
	manager.OnLatency(func(d time.Duration) {
		h.mu.Lock()
		h.latency = d
		h.mu.Unlock()
	})
	return h
}

func (h *ReceiverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	status, latency := h.status, h.latency
	h.mu.RUnlock()

	stats := h.session.Stats()
	snap := ReceiverSnapshot{
		Status:           status.String(),
		LatencyMS:        latency.Milliseconds(),
		KeyframesApplied: stats.KeyframesApplied,
		DeltasApplied:    stats.DeltasApplied,
		EmptiesApplied:   stats.EmptiesApplied,
		Rejected:         stats.Rejected,
		Resyncs:          stats.Resyncs,
		SequenceGaps:     stats.SequenceGaps,
		CapturedAt:       time.Now(),
	}

	body, err := cbor.Marshal(snap)
	if err != nil {
		http.Error(w, "control: encode snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/cbor")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
