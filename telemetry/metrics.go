package telemetry

import (
	"time"

	gometrics "github.com/armon/go-metrics"

	"github.com/e7canasta/pixelmirror/transport"
)

// Metrics wraps a go-metrics sink with the counter names this session
// reports: frames sent by kind, tiles, bytes, reconnects, sequence
// gaps, and resyncs. All observation-only, per spec §3's telemetry
// counters.
type Metrics struct {
	sink gometrics.MetricSink
}

// NewMetrics creates a Metrics backed by an in-memory sink suitable for
// local aggregation and installs it as the global go-metrics sink.
func NewMetrics(instanceID string) *Metrics {
	sink := gometrics.NewInmemSink(10*time.Second, time.Minute)
	cfg := gometrics.DefaultConfig(instanceID)
	cfg.EnableHostname = false
	gometrics.NewGlobal(cfg, sink)
	return &Metrics{sink: sink}
}

func (m *Metrics) IncrFramesSent(kind string) {
	gometrics.IncrCounter([]string{"pixelmirror", "frames_sent", kind}, 1)
}

func (m *Metrics) IncrTilesSent(n int) {
	gometrics.IncrCounter([]string{"pixelmirror", "tiles_sent"}, float32(n))
}

func (m *Metrics) IncrBytesSent(n int) {
	gometrics.IncrCounter([]string{"pixelmirror", "bytes_sent"}, float32(n))
}

func (m *Metrics) IncrReconnects() {
	gometrics.IncrCounter([]string{"pixelmirror", "reconnects"}, 1)
}

func (m *Metrics) IncrSequenceGaps() {
	gometrics.IncrCounter([]string{"pixelmirror", "sequence_gaps"}, 1)
}

func (m *Metrics) IncrResyncs() {
	gometrics.IncrCounter([]string{"pixelmirror", "resyncs"}, 1)
}

// AttachReconnectCounting wires IncrReconnects into a transport.Manager:
// every transition into StatusConnecting after the first counts as a
// reconnect attempt.
func (m *Metrics) AttachReconnectCounting(mgr *transport.Manager) {
	seenFirst := false
	mgr.OnStatus(func(s transport.Status) {
		if s != transport.StatusConnecting {
			return
		}
		if !seenFirst {
			seenFirst = true
			return
		}
		m.IncrReconnects()
	})
}
