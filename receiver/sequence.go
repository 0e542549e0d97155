package receiver

import "github.com/e7canasta/pixelmirror/wire"

// Verdict is SequenceMonitor's disposition for one incoming seq.
type Verdict int

const (
	// VerdictAccept means the frame advances expected_seq and should be
	// applied normally.
	VerdictAccept Verdict = iota
	// VerdictDiscard means the frame is a stale reorder/duplicate and
	// must not touch the canvas or expected_seq.
	VerdictDiscard
	// VerdictGapResync means the frame advances expected_seq (it is
	// accepted) but a gap was observed and, because the accepted frame
	// is a Delta, a Resync must be sent before applying it.
	VerdictGapResync
)

// SequenceMonitor tracks expected_seq for one connection and classifies
// each incoming frame per spec §4.6.
type SequenceMonitor struct {
	expected uint32
	primed   bool
}

// NewSequenceMonitor creates a monitor with no expectation yet; the
// first frame observed, of any seq, primes expected_seq.
func NewSequenceMonitor() *SequenceMonitor {
	return &SequenceMonitor{}
}

// Reset restores the monitor to its unprimed state, as a fresh
// connection requires (spec §3).
func (m *SequenceMonitor) Reset() {
	m.expected = 0
	m.primed = false
}

// Observe classifies seq against the current expectation and, on
// Accept/GapResync, advances expected_seq to seq+1.
func (m *SequenceMonitor) Observe(seq uint32, kind wire.Kind) Verdict {
	if !m.primed {
		m.primed = true
		m.expected = seq + 1
		return VerdictAccept
	}

	// diff is interpreted as a signed 32-bit delta so that wraparound of
	// the u32 sequence space behaves the way spec §4.6 describes: ahead
	// of expectation (diff > 0) is a gap, behind (diff < 0) is a
	// reorder/duplicate.
	diff := int32(seq - m.expected)

	switch {
	case diff == 0:
		m.expected = seq + 1
		return VerdictAccept
	case diff > 0:
		m.expected = seq + 1
		if kind == wire.KindDelta {
			return VerdictGapResync
		}
		return VerdictAccept
	default:
		return VerdictDiscard
	}
}
