package receiver

import (
	"testing"

	"github.com/e7canasta/pixelmirror/wire"
)

func TestSequenceFirstFrameAlwaysAccepts(t *testing.T) {
	m := NewSequenceMonitor()
	if v := m.Observe(5, wire.KindKeyframe); v != VerdictAccept {
		t.Fatalf("first Observe = %v, want Accept", v)
	}
}

func TestSequenceInOrderAccepts(t *testing.T) {
	m := NewSequenceMonitor()
	m.Observe(0, wire.KindKeyframe)
	if v := m.Observe(1, wire.KindDelta); v != VerdictAccept {
		t.Fatalf("Observe(1) = %v, want Accept", v)
	}
	if v := m.Observe(2, wire.KindDelta); v != VerdictAccept {
		t.Fatalf("Observe(2) = %v, want Accept", v)
	}
}

func TestSequenceReorderDuplicateDiscarded(t *testing.T) {
	m := NewSequenceMonitor()
	m.Observe(0, wire.KindKeyframe)
	m.Observe(1, wire.KindDelta)
	m.Observe(2, wire.KindDelta)

	if v := m.Observe(1, wire.KindDelta); v != VerdictDiscard {
		t.Fatalf("Observe(1) replay = %v, want Discard", v)
	}
	if v := m.Observe(2, wire.KindDelta); v != VerdictDiscard {
		t.Fatalf("Observe(2) replay = %v, want Discard", v)
	}
}

// S5: seq=0 Keyframe, seq=1 Delta, seq=2 Delta; receiver sees 0 then 2.
func TestSequenceGapOnDeltaTriggersResync(t *testing.T) {
	m := NewSequenceMonitor()
	m.Observe(0, wire.KindKeyframe)

	v := m.Observe(2, wire.KindDelta)
	if v != VerdictGapResync {
		t.Fatalf("Observe(2) after gap = %v, want GapResync", v)
	}

	if v := m.Observe(3, wire.KindDelta); v != VerdictAccept {
		t.Fatalf("Observe(3) = %v, want Accept", v)
	}
}

func TestSequenceGapOnNonDeltaDoesNotResync(t *testing.T) {
	m := NewSequenceMonitor()
	m.Observe(0, wire.KindKeyframe)

	v := m.Observe(3, wire.KindEmpty)
	if v != VerdictAccept {
		t.Fatalf("Observe(3) empty-after-gap = %v, want Accept (no forced resync)", v)
	}
}

func TestSequenceResetReprimes(t *testing.T) {
	m := NewSequenceMonitor()
	m.Observe(10, wire.KindKeyframe)
	m.Observe(11, wire.KindDelta)

	m.Reset()
	if v := m.Observe(0, wire.KindKeyframe); v != VerdictAccept {
		t.Fatalf("Observe after Reset = %v, want Accept", v)
	}
}

func TestSequenceWraparound(t *testing.T) {
	m := NewSequenceMonitor()
	m.Observe(^uint32(0), wire.KindKeyframe) // max u32

	if v := m.Observe(0, wire.KindDelta); v != VerdictAccept {
		t.Fatalf("Observe(0) after wraparound = %v, want Accept", v)
	}
}
