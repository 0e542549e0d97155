package transport

import (
	"testing"

	"github.com/e7canasta/pixelmirror/wire"
)

func msgOfKind(k wire.Kind, tag byte) []byte {
	return []byte{byte(k), tag}
}

func TestQueueFIFOUnderHighWater(t *testing.T) {
	q := newOutboundQueue(8)
	q.Push(msgOfKind(wire.KindDelta, 1))
	q.Push(msgOfKind(wire.KindDelta, 2))

	m, ok := q.Pop()
	if !ok || m[1] != 1 {
		t.Fatalf("first Pop = %v, want tag 1", m)
	}
	m, ok = q.Pop()
	if !ok || m[1] != 2 {
		t.Fatalf("second Pop = %v, want tag 2", m)
	}
}

func TestQueueDropsOldestDeltaOrEmptyAboveHighWater(t *testing.T) {
	q := newOutboundQueue(2)
	q.Push(msgOfKind(wire.KindDelta, 1))
	q.Push(msgOfKind(wire.KindDelta, 2))
	q.Push(msgOfKind(wire.KindDelta, 3)) // should evict tag 1

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	m, _ := q.Pop()
	if m[1] != 2 {
		t.Fatalf("oldest surviving = %v, want tag 2", m)
	}
}

func TestQueueNeverDropsKeyframe(t *testing.T) {
	q := newOutboundQueue(1)
	q.Push(msgOfKind(wire.KindKeyframe, 1))
	// Queue full of only a Keyframe: nothing droppable, so the new
	// non-Keyframe frame must itself be dropped.
	ok := q.Push(msgOfKind(wire.KindDelta, 2))
	if ok {
		t.Fatal("Push of Delta should be refused when only a Keyframe occupies the queue")
	}
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
	m, _ := q.Pop()
	if m[0] != byte(wire.KindKeyframe) {
		t.Fatal("surviving frame must be the Keyframe")
	}
}

func TestQueueKeyframeAlwaysAccepted(t *testing.T) {
	q := newOutboundQueue(1)
	q.Push(msgOfKind(wire.KindKeyframe, 1))
	ok := q.Push(msgOfKind(wire.KindKeyframe, 2))
	if !ok {
		t.Fatal("a new Keyframe must always be accepted")
	}
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (no droppable frame existed to evict)", q.Len())
	}
}

func TestQueueEvictsOnlyDeltaOrEmptyNeverKeyframe(t *testing.T) {
	q := newOutboundQueue(2)
	q.Push(msgOfKind(wire.KindKeyframe, 1))
	q.Push(msgOfKind(wire.KindEmpty, 2))
	q.Push(msgOfKind(wire.KindDelta, 3)) // should evict the Empty, not the Keyframe

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	first, _ := q.Pop()
	if first[0] != byte(wire.KindKeyframe) {
		t.Fatal("Keyframe must never be evicted")
	}
	second, _ := q.Pop()
	if second[1] != 3 {
		t.Fatalf("second = %v, want tag 3", second)
	}
}
