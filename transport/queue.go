package transport

import "github.com/e7canasta/pixelmirror/wire"

// outboundQueue is the sender-side FIFO of already-encoded wire messages
// awaiting a write to the Conn. It enforces spec §4.7's backpressure
// rule: above OutboundHighWater, drop the oldest Delta/Empty; a
// Keyframe is never dropped, and a new non-Keyframe frame is itself
// dropped if nothing else is droppable.
type outboundQueue struct {
	highWater int
	items     []queuedFrame
}

type queuedFrame struct {
	kind wire.Kind
	msg  []byte
}

func newOutboundQueue(highWater int) *outboundQueue {
	return &outboundQueue{highWater: highWater}
}

// Push enqueues msg, whose first byte is its wire.Kind (spec §4.4's
// common prefix). It returns true if msg was accepted onto the queue
// (possibly evicting an older frame to make room), false if msg itself
// was dropped.
func (q *outboundQueue) Push(msg []byte) bool {
	if len(msg) == 0 {
		return false
	}
	kind := wire.Kind(msg[0])

	if len(q.items) >= q.highWater {
		if !q.evictOldestDroppable() {
			// Nothing droppable: the new frame survives only if it is
			// itself a Keyframe (spec §4.7).
			if kind != wire.KindKeyframe {
				return false
			}
		}
	}

	q.items = append(q.items, queuedFrame{kind: kind, msg: msg})
	return true
}

// evictOldestDroppable removes the oldest Delta/Empty frame in the
// queue, if any, and reports whether it found one.
func (q *outboundQueue) evictOldestDroppable() bool {
	for i, item := range q.items {
		if item.kind == wire.KindDelta || item.kind == wire.KindEmpty {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Pop removes and returns the oldest queued message, in FIFO order.
func (q *outboundQueue) Pop() ([]byte, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	msg := q.items[0].msg
	q.items = q.items[1:]
	return msg, true
}

// Len reports the number of currently queued messages.
func (q *outboundQueue) Len() int {
	return len(q.items)
}
