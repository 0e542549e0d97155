package wire

// TileRecord is one changed tile within a Delta frame.
type TileRecord struct {
	TX, TY int
	TW, TH int
	Data   []byte
}

// Record is a tagged union over the five frame kinds defined by the wire
// format. Only the fields relevant to Kind are meaningful; callers should
// branch on Kind before reading the rest.
type Record struct {
	Kind Kind
	Seq  uint32
	TS   uint64 // milliseconds, session-local epoch

	// Keyframe
	W, H    int
	Tile    int
	Payload []byte

	// Delta
	Tiles []TileRecord

	// Input
	InputPayload []byte
}

// Empty returns a Record with Kind KindEmpty for the given sequence/timestamp.
func Empty(seq uint32, ts uint64) Record {
	return Record{Kind: KindEmpty, Seq: seq, TS: ts}
}

// Keyframe returns a Record with Kind KindKeyframe.
func Keyframe(seq uint32, ts uint64, w, h, tileSize int, payload []byte) Record {
	return Record{Kind: KindKeyframe, Seq: seq, TS: ts, W: w, H: h, Tile: tileSize, Payload: payload}
}

// Delta returns a Record with Kind KindDelta.
func Delta(seq uint32, ts uint64, tiles []TileRecord) Record {
	return Record{Kind: KindDelta, Seq: seq, TS: ts, Tiles: tiles}
}

// Resync returns a Record with Kind KindResync.
func Resync() Record {
	return Record{Kind: KindResync}
}

// Input returns a Record with Kind KindInput carrying an opaque payload.
func Input(payload []byte) Record {
	return Record{Kind: KindInput, InputPayload: payload}
}
