package wire

import (
	"encoding/binary"
	"fmt"
)

// Encode serializes a Record into a single binary message. All multi-byte
// integers are big-endian (spec §4.4).
func Encode(r Record) ([]byte, error) {
	switch r.Kind {
	case KindEmpty:
		buf := make([]byte, 1+4+8)
		encodePrefix(buf, r.Kind, r.Seq, r.TS)
		return buf, nil

	case KindKeyframe:
		if r.W < 0 || r.W > 0xFFFF || r.H < 0 || r.H > 0xFFFF || r.Tile < 0 || r.Tile > 0xFFFF {
			return nil, fmt.Errorf("wire: encode keyframe: %w", ErrGeometryMismatch)
		}
		body := make([]byte, 1+4+8+2+2+2+4+len(r.Payload))
		encodePrefix(body, r.Kind, r.Seq, r.TS)
		off := 13
		binary.BigEndian.PutUint16(body[off:], uint16(r.W))
		binary.BigEndian.PutUint16(body[off+2:], uint16(r.H))
		binary.BigEndian.PutUint16(body[off+4:], uint16(r.Tile))
		binary.BigEndian.PutUint32(body[off+6:], uint32(len(r.Payload)))
		copy(body[off+10:], r.Payload)
		return body, nil

	case KindDelta:
		if len(r.Tiles) > 0xFFFF {
			return nil, fmt.Errorf("wire: encode delta: too many tiles: %w", ErrFrameMalformed)
		}
		size := 1 + 4 + 8 + 2
		for _, t := range r.Tiles {
			size += 2 + 2 + 2 + 2 + 4 + len(t.Data)
		}
		body := make([]byte, size)
		encodePrefix(body, r.Kind, r.Seq, r.TS)
		off := 13
		binary.BigEndian.PutUint16(body[off:], uint16(len(r.Tiles)))
		off += 2
		for _, t := range r.Tiles {
			if t.TX < 0 || t.TX > 0xFFFF || t.TY < 0 || t.TY > 0xFFFF || t.TW < 0 || t.TW > 0xFFFF || t.TH < 0 || t.TH > 0xFFFF {
				return nil, fmt.Errorf("wire: encode delta tile: %w", ErrGeometryMismatch)
			}
			binary.BigEndian.PutUint16(body[off:], uint16(t.TX))
			binary.BigEndian.PutUint16(body[off+2:], uint16(t.TY))
			binary.BigEndian.PutUint16(body[off+4:], uint16(t.TW))
			binary.BigEndian.PutUint16(body[off+6:], uint16(t.TH))
			binary.BigEndian.PutUint32(body[off+8:], uint32(len(t.Data)))
			copy(body[off+12:], t.Data)
			off += 12 + len(t.Data)
		}
		return body, nil

	case KindResync:
		return []byte{byte(KindResync)}, nil

	case KindInput:
		if len(r.InputPayload) > 0xFFFF {
			return nil, fmt.Errorf("wire: encode input: payload too large: %w", ErrFrameMalformed)
		}
		body := make([]byte, 1+2+len(r.InputPayload))
		body[0] = byte(KindInput)
		binary.BigEndian.PutUint16(body[1:], uint16(len(r.InputPayload)))
		copy(body[3:], r.InputPayload)
		return body, nil

	default:
		return nil, fmt.Errorf("wire: encode: %w: unknown kind %v", ErrFrameMalformed, r.Kind)
	}
}

func encodePrefix(buf []byte, kind Kind, seq uint32, ts uint64) {
	buf[0] = byte(kind)
	binary.BigEndian.PutUint32(buf[1:], seq)
	binary.BigEndian.PutUint64(buf[5:], ts)
}

// Decode parses a single binary message into a Record. It rejects any
// message whose declared lengths do not consume the body exactly (spec
// §4.4) and any unrecognized kind byte.
func Decode(b []byte) (Record, error) {
	if len(b) < 1 {
		return Record{}, fmt.Errorf("wire: decode: empty message: %w", ErrFrameMalformed)
	}

	kind := Kind(b[0])
	switch kind {
	case KindEmpty:
		if len(b) != 13 {
			return Record{}, fmt.Errorf("wire: decode empty: %w", ErrFrameMalformed)
		}
		seq, ts := decodePrefix(b)
		return Empty(seq, ts), nil

	case KindKeyframe:
		if len(b) < 13+10 {
			return Record{}, fmt.Errorf("wire: decode keyframe: %w", ErrFrameMalformed)
		}
		seq, ts := decodePrefix(b)
		off := 13
		w := int(binary.BigEndian.Uint16(b[off:]))
		h := int(binary.BigEndian.Uint16(b[off+2:]))
		tileSize := int(binary.BigEndian.Uint16(b[off+4:]))
		payloadLen := binary.BigEndian.Uint32(b[off+6:])
		payloadStart := off + 10
		if uint64(payloadStart)+uint64(payloadLen) != uint64(len(b)) {
			return Record{}, fmt.Errorf("wire: decode keyframe: %w", ErrFrameMalformed)
		}
		payload := make([]byte, payloadLen)
		copy(payload, b[payloadStart:])
		return Keyframe(seq, ts, w, h, tileSize, payload), nil

	case KindDelta:
		if len(b) < 13+2 {
			return Record{}, fmt.Errorf("wire: decode delta: %w", ErrFrameMalformed)
		}
		seq, ts := decodePrefix(b)
		off := 13
		n := int(binary.BigEndian.Uint16(b[off:]))
		off += 2
		tiles := make([]TileRecord, 0, n)
		for i := 0; i < n; i++ {
			if off+12 > len(b) {
				return Record{}, fmt.Errorf("wire: decode delta tile header: %w", ErrFrameMalformed)
			}
			tx := int(binary.BigEndian.Uint16(b[off:]))
			ty := int(binary.BigEndian.Uint16(b[off+2:]))
			tw := int(binary.BigEndian.Uint16(b[off+4:]))
			th := int(binary.BigEndian.Uint16(b[off+6:]))
			dataLen := binary.BigEndian.Uint32(b[off+8:])
			dataStart := off + 12
			if uint64(dataStart)+uint64(dataLen) > uint64(len(b)) {
				return Record{}, fmt.Errorf("wire: decode delta tile data: %w", ErrFrameMalformed)
			}
			data := make([]byte, dataLen)
			copy(data, b[dataStart:uint64(dataStart)+uint64(dataLen)])
			tiles = append(tiles, TileRecord{TX: tx, TY: ty, TW: tw, TH: th, Data: data})
			off = dataStart + int(dataLen)
		}
		if off != len(b) {
			return Record{}, fmt.Errorf("wire: decode delta: trailing bytes: %w", ErrFrameMalformed)
		}
		return Delta(seq, ts, tiles), nil

	case KindResync:
		if len(b) != 1 {
			return Record{}, fmt.Errorf("wire: decode resync: %w", ErrFrameMalformed)
		}
		return Resync(), nil

	case KindInput:
		if len(b) < 3 {
			return Record{}, fmt.Errorf("wire: decode input: %w", ErrFrameMalformed)
		}
		payloadLen := int(binary.BigEndian.Uint16(b[1:]))
		if 3+payloadLen != len(b) {
			return Record{}, fmt.Errorf("wire: decode input: %w", ErrFrameMalformed)
		}
		payload := make([]byte, payloadLen)
		copy(payload, b[3:])
		return Input(payload), nil

	default:
		return Record{}, fmt.Errorf("wire: decode: %w: unknown kind 0x%02x (reserved nibble 0x%x)", ErrFrameMalformed, b[0], reservedNibble(b[0]))
	}
}

func decodePrefix(b []byte) (seq uint32, ts uint64) {
	seq = binary.BigEndian.Uint32(b[1:])
	ts = binary.BigEndian.Uint64(b[5:])
	return
}
