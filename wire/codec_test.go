package wire

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

// TestRoundTrip verifies Decode(Encode(r)) == r bytewise for every kind,
// the wire round-trip invariant from spec §8.
func TestRoundTrip(t *testing.T) {
	cases := []Record{
		Empty(0, 0),
		Empty(42, 1_700_000_000_123),
		Keyframe(0, 10, 128, 64, 64, []byte{1, 2, 3, 4, 5}),
		Keyframe(7, 10, 100, 64, 64, []byte{}),
		Delta(1, 20, []TileRecord{
			{TX: 0, TY: 0, TW: 64, TH: 64, Data: []byte("green")},
		}),
		Delta(2, 30, []TileRecord{
			{TX: 0, TY: 0, TW: 64, TH: 64, Data: []byte("a")},
			{TX: 1, TY: 0, TW: 36, TH: 64, Data: []byte("b")},
		}),
		Delta(3, 40, nil),
		Resync(),
		Input([]byte{0xde, 0xad, 0xbe, 0xef}),
		Input(nil),
	}

	for _, want := range cases {
		encoded, err := Encode(want)
		if err != nil {
			t.Fatalf("Encode(%v) failed: %v", want, err)
		}

		got, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(Encode(%v)) failed: %v", want, err)
		}

		reencoded, err := Encode(got)
		if err != nil {
			t.Fatalf("re-Encode failed: %v", err)
		}
		if !bytes.Equal(encoded, reencoded) {
			t.Errorf("round trip not bytewise stable for %v:\n want %x\n got  %x", want, encoded, reencoded)
		}
		if !reflect.DeepEqual(normalize(want), normalize(got)) {
			t.Errorf("round trip changed record: want %+v got %+v", want, got)
		}
	}
}

// normalize treats nil and empty slices as equivalent for comparison, since
// Decode always allocates (possibly zero-length) slices.
func normalize(r Record) Record {
	if len(r.Payload) == 0 {
		r.Payload = nil
	}
	if len(r.Tiles) == 0 {
		r.Tiles = nil
	}
	if len(r.InputPayload) == 0 {
		r.InputPayload = nil
	}
	for i := range r.Tiles {
		if len(r.Tiles[i].Data) == 0 {
			r.Tiles[i].Data = nil
		}
	}
	return r
}

func TestDecodeRejectsTruncated(t *testing.T) {
	full, err := Encode(Keyframe(1, 2, 10, 10, 64, []byte("hello")))
	if err != nil {
		t.Fatal(err)
	}

	for n := 0; n < len(full); n++ {
		if _, err := Decode(full[:n]); !errors.Is(err, ErrFrameMalformed) {
			t.Errorf("Decode(truncated to %d bytes) = %v, want ErrFrameMalformed", n, err)
		}
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	full, err := Encode(Empty(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	trailing := append(full, 0xFF)

	if _, err := Decode(trailing); !errors.Is(err, ErrFrameMalformed) {
		t.Errorf("Decode(trailing garbage) = %v, want ErrFrameMalformed", err)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	if _, err := Decode([]byte{0x7F}); !errors.Is(err, ErrFrameMalformed) {
		t.Errorf("Decode(unknown kind) = %v, want ErrFrameMalformed", err)
	}
}

func TestEncodeRejectsOversizedKeyframe(t *testing.T) {
	_, err := Encode(Keyframe(0, 0, 1<<20, 10, 64, nil))
	if !errors.Is(err, ErrGeometryMismatch) {
		t.Errorf("Encode(oversized keyframe) = %v, want ErrGeometryMismatch", err)
	}
}

func TestKindString(t *testing.T) {
	if got := KindDelta.String(); got != "delta" {
		t.Errorf("KindDelta.String() = %q, want %q", got, "delta")
	}
	if got := Kind(0x55).String(); got == "" {
		t.Errorf("Kind(0x55).String() returned empty string")
	}
}
