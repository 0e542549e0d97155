// Package wire implements the binary frame format shared by the sender and
// receiver pipelines: one logical frame maps to exactly one transport
// message, big-endian throughout.
package wire

import "fmt"

// Kind tags the variant carried by a Record. 0x00-0x02 are the frame
// kinds and 0x10/0x20 the client control kinds; Decode rejects every
// other kind byte as malformed.
type Kind uint8

const (
	KindEmpty    Kind = 0x00
	KindKeyframe Kind = 0x01
	KindDelta    Kind = 0x02
	KindResync   Kind = 0x10
	KindInput    Kind = 0x20
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindKeyframe:
		return "keyframe"
	case KindDelta:
		return "delta"
	case KindResync:
		return "resync"
	case KindInput:
		return "input"
	default:
		return fmt.Sprintf("kind(0x%02x)", uint8(k))
	}
}

// reservedNibble returns the high nibble of a kind byte; Decode reports it
// in the error for an unrecognized kind byte.
func reservedNibble(b byte) byte {
	return b >> 4
}
