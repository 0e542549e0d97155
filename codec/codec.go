// Package codec defines the tile and frame compression boundary. Image
// codec libraries (WebP, JPEG) are out of scope; this package carries only
// interfaces plus a Raw passthrough used by tests and by any deployment
// that has not wired a real codec in.
package codec

import "errors"

// ErrCodecFailed wraps any encode/decode failure from a concrete codec
// implementation. The sender treats it the same as spec §7's fallback
// path: invalidate the cache and emit a Keyframe on the next frame.
var ErrCodecFailed = errors.New("codec: encode or decode failed")

// TileCodec compresses and decompresses a single tile's raw RGB bytes.
type TileCodec interface {
	EncodeTile(pixels []byte, w, h int) ([]byte, error)
	DecodeTile(payload []byte, w, h int) ([]byte, error)
}

// FrameCodec compresses and decompresses a full frame's raw RGB bytes,
// used for every Keyframe: one whole-frame codec call rather than per-tile
// calls.
type FrameCodec interface {
	EncodeFrame(pixels []byte, w, h int) ([]byte, error)
	DecodeFrame(payload []byte, w, h int) ([]byte, error)
}
