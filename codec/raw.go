package codec

// Raw is an uncompressed passthrough TileCodec and FrameCodec: the
// payload is exactly the input pixel bytes, copied so callers can't
// alias a codec's internal buffers across calls.
type Raw struct{}

func (Raw) EncodeTile(pixels []byte, w, h int) ([]byte, error) {
	return cloneExact(pixels, w, h)
}

func (Raw) DecodeTile(payload []byte, w, h int) ([]byte, error) {
	return cloneExact(payload, w, h)
}

func (Raw) EncodeFrame(pixels []byte, w, h int) ([]byte, error) {
	return cloneExact(pixels, w, h)
}

func (Raw) DecodeFrame(payload []byte, w, h int) ([]byte, error) {
	return cloneExact(payload, w, h)
}

func cloneExact(b []byte, w, h int) ([]byte, error) {
	const bpp = 3
	if len(b) != w*h*bpp {
		return nil, ErrCodecFailed
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
