package codec

// TileFunc adapts a pair of plain functions to TileCodec, so an
// application shell can plug in a real WebP/JPEG backend without this
// module depending on one.
type TileFunc struct {
	Enc func(pixels []byte, w, h int) ([]byte, error)
	Dec func(payload []byte, w, h int) ([]byte, error)
}

func (f TileFunc) EncodeTile(pixels []byte, w, h int) ([]byte, error) {
	return f.Enc(pixels, w, h)
}

func (f TileFunc) DecodeTile(payload []byte, w, h int) ([]byte, error) {
	return f.Dec(payload, w, h)
}

// FrameFunc is the FrameCodec equivalent of TileFunc.
type FrameFunc struct {
	Enc func(pixels []byte, w, h int) ([]byte, error)
	Dec func(payload []byte, w, h int) ([]byte, error)
}

func (f FrameFunc) EncodeFrame(pixels []byte, w, h int) ([]byte, error) {
	return f.Enc(pixels, w, h)
}

func (f FrameFunc) DecodeFrame(payload []byte, w, h int) ([]byte, error) {
	return f.Dec(payload, w, h)
}
