// Package tile partitions a frame geometry into fixed-size cells.
//
// This package is pure: it knows nothing about pixels, codecs, or the
// wire format. It answers one question — given (W, H, tileSize), what
// are the cells, in raster order, with their true (possibly ragged)
// dimensions?
package tile

// Coord identifies a grid cell by its column/row index.
type Coord struct {
	TX, TY int
}

// Rect is a pixel-space rectangle: top-left origin, width, height.
type Rect struct {
	X, Y, W, H int
}

// Cell is one grid cell: its coordinate and its effective pixel rectangle.
type Cell struct {
	Coord
	Rect
}

// Dims returns (W, H) of the grid for the given frame geometry and tile
// size: ceil(W/tileSize) columns by ceil(H/tileSize) rows.
func Dims(w, h, tileSize int) (cols, rows int) {
	cols = ceilDiv(w, tileSize)
	rows = ceilDiv(h, tileSize)
	return
}

// Count returns the total number of cells for the given geometry.
func Count(w, h, tileSize int) int {
	cols, rows := Dims(w, h, tileSize)
	return cols * rows
}

// Partition returns every cell of a w×h frame at the given tile size, in
// raster order (row-major, top-left origin). Edge cells carry their true,
// unpadded (tw, th); no cell is emitted for a zero-area remainder.
func Partition(w, h, tileSize int) []Cell {
	if w <= 0 || h <= 0 || tileSize <= 0 {
		return nil
	}

	cols, rows := Dims(w, h, tileSize)
	cells := make([]Cell, 0, cols*rows)

	for ty := 0; ty < rows; ty++ {
		y := ty * tileSize
		th := minInt(tileSize, h-y)
		for tx := 0; tx < cols; tx++ {
			x := tx * tileSize
			tw := minInt(tileSize, w-x)
			cells = append(cells, Cell{
				Coord: Coord{TX: tx, TY: ty},
				Rect:  Rect{X: x, Y: y, W: tw, H: th},
			})
		}
	}
	return cells
}

// Crop extracts the raw RGB bytes of a cell's rectangle out of a full
// frame's row-major RGB byte slice.
func Crop(frame []byte, frameW int, r Rect) []byte {
	const bpp = 3
	out := make([]byte, r.W*r.H*bpp)
	for row := 0; row < r.H; row++ {
		srcOff := ((r.Y+row)*frameW + r.X) * bpp
		dstOff := row * r.W * bpp
		copy(out[dstOff:dstOff+r.W*bpp], frame[srcOff:srcOff+r.W*bpp])
	}
	return out
}

// Paste writes a cell's raw RGB bytes into a full frame's row-major RGB
// byte slice at the cell's rectangle.
func Paste(frame []byte, frameW int, r Rect, pixels []byte) {
	const bpp = 3
	for row := 0; row < r.H; row++ {
		dstOff := ((r.Y+row)*frameW + r.X) * bpp
		srcOff := row * r.W * bpp
		copy(frame[dstOff:dstOff+r.W*bpp], pixels[srcOff:srcOff+r.W*bpp])
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
