package sender

import (
	"sync"

	"github.com/e7canasta/pixelmirror/tile"
	"github.com/e7canasta/pixelmirror/wire"
)

// encodeTiles runs the tile codec over every changed cell, offloaded to
// a bounded worker pool of size WorkerPoolSize (spec §5's "P", default
// 1). Each job writes its result into its own pre-assigned slot rather
// than a shared queue, so completion order never matters: the returned
// slice is always in the same raster order as cells, preserving the
// fingerprint-cache mutation ordering spec §5 requires regardless of
// which worker finishes first.
func (s *Session) encodeTiles(cells []tile.Cell, pixelsOf func(tile.Cell) []byte) ([]wire.TileRecord, error) {
	n := len(cells)
	if n == 0 {
		return nil, nil
	}

	out := make([]wire.TileRecord, n)
	errs := make([]error, n)

	workers := s.cfg.WorkerPoolSize
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				c := cells[idx]
				payload, err := s.tileCodec.EncodeTile(pixelsOf(c), c.W, c.H)
				if err != nil {
					errs[idx] = err
					continue
				}
				out[idx] = wire.TileRecord{TX: c.TX, TY: c.TY, TW: c.W, TH: c.H, Data: payload}
			}
		}()
	}

	for i := range cells {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
