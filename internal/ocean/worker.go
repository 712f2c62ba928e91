package ocean

import (
	"runtime"
	"sync"
)

// rowBand is a half-open range of rows processed by one goroutine.
type rowBand struct{ start, end int }

// assignRowBands splits rows into at most workerCount contiguous bands of
// near-equal height.
func assignRowBands(workerCount, rows int) []rowBand {
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > rows {
		workerCount = rows
	}
	if rows <= 0 {
		return nil
	}
	bands := make([]rowBand, 0, workerCount)
	per := rows / workerCount
	extra := rows % workerCount
	start := 0
	for i := 0; i < workerCount; i++ {
		end := start + per
		if i < extra {
			end++
		}
		bands = append(bands, rowBand{start: start, end: end})
		start = end
	}
	return bands
}

// dispatcher executes one stage over an N-row grid and returns only once every
// row is written, so each call is a barrier between stages. Calls from
// different goroutines are independent.
type dispatcher struct {
	workers int
}

func newDispatcher(workers int) *dispatcher {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &dispatcher{workers: workers}
}

// run calls fn once per band covering rows [0, rows).
func (d *dispatcher) run(rows int, fn func(y0, y1 int)) {
	bands := assignRowBands(d.workers, rows)
	if len(bands) == 1 {
		fn(bands[0].start, bands[0].end)
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(bands))
	for _, b := range bands {
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(b.start, b.end)
	}
	wg.Wait()
}
