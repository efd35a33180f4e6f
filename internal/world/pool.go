package world

import (
	"runtime"
	"sync"
)

// pool fans an index range out over a fixed number of goroutines.
// Indexes are partitioned into contiguous chunks, so a task may touch
// only state owned by the indexes it was handed.
type pool struct {
	workers int
}

func newPool(workers int) *pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &pool{workers: workers}
}

// forEach runs fn for every index in [0, n). Small ranges run serially
// on the caller's goroutine.
func (p *pool) forEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if p.workers == 1 || n < 2*p.workers {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (n + p.workers - 1) / p.workers
	for w := 0; w < p.workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
