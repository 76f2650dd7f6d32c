// Package parallel provides helpers for splitting row-indexed work across
// CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items into contiguous chunks, one per available CPU
// core, and runs fn(start, end) for each chunk on its own goroutine. It
// returns after every chunk has been processed. fn must be safe to call
// concurrently for disjoint ranges.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}
	// Ceiling division so the last chunk picks up the remainder.
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := min(start+chunk, items)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn in parallel only when items exceeds
// threshold; smaller workloads run sequentially as fn(0, items) to avoid
// goroutine overhead.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items > threshold {
		Parallelize(items, fn)
		return
	}
	fn(0, items)
}
