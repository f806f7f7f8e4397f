package parallel

import (
	"runtime"
	"sync"
)

// grain is the smallest range worth handing to a goroutine; anything
// below it runs serially on the calling goroutine.
const grain = 2048

// For splits [0, n) into contiguous chunks and runs fn on each, using
// at most GOMAXPROCS goroutines. fn must be safe to call concurrently
// on disjoint ranges.
func For(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if limit := (n + grain - 1) / grain; workers > limit {
		workers = limit
	}
	if workers <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
