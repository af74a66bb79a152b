package ccd

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelRows splits [0,n) into contiguous chunks and runs fn over
// them concurrently, returning once every chunk is done. fn must only
// write to its own rows.
func parallelRows(n int, fn func(y0, y1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < n; y0 += chunk {
		y0, y1 := y0, min(y0+chunk, n)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	g.Wait()
}
