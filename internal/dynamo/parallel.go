package dynamo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelNodes executes fn concurrently over chunks of the node range [0, n).
// Chunks hold at least minChunk nodes; small ranges run inline.
func ParallelNodes(ctx context.Context, n, minChunk int, fn func(lo, hi int) error) error {
	numWorkers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || numWorkers <= 1 {
		return fn(0, n)
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunkSize {
		lo, hi := start, min(start+chunkSize, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
