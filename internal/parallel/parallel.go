// Package parallel splits independent index ranges across goroutines.
//
// The autodiff graph itself is single-threaded; this package is only used
// inside array kernels whose iterations touch disjoint output memory.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled  bool // Whether parallel execution is enabled.
	Workers  int  // Number of worker goroutines to use.
	MinChunk int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on CPU count. Items are expected to
// be coarse (a whole matrix product), so the chunk floor is small.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:  n > 1,
		Workers:  n,
		MinChunk: 2,
	}
}

// Range calls f on consecutive [start, end) chunks covering [0, n).
// It runs f once over the whole range when parallelism is disabled or
// n is too small to split.
func Range(n int, cfg Config, f func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := max(cfg.Workers, 1)
	if !cfg.Enabled || workers == 1 || n < 2*max(cfg.MinChunk, 1) {
		f(0, n)
		return
	}

	chunk := max((n+workers-1)/workers, cfg.MinChunk)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for every i in [0, n).
func For(n int, cfg Config, f func(i int)) {
	Range(n, cfg, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	})
}
