// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workerpool splits independent kernel work across goroutines.
//
// The kernels themselves are single threaded and re-entrant. The Parallel*
// adapters in matvec and nn hand disjoint output ranges to an Executor, so a
// parallel call produces exactly the bytes of the sequential one.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	matvec.ParallelMatMul(pool, out, mat, vecs, bias, p)
package workerpool

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Executor runs fn over [0, n) split into contiguous [start, end) ranges
// and returns once every range is done.
type Executor interface {
	ParallelFor(n int, fn func(start, end int))
	NumWorkers() int
}

// Pool is an Executor bounded to a fixed number of concurrent workers.
type Pool struct {
	workers int
	closed  atomic.Bool
}

// New returns a Pool running at most workers ranges at once. workers < 1
// is treated as 1.
func New(workers int) *Pool {
	return &Pool{workers: max(workers, 1)}
}

// NumWorkers returns the concurrency limit.
func (p *Pool) NumWorkers() int { return p.workers }

// Close releases the pool. ParallelFor on a closed pool runs inline.
func (p *Pool) Close() { p.closed.Store(true) }

// ParallelFor implements Executor.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	chunks := min(n, p.workers)
	if chunks == 1 || p.closed.Load() {
		Inline{}.ParallelFor(n, fn)
		return
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	per, rem := n/chunks, n%chunks
	start := 0
	for i := range chunks {
		end := start + per
		if i < rem {
			end++
		}
		s, e := start, end
		g.Go(func() error {
			fn(s, e)
			return nil
		})
		start = end
	}
	// Workers never fail; Wait only joins them.
	_ = g.Wait()
}

// Inline is an Executor that runs everything on the calling goroutine.
type Inline struct{}

// ParallelFor implements Executor.
func (Inline) ParallelFor(n int, fn func(start, end int)) {
	if n > 0 {
		fn(0, n)
	}
}

// NumWorkers implements Executor.
func (Inline) NumWorkers() int { return 1 }
