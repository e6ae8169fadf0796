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

package workerpool

import (
	"sync"
	"testing"
)

func TestParallelForCoversRangeOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8} {
		for _, n := range []int{0, 1, 5, 17, 100} {
			pool := New(workers)
			seen := make([]int, n)
			var mu sync.Mutex
			pool.ParallelFor(n, func(start, end int) {
				if start >= end {
					t.Errorf("empty range [%d, %d)", start, end)
				}
				mu.Lock()
				defer mu.Unlock()
				for i := start; i < end; i++ {
					seen[i]++
				}
			})
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("workers=%d n=%d: index %d visited %d times", workers, n, i, c)
				}
			}
			pool.Close()
		}
	}
}

func TestClosedPoolRunsInline(t *testing.T) {
	pool := New(4)
	pool.Close()
	calls := 0
	pool.ParallelFor(10, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("got [%d, %d), want [0, 10)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("calls=%d want 1", calls)
	}
	if pool.NumWorkers() != 4 {
		t.Errorf("NumWorkers=%d want 4", pool.NumWorkers())
	}
}

func TestInline(t *testing.T) {
	var e Executor = Inline{}
	total := 0
	e.ParallelFor(7, func(start, end int) { total += end - start })
	if total != 7 || e.NumWorkers() != 1 {
		t.Errorf("total=%d workers=%d", total, e.NumWorkers())
	}
}
