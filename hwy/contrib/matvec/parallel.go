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

package matvec

import (
	"github.com/ajroetker/go-nnlib/hwy"
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/workerpool"
)

// MinParallelVecs is the smallest VecCount ParallelMatMul splits across
// workers; smaller calls, and calls with a nil pool, run inline.
const MinParallelVecs = 8

// ParallelMatMul is MatMul with the vectors split into contiguous ranges
// across pool. Each worker writes a disjoint set of outputs, so the result
// is identical to MatMul.
func ParallelMatMul[M, V Operand, A hwy.Accumulators, O fixedpoint.Narrow](pool workerpool.Executor, out []O, mat []M, vecs []V, bias []A, p MatMulParams) error {
	if err := checkMatMul("ParallelMatMul", out, mat, vecs, bias, &p, true, true, false); err != nil {
		return err
	}
	if pool == nil || p.VecCount < MinParallelVecs || pool.NumWorkers() < 2 {
		pool = workerpool.Inline{}
	}

	pool.ParallelFor(p.VecCount, func(start, end int) {
		sub := p
		sub.VecCount = end - start
		matMul[M, V, A, O](out[start*p.OutOffset:], mat, nil, vecs[start*p.VecOffset:], nil, bias, &sub)
	})
	return nil
}
