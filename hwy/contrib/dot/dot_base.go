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

package dot

import "github.com/ajroetker/go-nnlib/hwy"

// Dot computes the dot product of two float32 slices.
// The result is the sum of element-wise products: Σ(a[i] * b[i]).
//
// If the slices have different lengths, the computation uses the minimum length.
// Returns 0 if either slice is empty.
//
// Example:
//
//	a := []float32{1, 2, 3}
//	b := []float32{4, 5, 6}
//	result := Dot(a, b)  // 1*4 + 2*5 + 3*6 = 32
func Dot(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	return dotFloat(a, b)
}

// Dot64 computes the dot product of two float64 slices.
// The result is the sum of element-wise products: Σ(a[i] * b[i]).
//
// If the slices have different lengths, the computation uses the minimum length.
// Returns 0 if either slice is empty.
func Dot64(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	return dotFloat(a, b)
}

// DotBatch computes multiple dot products efficiently.
// For each i, computes the dot product of queries[i] and keys[i].
//
// Returns a slice of results with length min(len(queries), len(keys)).
//
// Example:
//
//	queries := [][]float32{{1, 2}, {3, 4}}
//	keys := [][]float32{{5, 6}, {7, 8}}
//	results := DotBatch(queries, keys)  // [17, 53]
func DotBatch(queries, keys [][]float32) []float32 {
	n := min(len(queries), len(keys))
	results := make([]float32, n)

	for i := 0; i < n; i++ {
		results[i] = Dot(queries[i], keys[i])
	}

	return results
}

func dotFloat[T hwy.Floats](a, b []T) T {
	n := min(len(a), len(b))
	lanes := hwy.NumLanes[T]()
	sum0 := hwy.Zero[T]()
	sum1 := hwy.Zero[T]()

	// Two independent accumulators, merged once after the loop.
	i := 0
	for ; i+2*lanes <= n; i += 2 * lanes {
		sum0 = hwy.MulAdd(hwy.Load(a[i:]), hwy.Load(b[i:]), sum0)
		sum1 = hwy.MulAdd(hwy.Load(a[i+lanes:]), hwy.Load(b[i+lanes:]), sum1)
	}
	for ; i+lanes <= n; i += lanes {
		sum0 = hwy.MulAdd(hwy.Load(a[i:]), hwy.Load(b[i:]), sum0)
	}
	result := hwy.ReduceSum(hwy.Add(sum0, sum1))

	// Handle tail elements with scalar code
	for ; i < n; i++ {
		result += a[i] * b[i]
	}

	return result
}

// Quantized returns Σ (a[i]+aOff) * (b[i]+bOff) over min(len(a), len(b))
// elements, accumulated in A. The offsets are the negated zero points of
// the two operands.
func Quantized[A hwy.Accumulators, M, V hwy.Integers](a []M, b []V, aOff, bOff A) A {
	n := min(len(a), len(b))
	lanes := hwy.NumLanes[A]()
	acc := hwy.Zero[A]()

	i := 0
	for ; i+lanes <= n; i += lanes {
		acc = hwy.MulAdd(hwy.LoadWiden(a[i:], aOff), hwy.LoadWiden(b[i:], bOff), acc)
	}
	sum := hwy.ReduceSum(acc)

	for ; i < n; i++ {
		sum += (A(a[i]) + aOff) * (A(b[i]) + bOff)
	}
	return sum
}
