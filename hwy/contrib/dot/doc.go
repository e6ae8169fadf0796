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

// Package dot provides dot products over float and quantized integer
// vectors.
//
// # Dot Product Functions
//
// Float:
//   - Dot(a, b []float32) float32 - Single dot product for float32
//   - Dot64(a, b []float64) float64 - Single dot product for float64
//   - DotBatch(queries, keys [][]float32) []float32 - Batch dot products
//
// Quantized (vec_count independent products of length VecLen, each with an
// optional bias and requantized to the output type):
//   - DotProdAsym8s: asymmetric int8 x asymmetric int8 -> asymmetric int8
//   - DotProd16x16Asym8s: symmetric int16 x symmetric int16 -> asymmetric int8
//   - DotProdF32: float32, bias added in float
//
// The generic building block the matvec kernels share is Quantized, a
// zero-bias corrected integer dot product.
//
// # Algorithm
//
// Every product is a grouped loop followed by a horizontal reduction:
//  1. Process elements in groups of hwy.NumLanes[A]() with lane-wise
//     multiply-add into an accumulator vector
//  2. Reduce the accumulator lanes to a scalar
//  3. Handle tail elements with scalar code
//
// Integer accumulation wraps like the scalar expression, so the grouping
// never changes an integer result. Float results may differ from a strictly
// sequential sum in the last bits.
//
// # Example Usage
//
//	import "github.com/ajroetker/go-nnlib/hwy/contrib/dot"
//
//	a := []float32{1, 2, 3, 4, 5, 6, 7, 8}
//	b := []float32{8, 7, 6, 5, 4, 3, 2, 1}
//	result := dot.Dot(a, b)  // 120.0
//
//	// Two length-4 int8 products with zero points 3 and -5.
//	err := dot.DotProdAsym8s(out, a8, b8, bias, dot.Params{
//	    VecLen: 4, VecCount: 2,
//	    ZeroBias1: -3, ZeroBias2: 5,
//	    OutMultiplier: mult, OutShift: shift, OutZeroBias: zp,
//	})
package dot
