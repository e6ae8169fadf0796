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

// Package matvec implements the quantized row-by-vector kernels the rest of
// go-nnlib is built on.
//
// Every integer kernel computes, for each matrix row r and vector v,
//
//	acc = Σ_k (mat[r,k] + matZeroBias) * (vec[v,k] + vecZeroBias) + bias[r]
//
// in a wide accumulator (int32 for 8-bit operands, int64 when activations
// are 16-bit) and requantizes acc to the output type with
// fixedpoint.Requantize. Multipliers and shifts are either one pair for the
// call or one pair per row (per-channel quantization).
//
// # Alignment Variants
//
// A call picks one of four loop bodies once, from the alignment of the
// matrix and vector streams (see SelectLayout):
//   - LayoutAligned: both streams are loaded directly
//   - LayoutVecAligned: the matrix is staged through a lane buffer
//   - LayoutMatAligned: the vector is staged through a lane buffer
//   - LayoutUnaligned: both are staged
//
// Each body processes four rows at a time sharing one vector load, then a
// single-row tail; columns run in groups of hwy.NumLanes[A]() with a scalar
// remainder. All four produce identical bits.
//
// # Kernel Families
//
//   - MatXVecAsym8s, MatXVecAsym8: asymmetric 8-bit, optional second
//     matrix/vector pair summed into the same accumulator
//   - MatXVecSym8sxAsym8s: symmetric int8 weights with per-channel scales
//   - MatXVecSym8sxSym16s: int8 weights, int16 activations, int64 bias
//   - MatXVecF32: float32 through gonum BLAS
//   - MatXVec8x8_8 ... MatXVec8x16_64: legacy Q-format kernels with an
//     accumulator shift and a bias shift instead of requantization
//   - MatXVecBatch*: one matrix against a list of vectors
//   - MatMul*: one matrix against VecCount strided vectors with an
//     arbitrary output layout, the form the convolution drivers use
//   - ParallelMatMul: MatMul split across a workerpool.Executor
//
// All entry points validate their arguments first and return an error
// wrapping a validate sentinel without writing any output on failure.
package matvec
