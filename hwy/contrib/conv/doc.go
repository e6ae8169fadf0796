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

// Package conv implements 2D convolution drivers on top of the matvec
// kernels.
//
// Inputs are HWC (NHWC with a batch of one) unless a params struct says
// otherwise. Standard and transposed convolution kernels are laid out
// [out_channel][kernel_height][kernel_width][in_channel].
//
// # Standard Convolution
//
// The kernel is reordered once per call into
// [out_channel][kernel_width][kernel_height][padded_in_channel] with the
// channel padding set so it contributes nothing. A convstate window is then
// advanced one input column at a time; for every output column the
// receptive fields of all output rows are copied out of the window and
// multiplied by the reordered kernel with a single matvec.MatMul call, one
// matrix row per output channel. Per-channel quantization therefore follows
// the matrix rows.
//
// # Transposed Convolution
//
// A stride (sy, sx) transposed convolution is decomposed into sy*sx
// stride-1 standard convolutions, one per output phase, each with a
// spatially flipped sub-kernel taking every sy-th row and sx-th column of
// the filter. Every phase writes a strided slice of the output. Outputs no
// input pixel reaches get the bias-only result. When the filter is larger
// than the input or the stride exceeds the filter the decomposition does
// not apply and the driver falls back to a direct scatter into an
// accumulation plane.
//
// # Scratch
//
// Drivers that need working memory take a caller-provided []byte. Its
// minimum size is reported by the matching ScratchSize function and
// depends only on the params.
package conv
