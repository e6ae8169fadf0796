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

// Package quantize converts whole tensors between float32 and the
// symmetric or asymmetric integer formats the kernels consume.
//
// # Core Functions
//
//   - DequantizeInt8(input []int8, output []float32, scale float32, zeroPoint int32)
//   - QuantizeFloat32ToInt8(input []float32, output []int8, scale float32, zeroPoint int32)
//   - DequantizeInt16, QuantizeFloat32ToInt16 for 16-bit activations
//
// # Dequantization
//
//	output[i] = scale * float32(input[i] - zeroPoint)
//
// # Quantization
//
//	output[i] = saturate(round(input[i] / scale) + zeroPoint)
//
// Rounding is half away from zero. NaN inputs map to the zero point.
//
// # Example Usage
//
//	import "github.com/ajroetker/go-nnlib/hwy/contrib/quantize"
//
//	raw := []int8{-128, 0, 127}
//	floats := make([]float32, len(raw))
//	quantize.DequantizeInt8(raw, floats, 0.5, -128)
//
//	packed := make([]int8, len(floats))
//	quantize.QuantizeFloat32ToInt8(floats, packed, 0.5, -128)
package quantize
