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

package quantize

import (
	"math"

	"github.com/ajroetker/go-nnlib/hwy"
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
)

// DequantizeInt8 converts int8 values to float32.
//
//	output[i] = scale * float32(input[i] - zeroPoint)
func DequantizeInt8(input []int8, output []float32, scale float32, zeroPoint int32) {
	dequantize(input, output, scale, zeroPoint)
}

// DequantizeInt16 is DequantizeInt8 for int16 values.
func DequantizeInt16(input []int16, output []float32, scale float32, zeroPoint int32) {
	dequantize(input, output, scale, zeroPoint)
}

// QuantizeFloat32ToInt8 converts float32 values to int8, rounding half away
// from zero and saturating.
//
//	output[i] = saturate(round(input[i] / scale) + zeroPoint)
func QuantizeFloat32ToInt8(input []float32, output []int8, scale float32, zeroPoint int32) {
	quantize(input, output, scale, zeroPoint)
}

// QuantizeFloat32ToInt16 is QuantizeFloat32ToInt8 for int16 values.
func QuantizeFloat32ToInt16(input []float32, output []int16, scale float32, zeroPoint int32) {
	quantize(input, output, scale, zeroPoint)
}

func dequantize[T ~int8 | ~int16](input []T, output []float32, scale float32, zeroPoint int32) {
	n := min(len(input), len(output))
	if n == 0 {
		return
	}

	lanes := hwy.NumLanes[float32]()
	offset := -float32(zeroPoint)
	scaleVec := hwy.Set(scale)

	i := 0
	for ; i+lanes <= n; i += lanes {
		v := hwy.LoadWiden(input[i:i+lanes], offset)
		hwy.Store(hwy.Mul(v, scaleVec), output[i:])
	}

	for ; i < n; i++ {
		output[i] = (float32(input[i]) + offset) * scale
	}
}

func quantize[T ~int8 | ~int16](input []float32, output []T, scale float32, zeroPoint int32) {
	n := min(len(input), len(output))
	for i, v := range input[:n] {
		q := float64(v / scale)
		if math.IsNaN(q) {
			output[i] = fixedpoint.Saturate[T](int64(zeroPoint))
			continue
		}
		q = min(max(math.Round(q), math.MinInt32), math.MaxInt32)
		output[i] = fixedpoint.Saturate[T](int64(q) + int64(zeroPoint))
	}
}
