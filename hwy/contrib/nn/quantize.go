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

package nn

import (
	"math"

	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
)

// QuantizeAffine performs per-tensor affine quantization from float32 to int8.
//
// The mapping is:
//
//	float_val ≈ scale * (int8_val - zp)
//
// The range always includes 0 so that 0.0 is exactly representable.
// Returns:
//   - scale: the quantization scale factor
//   - zp: the int8 zero point; the kernels take -zp as their zero bias
//
// The output slice must be pre-allocated with at least size elements.
func QuantizeAffine(input []float32, output []int8, size int) (scale float32, zp int8) {
	if size == 0 {
		return 0, 0
	}

	minVal, maxVal := float32(0), float32(0)
	for _, v := range input[:size] {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}

	// All zeros.
	if minVal == maxVal {
		clear(output[:size])
		return 1, 0
	}

	scale = (maxVal - minVal) / 255.0
	zpFloat := math.Round(float64(-128 - minVal/scale))
	zp = int8(min(max(zpFloat, -128), 127))

	invScale := 1.0 / scale
	for i, v := range input[:size] {
		q := math.Round(float64(v*invScale)) + float64(zp)
		output[i] = int8(min(max(q, -128), 127))
	}
	return scale, zp
}

// QuantizeSymmetricPerChannel quantizes a [channels][n] weight matrix to
// int8 with one symmetric scale per channel (row), so that
// weight ≈ scales[c] * q. All-zero rows get scale 1.
func QuantizeSymmetricPerChannel(input []float32, output []int8, channels int, scales []float32) {
	if channels <= 0 {
		return
	}
	n := len(input) / channels
	for c := range channels {
		row := input[c*n : (c+1)*n]
		var maxAbs float32
		for _, v := range row {
			maxAbs = max(maxAbs, float32(math.Abs(float64(v))))
		}
		scale := maxAbs / 127
		if scale == 0 {
			scale = 1
		}
		scales[c] = scale
		dst := output[c*n : (c+1)*n]
		for i, v := range row {
			q := math.Round(float64(v / scale))
			dst[i] = int8(min(max(q, -127), 127))
		}
	}
}

// OutputMultipliers converts the effective per-channel output scales
// inputScale*weightScales[c]/outputScale into the (multiplier, shift)
// pairs the per-channel kernels take.
func OutputMultipliers(inputScale float32, weightScales []float32, outputScale float32, multipliers, shifts []int32) {
	for c, ws := range weightScales {
		m, s := fixedpoint.QuantizeMultiplier(float64(inputScale) * float64(ws) / float64(outputScale))
		multipliers[c] = m
		shifts[c] = int32(s)
	}
}

// DequantizeInt32ToFloat32 converts int32 accumulator values to float32
// using a combined scale factor.
//
//	output[i] = combinedScale * float32(input[i])
//
// The combinedScale is typically the product of the input and weight
// scales of the layer that produced the accumulators.
func DequantizeInt32ToFloat32(input []int32, output []float32, size int, combinedScale float32) {
	for i := range size {
		output[i] = combinedScale * float32(input[i])
	}
}
