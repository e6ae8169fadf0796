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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
)

func TestQuantizeAffineRoundTrip(t *testing.T) {
	input := []float32{-1.0, -0.5, 0.0, 0.5, 1.0, 1.5, 2.0}
	size := len(input)

	quantized := make([]int8, size)
	scale, zp := QuantizeAffine(input, quantized, size)

	// Dequantize and check error.
	maxErr := float32(0)
	rangeVal := float32(3.0) // max - min = 2.0 - (-1.0) = 3.0
	for i := range size {
		dequant := scale * (float32(quantized[i]) - float32(zp))
		err := float32(math.Abs(float64(dequant - input[i])))
		if err > maxErr {
			maxErr = err
		}
	}

	// Quantization error should be at most scale/2 ≈ range/510.
	tolerance := rangeVal / 255.0
	if maxErr > tolerance {
		t.Errorf("Round-trip max error %v exceeds tolerance %v (scale=%v, zp=%d)", maxErr, tolerance, scale, zp)
	}
}

func TestQuantizeAffineZeroMapsToZP(t *testing.T) {
	input := []float32{-1.0, 0.0, 1.0}
	quantized := make([]int8, 3)
	_, zp := QuantizeAffine(input, quantized, 3)
	require.Equal(t, zp, quantized[1])
}

func TestQuantizeAffinePositiveInput(t *testing.T) {
	// The range is widened to include 0, so the zero point is the minimum.
	input := []float32{5.0, 5.0, 10.0}
	quantized := make([]int8, 3)
	scale, zp := QuantizeAffine(input, quantized, 3)
	require.Equal(t, int8(-128), zp)
	require.InDelta(t, 10.0/255, scale, 1e-6)
	require.Equal(t, int8(127), quantized[2])
	require.Equal(t, quantized[0], quantized[1])
}

func TestQuantizeAffineAllZero(t *testing.T) {
	quantized := []int8{3, 3}
	scale, zp := QuantizeAffine([]float32{0, 0}, quantized, 2)
	require.Equal(t, float32(1), scale)
	require.Zero(t, zp)
	require.Equal(t, []int8{0, 0}, quantized)
}

func TestQuantizeAffineEmpty(t *testing.T) {
	scale, zp := QuantizeAffine(nil, nil, 0)
	if scale != 0 || zp != 0 {
		t.Errorf("Empty input should return 0,0; got scale=%v zp=%d", scale, zp)
	}
}

func TestQuantizeAffineFullRange(t *testing.T) {
	input := []float32{-100.0, -50.0, 0.0, 50.0, 100.0}
	quantized := make([]int8, 5)
	scale, _ := QuantizeAffine(input, quantized, 5)

	// -100 should map close to -128, +100 close to 127.
	if quantized[0] > -127 {
		t.Errorf("Min value should map to ~-128, got %d", quantized[0])
	}
	if quantized[4] < 126 {
		t.Errorf("Max value should map to ~127, got %d", quantized[4])
	}
	if scale <= 0 {
		t.Errorf("Scale should be positive, got %v", scale)
	}
}

func TestQuantizeSymmetricPerChannel(t *testing.T) {
	input := []float32{
		1, -0.75, 0.25,
		0, 0, 0,
		-4, 3, 1,
	}
	out := make([]int8, 9)
	scales := make([]float32, 3)
	QuantizeSymmetricPerChannel(input, out, 3, scales)

	require.InDeltaSlice(t, []float32{1.0 / 127, 1, 4.0 / 127}, scales, 1e-7)
	require.Equal(t, []int8{127, -95, 32, 0, 0, 0, -127, 95, 32}, out)
}

func TestOutputMultipliers(t *testing.T) {
	mults := make([]int32, 2)
	shifts := make([]int32, 2)
	OutputMultipliers(0.5, []float32{0.25, 3}, 0.125, mults, shifts)

	// 0.5*0.25/0.125 = 1 and 0.5*3/0.125 = 12.
	for c, want := range []float64{1, 12} {
		got := float64(mults[c]) * math.Pow(2, float64(shifts[c])-31)
		require.InDelta(t, want, got, want*1e-9)
		require.Equal(t, int32(want), fixedpoint.MultiplyByQuantizedMultiplier(1, mults[c], int(shifts[c]), fixedpoint.SingleRounding))
	}
}

func TestDequantizeInt32ToFloat32(t *testing.T) {
	input := []int32{-100, 0, 50, 200}
	output := make([]float32, 4)
	combinedScale := float32(0.01)

	DequantizeInt32ToFloat32(input, output, 4, combinedScale)

	expected := []float32{-1.0, 0.0, 0.5, 2.0}
	for i := range output {
		if math.Abs(float64(output[i]-expected[i])) > 1e-6 {
			t.Errorf("output[%d]: got %v, want %v", i, output[i], expected[i])
		}
	}
}
