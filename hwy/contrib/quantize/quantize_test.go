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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDequantizeInt8(t *testing.T) {
	tests := []struct {
		name      string
		input     []int8
		scale     float32
		zeroPoint int32
		want      []float32
	}{
		{
			name:  "empty",
			input: []int8{},
			scale: 1,
			want:  []float32{},
		},
		{
			name:  "identity scale",
			input: []int8{-128, -1, 0, 1, 127},
			scale: 1,
			want:  []float32{-128, -1, 0, 1, 127},
		},
		{
			name:      "asymmetric",
			input:     []int8{-128, 0, 127},
			scale:     0.5,
			zeroPoint: -128,
			want:      []float32{0, 64, 127.5},
		},
		{
			name: "non-aligned length 19",
			input: func() []int8 {
				s := make([]int8, 19)
				for i := range s {
					s[i] = int8(i*13 - 120)
				}
				return s
			}(),
			scale:     0.25,
			zeroPoint: 3,
			want: func() []float32 {
				s := make([]float32, 19)
				for i := range s {
					s[i] = float32(i*13-120-3) * 0.25
				}
				return s
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]float32, len(tt.input))
			DequantizeInt8(tt.input, got, tt.scale, tt.zeroPoint)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDequantizeInt16(t *testing.T) {
	input := []int16{-32768, -3, 0, 5, 32767}
	got := make([]float32, len(input))
	DequantizeInt16(input, got, 0.125, 0)
	require.Equal(t, []float32{-4096, -0.375, 0, 0.625, 4095.875}, got)
}

func TestQuantizeFloat32ToInt8(t *testing.T) {
	tests := []struct {
		name      string
		input     []float32
		scale     float32
		zeroPoint int32
		want      []int8
	}{
		{
			name:  "half away from zero",
			input: []float32{0.5, -0.5, 1.5, -1.5, 2.49, -2.51},
			scale: 1,
			want:  []int8{1, -1, 2, -2, 2, -3},
		},
		{
			name:      "zero point",
			input:     []float32{0, 1, -1},
			scale:     0.25,
			zeroPoint: 10,
			want:      []int8{10, 14, 6},
		},
		{
			name:  "saturate",
			input: []float32{1000, -1000, float32(math.Inf(1)), float32(math.Inf(-1))},
			scale: 1,
			want:  []int8{127, -128, 127, -128},
		},
		{
			name:      "nan",
			input:     []float32{float32(math.NaN())},
			scale:     1,
			zeroPoint: -7,
			want:      []int8{-7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]int8, len(tt.input))
			QuantizeFloat32ToInt8(tt.input, got, tt.scale, tt.zeroPoint)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestQuantizeFloat32ToInt16(t *testing.T) {
	got := make([]int16, 4)
	QuantizeFloat32ToInt16([]float32{1, -1, 1e9, 0.3}, got, 1.0/1024, 0)
	require.Equal(t, []int16{1024, -1024, 32767, 307}, got)
}

func TestRoundTrip(t *testing.T) {
	input := make([]int8, 256)
	for i := range input {
		input[i] = int8(i - 128)
	}
	floats := make([]float32, len(input))
	DequantizeInt8(input, floats, 0.1, 5)
	back := make([]int8, len(input))
	QuantizeFloat32ToInt8(floats, back, 0.1, 5)
	require.Equal(t, input, back)
}

func BenchmarkDequantizeInt8(b *testing.B) {
	input := make([]int8, 4096)
	output := make([]float32, len(input))
	for b.Loop() {
		DequantizeInt8(input, output, 0.02, -3)
	}
}
