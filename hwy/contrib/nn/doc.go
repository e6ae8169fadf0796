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

// Package nn provides the layer-level quantized operators built on matvec:
// fully connected layers, elementwise arithmetic and the helpers that turn
// float scales into the fixed-point parameters the kernels take.
//
// # Supported Operations
//
// Fully connected layers:
//   - FullyConnectedAsym8s - asymmetric int8 weights and activations
//   - FullyConnectedSym8sxAsym8s - per-channel symmetric int8 weights
//   - FullyConnectedSym8sxSym16s - int8 weights, int16 activations
//   - FullyConnectedF32 - float32 reference layer
//   - FullyConnectedBatchAsym8s, ParallelFullyConnectedAsym8s - many inputs
//
// Elementwise operations (TFLite integer semantics):
//   - AddAsym8s, MulAsym8s
//   - AddBroadcast4DAsym8s, MulBroadcast4DAsym8s
//
// Quantization helpers:
//   - QuantizeAffine - per-tensor asymmetric float32 to int8
//   - QuantizeSymmetricPerChannel - per-channel symmetric weights
//   - OutputMultipliers - effective scales to (multiplier, shift) pairs
//   - DequantizeInt32ToFloat32 - accumulators back to float32
//
// # Example Usage
//
//	import "github.com/ajroetker/go-nnlib/hwy/contrib/nn"
//
//	func Dense(x []float32, w []float32, in, out int) []int8 {
//	    qx := make([]int8, in)
//	    xScale, xZero := nn.QuantizeAffine(x, qx, in)
//	    qw := make([]int8, in*out)
//	    wScales := make([]float32, out)
//	    nn.QuantizeSymmetricPerChannel(w, qw, out, wScales)
//	    mults, shifts := make([]int32, out), make([]int32, out)
//	    nn.OutputMultipliers(xScale, wScales, 0.05, mults, shifts)
//	    y := make([]int8, out)
//	    _ = nn.FullyConnectedSym8sxAsym8s(y, qw, qx, nil, nn.FCParams{
//	        InputDepth: in, OutDepth: out,
//	        InputZeroBias: -int32(xZero),
//	        OutMultipliers: mults, OutShifts: shifts,
//	    })
//	    return y
//	}
package nn
