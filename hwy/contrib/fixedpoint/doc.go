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

// Package fixedpoint implements the TensorFlow Lite compatible requantization
// arithmetic every quantized kernel in go-nnlib ends with.
//
// A real-valued scale is represented as a Q31 multiplier and a power-of-two
// shift, scale ≈ multiplier * 2^(shift-31). Applying it to a wide integer
// accumulator and saturating to the output width must match the TFLite
// reference kernels bit for bit, so the package carries both rounding
// conventions TFLite has shipped:
//
//   - DoubleRounding (legacy): the shift is split into a saturating
//     pre-multiply left shift and a post-multiply rounding right shift,
//     with a rounding doubling high multiply in between. Two roundings,
//     both half away from zero.
//   - SingleRounding: one 64-bit product and a single rounding at the
//     final right shift (half toward +inf, as TFLite does it).
//
// The two policies can differ by 1 LSB for the same inputs. Which one is
// correct depends on the TFLite version a model was validated against, so
// neither is privileged: the build default is SingleRounding, the
// tflite_double_rounding build tag switches it to DoubleRounding, and the
// HWY_ROUNDING environment variable ("single" or "double") overrides both
// at init. Every kernel also takes an explicit RoundingPolicy whose zero
// value, RoundingDefault, resolves to that configured default.
//
// # Core Functions
//
//   - MultiplyByQuantizedMultiplier(x, multiplier, shift, policy) int32
//   - MultiplyByQuantizedMultiplier64(x, multiplier, shift) int32
//   - Requantize / Requantize64: multiply, add output zero bias, saturate
//   - QuantizeMultiplier(scale) (multiplier, shift)
//
// # Example Usage
//
//	mult, shift := fixedpoint.QuantizeMultiplier(inScale * wScale / outScale)
//	q := fixedpoint.Requantize[int8](acc, mult, shift, outZeroPoint, fixedpoint.RoundingDefault)
package fixedpoint
