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

package fixedpoint

import (
	"math"
	"unsafe"
)

// Narrow is the set of output element types a wide accumulator can be
// saturated to.
type Narrow interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32
}

// SaturatingRoundingDoublingHighMul returns the high 32 bits of 2*a*b,
// rounded half away from zero. The only overflowing case, a == b ==
// MinInt32, saturates to MaxInt32.
func SaturatingRoundingDoublingHighMul(a, b int32) int32 {
	if a == b && a == math.MinInt32 {
		return math.MaxInt32
	}
	ab := int64(a) * int64(b)
	nudge := int64(1 << 30)
	if ab < 0 {
		nudge = 1 - (1 << 30)
	}
	// Go integer division truncates toward zero, which with the nudge above
	// gives round half away from zero.
	return int32((ab + nudge) / (1 << 31))
}

// RoundingDivideByPOT returns x / 2^exponent rounded half away from zero.
// exponent must lie in [0, 31].
func RoundingDivideByPOT(x int32, exponent int) int32 {
	if exponent <= 0 {
		return x
	}
	mask := int64(1)<<exponent - 1
	remainder := int64(x) & mask
	threshold := mask >> 1
	if x < 0 {
		threshold++
	}
	r := int64(x) >> exponent
	if remainder > threshold {
		r++
	}
	return int32(r)
}

// SaturatingLeftShift returns x * 2^s saturated to int32. s must lie in
// [0, 31].
func SaturatingLeftShift(x int32, s int) int32 {
	if s <= 0 {
		return x
	}
	return int32(clamp64(int64(x)<<s, math.MinInt32, math.MaxInt32))
}

// MultiplyByQuantizedMultiplier scales a 32-bit accumulator by
// multiplier * 2^(shift-31) under the given rounding policy. shift is
// expected in [-31, 31]; values outside that range are clamped.
func MultiplyByQuantizedMultiplier(x, multiplier int32, shift int, policy RoundingPolicy) int32 {
	shift = clampShift(shift)
	if policy.Resolve() == DoubleRounding {
		left, right := 0, 0
		if shift > 0 {
			left = shift
		} else {
			right = -shift
		}
		return RoundingDivideByPOT(SaturatingRoundingDoublingHighMul(SaturatingLeftShift(x, left), multiplier), right)
	}

	// |x*m| < 2^62 and the rounding term is at most 2^61, so the sum never
	// leaves int64.
	total := 31 - shift
	p := int64(x) * int64(multiplier)
	if total > 0 {
		p = (p + int64(1)<<(total-1)) >> total
	}
	return int32(clamp64(p, math.MinInt32, math.MaxInt32))
}

// MultiplyByQuantizedMultiplier64 is the 64-bit accumulator variant used by
// kernels with 16-bit activations. The accumulator is treated as a 48-bit
// value (wider inputs are saturated), the multiplier is reduced to Q15 and a
// single rounding is applied. Both rounding policies share this path, as in
// TFLite.
func MultiplyByQuantizedMultiplier64(x int64, multiplier int32, shift int) int32 {
	const acc48 = int64(1) << 47
	x = clamp64(x, -acc48, acc48-1)
	shift = clampShift(shift)

	var reduced int64
	if multiplier < 0x7FFF0000 {
		reduced = (int64(multiplier) + 1<<15) >> 16
	} else {
		reduced = 0x7FFF
	}

	total := 15 - shift
	p := x * reduced
	switch {
	case total > 0:
		p = (p + int64(1)<<(total-1)) >> total
	case total < 0:
		s := -total
		if p > math.MaxInt32>>s {
			return math.MaxInt32
		}
		if p < math.MinInt32>>s {
			return math.MinInt32
		}
		p <<= s
	}
	return int32(clamp64(p, math.MinInt32, math.MaxInt32))
}

// Bounds returns the representable range of O.
func Bounds[O Narrow]() (lo, hi int64) {
	var zero, one O = 0, 1
	bits := int64(unsafe.Sizeof(zero)) * 8
	if zero-one < zero {
		return -(1 << (bits - 1)), 1<<(bits-1) - 1
	}
	return 0, 1<<bits - 1
}

// Saturate clamps v to the range of O.
func Saturate[O Narrow](v int64) O {
	lo, hi := Bounds[O]()
	return O(clamp64(v, lo, hi))
}

// Requantize rescales a 32-bit accumulator, adds the output zero bias and
// saturates to O.
func Requantize[O Narrow](acc, multiplier int32, shift int, zeroBias int32, policy RoundingPolicy) O {
	return Saturate[O](int64(MultiplyByQuantizedMultiplier(acc, multiplier, shift, policy)) + int64(zeroBias))
}

// Requantize64 is Requantize for 64-bit accumulators.
func Requantize64[O Narrow](acc int64, multiplier int32, shift int, zeroBias int32) O {
	return Saturate[O](int64(MultiplyByQuantizedMultiplier64(acc, multiplier, shift)) + int64(zeroBias))
}

// ShiftRound64 applies a Q-format accumulator shift: a positive shift is a
// saturating left shift, a negative shift is a right shift rounding half
// toward +inf.
func ShiftRound64(acc int64, shift int) int64 {
	switch {
	case shift > 0:
		if shift >= 63 {
			shift = 63
		}
		if acc > math.MaxInt64>>shift {
			return math.MaxInt64
		}
		if acc < math.MinInt64>>shift {
			return math.MinInt64
		}
		return acc << shift
	case shift < 0:
		s := -shift
		if s > 63 {
			s = 63
		}
		half := int64(1) << (s - 1)
		if acc > math.MaxInt64-half {
			return math.MaxInt64 >> s
		}
		return (acc + half) >> s
	default:
		return acc
	}
}

// QuantizeMultiplier decomposes a positive real scale into a Q31 multiplier
// and a power-of-two shift such that scale ≈ multiplier * 2^(shift-31).
// Scales too small to represent yield (0, 0).
func QuantizeMultiplier(scale float64) (int32, int) {
	if scale == 0 {
		return 0, 0
	}
	q, shift := math.Frexp(scale)
	fixed := int64(math.Round(q * (1 << 31)))
	if fixed == 1<<31 {
		fixed /= 2
		shift++
	}
	if shift < -31 {
		return 0, 0
	}
	if shift > 30 {
		return math.MaxInt32, 30
	}
	return int32(fixed), shift
}

// Scale is one (multiplier, shift) pair.
type Scale struct {
	Multiplier int32
	Shift      int
}

// Requantizer holds the output stage of a quantized kernel: either one
// Scale for the whole tensor or one per output channel, plus the output
// zero bias and the rounding policy.
type Requantizer struct {
	Multiplier  int32
	Shift       int
	Multipliers []int32
	Shifts      []int32
	ZeroBias    int32
	Policy      RoundingPolicy
}

// At returns the scale for output channel ch.
func (r *Requantizer) At(ch int) Scale {
	if r.Multipliers != nil {
		return Scale{Multiplier: r.Multipliers[ch], Shift: int(r.Shifts[ch])}
	}
	return Scale{Multiplier: r.Multiplier, Shift: r.Shift}
}

// Apply requantizes a 32-bit accumulator for channel ch.
func Apply[O Narrow](r *Requantizer, acc int32, ch int) O {
	s := r.At(ch)
	return Requantize[O](acc, s.Multiplier, s.Shift, r.ZeroBias, r.Policy)
}

// Apply64 requantizes a 64-bit accumulator for channel ch.
func Apply64[O Narrow](r *Requantizer, acc int64, ch int) O {
	s := r.At(ch)
	return Requantize64[O](acc, s.Multiplier, s.Shift, r.ZeroBias)
}

// Wide is the set of accumulator types.
type Wide interface {
	~int32 | ~int64
}

// ApplyAcc requantizes a 32- or 64-bit accumulator for channel ch, taking
// the policy-dependent path for 32-bit accumulators and the 48-bit path
// for 64-bit ones.
func ApplyAcc[A Wide, O Narrow](r *Requantizer, acc A, ch int) O {
	if unsafe.Sizeof(acc) == 4 {
		return Apply[O](r, int32(acc), ch)
	}
	return Apply64[O](r, int64(acc), ch)
}

func clampShift(s int) int {
	if s < -31 {
		return -31
	}
	if s > 31 {
		return 31
	}
	return s
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
