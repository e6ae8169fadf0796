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

package hwy

import "unsafe"

// This file provides the pure Go lane operations the kernels build their
// grouped loop bodies from. A Vec is a fixed-capacity array sized to the
// widest supported vector so loop bodies never allocate; only the first
// NumLanes lanes are live.

// MaxLanes is the largest lane count any dispatch level produces
// (512-bit vectors of 32-bit lanes).
const MaxLanes = 16

// Integers are the element types kernels load and widen.
type Integers interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// Floats are the floating-point lane types.
type Floats interface {
	~float32 | ~float64
}

// Accumulators are the wide integer types quantized kernels accumulate in.
type Accumulators interface {
	~int32 | ~int64
}

// Lanes are the accumulator lane types a Vec can hold.
type Lanes interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// Vec is a vector of NumLanes[T]() lanes.
type Vec[T Lanes] struct {
	data [MaxLanes]T
	n    int
}

// NumLanes returns how many T lanes fit in one vector at the current level.
func NumLanes[T Lanes]() int {
	var zero T
	n := currentWidth / int(unsafe.Sizeof(zero))
	if n > MaxLanes {
		n = MaxLanes
	}
	if n < 1 {
		n = 1
	}
	return n
}

// NumLanes returns the number of live lanes in v.
func (v Vec[T]) NumLanes() int { return v.n }

// Get returns lane i.
func (v Vec[T]) Get(i int) T { return v.data[i] }

// Load creates a vector from the first NumLanes elements of src.
func Load[T Lanes](src []T) Vec[T] {
	n := min(NumLanes[T](), len(src))
	var v Vec[T]
	v.n = n
	copy(v.data[:n], src[:n])
	return v
}

// LoadWiden loads NumLanes narrow integers from src, converts them to T and
// adds offset to every lane. This is the zero-bias corrected operand load
// of the quantized kernels.
func LoadWiden[T Lanes, S Integers](src []S, offset T) Vec[T] {
	n := min(NumLanes[T](), len(src))
	var v Vec[T]
	v.n = n
	src = src[:n]
	for i, s := range src {
		v.data[i] = T(s) + offset
	}
	return v
}

// Store writes v's live lanes to dst.
func Store[T Lanes](v Vec[T], dst []T) {
	n := min(v.n, len(dst))
	copy(dst[:n], v.data[:n])
}

// Set creates a vector with all lanes set to value.
func Set[T Lanes](value T) Vec[T] {
	v := Vec[T]{n: NumLanes[T]()}
	for i := range v.n {
		v.data[i] = value
	}
	return v
}

// Zero creates a vector with all lanes zero.
func Zero[T Lanes]() Vec[T] {
	return Vec[T]{n: NumLanes[T]()}
}

// Add performs element-wise addition.
func Add[T Lanes](a, b Vec[T]) Vec[T] {
	n := min(a.n, b.n)
	r := Vec[T]{n: n}
	for i := range n {
		r.data[i] = a.data[i] + b.data[i]
	}
	return r
}

// Mul performs element-wise multiplication.
func Mul[T Lanes](a, b Vec[T]) Vec[T] {
	n := min(a.n, b.n)
	r := Vec[T]{n: n}
	for i := range n {
		r.data[i] = a.data[i] * b.data[i]
	}
	return r
}

// MulAdd computes a*b + c per lane. Integer lanes wrap on overflow exactly
// like the scalar expression, so a grouped reduction built from MulAdd gives
// the same bits as a sequential one.
func MulAdd[T Lanes](a, b, c Vec[T]) Vec[T] {
	n := min(a.n, b.n, c.n)
	r := Vec[T]{n: n}
	for i := range n {
		r.data[i] = a.data[i]*b.data[i] + c.data[i]
	}
	return r
}

// ReduceSum sums all live lanes.
func ReduceSum[T Lanes](v Vec[T]) T {
	var sum T
	for i := range v.n {
		sum += v.data[i]
	}
	return sum
}
