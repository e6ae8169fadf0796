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

// Package validate implements the argument checks every go-nnlib kernel runs
// at its boundary before touching any output.
//
// Kernels report a contract violation (nil buffer, misaligned buffer where
// alignment is mandatory, non-positive dimension, out-of-range quantization
// parameter) as an error wrapping one of the package sentinels. Nothing is
// written to the output when validation fails. Status maps an error to the
// integer status convention used by C kernel libraries: 0 on success and -1
// on any validation failure.
//
// A Checker accumulates the first failure so a kernel can state all of its
// preconditions in one block:
//
//	c := validate.New("MatXVecAsym8s")
//	c.Positive("rows", p.Rows).AtLeast("row_stride", p.RowStride1, p.Cols1)
//	validate.Buffer(c, "mat", mat, need)
//	if err := c.Err(); err != nil {
//		return err
//	}
package validate

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrNilBuffer reports a required buffer that was not provided.
	ErrNilBuffer = errors.New("nil buffer")
	// ErrMisaligned reports a buffer that does not meet a mandatory
	// alignment.
	ErrMisaligned = errors.New("misaligned buffer")
	// ErrOutOfRange reports a scalar parameter outside its valid range.
	ErrOutOfRange = errors.New("parameter out of range")
	// ErrShape reports inconsistent dimensions.
	ErrShape = errors.New("invalid shape")
	// ErrBufferTooSmall reports a buffer shorter than the shape requires.
	ErrBufferTooSmall = errors.New("buffer too small")
)

// StatusFailure is the status returned for any validation failure.
const StatusFailure = -1

// Error is a validation failure of one parameter of one operation.
type Error struct {
	Op    string
	Param string
	Err   error
	// Detail is an optional human-readable description of the violation.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %v (%s)", e.Op, e.Param, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Param, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status converts err to a kernel status code.
func Status(err error) int {
	if err == nil {
		return 0
	}
	return StatusFailure
}

// Checker records the first violation found for an operation.
type Checker struct {
	op  string
	err *Error
}

// New returns a Checker for operation op.
func New(op string) *Checker {
	return &Checker{op: op}
}

// Err returns the first recorded violation, or nil.
func (c *Checker) Err() error {
	if c.err == nil {
		return nil
	}
	return c.err
}

// Failf records a violation unless one was already recorded.
func (c *Checker) Failf(param string, sentinel error, format string, args ...any) *Checker {
	if c.err == nil {
		c.err = &Error{Op: c.op, Param: param, Err: sentinel, Detail: fmt.Sprintf(format, args...)}
	}
	return c
}

// Positive requires v > 0.
func (c *Checker) Positive(name string, v int) *Checker {
	if v <= 0 {
		c.Failf(name, ErrOutOfRange, "got %d, want > 0", v)
	}
	return c
}

// NonNegative requires v >= 0.
func (c *Checker) NonNegative(name string, v int) *Checker {
	if v < 0 {
		c.Failf(name, ErrOutOfRange, "got %d, want >= 0", v)
	}
	return c
}

// AtLeast requires v >= min. It reports ErrShape, since it is used for
// stride versus extent relations.
func (c *Checker) AtLeast(name string, v, min int) *Checker {
	if v < min {
		c.Failf(name, ErrShape, "got %d, want >= %d", v, min)
	}
	return c
}

// Range requires lo <= v <= hi.
func (c *Checker) Range(name string, v, lo, hi int) *Checker {
	if v < lo || v > hi {
		c.Failf(name, ErrOutOfRange, "got %d, want [%d, %d]", v, lo, hi)
	}
	return c
}

// Shift requires a requantization shift in [-31, 31].
func (c *Checker) Shift(name string, v int) *Checker {
	return c.Range(name, v, -31, 31)
}

// Shifts requires every per-channel shift in [-31, 31].
func (c *Checker) Shifts(name string, v []int32) *Checker {
	for i, s := range v {
		if s < -31 || s > 31 {
			return c.Failf(fmt.Sprintf("%s[%d]", name, i), ErrOutOfRange, "got %d, want [-31, 31]", s)
		}
	}
	return c
}

// Multiplier requires a non-negative Q31 multiplier.
func (c *Checker) Multiplier(name string, v int32) *Checker {
	if v < 0 {
		c.Failf(name, ErrOutOfRange, "got %d, want >= 0", v)
	}
	return c
}

// ZeroBias requires lo <= v <= hi.
func (c *Checker) ZeroBias(name string, v int32, lo, hi int32) *Checker {
	return c.Range(name, int(v), int(lo), int(hi))
}

// Check records sentinel for param when cond is false.
func (c *Checker) Check(cond bool, param string, sentinel error, detail string) *Checker {
	if !cond {
		c.Failf(param, sentinel, "%s", detail)
	}
	return c
}

// Buffer requires s to be non-nil and hold at least minLen elements.
func Buffer[T any](c *Checker, name string, s []T, minLen int) *Checker {
	if s == nil {
		return c.Failf(name, ErrNilBuffer, "required")
	}
	if len(s) < minLen {
		c.Failf(name, ErrBufferTooSmall, "len %d, want >= %d", len(s), minLen)
	}
	return c
}

// OptionalBuffer is Buffer for buffers that may be nil. A nil bias means
// "treat bias as zero".
func OptionalBuffer[T any](c *Checker, name string, s []T, minLen int) *Checker {
	if s == nil {
		return c
	}
	return Buffer(c, name, s, minLen)
}

// Aligned requires the first element of s to sit on an n-byte boundary.
// Empty slices are considered aligned.
func Aligned[T any](c *Checker, name string, s []T, n int) *Checker {
	if len(s) == 0 || n <= 1 {
		return c
	}
	if uintptr(unsafe.Pointer(unsafe.SliceData(s)))%uintptr(n) != 0 {
		c.Failf(name, ErrMisaligned, "want %d-byte alignment", n)
	}
	return c
}

// PerChannel requires per-channel multiplier and shift arrays of at least n
// entries, with valid values.
func PerChannel(c *Checker, multipliers []int32, shifts []int32, n int) *Checker {
	Buffer(c, "out_multipliers", multipliers, n)
	Buffer(c, "out_shifts", shifts, n)
	if c.err != nil {
		return c
	}
	for i, m := range multipliers[:n] {
		c.Multiplier(fmt.Sprintf("out_multipliers[%d]", i), m)
	}
	return c.Shifts("out_shifts", shifts[:n])
}
