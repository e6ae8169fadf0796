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

package matvec

import (
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// Operand is the set of matrix and vector element types.
type Operand interface {
	~int8 | ~uint8 | ~int16
}

// Params describes one row-by-vector call.
type Params struct {
	Rows int

	// Cols1 is the logical row length of the first matrix; RowStride1 is
	// the physical distance between rows and may exceed Cols1.
	Cols1      int
	RowStride1 int
	// Cols2 and RowStride2 describe the optional second matrix.
	Cols2      int
	RowStride2 int

	// Zero biases are added to every element of the corresponding operand
	// (they are the negated zero points).
	MatZeroBias1 int32
	MatZeroBias2 int32
	VecZeroBias1 int32
	VecZeroBias2 int32

	// OutMultiplier and OutShift are the per-tensor scale. When
	// OutMultipliers is set, OutMultipliers[r] and OutShifts[r] are used
	// for row r instead.
	OutMultiplier  int32
	OutShift       int
	OutMultipliers []int32
	OutShifts      []int32
	OutZeroBias    int32

	// OutStride is the distance between the outputs of consecutive rows.
	// Zero means 1.
	OutStride int

	Rounding fixedpoint.RoundingPolicy
}

// MatMulParams describes one matrix against VecCount vectors. Vector v
// starts at element v*VecOffset and the output of (row r, vector v) is
// written at v*OutOffset + r*OutStride.
type MatMulParams struct {
	Params

	VecCount  int
	VecOffset int
	OutOffset int
}

func (p *Params) outStride() int {
	if p.OutStride == 0 {
		return 1
	}
	return p.OutStride
}

func (p *Params) requantizer() fixedpoint.Requantizer {
	return fixedpoint.Requantizer{
		Multiplier:  p.OutMultiplier,
		Shift:       p.OutShift,
		Multipliers: p.OutMultipliers,
		Shifts:      p.OutShifts,
		ZeroBias:    p.OutZeroBias,
		Policy:      p.Rounding,
	}
}

// zeroBiasRange returns the valid zero-bias range of an operand of type T:
// the negation of its value range.
func zeroBiasRange[T Operand]() (int32, int32) {
	lo, hi := fixedpoint.Bounds[T]()
	return int32(-hi), int32(-lo)
}

func outZeroBiasRange[O fixedpoint.Narrow]() (int32, int32) {
	lo, hi := fixedpoint.Bounds[O]()
	return int32(lo), int32(hi)
}

func (p *Params) checkShape(c *validate.Checker) {
	c.Positive("rows", p.Rows).Positive("cols1", p.Cols1).AtLeast("row_stride1", p.RowStride1, p.Cols1)
	c.NonNegative("out_stride", p.OutStride)
}

func (p *Params) checkSecond(c *validate.Checker) {
	c.Positive("cols2", p.Cols2).AtLeast("row_stride2", p.RowStride2, p.Cols2)
}

func (p *Params) checkScale(c *validate.Checker, perChannel bool) {
	if perChannel || p.OutMultipliers != nil {
		validate.PerChannel(c, p.OutMultipliers, p.OutShifts, p.Rows)
		return
	}
	c.Multiplier("out_multiplier", p.OutMultiplier).Shift("out_shift", p.OutShift)
}

func (p *MatMulParams) checkBatch(c *validate.Checker) {
	c.Positive("vec_count", p.VecCount)
	if p.VecCount > 1 {
		c.AtLeast("vec_offset", p.VecOffset, p.Cols1).Positive("out_offset", p.OutOffset)
	}
}

// matLen is the minimum length of a matrix with the given shape.
func matLen(rows, cols, stride int) int {
	if rows <= 0 || cols <= 0 {
		return 0
	}
	return (rows-1)*stride + cols
}

// outLen is the minimum output length for p.
func (p *MatMulParams) outLen() int {
	return (p.VecCount-1)*p.OutOffset + (p.Rows-1)*p.outStride() + 1
}

// asMatMul views a single-vector call as a MatMul with one vector.
func (p *Params) asMatMul() *MatMulParams {
	return &MatMulParams{Params: *p, VecCount: 1, VecOffset: p.Cols1, OutOffset: 1}
}

// checkQuantized validates a quantized call with operand types M and V
// and output type O. asymMat and asymVec select whether the zero biases
// of the matrix and vector are meaningful.
func checkQuantized[M, V Operand, O fixedpoint.Narrow](c *validate.Checker, p *MatMulParams, asymMat, asymVec, perChannel bool) {
	p.checkShape(c)
	p.checkBatch(c)
	p.checkScale(c, perChannel)
	if asymMat {
		lo, hi := zeroBiasRange[M]()
		c.ZeroBias("mat1_zero_bias", p.MatZeroBias1, lo, hi)
		if p.Cols2 > 0 {
			c.ZeroBias("mat2_zero_bias", p.MatZeroBias2, lo, hi)
		}
	}
	if asymVec {
		lo, hi := zeroBiasRange[V]()
		c.ZeroBias("vec1_zero_bias", p.VecZeroBias1, lo, hi)
		if p.Cols2 > 0 {
			c.ZeroBias("vec2_zero_bias", p.VecZeroBias2, lo, hi)
		}
	}
	lo, hi := outZeroBiasRange[O]()
	c.ZeroBias("out_zero_bias", p.OutZeroBias, lo, hi)
}
