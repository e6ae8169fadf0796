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
	"unsafe"

	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// FixedBias is the set of bias types of the Q-format kernels.
type FixedBias interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// FixedOut is the set of output types of the Q-format kernels.
type FixedOut interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// FixedParams describes a legacy Q-format call. The output is
//
//	sat(shift(Σ mat1·vec1 + Σ mat2·vec2 + shift(bias, BiasShift), AccShift))
//
// where a positive shift is a saturating left shift and a negative one a
// rounding right shift. Accumulation is 64-bit.
type FixedParams struct {
	Rows       int
	Cols1      int
	RowStride1 int
	Cols2      int
	RowStride2 int
	AccShift   int
	BiasShift  int
	// OutStride is the distance between consecutive outputs. Zero means 1.
	OutStride int
}

func saturateFixed[O FixedOut](v int64) O {
	var o O
	if unsafe.Sizeof(o) == 8 {
		return O(v)
	}
	bits := int64(unsafe.Sizeof(o)) * 8
	lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
	return O(min(max(v, lo), hi))
}

// MatXVecFixed is the generic Q-format kernel behind the MatXVec8x8_*,
// MatXVec16x16_* and MatXVec8x16_* wrappers. mat2, vec2 and bias may be nil.
func MatXVecFixed[M, V Operand, B FixedBias, O FixedOut](out []O, mat1, mat2 []M, vec1, vec2 []V, bias []B, p FixedParams) error {
	c := validate.New("MatXVecFixed")
	c.Positive("rows", p.Rows).Positive("cols1", p.Cols1).AtLeast("row_stride1", p.RowStride1, p.Cols1)
	c.Shift("acc_shift", p.AccShift).Shift("bias_shift", p.BiasShift).NonNegative("out_stride", p.OutStride)
	if mat2 != nil {
		c.Positive("cols2", p.Cols2).AtLeast("row_stride2", p.RowStride2, p.Cols2)
		validate.Buffer(c, "mat2", mat2, matLen(p.Rows, p.Cols2, p.RowStride2))
		validate.Buffer(c, "vec2", vec2, p.Cols2)
	}
	outStride := max(p.OutStride, 1)
	validate.Buffer(c, "out", out, (p.Rows-1)*outStride+1)
	validate.Buffer(c, "mat1", mat1, matLen(p.Rows, p.Cols1, p.RowStride1))
	validate.Buffer(c, "vec1", vec1, p.Cols1)
	validate.OptionalBuffer(c, "bias", bias, p.Rows)
	if err := c.Err(); err != nil {
		return err
	}

	j := job[M, V, int64]{
		rows:      p.Rows,
		vecCount:  1,
		vecOffset: p.Cols1,
		op1:       newOperand[M, V, int64](mat1, p.RowStride1, p.Cols1, vec1, p.Cols1, 0, 0),
		vecs1:     vec1,
	}
	if mat2 != nil {
		op2 := newOperand[M, V, int64](mat2, p.RowStride2, p.Cols2, vec2, p.Cols2, 0, 0)
		j.op2 = &op2
		j.vec2 = vec2[:p.Cols2]
	}
	j.run(func(r, _ int, acc int64) {
		if bias != nil {
			acc += fixedpoint.ShiftRound64(int64(bias[r]), p.BiasShift)
		}
		out[r*outStride] = saturateFixed[O](fixedpoint.ShiftRound64(acc, p.AccShift))
	})
	return nil
}

// MatXVec8x8_8 is MatXVecFixed for int8 operands, int8 bias and int8 output.
func MatXVec8x8_8(out, mat1, mat2, vec1, vec2, bias []int8, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}

// MatXVec8x8_16 is MatXVecFixed for int8 operands with int16 bias and output.
func MatXVec8x8_16(out []int16, mat1, mat2, vec1, vec2 []int8, bias []int16, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}

// MatXVec8x8_32 is MatXVecFixed for int8 operands with int32 bias and output.
func MatXVec8x8_32(out []int32, mat1, mat2, vec1, vec2 []int8, bias []int32, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}

// MatXVec16x16_16 is MatXVecFixed for int16 operands, bias and output.
func MatXVec16x16_16(out, mat1, mat2, vec1, vec2, bias []int16, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}

// MatXVec16x16_32 is MatXVecFixed for int16 operands and bias, int32 output.
func MatXVec16x16_32(out []int32, mat1, mat2, vec1, vec2, bias []int16, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}

// MatXVec16x16_64 is MatXVecFixed for int16 operands and bias, int64 output.
func MatXVec16x16_64(out []int64, mat1, mat2, vec1, vec2, bias []int16, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}

// MatXVec8x16_16 is MatXVecFixed for an int8 matrix, int16 vector and bias,
// int16 output.
func MatXVec8x16_16(out []int16, mat1, mat2 []int8, vec1, vec2, bias []int16, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}

// MatXVec8x16_32 is MatXVec8x16_16 with int32 output.
func MatXVec8x16_32(out []int32, mat1, mat2 []int8, vec1, vec2, bias []int16, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}

// MatXVec8x16_64 is MatXVec8x16_16 with int64 output.
func MatXVec8x16_64(out []int64, mat1, mat2 []int8, vec1, vec2, bias []int16, p FixedParams) error {
	return MatXVecFixed(out, mat1, mat2, vec1, vec2, bias, p)
}
