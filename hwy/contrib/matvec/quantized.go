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
	"github.com/ajroetker/go-nnlib/hwy"
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// MatXVecAsym8s computes out[r] = requant(mat1[r]·vec1 + mat2[r]·vec2 +
// bias[r]) with asymmetric int8 operands and output. mat2 and vec2 are
// optional; when mat2 is nil the Cols2, RowStride2 and second zero biases
// are ignored. bias may be nil.
func MatXVecAsym8s(out, mat1, mat2, vec1, vec2 []int8, bias []int32, p Params) error {
	return matXVec("MatXVecAsym8s", out, mat1, mat2, vec1, vec2, bias, &p, true, true, false)
}

// MatXVecAsym8 is MatXVecAsym8s for unsigned 8-bit operands and output.
func MatXVecAsym8(out, mat1, mat2, vec1, vec2 []uint8, bias []int32, p Params) error {
	return matXVec("MatXVecAsym8", out, mat1, mat2, vec1, vec2, bias, &p, true, true, false)
}

// MatXVecSym8sxAsym8s multiplies a symmetric int8 matrix (no zero bias)
// with per-row scales OutMultipliers/OutShifts by an asymmetric int8 vector.
func MatXVecSym8sxAsym8s(out, mat, vec []int8, bias []int32, p Params) error {
	p.MatZeroBias1 = 0
	return matXVec[int8, int8, int32, int8]("MatXVecSym8sxAsym8s", out, mat, nil, vec, nil, bias, &p, false, true, true)
}

// MatXVecSym8sxSym16s multiplies symmetric int8 weights by symmetric int16
// activations, accumulating in 64 bits with an int64 bias.
func MatXVecSym8sxSym16s(out []int16, mat []int8, vec []int16, bias []int64, p Params) error {
	p.MatZeroBias1, p.VecZeroBias1 = 0, 0
	return matXVec[int8, int16, int64, int16]("MatXVecSym8sxSym16s", out, mat, nil, vec, nil, bias, &p, false, false, false)
}

func matXVec[M, V Operand, A hwy.Accumulators, O fixedpoint.Narrow](op string, out []O, mat1, mat2 []M, vec1, vec2 []V, bias []A, p *Params, asymMat, asymVec, perChannel bool) error {
	mp := p.asMatMul()
	if mat2 == nil {
		mp.Cols2, mp.RowStride2 = 0, 0
	}

	c := validate.New(op)
	checkQuantized[M, V, O](c, mp, asymMat, asymVec, perChannel)
	if mat2 != nil {
		p.checkSecond(c)
		validate.Buffer(c, "mat2", mat2, matLen(p.Rows, p.Cols2, p.RowStride2))
		validate.Buffer(c, "vec2", vec2, p.Cols2)
	}
	validate.Buffer(c, "out", out, mp.outLen())
	validate.Buffer(c, "mat1", mat1, matLen(p.Rows, p.Cols1, p.RowStride1))
	validate.Buffer(c, "vec1", vec1, p.Cols1)
	validate.OptionalBuffer(c, "bias", bias, p.Rows)
	if err := c.Err(); err != nil {
		return err
	}

	matMul(out, mat1, mat2, vec1, vec2, bias, mp)
	return nil
}

// MatMul multiplies one matrix by p.VecCount vectors (see MatMulParams)
// and requantizes into out. Zero biases apply to both operands; the valid
// zero-bias range follows from the operand types. The accumulator type is
// the bias type: int32 for 8-bit activations, int64 for 16-bit ones.
func MatMul[M, V Operand, A hwy.Accumulators, O fixedpoint.Narrow](out []O, mat []M, vecs []V, bias []A, p MatMulParams) error {
	return matMulChecked("MatMul", out, mat, vecs, bias, &p, true, true, false)
}

// MatMulAsym8s is MatMul for asymmetric int8 operands and output.
func MatMulAsym8s(out, mat, vecs []int8, bias []int32, p MatMulParams) error {
	return matMulChecked("MatMulAsym8s", out, mat, vecs, bias, &p, true, true, false)
}

// MatMulSym8sxAsym8s is MatMul for per-channel symmetric int8 weights and
// asymmetric int8 activations.
func MatMulSym8sxAsym8s(out, mat, vecs []int8, bias []int32, p MatMulParams) error {
	p.MatZeroBias1 = 0
	return matMulChecked("MatMulSym8sxAsym8s", out, mat, vecs, bias, &p, false, true, true)
}

// MatMulSym8sxSym16s is MatMul for int8 weights and int16 activations.
func MatMulSym8sxSym16s(out []int16, mat []int8, vecs []int16, bias []int64, p MatMulParams) error {
	p.MatZeroBias1, p.VecZeroBias1 = 0, 0
	return matMulChecked("MatMulSym8sxSym16s", out, mat, vecs, bias, &p, false, false, false)
}

func matMulChecked[M, V Operand, A hwy.Accumulators, O fixedpoint.Narrow](op string, out []O, mat []M, vecs []V, bias []A, p *MatMulParams, asymMat, asymVec, perChannel bool) error {
	if err := checkMatMul(op, out, mat, vecs, bias, p, asymMat, asymVec, perChannel); err != nil {
		return err
	}
	matMul[M, V, A, O](out, mat, nil, vecs, nil, bias, p)
	return nil
}

func checkMatMul[M, V Operand, A hwy.Accumulators, O fixedpoint.Narrow](op string, out []O, mat []M, vecs []V, bias []A, p *MatMulParams, asymMat, asymVec, perChannel bool) error {
	p.Cols2, p.RowStride2 = 0, 0
	c := validate.New(op)
	checkQuantized[M, V, O](c, p, asymMat, asymVec, perChannel)
	if c.Err() == nil {
		validate.Buffer(c, "out", out, p.outLen())
		validate.Buffer(c, "mat1", mat, matLen(p.Rows, p.Cols1, p.RowStride1))
		validate.Buffer(c, "vec1", vecs, (p.VecCount-1)*p.VecOffset+p.Cols1)
		validate.OptionalBuffer(c, "bias", bias, p.Rows)
	}
	return c.Err()
}
