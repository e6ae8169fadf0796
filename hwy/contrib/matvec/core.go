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
)

// operand is one matrix with its alignment variant and zero biases.
type operand[M, V Operand, A hwy.Accumulators] struct {
	mat       []M
	rowStride int
	cols      int
	mOff      A
	vOff      A
	k         kernel[M, V, A]
}

func newOperand[M, V Operand, A hwy.Accumulators](mat []M, rowStride, cols int, vec []V, vecOffset int, mOff, vOff int32) operand[M, V, A] {
	return operand[M, V, A]{
		mat:       mat,
		rowStride: rowStride,
		cols:      cols,
		mOff:      A(mOff),
		vOff:      A(vOff),
		k:         kernelFor[M, V, A](SelectLayout(mat, rowStride, vec, vecOffset)),
	}
}

func (o *operand[M, V, A]) row(r int) []M {
	s := r * o.rowStride
	return o.mat[s : s+o.cols]
}

func (o *operand[M, V, A]) sum4(r int, vec []V) (A, A, A, A) {
	return o.k.dot4(o.row(r), o.row(r+1), o.row(r+2), o.row(r+3), vec, o.mOff, o.vOff)
}

func (o *operand[M, V, A]) sum1(r int, vec []V) A {
	return o.k.dot1(o.row(r), vec, o.mOff, o.vOff)
}

// job is one matrix (plus an optional second one) against a set of
// vectors. Rows are the outer loop so four matrix rows are reused across
// every vector.
type job[M, V Operand, A hwy.Accumulators] struct {
	rows      int
	vecCount  int
	vecOffset int
	op1       operand[M, V, A]
	vecs1     []V
	// vecList, when set, replaces vecs1/vecOffset with one slice per vector.
	vecList   [][]V
	op2       *operand[M, V, A]
	vec2      []V
}

func (j *job[M, V, A]) vec(v int) []V {
	if j.vecList != nil {
		return j.vecList[v][:j.op1.cols]
	}
	s := v * j.vecOffset
	return j.vecs1[s : s+j.op1.cols]
}

// run calls emit(r, v, acc) once for every row r and vector v.
func (j *job[M, V, A]) run(emit func(r, v int, acc A)) {
	r := 0
	for ; r+4 <= j.rows; r += 4 {
		for v := range j.vecCount {
			s0, s1, s2, s3 := j.op1.sum4(r, j.vec(v))
			if j.op2 != nil {
				t0, t1, t2, t3 := j.op2.sum4(r, j.vec2)
				s0, s1, s2, s3 = s0+t0, s1+t1, s2+t2, s3+t3
			}
			emit(r, v, s0)
			emit(r+1, v, s1)
			emit(r+2, v, s2)
			emit(r+3, v, s3)
		}
	}
	for ; r < j.rows; r++ {
		for v := range j.vecCount {
			s := j.op1.sum1(r, j.vec(v))
			if j.op2 != nil {
				s += j.op2.sum1(r, j.vec2)
			}
			emit(r, v, s)
		}
	}
}

// matMul runs a validated quantized call. mat2/vec2 may be nil.
func matMul[M, V Operand, A hwy.Accumulators, O fixedpoint.Narrow](out []O, mat1, mat2 []M, vecs1, vec2 []V, bias []A, p *MatMulParams) {
	j := job[M, V, A]{
		rows:      p.Rows,
		vecCount:  p.VecCount,
		vecOffset: p.VecOffset,
		op1:       newOperand[M, V, A](mat1, p.RowStride1, p.Cols1, vecs1, p.VecOffset, p.MatZeroBias1, p.VecZeroBias1),
		vecs1:     vecs1,
	}
	if mat2 != nil {
		op2 := newOperand[M, V, A](mat2, p.RowStride2, p.Cols2, vec2, p.Cols2, p.MatZeroBias2, p.VecZeroBias2)
		j.op2 = &op2
		j.vec2 = vec2[:p.Cols2]
	}

	rq := p.requantizer()
	outStride := p.outStride()
	j.run(func(r, v int, acc A) {
		if bias != nil {
			acc += bias[r]
		}
		out[v*p.OutOffset+r*outStride] = fixedpoint.ApplyAcc[A, O](&rq, acc, r)
	})
}
