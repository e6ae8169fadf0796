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
	"fmt"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/ajroetker/go-nnlib/hwy"
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// MatXVecBatchAsym8s multiplies mat by every vector in vecs, writing
// vector v's results to outs[v] with p.OutStride between rows. The result
// is identical to one MatXVecAsym8s call per vector.
func MatXVecBatchAsym8s(outs [][]int8, mat []int8, vecs [][]int8, bias []int32, p Params) error {
	return matXVecBatch("MatXVecBatchAsym8s", outs, mat, vecs, bias, &p)
}

// MatXVecBatchAsym8 is MatXVecBatchAsym8s for unsigned 8-bit data.
func MatXVecBatchAsym8(outs [][]uint8, mat []uint8, vecs [][]uint8, bias []int32, p Params) error {
	return matXVecBatch("MatXVecBatchAsym8", outs, mat, vecs, bias, &p)
}

func checkBatchBuffers[T, O any](c *validate.Checker, outs [][]O, vecs [][]T, outN, cols int) {
	c.Positive("vec_count", len(vecs))
	c.Check(len(outs) >= len(vecs), "outs", validate.ErrBufferTooSmall,
		fmt.Sprintf("%d outputs for %d vectors", len(outs), len(vecs)))
	if c.Err() != nil {
		return
	}
	for i, v := range vecs {
		validate.Buffer(c, fmt.Sprintf("vecs[%d]", i), v, cols)
		validate.Buffer(c, fmt.Sprintf("outs[%d]", i), outs[i], outN)
	}
}

func matXVecBatch[T Operand, O fixedpoint.Narrow](op string, outs [][]O, mat []T, vecs [][]T, bias []int32, p *Params) error {
	c := validate.New(op)
	p.checkShape(c)
	p.checkScale(c, false)
	lo8, hi8 := zeroBiasRange[T]()
	c.ZeroBias("mat1_zero_bias", p.MatZeroBias1, lo8, hi8).ZeroBias("vec1_zero_bias", p.VecZeroBias1, lo8, hi8)
	olo, ohi := outZeroBiasRange[O]()
	c.ZeroBias("out_zero_bias", p.OutZeroBias, olo, ohi)
	validate.Buffer(c, "mat1", mat, matLen(p.Rows, p.Cols1, p.RowStride1))
	validate.OptionalBuffer(c, "bias", bias, p.Rows)
	checkBatchBuffers(c, outs, vecs, (p.Rows-1)*p.outStride()+1, p.Cols1)
	if err := c.Err(); err != nil {
		return err
	}

	w := hwy.CurrentWidth()
	layout := SelectLayout(mat, p.RowStride1, vecs[0], 0)
	if !lo.EveryBy(vecs, func(v []T) bool { return hwy.IsAligned(v, w) }) {
		if layout == LayoutAligned {
			layout = LayoutMatAligned
		} else if layout == LayoutVecAligned {
			layout = LayoutUnaligned
		}
	}
	j := job[T, T, int32]{
		rows:     p.Rows,
		vecCount: len(vecs),
		vecList:  vecs,
		op1: operand[T, T, int32]{
			mat:       mat,
			rowStride: p.RowStride1,
			cols:      p.Cols1,
			mOff:      p.MatZeroBias1,
			vOff:      p.VecZeroBias1,
			k:         kernelFor[T, T, int32](layout),
		},
	}
	rq := p.requantizer()
	stride := p.outStride()
	j.run(func(r, v int, acc int32) {
		if bias != nil {
			acc += bias[r]
		}
		outs[v][r*stride] = fixedpoint.Apply[O](&rq, acc, r)
	})
	return nil
}

// MatXVecBatchF32 is the float32 batch kernel, one GEMV per vector
// against the same matrix view.
func MatXVecBatchF32(outs [][]float32, mat []float32, vecs [][]float32, bias []float32, p Params) error {
	c := validate.New("MatXVecBatchF32")
	p.checkShape(c)
	validate.Buffer(c, "mat1", mat, matLen(p.Rows, p.Cols1, p.RowStride1))
	validate.OptionalBuffer(c, "bias", bias, p.Rows)
	checkBatchBuffers(c, outs, vecs, (p.Rows-1)*p.outStride()+1, p.Cols1)
	if err := c.Err(); err != nil {
		return err
	}

	a := general(mat, p.Rows, p.Cols1, p.RowStride1)
	stride := p.outStride()
	for v, vec := range vecs {
		out := outs[v]
		for r := range p.Rows {
			if bias != nil {
				out[r*stride] = bias[r]
			} else {
				out[r*stride] = 0
			}
		}
		blas32.Gemv(blas.NoTrans, 1, a,
			blas32.Vector{N: p.Cols1, Inc: 1, Data: vec[:p.Cols1]}, 1,
			blas32.Vector{N: p.Rows, Inc: stride, Data: out[:(p.Rows-1)*stride+1]})
	}
	return nil
}
