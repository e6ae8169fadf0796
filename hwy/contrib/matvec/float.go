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
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// general views a strided row-major matrix as a blas32.General.
func general(mat []float32, rows, cols, stride int) blas32.General {
	return blas32.General{Rows: rows, Cols: cols, Stride: stride, Data: mat[:matLen(rows, cols, stride)]}
}

// MatXVecF32 computes out[r*OutStride] = mat1[r]·vec1 + mat2[r]·vec2 +
// bias[r] in float32. mat2, vec2 and bias may be nil. Only the shape
// fields of p are used.
func MatXVecF32(out, mat1, mat2, vec1, vec2, bias []float32, p Params) error {
	c := validate.New("MatXVecF32")
	p.checkShape(c)
	if mat2 != nil {
		p.checkSecond(c)
		validate.Buffer(c, "mat2", mat2, matLen(p.Rows, p.Cols2, p.RowStride2))
		validate.Buffer(c, "vec2", vec2, p.Cols2)
	}
	stride := p.outStride()
	validate.Buffer(c, "out", out, (p.Rows-1)*stride+1)
	validate.Buffer(c, "mat1", mat1, matLen(p.Rows, p.Cols1, p.RowStride1))
	validate.Buffer(c, "vec1", vec1, p.Cols1)
	validate.OptionalBuffer(c, "bias", bias, p.Rows)
	if err := c.Err(); err != nil {
		return err
	}

	y := blas32.Vector{N: p.Rows, Inc: stride, Data: out[:(p.Rows-1)*stride+1]}
	for r := range p.Rows {
		if bias != nil {
			out[r*stride] = bias[r]
		} else {
			out[r*stride] = 0
		}
	}
	blas32.Gemv(blas.NoTrans, 1, general(mat1, p.Rows, p.Cols1, p.RowStride1),
		blas32.Vector{N: p.Cols1, Inc: 1, Data: vec1[:p.Cols1]}, 1, y)
	if mat2 != nil {
		blas32.Gemv(blas.NoTrans, 1, general(mat2, p.Rows, p.Cols2, p.RowStride2),
			blas32.Vector{N: p.Cols2, Inc: 1, Data: vec2[:p.Cols2]}, 1, y)
	}
	return nil
}

// MatMulF32 multiplies one float32 matrix by p.VecCount strided vectors.
// Quantization fields of p are ignored.
func MatMulF32(out, mat, vecs, bias []float32, p MatMulParams) error {
	c := validate.New("MatMulF32")
	p.checkShape(c)
	p.checkBatch(c)
	if c.Err() == nil {
		validate.Buffer(c, "out", out, p.outLen())
		validate.Buffer(c, "mat1", mat, matLen(p.Rows, p.Cols1, p.RowStride1))
		validate.Buffer(c, "vec1", vecs, (p.VecCount-1)*p.VecOffset+p.Cols1)
		validate.OptionalBuffer(c, "bias", bias, p.Rows)
	}
	if err := c.Err(); err != nil {
		return err
	}

	a := general(mat, p.Rows, p.Cols1, p.RowStride1)
	stride := p.outStride()
	for v := range p.VecCount {
		base := v * p.OutOffset
		for r := range p.Rows {
			if bias != nil {
				out[base+r*stride] = bias[r]
			} else {
				out[base+r*stride] = 0
			}
		}
		x := blas32.Vector{N: p.Cols1, Inc: 1, Data: vecs[v*p.VecOffset : v*p.VecOffset+p.Cols1]}
		y := blas32.Vector{N: p.Rows, Inc: stride, Data: out[base : base+(p.Rows-1)*stride+1]}
		blas32.Gemv(blas.NoTrans, 1, a, x, 1, y)
	}
	return nil
}
