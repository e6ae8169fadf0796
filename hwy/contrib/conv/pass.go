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

package conv

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/ajroetker/go-nnlib/hwy"
	"github.com/ajroetker/go-nnlib/hwy/contrib/convstate"
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/matvec"
	"github.com/ajroetker/go-nnlib/hwy/contrib/scratch"
)

// scratchAlign is the byte alignment the scratch buffer of every driver
// must start on.
const scratchAlign = 8

// image is the geometry of an HWC input.
type image struct {
	h, w, c int
	cpad    int
	pad     int32
}

// pass is one strided correlation over a convstate window. Output (i, j)
// of the pass reads padded rows starting at (rowOrigin+i)*sy and input
// columns starting at (colOrigin+j)*sx - padLeft, and is written at
// base + i*rowStep + j*colStep + channel*chanStep.
type pass struct {
	kh, kw               int
	sy, sx               int
	padTop, padLeft      int
	rowOrigin, colOrigin int
	nRows, nCols         int

	base, rowStep, colStep, chanStep int
}

func (p *pass) empty() bool { return p.nRows <= 0 || p.nCols <= 0 }

func (p *pass) patchLen(cpad int) int { return p.kw * p.kh * cpad }

func (p *pass) firstColumn() int { return p.colOrigin*p.sx - p.padLeft }

// window returns the convstate geometry the pass advances over. Bottom
// padding is whatever the last output row reaches past the input.
func (p *pass) window(img image) convstate.Config {
	last := (p.rowOrigin+p.nRows-1)*p.sy + p.kh
	return convstate.Config{
		Depth:       img.c,
		DepthPadded: img.cpad,
		InputWidth:  img.w,
		InputHeight: img.h,
		PadTop:      p.padTop,
		PadBottom:   max(0, last-p.padTop-img.h),
		PadLeft:     -p.firstColumn(),
		WindowWidth: p.kw,
		PadValue:    img.pad,
	}
}

// sweep advances a window across the pass and calls column with the
// receptive fields of output column j, laid out [row][kw][kh][cpad].
func sweep[V scratch.Elem](img image, in []V, p *pass, ring, patches []V, column func(j int, patches []V)) {
	st := convstate.New(ring, p.window(img))
	n := p.patchLen(img.cpad)
	next := p.firstColumn()
	for j := range p.nCols {
		last := (p.colOrigin+j)*p.sx - p.padLeft + p.kw - 1
		for ; next <= last; next++ {
			st.Advance(in, next)
		}
		for i := range p.nRows {
			st.Patch((p.rowOrigin+i)*p.sy, p.kh, patches[i*n:(i+1)*n])
		}
		column(j, patches[:p.nRows*n])
	}
}

// gatherKernel writes dst[o][tx][ty][cpad] = src[o][ky][kx][c] for
// (ky, kx) = tap(ty, tx) and fills the channel padding with pad.
func gatherKernel[M scratch.Elem](dst, src []M, oc, kh, kw, c, cpad, nty, ntx int, tap func(ty, tx int) (int, int), pad M) {
	i := 0
	for o := range oc {
		for tx := range ntx {
			for ty := range nty {
				ky, kx := tap(ty, tx)
				i += copy(dst[i:i+c], src[((o*kh+ky)*kw+kx)*c:])
				for range cpad - c {
					dst[i] = pad
					i++
				}
			}
		}
	}
}

func identityTap(ty, tx int) (int, int) { return ty, tx }

// quant carries the zero biases and output scale of a quantized driver.
type quant struct {
	inputZeroBias  int32
	kernelZeroBias int32
	multiplier     int32
	shift          int
	multipliers    []int32
	shifts         []int32
	outZeroBias    int32
	rounding       fixedpoint.RoundingPolicy
}

func (q *quant) requantizer() fixedpoint.Requantizer {
	return fixedpoint.Requantizer{
		Multiplier:  q.multiplier,
		Shift:       q.shift,
		Multipliers: q.multipliers,
		Shifts:      q.shifts,
		ZeroBias:    q.outZeroBias,
		Policy:      q.rounding,
	}
}

// quantPass runs a pass with one matvec.MatMul per output column: the
// reordered kernel is the matrix, the receptive fields are the vectors.
func quantPass[M, V matvec.Operand, A hwy.Accumulators, O fixedpoint.Narrow](out []O, kernel []M, in []V, bias []A, img image, p *pass, q *quant, oc int, ring, patches []V) {
	if p.empty() {
		return
	}
	n := p.patchLen(img.cpad)
	mp := matvec.MatMulParams{
		Params: matvec.Params{
			Rows:           oc,
			Cols1:          n,
			RowStride1:     n,
			MatZeroBias1:   q.kernelZeroBias,
			VecZeroBias1:   q.inputZeroBias,
			OutMultiplier:  q.multiplier,
			OutShift:       q.shift,
			OutMultipliers: q.multipliers,
			OutShifts:      q.shifts,
			OutZeroBias:    q.outZeroBias,
			OutStride:      p.chanStep,
			Rounding:       q.rounding,
		},
		VecCount:  p.nRows,
		VecOffset: n,
		OutOffset: p.rowStep,
	}
	sweep(img, in, p, ring, patches, func(j int, patches []V) {
		if err := matvec.MatMul(out[p.base+j*p.colStep:], kernel[:oc*n], patches, bias, mp); err != nil {
			panic(err)
		}
	})
}

// floatPass runs a pass with one Gemm per output column into panel, an
// oc x nRows scratch matrix, then scatters panel plus bias to out.
func floatPass(out, kernel, in, bias []float32, img image, p *pass, oc int, ring, patches, panel []float32) {
	if p.empty() {
		return
	}
	n := p.patchLen(img.cpad)
	k := blas32.General{Rows: oc, Cols: n, Stride: n, Data: kernel[:oc*n]}
	c := blas32.General{Rows: oc, Cols: p.nRows, Stride: p.nRows, Data: panel[:oc*p.nRows]}
	sweep(img, in, p, ring, patches, func(j int, patches []float32) {
		x := blas32.General{Rows: p.nRows, Cols: n, Stride: n, Data: patches}
		blas32.Gemm(blas.NoTrans, blas.Trans, 1, k, x, 0, c)
		base := p.base + j*p.colStep
		for o := range oc {
			var b float32
			if bias != nil {
				b = bias[o]
			}
			for i, v := range c.Data[o*p.nRows : (o+1)*p.nRows] {
				out[base+i*p.rowStep+o*p.chanStep] = v + b
			}
		}
	})
}

// fillOutside writes value(o) to every output of an nOy x nOx phase grid
// that lies outside the pass's computed nRows x nCols corner.
func fillOutside[O any](out []O, oc int, p *pass, nOy, nOx int, value func(o int) O) {
	for k := range nOy {
		for l := range nOx {
			if k < p.nRows && l < p.nCols {
				continue
			}
			base := p.base + k*p.rowStep + l*p.colStep
			for o := range oc {
				out[base+o*p.chanStep] = value(o)
			}
		}
	}
}

// inputZeroBiasRange is the valid zero-bias range of an activation of
// type V: the negation of its value range.
func inputZeroBiasRange[V matvec.Operand]() (int32, int32) {
	lo, hi := fixedpoint.Bounds[V]()
	return int32(-hi), int32(-lo)
}

func outZeroBiasRange[O fixedpoint.Narrow]() (int32, int32) {
	lo, hi := fixedpoint.Bounds[O]()
	return int32(lo), int32(hi)
}
