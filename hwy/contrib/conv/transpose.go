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
	"github.com/ajroetker/go-nnlib/hwy"
	"github.com/ajroetker/go-nnlib/hwy/contrib/convstate"
	"github.com/ajroetker/go-nnlib/hwy/contrib/dot"
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/matvec"
	"github.com/ajroetker/go-nnlib/hwy/contrib/scratch"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// TransposeParams describes a transposed 2D convolution: every input pixel
// (y, x) scatters kernel tap (ky, kx) to output
// (y*StrideY - PadY + ky, x*StrideX - PadX + kx). The kernel is laid out
// [OutChannels][KernelHeight][KernelWidth][InputChannels] and is always
// symmetric with a per-channel output scale.
type TransposeParams struct {
	InputHeight   int
	InputWidth    int
	InputChannels int
	KernelHeight  int
	KernelWidth   int
	OutChannels   int
	StrideX       int
	StrideY       int
	PadX          int
	PadY          int
	OutHeight     int
	OutWidth      int

	InputZeroBias  int32
	OutMultipliers []int32
	OutShifts      []int32
	OutZeroBias    int32

	OutFormat DataFormat
	Rounding  fixedpoint.RoundingPolicy
}

// SubKernel reports whether the convolution runs as stride-1 standard
// convolutions over sub-kernels. Otherwise it falls back to the direct
// scatter.
func (p *TransposeParams) SubKernel() bool {
	return p.KernelHeight <= p.InputHeight && p.KernelWidth <= p.InputWidth &&
		p.StrideY <= p.KernelHeight && p.StrideX <= p.KernelWidth
}

func (p *TransposeParams) image(cpad int) image {
	return image{h: p.InputHeight, w: p.InputWidth, c: p.InputChannels, cpad: cpad, pad: -p.InputZeroBias}
}

func (p *TransposeParams) quant() quant {
	return quant{
		inputZeroBias: p.InputZeroBias,
		multipliers:   p.OutMultipliers,
		shifts:        p.OutShifts,
		outZeroBias:   p.OutZeroBias,
		rounding:      p.Rounding,
	}
}

func (p *TransposeParams) outLen() int { return p.OutHeight * p.OutWidth * p.OutChannels }

func (p *TransposeParams) kernelLen() int {
	return p.OutChannels * p.KernelHeight * p.KernelWidth * p.InputChannels
}

// axis is the geometry of one output phase along one dimension.
type axis struct {
	phase int // kernel phase: taps phase, phase+stride, ...
	taps  int
	first int // first output of the phase
	q0    int // sub-convolution index of first
	count int // outputs in the phase
	valid int // leading outputs some input reaches
}

func newAxis(phase, kernel, stride, pad, in, out int) axis {
	a := axis{phase: phase, taps: (kernel - phase + stride - 1) / stride}
	a.first = ((phase-pad)%stride + stride) % stride
	a.q0 = (a.first + pad - phase) / stride
	if a.first < out {
		a.count = (out - a.first + stride - 1) / stride
	}
	a.valid = min(a.count, max(0, in+a.taps-1-a.q0))
	return a
}

// phases calls fn for every (y, x) output phase with the pass computing
// its reachable outputs.
func (p *TransposeParams) phases(fn func(ay, ax axis, ps *pass)) {
	row, col, ch := p.OutFormat.strides(p.OutHeight, p.OutWidth, p.OutChannels)
	for py := range p.StrideY {
		ay := newAxis(py, p.KernelHeight, p.StrideY, p.PadY, p.InputHeight, p.OutHeight)
		for px := range p.StrideX {
			ax := newAxis(px, p.KernelWidth, p.StrideX, p.PadX, p.InputWidth, p.OutWidth)
			ps := pass{
				kh: ay.taps, kw: ax.taps,
				sy: 1, sx: 1,
				padTop: ay.taps - 1, padLeft: ax.taps - 1,
				rowOrigin: ay.q0, colOrigin: ax.q0,
				nRows: ay.valid, nCols: ax.valid,
				base:     ay.first*row + ax.first*col,
				rowStep:  p.StrideY * row,
				colStep:  p.StrideX * col,
				chanStep: ch,
			}
			fn(ay, ax, &ps)
		}
	}
}

// subKernelLens returns the padded channel count and the largest element
// counts of a sub-kernel, a window and a set of receptive fields over all
// phases.
func subKernelLens[V scratch.Elem](p *TransposeParams) (cpad, kernel, ring, patches int) {
	cpad = hwy.PadChannels[V](p.InputChannels)
	img := p.image(cpad)
	p.phases(func(_, _ axis, ps *pass) {
		if ps.empty() {
			return
		}
		n := ps.patchLen(cpad)
		kernel = max(kernel, p.OutChannels*n)
		ring = max(ring, convstate.Size[V](ps.window(img)))
		patches = max(patches, ps.nRows*n)
	})
	return cpad, kernel, ring, patches
}

// TransposeScratchSize returns the scratch bytes a quantized transposed
// convolution with kernel type M, input type V and accumulator type A
// needs.
func TransposeScratchSize[M, V matvec.Operand, A hwy.Accumulators](p TransposeParams) int {
	var s scratch.Sizer
	if !p.SubKernel() {
		return scratch.Reserve[A](&s, p.outLen()).Bytes()
	}
	_, kernel, ring, patches := subKernelLens[V](&p)
	scratch.Reserve[M](&s, kernel)
	scratch.Reserve[V](&s, ring)
	return scratch.Reserve[V](&s, patches).Bytes()
}

// TransposeScratchSizeF32 returns the scratch bytes TransposeF32 needs.
func TransposeScratchSizeF32(p TransposeParams) int {
	var s scratch.Sizer
	if !p.SubKernel() {
		return scratch.Reserve[float32](&s, p.outLen()).Bytes()
	}
	_, kernel, ring, patches := subKernelLens[float32](&p)
	scratch.Reserve[float32](&s, kernel)
	scratch.Reserve[float32](&s, ring)
	scratch.Reserve[float32](&s, patches)
	rows := 0
	p.phases(func(_, _ axis, ps *pass) { rows = max(rows, ps.nRows) })
	return scratch.Reserve[float32](&s, p.OutChannels*rows).Bytes()
}

func (p *TransposeParams) checkShape(c *validate.Checker) {
	c.Positive("input_height", p.InputHeight).Positive("input_width", p.InputWidth).Positive("input_depth", p.InputChannels)
	c.Positive("filter_height", p.KernelHeight).Positive("filter_width", p.KernelWidth).Positive("output_depth", p.OutChannels)
	c.Positive("stride_width", p.StrideX).Positive("stride_height", p.StrideY)
	c.NonNegative("pad_width", p.PadX).NonNegative("pad_height", p.PadY)
	c.Positive("output_height", p.OutHeight).Positive("output_width", p.OutWidth)
	c.Check(p.OutFormat.valid(), "out_data_format", validate.ErrOutOfRange, p.OutFormat.String())
}

func checkTranspose[M, V matvec.Operand, A hwy.Accumulators, O fixedpoint.Narrow](op string, out []O, in []V, kernel []M, bias []A, scr []byte, p *TransposeParams) error {
	c := validate.New(op)
	p.checkShape(c)
	validate.PerChannel(c, p.OutMultipliers, p.OutShifts, p.OutChannels)
	lo, hi := inputZeroBiasRange[V]()
	c.ZeroBias("input_offset", p.InputZeroBias, lo, hi)
	lo, hi = outZeroBiasRange[O]()
	c.ZeroBias("output_offset", p.OutZeroBias, lo, hi)
	if c.Err() != nil {
		return c.Err()
	}
	validate.Buffer(c, "output_data", out, p.outLen())
	validate.Buffer(c, "input_data", in, p.InputHeight*p.InputWidth*p.InputChannels)
	validate.Buffer(c, "filter_data", kernel, p.kernelLen())
	validate.OptionalBuffer(c, "bias_data", bias, p.OutChannels)
	validate.Buffer(c, "scratch_buffer", scr, TransposeScratchSize[M, V, A](*p))
	validate.Aligned(c, "scratch_buffer", scr, scratchAlign)
	return c.Err()
}

func logDirect(op string, p *TransposeParams) {
	hwy.Logger().V(1).Info("transpose conv falls back to direct scatter", "op", op,
		"input", [2]int{p.InputHeight, p.InputWidth},
		"filter", [2]int{p.KernelHeight, p.KernelWidth},
		"stride", [2]int{p.StrideY, p.StrideX})
}

func transpose[M, V matvec.Operand, A hwy.Accumulators, O fixedpoint.Narrow](op string, out []O, in []V, kernel []M, bias []A, scr []byte, p *TransposeParams) error {
	if err := checkTranspose(op, out, in, kernel, bias, scr, p); err != nil {
		return err
	}
	if !p.SubKernel() {
		logDirect(op, p)
		transposeDirect(out, in, kernel, bias, scr, p)
		return nil
	}

	cpad, kernelN, ringN, patchesN := subKernelLens[V](p)
	img := p.image(cpad)
	arena := scratch.NewArena(scr)
	kr := scratch.Alloc[M](arena, kernelN)
	ring := scratch.Alloc[V](arena, ringN)
	patches := scratch.Alloc[V](arena, patchesN)

	q := p.quant()
	rq := q.requantizer()
	biasOnly := func(o int) O {
		var acc A
		if bias != nil {
			acc = bias[o]
		}
		return fixedpoint.ApplyAcc[A, O](&rq, acc, o)
	}
	p.phases(func(ay, ax axis, ps *pass) {
		if !ps.empty() {
			gatherKernel(kr, kernel, p.OutChannels, p.KernelHeight, p.KernelWidth, p.InputChannels, cpad, ps.kh, ps.kw,
				func(ty, tx int) (int, int) {
					return ay.phase + p.StrideY*(ps.kh-1-ty), ax.phase + p.StrideX*(ps.kw-1-tx)
				}, 0)
			quantPass(out, kr, in, bias, img, ps, &q, p.OutChannels, ring, patches)
		}
		fillOutside(out, p.OutChannels, ps, ay.count, ax.count, biasOnly)
	})
	return nil
}

// transposeDirect scatters every input pixel into an accumulation plane in
// scratch and requantizes the plane.
func transposeDirect[M, V matvec.Operand, A hwy.Accumulators, O fixedpoint.Narrow](out []O, in []V, kernel []M, bias []A, scr []byte, p *TransposeParams) {
	oc, ic := p.OutChannels, p.InputChannels
	acc := scratch.Alloc[A](scratch.NewArena(scr), p.outLen())
	for i := 0; i < len(acc); i += oc {
		if bias != nil {
			copy(acc[i:i+oc], bias)
		} else {
			clear(acc[i : i+oc])
		}
	}

	izb := A(p.InputZeroBias)
	for y := range p.InputHeight {
		for x := range p.InputWidth {
			pixel := in[(y*p.InputWidth+x)*ic:][:ic]
			for ky := range p.KernelHeight {
				oy := y*p.StrideY - p.PadY + ky
				if oy < 0 || oy >= p.OutHeight {
					continue
				}
				for kx := range p.KernelWidth {
					ox := x*p.StrideX - p.PadX + kx
					if ox < 0 || ox >= p.OutWidth {
						continue
					}
					dst := acc[(oy*p.OutWidth+ox)*oc:][:oc]
					for o := range dst {
						tap := kernel[((o*p.KernelHeight+ky)*p.KernelWidth+kx)*ic:][:ic]
						dst[o] += dot.Quantized[A](tap, pixel, 0, izb)
					}
				}
			}
		}
	}

	q := p.quant()
	rq := q.requantizer()
	row, col, ch := p.OutFormat.strides(p.OutHeight, p.OutWidth, oc)
	for oy := range p.OutHeight {
		for ox := range p.OutWidth {
			src := acc[(oy*p.OutWidth+ox)*oc:][:oc]
			for o, a := range src {
				out[oy*row+ox*col+o*ch] = fixedpoint.ApplyAcc[A, O](&rq, a, o)
			}
		}
	}
}

// TransposeSym8sxAsym8s runs a transposed convolution of an asymmetric int8
// input with a symmetric per-channel int8 kernel.
func TransposeSym8sxAsym8s(out, in, kernel []int8, bias []int32, scr []byte, p TransposeParams) error {
	return transpose("TransposeSym8sxAsym8s", out, in, kernel, bias, scr, &p)
}

// TransposeSym8sxSym16s runs a transposed convolution of a symmetric int16
// input with a symmetric per-channel int8 kernel, accumulating in int64.
// InputZeroBias is ignored.
func TransposeSym8sxSym16s(out, in []int16, kernel []int8, bias []int64, scr []byte, p TransposeParams) error {
	p.InputZeroBias = 0
	return transpose("TransposeSym8sxSym16s", out, in, kernel, bias, scr, &p)
}

// TransposeF32 runs a float32 transposed convolution. Quantization fields
// of p are ignored.
func TransposeF32(out, in, kernel, bias []float32, scr []byte, p TransposeParams) error {
	c := validate.New("TransposeF32")
	p.checkShape(c)
	if c.Err() == nil {
		validate.Buffer(c, "output_data", out, p.outLen())
		validate.Buffer(c, "input_data", in, p.InputHeight*p.InputWidth*p.InputChannels)
		validate.Buffer(c, "filter_data", kernel, p.kernelLen())
		validate.OptionalBuffer(c, "bias_data", bias, p.OutChannels)
		validate.Buffer(c, "scratch_buffer", scr, TransposeScratchSizeF32(p))
		validate.Aligned(c, "scratch_buffer", scr, scratchAlign)
	}
	if err := c.Err(); err != nil {
		return err
	}
	if !p.SubKernel() {
		logDirect("TransposeF32", &p)
		transposeDirectF32(out, in, kernel, bias, scr, &p)
		return nil
	}

	p.InputZeroBias = 0
	cpad, kernelN, ringN, patchesN := subKernelLens[float32](&p)
	img := p.image(cpad)
	rows := 0
	p.phases(func(_, _ axis, ps *pass) { rows = max(rows, ps.nRows) })
	arena := scratch.NewArena(scr)
	kr := scratch.Alloc[float32](arena, kernelN)
	ring := scratch.Alloc[float32](arena, ringN)
	patches := scratch.Alloc[float32](arena, patchesN)
	panel := scratch.Alloc[float32](arena, p.OutChannels*rows)

	biasOnly := func(o int) float32 {
		if bias != nil {
			return bias[o]
		}
		return 0
	}
	p.phases(func(ay, ax axis, ps *pass) {
		if !ps.empty() {
			gatherKernel(kr, kernel, p.OutChannels, p.KernelHeight, p.KernelWidth, p.InputChannels, cpad, ps.kh, ps.kw,
				func(ty, tx int) (int, int) {
					return ay.phase + p.StrideY*(ps.kh-1-ty), ax.phase + p.StrideX*(ps.kw-1-tx)
				}, 0)
			floatPass(out, kr, in, bias, img, ps, p.OutChannels, ring, patches, panel)
		}
		fillOutside(out, p.OutChannels, ps, ay.count, ax.count, biasOnly)
	})
	return nil
}

func transposeDirectF32(out, in, kernel, bias []float32, scr []byte, p *TransposeParams) {
	oc, ic := p.OutChannels, p.InputChannels
	acc := scratch.Alloc[float32](scratch.NewArena(scr), p.outLen())
	for i := 0; i < len(acc); i += oc {
		if bias != nil {
			copy(acc[i:i+oc], bias)
		} else {
			clear(acc[i : i+oc])
		}
	}
	for y := range p.InputHeight {
		for x := range p.InputWidth {
			pixel := in[(y*p.InputWidth+x)*ic:][:ic]
			for ky := range p.KernelHeight {
				oy := y*p.StrideY - p.PadY + ky
				if oy < 0 || oy >= p.OutHeight {
					continue
				}
				for kx := range p.KernelWidth {
					ox := x*p.StrideX - p.PadX + kx
					if ox < 0 || ox >= p.OutWidth {
						continue
					}
					dst := acc[(oy*p.OutWidth+ox)*oc:][:oc]
					for o := range dst {
						dst[o] += dot.Dot(kernel[((o*p.KernelHeight+ky)*p.KernelWidth+kx)*ic:][:ic], pixel)
					}
				}
			}
		}
	}
	row, col, ch := p.OutFormat.strides(p.OutHeight, p.OutWidth, oc)
	for oy := range p.OutHeight {
		for ox := range p.OutWidth {
			for o, a := range acc[(oy*p.OutWidth+ox)*oc:][:oc] {
				out[oy*row+ox*col+o*ch] = a
			}
		}
	}
}
