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
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/matvec"
	"github.com/ajroetker/go-nnlib/hwy/contrib/scratch"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// StdParams describes a standard 2D convolution of an HWC input with an
// [OutChannels][KernelHeight][KernelWidth][InputChannels] kernel.
type StdParams struct {
	InputHeight   int
	InputWidth    int
	InputChannels int
	KernelHeight  int
	KernelWidth   int
	OutChannels   int
	StrideX       int
	StrideY       int
	// PadX and PadY are the left and top padding. Right and bottom padding
	// is implied by OutWidth and OutHeight.
	PadX      int
	PadY      int
	OutHeight int
	OutWidth  int

	// InputZeroBias and KernelZeroBias are added to every input and kernel
	// element; they are the negated zero points.
	InputZeroBias  int32
	KernelZeroBias int32

	OutMultiplier  int32
	OutShift       int
	OutMultipliers []int32
	OutShifts      []int32
	OutZeroBias    int32

	OutFormat DataFormat
	Rounding  fixedpoint.RoundingPolicy
}

func (p *StdParams) image(cpad int) image {
	return image{h: p.InputHeight, w: p.InputWidth, c: p.InputChannels, cpad: cpad, pad: -p.InputZeroBias}
}

func (p *StdParams) pass() pass {
	row, col, ch := p.OutFormat.strides(p.OutHeight, p.OutWidth, p.OutChannels)
	return pass{
		kh: p.KernelHeight, kw: p.KernelWidth,
		sy: p.StrideY, sx: p.StrideX,
		padTop: p.PadY, padLeft: p.PadX,
		nRows: p.OutHeight, nCols: p.OutWidth,
		rowStep: row, colStep: col, chanStep: ch,
	}
}

func (p *StdParams) quant() quant {
	return quant{
		inputZeroBias:  p.InputZeroBias,
		kernelZeroBias: p.KernelZeroBias,
		multiplier:     p.OutMultiplier,
		shift:          p.OutShift,
		multipliers:    p.OutMultipliers,
		shifts:         p.OutShifts,
		outZeroBias:    p.OutZeroBias,
		rounding:       p.Rounding,
	}
}

func (p *StdParams) kernelLen() int {
	return p.OutChannels * p.KernelHeight * p.KernelWidth * p.InputChannels
}

// stdLens returns the padded channel count and the element counts of the
// reordered kernel, the window and the receptive fields.
func stdLens[V scratch.Elem](p *StdParams) (cpad, kernel, ring, patches int) {
	cpad = hwy.PadChannels[V](p.InputChannels)
	ps := p.pass()
	n := ps.patchLen(cpad)
	return cpad, p.OutChannels * n, convstate.Size[V](ps.window(p.image(cpad))), ps.nRows * n
}

// StdScratchSize returns the scratch bytes a quantized standard convolution
// with kernel type M and input type V needs.
func StdScratchSize[M, V matvec.Operand](p StdParams) int {
	_, kernel, ring, patches := stdLens[V](&p)
	var s scratch.Sizer
	scratch.Reserve[M](&s, kernel)
	scratch.Reserve[V](&s, ring)
	return scratch.Reserve[V](&s, patches).Bytes()
}

// StdScratchSizeF32 returns the scratch bytes StdF32 needs.
func StdScratchSizeF32(p StdParams) int {
	_, kernel, ring, patches := stdLens[float32](&p)
	var s scratch.Sizer
	scratch.Reserve[float32](&s, kernel)
	scratch.Reserve[float32](&s, ring)
	scratch.Reserve[float32](&s, patches)
	return scratch.Reserve[float32](&s, p.OutChannels*p.OutHeight).Bytes()
}

func (p *StdParams) checkShape(c *validate.Checker) {
	c.Positive("input_height", p.InputHeight).Positive("input_width", p.InputWidth).Positive("input_channels", p.InputChannels)
	c.Positive("kernel_height", p.KernelHeight).Positive("kernel_width", p.KernelWidth).Positive("out_channels", p.OutChannels)
	c.Positive("x_stride", p.StrideX).Positive("y_stride", p.StrideY)
	c.NonNegative("x_padding", p.PadX).NonNegative("y_padding", p.PadY)
	c.Positive("out_height", p.OutHeight).Positive("out_width", p.OutWidth)
	c.Check(p.OutFormat.valid(), "out_data_format", validate.ErrOutOfRange, p.OutFormat.String())
}

func (p *StdParams) checkScale(c *validate.Checker, perChannel bool) {
	if perChannel || p.OutMultipliers != nil {
		validate.PerChannel(c, p.OutMultipliers, p.OutShifts, p.OutChannels)
		return
	}
	c.Multiplier("out_multiplier", p.OutMultiplier).Shift("out_shift", p.OutShift)
}

func checkStd[M, V matvec.Operand, A any, O fixedpoint.Narrow](op string, out []O, in []V, kernel []M, bias []A, scr []byte, p *StdParams, asymKernel, perChannel bool) error {
	c := validate.New(op)
	p.checkShape(c)
	p.checkScale(c, perChannel)
	lo, hi := inputZeroBiasRange[V]()
	c.ZeroBias("input_zero_bias", p.InputZeroBias, lo, hi)
	if asymKernel {
		lo, hi = inputZeroBiasRange[M]()
		c.ZeroBias("kernel_zero_bias", p.KernelZeroBias, lo, hi)
	}
	lo, hi = outZeroBiasRange[O]()
	c.ZeroBias("out_zero_bias", p.OutZeroBias, lo, hi)
	if c.Err() != nil {
		return c.Err()
	}
	validate.Buffer(c, "out", out, p.OutHeight*p.OutWidth*p.OutChannels)
	validate.Buffer(c, "input", in, p.InputHeight*p.InputWidth*p.InputChannels)
	validate.Buffer(c, "kernel", kernel, p.kernelLen())
	validate.OptionalBuffer(c, "bias", bias, p.OutChannels)
	validate.Buffer(c, "scratch", scr, StdScratchSize[M, V](*p))
	validate.Aligned(c, "scratch", scr, scratchAlign)
	return c.Err()
}

func std[M, V matvec.Operand, A hwy.Accumulators, O fixedpoint.Narrow](out []O, in []V, kernel []M, bias []A, scr []byte, p *StdParams) {
	cpad, kernelN, ringN, patchesN := stdLens[V](p)
	ps := p.pass()

	arena := scratch.NewArena(scr)
	kr := scratch.Alloc[M](arena, kernelN)
	gatherKernel(kr, kernel, p.OutChannels, p.KernelHeight, p.KernelWidth, p.InputChannels, cpad,
		p.KernelHeight, p.KernelWidth, identityTap, M(-p.KernelZeroBias))
	ring := scratch.Alloc[V](arena, ringN)
	patches := scratch.Alloc[V](arena, patchesN)

	q := p.quant()
	quantPass(out, kr, in, bias, p.image(cpad), &ps, &q, p.OutChannels, ring, patches)
}

func runStd[M, V matvec.Operand, A hwy.Accumulators, O fixedpoint.Narrow](op string, out []O, in []V, kernel []M, bias []A, scr []byte, p *StdParams, asymKernel, perChannel bool) error {
	if err := checkStd(op, out, in, kernel, bias, scr, p, asymKernel, perChannel); err != nil {
		return err
	}
	std(out, in, kernel, bias, scr, p)
	return nil
}

// StdAsym8s convolves an asymmetric int8 input with an asymmetric int8
// kernel. The output scale is per-tensor unless OutMultipliers is set.
func StdAsym8s(out, in, kernel []int8, bias []int32, scr []byte, p StdParams) error {
	return runStd("StdAsym8s", out, in, kernel, bias, scr, &p, true, false)
}

// StdAsym8 is StdAsym8s for uint8 tensors.
func StdAsym8(out, in, kernel []uint8, bias []int32, scr []byte, p StdParams) error {
	return runStd("StdAsym8", out, in, kernel, bias, scr, &p, true, false)
}

// StdPerChanSym8sxAsym8s convolves an asymmetric int8 input with a
// symmetric int8 kernel quantized per output channel. KernelZeroBias is
// ignored.
func StdPerChanSym8sxAsym8s(out, in, kernel []int8, bias []int32, scr []byte, p StdParams) error {
	p.KernelZeroBias = 0
	return runStd("StdPerChanSym8sxAsym8s", out, in, kernel, bias, scr, &p, false, true)
}

// StdSym8sxSym16s convolves a symmetric int16 input with a symmetric int8
// kernel quantized per output channel, accumulating in int64. Both zero
// biases are ignored.
func StdSym8sxSym16s(out, in []int16, kernel []int8, bias []int64, scr []byte, p StdParams) error {
	p.KernelZeroBias = 0
	p.InputZeroBias = 0
	return runStd("StdSym8sxSym16s", out, in, kernel, bias, scr, &p, false, true)
}

// StdF32 convolves float32 tensors. Quantization fields of p are ignored.
func StdF32(out, in, kernel, bias []float32, scr []byte, p StdParams) error {
	c := validate.New("StdF32")
	p.checkShape(c)
	if c.Err() == nil {
		validate.Buffer(c, "out", out, p.OutHeight*p.OutWidth*p.OutChannels)
		validate.Buffer(c, "input", in, p.InputHeight*p.InputWidth*p.InputChannels)
		validate.Buffer(c, "kernel", kernel, p.kernelLen())
		validate.OptionalBuffer(c, "bias", bias, p.OutChannels)
		validate.Buffer(c, "scratch", scr, StdScratchSizeF32(p))
		validate.Aligned(c, "scratch", scr, scratchAlign)
	}
	if err := c.Err(); err != nil {
		return err
	}

	p.InputZeroBias = 0
	cpad, kernelN, ringN, patchesN := stdLens[float32](&p)
	ps := p.pass()

	arena := scratch.NewArena(scr)
	kr := scratch.Alloc[float32](arena, kernelN)
	gatherKernel(kr, kernel, p.OutChannels, p.KernelHeight, p.KernelWidth, p.InputChannels, cpad,
		p.KernelHeight, p.KernelWidth, identityTap, 0)
	ring := scratch.Alloc[float32](arena, ringN)
	patches := scratch.Alloc[float32](arena, patchesN)
	panel := scratch.Alloc[float32](arena, p.OutChannels*ps.nRows)
	floatPass(out, kr, in, bias, p.image(cpad), &ps, p.OutChannels, ring, patches, panel)
	return nil
}
