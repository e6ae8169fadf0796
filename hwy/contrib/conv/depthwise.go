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
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// DepthwiseParams describes a depthwise 2D convolution. Output channel
// ic*ChannelMultiplier + m is input channel ic convolved with its own
// kernel plane. The kernel is laid out [KernelHeight][KernelWidth][OC] for
// NHWC input and [OC][KernelHeight][KernelWidth] for NCHW input, with
// OC = InputChannels*ChannelMultiplier.
type DepthwiseParams struct {
	InputHeight       int
	InputWidth        int
	InputChannels     int
	ChannelMultiplier int
	KernelHeight      int
	KernelWidth       int
	StrideX           int
	StrideY           int
	PadX              int
	PadY              int
	OutHeight         int
	OutWidth          int

	InputZeroBias  int32
	OutMultipliers []int32
	OutShifts      []int32
	OutZeroBias    int32

	InputFormat DataFormat
	OutFormat   DataFormat
	Rounding    fixedpoint.RoundingPolicy
}

// OutChannels returns InputChannels*ChannelMultiplier.
func (p *DepthwiseParams) OutChannels() int { return p.InputChannels * p.ChannelMultiplier }

// layout holds the element strides of the input, kernel and output.
type layout struct {
	inRow, inCol, inCh    int
	kRow, kCol, kCh       int
	outRow, outCol, outCh int
}

func (p *DepthwiseParams) layout() layout {
	oc := p.OutChannels()
	var l layout
	l.inRow, l.inCol, l.inCh = p.InputFormat.strides(p.InputHeight, p.InputWidth, p.InputChannels)
	l.kRow, l.kCol, l.kCh = p.InputFormat.strides(p.KernelHeight, p.KernelWidth, oc)
	l.outRow, l.outCol, l.outCh = p.OutFormat.strides(p.OutHeight, p.OutWidth, oc)
	return l
}

func (p *DepthwiseParams) check(c *validate.Checker) {
	c.Positive("input_height", p.InputHeight).Positive("input_width", p.InputWidth).Positive("input_channels", p.InputChannels)
	c.Positive("channels_multiplier", p.ChannelMultiplier)
	c.Positive("kernel_height", p.KernelHeight).Positive("kernel_width", p.KernelWidth)
	c.Positive("x_stride", p.StrideX).Positive("y_stride", p.StrideY)
	c.NonNegative("x_padding", p.PadX).NonNegative("y_padding", p.PadY)
	c.Positive("out_height", p.OutHeight).Positive("out_width", p.OutWidth)
	c.Check(p.InputFormat.valid(), "inp_data_format", validate.ErrOutOfRange, p.InputFormat.String())
	c.Check(p.OutFormat.valid(), "out_data_format", validate.ErrOutOfRange, p.OutFormat.String())
}

func checkDepthwise[T, B any](c *validate.Checker, out, in, kernel []T, bias []B, p *DepthwiseParams) {
	oc := p.OutChannels()
	validate.Buffer(c, "out", out, p.OutHeight*p.OutWidth*oc)
	validate.Buffer(c, "input", in, p.InputHeight*p.InputWidth*p.InputChannels)
	validate.Buffer(c, "kernel", kernel, p.KernelHeight*p.KernelWidth*oc)
	validate.OptionalBuffer(c, "bias", bias, oc)
}

// depthwise calls tap(acc, inIdx, kIdx) for every in-bounds kernel tap of
// every output and emit(outIdx, o, acc) once an output is complete. acc
// starts at the channel's bias.
func depthwise[B any](p *DepthwiseParams, bias []B, tap func(acc B, in, k int) B, emit func(out, o int, acc B)) {
	l := p.layout()
	m := p.ChannelMultiplier
	for oy := range p.OutHeight {
		y0 := oy*p.StrideY - p.PadY
		ky0, ky1 := max(0, -y0), min(p.KernelHeight, p.InputHeight-y0)
		for ox := range p.OutWidth {
			x0 := ox*p.StrideX - p.PadX
			kx0, kx1 := max(0, -x0), min(p.KernelWidth, p.InputWidth-x0)
			for ic := range p.InputChannels {
				for j := range m {
					o := ic*m + j
					var acc B
					if bias != nil {
						acc = bias[o]
					}
					for ky := ky0; ky < ky1; ky++ {
						for kx := kx0; kx < kx1; kx++ {
							acc = tap(acc, (y0+ky)*l.inRow+(x0+kx)*l.inCol+ic*l.inCh, ky*l.kRow+kx*l.kCol+o*l.kCh)
						}
					}
					emit(oy*l.outRow+ox*l.outCol+o*l.outCh, o, acc)
				}
			}
		}
	}
}

// DepthwisePerChanSym8sxAsym8s runs a depthwise convolution of an
// asymmetric int8 input with a symmetric per-channel int8 kernel.
func DepthwisePerChanSym8sxAsym8s(out, in, kernel []int8, bias []int32, p DepthwiseParams) error {
	c := validate.New("DepthwisePerChanSym8sxAsym8s")
	p.check(c)
	validate.PerChannel(c, p.OutMultipliers, p.OutShifts, p.OutChannels())
	c.ZeroBias("input_zero_bias", p.InputZeroBias, -127, 128)
	c.ZeroBias("out_zero_bias", p.OutZeroBias, -128, 127)
	if c.Err() == nil {
		checkDepthwise(c, out, in, kernel, bias, &p)
	}
	if err := c.Err(); err != nil {
		return err
	}

	rq := fixedpoint.Requantizer{
		Multipliers: p.OutMultipliers,
		Shifts:      p.OutShifts,
		ZeroBias:    p.OutZeroBias,
		Policy:      p.Rounding,
	}
	izb := p.InputZeroBias
	depthwise(&p, bias,
		func(acc int32, i, k int) int32 { return acc + (int32(in[i])+izb)*int32(kernel[k]) },
		func(idx, o int, acc int32) { out[idx] = fixedpoint.Apply[int8](&rq, acc, o) })
	return nil
}

// DepthwiseF32 runs a float32 depthwise convolution. Quantization fields of
// p are ignored.
func DepthwiseF32(out, in, kernel, bias []float32, p DepthwiseParams) error {
	c := validate.New("DepthwiseF32")
	p.check(c)
	if c.Err() == nil {
		checkDepthwise(c, out, in, kernel, bias, &p)
	}
	if err := c.Err(); err != nil {
		return err
	}
	depthwise(&p, bias,
		func(acc float32, i, k int) float32 { return acc + in[i]*kernel[k] },
		func(idx, _ int, acc float32) { out[idx] = acc })
	return nil
}
