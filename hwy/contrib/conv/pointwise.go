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

	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/matvec"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// PointwiseParams describes a 1x1 convolution of an HWC input with an
// [OutChannels][InputChannels] kernel.
type PointwiseParams struct {
	InputHeight   int
	InputWidth    int
	InputChannels int
	OutChannels   int

	InputZeroBias  int32
	OutMultipliers []int32
	OutShifts      []int32
	OutZeroBias    int32

	OutFormat DataFormat
	Rounding  fixedpoint.RoundingPolicy
}

func (p *PointwiseParams) pixels() int { return p.InputHeight * p.InputWidth }

func (p *PointwiseParams) check(c *validate.Checker) {
	c.Positive("input_height", p.InputHeight).Positive("input_width", p.InputWidth)
	c.Positive("input_channels", p.InputChannels).Positive("out_channels", p.OutChannels)
	c.Check(p.OutFormat.valid(), "out_data_format", validate.ErrOutOfRange, p.OutFormat.String())
}

// matMul views the convolution as one matrix (a row per output channel)
// times one vector per pixel.
func (p *PointwiseParams) matMul() matvec.MatMulParams {
	_, pixelStep, chanStep := p.OutFormat.strides(p.InputHeight, p.InputWidth, p.OutChannels)
	return matvec.MatMulParams{
		Params: matvec.Params{
			Rows:           p.OutChannels,
			Cols1:          p.InputChannels,
			RowStride1:     p.InputChannels,
			VecZeroBias1:   p.InputZeroBias,
			OutMultipliers: p.OutMultipliers,
			OutShifts:      p.OutShifts,
			OutZeroBias:    p.OutZeroBias,
			OutStride:      chanStep,
			Rounding:       p.Rounding,
		},
		VecCount:  p.pixels(),
		VecOffset: p.InputChannels,
		OutOffset: pixelStep,
	}
}

// PointwisePerChanSym8sxAsym8s runs a 1x1 convolution of an asymmetric int8
// input with a symmetric per-channel int8 kernel.
func PointwisePerChanSym8sxAsym8s(out, in, kernel []int8, bias []int32, p PointwiseParams) error {
	c := validate.New("PointwisePerChanSym8sxAsym8s")
	p.check(c)
	validate.PerChannel(c, p.OutMultipliers, p.OutShifts, p.OutChannels)
	lo, hi := inputZeroBiasRange[int8]()
	c.ZeroBias("input_zero_bias", p.InputZeroBias, lo, hi)
	lo, hi = outZeroBiasRange[int8]()
	c.ZeroBias("out_zero_bias", p.OutZeroBias, lo, hi)
	if c.Err() == nil {
		validate.Buffer(c, "out", out, p.pixels()*p.OutChannels)
		validate.Buffer(c, "input", in, p.pixels()*p.InputChannels)
		validate.Buffer(c, "kernel", kernel, p.OutChannels*p.InputChannels)
		validate.OptionalBuffer(c, "bias", bias, p.OutChannels)
	}
	if err := c.Err(); err != nil {
		return err
	}
	return matvec.MatMulSym8sxAsym8s(out, kernel, in, bias, p.matMul())
}

// PointwiseF32 runs a float32 1x1 convolution as a single Gemm.
func PointwiseF32(out, in, kernel, bias []float32, p PointwiseParams) error {
	c := validate.New("PointwiseF32")
	p.check(c)
	if c.Err() == nil {
		validate.Buffer(c, "out", out, p.pixels()*p.OutChannels)
		validate.Buffer(c, "input", in, p.pixels()*p.InputChannels)
		validate.Buffer(c, "kernel", kernel, p.OutChannels*p.InputChannels)
		validate.OptionalBuffer(c, "bias", bias, p.OutChannels)
	}
	if err := c.Err(); err != nil {
		return err
	}

	hw, ic, oc := p.pixels(), p.InputChannels, p.OutChannels
	x := blas32.General{Rows: hw, Cols: ic, Stride: ic, Data: in[:hw*ic]}
	k := blas32.General{Rows: oc, Cols: ic, Stride: ic, Data: kernel[:oc*ic]}
	if p.OutFormat == NCHW {
		y := blas32.General{Rows: oc, Cols: hw, Stride: hw, Data: out[:oc*hw]}
		for o := range oc {
			fillBias(y.Data[o*hw:(o+1)*hw], bias, o)
		}
		blas32.Gemm(blas.NoTrans, blas.Trans, 1, k, x, 1, y)
		return nil
	}
	y := blas32.General{Rows: hw, Cols: oc, Stride: oc, Data: out[:hw*oc]}
	for i := range hw {
		if bias != nil {
			copy(y.Data[i*oc:(i+1)*oc], bias)
		} else {
			clear(y.Data[i*oc : (i+1)*oc])
		}
	}
	blas32.Gemm(blas.NoTrans, blas.Trans, 1, x, k, 1, y)
	return nil
}

func fillBias(dst, bias []float32, o int) {
	var b float32
	if bias != nil {
		b = bias[o]
	}
	for i := range dst {
		dst[i] = b
	}
}
