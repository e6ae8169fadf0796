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

package dot

import (
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// Params describes VecCount dot products of length VecLen. Input vector i
// starts at element i*VecLen of each input.
type Params struct {
	VecLen   int
	VecCount int

	// ZeroBias1 and ZeroBias2 are added to every element of the first and
	// second input (the negated zero points). Ignored by symmetric kernels.
	ZeroBias1 int32
	ZeroBias2 int32

	OutMultiplier int32
	OutShift      int
	OutZeroBias   int32
	Rounding      fixedpoint.RoundingPolicy
}

func (p *Params) check(c *validate.Checker) {
	c.Positive("vec_length", p.VecLen).Positive("vec_count", p.VecCount)
	c.Multiplier("out_multiplier", p.OutMultiplier).Shift("out_shift", p.OutShift)
}

// DotProdAsym8s computes out[i] = requant(Σ (a+zb1)(b+zb2) + bias[i]) for
// every vector i, with asymmetric int8 inputs and output. bias may be nil.
func DotProdAsym8s(out, a, b []int8, bias []int32, p Params) error {
	c := validate.New("DotProdAsym8s")
	p.check(c)
	c.ZeroBias("inp1_zero_bias", p.ZeroBias1, -127, 128).ZeroBias("inp2_zero_bias", p.ZeroBias2, -127, 128)
	c.ZeroBias("out_zero_bias", p.OutZeroBias, -128, 127)
	validate.Buffer(c, "out", out, p.VecCount)
	validate.Buffer(c, "inp1", a, p.VecLen*p.VecCount)
	validate.Buffer(c, "inp2", b, p.VecLen*p.VecCount)
	validate.OptionalBuffer(c, "bias", bias, p.VecCount)
	if err := c.Err(); err != nil {
		return err
	}

	for i := range p.VecCount {
		lo, hi := i*p.VecLen, (i+1)*p.VecLen
		acc := Quantized(a[lo:hi], b[lo:hi], p.ZeroBias1, p.ZeroBias2)
		if bias != nil {
			acc += bias[i]
		}
		out[i] = fixedpoint.Requantize[int8](acc, p.OutMultiplier, p.OutShift, p.OutZeroBias, p.Rounding)
	}
	return nil
}

// DotProd16x16Asym8s computes symmetric int16 dot products into asymmetric
// int8 outputs. Products are accumulated in 64 bits.
func DotProd16x16Asym8s(out []int8, a, b []int16, bias []int32, p Params) error {
	c := validate.New("DotProd16x16Asym8s")
	p.check(c)
	c.ZeroBias("out_zero_bias", p.OutZeroBias, -128, 127)
	validate.Buffer(c, "out", out, p.VecCount)
	validate.Buffer(c, "inp1", a, p.VecLen*p.VecCount)
	validate.Buffer(c, "inp2", b, p.VecLen*p.VecCount)
	validate.OptionalBuffer(c, "bias", bias, p.VecCount)
	if err := c.Err(); err != nil {
		return err
	}

	for i := range p.VecCount {
		lo, hi := i*p.VecLen, (i+1)*p.VecLen
		acc := Quantized[int64](a[lo:hi], b[lo:hi], 0, 0)
		if bias != nil {
			acc += int64(bias[i])
		}
		out[i] = fixedpoint.Requantize64[int8](acc, p.OutMultiplier, p.OutShift, p.OutZeroBias)
	}
	return nil
}

// DotProdF32 computes out[i] = Dot(a_i, b_i) + bias[i]. bias may be nil.
// Quantization fields of p are ignored.
func DotProdF32(out, a, b, bias []float32, p Params) error {
	c := validate.New("DotProdF32")
	c.Positive("vec_length", p.VecLen).Positive("vec_count", p.VecCount)
	validate.Buffer(c, "out", out, p.VecCount)
	validate.Buffer(c, "inp1", a, p.VecLen*p.VecCount)
	validate.Buffer(c, "inp2", b, p.VecLen*p.VecCount)
	validate.OptionalBuffer(c, "bias", bias, p.VecCount)
	if err := c.Err(); err != nil {
		return err
	}

	for i := range p.VecCount {
		lo, hi := i*p.VecLen, (i+1)*p.VecLen
		out[i] = Dot(a[lo:hi], b[lo:hi])
		if bias != nil {
			out[i] += bias[i]
		}
	}
	return nil
}
