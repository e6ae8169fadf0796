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

package nn

import (
	"fmt"

	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
)

// ElementwiseParams holds the fixed-point parameters of an int8 binary
// elementwise operator.
//
// Add rescales both inputs to a common scale before summing:
//
//	x1 = MBQM((in1 + Input1ZeroBias) << LeftShift, Input1Multiplier, Input1Shift)
//	x2 = MBQM((in2 + Input2ZeroBias) << LeftShift, Input2Multiplier, Input2Shift)
//	out = clamp(MBQM(x1 + x2, OutMultiplier, OutShift) + OutZeroBias)
//
// Mul multiplies the zero-bias corrected inputs directly; the input
// multipliers, shifts and LeftShift are ignored:
//
//	out = clamp(MBQM((in1 + Input1ZeroBias) * (in2 + Input2ZeroBias), OutMultiplier, OutShift) + OutZeroBias)
//
// The result is clamped to [ActivationMin, ActivationMax]; use -128 and
// 127 for no activation.
type ElementwiseParams struct {
	Input1ZeroBias   int32
	Input1Multiplier int32
	Input1Shift      int
	Input2ZeroBias   int32
	Input2Multiplier int32
	Input2Shift      int
	LeftShift        int

	OutZeroBias   int32
	OutMultiplier int32
	OutShift      int
	ActivationMin int32
	ActivationMax int32

	Rounding fixedpoint.RoundingPolicy
}

func (p *ElementwiseParams) check(c *validate.Checker, add bool) {
	c.ZeroBias("inp1_zero_bias", p.Input1ZeroBias, -127, 128).ZeroBias("inp2_zero_bias", p.Input2ZeroBias, -127, 128)
	if add {
		c.Multiplier("inp1_multiplier", p.Input1Multiplier).Shift("inp1_left_shift", p.Input1Shift)
		c.Multiplier("inp2_multiplier", p.Input2Multiplier).Shift("inp2_left_shift", p.Input2Shift)
		c.Range("left_shift", p.LeftShift, 0, 23)
	}
	c.ZeroBias("out_zero_bias", p.OutZeroBias, -128, 127)
	c.Multiplier("out_multiplier", p.OutMultiplier).Shift("out_shift", p.OutShift)
	c.ZeroBias("out_activation_min", p.ActivationMin, -128, 127).ZeroBias("out_activation_max", p.ActivationMax, -128, 127)
	c.Check(p.ActivationMin <= p.ActivationMax, "out_activation_min", validate.ErrOutOfRange,
		fmt.Sprintf("%d > out_activation_max %d", p.ActivationMin, p.ActivationMax))
}

func (p *ElementwiseParams) clamp(v int32) int8 {
	return int8(min(max(v, p.ActivationMin), p.ActivationMax))
}

func (p *ElementwiseParams) add(a, b int8) int8 {
	x := fixedpoint.MultiplyByQuantizedMultiplier((int32(a)+p.Input1ZeroBias)<<p.LeftShift, p.Input1Multiplier, p.Input1Shift, p.Rounding)
	y := fixedpoint.MultiplyByQuantizedMultiplier((int32(b)+p.Input2ZeroBias)<<p.LeftShift, p.Input2Multiplier, p.Input2Shift, p.Rounding)
	return p.clamp(fixedpoint.MultiplyByQuantizedMultiplier(x+y, p.OutMultiplier, p.OutShift, p.Rounding) + p.OutZeroBias)
}

func (p *ElementwiseParams) mul(a, b int8) int8 {
	v := (int32(a) + p.Input1ZeroBias) * (int32(b) + p.Input2ZeroBias)
	return p.clamp(fixedpoint.MultiplyByQuantizedMultiplier(v, p.OutMultiplier, p.OutShift, p.Rounding) + p.OutZeroBias)
}

func elementwise(op string, out, in1, in2 []int8, n int, p *ElementwiseParams, add bool, f func(a, b int8) int8) error {
	c := validate.New(op)
	c.Positive("num_elm", n)
	p.check(c, add)
	if c.Err() == nil {
		validate.Buffer(c, "out", out, n)
		validate.Buffer(c, "inp1", in1, n)
		validate.Buffer(c, "inp2", in2, n)
	}
	if err := c.Err(); err != nil {
		return err
	}
	in1, in2 = in1[:n], in2[:n]
	for i, a := range in1 {
		out[i] = f(a, in2[i])
	}
	return nil
}

// AddAsym8s adds n asymmetric int8 elements of in1 and in2.
func AddAsym8s(out, in1, in2 []int8, n int, p ElementwiseParams) error {
	return elementwise("AddAsym8s", out, in1, in2, n, &p, true, p.add)
}

// MulAsym8s multiplies n asymmetric int8 elements of in1 and in2.
func MulAsym8s(out, in1, in2 []int8, n int, p ElementwiseParams) error {
	return elementwise("MulAsym8s", out, in1, in2, n, &p, false, p.mul)
}

// Shape4D is a 4-dimensional tensor shape, outermost dimension first.
type Shape4D [4]int

// Len returns the number of elements.
func (s Shape4D) Len() int { return s[0] * s[1] * s[2] * s[3] }

// broadcastStrides returns the element strides of a tensor of shape s
// read as a tensor of shape out: 0 along broadcast dimensions.
func (s Shape4D) broadcastStrides(out Shape4D) ([4]int, bool) {
	var strides [4]int
	stride := 1
	for d := 3; d >= 0; d-- {
		switch s[d] {
		case out[d]:
			strides[d] = stride
		case 1:
		default:
			return strides, false
		}
		stride *= s[d]
	}
	return strides, true
}

func broadcast(op string, out []int8, outShape Shape4D, in1 []int8, shape1 Shape4D, in2 []int8, shape2 Shape4D, p *ElementwiseParams, add bool, f func(a, b int8) int8) error {
	c := validate.New(op)
	for d := range 4 {
		c.Positive(fmt.Sprintf("out_shape[%d]", d), outShape[d])
		c.Positive(fmt.Sprintf("inp1_shape[%d]", d), shape1[d])
		c.Positive(fmt.Sprintf("inp2_shape[%d]", d), shape2[d])
	}
	p.check(c, add)
	s1, ok1 := shape1.broadcastStrides(outShape)
	s2, ok2 := shape2.broadcastStrides(outShape)
	c.Check(ok1, "inp1_shape", validate.ErrShape, fmt.Sprintf("%v does not broadcast to %v", shape1, outShape))
	c.Check(ok2, "inp2_shape", validate.ErrShape, fmt.Sprintf("%v does not broadcast to %v", shape2, outShape))
	if c.Err() == nil {
		validate.Buffer(c, "out", out, outShape.Len())
		validate.Buffer(c, "inp1", in1, shape1.Len())
		validate.Buffer(c, "inp2", in2, shape2.Len())
	}
	if err := c.Err(); err != nil {
		return err
	}

	i := 0
	for d0 := range outShape[0] {
		for d1 := range outShape[1] {
			for d2 := range outShape[2] {
				o1 := d0*s1[0] + d1*s1[1] + d2*s1[2]
				o2 := d0*s2[0] + d1*s2[1] + d2*s2[2]
				for d3 := range outShape[3] {
					out[i] = f(in1[o1+d3*s1[3]], in2[o2+d3*s2[3]])
					i++
				}
			}
		}
	}
	return nil
}

// AddBroadcast4DAsym8s is AddAsym8s over 4D tensors whose shapes broadcast
// to outShape: every input dimension either equals the output dimension
// or is 1.
func AddBroadcast4DAsym8s(out []int8, outShape Shape4D, in1 []int8, shape1 Shape4D, in2 []int8, shape2 Shape4D, p ElementwiseParams) error {
	return broadcast("AddBroadcast4DAsym8s", out, outShape, in1, shape1, in2, shape2, &p, true, p.add)
}

// MulBroadcast4DAsym8s is MulAsym8s over broadcast 4D tensors.
func MulBroadcast4DAsym8s(out []int8, outShape Shape4D, in1 []int8, shape1 Shape4D, in2 []int8, shape2 Shape4D, p ElementwiseParams) error {
	return broadcast("MulBroadcast4DAsym8s", out, outShape, in1, shape1, in2, shape2, &p, false, p.mul)
}
