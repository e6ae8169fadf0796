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
	"github.com/samber/lo"

	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/matvec"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
	"github.com/ajroetker/go-nnlib/hwy/contrib/workerpool"
)

// FCParams describes a fully connected layer: OutDepth weight rows of
// InputDepth elements each, applied to one input of InputDepth elements.
type FCParams struct {
	InputDepth int
	OutDepth   int

	InputZeroBias  int32
	WeightZeroBias int32

	OutMultiplier  int32
	OutShift       int
	OutMultipliers []int32
	OutShifts      []int32
	OutZeroBias    int32

	Rounding fixedpoint.RoundingPolicy
}

func (p *FCParams) matvec() matvec.Params {
	return matvec.Params{
		Rows:           p.OutDepth,
		Cols1:          p.InputDepth,
		RowStride1:     p.InputDepth,
		MatZeroBias1:   p.WeightZeroBias,
		VecZeroBias1:   p.InputZeroBias,
		OutMultiplier:  p.OutMultiplier,
		OutShift:       p.OutShift,
		OutMultipliers: p.OutMultipliers,
		OutShifts:      p.OutShifts,
		OutZeroBias:    p.OutZeroBias,
		Rounding:       p.Rounding,
	}
}

func (p *FCParams) matMul(batch int) matvec.MatMulParams {
	return matvec.MatMulParams{
		Params:    p.matvec(),
		VecCount:  batch,
		VecOffset: p.InputDepth,
		OutOffset: p.OutDepth,
	}
}

// FullyConnectedAsym8s computes out = requant(weights·in + bias) with
// asymmetric int8 weights, input and output.
func FullyConnectedAsym8s(out, weights, in []int8, bias []int32, p FCParams) error {
	return matvec.MatXVecAsym8s(out, weights, nil, in, nil, bias, p.matvec())
}

// FullyConnectedSym8sxAsym8s is FullyConnectedAsym8s with symmetric int8
// weights quantized per output channel. WeightZeroBias is ignored.
func FullyConnectedSym8sxAsym8s(out, weights, in []int8, bias []int32, p FCParams) error {
	return matvec.MatXVecSym8sxAsym8s(out, weights, in, bias, p.matvec())
}

// FullyConnectedSym8sxSym16s computes a layer with int8 weights and int16
// activations, accumulating in int64. Zero biases are ignored.
func FullyConnectedSym8sxSym16s(out []int16, weights []int8, in []int16, bias []int64, p FCParams) error {
	return matvec.MatXVecSym8sxSym16s(out, weights, in, bias, p.matvec())
}

// FullyConnectedF32 computes out = weights·in + bias in float32.
func FullyConnectedF32(out, weights, in, bias []float32, p FCParams) error {
	return matvec.MatXVecF32(out, weights, nil, in, nil, bias, p.matvec())
}

// FullyConnectedBatchAsym8s applies one layer to batch inputs stored back to
// back in in, writing batch outputs back to back in out. Each input is
// checked for alignment on its own.
func FullyConnectedBatchAsym8s(out, weights, in []int8, bias []int32, batch int, p FCParams) error {
	c := validate.New("FullyConnectedBatchAsym8s")
	c.Positive("batch", batch).Positive("input_depth", p.InputDepth).Positive("out_depth", p.OutDepth)
	if c.Err() == nil {
		validate.Buffer(c, "input", in, batch*p.InputDepth)
		validate.Buffer(c, "out", out, batch*p.OutDepth)
	}
	if err := c.Err(); err != nil {
		return err
	}
	vecs := lo.Chunk(in[:batch*p.InputDepth], p.InputDepth)
	outs := lo.Times(batch, func(i int) []int8 {
		return out[i*p.OutDepth : (i+1)*p.OutDepth]
	})
	return matvec.MatXVecBatchAsym8s(outs, weights, vecs, bias, p.matvec())
}

// ParallelFullyConnectedAsym8s is FullyConnectedBatchAsym8s with the batch
// split across pool.
func ParallelFullyConnectedAsym8s(pool workerpool.Executor, out, weights, in []int8, bias []int32, batch int, p FCParams) error {
	return matvec.ParallelMatMul(pool, out, weights, in, bias, p.matMul(batch))
}
