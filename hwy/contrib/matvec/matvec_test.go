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
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-nnlib/hwy"
	"github.com/ajroetker/go-nnlib/hwy/contrib/fixedpoint"
	"github.com/ajroetker/go-nnlib/hwy/contrib/validate"
	"github.com/ajroetker/go-nnlib/hwy/contrib/workerpool"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(12345))
}

func randInt8s(rng *rand.Rand, n int) []int8 {
	s := make([]int8, n)
	for i := range s {
		s[i] = int8(rng.Intn(256) - 128)
	}
	return s
}

func randUint8s(rng *rand.Rand, n int) []uint8 {
	s := make([]uint8, n)
	for i := range s {
		s[i] = uint8(rng.Intn(256))
	}
	return s
}

func randInt16s(rng *rand.Rand, n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(rng.Intn(65536) - 32768)
	}
	return s
}

func randInt32s(rng *rand.Rand, n, span int) []int32 {
	s := make([]int32, n)
	for i := range s {
		s[i] = int32(rng.Intn(2*span) - span)
	}
	return s
}

// referenceAcc computes the zero-bias corrected products in int64.
func referenceAcc[M, V Operand](mat []M, rows, cols, stride int, vec []V, mzb, vzb int32) []int64 {
	acc := make([]int64, rows)
	for r := range rows {
		for k := range cols {
			acc[r] += (int64(mat[r*stride+k]) + int64(mzb)) * (int64(vec[k]) + int64(vzb))
		}
	}
	return acc
}

func referenceAsym[M, V Operand, O fixedpoint.Narrow](mat []M, vec []V, bias []int32, p Params) []O {
	acc := referenceAcc(mat, p.Rows, p.Cols1, p.RowStride1, vec, p.MatZeroBias1, p.VecZeroBias1)
	rq := p.requantizer()
	out := make([]O, p.Rows)
	for r := range out {
		a := int32(acc[r])
		if bias != nil {
			a += bias[r]
		}
		out[r] = fixedpoint.Apply[O](&rq, a, r)
	}
	return out
}

func TestMatXVecAsym8sUnitScale(t *testing.T) {
	mat := []int8{
		1, 2, 3, 4,
		-5, 6, -7, 8,
		127, 127, 127, 127,
		-128, -128, -128, -128,
	}
	vec := []int8{1, -1, 2, 3}
	out := make([]int8, 4)
	p := Params{
		Rows: 4, Cols1: 4, RowStride1: 4,
		OutMultiplier: 0x40000000, OutShift: 1,
		Rounding: fixedpoint.SingleRounding,
	}
	require.NoError(t, MatXVecAsym8s(out, mat, nil, vec, nil, []int32{0, 0, 0, 0}, p))
	require.Equal(t, []int8{17, -1, 127, -128}, out)

	p.Rounding = fixedpoint.DoubleRounding
	require.NoError(t, MatXVecAsym8s(out, mat, nil, vec, nil, nil, p))
	require.Equal(t, []int8{17, -1, 127, -128}, out)
}

func TestKernelVariantsAgree(t *testing.T) {
	rng := testRNG()
	layouts := []Layout{LayoutAligned, LayoutVecAligned, LayoutMatAligned, LayoutUnaligned}
	for _, rows := range []int{1, 3, 4, 5, 9} {
		for _, cols := range []int{1, 7, 16, 33, 100} {
			stride := cols + 3
			mat := randInt8s(rng, rows*stride)
			vec := randUint8s(rng, cols)
			want := referenceAcc(mat, rows, cols, stride, vec, 17, -128)
			for _, l := range layouts {
				op := operand[int8, uint8, int32]{mat: mat, rowStride: stride, cols: cols, mOff: 17, vOff: -128, k: kernelFor[int8, uint8, int32](l)}
				if op.k.layout() != l {
					t.Fatalf("kernelFor(%v) returned %v", l, op.k.layout())
				}
				j := job[int8, uint8, int32]{rows: rows, vecCount: 1, vecOffset: cols, op1: op, vecs1: vec}
				got := make([]int64, rows)
				j.run(func(r, _ int, acc int32) { got[r] = int64(acc) })
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("rows=%d cols=%d %v mismatch (-want +got):\n%s", rows, cols, l, diff)
				}
			}
		}
	}
}

func TestSelectLayout(t *testing.T) {
	w := hwy.CurrentWidth()
	mat := hwy.AlignedSlice[int8](4*64+1, 64)
	vec := hwy.AlignedSlice[int8](65, 64)
	tests := []struct {
		mat    []int8
		stride int
		vec    []int8
		want   Layout
	}{
		{mat, 64, vec, LayoutAligned},
		{mat[1:], 64, vec, LayoutVecAligned},
		{mat, 64, vec[1:], LayoutMatAligned},
		{mat[1:], 64, vec[1:], LayoutUnaligned},
		{mat, w + 1, vec, LayoutVecAligned},
	}
	for _, tt := range tests {
		if got := SelectLayout(tt.mat, tt.stride, tt.vec, 0); got != tt.want {
			t.Errorf("SelectLayout: got=%v want=%v", got, tt.want)
		}
	}
	require.Equal(t, "Layout(9)", Layout(9).String())
}

func TestAlignmentPathEquivalence(t *testing.T) {
	rng := testRNG()
	const rows, cols, stride = 13, 64, 64
	data := randInt8s(rng, rows*stride)
	vdata := randInt8s(rng, cols)
	bias := randInt32s(rng, rows, 5000)
	p := Params{
		Rows: rows, Cols1: cols, RowStride1: stride,
		MatZeroBias1: -3, VecZeroBias1: 21,
		OutMultiplier: 1518500250, OutShift: -10, OutZeroBias: 5,
	}

	// Each buffer has one spare byte so the same content can sit at an
	// aligned start or one byte past it.
	matBuf := hwy.AlignedSlice[int8](rows*stride+1, 64)
	vecBuf := hwy.AlignedSlice[int8](cols+1, 64)
	place := func(buf, src []int8, off int) []int8 {
		s := buf[off : off+len(src)]
		copy(s, src)
		return s
	}

	var results [][]int8
	for _, off := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		mat := place(matBuf, data, off[0])
		vec := place(vecBuf, vdata, off[1])
		out := make([]int8, rows)
		require.NoError(t, MatXVecAsym8s(out, mat, nil, vec, nil, bias, p))
		results = append(results, out)
	}
	for i := 1; i < len(results); i++ {
		if diff := cmp.Diff(results[0], results[i]); diff != "" {
			t.Errorf("offset case %d differs from aligned (-aligned +got):\n%s", i, diff)
		}
	}
	if diff := cmp.Diff(referenceAsym[int8, int8, int8](data, vdata, bias, p), results[0]); diff != "" {
		t.Errorf("aligned result mismatch (-want +got):\n%s", diff)
	}
}

func TestZeroBiasNeutrality(t *testing.T) {
	rng := testRNG()
	const rows, cols = 7, 29
	mat := randInt8s(rng, rows*cols)
	vec := randInt8s(rng, cols)
	p := Params{Rows: rows, Cols1: cols, RowStride1: cols, OutMultiplier: 1 << 30, OutShift: -6}
	out := make([]int8, rows)
	require.NoError(t, MatXVecAsym8s(out, mat, nil, vec, nil, nil, p))

	want := make([]int8, rows)
	for r := range rows {
		var acc int32
		for k := range cols {
			acc += int32(mat[r*cols+k]) * int32(vec[k])
		}
		want[r] = fixedpoint.Requantize[int8](acc, 1<<30, -6, 0, fixedpoint.RoundingDefault)
	}
	require.Equal(t, want, out)
}

func TestMatXVecAsym8sSecondMatrix(t *testing.T) {
	rng := testRNG()
	p := Params{
		Rows: 6, Cols1: 10, RowStride1: 12, Cols2: 5, RowStride2: 5,
		MatZeroBias1: 4, MatZeroBias2: -9, VecZeroBias1: 1, VecZeroBias2: 128,
		OutMultiplier: 1 << 30, OutShift: -7, OutZeroBias: -2,
	}
	mat1, vec1 := randInt8s(rng, 6*12), randInt8s(rng, 10)
	mat2, vec2 := randInt8s(rng, 6*5), randInt8s(rng, 5)
	out := make([]int8, 6)
	require.NoError(t, MatXVecAsym8s(out, mat1, mat2, vec1, vec2, nil, p))

	a1 := referenceAcc(mat1, 6, 10, 12, vec1, 4, 1)
	a2 := referenceAcc(mat2, 6, 5, 5, vec2, -9, 128)
	for r := range 6 {
		want := fixedpoint.Requantize[int8](int32(a1[r]+a2[r]), 1<<30, -7, -2, fixedpoint.RoundingDefault)
		require.Equal(t, want, out[r], "row %d", r)
	}
}

func TestMatXVecAsym8(t *testing.T) {
	rng := testRNG()
	p := Params{
		Rows: 9, Cols1: 21, RowStride1: 24,
		MatZeroBias1: -128, VecZeroBias1: -200,
		OutMultiplier: 1 << 30, OutShift: -8, OutZeroBias: 128,
	}
	mat, vec := randUint8s(rng, 9*24), randUint8s(rng, 21)
	bias := randInt32s(rng, 9, 1000)
	out := make([]uint8, 9)
	for _, rounding := range []fixedpoint.RoundingPolicy{fixedpoint.SingleRounding, fixedpoint.DoubleRounding} {
		p.Rounding = rounding
		require.NoError(t, MatXVecAsym8(out, mat, nil, vec, nil, bias, p))
		require.Equal(t, referenceAsym[uint8, uint8, uint8](mat, vec, bias, p), out, rounding.String())
	}
}

func TestMatXVecSym8sxAsym8sPerChannel(t *testing.T) {
	rng := testRNG()
	const rows, cols = 11, 40
	mults := make([]int32, rows)
	shifts := make([]int32, rows)
	for r := range rows {
		m, s := fixedpoint.QuantizeMultiplier(rng.Float64() * 0.01)
		mults[r], shifts[r] = m, int32(s)
	}
	p := Params{
		Rows: rows, Cols1: cols, RowStride1: cols,
		MatZeroBias1: 99, // ignored: symmetric weights
		VecZeroBias1: 7, OutMultipliers: mults, OutShifts: shifts, OutZeroBias: -20,
	}
	mat, vec := randInt8s(rng, rows*cols), randInt8s(rng, cols)
	bias := randInt32s(rng, rows, 3000)
	out := make([]int8, rows)
	require.NoError(t, MatXVecSym8sxAsym8s(out, mat, vec, bias, p))

	ref := p
	ref.MatZeroBias1 = 0
	require.Equal(t, referenceAsym[int8, int8, int8](mat, vec, bias, ref), out)
}

func TestMatXVecSym8sxSym16s(t *testing.T) {
	rng := testRNG()
	const rows, cols = 6, 50
	p := Params{Rows: rows, Cols1: cols, RowStride1: cols, OutMultiplier: 1 << 30, OutShift: -12, OutZeroBias: 0}
	mat, vec := randInt8s(rng, rows*cols), randInt16s(rng, cols)
	bias := []int64{0, 1 << 20, -(1 << 20), 5, 0, 1 << 40}
	out := make([]int16, rows)
	require.NoError(t, MatXVecSym8sxSym16s(out, mat, vec, bias, p))

	acc := referenceAcc(mat, rows, cols, cols, vec, 0, 0)
	for r := range rows {
		want := fixedpoint.Requantize64[int16](acc[r]+bias[r], 1<<30, -12, 0)
		require.Equal(t, want, out[r], "row %d", r)
	}
	require.Equal(t, int16(math.MaxInt16), out[5])
}

func TestBatchMatchesSingle(t *testing.T) {
	rng := testRNG()
	const rows, cols, n = 10, 35, 6
	p := Params{
		Rows: rows, Cols1: cols, RowStride1: 40,
		MatZeroBias1: 3, VecZeroBias1: -1,
		OutMultiplier: 1 << 30, OutShift: -8, OutZeroBias: 1, OutStride: 2,
	}
	mat := randInt8s(rng, rows*40)
	bias := randInt32s(rng, rows, 2000)
	vecs := make([][]int8, n)
	outs := make([][]int8, n)
	for i := range vecs {
		vecs[i] = randInt8s(rng, cols)
		outs[i] = make([]int8, 2*rows)
	}
	require.NoError(t, MatXVecBatchAsym8s(outs, mat, vecs, bias, p))
	for i := range vecs {
		single := make([]int8, 2*rows)
		require.NoError(t, MatXVecAsym8s(single, mat, nil, vecs[i], nil, bias, p))
		if diff := cmp.Diff(single, outs[i]); diff != "" {
			t.Errorf("vector %d: batch differs from single (-single +batch):\n%s", i, diff)
		}
	}

	// The strided MatMul form gives the same numbers.
	flat := make([]int8, 0, n*cols)
	for _, v := range vecs {
		flat = append(flat, v...)
	}
	mm := MatMulParams{Params: p, VecCount: n, VecOffset: cols, OutOffset: 1}
	mm.OutStride = n
	out := make([]int8, rows*n)
	require.NoError(t, MatMulAsym8s(out, mat, flat, bias, mm))
	for v := range n {
		for r := range rows {
			require.Equal(t, outs[v][r*2], out[r*n+v], "vec %d row %d", v, r)
		}
	}
}

func TestBatchAsym8MatchesSingle(t *testing.T) {
	rng := testRNG()
	p := Params{Rows: 5, Cols1: 17, RowStride1: 17, MatZeroBias1: -120, VecZeroBias1: -3, OutMultiplier: 1 << 30, OutShift: -9, OutZeroBias: 10}
	mat := randUint8s(rng, 5*17)
	vecs := [][]uint8{randUint8s(rng, 17), randUint8s(rng, 17), randUint8s(rng, 17)}
	outs := [][]uint8{make([]uint8, 5), make([]uint8, 5), make([]uint8, 5)}
	require.NoError(t, MatXVecBatchAsym8(outs, mat, vecs, nil, p))
	for i, v := range vecs {
		single := make([]uint8, 5)
		require.NoError(t, MatXVecAsym8(single, mat, nil, v, nil, nil, p))
		require.Equal(t, single, outs[i])
	}
}

func TestMatMulGenericSym16(t *testing.T) {
	rng := testRNG()
	const rows, cols, n = 5, 9, 4
	p := MatMulParams{
		Params:   Params{Rows: rows, Cols1: cols, RowStride1: cols, OutMultiplier: 1 << 30, OutShift: -5, OutStride: n},
		VecCount: n, VecOffset: cols + 2, OutOffset: 1,
	}
	mat := randInt8s(rng, rows*cols)
	vecs := randInt16s(rng, (n-1)*(cols+2)+cols)
	out := make([]int16, rows*n)
	require.NoError(t, MatMulSym8sxSym16s(out, mat, vecs, nil, p))
	for v := range n {
		single := make([]int16, rows)
		sp := p.Params
		sp.OutStride = 1
		require.NoError(t, MatXVecSym8sxSym16s(single, mat, vecs[v*(cols+2):], nil, sp))
		for r := range rows {
			require.Equal(t, single[r], out[r*n+v])
		}
	}
}

func TestParallelMatMul(t *testing.T) {
	rng := testRNG()
	const rows, cols, n = 16, 48, 37
	p := MatMulParams{
		Params:   Params{Rows: rows, Cols1: cols, RowStride1: cols, MatZeroBias1: 2, VecZeroBias1: -5, OutMultiplier: 1 << 30, OutShift: -9},
		VecCount: n, VecOffset: cols, OutOffset: rows,
	}
	mat := randInt8s(rng, rows*cols)
	vecs := randInt8s(rng, n*cols)
	bias := randInt32s(rng, rows, 100)

	want := make([]int8, rows*n)
	require.NoError(t, MatMul(want, mat, vecs, bias, p))

	pool := workerpool.New(4)
	defer pool.Close()
	got := make([]int8, rows*n)
	require.NoError(t, ParallelMatMul(pool, got, mat, vecs, bias, p))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parallel differs (-sequential +parallel):\n%s", diff)
	}

	inline := make([]int8, rows*n)
	require.NoError(t, ParallelMatMul(nil, inline, mat, vecs, bias, p))
	require.Equal(t, want, inline)

	small := p
	small.VecCount = MinParallelVecs - 1
	smallOut := make([]int8, rows*small.VecCount)
	require.NoError(t, ParallelMatMul(pool, smallOut, mat, vecs, bias, small))
	require.Equal(t, want[:len(smallOut)], smallOut)
}

func TestMatXVecFixed(t *testing.T) {
	rng := testRNG()
	const rows, cols = 7, 19
	mat, vec := randInt8s(rng, rows*cols), randInt8s(rng, cols)
	mat2, vec2 := randInt8s(rng, rows*3), randInt8s(rng, 3)
	bias := randInt8s(rng, rows)

	p := FixedParams{Rows: rows, Cols1: cols, RowStride1: cols, Cols2: 3, RowStride2: 3, AccShift: -6, BiasShift: 4}
	out8 := make([]int8, rows)
	require.NoError(t, MatXVec8x8_8(out8, mat, mat2, vec, vec2, bias, p))
	a1 := referenceAcc(mat, rows, cols, cols, vec, 0, 0)
	a2 := referenceAcc(mat2, rows, 3, 3, vec2, 0, 0)
	for r := range rows {
		acc := a1[r] + a2[r] + int64(bias[r])*16
		want := fixedpoint.Saturate[int8](fixedpoint.ShiftRound64(acc, -6))
		require.Equal(t, want, out8[r], "row %d", r)
	}

	// A left shift saturates the 16-bit result.
	out16 := make([]int16, rows)
	big := make([]int16, cols)
	for i := range big {
		big[i] = 32767
	}
	m16 := make([]int16, rows*cols)
	for i := range m16 {
		m16[i] = 32767
	}
	require.NoError(t, MatXVec16x16_16(out16, m16, nil, big, nil, nil, FixedParams{Rows: rows, Cols1: cols, RowStride1: cols, AccShift: 2}))
	for _, v := range out16 {
		require.Equal(t, int16(math.MaxInt16), v)
	}
	out64 := make([]int64, rows)
	require.NoError(t, MatXVec16x16_64(out64, m16, nil, big, nil, nil, FixedParams{Rows: rows, Cols1: cols, RowStride1: cols}))
	require.Equal(t, int64(cols)*32767*32767, out64[0])

	b16 := []int16{1, 2, 3, 4, 5, 6, 7}
	out32 := make([]int32, rows)
	require.NoError(t, MatXVec8x16_32(out32, mat, nil, big, nil, b16, FixedParams{Rows: rows, Cols1: cols, RowStride1: cols, BiasShift: -1}))
	for r := range rows {
		acc := referenceAcc(mat, rows, cols, cols, big, 0, 0)[r] + fixedpoint.ShiftRound64(int64(b16[r]), -1)
		require.Equal(t, int32(acc), out32[r])
	}
}

func TestMatXVecF32(t *testing.T) {
	rng := testRNG()
	const rows, cols, stride = 8, 13, 16
	mat := make([]float32, rows*stride)
	vec := make([]float32, cols)
	mat2 := make([]float32, rows*2)
	vec2 := []float32{0.5, -2}
	bias := make([]float32, rows)
	for i := range mat {
		mat[i] = rng.Float32()*2 - 1
	}
	for i := range vec {
		vec[i] = rng.Float32()*2 - 1
	}
	for i := range mat2 {
		mat2[i] = rng.Float32()
	}
	for i := range bias {
		bias[i] = float32(i)
	}
	p := Params{Rows: rows, Cols1: cols, RowStride1: stride, Cols2: 2, RowStride2: 2, OutStride: 3}
	out := make([]float32, (rows-1)*3+1)
	require.NoError(t, MatXVecF32(out, mat, mat2, vec, vec2, bias, p))
	for r := range rows {
		var want float64
		for k := range cols {
			want += float64(mat[r*stride+k]) * float64(vec[k])
		}
		want += float64(mat2[r*2])*0.5 - 2*float64(mat2[r*2+1]) + float64(bias[r])
		if math.Abs(float64(out[r*3])-want) > 1e-4 {
			t.Errorf("row %d: got=%v want=%v", r, out[r*3], want)
		}
	}

	vecs := [][]float32{vec, vec2[:1], vec}
	outs := [][]float32{make([]float32, rows), make([]float32, rows), make([]float32, rows)}
	bp := Params{Rows: rows, Cols1: 1, RowStride1: stride}
	require.NoError(t, MatXVecBatchF32(outs, mat, vecs, nil, bp))
	for i, v := range vecs {
		single := make([]float32, rows)
		require.NoError(t, MatXVecF32(single, mat, nil, v, nil, nil, bp))
		require.InDeltaSlice(t, single, outs[i], 1e-4, "vector %d", i)
	}

	mm := MatMulParams{Params: Params{Rows: rows, Cols1: cols, RowStride1: stride}, VecCount: 2, VecOffset: cols, OutOffset: rows}
	flat := append(append([]float32{}, vec...), vec...)
	mmOut := make([]float32, 2*rows)
	require.NoError(t, MatMulF32(mmOut, mat, flat, bias, mm))
	// Gemv may sum in a different order for a vector at another offset.
	require.InDeltaSlice(t, mmOut[:rows], mmOut[rows:], 1e-4)
}

func TestValidation(t *testing.T) {
	good := func() Params {
		return Params{Rows: 4, Cols1: 8, RowStride1: 8, OutMultiplier: 1 << 30}
	}
	mat := make([]int8, 32)
	vec := make([]int8, 8)
	tests := []struct {
		name   string
		mutate func(p *Params)
		mat    []int8
		vec    []int8
		want   error
	}{
		{"rows", func(p *Params) { p.Rows = 0 }, mat, vec, validate.ErrOutOfRange},
		{"cols", func(p *Params) { p.Cols1 = -1 }, mat, vec, validate.ErrOutOfRange},
		{"row_stride", func(p *Params) { p.RowStride1 = 7 }, mat, vec, validate.ErrShape},
		{"shift_high", func(p *Params) { p.OutShift = 32 }, mat, vec, validate.ErrOutOfRange},
		{"shift_low", func(p *Params) { p.OutShift = -32 }, mat, vec, validate.ErrOutOfRange},
		{"multiplier", func(p *Params) { p.OutMultiplier = -1 }, mat, vec, validate.ErrOutOfRange},
		{"mat_zero_bias", func(p *Params) { p.MatZeroBias1 = 129 }, mat, vec, validate.ErrOutOfRange},
		{"vec_zero_bias", func(p *Params) { p.VecZeroBias1 = -128 }, mat, vec, validate.ErrOutOfRange},
		{"out_zero_bias", func(p *Params) { p.OutZeroBias = 128 }, mat, vec, validate.ErrOutOfRange},
		{"nil_mat", func(p *Params) {}, nil, vec, validate.ErrNilBuffer},
		{"short_vec", func(p *Params) {}, mat, vec[:7], validate.ErrBufferTooSmall},
		{"short_mat", func(p *Params) { p.RowStride1 = 9 }, mat, vec, validate.ErrBufferTooSmall},
		{"per_channel_short", func(p *Params) { p.OutMultipliers, p.OutShifts = []int32{1}, []int32{0} }, mat, vec, validate.ErrBufferTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good()
			tt.mutate(&p)
			out := []int8{77, 77, 77, 77}
			err := MatXVecAsym8s(out, tt.mat, nil, tt.vec, nil, nil, p)
			require.ErrorIs(t, err, tt.want)
			require.Equal(t, -1, validate.Status(err))
			require.Equal(t, []int8{77, 77, 77, 77}, out, "output written on failure")
		})
	}

	t.Run("asym8_ranges", func(t *testing.T) {
		u := make([]uint8, 32)
		p := good()
		p.MatZeroBias1 = 1
		require.ErrorIs(t, MatXVecAsym8(make([]uint8, 4), u, nil, u[:8], nil, nil, p), validate.ErrOutOfRange)
		p = good()
		p.MatZeroBias1, p.VecZeroBias1 = -255, -255
		p.OutZeroBias = -1
		require.ErrorIs(t, MatXVecAsym8(make([]uint8, 4), u, nil, u[:8], nil, nil, p), validate.ErrOutOfRange)
		p.OutZeroBias = 255
		require.NoError(t, MatXVecAsym8(make([]uint8, 4), u, nil, u[:8], nil, nil, p))
	})

	t.Run("per_channel_required", func(t *testing.T) {
		err := MatXVecSym8sxAsym8s(make([]int8, 4), mat, vec, nil, good())
		require.ErrorIs(t, err, validate.ErrNilBuffer)
	})

	t.Run("fixed_shift", func(t *testing.T) {
		err := MatXVec8x8_32(make([]int32, 4), mat, nil, vec, nil, nil, FixedParams{Rows: 4, Cols1: 8, RowStride1: 8, AccShift: 40})
		require.ErrorIs(t, err, validate.ErrOutOfRange)
	})

	t.Run("batch_outputs", func(t *testing.T) {
		err := MatXVecBatchAsym8s([][]int8{make([]int8, 4)}, mat, [][]int8{vec, vec}, nil, good())
		require.ErrorIs(t, err, validate.ErrBufferTooSmall)
	})

	t.Run("matmul_vec_offset", func(t *testing.T) {
		p := MatMulParams{Params: good(), VecCount: 2, VecOffset: 4, OutOffset: 4}
		err := MatMulAsym8s(make([]int8, 8), mat, make([]int8, 16), nil, p)
		require.ErrorIs(t, err, validate.ErrShape)
	})
}

func BenchmarkMatXVecAsym8s(b *testing.B) {
	for _, size := range []int{64, 256, 1024} {
		for _, off := range []int{0, 1} {
			b.Run(fmt.Sprintf("%dx%d/offset=%d", size, size, off), func(b *testing.B) {
				rng := testRNG()
				mat := hwy.AlignedSlice[int8](size*size+1, 64)[off:]
				copy(mat, randInt8s(rng, size*size))
				vec := hwy.AlignedSlice[int8](size+1, 64)[off:]
				copy(vec, randInt8s(rng, size))
				out := make([]int8, size)
				p := Params{Rows: size, Cols1: size, RowStride1: size, MatZeroBias1: 3, VecZeroBias1: -7, OutMultiplier: 1 << 30, OutShift: -12}
				b.SetBytes(int64(size * size))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					_ = MatXVecAsym8s(out, mat, nil, vec, nil, nil, p)
				}
			})
		}
	}
}

func BenchmarkMatMulSym8sxSym16s(b *testing.B) {
	rng := testRNG()
	const rows, cols, n = 64, 288, 32
	p := MatMulParams{
		Params:   Params{Rows: rows, Cols1: cols, RowStride1: cols, OutMultiplier: 1 << 30, OutShift: -10},
		VecCount: n, VecOffset: cols, OutOffset: rows,
	}
	mat := randInt8s(rng, rows*cols)
	vecs := randInt16s(rng, n*cols)
	out := make([]int16, rows*n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = MatMulSym8sxSym16s(out, mat, vecs, nil, p)
	}
}
