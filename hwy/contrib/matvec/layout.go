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
	"unsafe"

	"github.com/ajroetker/go-nnlib/hwy"
)

// Layout identifies the alignment case of a call.
type Layout uint8

const (
	// LayoutAligned: matrix rows and vector both start on vector-width
	// boundaries.
	LayoutAligned Layout = iota
	// LayoutVecAligned: only the vector is aligned.
	LayoutVecAligned
	// LayoutMatAligned: only the matrix rows are aligned.
	LayoutMatAligned
	// LayoutUnaligned: neither is aligned.
	LayoutUnaligned
)

func (l Layout) String() string {
	switch l {
	case LayoutAligned:
		return "aligned"
	case LayoutVecAligned:
		return "vec-aligned"
	case LayoutMatAligned:
		return "mat-aligned"
	case LayoutUnaligned:
		return "unaligned"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

// SelectLayout returns the alignment case for a matrix with the given row
// stride (in elements) against vectors spaced vecOffset elements apart.
// The matrix counts as aligned only if every row start is aligned.
func SelectLayout[M, V any](mat []M, rowStride int, vec []V, vecOffset int) Layout {
	w := hwy.CurrentWidth()
	var m M
	var v V
	matOK := hwy.IsAligned(mat, w) && (rowStride*int(unsafe.Sizeof(m)))%w == 0
	vecOK := hwy.IsAligned(vec, w) && (vecOffset*int(unsafe.Sizeof(v)))%w == 0
	switch {
	case matOK && vecOK:
		return LayoutAligned
	case vecOK:
		return LayoutVecAligned
	case matOK:
		return LayoutMatAligned
	default:
		return LayoutUnaligned
	}
}

// kernel is one alignment variant of the row-by-vector loop body.
type kernel[M, V Operand, A hwy.Accumulators] interface {
	// dot4 returns the zero-bias corrected products of four rows with vec.
	dot4(r0, r1, r2, r3 []M, vec []V, mOff, vOff A) (A, A, A, A)
	// dot1 is the single-row tail.
	dot1(row []M, vec []V, mOff, vOff A) A
	layout() Layout
}

// loader widens one lane group of S into A lanes, adding the offset.
type loader[A hwy.Accumulators, S Operand] interface {
	load(src []S, off A) hwy.Vec[A]
}

// direct loads straight from the operand stream.
type direct[A hwy.Accumulators, S Operand] struct{}

func (direct[A, S]) load(src []S, off A) hwy.Vec[A] {
	return hwy.LoadWiden(src, off)
}

// staged copies the lane group into a local buffer first, the way an
// unaligned stream is primed before a full-width load.
type staged[A hwy.Accumulators, S Operand] struct{}

func (staged[A, S]) load(src []S, off A) hwy.Vec[A] {
	var buf [hwy.MaxLanes]S
	n := copy(buf[:hwy.NumLanes[A]()], src)
	return hwy.LoadWiden(buf[:n], off)
}

// grouped is the loop body shared by the four variants; LM and LV fix how
// the matrix and vector streams are loaded.
type grouped[M, V Operand, A hwy.Accumulators, LM loader[A, M], LV loader[A, V]] struct {
	tag Layout
}

func (g grouped[M, V, A, LM, LV]) layout() Layout { return g.tag }

func (g grouped[M, V, A, LM, LV]) dot4(r0, r1, r2, r3 []M, vec []V, mOff, vOff A) (s0, s1, s2, s3 A) {
	var lm LM
	var lv LV
	n := len(vec)
	lanes := hwy.NumLanes[A]()
	a0, a1, a2, a3 := hwy.Zero[A](), hwy.Zero[A](), hwy.Zero[A](), hwy.Zero[A]()

	i := 0
	for ; i+lanes <= n; i += lanes {
		v := lv.load(vec[i:], vOff)
		a0 = hwy.MulAdd(lm.load(r0[i:], mOff), v, a0)
		a1 = hwy.MulAdd(lm.load(r1[i:], mOff), v, a1)
		a2 = hwy.MulAdd(lm.load(r2[i:], mOff), v, a2)
		a3 = hwy.MulAdd(lm.load(r3[i:], mOff), v, a3)
	}
	s0, s1, s2, s3 = hwy.ReduceSum(a0), hwy.ReduceSum(a1), hwy.ReduceSum(a2), hwy.ReduceSum(a3)

	for ; i < n; i++ {
		v := A(vec[i]) + vOff
		s0 += (A(r0[i]) + mOff) * v
		s1 += (A(r1[i]) + mOff) * v
		s2 += (A(r2[i]) + mOff) * v
		s3 += (A(r3[i]) + mOff) * v
	}
	return s0, s1, s2, s3
}

func (g grouped[M, V, A, LM, LV]) dot1(row []M, vec []V, mOff, vOff A) A {
	var lm LM
	var lv LV
	n := len(vec)
	lanes := hwy.NumLanes[A]()
	acc := hwy.Zero[A]()

	i := 0
	for ; i+lanes <= n; i += lanes {
		acc = hwy.MulAdd(lm.load(row[i:], mOff), lv.load(vec[i:], vOff), acc)
	}
	sum := hwy.ReduceSum(acc)

	for ; i < n; i++ {
		sum += (A(row[i]) + mOff) * (A(vec[i]) + vOff)
	}
	return sum
}

// kernelFor returns the loop body for layout l.
func kernelFor[M, V Operand, A hwy.Accumulators](l Layout) kernel[M, V, A] {
	switch l {
	case LayoutAligned:
		return grouped[M, V, A, direct[A, M], direct[A, V]]{tag: l}
	case LayoutVecAligned:
		return grouped[M, V, A, staged[A, M], direct[A, V]]{tag: l}
	case LayoutMatAligned:
		return grouped[M, V, A, direct[A, M], staged[A, V]]{tag: l}
	default:
		return grouped[M, V, A, staged[A, M], staged[A, V]]{tag: LayoutUnaligned}
	}
}
