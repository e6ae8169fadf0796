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

package hwy

import (
	"testing"

	"github.com/go-logr/logr/testr"
)

func TestNumLanes(t *testing.T) {
	w := CurrentWidth()
	if got, want := NumLanes[int32](), min(w/4, MaxLanes); got != want {
		t.Errorf("NumLanes[int32]() = %d, want %d", got, want)
	}
	if got, want := NumLanes[int64](), min(w/8, MaxLanes); got != want {
		t.Errorf("NumLanes[int64]() = %d, want %d", got, want)
	}
	if NumLanes[float64]() < 1 {
		t.Errorf("NumLanes[float64]() must be at least 1")
	}
}

func TestLoadWidenAddsOffset(t *testing.T) {
	src := []int8{-128, -1, 0, 1, 127, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	v := LoadWiden[int32](src, 128)
	n := v.NumLanes()
	if n != min(NumLanes[int32](), len(src)) {
		t.Fatalf("lanes = %d", n)
	}
	for i := range n {
		if got, want := v.Get(i), int32(src[i])+128; got != want {
			t.Errorf("lane %d: got %d, want %d", i, got, want)
		}
	}
}

func TestMulAddReduceSum(t *testing.T) {
	n := NumLanes[int32]()
	a := make([]int32, n)
	b := make([]int32, n)
	var want int32
	for i := range n {
		a[i] = int32(i + 1)
		b[i] = int32(2*i - 3)
		want += a[i]*b[i] + 7
	}
	acc := MulAdd(Load(a), Load(b), Set[int32](7))
	if got := ReduceSum(acc); got != want {
		t.Errorf("ReduceSum = %d, want %d", got, want)
	}

	out := make([]int32, n)
	Store(Add(Load(a), Zero[int32]()), out)
	for i := range n {
		if out[i] != a[i] {
			t.Errorf("Store lane %d: got %d, want %d", i, out[i], a[i])
		}
	}
	m := Mul(Load(a), Load(a))
	for i := range n {
		if m.Get(i) != a[i]*a[i] {
			t.Errorf("Mul lane %d: got %d", i, m.Get(i))
		}
	}
}

func TestMulAddWrapsLikeScalar(t *testing.T) {
	n := NumLanes[int32]()
	big := make([]int32, n)
	for i := range big {
		big[i] = 1 << 30
	}
	x := int32(1 << 30)
	var want int32
	for range n {
		want += x * 4
	}
	got := ReduceSum(MulAdd(Load(big), Set[int32](4), Zero[int32]()))
	if got != want {
		t.Errorf("wrapped sum = %d, want %d", got, want)
	}
}

func TestDispatchLevelString(t *testing.T) {
	if CurrentName() == "" {
		t.Fatal("empty dispatch name")
	}
	if CurrentLevel().String() != CurrentName() {
		t.Errorf("level %q does not match name %q", CurrentLevel(), CurrentName())
	}
	if CurrentWidth() < 16 {
		t.Errorf("width %d below the 16-byte minimum", CurrentWidth())
	}
	if got := DispatchLevel(99).String(); got != "unknown(99)" {
		t.Errorf("String() = %q", got)
	}
}

func TestNoSimdEnv(t *testing.T) {
	t.Setenv("HWY_NO_SIMD", "1")
	if !NoSimdEnv() {
		t.Error("HWY_NO_SIMD=1 not honored")
	}
	t.Setenv("HWY_NO_SIMD", "false")
	if NoSimdEnv() {
		t.Error("HWY_NO_SIMD=false treated as set")
	}
}

func TestSetLogger(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)
	SetLogger(testr.NewWithOptions(t, testr.Options{Verbosity: 1}))
	if !Logger().V(1).Enabled() {
		t.Error("installed logger not returned")
	}
}
