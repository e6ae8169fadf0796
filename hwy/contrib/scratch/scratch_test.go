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

package scratch

import (
	"testing"

	"github.com/ajroetker/go-nnlib/hwy"
)

func TestArenaAlignsEveryAllocation(t *testing.T) {
	var s Sizer
	Reserve[int8](&s, 3)
	Reserve[int32](&s, 5)
	Reserve[int64](&s, 7)
	Reserve[int16](&s, 0)

	backing := make([]byte, s.Bytes()+hwy.CurrentWidth())
	// Try every base offset so the worst case is exercised.
	for shift := range hwy.CurrentWidth() {
		a := NewArena(backing[shift : shift+s.Bytes()])
		b := Alloc[int8](a, 3)
		c := Alloc[int32](a, 5)
		d := Alloc[int64](a, 7)
		if e := Alloc[int16](a, 0); e != nil {
			t.Fatalf("zero-length Alloc returned %v", e)
		}
		if len(b) != 3 || len(c) != 5 || len(d) != 7 {
			t.Fatalf("shift %d: wrong lengths %d %d %d", shift, len(b), len(c), len(d))
		}
		for name, ok := range map[string]bool{
			"int8":  hwy.IsAligned(b, Alignment()),
			"int32": hwy.IsAligned(c, Alignment()),
			"int64": hwy.IsAligned(d, Alignment()),
		} {
			if !ok {
				t.Errorf("shift %d: %s allocation misaligned", shift, name)
			}
		}
		if a.Used() > a.Len() {
			t.Fatalf("shift %d: used %d of %d", shift, a.Used(), a.Len())
		}
	}
}

func TestArenaAllocationsDoNotOverlap(t *testing.T) {
	a := NewArena(make([]byte, 1024))
	x := Alloc[int32](a, 10)
	y := Alloc[int32](a, 10)
	for i := range x {
		x[i] = 1
		y[i] = 2
	}
	for i := range x {
		if x[i] != 1 {
			t.Fatalf("x[%d] overwritten: %d", i, x[i])
		}
	}
}

func TestArenaPanicsWhenUndersized(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for undersized scratch")
		}
	}()
	a := NewArena(make([]byte, 8))
	Alloc[int64](a, 4)
}
