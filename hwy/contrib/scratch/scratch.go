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

// Package scratch manages the caller-provided scratch memory of the
// convolution kernels.
//
// Kernels never allocate. A convolution call carves its ring buffer,
// reordered kernel and per-column patch buffers out of one []byte the
// caller sized with the matching ScratchSize query. Arena is a bump
// allocator over that region; Sizer replays the same allocation sequence
// to compute the worst-case size, including alignment slack, so a size
// query is valid for any base address.
//
// Running out of scratch is a fatal misconfiguration, so Alloc panics
// instead of returning an error.
package scratch

import (
	"fmt"
	"unsafe"

	"github.com/ajroetker/go-nnlib/hwy"
)

// Elem is the set of element types that may live in scratch memory.
// Only pointer-free types are allowed since the backing store is []byte.
type Elem interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Alignment returns the byte alignment of every Alloc, the current vector
// width.
func Alignment() int {
	return hwy.CurrentWidth()
}

// Arena is a bump allocator over a caller-owned byte slice.
type Arena struct {
	buf []byte
	off int
}

// NewArena returns an Arena over buf.
func NewArena(buf []byte) *Arena {
	return &Arena{buf: buf}
}

// Used returns the number of bytes consumed so far, including padding.
func (a *Arena) Used() int { return a.off }

// Len returns the size of the backing region.
func (a *Arena) Len() int { return len(a.buf) }

// Alloc returns n elements of T carved from a, aligned to Alignment().
// The memory is not cleared. Alloc panics if the region is too small.
func Alloc[T Elem](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	align := Alignment()
	baseMod := int(base % uintptr(align))
	start := hwy.AlignUp(baseMod+a.off, align) - baseMod
	end := start + n*size
	if end > len(a.buf) {
		panic(fmt.Sprintf("scratch: need %d bytes at offset %d, region holds %d", n*size, start, len(a.buf)))
	}
	a.off = end
	return unsafe.Slice((*T)(unsafe.Pointer(&a.buf[start])), n)
}

// Sizer accumulates the worst-case byte size of a sequence of Alloc calls.
type Sizer struct {
	n int
}

// Reserve accounts for an Alloc[T](a, n) and returns s.
func Reserve[T Elem](s *Sizer, n int) *Sizer {
	if n <= 0 {
		return s
	}
	var zero T
	s.n += n*int(unsafe.Sizeof(zero)) + Alignment() - 1
	return s
}

// Bytes returns the accumulated size.
func (s *Sizer) Bytes() int { return s.n }
