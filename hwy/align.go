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

import "unsafe"

// channelGranuleBytes is the SIMD granularity channel dimensions are padded
// to. It is fixed at 128 bits on every level so packed layouts are portable.
const channelGranuleBytes = 16

// AlignUp rounds n up to the next multiple of m.
func AlignUp(n, m int) int {
	return (n + m - 1) / m * m
}

// IsAligned reports whether the first element of s sits on an n-byte
// boundary. An empty slice is treated as aligned.
func IsAligned[T any](s []T, n int) bool {
	if len(s) == 0 || n <= 1 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))%uintptr(n) == 0
}

// AlignedSlice allocates a zeroed slice of n elements whose backing array
// starts on an align-byte boundary.
func AlignedSlice[T any](n, align int) []T {
	if n == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || align <= size {
		return make([]T, n)
	}
	// Over-allocate by enough elements to slide to the next boundary.
	extra := (align + size - 1) / size
	buf := make([]T, n+extra)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	off := 0
	if mod := addr % uintptr(align); mod != 0 {
		off = int((uintptr(align) - mod) / uintptr(size))
	}
	return buf[off : off+n : off+n]
}

// ChannelGranule returns the number of T elements channel dimensions are
// padded to: 16 for 8-bit, 8 for 16-bit and 4 for 32-bit elements.
func ChannelGranule[T any]() int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size >= channelGranuleBytes {
		return 1
	}
	return channelGranuleBytes / size
}

// PadChannels rounds a channel count up to ChannelGranule[T]().
func PadChannels[T any](channels int) int {
	return AlignUp(channels, ChannelGranule[T]())
}
