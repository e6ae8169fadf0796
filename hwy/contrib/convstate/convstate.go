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

// Package convstate implements the sliding input window of the
// convolution drivers as a ring buffer of padded input columns.
//
// A window holds the WindowWidth most recent input columns. Each column is
// stored padded: PadTop rows of PadValue, the InputHeight rows of the
// column, PadBottom rows of PadValue, every row DepthPadded elements wide
// (channels beyond Depth hold PadValue). Columns outside the input, the
// left and right padding, are all PadValue.
//
// Lifecycle:
//
//	n := convstate.Size[int8](cfg)           // caller sizes scratch
//	st := convstate.New(scratchSlice, cfg)   // initialized, nothing advanced
//	for x := -cfg.PadLeft; ...; x++ {
//		st.Advance(input, x)                 // one column, wraps in place
//		st.Patch(row, kh, dst)               // receptive field, oldest first
//	}
//
// Columns are advanced strictly one after another; a rewind or a skip is
// a programming error and panics, as does an undersized buffer. Reads
// never see a wrapped view: Window and Patch copy the logically contiguous
// columns, oldest to newest, into a caller buffer.
package convstate

import (
	"fmt"

	"github.com/ajroetker/go-nnlib/hwy/contrib/scratch"
)

// Config fixes the geometry of a window.
type Config struct {
	Depth       int
	DepthPadded int
	InputWidth  int
	InputHeight int
	PadTop      int
	PadBottom   int
	// PadLeft is the number of padding columns before input column 0; the
	// first Advance must be for column -PadLeft. A negative PadLeft starts
	// the window inside the input.
	PadLeft     int
	WindowWidth int
	// PadValue fills padding rows, padding columns and padded channels.
	// For quantized data it is the input zero point.
	PadValue int32
}

// Rows returns the padded column height.
func (c Config) Rows() int { return c.PadTop + c.InputHeight + c.PadBottom }

// ColumnLen returns the number of elements of one padded column.
func (c Config) ColumnLen() int { return c.Rows() * c.DepthPadded }

func (c Config) validate() error {
	switch {
	case c.Depth <= 0 || c.DepthPadded < c.Depth:
		return fmt.Errorf("convstate: depth %d padded to %d", c.Depth, c.DepthPadded)
	case c.InputWidth <= 0 || c.InputHeight <= 0:
		return fmt.Errorf("convstate: input %dx%d", c.InputHeight, c.InputWidth)
	case c.PadTop < 0 || c.PadBottom < 0:
		return fmt.Errorf("convstate: negative padding %d/%d", c.PadTop, c.PadBottom)
	case c.WindowWidth <= 0:
		return fmt.Errorf("convstate: window width %d", c.WindowWidth)
	}
	return nil
}

// Size returns the number of T elements a window needs.
func Size[T scratch.Elem](c Config) int {
	return c.WindowWidth * c.ColumnLen()
}

// Bytes returns the scratch size of a window in bytes.
func Bytes[T scratch.Elem](c Config) int {
	var s scratch.Sizer
	return scratch.Reserve[T](&s, Size[T](c)).Bytes()
}

// State is an initialized window over caller scratch.
type State[T scratch.Elem] struct {
	cfg    Config
	buf    []T
	colLen int
	pad    T
	// cursor is the element offset the next column is written at.
	cursor   int
	next     int
	advanced int
}

// New initializes a window over buf. It panics if cfg is invalid or buf
// holds fewer than Size[T](cfg) elements.
func New[T scratch.Elem](buf []T, cfg Config) *State[T] {
	if err := cfg.validate(); err != nil {
		panic(err)
	}
	if n := Size[T](cfg); len(buf) < n {
		panic(fmt.Sprintf("convstate: buffer holds %d elements, window needs %d", len(buf), n))
	}
	return &State[T]{
		cfg:    cfg,
		buf:    buf[:Size[T](cfg)],
		colLen: cfg.ColumnLen(),
		pad:    T(cfg.PadValue),
		next:   -cfg.PadLeft,
	}
}

// Config returns the window geometry.
func (s *State[T]) Config() Config { return s.cfg }

// Advanced returns the number of columns advanced so far.
func (s *State[T]) Advanced() int { return s.advanced }

// Full reports whether WindowWidth columns have been advanced.
func (s *State[T]) Full() bool { return s.advanced >= s.cfg.WindowWidth }

// Newest returns the input column index most recently advanced.
func (s *State[T]) Newest() int { return s.next - 1 }

// Oldest returns the input column index of the oldest column held.
func (s *State[T]) Oldest() int { return s.next - min(s.advanced, s.cfg.WindowWidth) }

// Advance copies padded input column col into the window, replacing the
// oldest column once the window is full. input is HWC with Depth channels.
// col must be exactly one past the previous column.
func (s *State[T]) Advance(input []T, col int) {
	if col != s.next {
		panic(fmt.Sprintf("convstate: advance to column %d, expected %d", col, s.next))
	}
	c := &s.cfg
	dst := s.buf[s.cursor : s.cursor+s.colLen]
	inside := col >= 0 && col < c.InputWidth
	for yy := range c.Rows() {
		row := dst[yy*c.DepthPadded : (yy+1)*c.DepthPadded]
		y := yy - c.PadTop
		if !inside || y < 0 || y >= c.InputHeight {
			fill(row, s.pad)
			continue
		}
		src := (y*c.InputWidth + col) * c.Depth
		copy(row, input[src:src+c.Depth])
		fill(row[c.Depth:], s.pad)
	}

	s.cursor += s.colLen
	if s.cursor == len(s.buf) {
		s.cursor = 0
	}
	s.next++
	s.advanced++
}

// slot returns the buffer offset of the i-th held column, oldest first.
func (s *State[T]) slot(i int) int {
	held := min(s.advanced, s.cfg.WindowWidth)
	start := s.cursor - held*s.colLen
	if start < 0 {
		start += len(s.buf)
	}
	off := start + i*s.colLen
	if off >= len(s.buf) {
		off -= len(s.buf)
	}
	return off
}

// Window copies the held columns, oldest first, into dst laid out as
// [column][row][channel] and returns the number of elements written.
func (s *State[T]) Window(dst []T) int {
	held := min(s.advanced, s.cfg.WindowWidth)
	for i := range held {
		off := s.slot(i)
		copy(dst[i*s.colLen:(i+1)*s.colLen], s.buf[off:off+s.colLen])
	}
	return held * s.colLen
}

// Patch copies rows [row, row+rows) of every held column, oldest first,
// into dst laid out as [column][row][channel]. row is in padded
// coordinates. It returns the number of elements written.
func (s *State[T]) Patch(row, rows int, dst []T) int {
	if row < 0 || row+rows > s.cfg.Rows() {
		panic(fmt.Sprintf("convstate: patch rows [%d, %d) outside window of %d rows", row, row+rows, s.cfg.Rows()))
	}
	held := min(s.advanced, s.cfg.WindowWidth)
	n := rows * s.cfg.DepthPadded
	first := row * s.cfg.DepthPadded
	for i := range held {
		off := s.slot(i) + first
		copy(dst[i*n:(i+1)*n], s.buf[off:off+n])
	}
	return held * n
}

func fill[T scratch.Elem](s []T, v T) {
	for i := range s {
		s[i] = v
	}
}
