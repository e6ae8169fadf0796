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

// Package hwy is the portable vector layer shared by the go-nnlib kernels.
//
// It decides once, at init, which dispatch level the host supports and how
// wide its vectors are. Kernels never branch on the instruction set
// themselves: they size their grouped loop bodies with NumLanes and pick
// alignment-specialized paths with IsAligned against CurrentWidth, then
// finish with a scalar remainder loop.
//
// Setting HWY_NO_SIMD=1 forces the scalar level. The scalar level still
// reports a 16-byte width so data layouts (channel padding, alignment
// classes) are identical across levels and results never depend on it.
package hwy

import (
	"os"
	"strconv"
)

// DispatchLevel identifies the widest vector extension the kernels target.
type DispatchLevel int

const (
	DispatchScalar DispatchLevel = iota
	DispatchSSE2
	DispatchAVX2
	DispatchAVX512
	DispatchNEON
	DispatchSVE
)

func (l DispatchLevel) String() string {
	switch l {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	case DispatchSVE:
		return "sve"
	default:
		return "unknown(" + strconv.Itoa(int(l)) + ")"
	}
}

var (
	currentLevel DispatchLevel
	currentWidth int
	currentName  string
)

func init() {
	if NoSimdEnv() {
		setScalarMode()
		return
	}
	detectCPUFeatures()
}

func setScalarMode() {
	currentLevel = DispatchScalar
	currentWidth = 16 // Use 16-byte vectors even in scalar mode for consistency
	currentName = "scalar"
}

// NoSimdEnv reports whether HWY_NO_SIMD is set to a true value.
func NoSimdEnv() bool {
	v, ok := os.LookupEnv("HWY_NO_SIMD")
	if !ok {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v != ""
}

// CurrentLevel returns the dispatch level selected at init.
func CurrentLevel() DispatchLevel { return currentLevel }

// CurrentWidth returns the vector width in bytes for the selected level.
func CurrentWidth() int { return currentWidth }

// CurrentName returns a short name for the selected level.
func CurrentName() string { return currentName }
