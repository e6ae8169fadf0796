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

// Package main prints the dispatch level go-nnlib resolved on this machine
// together with the lane counts and channel padding the kernels derive
// from it.
package main

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-nnlib/hwy"
	"github.com/ajroetker/go-nnlib/hwy/contrib/scratch"
)

func main() {
	fmt.Printf("GOOS: %s\n", runtime.GOOS)
	fmt.Printf("GOARCH: %s\n", runtime.GOARCH)
	fmt.Printf("NumCPU: %d\n", runtime.NumCPU())
	fmt.Println()

	fmt.Printf("dispatch level: %s\n", hwy.CurrentLevel())
	fmt.Printf("dispatch width: %d bytes\n", hwy.CurrentWidth())
	fmt.Printf("HWY_NO_SIMD: %v\n", hwy.NoSimdEnv())
	fmt.Printf("scratch alignment: %d bytes\n", scratch.Alignment())
	fmt.Println()

	fmt.Println("=== lanes per vector ===")
	fmt.Printf("  int32:   %d\n", hwy.NumLanes[int32]())
	fmt.Printf("  int64:   %d\n", hwy.NumLanes[int64]())
	fmt.Printf("  float32: %d\n", hwy.NumLanes[float32]())
	fmt.Println()

	fmt.Println("=== channel padding (3 channels) ===")
	fmt.Printf("  int8:    %d\n", hwy.PadChannels[int8](3))
	fmt.Printf("  uint8:   %d\n", hwy.PadChannels[uint8](3))
	fmt.Printf("  int16:   %d\n", hwy.PadChannels[int16](3))
	fmt.Printf("  float32: %d\n", hwy.PadChannels[float32](3))
	fmt.Println()

	switch runtime.GOARCH {
	case "arm64":
		printARM64Features()
	case "amd64":
		printAMD64Features()
	}
}

func printARM64Features() {
	fmt.Println("=== golang.org/x/sys/cpu.ARM64 ===")
	fmt.Printf("  HasASIMD:   %v (NEON baseline)\n", cpu.ARM64.HasASIMD)
	fmt.Printf("  HasASIMDDP: %v (int8 dot product)\n", cpu.ARM64.HasASIMDDP)
	fmt.Printf("  HasSVE:     %v\n", cpu.ARM64.HasSVE)
	fmt.Printf("  HasSVE2:    %v\n", cpu.ARM64.HasSVE2)
}

func printAMD64Features() {
	fmt.Println("=== golang.org/x/sys/cpu.X86 ===")
	fmt.Printf("  HasSSE2:         %v\n", cpu.X86.HasSSE2)
	fmt.Printf("  HasSSE41:        %v\n", cpu.X86.HasSSE41)
	fmt.Printf("  HasAVX2:         %v\n", cpu.X86.HasAVX2)
	fmt.Printf("  HasAVX512F:      %v\n", cpu.X86.HasAVX512F)
	fmt.Printf("  HasAVX512BW:     %v\n", cpu.X86.HasAVX512BW)
	fmt.Printf("  HasAVX512VNNI:   %v (int8 dot product)\n", cpu.X86.HasAVX512VNNI)
}
