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

package conv

import "fmt"

// DataFormat is the memory order of an activation tensor.
type DataFormat uint8

const (
	// NHWC stores channels innermost.
	NHWC DataFormat = iota
	// NCHW stores each channel as a contiguous plane.
	NCHW
)

func (f DataFormat) String() string {
	switch f {
	case NHWC:
		return "NHWC"
	case NCHW:
		return "NCHW"
	}
	return fmt.Sprintf("DataFormat(%d)", uint8(f))
}

func (f DataFormat) valid() bool { return f <= NCHW }

// strides returns the element strides of the row, column and channel
// dimensions of an h x w x c tensor stored in format f.
func (f DataFormat) strides(h, w, c int) (row, col, ch int) {
	if f == NCHW {
		return w, 1, h * w
	}
	return w * c, c, 1
}
