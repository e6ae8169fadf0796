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

package fixedpoint

import (
	"fmt"
	"os"
	"strings"
)

// RoundingPolicy selects the TFLite requantization rounding convention.
type RoundingPolicy uint8

const (
	// RoundingDefault resolves to DefaultRounding().
	RoundingDefault RoundingPolicy = iota
	// SingleRounding rounds once, at the final right shift.
	SingleRounding
	// DoubleRounding rounds after the doubling high multiply and again
	// at the right shift (legacy TFLite).
	DoubleRounding
)

var defaultRounding = buildDefaultRounding

func init() {
	v, ok := os.LookupEnv("HWY_ROUNDING")
	if !ok {
		return
	}
	if p, err := ParseRoundingPolicy(v); err == nil && p != RoundingDefault {
		defaultRounding = p
	}
}

// DefaultRounding returns the policy RoundingDefault resolves to.
func DefaultRounding() RoundingPolicy { return defaultRounding }

// Resolve maps RoundingDefault to the configured default and returns any
// other policy unchanged.
func (p RoundingPolicy) Resolve() RoundingPolicy {
	if p == RoundingDefault {
		return defaultRounding
	}
	return p
}

// Valid reports whether p is one of the defined policies.
func (p RoundingPolicy) Valid() bool {
	return p <= DoubleRounding
}

func (p RoundingPolicy) String() string {
	switch p {
	case RoundingDefault:
		return "default"
	case SingleRounding:
		return "single"
	case DoubleRounding:
		return "double"
	default:
		return fmt.Sprintf("RoundingPolicy(%d)", uint8(p))
	}
}

// ParseRoundingPolicy parses "single", "double", "default" or "".
func ParseRoundingPolicy(s string) (RoundingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return RoundingDefault, nil
	case "single":
		return SingleRounding, nil
	case "double":
		return DoubleRounding, nil
	default:
		return RoundingDefault, fmt.Errorf("fixedpoint: unknown rounding policy %q", s)
	}
}
