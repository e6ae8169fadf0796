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
	"sync/atomic"

	"github.com/go-logr/logr"
)

var logger atomic.Pointer[logr.Logger]

func init() {
	l := logr.Discard()
	logger.Store(&l)
}

// SetLogger installs the sink used for the few diagnostic messages the
// kernels emit (path selection, never per-element work). The resolved
// dispatch level is reported at V(1).
func SetLogger(l logr.Logger) {
	logger.Store(&l)
	l.V(1).Info("hwy dispatch", "level", currentLevel.String(), "width", currentWidth)
}

// Logger returns the installed sink. It is logr.Discard() by default.
func Logger() logr.Logger {
	return *logger.Load()
}
