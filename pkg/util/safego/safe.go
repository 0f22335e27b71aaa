// Copyright 2025 Alibaba Group Holding Ltd.
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

package safego

import (
	"context"
	"runtime"

	runtimeutil "k8s.io/apimachinery/pkg/util/runtime"

	"github.com/21paradox/zxic-ping/pkg/log"
)

// InitPanicLogger routes recovered panics through the watchdog logger.
func InitPanicLogger(_ context.Context) {
	runtimeutil.PanicHandlers = []func(any){
		func(r any) {
			const size = 64 << 10
			stacktrace := make([]byte, size)
			stacktrace = stacktrace[:runtime.Stack(stacktrace, false)]
			if _, ok := r.(string); ok {
				log.Error("Observed a panic: %s\n%s", r, stacktrace)
			} else {
				log.Error("Observed a panic: %#v (%v)\n%s", r, r, stacktrace)
			}
		},
	}
}

func init() {
	runtimeutil.ReallyCrash = false
}

// Go runs f on a new goroutine. A panic in f is logged instead of taking
// down the watchdog loop.
func Go(f func()) {
	go func() {
		defer runtimeutil.HandleCrash()

		f()
	}()
}
