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

package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChildArgsDropsBackgroundFlags(t *testing.T) {
	args := []string{"-b", "10.0.0.1:80", "--isprod", "--background", "--control-port", "1300", "--background=true"}
	assert.Equal(t, []string{"10.0.0.1:80", "--isprod", "--control-port", "1300"}, childArgs(args))
	assert.Empty(t, childArgs(nil))
}

func TestIsDetached(t *testing.T) {
	t.Setenv(EnvMarker, "")
	assert.False(t, IsDetached())

	t.Setenv(EnvMarker, "1")
	assert.True(t, IsDetached())
}
