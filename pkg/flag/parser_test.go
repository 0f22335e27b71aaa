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

package flag

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlagSet() *flag.FlagSet {
	setDefaults()
	fs := flag.NewFlagSet("zxping", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	register(fs)
	return fs
}

func TestParseDefaults(t *testing.T) {
	fs := newTestFlagSet()
	target, err := parse(fs, nil)
	require.NoError(t, err)

	assert.Empty(t, target)
	assert.Equal(t, "127.0.0.1:80", TargetEndpoint)
	assert.Equal(t, 1300, ControlPort)
	assert.Equal(t, "zxic", DeviceTag)
	assert.Equal(t, "/etc_rw/zxping.log", LogFile)
	assert.Equal(t, 30*time.Second, Settle)
	assert.False(t, Background)
	assert.False(t, Production)
}

func TestParseFlagsAroundTarget(t *testing.T) {
	fs := newTestFlagSet()
	target, err := parse(fs, []string{"--isprod", "10.0.0.1:443", "-b", "--control-port", "1400"})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:443", target)
	assert.True(t, Production)
	assert.True(t, Background)
	assert.Equal(t, 1400, ControlPort)
	markExplicit(fs)
	assert.False(t, SettleExplicit())
}

func TestParseSettleMarksExplicit(t *testing.T) {
	fs := newTestFlagSet()
	_, err := parse(fs, []string{"--settle", "0s"})
	require.NoError(t, err)
	markExplicit(fs)

	assert.True(t, SettleExplicit())
	assert.Zero(t, Settle)
}

func TestParseFirstPositionalWins(t *testing.T) {
	fs := newTestFlagSet()
	target, err := parse(fs, []string{"10.0.0.1:80", "10.0.0.2:80", "--background"})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:80", target)
	assert.True(t, Background)
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	fs := newTestFlagSet()
	_, err := parse(fs, []string{"--bogus"})
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(targetEnv, "192.168.0.1:8080")
	t.Setenv(statusTokenEnv, "secret")
	t.Setenv(settleEnv, "5s")

	setDefaults()
	applyEnv()
	assert.Equal(t, "192.168.0.1:8080", TargetEndpoint)
	assert.Equal(t, "secret", StatusToken)
	assert.Equal(t, 5*time.Second, Settle)
	assert.True(t, SettleExplicit())
}

func TestApplyEnvRejectsBadSettle(t *testing.T) {
	t.Setenv(settleEnv, "soon")
	setDefaults()
	assert.Panics(t, applyEnv)
}

func TestPositionalOverridesEnv(t *testing.T) {
	t.Setenv(targetEnv, "192.168.0.1:8080")
	setDefaults()
	applyEnv()

	fs := flag.NewFlagSet("zxping", flag.ContinueOnError)
	register(fs)
	target, err := parse(fs, []string{"10.1.1.1:22"})
	require.NoError(t, err)
	require.Equal(t, "10.1.1.1:22", target)
	TargetEndpoint = target

	assert.Equal(t, "10.1.1.1:22", TargetEndpoint)
}
