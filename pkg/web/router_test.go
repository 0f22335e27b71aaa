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

package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/21paradox/zxic-ping/pkg/metrics"
	"github.com/21paradox/zxic-ping/pkg/watchdog"
	"github.com/21paradox/zxic-ping/pkg/web/model"
)

type staticSource struct {
	status watchdog.Status
}

func (s staticSource) Status() watchdog.Status {
	return s.status
}

func readyStatus() watchdog.Status {
	return watchdog.Status{Target: "10.0.0.1:80", UpdatedAt: time.Now()}
}

func get(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(model.ApiAccessTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesStatus(t *testing.T) {
	r := NewRouter("", staticSource{status: readyStatus()}, nil)

	rec := get(t, r, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"target":"10.0.0.1:80"`)

	assert.Equal(t, http.StatusOK, get(t, r, "/ping", "").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/metrics", "").Code)
}

func TestRouterRequiresToken(t *testing.T) {
	r := NewRouter("secret", staticSource{status: readyStatus()}, nil)

	assert.Equal(t, http.StatusUnauthorized, get(t, r, "/status", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, r, "/status", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/status", "secret").Code)
}

func TestRouterServesMetrics(t *testing.T) {
	m := metrics.New()
	m.ObserveCPU(42)
	r := NewRouter("", staticSource{}, m.Registry())

	rec := get(t, r, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zxping_cpu_usage_percent 42")
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, addr, NewRouter("", staticSource{}, nil))
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "pong"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeReportsBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = Serve(context.Background(), ln.Addr().String(), http.NotFoundHandler())
	assert.Error(t, err)
}
