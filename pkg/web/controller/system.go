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

package controller

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/mem"

	"github.com/21paradox/zxic-ping/pkg/web/model"
)

// SystemController handles device resource requests
type SystemController struct {
	*basicController
	source StatusSource
}

func NewSystemController(ctx *gin.Context, source StatusSource) *SystemController {
	return &SystemController{basicController: newBasicController(ctx), source: source}
}

// GetSystem returns memory usage and the last sampled CPU usage
func (c *SystemController) GetSystem() {
	info, err := c.readSystem()
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error reading system info. %v", err),
		)
		return
	}

	c.RespondSuccess(info)
}

func (c *SystemController) readSystem() (*model.SystemInfo, error) {
	info := model.NewSystemInfo()
	info.CpuCount = runtime.NumCPU()
	// sampled by the watchdog; measuring here would block the request
	if c.source != nil {
		info.CpuUsedPct = c.source.Status().CPUUsage
	}

	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory info: %w", err)
	}
	info.MemTotalMiB = float64(vmStat.Total) / 1024 / 1024
	info.MemUsedMiB = float64(vmStat.Used) / 1024 / 1024

	return info, nil
}
