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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/21paradox/zxic-ping/pkg/web/model"
)

// StatusController serves the watchdog state.
type StatusController struct {
	*basicController
	source StatusSource
}

func NewStatusController(ctx *gin.Context, source StatusSource) *StatusController {
	return &StatusController{basicController: newBasicController(ctx), source: source}
}

// GetStatus returns the state published after the latest tick. Before the
// scheduler has started nothing has been published yet.
func (c *StatusController) GetStatus() {
	status := c.source.Status()
	if status.UpdatedAt.IsZero() {
		c.RespondError(http.StatusServiceUnavailable, model.ErrorCodeNotReady, "watchdog has not started")
		return
	}
	c.RespondSuccess(status)
}
