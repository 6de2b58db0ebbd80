// Copyright 2025 The Rivaas Authors
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

package veltra

import (
	"github.com/veltra-dev/veltra/router"
)

// HealthHandler returns a route Handler reporting 200 while the kernel is
// constructed or listening and 503 once draining has begun, so load
// balancers stop routing to an instance on its way down.
func (a *App) HealthHandler() router.Handler {
	return func(c *router.Context, _ router.Next) error {
		switch a.State() {
		case StateDraining, StateClosed:
			return c.JSON(503, map[string]any{"status": "shutting down"})
		default:
			return c.JSON(200, map[string]any{"status": "ok"})
		}
	}
}
