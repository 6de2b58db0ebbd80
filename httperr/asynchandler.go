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

package httperr

import (
	"fmt"

	"github.com/veltra-dev/veltra/router"
)

// AsyncHandler wraps h so a panic inside it is converted into an Internal
// error and routed through the same error-fan-out path a returned error
// takes, rather than escaping as a bare panic. Handlers in
// this module already propagate errors via their own return value, so the
// only "rejected completion" AsyncHandler needs to guard against is a
// panic; any error h returns already reaches the chain unchanged.
func AsyncHandler(h router.Handler) router.Handler {
	return func(c *router.Context, next router.Next) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = Internal("", fmt.Errorf("panic: %v", r))
			}
		}()
		return h(c, next)
	}
}
