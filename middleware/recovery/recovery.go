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

package recovery

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/veltra-dev/veltra/httperr"
	"github.com/veltra-dev/veltra/router"
)

// config holds recovery middleware configuration.
type config struct {
	logger      *slog.Logger
	handler     func(c *router.Context, err any)
	stackTrace bool
	stackSize  int
}

// Option configures the recovery middleware.
type Option func(*config)

func defaultConfig() *config {
	return &config{
		logger:     slog.Default(),
		stackTrace: true,
		stackSize:  4 << 10,
	}
}

// New returns middleware that recovers a panic raised by any downstream
// handler, logs it, and converts it into a sanitized error response routed
// through the same path a returned error takes, rather than letting it
// escape as a bare connection reset.
func New(opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if cfg.logger != nil {
				attrs := []any{slog.Any("panic", r), slog.String("method", c.Method()), slog.String("path", c.Path())}
				if cfg.stackTrace {
					buf := make([]byte, cfg.stackSize)
					n := runtime.Stack(buf, false)
					attrs = append(attrs, slog.String("stack", string(buf[:n])))
				}
				cfg.logger.Error("panic recovered", attrs...)
			}
			if cfg.handler != nil {
				cfg.handler(c, r)
				return
			}
			err = httperr.Internal("", fmt.Errorf("panic: %v", r))
		}()
		return next()
	}
}
