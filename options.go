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
	"log/slog"
	"time"

	"github.com/veltra-dev/veltra/router"
)

// Option configures an App at construction time.
type Option func(*App)

// WithLogger sets the kernel's structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithDrainTimeout overrides the default 30s graceful-shutdown ceiling.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.drainTimeout = d
		}
	}
}

// WithTLS configures a key/cert pair so Listen serves HTTPS.
func WithTLS(certFile, keyFile string) Option {
	return func(a *App) {
		a.certFile = certFile
		a.keyFile = keyFile
	}
}

// WithProduction forces production error formatting regardless of the
// VELTRA_ENV environment variable: 5xx bodies carry only a generic
// message, never the error's own text or a stack.
func WithProduction() Option {
	return func(a *App) {
		a.development = false
		a.exposeStack = false
	}
}

// WithDevelopment forces development error formatting. Stack traces still
// require the EXPOSE_STACK_TRACES environment variable (or
// WithStackTraces) on top.
func WithDevelopment() Option {
	return func(a *App) { a.development = true }
}

// WithStackTraces opts into stack traces in development error bodies.
// Ignored in production.
func WithStackTraces() Option {
	return func(a *App) { a.exposeStack = true }
}

// WithRouterOptions applies Router-level options (sensitive/strict
// matching, custom not-found/method-not-allowed handlers) at construction.
func WithRouterOptions(opts ...router.RouterOption) Option {
	return func(a *App) {
		a.Router = router.New(opts...)
	}
}
