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
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Hooks stores the kernel's lifecycle callbacks. OnStart hooks run
// sequentially and abort startup on the first error; OnReady hooks are
// fire-and-forget; OnShutdown hooks run LIFO within the drain timeout;
// OnStop hooks run best-effort after the listener has closed.
type Hooks struct {
	mu         sync.Mutex
	onStart    []func(context.Context) error
	onReady    []func()
	onShutdown []func(context.Context)
	onStop     []func()
}

func (a *App) guardFrozen() {
	if a.Router.Frozen() {
		panic("veltra: cannot register a lifecycle hook after the app has started listening")
	}
}

// OnStart registers a hook run sequentially before the listener binds. If
// any hook returns an error, Listen aborts.
func (a *App) OnStart(fn func(context.Context) error) {
	a.guardFrozen()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onStart = append(a.hooks.onStart, fn)
}

// OnReady registers a hook run once the listener is bound and the
// configured callback (if any) has fired. Hooks run asynchronously; panics
// are recovered and logged.
func (a *App) OnReady(fn func()) {
	a.guardFrozen()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onReady = append(a.hooks.onReady, fn)
}

// OnShutdown registers a cleanup handler run during Close, in LIFO order,
// each within the overall drain timeout.
func (a *App) OnShutdown(fn func(context.Context)) {
	a.guardFrozen()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onShutdown = append(a.hooks.onShutdown, fn)
}

// OnStop registers a best-effort hook run after the server has fully
// stopped; panics are recovered and logged rather than propagated.
func (a *App) OnStop(fn func()) {
	a.guardFrozen()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onStop = append(a.hooks.onStop, fn)
}

func (a *App) runStartHooks(ctx context.Context) error {
	a.hooks.mu.Lock()
	hooks := append([]func(context.Context) error{}, a.hooks.onStart...)
	a.hooks.mu.Unlock()

	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("veltra: OnStart hook %d failed: %w", i, err)
		}
	}
	return nil
}

func (a *App) runReadyHooks() {
	a.hooks.mu.Lock()
	hooks := append([]func(){}, a.hooks.onReady...)
	a.hooks.mu.Unlock()

	for _, h := range hooks {
		h := h
		go func() {
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("OnReady hook panic", slog.Any("recover", r))
				}
			}()
			h()
		}()
	}
}

// runShutdownHooks runs every OnShutdown hook in reverse registration order,
// each bounded by ctx.
func (a *App) runShutdownHooks(ctx context.Context) {
	a.hooks.mu.Lock()
	hooks := append([]func(context.Context){}, a.hooks.onShutdown...)
	a.hooks.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("OnShutdown hook panic", slog.Any("recover", r))
				}
			}()
			hooks[i](ctx)
		}()
	}
}

func (a *App) runStopHooks() {
	a.hooks.mu.Lock()
	hooks := append([]func(){}, a.hooks.onStop...)
	a.hooks.mu.Unlock()

	for _, h := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.log.Warn("OnStop hook panic", slog.Any("recover", r))
				}
			}()
			h()
		}()
	}
}
