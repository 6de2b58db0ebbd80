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

// Package veltra is the application kernel: it owns the server socket
// lifecycle, builds a pooled Context per request, dispatches it through the
// embedded Router's middleware/route chain, and maps unrecovered errors to
// responses.
package veltra

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veltra-dev/veltra/httperr"
	"github.com/veltra-dev/veltra/router"
)

// State is the kernel's lifecycle state machine: constructed -> listening ->
// draining -> closed. Reverting is not permitted.
type State int32

const (
	StateConstructed State = iota
	StateListening
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateListening:
		return "listening"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// App owns the HTTP server lifecycle: it embeds a Router for
// registration and dispatch and adds listening, draining, lifecycle
// hooks, and error fan-out on top.
type App struct {
	*router.Router

	state atomic.Int32

	drainTimeout time.Duration
	certFile     string
	keyFile      string
	development  bool
	exposeStack  bool

	log *slog.Logger

	hooks Hooks

	errListeners []func(error)
	mu           sync.Mutex

	srv      *http.Server
	listener net.Listener
	sigStop  func()
}

// New constructs an App with conservative defaults; onShutdown/onStart/etc.
// may only be registered before the kernel starts listening.
func New(opts ...Option) *App {
	a := &App{
		Router:       router.New(),
		drainTimeout: 30 * time.Second,
		log:          slog.Default(),
		development:  os.Getenv("VELTRA_ENV") != "production",
		exposeStack:  envTruthy(os.Getenv("EXPOSE_STACK_TRACES")),
	}
	a.state.Store(int32(StateConstructed))
	for _, o := range opts {
		o(a)
	}
	a.Router.SetErrorHandler(a.respondError)
	return a
}

func envTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// respondError is the kernel's last-resort mapping from a chain error to a
// response: the error is fanned out to every OnError listener, then
// rendered with environment-sensitive formatting. A response that already
// started is left alone.
func (a *App) respondError(c *router.Context, err error) {
	a.emitError(err)
	if c.Responded() {
		return
	}
	status, body := httperr.Format(err, httperr.Options{
		Development:      a.development,
		ExposeStackTrace: a.development && a.exposeStack,
	})
	_ = c.JSON(status, body)
}

// Logger returns the kernel's structured logger.
func (a *App) Logger() *slog.Logger { return a.log }

// State reports the current lifecycle state.
func (a *App) State() State { return State(a.state.Load()) }

// OnError registers a listener invoked for every error that reaches the
// kernel's error fan-out.
func (a *App) OnError(fn func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errListeners = append(a.errListeners, fn)
}

func (a *App) emitError(err error) {
	a.mu.Lock()
	listeners := append([]func(error){}, a.errListeners...)
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(err)
	}
}

// ServeHTTP wraps the embedded Router to additionally fan out panics and
// chain errors to the kernel's error listeners. Recovery itself is
// provided by middleware/recovery; this is the last-resort net in case no
// recovery middleware was installed.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("veltra: panic recovered at kernel boundary: %v", rec)
			a.emitError(err)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}()
	a.Router.ServeHTTP(w, r)
}

var (
	// ErrAlreadyListening is returned by Listen when the kernel has already
	// transitioned out of the constructed state.
	ErrAlreadyListening = errors.New("veltra: app is already listening or has been closed")
	// ErrNotListening is returned by Close when the kernel never listened.
	ErrNotListening = errors.New("veltra: app is not listening")
)
