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
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
)

// ErrAddrInUse wraps the underlying bind error when Listen targets an
// already-bound address, so callers can distinguish it from other bind
// failures.
var ErrAddrInUse = errors.New("veltra: listener address already in use")

// Listen binds a TCP listener and begins serving in the background,
// returning only once the bind has succeeded. Port 0
// requests an OS-assigned port, observable via Addr() afterward. If a
// key/cert pair was configured via WithTLS, the listener is wrapped for
// HTTPS. callback, if non-nil, runs once listening.
func (a *App) Listen(host string, port int, callback func()) error {
	if !a.state.CompareAndSwap(int32(StateConstructed), int32(StateListening)) {
		return ErrAlreadyListening
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		a.state.Store(int32(StateConstructed))
		if strings.Contains(err.Error(), "address already in use") {
			return fmt.Errorf("%w: %s", ErrAddrInUse, addr)
		}
		return err
	}

	if a.certFile != "" && a.keyFile != "" {
		cert, lerr := tls.LoadX509KeyPair(a.certFile, a.keyFile)
		if lerr != nil {
			_ = ln.Close()
			a.state.Store(int32(StateConstructed))
			return lerr
		}
		ln = tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12})
	}

	if err := a.runStartHooks(context.Background()); err != nil {
		_ = ln.Close()
		a.state.Store(int32(StateConstructed))
		return err
	}

	a.Router.Freeze()

	sigCtx, sigStop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	a.mu.Lock()
	a.listener = ln
	a.srv = &http.Server{Handler: a}
	a.sigStop = sigStop
	a.mu.Unlock()

	go func() {
		<-sigCtx.Done()
		_ = a.Close()
	}()

	go func() {
		if serveErr := a.srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			a.emitError(serveErr)
		}
	}()

	a.log.Info("server starting", slog.String("addr", ln.Addr().String()))
	if callback != nil {
		callback()
	}
	a.runReadyHooks()
	return nil
}

// Addr returns the bound listener address, or "" if not listening.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Close stops accepting new connections, waits for in-flight requests to
// complete or until the drain timeout elapses, runs OnShutdown cleanup
// handlers LIFO, then OnStop handlers, and removes the signal handler
// installed by Listen.
func (a *App) Close() error {
	if !a.state.CompareAndSwap(int32(StateListening), int32(StateDraining)) {
		if State(a.state.Load()) == StateClosed {
			return nil
		}
		return ErrNotListening
	}
	a.log.Info("shutdown initiated")

	a.mu.Lock()
	srv := a.srv
	sigStop := a.sigStop
	a.mu.Unlock()

	if sigStop != nil {
		sigStop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.drainTimeout)
	defer cancel()

	var shutdownErr error
	if srv != nil {
		shutdownErr = srv.Shutdown(ctx)
		if shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
			a.log.Warn("graceful shutdown incomplete, forcing close", slog.Any("error", shutdownErr))
			_ = srv.Close()
		}
	}

	a.runShutdownHooks(ctx)
	a.runStopHooks()

	a.state.Store(int32(StateClosed))
	a.log.Info("server stopped gracefully")
	return shutdownErr
}
