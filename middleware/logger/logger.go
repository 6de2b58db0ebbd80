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

package logger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/veltra-dev/veltra/logging"
	"github.com/veltra-dev/veltra/router"
)

// RequestIDHeader is the header carrying (and echoing) the request id.
const RequestIDHeader = "X-Request-ID"

// StateKey is the context state key under which the request id is stored
// for downstream middleware.
const StateKey = "request_id"

// Option configures the access log middleware.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	excludePaths map[string]bool
}

func defaultConfig() *config {
	return &config{excludePaths: make(map[string]bool)}
}

// WithLogger sets the destination logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithExcludePaths suppresses logging for the given paths.
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.excludePaths[p] = true
		}
	}
}

// countingWriter tracks the status code and body bytes of the downstream
// response.
type countingWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
	wrote  bool
}

func (w *countingWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *countingWriter) Write(p []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

// New returns access-log middleware emitting one structured record per
// request.
func New(opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) error {
		if cfg.excludePaths[c.Path()] {
			return next()
		}

		reqID := c.Header(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.SetState(StateKey, reqID)
		c.Set(RequestIDHeader, reqID)

		original := c.Response
		cw := &countingWriter{ResponseWriter: original, status: http.StatusOK}
		c.Response = cw

		start := time.Now()
		err := next()
		c.Response = original
		elapsed := time.Since(start)

		status := cw.status
		l := logging.FromContext(c.Request.Context(), cfg.logger)
		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
			slog.Int64("bytes", cw.bytes),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", reqID),
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		} else if errs := c.Errors(); len(errs) > 0 {
			attrs = append(attrs, slog.Any("errors", errs))
		}

		switch {
		case err != nil || status >= 500:
			l.Error("request", attrs...)
		case status >= 400:
			l.Warn("request", attrs...)
		default:
			l.Info("request", attrs...)
		}
		return err
	}
}
