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

package bodyparser

import "time"

// Option configures the body parser middleware.
type Option func(*config)

type config struct {
	maxBodySize  int64
	maxJSONDepth int
	raw          bool
	readTimeout  time.Duration
	skipPaths    map[string]bool
}

func defaultConfig() *config {
	return &config{
		maxBodySize:  1 << 20,
		maxJSONDepth: 20,
		readTimeout:  10 * time.Second,
		skipPaths:    make(map[string]bool),
	}
}

// WithMaxBodySize sets the maximum request body size in bytes. Bodies
// larger than this fail with 413.
func WithMaxBodySize(n int64) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxBodySize = n
		}
	}
}

// WithMaxJSONDepth sets the maximum JSON nesting depth. Deeper documents
// fail with 400.
func WithMaxJSONDepth(depth int) Option {
	return func(cfg *config) {
		if depth > 0 {
			cfg.maxJSONDepth = depth
		}
	}
}

// WithRaw enables buffering of unrecognized content types as raw bytes.
// Without it, unknown content types leave the body untouched.
func WithRaw() Option {
	return func(cfg *config) { cfg.raw = true }
}

// WithReadTimeout bounds how long the middleware will spend reading the
// request body off the wire.
func WithReadTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.readTimeout = d
		}
	}
}

// WithSkipPaths excludes paths from body parsing entirely.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}
