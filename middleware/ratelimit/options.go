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

package ratelimit

import (
	"log/slog"
	"time"

	"github.com/veltra-dev/veltra/router"
)

// KeyFunc derives the rate-limit bucket key for a request, e.g. client IP
// or an authenticated user id.
type KeyFunc func(c *router.Context) string

type config struct {
	rps             float64
	burst           int
	keyFunc         KeyFunc
	skipPaths       map[string]bool
	logger          *slog.Logger
	onLimitExceeded func(c *router.Context)
	cleanupInterval time.Duration
	limiterTTL      time.Duration
}

// Option configures the token-bucket rate limiting middleware.
type Option func(*config)

func defaultConfig() *config {
	return &config{
		rps:   10,
		burst: 10,
		keyFunc: func(c *router.Context) string {
			return c.ClientIP()
		},
		skipPaths:       map[string]bool{},
		logger:          slog.Default(),
		cleanupInterval: time.Minute,
		limiterTTL:      10 * time.Minute,
	}
}

// WithRequestsPerSecond sets the average sustained request rate per key.
func WithRequestsPerSecond(rps float64) Option {
	return func(cfg *config) { cfg.rps = rps }
}

// WithBurst sets the maximum burst size (token bucket capacity).
func WithBurst(burst int) Option {
	return func(cfg *config) { cfg.burst = burst }
}

// WithKeyFunc overrides the default per-IP key derivation.
func WithKeyFunc(fn KeyFunc) Option {
	return func(cfg *config) { cfg.keyFunc = fn }
}

// WithSkipPaths exempts the given exact paths from rate limiting.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}

// WithLogger sets a custom slog.Logger for rate limit events.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// WithOnLimitExceeded sets a custom handler invoked when a request is
// rejected, in place of the default 429 JSON response.
func WithOnLimitExceeded(fn func(c *router.Context)) Option {
	return func(cfg *config) { cfg.onLimitExceeded = fn }
}

// WithCleanupInterval sets how often idle buckets are swept.
func WithCleanupInterval(d time.Duration) Option {
	return func(cfg *config) { cfg.cleanupInterval = d }
}

// WithLimiterTTL sets how long an idle bucket survives before eviction.
func WithLimiterTTL(d time.Duration) Option {
	return func(cfg *config) { cfg.limiterTTL = d }
}
