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

// Package ratelimit provides middleware for token-bucket, fixed-window,
// and sliding-window rate limiting per client.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/veltra-dev/veltra/router"
)

// New returns middleware enforcing a token-bucket rate limit per key,
// refilling at RequestsPerSecond up to Burst tokens. Unless overridden, the
// key is the client's IP address.
func New(opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	store := NewInMemoryTokenBucketStore(cfg.rps, cfg.burst)
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				store.evictIdle(cfg.limiterTTL)
			case <-stop:
				return
			}
		}
	}()

	return func(c *router.Context, next router.Next) error {
		if cfg.skipPaths[c.Path()] {
			return next()
		}

		key := cfg.keyFunc(c)
		if key == "" {
			return next()
		}

		allowed, remaining, resetSeconds := store.Allow(key, time.Now())
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.burst))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(resetSeconds)*time.Second).Unix(), 10))

		if allowed {
			return next()
		}

		c.Set("Retry-After", strconv.FormatInt(resetSeconds, 10))
		if cfg.logger != nil {
			cfg.logger.Warn("rate limit exceeded", "key", key, "path", c.Path())
		}
		if cfg.onLimitExceeded != nil {
			cfg.onLimitExceeded(c)
			return nil
		}
		return c.JSON(http.StatusTooManyRequests, map[string]any{
			"error":  "rate limit exceeded",
			"status": http.StatusTooManyRequests,
		})
	}
}

// NewFixedWindow returns middleware allowing at most max requests per key
// per window, counted in fixed windows. Request max+1 inside a window gets
// 429 with a Retry-After for the window's remainder. Unless overridden,
// the key is the client's IP address.
func NewFixedWindow(max int, window time.Duration, opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	store := NewFixedWindowStore(window, 0)

	return func(c *router.Context, next router.Next) error {
		if cfg.skipPaths[c.Path()] {
			return next()
		}
		key := cfg.keyFunc(c)
		if key == "" {
			return next()
		}

		count, resetIn := store.Incr(key, time.Now())
		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10))

		if count <= max {
			return next()
		}

		retryAfter := int64(resetIn.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		if cfg.logger != nil {
			cfg.logger.Warn("rate limit exceeded", "key", key, "path", c.Path())
		}
		if cfg.onLimitExceeded != nil {
			cfg.onLimitExceeded(c)
			return nil
		}
		return c.JSON(http.StatusTooManyRequests, map[string]any{
			"error":  "rate limit exceeded",
			"status": http.StatusTooManyRequests,
		})
	}
}

// SlidingWindow describes a sliding-window-counter rate limit: at most
// Limit requests per Window, backed by Store.
type SlidingWindow struct {
	Window  time.Duration
	Limit   int
	Store   *InMemoryStore
	KeyFunc KeyFunc
}

// CommonOptions controls header emission and enforcement for sliding-window
// rate limiting. With Enforce false the middleware only annotates requests
// with rate-limit headers and never rejects them, useful for dry-running a
// new limit alongside an existing one.
type CommonOptions struct {
	Headers bool
	Enforce bool
}

// WithSlidingWindow returns middleware implementing the sliding-window
// counter approximation: estimated = prevCount*weight + currCount, where
// weight is the fraction of the previous window still "in view".
func WithSlidingWindow(sw SlidingWindow, opts CommonOptions) router.Handler {
	keyFunc := sw.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *router.Context) string { return c.ClientIP() }
	}

	return func(c *router.Context, next router.Next) error {
		key := keyFunc(c)
		if key == "" {
			return next()
		}

		curr, prev, windowStart, err := sw.Store.GetCounts(c.Request.Context(), key, sw.Window)
		if err != nil {
			return next()
		}

		elapsed := float64(time.Now().Unix() - windowStart)
		weight := 1 - elapsed/sw.Window.Seconds()
		if weight < 0 {
			weight = 0
		}
		estimate := float64(prev)*weight + float64(curr)

		remaining := sw.Limit - int(estimate) - 1
		if remaining < 0 {
			remaining = 0
		}
		if opts.Headers {
			c.Set("RateLimit-Limit", strconv.Itoa(sw.Limit))
			c.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		}

		if estimate >= float64(sw.Limit) {
			if opts.Enforce {
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":  "rate limit exceeded",
					"status": http.StatusTooManyRequests,
				})
			}
			return next()
		}

		_ = sw.Store.Incr(c.Request.Context(), key, sw.Window)
		return next()
	}
}

// PerRoute marks a rate-limit handler as intended for a single route rather
// than global use, so it reads clearly at the call site when passed as an
// extra per-route handler alongside the terminal handler.
func PerRoute(h router.Handler) router.Handler {
	return h
}
