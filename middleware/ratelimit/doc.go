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

// Package ratelimit provides middleware for rate limiting per client.
//
// Three strategies are available: token bucket (New), fixed-window counting
// (NewFixedWindow), and a sliding-window approximation (WithSlidingWindow).
// All of them support per-IP, per-user, or custom key-based limiting. The
// token-bucket and fixed-window stores are LRU-bounded so a flood of unique
// keys cannot exhaust memory; the sliding-window InMemoryStore is a plain
// map with no size bound.
//
// # Basic Usage
//
//	import "github.com/veltra-dev/veltra/middleware/ratelimit"
//
//	app := veltra.New()
//	app.Use(ratelimit.New(
//	    ratelimit.WithRequestsPerSecond(100),
//	    ratelimit.WithBurst(20),
//	))
//
// # Rate Limiting Strategies
//
// The middleware supports different rate limiting strategies:
//
//   - Per IP: Limit requests per client IP address (default)
//   - Per User: Limit requests per authenticated user
//   - Custom Key: Use a custom KeyFunc to determine the rate limit key
//
// # Configuration Options
//
//   - RequestsPerSecond: Average rate of requests allowed (default: 10)
//   - Burst: Maximum burst size (default: 10, independent of RequestsPerSecond)
//   - KeyFunc: Function to determine rate limit key (default: per IP)
//   - SkipPaths: Paths to exclude from rate limiting (e.g., /health)
//   - Logger: Optional logger for rate limit events
//   - OnLimitExceeded: Custom handler when rate limit is exceeded
//
// # Custom Key Function
//
//	import "github.com/veltra-dev/veltra/middleware/ratelimit"
//
//	app.Use(ratelimit.New(
//	    ratelimit.WithRequestsPerSecond(100),
//	    ratelimit.WithKeyFunc(func(c *router.Context) string {
//	        // Rate limit per user ID
//	        return c.Param("user_id")
//	    }),
//	))
//
// # Rate Limit Headers
//
// New and NewFixedWindow set these headers in responses:
//
//   - X-RateLimit-Limit: Maximum requests allowed per window
//   - X-RateLimit-Remaining: Remaining requests in current window
//   - X-RateLimit-Reset: Unix timestamp when the rate limit resets
//
// WithSlidingWindow sets RateLimit-Limit and RateLimit-Remaining instead,
// only when CommonOptions.Headers is true, and sends no reset header.
//
// The token bucket algorithm supports concurrent access.
package ratelimit
