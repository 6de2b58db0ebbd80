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

// Package cache provides response caching middleware.
//
// Only GET and HEAD requests with 2xx responses are cached. On a hit the
// stored status, body, and a filtered set of response headers are replayed
// onto the request, an "X-Cache: HIT" header is added, and the rest of the
// chain is skipped. Entries expire after the configured max-age.
//
// Stored headers are restricted to an allow-list (Content-Type,
// Content-Encoding, Content-Language, Vary, ETag, Last-Modified) so a hit
// can never replay per-client or per-request header state.
//
// # Basic Usage
//
//	import "github.com/veltra-dev/veltra/middleware/cache"
//
//	app := veltra.New()
//	app.Use(cache.New(cache.WithMaxAge(30 * time.Second)))
//
// The cache key defaults to the request URL; override it with WithKeyFunc
// to include, say, a negotiated language.
package cache
