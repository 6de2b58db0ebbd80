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

package cache

import (
	"bytes"
	"net/http"
	"time"

	"github.com/veltra-dev/veltra/router"
)

// allowedHeaders is the response-header allow-list replayed on a hit.
// Everything else the handler set is deliberately dropped: per-client
// headers (Set-Cookie above all) must never be served from cache.
var allowedHeaders = []string{
	"Content-Type",
	"Content-Encoding",
	"Content-Language",
	"Vary",
	"ETag",
	"Last-Modified",
}

// KeyFunc derives the cache key for a request.
type KeyFunc func(c *router.Context) string

// Option configures the cache middleware.
type Option func(*config)

type config struct {
	maxAge  time.Duration
	keyFunc KeyFunc
	store   Store
}

func defaultConfig() *config {
	return &config{
		maxAge:  time.Minute,
		keyFunc: func(c *router.Context) string { return c.URL() },
	}
}

// WithMaxAge sets how long entries stay servable (default one minute).
func WithMaxAge(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.maxAge = d
		}
	}
}

// WithKeyFunc overrides the default URL-based cache key.
func WithKeyFunc(fn KeyFunc) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.keyFunc = fn
		}
	}
}

// WithStore plugs in a custom entry store (default: in-memory).
func WithStore(s Store) Option {
	return func(cfg *config) {
		if s != nil {
			cfg.store = s
		}
	}
}

// recorder captures the downstream response so a successful one can be
// stored. It tees writes to the real writer: the client still gets the
// live response on a miss.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
	wrote  bool
}

func (r *recorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(p []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// New returns response-caching middleware.
func New(opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = NewMemoryStore(0)
	}

	return func(c *router.Context, next router.Next) error {
		if c.Method() != http.MethodGet && c.Method() != http.MethodHead {
			return next()
		}

		key := cfg.keyFunc(c)
		if entry, ok := cfg.store.Get(key); ok {
			for name, values := range entry.Header {
				for _, v := range values {
					c.Set(name, v)
				}
			}
			c.Set("X-Cache", "HIT")
			body := entry.Body
			if c.Method() == http.MethodHead {
				body = nil
			}
			return c.Send(entry.Status, entry.Header.Get("Content-Type"), body)
		}

		original := c.Response
		rec := &recorder{ResponseWriter: original, status: http.StatusOK}
		c.Response = rec
		err := next()
		c.Response = original
		if err != nil {
			return err
		}

		if rec.status >= 200 && rec.status < 300 {
			cfg.store.Set(key, Entry{
				Status:    rec.status,
				Body:      append([]byte(nil), rec.body.Bytes()...),
				Header:    filterHeaders(rec.Header()),
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(cfg.maxAge),
			})
		}
		return nil
	}
}

// filterHeaders keeps only the allow-listed response headers.
func filterHeaders(h http.Header) http.Header {
	out := make(http.Header, len(allowedHeaders))
	for _, name := range allowedHeaders {
		for _, v := range h.Values(name) {
			out.Add(name, v)
		}
	}
	return out
}
