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

package cors

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/veltra-dev/veltra/router"
)

// config holds cors middleware configuration.
type config struct {
	allowedOrigins   []string
	allowedMethods   []string
	allowedHeaders   []string
	exposedHeaders   []string
	allowCredentials bool
	maxAge           int
	allowAllOrigins  bool
	allowOriginFunc  func(origin string) bool
}

// Option configures the cors middleware.
type Option func(*config)

func defaultConfig() *config {
	return &config{
		allowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		allowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:         3600,
	}
}

// New returns middleware that handles Cross-Origin Resource Sharing,
// including preflight requests. Default configuration is restrictive: no
// origins are allowed until WithAllowedOrigins or WithAllowAllOrigins is
// set.
func New(opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	allowedMethodsHeader := strings.Join(cfg.allowedMethods, ", ")
	allowedHeadersHeader := strings.Join(cfg.allowedHeaders, ", ")
	exposedHeadersHeader := strings.Join(cfg.exposedHeaders, ", ")
	maxAgeHeader := strconv.Itoa(cfg.maxAge)

	return func(c *router.Context, next router.Next) error {
		origin := c.Header("Origin")
		if origin == "" {
			return next()
		}

		allowedOrigin := ""
		switch {
		case cfg.allowAllOrigins:
			allowedOrigin = "*"
		case cfg.allowOriginFunc != nil:
			if cfg.allowOriginFunc(origin) {
				allowedOrigin = origin
			}
		default:
			if slices.Contains(cfg.allowedOrigins, origin) {
				allowedOrigin = origin
			}
		}

		if allowedOrigin == "" {
			return next()
		}

		if cfg.allowCredentials && allowedOrigin == "*" {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Access-Control-Allow-Credentials", "true")
		} else {
			c.Set("Access-Control-Allow-Origin", allowedOrigin)
			if cfg.allowCredentials {
				c.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if exposedHeadersHeader != "" {
			c.Set("Access-Control-Expose-Headers", exposedHeadersHeader)
		}

		if c.Method() == http.MethodOptions {
			c.Set("Access-Control-Allow-Methods", allowedMethodsHeader)
			c.Set("Access-Control-Allow-Headers", allowedHeadersHeader)
			c.Set("Access-Control-Max-Age", maxAgeHeader)
			return c.End(http.StatusNoContent)
		}

		return next()
	}
}
