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

// Package recovery provides middleware for recovering from panics in request handlers.
//
// This middleware catches panics that occur during request handling, logs
// them with stack traces, and converts them into a sanitized 500 response
// routed through the same path a returned error takes, instead of crashing
// the server.
//
// # Basic Usage
//
//	import "github.com/veltra-dev/veltra/middleware/recovery"
//
//	app := veltra.New()
//	app.Use(recovery.New())
//
// This middleware should typically be registered first (or early) in the middleware
// chain to catch panics from all subsequent handlers.
//
// # Configuration Options
//
//   - WithStackTrace: enable/disable stack trace logging (default: true)
//   - WithStackSize: maximum stack trace size in bytes (default: 4KB)
//   - WithLogger / WithoutLogging: control panic logging
//   - WithHandler: custom recovery handler for error responses
//
// # Custom Recovery Handler
//
//	import "github.com/veltra-dev/veltra/middleware/recovery"
//
//	app.Use(recovery.New(
//	    recovery.WithHandler(func(c *router.Context, err any) {
//	        c.JSON(http.StatusInternalServerError, map[string]any{
//	            "error":  "Internal server error",
//	            "status": http.StatusInternalServerError,
//	        })
//	    }),
//	))
package recovery
