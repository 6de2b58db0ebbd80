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

// Package static provides middleware for serving files from a directory
// root with hardened path handling.
//
// Every request path is percent-decoded, re-checked after a second decode
// pass for double-encoded traversal sequences, normalized, and then
// verified to still resolve inside the configured root. Requests that
// escape the root are refused; the file outside the root is never opened.
//
// # Basic Usage
//
//	import "github.com/veltra-dev/veltra/middleware/static"
//
//	app := veltra.New()
//	app.Use(static.New("./public"))
//
// # Features
//
//   - GET/HEAD only; other methods fall through to the next handler
//   - index file resolution for directory requests
//   - extension fallbacks (e.g. serve about.html for /about)
//   - SHA-256 ETag and Last-Modified conditional requests (304)
//   - single-range byte serving (206 with Content-Range)
//   - a timeout on filesystem stat/open against slow or hung volumes
//   - dotfile policy: allow, ignore, or deny
//
// The setHeaders callback receives the resolved on-disk path; treat that
// value as sensitive and sanitize anything derived from it before writing
// it into a response header.
package static
