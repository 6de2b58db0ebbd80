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

// Package bodyparser provides middleware that parses HTTP request bodies
// by content type and publishes the result on the request context.
//
// Supported content types:
//
//   - application/json: decoded with a size- and depth-bounded parser
//   - application/x-www-form-urlencoded: parsed with the same key-safety
//     and size protections as the query string
//   - multipart/form-data: fields and file parts, bounded in aggregate
//   - text/*: buffered as a UTF-8 string
//   - anything else: buffered as raw bytes when raw mode is enabled,
//     otherwise left untouched
//
// # Basic Usage
//
//	import "github.com/veltra-dev/veltra/middleware/bodyparser"
//
//	app := veltra.New()
//	app.Use(bodyparser.New(
//	    bodyparser.WithMaxBodySize(10 << 20), // 10MB
//	))
//
// # Configuration Options
//
//   - MaxBodySize: maximum request body size in bytes (default 1MB)
//   - MaxJSONDepth: maximum JSON nesting depth (default 20)
//   - Raw: buffer unknown content types as raw bytes
//   - ReadTimeout: bound on reading the request body off the wire
//
// # Error Handling
//
// Oversize, malformed, or too-deeply-nested bodies fail the request with a
// 400-class error (413 for oversize). An empty body is not an error: the
// context's body is simply left unset.
package bodyparser
