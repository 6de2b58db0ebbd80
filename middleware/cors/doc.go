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

// Package cors provides middleware for handling Cross-Origin Resource Sharing (CORS),
// allowing configurable access control for cross-origin requests.
//
// This middleware implements the CORS specification to enable secure cross-origin
// requests from web browsers. It supports preflight requests, credentials, and
// fine-grained control over allowed origins, methods, headers, and exposed headers.
//
// # Basic Usage
//
//	import "github.com/veltra-dev/veltra/middleware/cors"
//
//	app := veltra.New()
//	app.Use(cors.New(
//	    cors.WithAllowedOrigins("https://example.com"),
//	    cors.WithAllowedMethods("GET", "POST", "PUT", "DELETE"),
//	    cors.WithAllowedHeaders("Content-Type", "Authorization"),
//	))
//
// # Configuration Options
//
// The middleware supports comprehensive CORS configuration:
//
//   - AllowedOrigins: List of allowed origins, matched exactly (no wildcards)
//   - AllowAllOrigins: Allow any origin
//   - AllowOriginFunc: Custom predicate deciding whether an origin is allowed
//   - AllowedMethods: HTTP methods allowed in cross-origin requests
//   - AllowedHeaders: Request headers allowed in cross-origin requests
//   - ExposedHeaders: Response headers exposed to the client
//   - AllowCredentials: Whether to allow credentials (cookies, auth headers)
//   - MaxAge: Cache duration for preflight requests
//
// # Security Considerations
//
// When AllowCredentials is combined with AllowAllOrigins, the middleware
// echoes the request's Origin instead of sending "*".
//
// Preflight requests are handled with configurable caching.
package cors
