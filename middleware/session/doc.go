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

// Package session provides cookie-backed signed sessions.
//
// The cookie carries only a session id plus an HMAC-SHA256 signature over
// it; session data itself lives in a pluggable Store. A tampered or
// unsigned cookie is treated as no session at all.
//
// # Basic Usage
//
//	import "github.com/veltra-dev/veltra/middleware/session"
//
//	app := veltra.New()
//	app.Use(session.New("your-signing-secret"))
//
//	app.GET("/profile", func(c *router.Context, _ router.Next) error {
//	    s := c.Session()
//	    s.Set("visits", 1)
//	    return c.Text(200, "hello")
//	})
//
// Writes mark the session dirty; dirty sessions are persisted when the
// chain unwinds. Concurrent saves are serialized: a save requested while
// one is in flight is coalesced into a follow-up save rather than racing
// it.
//
// The signing secret is mandatory. New panics on an empty secret rather
// than silently issuing forgeable cookies.
package session
