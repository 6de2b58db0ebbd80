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

package router

import "sync/atomic"

// Next is the completion signal passed to a Handler. Calling it runs the
// remainder of the chain and returns whatever error (if any) that remainder
// produced. A Handler that returns without calling Next short-circuits the
// chain at that point, useful for cached or otherwise pre-empted
// responses.
type Next func() error

// Handler is the single signature used for both middleware and terminal
// route handlers: `(ctx, next) -> error`. A terminal route handler simply
// never calls next.
type Handler func(c *Context, next Next) error

// ParamHandler runs for a named route parameter before the route's own
// handler chain, receiving the decoded value and the parameter name.
type ParamHandler func(c *Context, next Next, value, name string) error

// singleUse wraps a continuation so the second and every later call
// returns ErrNextCalledTwice instead of re-running the remainder of the
// chain. Every Next handed to a Handler goes through this guard, whether
// the Handler is a global middleware or part of a route's chain.
func singleUse(next Next) Next {
	var called int32
	return func() error {
		if !atomic.CompareAndSwapInt32(&called, 0, 1) {
			return ErrNextCalledTwice
		}
		return next()
	}
}

// runChain folds handlers into a single call starting at idx, with tail
// invoked once the last handler (if it calls next) falls off the end of
// the slice. Each handler gets its own single-use Next closure.
func runChain(c *Context, handlers []Handler, idx int, tail Next) error {
	if idx >= len(handlers) {
		if tail == nil {
			return nil
		}
		return tail()
	}
	h := handlers[idx]
	next := singleUse(func() error {
		return runChain(c, handlers, idx+1, tail)
	})
	return h(c, next)
}
