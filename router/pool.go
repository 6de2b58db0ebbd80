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

import (
	"net/http"
	"sync"
)

// contextPool is a process-wide free list of Context instances: a
// sync.Pool of *Context, panicking on type corruption rather than
// silently allocating a fresh one. A corrupted pool is a bug worth
// surfacing loudly.
var contextPool = sync.Pool{
	New: func() any { return newContext() },
}

// acquireContext gets a Context from the pool and binds it to w/r/rt. The
// returned Context is exclusively owned by the caller until releaseContext
// is called.
func acquireContext(w http.ResponseWriter, r *http.Request, rt *Router) *Context {
	v := contextPool.Get()
	c, ok := v.(*Context)
	if !ok {
		panic(ErrContextPoolCorrupted)
	}
	c.init(w, r, rt)
	return c
}

// releaseContext resets c and returns it to the pool. It must only be
// called once the request has fully completed; reset() nulls out every
// field that could leak data to the next holder.
func releaseContext(c *Context) {
	c.reset()
	contextPool.Put(c)
}
