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
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// layerKind distinguishes the three things a Layer in the stack can be:
// plain middleware, a mounted sub-router, or a terminal route. Layers are
// evaluated in registration order.
type layerKind int

const (
	kindMiddleware layerKind = iota
	kindMount
	kindRoute
)

// Layer is one node in a Router's stack. Only route registration changes
// it after construction, adding handlers to an existing route's pattern.
type Layer struct {
	kind layerKind

	// kindMiddleware / kindMount
	prefix string
	mw     Handler
	router *Router

	// kindRoute
	pattern    *matcher
	paramNames []string
	methods    map[string][]Handler
	all        []Handler
}

// Router is an ordered list of Layers plus a parameter-handler map. A
// Router is itself usable as an http.Handler (so it can serve standalone
// or be embedded in an application kernel), and exposes the same
// verb-registration surface as the kernel.
type Router struct {
	mu            sync.RWMutex
	layers        []*Layer
	paramHandlers map[string][]ParamHandler
	opts          routerOptions

	notFound         Handler
	methodNotAllowed Handler
	onError          func(c *Context, err error)

	frozen atomic.Bool
}

// Freeze marks the router as no longer accepting new route/middleware
// registration. The application kernel calls this once it starts
// listening so lifecycle hooks can reject late registration.
func (rt *Router) Freeze() { rt.frozen.Store(true) }

// Frozen reports whether Freeze has been called.
func (rt *Router) Frozen() bool { return rt.frozen.Load() }

type routerOptions struct {
	sensitive bool
	strict    bool
}

// RouterOption configures a Router at construction time, following the
// functional-options idiom used throughout this module.
type RouterOption func(*Router)

// WithSensitive enables case-sensitive path matching (default: insensitive).
func WithSensitive() RouterOption {
	return func(rt *Router) { rt.opts.sensitive = true }
}

// WithStrict enables strict trailing-slash matching (default: lenient).
func WithStrict() RouterOption {
	return func(rt *Router) { rt.opts.strict = true }
}

// WithNotFound overrides the default 404 handler.
func WithNotFound(h Handler) RouterOption {
	return func(rt *Router) { rt.notFound = h }
}

// WithMethodNotAllowed overrides the default 405 handler.
func WithMethodNotAllowed(h Handler) RouterOption {
	return func(rt *Router) { rt.methodNotAllowed = h }
}

// WithErrorHandler overrides how an unrecovered chain error is mapped to a
// response.
func WithErrorHandler(fn func(c *Context, err error)) RouterOption {
	return func(rt *Router) { rt.onError = fn }
}

// SetErrorHandler replaces how an unrecovered chain error is mapped to a
// response. The application kernel installs its own responder here so
// environment-sensitive formatting lives in one place.
func (rt *Router) SetErrorHandler(fn func(c *Context, err error)) {
	if fn != nil {
		rt.onError = fn
	}
}

// New constructs a Router ready to register routes on.
func New(opts ...RouterOption) *Router {
	rt := &Router{paramHandlers: make(map[string][]ParamHandler)}
	for _, o := range opts {
		o(rt)
	}
	if rt.notFound == nil {
		rt.notFound = defaultNotFound
	}
	if rt.methodNotAllowed == nil {
		rt.methodNotAllowed = defaultMethodNotAllowed
	}
	if rt.onError == nil {
		rt.onError = defaultErrorHandler
	}
	return rt
}

func defaultNotFound(c *Context, _ Next) error {
	return c.JSON(http.StatusNotFound, map[string]any{"error": "not found", "status": http.StatusNotFound})
}

func defaultMethodNotAllowed(c *Context, _ Next) error {
	return c.JSON(http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed", "status": http.StatusMethodNotAllowed})
}

func defaultErrorHandler(c *Context, err error) {
	status := http.StatusInternalServerError
	msg := "Internal Server Error"
	if se, ok := err.(statusError); ok {
		status = se.HTTPStatus()
		// Only client-error messages are safe to echo; a 5xx keeps the
		// generic body.
		if m := se.Error(); m != "" && status < 500 {
			msg = m
		}
	} else if errors.Is(err, ErrMalformedParam) {
		status = http.StatusBadRequest
		msg = "malformed percent-encoding in path"
	}
	if c.responded {
		return
	}
	_ = c.JSON(status, map[string]any{"error": msg, "status": status})
}

// statusError is implemented by httperr's taxonomy; kept local to avoid an
// import cycle (router cannot import the httperr package that itself wraps
// router.Handler).
type statusError interface {
	error
	HTTPStatus() int
}

// ---- registration ----

func normalizePrefix(p string) string {
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}

func (rt *Router) addLayer(l *Layer) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.layers = append(rt.layers, l)
}

// Use appends global middleware to the root chain.
func (rt *Router) Use(mw ...Handler) {
	for _, m := range mw {
		rt.addLayer(&Layer{kind: kindMiddleware, mw: m})
	}
}

// UsePrefix appends middleware that only runs when the request path has the
// given prefix (on a path-segment boundary). Unlike Mount, the prefix is
// not stripped: the middleware sees the full path.
func (rt *Router) UsePrefix(prefix string, mw ...Handler) {
	p := normalizePrefix(prefix)
	for _, m := range mw {
		rt.addLayer(&Layer{kind: kindMiddleware, prefix: p, mw: m})
	}
}

// Mount delegates to a child Router with prefix stripped from ctx.path; the
// original path is restored before control returns to the outer chain on
// both success and error paths.
func (rt *Router) Mount(prefix string, sub *Router) {
	rt.addLayer(&Layer{kind: kindMount, prefix: normalizePrefix(prefix), router: sub})
}

// Group constructs a fresh child router inside fn, then mounts it at
// prefix.
func (rt *Router) Group(prefix string, fn func(r *Router)) *Router {
	child := New()
	child.opts = rt.opts
	if fn != nil {
		fn(child)
	}
	rt.Mount(prefix, child)
	return child
}

// Version is Group("/v"+v, fn).
func (rt *Router) Version(v string, fn func(r *Router)) *Router {
	return rt.Group("/v"+v, fn)
}

// Param registers a per-parameter handler run before any route carrying
// that parameter.
func (rt *Router) Param(name string, h ParamHandler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.paramHandlers[name] = append(rt.paramHandlers[name], h)
}

func (rt *Router) handle(method, path string, handlers ...Handler) {
	m, err := compilePattern(path, patternOptions{sensitive: rt.opts.sensitive, strict: rt.opts.strict, end: true})
	if err != nil {
		panic(err)
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, l := range rt.layers {
		if l.kind == kindRoute && l.pattern.raw == path {
			if method == "" {
				l.all = append(l.all, handlers...)
			} else {
				if l.methods == nil {
					l.methods = make(map[string][]Handler)
				}
				l.methods[strings.ToUpper(method)] = handlers
			}
			return
		}
	}
	l := &Layer{kind: kindRoute, pattern: m, paramNames: m.paramNames}
	if method == "" {
		l.all = handlers
	} else {
		l.methods = map[string][]Handler{strings.ToUpper(method): handlers}
	}
	rt.layers = append(rt.layers, l)
}

// GET registers a GET route.
func (rt *Router) GET(path string, h ...Handler) { rt.handle(http.MethodGet, path, h...) }

// POST registers a POST route.
func (rt *Router) POST(path string, h ...Handler) { rt.handle(http.MethodPost, path, h...) }

// PUT registers a PUT route.
func (rt *Router) PUT(path string, h ...Handler) { rt.handle(http.MethodPut, path, h...) }

// DELETE registers a DELETE route.
func (rt *Router) DELETE(path string, h ...Handler) { rt.handle(http.MethodDelete, path, h...) }

// PATCH registers a PATCH route.
func (rt *Router) PATCH(path string, h ...Handler) { rt.handle(http.MethodPatch, path, h...) }

// HEAD registers a HEAD route explicitly. If absent, GET is used instead.
func (rt *Router) HEAD(path string, h ...Handler) { rt.handle(http.MethodHead, path, h...) }

// OPTIONS registers an OPTIONS route.
func (rt *Router) OPTIONS(path string, h ...Handler) { rt.handle(http.MethodOptions, path, h...) }

// All registers handlers that answer any method for path.
func (rt *Router) All(path string, h ...Handler) { rt.handle("", path, h...) }

// RouteInfo is a read-only snapshot of a registered route, for
// introspection.
type RouteInfo struct {
	Pattern string
	Methods []string
}

// Routes returns a snapshot of every route registered directly on this
// Router (not recursing into mounted sub-routers).
func (rt *Router) Routes() []RouteInfo {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	var out []RouteInfo
	for _, l := range rt.layers {
		if l.kind != kindRoute {
			continue
		}
		info := RouteInfo{Pattern: l.pattern.raw}
		for m := range l.methods {
			info.Methods = append(info.Methods, m)
		}
		if len(l.all) > 0 {
			info.Methods = append(info.Methods, "ALL")
		}
		out = append(out, info)
	}
	return out
}

// ---- dispatch ----

// ServeHTTP makes Router an http.Handler: it acquires a pooled Context,
// walks the layer stack, emits any unrecovered error through onError, and
// releases the Context.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := acquireContext(w, r, rt)
	defer releaseContext(c)

	matchedPathNoMethod := false
	err := rt.runFrom(c, 0, nil, &matchedPathNoMethod)
	if err != nil {
		rt.onError(c, err)
		return
	}
	if c.responded {
		return
	}
	if matchedPathNoMethod {
		_ = rt.methodNotAllowed(c, func() error { return nil })
		return
	}
	_ = rt.notFound(c, func() error { return nil })
}

// runFrom is the recursive chain walker: each middleware/route/mount is
// invoked with a closure that resumes the walk at idx+1; outerNext (if
// non-nil) is what runs once this Router's own layers are exhausted
// without a match, letting a mounted sub-router fall through to whatever
// follows the Mount layer in the parent.
func (rt *Router) runFrom(c *Context, idx int, outerNext Next, matchedPathNoMethod *bool) error {
	rt.mu.RLock()
	layers := rt.layers
	rt.mu.RUnlock()

	for idx < len(layers) {
		l := layers[idx]
		next := idx + 1

		switch l.kind {
		case kindMiddleware:
			if l.prefix != "" && !pathHasPrefix(c.path, l.prefix) {
				idx = next
				continue
			}
			return l.mw(c, singleUse(func() error {
				return rt.runFrom(c, next, outerNext, matchedPathNoMethod)
			}))

		case kindMount:
			if !pathHasPrefix(c.path, l.prefix) {
				idx = next
				continue
			}
			return rt.runMount(c, l, next, outerNext, matchedPathNoMethod)

		case kindRoute:
			matched, params, mErr := l.pattern.match(c.path)
			if mErr != nil {
				return mErr
			}
			if !matched {
				idx = next
				continue
			}
			handlers, ok := resolveMethodHandlers(l, c.method)
			if !ok {
				*matchedPathNoMethod = true
				idx = next
				continue
			}
			c.mergeParams(params)
			chain := rt.bindParamHandlers(c, l.paramNames, params, handlers)
			return runChain(c, chain, 0, func() error { return rt.runFrom(c, next, outerNext, matchedPathNoMethod) })
		}
	}

	if outerNext != nil {
		return outerNext()
	}
	return nil
}

func (rt *Router) runMount(c *Context, l *Layer, next int, outerNext Next, matchedPathNoMethod *bool) error {
	original := c.path
	stripped := strings.TrimPrefix(original, l.prefix)
	if stripped == "" {
		stripped = "/"
	}
	c.path = stripped

	restored := false
	restore := func() {
		if !restored {
			c.path = original
			restored = true
		}
	}
	defer restore()

	return l.router.runFrom(c, 0, func() error {
		restore()
		return rt.runFrom(c, next, outerNext, matchedPathNoMethod)
	}, matchedPathNoMethod)
}

// pathHasPrefix reports whether path has prefix as a path-segment boundary
// (so "/api" does not match "/apix").
func pathHasPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, "/")
}

// resolveMethodHandlers answers a route's method table, with HEAD falling
// through to GET when no explicit HEAD handler exists.
func resolveMethodHandlers(l *Layer, method string) ([]Handler, bool) {
	if h, ok := l.methods[method]; ok {
		return h, true
	}
	if method == http.MethodHead {
		if h, ok := l.methods[http.MethodGet]; ok {
			return h, true
		}
	}
	if len(l.all) > 0 {
		return l.all, true
	}
	return nil, false
}

// bindParamHandlers splices registered per-parameter handlers in front of a
// route's own handler chain.
func (rt *Router) bindParamHandlers(c *Context, names []string, params map[string]string, handlers []Handler) []Handler {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if len(rt.paramHandlers) == 0 || len(names) == 0 {
		return handlers
	}
	var wrapped []Handler
	for _, name := range names {
		value, ok := params[name]
		if !ok {
			continue
		}
		for _, ph := range rt.paramHandlers[name] {
			ph := ph
			value := value
			name := name
			wrapped = append(wrapped, func(c *Context, next Next) error {
				return ph(c, next, value, name)
			})
		}
	}
	return append(wrapped, handlers...)
}
