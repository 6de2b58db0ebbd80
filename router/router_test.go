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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doReq(rt *Router, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	return rec
}

func TestRouter_BasicDispatch(t *testing.T) {
	t.Parallel()

	rt := New()
	rt.GET("/users/:id", func(c *Context, _ Next) error {
		return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
	})

	rec := doReq(rt, http.MethodGet, "/users/42")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()

	rt := New()
	rt.GET("/known", func(c *Context, _ Next) error { return c.Text(200, "ok") })

	rec := doReq(rt, http.MethodGet, "/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	rt := New()
	rt.GET("/thing", func(c *Context, _ Next) error { return c.Text(200, "ok") })

	rec := doReq(rt, http.MethodDelete, "/thing")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_HeadFallsThroughToGet(t *testing.T) {
	t.Parallel()

	rt := New()
	rt.GET("/doc", func(c *Context, _ Next) error {
		c.Set("X-Doc", "yes")
		return c.Text(http.StatusOK, "body")
	})

	rec := doReq(rt, http.MethodHead, "/doc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "yes", rec.Header().Get("X-Doc"))
}

func TestRouter_AllHandlesAnyMethod(t *testing.T) {
	t.Parallel()

	rt := New()
	rt.All("/any", func(c *Context, _ Next) error { return c.Text(200, c.Method()) })

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPatch} {
		rec := doReq(rt, method, "/any")
		require.Equal(t, http.StatusOK, rec.Code, method)
	}
}

func TestRouter_MiddlewareUnwindOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tap := func(name string) Handler {
		return func(c *Context, next Next) error {
			order = append(order, name+":in")
			err := next()
			order = append(order, name+":out")
			return err
		}
	}

	rt := New()
	rt.Use(tap("a"), tap("b"))
	rt.GET("/", func(c *Context, _ Next) error {
		order = append(order, "handler")
		return c.Text(200, "ok")
	})

	doReq(rt, http.MethodGet, "/")
	assert.Equal(t, []string{"a:in", "b:in", "handler", "b:out", "a:out"}, order)
}

func TestRouter_NextCalledTwice(t *testing.T) {
	t.Parallel()

	var caught error
	rt := New(WithErrorHandler(func(c *Context, err error) {
		caught = err
		_ = c.End(http.StatusInternalServerError)
	}))
	rt.Use(func(c *Context, next Next) error {
		if err := next(); err != nil {
			return err
		}
		return next()
	})
	rt.GET("/", func(c *Context, _ Next) error { return nil })

	rec := doReq(rt, http.MethodGet, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.ErrorIs(t, caught, ErrNextCalledTwice)
}

func TestRouter_ShortCircuitWithoutNext(t *testing.T) {
	t.Parallel()

	reached := false
	rt := New()
	rt.Use(func(c *Context, _ Next) error {
		return c.Text(http.StatusTeapot, "stopped here")
	})
	rt.GET("/", func(c *Context, _ Next) error {
		reached = true
		return nil
	})

	rec := doReq(rt, http.MethodGet, "/")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.False(t, reached)
}

func TestRouter_MountStripsAndRestoresPath(t *testing.T) {
	t.Parallel()

	var seenInner, seenAfter string
	sub := New()
	sub.GET("/users/:id", func(c *Context, _ Next) error {
		seenInner = c.Path()
		return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
	})

	rt := New()
	rt.Use(func(c *Context, next Next) error {
		err := next()
		seenAfter = c.Path()
		return err
	})
	rt.Mount("/api", sub)

	rec := doReq(rt, http.MethodGet, "/api/users/7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"7"}`, rec.Body.String())
	assert.Equal(t, "/users/7", seenInner, "mounted router sees the stripped path")
	assert.Equal(t, "/api/users/7", seenAfter, "outer chain sees the original path restored")
}

func TestRouter_MountRestoresPathOnError(t *testing.T) {
	t.Parallel()

	var seenAfter string
	sub := New()
	sub.GET("/boom", func(c *Context, _ Next) error {
		return errors.New("inner failure")
	})

	rt := New(WithErrorHandler(func(c *Context, err error) {
		_ = c.End(http.StatusInternalServerError)
	}))
	rt.Use(func(c *Context, next Next) error {
		err := next()
		seenAfter = c.Path()
		return err
	})
	rt.Mount("/api", sub)

	doReq(rt, http.MethodGet, "/api/boom")
	assert.Equal(t, "/api/boom", seenAfter)
}

func TestRouter_MountFallsThroughToLaterLayers(t *testing.T) {
	t.Parallel()

	sub := New()
	sub.GET("/only-this", func(c *Context, _ Next) error { return c.Text(200, "sub") })

	rt := New()
	rt.Mount("/api", sub)
	rt.GET("/api/other", func(c *Context, _ Next) error { return c.Text(200, "outer") })

	rec := doReq(rt, http.MethodGet, "/api/other")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "outer", rec.Body.String())
}

func TestRouter_MountPrefixBoundary(t *testing.T) {
	t.Parallel()

	sub := New()
	sub.GET("/x", func(c *Context, _ Next) error { return c.Text(200, "sub") })

	rt := New()
	rt.Mount("/api", sub)

	rec := doReq(rt, http.MethodGet, "/apix/x")
	assert.Equal(t, http.StatusNotFound, rec.Code, "/api must not match /apix")
}

func TestRouter_GroupAndVersion(t *testing.T) {
	t.Parallel()

	rt := New()
	rt.Group("/admin", func(r *Router) {
		r.GET("/stats", func(c *Context, _ Next) error { return c.Text(200, "stats") })
	})
	rt.Version("2", func(r *Router) {
		r.GET("/ping", func(c *Context, _ Next) error { return c.Text(200, "pong2") })
	})

	rec := doReq(rt, http.MethodGet, "/admin/stats")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doReq(rt, http.MethodGet, "/v2/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong2", rec.Body.String())
}

func TestRouter_UsePrefix(t *testing.T) {
	t.Parallel()

	var hits []string
	rt := New()
	rt.UsePrefix("/api", func(c *Context, next Next) error {
		hits = append(hits, c.Path())
		return next()
	})
	rt.GET("/api/a", func(c *Context, _ Next) error { return c.Text(200, "a") })
	rt.GET("/b", func(c *Context, _ Next) error { return c.Text(200, "b") })

	doReq(rt, http.MethodGet, "/api/a")
	doReq(rt, http.MethodGet, "/b")
	assert.Equal(t, []string{"/api/a"}, hits)
}

func TestRouter_ParamHandlerRunsFirst(t *testing.T) {
	t.Parallel()

	var order []string
	rt := New()
	rt.Param("id", func(c *Context, next Next, value, name string) error {
		order = append(order, "param:"+name+"="+value)
		c.SetState("loaded", "user-"+value)
		return next()
	})
	rt.GET("/users/:id", func(c *Context, _ Next) error {
		order = append(order, "handler")
		loaded, _ := c.State("loaded")
		return c.Text(200, loaded.(string))
	})

	rec := doReq(rt, http.MethodGet, "/users/9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-9", rec.Body.String())
	assert.Equal(t, []string{"param:id=9", "handler"}, order)
}

func TestRouter_ParamHandlerErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("load failed")
	var caught error
	rt := New(WithErrorHandler(func(c *Context, err error) {
		caught = err
		_ = c.End(http.StatusInternalServerError)
	}))
	rt.Param("id", func(c *Context, next Next, value, name string) error {
		return boom
	})
	rt.GET("/users/:id", func(c *Context, _ Next) error { return c.Text(200, "never") })

	doReq(rt, http.MethodGet, "/users/3")
	assert.ErrorIs(t, caught, boom)
}

func TestRouter_MultipleHandlersPerRoute(t *testing.T) {
	t.Parallel()

	var order []string
	rt := New()
	rt.GET("/multi",
		func(c *Context, next Next) error {
			order = append(order, "first")
			return next()
		},
		func(c *Context, _ Next) error {
			order = append(order, "second")
			return c.Text(200, "done")
		},
	)

	rec := doReq(rt, http.MethodGet, "/multi")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	rt := New()
	rt.GET("/a", func(c *Context, _ Next) error { return nil })
	rt.POST("/a", func(c *Context, _ Next) error { return nil })
	rt.All("/b", func(c *Context, _ Next) error { return nil })

	infos := rt.Routes()
	require.Len(t, infos, 2)
	assert.ElementsMatch(t, []string{http.MethodGet, http.MethodPost}, infos[0].Methods)
	assert.Equal(t, []string{"ALL"}, infos[1].Methods)
}
