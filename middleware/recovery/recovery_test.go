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

package recovery

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltra-dev/veltra/router"
)

func TestRecovery_ConvertsPanicToSanitized500(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	rt := router.New()
	rt.Use(New(WithLogger(l)))
	rt.GET("/panic", func(c *router.Context, _ router.Next) error {
		panic("secret internal detail")
	})

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret internal detail",
		"the panic value is logged, never echoed to the client")
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRecovery_CustomHandler(t *testing.T) {
	t.Parallel()

	rt := router.New()
	rt.Use(New(WithoutLogging(), WithHandler(func(c *router.Context, err any) {
		_ = c.Text(http.StatusServiceUnavailable, "custom recovery")
	})))
	rt.GET("/panic", func(c *router.Context, _ router.Next) error {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "custom recovery", rec.Body.String())
}

func TestRecovery_PassesNormalFlowThrough(t *testing.T) {
	t.Parallel()

	rt := router.New()
	rt.Use(New(WithoutLogging()))
	rt.GET("/", func(c *router.Context, _ router.Next) error {
		return c.Text(http.StatusOK, "fine")
	})

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fine", rec.Body.String())
}
