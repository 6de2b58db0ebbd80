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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltra-dev/veltra/router"
)

func TestMetrics_CountsByStatusClass(t *testing.T) {
	t.Parallel()

	col := NewCollector()
	rt := router.New()
	rt.Use(New(col))
	rt.GET("/ok", func(c *router.Context, _ router.Next) error {
		return c.Text(http.StatusOK, "fine")
	})
	rt.GET("/gone", func(c *router.Context, _ router.Next) error {
		return c.Text(http.StatusNotFound, "nope")
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	}
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gone", nil))

	snaps := col.Snapshots()
	require.Len(t, snaps, 2)

	byClass := map[int]Snapshot{}
	for _, s := range snaps {
		byClass[s.StatusClass] = s
	}
	assert.Equal(t, int64(3), byClass[2].Count)
	assert.Equal(t, int64(1), byClass[4].Count)
}
