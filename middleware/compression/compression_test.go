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

package compression

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltra-dev/veltra/router"
)

var bigText = strings.Repeat("all work and no play makes a dull response body. ", 64)

func compressedRouter(opts ...Option) *router.Router {
	rt := router.New()
	rt.Use(New(opts...))
	rt.GET("/big", func(c *router.Context, _ router.Next) error {
		return c.Text(http.StatusOK, bigText)
	})
	rt.GET("/small", func(c *router.Context, _ router.Next) error {
		return c.Text(http.StatusOK, "tiny")
	})
	rt.GET("/binary", func(c *router.Context, _ router.Next) error {
		return c.Send(http.StatusOK, "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	})
	return rt
}

func get(rt *router.Router, target, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	return rec
}

func TestCompression_GzipRoundTrip(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(), "/big", "gzip")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	defer zr.Close()
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, bigText, string(out), "decompressing yields the original body bytes")
}

func TestCompression_BrotliPreferred(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(), "/big", "gzip, br, deflate")
	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))

	out, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)
	assert.Equal(t, bigText, string(out))
}

func TestCompression_DeflateRoundTrip(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(), "/big", "deflate")
	require.Equal(t, "deflate", rec.Header().Get("Content-Encoding"))

	fr := flate.NewReader(bytes.NewReader(rec.Body.Bytes()))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	require.NoError(t, err)
	assert.Equal(t, bigText, string(out))
}

func TestCompression_QValueZeroExcludes(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(), "/big", "br;q=0, gzip")
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	rec = get(compressedRouter(), "/big", "gzip;q=0, br;q=0, deflate;q=0")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, bigText, rec.Body.String())
}

func TestCompression_QValueOrdering(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(), "/big", "br;q=0.5, gzip;q=0.9")
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestCompression_ThresholdSkipsSmallBodies(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(), "/small", "gzip")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "tiny", rec.Body.String())
}

func TestCompression_SkipsNonTextContentTypes(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(), "/binary", "gzip")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestCompression_NoAcceptEncoding(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(), "/big", "")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, bigText, rec.Body.String())
}

func TestCompression_ExcludedPath(t *testing.T) {
	t.Parallel()

	rec := get(compressedRouter(WithExcludePaths("/big")), "/big", "gzip")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestParseQValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, parseQValue("gzip, br", "gzip"))
	assert.Equal(t, 0.5, parseQValue("gzip;q=0.5, br;q=1", "gzip"))
	assert.Equal(t, 1.0, parseQValue("gzip;q=0.5, br", "br"))
	assert.Equal(t, float64(0), parseQValue("br, gzip;q=0", "gzip"))
	assert.Equal(t, float64(-1), parseQValue("gzip", "br"), "absent codec reports -1")
	assert.Equal(t, float64(0), parseQValue("br;q=0, gzip", "br"), "one entry's q must not bleed into another's")
}
