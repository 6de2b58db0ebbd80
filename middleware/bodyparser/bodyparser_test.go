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

package bodyparser

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltra-dev/veltra/internal/safeparse"
	"github.com/veltra-dev/veltra/router"
)

// capture registers the parser plus a terminal handler that snapshots the
// parsed body.
func capture(opts ...Option) (*router.Router, *struct {
	body  any
	set   bool
	files []*router.MultipartFile
}) {
	out := &struct {
		body  any
		set   bool
		files []*router.MultipartFile
	}{}
	rt := router.New()
	rt.Use(New(opts...))
	rt.POST("/", func(c *router.Context, _ router.Next) error {
		out.body, out.set = c.Body()
		out.files = c.Files()
		return c.End(http.StatusNoContent)
	})
	return rt, out
}

func post(rt *router.Router, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	return rec
}

func TestBodyParser_JSON(t *testing.T) {
	t.Parallel()

	rt, out := capture()
	rec := post(rt, "application/json", `{"name":"ada","age":36}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, out.set)

	m, ok := out.body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada", m["name"])
}

func TestBodyParser_JSONCharsetTolerant(t *testing.T) {
	t.Parallel()

	rt, out := capture()
	rec := post(rt, "application/json; charset=utf-8", `{"ok":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, out.set)
}

func TestBodyParser_JSONMalformed(t *testing.T) {
	t.Parallel()

	rt, _ := capture()
	rec := post(rt, "application/json", `{"broken":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyParser_JSONDepthLimit(t *testing.T) {
	t.Parallel()

	rt, _ := capture(WithMaxJSONDepth(3))
	deep := strings.Repeat("[", 10) + strings.Repeat("]", 10)
	rec := post(rt, "application/json", deep)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyParser_Oversize(t *testing.T) {
	t.Parallel()

	rt, _ := capture(WithMaxBodySize(16))
	rec := post(rt, "application/json", `{"padding":"`+strings.Repeat("x", 64)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyParser_Form(t *testing.T) {
	t.Parallel()

	rt, out := capture()
	rec := post(rt, "application/x-www-form-urlencoded", "a=1&b=two+words")
	require.Equal(t, http.StatusNoContent, rec.Code)

	values, ok := out.body.(*safeparse.Values)
	require.True(t, ok)
	assert.Equal(t, "1", values.Get("a"))
	assert.Equal(t, "two words", values.Get("b"))
}

func TestBodyParser_FormRejectsPollutionKeys(t *testing.T) {
	t.Parallel()

	rt, _ := capture()
	rec := post(rt, "application/x-www-form-urlencoded", "__proto__=evil")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyParser_Text(t *testing.T) {
	t.Parallel()

	rt, out := capture()
	rec := post(rt, "text/plain", "hello body")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "hello body", out.body)
}

func TestBodyParser_EmptyBodyIsNotAnError(t *testing.T) {
	t.Parallel()

	rt, out := capture()
	rec := post(rt, "application/json", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, out.set, "an empty POST leaves the body unset")
}

func TestBodyParser_UnknownTypeUntouchedWithoutRaw(t *testing.T) {
	t.Parallel()

	rt, out := capture()
	rec := post(rt, "application/msgpack", "\x81\xa1k\xa1v")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, out.set)
}

func TestBodyParser_RawMode(t *testing.T) {
	t.Parallel()

	rt, out := capture(WithRaw())
	rec := post(rt, "application/octet-stream", "rawbytes")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []byte("rawbytes"), out.body)
}

func TestBodyParser_Multipart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "ada"))
	fw, err := w.CreateFormFile("upload", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("file contents"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rt, out := capture()
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	values, ok := out.body.(*safeparse.Values)
	require.True(t, ok)
	assert.Equal(t, "ada", values.Get("name"))

	require.Len(t, out.files, 1)
	assert.Equal(t, "notes.txt", out.files[0].Filename)
	assert.Equal(t, []byte("file contents"), out.files[0].Data)
	assert.Equal(t, int64(len("file contents")), out.files[0].Size)
}

func TestBodyParser_MultipartOversize(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("big", strings.Repeat("x", 2048)))
	require.NoError(t, w.Close())

	rt, _ := capture(WithMaxBodySize(512))
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
