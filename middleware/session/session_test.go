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

package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltra-dev/veltra/router"
)

const testSecret = "unit-test-secret"

func sessionRouter(opts ...Option) *router.Router {
	rt := router.New()
	rt.Use(New(testSecret, opts...))
	rt.GET("/visit", func(c *router.Context, _ router.Next) error {
		s := c.Session()
		count := 0
		if v, ok := s.Get("count"); ok {
			count = int(v.(float64))
		}
		count++
		s.Set("count", float64(count))
		return c.JSON(http.StatusOK, map[string]int{"count": count})
	})
	rt.GET("/peek", func(c *router.Context, _ router.Next) error {
		if v, ok := c.Session().Get("count"); ok {
			return c.JSON(http.StatusOK, map[string]any{"count": v})
		}
		return c.JSON(http.StatusOK, map[string]any{"count": nil})
	})
	return rt
}

func TestSession_MandatorySecret(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New("") })
}

func TestSession_CookieIssuedOnFirstWrite(t *testing.T) {
	t.Parallel()

	rt := sessionRouter()
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visit", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	setCookie := rec.Header().Get("Set-Cookie")
	require.Contains(t, setCookie, "veltra.sid=")
	assert.Contains(t, setCookie, "HttpOnly")
	assert.Contains(t, setCookie, "SameSite=Lax")
}

func TestSession_ReadOnlyRequestIssuesNoCookie(t *testing.T) {
	t.Parallel()

	rt := sessionRouter()
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/peek", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"), "a session that was never written needs no cookie")
}

func TestSession_PersistsAcrossRequests(t *testing.T) {
	t.Parallel()

	rt := sessionRouter()

	first := httptest.NewRecorder()
	rt.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/visit", nil))
	require.Equal(t, http.StatusOK, first.Code)
	cookie := extractCookie(t, first)

	second := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/visit", nil)
	req.AddCookie(cookie)
	rt.ServeHTTP(second, req)

	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"count":2}`, second.Body.String())
}

func TestSession_TamperedCookieIgnored(t *testing.T) {
	t.Parallel()

	rt := sessionRouter()

	first := httptest.NewRecorder()
	rt.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/visit", nil))
	cookie := extractCookie(t, first)

	// Flip the signed id: the signature no longer verifies, so the data
	// must not load.
	cookie.Value = "forged" + cookie.Value[6:]

	second := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/visit", nil)
	req.AddCookie(cookie)
	rt.ServeHTTP(second, req)

	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"count":1}`, second.Body.String())
}

func extractCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	resp := rec.Result()
	defer resp.Body.Close()
	for _, ck := range resp.Cookies() {
		if ck.Name == "veltra.sid" {
			return ck
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSignedValue_RoundTrip(t *testing.T) {
	t.Parallel()

	key := []byte("k")
	v := signedValue("abc-123", key)
	id, ok := verifySignedValue(v, key)
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)

	_, ok = verifySignedValue(v, []byte("other-key"))
	assert.False(t, ok)

	_, ok = verifySignedValue("no-signature", key)
	assert.False(t, ok)

	_, ok = verifySignedValue(strings.Replace(v, ".", "x", 1), key)
	assert.False(t, ok)
}

func TestMemoryStore_TTL(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Millisecond)
	require.NoError(t, store.Set(nil, "id", map[string]any{"k": "v"}))
	time.Sleep(5 * time.Millisecond)
	data, err := store.Get(nil, "id")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Set(nil, "abc-123", map[string]any{"user": "ada"}))
	data, err := store.Get(nil, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "ada", data["user"])

	require.NoError(t, store.Delete(nil, "abc-123"))
	data, err = store.Get(nil, "abc-123")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	for _, id := range []string{"../escape", "a/b", `a\b`, "dotted.name", ""} {
		assert.ErrorIs(t, store.Set(nil, id, map[string]any{}), ErrBadSessionID, "id %q", id)
	}
}

func TestSession_SaveCoalescing(t *testing.T) {
	t.Parallel()

	s := router.NewSession("sid")
	s.Set("a", 1)

	// Claim the saving flag as an in-flight save would, then ask for
	// another save: it must yield, leaving the dirty flag for the
	// in-flight saver's follow-up pass.
	require.True(t, s.BeginSave())
	require.False(t, s.BeginSave())
	s.EndSave()
	require.True(t, s.BeginSave())
	s.EndSave()
}
