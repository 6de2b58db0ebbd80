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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veltra-dev/veltra/internal/safeparse"
	"github.com/veltra-dev/veltra/router"
)

// Option configures the session middleware.
type Option func(*config)

type config struct {
	cookieName string
	ttl        time.Duration
	path       string
	secure     bool
	httpOnly   bool
	sameSite   string
	store      Store
}

func defaultConfig() *config {
	return &config{
		cookieName: "veltra.sid",
		ttl:        24 * time.Hour,
		path:       "/",
		httpOnly:   true,
		sameSite:   "lax",
	}
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.cookieName = name
		}
	}
}

// WithTTL sets both the cookie Max-Age and the store expiry.
func WithTTL(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.ttl = d
		}
	}
}

// WithSecure marks the session cookie Secure.
func WithSecure() Option {
	return func(cfg *config) { cfg.secure = true }
}

// WithSameSite sets the cookie SameSite attribute ("strict", "lax", or
// "none"; default "lax").
func WithSameSite(mode string) Option {
	return func(cfg *config) { cfg.sameSite = mode }
}

// WithStore plugs in a custom session store (default: in-memory).
func WithStore(s Store) Option {
	return func(cfg *config) {
		if s != nil {
			cfg.store = s
		}
	}
}

// New returns session middleware signing cookies with secret. The secret
// is mandatory: an empty one panics at construction, never at request
// time.
func New(secret string, opts ...Option) router.Handler {
	if secret == "" {
		panic("session: a signing secret is required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = NewMemoryStore(cfg.ttl)
	}
	key := []byte(secret)

	return func(c *router.Context, next router.Next) error {
		sess, isNew := loadSession(c, cfg, key)
		c.SetSession(sess)

		// The cookie decision has to happen at flush time: only then is
		// it known whether the handler actually wrote to a fresh
		// session.
		original := c.Response
		cw := &cookieWriter{
			ResponseWriter: original,
			cookie: func() string {
				if isNew && sess.Dirty() {
					return sessionCookie(cfg, signedValue(sess.ID, key)).String()
				}
				return ""
			},
		}
		c.Response = cw

		err := next()
		c.Response = original

		if sess.Dirty() {
			if serr := persist(c, cfg.store, sess); serr != nil && err == nil {
				err = serr
			}
		}
		return err
	}
}

func sessionCookie(cfg *config, value string) *http.Cookie {
	ck := &http.Cookie{
		Name:     cfg.cookieName,
		Value:    value,
		Path:     cfg.path,
		MaxAge:   int(cfg.ttl.Seconds()),
		Secure:   cfg.secure,
		HttpOnly: cfg.httpOnly,
	}
	switch strings.ToLower(cfg.sameSite) {
	case "strict":
		ck.SameSite = http.SameSiteStrictMode
	case "lax":
		ck.SameSite = http.SameSiteLaxMode
	case "none":
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}

// cookieWriter appends the session cookie to the response head the moment
// it is flushed, so a handler that writes the session and then responds in
// the same breath still gets its cookie out.
type cookieWriter struct {
	http.ResponseWriter
	cookie func() string
	wrote  bool
}

func (w *cookieWriter) WriteHeader(code int) {
	if !w.wrote {
		w.wrote = true
		if ck := w.cookie(); ck != "" {
			w.ResponseWriter.Header().Add("Set-Cookie", ck)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cookieWriter) Write(p []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

// loadSession resolves the request's session: a validly signed cookie id
// is looked up in the store; anything else yields a fresh empty session
// whose cookie is only issued if the handler actually writes to it.
func loadSession(c *router.Context, cfg *config, key []byte) (*router.Session, bool) {
	if ck := c.Cookie(cfg.cookieName); ck != nil {
		if id, ok := verifySignedValue(ck.Value, key); ok {
			sess := router.NewSession(id)
			if data, err := cfg.store.Get(c.Request.Context(), id); err == nil && data != nil {
				sess.Replace(data)
			}
			return sess, false
		}
	}
	return router.NewSession(uuid.NewString()), true
}

// persist writes the session through the store, serializing concurrent
// saves. A save requested while one is in flight is not dropped: the
// in-flight saver re-checks the dirty flag after finishing and runs a
// follow-up save for any writes that landed meanwhile.
func persist(c *router.Context, store Store, sess *router.Session) error {
	for {
		if !sess.BeginSave() {
			// Another save is running; it will observe the dirty flag
			// and follow up.
			return nil
		}
		sess.MarkClean()
		err := store.Set(c.Request.Context(), sess.ID, sess.Snapshot())
		sess.EndSave()
		if err != nil {
			return err
		}
		if !sess.Dirty() {
			return nil
		}
	}
}

// signedValue renders "id.signature" with an HMAC-SHA256 signature over
// the id.
func signedValue(id string, key []byte) string {
	return id + "." + sign(id, key)
}

func sign(id string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verifySignedValue splits and checks a cookie value in constant time.
func verifySignedValue(value string, key []byte) (id string, ok bool) {
	dot := strings.LastIndexByte(value, '.')
	if dot <= 0 || dot == len(value)-1 {
		return "", false
	}
	id, sig := value[:dot], value[dot+1:]
	if !safeparse.ConstantTimeEqualString(sig, sign(id, key)) {
		return "", false
	}
	return id, true
}
