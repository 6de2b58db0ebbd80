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
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/veltra-dev/veltra/internal/safeparse"
)

// Context is the per-request mutable state object threaded through the
// middleware chain. One Context is live per in-flight request; it is
// acquired from a pool on arrival and reset and released on completion.
//
// A Context must not be retained past the handler that received it: once
// released, reset() clears every field that could leak data to the next
// request to hold this instance.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter

	router *Router

	method string
	path   string // mutable: nested routers rewrite and must restore, see dispatch()

	query      *safeparse.Values
	queryErr   error
	queryOnce  bool

	headers http.Header

	cookies     map[string]*http.Cookie
	cookiesOnce bool

	params map[string]string

	body     any
	bodySet  bool
	files    []*MultipartFile

	state map[string]any

	session *Session

	statusCode int
	responded  bool
	respHeader http.Header

	errs []error
}

// MultipartFile describes one file part of a multipart/form-data body.
type MultipartFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

func newContext() *Context {
	return &Context{state: make(map[string]any, 4)}
}

// init binds a Context to a live request/response pair. This and reset are
// the only legal pool transitions.
func (c *Context) init(w http.ResponseWriter, r *http.Request, rt *Router) {
	c.Request = r
	c.Response = w
	c.router = rt
	c.method = strings.ToUpper(r.Method)
	// The escaped form is matched so parameter decoding (and its 400 on
	// malformed encoding) stays under the router's control.
	c.path = r.URL.EscapedPath()
	c.headers = r.Header
	c.statusCode = http.StatusOK
}

// reset clears every field that could leak data between requests. Called
// before the Context is returned to the pool.
func (c *Context) reset() {
	c.Request = nil
	c.Response = nil
	c.router = nil
	c.method = ""
	c.path = ""
	c.query = nil
	c.queryErr = nil
	c.queryOnce = false
	c.headers = nil
	c.cookies = nil
	c.cookiesOnce = false
	c.params = nil
	c.body = nil
	c.bodySet = false
	c.files = nil
	for k := range c.state {
		delete(c.state, k)
	}
	c.session = nil
	c.statusCode = http.StatusOK
	c.responded = false
	c.respHeader = nil
	c.errs = nil
}

// ---- Request accessors ----

// Method returns the uppercased HTTP method.
func (c *Context) Method() string { return c.method }

// Path returns the current request path as seen by the active layer. It
// may differ from the original URL path inside a mounted sub-router.
func (c *Context) Path() string { return c.path }

// URL returns the original request URL (unaffected by mount-prefix
// stripping).
func (c *Context) URL() string { return c.Request.URL.String() }

// Header returns the first value of the given request header, matching
// http.Header's own case-insensitive canonicalization.
func (c *Context) Header(name string) string { return c.headers.Get(name) }

// HeaderValues returns every value of the given request header.
func (c *Context) HeaderValues(name string) []string { return c.headers.Values(name) }

// Query lazily parses the URL query string, rejecting oversize input and
// prototype-pollution key names.
func (c *Context) Query() (*safeparse.Values, error) {
	if !c.queryOnce {
		c.query, c.queryErr = safeparse.ParseQuery(c.Request.URL.RawQuery)
		c.queryOnce = true
	}
	return c.query, c.queryErr
}

// QueryParam returns a single query parameter value, ignoring parse
// errors (use Query() directly to observe them).
func (c *Context) QueryParam(name string) string {
	v, err := c.Query()
	if err != nil || v == nil {
		return ""
	}
	return v.Get(name)
}

// Cookies lazily parses the Cookie header.
func (c *Context) Cookies() map[string]*http.Cookie {
	if !c.cookiesOnce {
		c.cookies = make(map[string]*http.Cookie)
		for _, ck := range c.Request.Cookies() {
			c.cookies[ck.Name] = ck
		}
		c.cookiesOnce = true
	}
	return c.cookies
}

// Cookie returns a single request cookie, or nil if absent.
func (c *Context) Cookie(name string) *http.Cookie {
	return c.Cookies()[name]
}

// Param returns a router-populated path parameter. Never settable by user
// code.
func (c *Context) Param(name string) string {
	if c.params == nil {
		return ""
	}
	return c.params[name]
}

// Params returns a copy of every populated path parameter.
func (c *Context) Params() map[string]string {
	out := make(map[string]string, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

func (c *Context) mergeParams(params map[string]string) {
	if len(params) == 0 {
		return
	}
	if c.params == nil {
		c.params = make(map[string]string, len(params))
	}
	for k, v := range params {
		c.params[k] = v
	}
}

// Body returns the lazily-parsed request body, set by a body-parsing
// middleware. ok is false if no parser has run yet.
func (c *Context) Body() (any, bool) { return c.body, c.bodySet }

// SetBody is called by body-parsing middleware to publish the parsed
// value.
func (c *Context) SetBody(v any) {
	c.body = v
	c.bodySet = true
}

// Files returns parsed multipart file parts, if any.
func (c *Context) Files() []*MultipartFile { return c.files }

// SetFiles is called by the multipart body parser.
func (c *Context) SetFiles(files []*MultipartFile) { c.files = files }

// State is the free map for inter-middleware payloads.
func (c *Context) State(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// SetState stores a value in the inter-middleware state map.
func (c *Context) SetState(key string, value any) {
	if c.state == nil {
		c.state = make(map[string]any, 4)
	}
	c.state[key] = value
}

// ClientIP returns the request's remote IP, stripping any port.
func (c *Context) ClientIP() string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// AddError records an error without altering the response, for
// introspection by downstream middleware (e.g. logging).
func (c *Context) AddError(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

// Errors returns every error recorded on this Context so far.
func (c *Context) Errors() []error { return c.errs }

// HasErrors reports whether any error has been recorded.
func (c *Context) HasErrors() bool { return len(c.errs) > 0 }

// Responded reports whether the response has already been flushed or
// explicitly ended.
func (c *Context) Responded() bool { return c.responded }

// StatusCode returns the status code that will be (or was) sent.
func (c *Context) StatusCode() int { return c.statusCode }

// ---- Response builders ----

// Status validates and sets the response status code without writing it.
// A code outside [100, 599] leaves the status unchanged and records
// ErrInvalidStatus (see Errors).
func (c *Context) Status(code int) *Context {
	if c.responded {
		c.AddError(ErrAlreadyResponded)
		return c
	}
	if code < 100 || code > 599 {
		c.AddError(ErrInvalidStatus)
		return c
	}
	c.statusCode = code
	return c
}

const maxHeaderValueBytes = 8192

// Set validates and stores a response header. Rejects names/values
// containing CR, LF, or NUL, and values over 8192 bytes.
func (c *Context) Set(name, value string) *Context {
	if c.responded {
		c.AddError(ErrAlreadyResponded)
		return c
	}
	if !validHeaderToken(name) || !validHeaderValue(value) {
		c.AddError(ErrInvalidHeader)
		return c
	}
	if c.respHeader == nil {
		c.respHeader = make(http.Header)
	}
	c.respHeader.Set(name, value)
	return c
}

func validHeaderToken(s string) bool {
	if s == "" {
		return false
	}
	return validHeaderValue(s)
}

func validHeaderValue(s string) bool {
	if len(s) > maxHeaderValueBytes {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r', '\n', 0:
			return false
		}
	}
	return true
}

const (
	maxCookieNameBytes  = 256
	maxCookieValueBytes = 4096
)

// CookieOptions configures SetCookie.
type CookieOptions struct {
	MaxAge   int
	Expires  time.Time
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite string // "strict", "lax", "none", or "" (unset)
}

// SetCookie validates and appends a Set-Cookie response header.
func (c *Context) SetCookie(name, value string, opts CookieOptions) *Context {
	if c.responded {
		c.AddError(ErrAlreadyResponded)
		return c
	}
	if !validCookieName(name) || !validCookieValue(value) {
		c.AddError(ErrInvalidCookie)
		return c
	}

	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: opts.HTTPOnly,
	}
	if !opts.Expires.IsZero() {
		ck.Expires = opts.Expires
	}
	// Empty SameSite means unset; must not attempt to transform a
	// zero-length string.
	switch strings.ToLower(opts.SameSite) {
	case "strict":
		ck.SameSite = http.SameSiteStrictMode
	case "lax":
		ck.SameSite = http.SameSiteLaxMode
	case "none":
		ck.SameSite = http.SameSiteNoneMode
	case "":
		// leave unset
	default:
		c.AddError(ErrInvalidCookie)
		return c
	}

	if c.respHeader == nil {
		c.respHeader = make(http.Header)
	}
	c.respHeader.Add("Set-Cookie", ck.String())
	return c
}

func validCookieName(name string) bool {
	if name == "" || len(name) > maxCookieNameBytes {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x21 || name[i] == 0x7f {
			return false
		}
	}
	return true
}

func validCookieValue(value string) bool {
	if len(value) > maxCookieValueBytes {
		return false
	}
	return validHeaderValue(value)
}

var dangerousRedirectSchemes = []string{"javascript:", "data:", "vbscript:", "file:", "about:"}

// RedirectOptions gates external redirects.
type RedirectOptions struct {
	AllowedHosts    []string
	AllowOpenRedirect bool
}

// Redirect validates and sends a redirect response. Dangerous schemes are
// rejected outright; external targets require either an allow-listed host
// or an explicit opt-in.
func (c *Context) Redirect(target string, status int, opts RedirectOptions) error {
	if c.responded {
		return ErrAlreadyResponded
	}
	lower := strings.ToLower(strings.TrimSpace(target))
	for _, scheme := range dangerousRedirectSchemes {
		if strings.HasPrefix(lower, scheme) {
			return ErrDangerousScheme
		}
	}

	if isAbsoluteWithHost(target) {
		if !opts.AllowOpenRedirect && !hostAllowed(target, opts.AllowedHosts) {
			return ErrExternalRedirect
		}
	}

	if status == 0 {
		status = http.StatusFound
	}
	c.Set("Location", target)
	return c.writeStatus(status)
}

// isAbsoluteWithHost reports whether target names a host of its own: an
// explicit scheme ("https://..."), or a protocol-relative form. Browsers
// resolve "//evil.com" (and the backslash variants some of them normalize
// to slashes) against the current scheme, so those count as external too.
func isAbsoluteWithHost(target string) bool {
	if idx := strings.Index(target, "://"); idx > 0 && idx < 16 {
		return true
	}
	if len(target) < 2 {
		return false
	}
	first, second := target[0], target[1]
	if (first == '/' || first == '\\') && (second == '/' || second == '\\') {
		return true
	}
	return false
}

// hostAllowed parses target and compares its host against the allow-list
// exactly (or as a dot-boundary suffix, so "example.com" also admits
// "api.example.com"). A target whose host cannot be parsed is never
// allowed.
func hostAllowed(target string, allowed []string) bool {
	u, err := url.Parse(strings.ReplaceAll(target, "\\", "/"))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, h := range allowed {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// JSON writes v as a JSON response body, setting Content-Type if unset.
func (c *Context) JSON(status int, v any) error {
	return c.writeBody(status, "application/json; charset=utf-8", jsonMarshal(v))
}

// Text writes s as a plain-text response body.
func (c *Context) Text(status int, s string) error {
	return c.writeBody(status, "text/plain; charset=utf-8", []byte(s))
}

// HTML writes s as an HTML response body.
func (c *Context) HTML(status int, s string) error {
	return c.writeBody(status, "text/html; charset=utf-8", []byte(s))
}

// Send writes raw bytes with an explicit content type.
func (c *Context) Send(status int, contentType string, body []byte) error {
	return c.writeBody(status, contentType, body)
}

// Stream writes the response body by draining r in chunks, flushing
// headers first. Between chunks the request context is checked so a client
// disconnect stops the copy and releases the source. Header mutation is
// illegal once streaming has begun.
func (c *Context) Stream(status int, contentType string, r io.Reader) error {
	if c.responded {
		return ErrAlreadyResponded
	}
	if status != 0 {
		c.statusCode = status
	}
	if c.respHeader == nil {
		c.respHeader = make(http.Header)
	}
	if contentType != "" && c.respHeader.Get("Content-Type") == "" {
		c.respHeader.Set("Content-Type", contentType)
	}
	c.flushHeaders(c.statusCode)
	c.responded = true

	ctx := c.Request.Context()
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := c.Response.Write(buf[:n]); werr != nil {
				return werr
			}
			if f, ok := c.Response.(http.Flusher); ok {
				f.Flush()
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// End flushes the response with no body, useful for 204/304-style
// responses.
func (c *Context) End(status int) error {
	if c.responded {
		return ErrAlreadyResponded
	}
	if err := c.writeStatus(status); err != nil {
		return err
	}
	c.responded = true
	return nil
}

func (c *Context) writeBody(status int, contentType string, body []byte) error {
	if c.responded {
		return ErrAlreadyResponded
	}
	if status != 0 {
		c.statusCode = status
	}
	if c.respHeader == nil {
		c.respHeader = make(http.Header)
	}
	if contentType != "" && c.respHeader.Get("Content-Type") == "" {
		c.respHeader.Set("Content-Type", contentType)
	}
	c.flushHeaders(c.statusCode)
	_, err := c.Response.Write(body)
	c.responded = true
	return err
}

func (c *Context) writeStatus(status int) error {
	if status != 0 {
		c.statusCode = status
	}
	c.flushHeaders(c.statusCode)
	c.responded = true
	return nil
}

func (c *Context) flushHeaders(status int) {
	out := c.Response.Header()
	for k, vs := range c.respHeader {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	c.Response.WriteHeader(status)
}

func jsonMarshal(v any) []byte {
	b, err := marshalJSON(v)
	if err != nil {
		return []byte(`{"error":"failed to encode response body","status":` + strconv.Itoa(http.StatusInternalServerError) + `}`)
	}
	return b
}
