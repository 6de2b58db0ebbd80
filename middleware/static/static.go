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

package static

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/veltra-dev/veltra/httperr"
	"github.com/veltra-dev/veltra/router"
)

// New returns middleware serving files under root. root is resolved to an
// absolute path at construction; a root that cannot be resolved panics,
// the same way an invalid route pattern does.
func New(root string, opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		panic("static: cannot resolve root: " + err.Error())
	}

	return func(c *router.Context, next router.Next) error {
		if c.Method() != http.MethodGet && c.Method() != http.MethodHead {
			return next()
		}

		decoded, derr := url.PathUnescape(c.Path())
		if derr != nil {
			return httperr.BadRequest("malformed percent-encoding in path")
		}
		if !safePath(decoded) {
			return refuse(c, next, cfg)
		}

		if hasDotfileSegment(decoded) {
			switch cfg.dotfiles {
			case DotfilesDeny:
				return httperr.Forbidden("")
			case DotfilesIgnore:
				return miss(c, next, cfg)
			}
		}

		cleaned := path.Clean("/" + decoded)
		resolved := filepath.Join(absRoot, filepath.FromSlash(cleaned))
		if !underRoot(resolved, absRoot) {
			return refuse(c, next, cfg)
		}

		info, serr := statTimeout(resolved, cfg.fsTimeout)
		if serr == errFSTimeout {
			return httperr.ServiceUnavailable("filesystem did not respond in time")
		}

		if serr == nil && info.IsDir() {
			if cfg.redirect && !strings.HasSuffix(c.Path(), "/") {
				return c.Redirect(c.Path()+"/", http.StatusMovedPermanently, router.RedirectOptions{})
			}
			info, resolved, serr = resolveIndex(resolved, cfg)
		}

		if serr != nil {
			info, resolved, serr = resolveExtensions(resolved, cfg)
			if serr != nil {
				return miss(c, next, cfg)
			}
		}

		return serveFile(c, cfg, resolved, info)
	}
}

// safePath rejects traversal attempts before any filesystem access:
// literal "..", NUL bytes, backslash separators, and sequences that only
// become ".." after a second decode pass (e.g. "%252e%252e").
func safePath(p string) bool {
	if strings.Contains(p, "\x00") || strings.Contains(p, "\\") {
		return false
	}
	if hasDotDot(p) {
		return false
	}
	// A second decode catches double-encoded traversal. A path that fails
	// to decode again is fine; it simply contains a literal '%'.
	if again, err := url.PathUnescape(p); err == nil {
		if strings.Contains(again, "\x00") || strings.Contains(again, "\\") || hasDotDot(again) {
			return false
		}
	}
	return true
}

func hasDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func hasDotfileSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if len(seg) > 1 && seg[0] == '.' {
			return true
		}
	}
	return false
}

func underRoot(resolved, root string) bool {
	if resolved == root {
		return true
	}
	return strings.HasPrefix(resolved, root+string(filepath.Separator))
}

func refuse(c *router.Context, next router.Next, cfg *config) error {
	if cfg.fallthrough_ {
		return next()
	}
	return httperr.Forbidden("")
}

func miss(c *router.Context, next router.Next, cfg *config) error {
	if cfg.fallthrough_ {
		return next()
	}
	return httperr.NotFound("")
}

var errFSTimeout = httperr.ServiceUnavailable("filesystem stat timed out")

// statTimeout bounds os.Stat so a hung network filesystem cannot pin the
// request goroutine indefinitely.
func statTimeout(name string, timeout time.Duration) (os.FileInfo, error) {
	type result struct {
		info os.FileInfo
		err  error
	}
	done := make(chan result, 1)
	go func() {
		info, err := os.Stat(name)
		done <- result{info, err}
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		return res.info, res.err
	case <-timer.C:
		return nil, errFSTimeout
	}
}

func resolveIndex(dir string, cfg *config) (os.FileInfo, string, error) {
	for _, name := range cfg.index {
		candidate := filepath.Join(dir, name)
		info, err := statTimeout(candidate, cfg.fsTimeout)
		if err == nil && !info.IsDir() {
			return info, candidate, nil
		}
	}
	return nil, "", os.ErrNotExist
}

func resolveExtensions(base string, cfg *config) (os.FileInfo, string, error) {
	for _, ext := range cfg.extensions {
		candidate := base + "." + strings.TrimPrefix(ext, ".")
		info, err := statTimeout(candidate, cfg.fsTimeout)
		if err == nil && !info.IsDir() {
			return info, candidate, nil
		}
	}
	return nil, "", os.ErrNotExist
}

func serveFile(c *router.Context, cfg *config, resolved string, info os.FileInfo) error {
	contentType := mime.TypeByExtension(filepath.Ext(resolved))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if cfg.maxAge > 0 {
		c.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(cfg.maxAge.Seconds())))
	}
	if cfg.lastModified {
		c.Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	}

	var tag string
	if cfg.etag {
		tag = etagFor(info)
		c.Set("ETag", tag)
		if match := c.Header("If-None-Match"); match != "" && etagMatches(match, tag) {
			return c.End(http.StatusNotModified)
		}
	}

	if cfg.setHeaders != nil {
		cfg.setHeaders(c, resolved)
	}

	c.Set("Accept-Ranges", "bytes")

	start, end, ranged, rerr := parseRange(c.Header("Range"), info.Size())
	if rerr != nil {
		c.Set("Content-Range", "bytes */"+strconv.FormatInt(info.Size(), 10))
		return c.End(http.StatusRequestedRangeNotSatisfiable)
	}

	if c.Method() == http.MethodHead {
		c.Set("Content-Type", contentType)
		c.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		return c.End(http.StatusOK)
	}

	f, oerr := openTimeout(resolved, cfg.fsTimeout)
	if oerr != nil {
		return httperr.NotFound("")
	}
	defer f.Close()

	if ranged {
		if _, serr := f.Seek(start, io.SeekStart); serr != nil {
			return httperr.Internal("", serr)
		}
		length := end - start + 1
		c.Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.FormatInt(info.Size(), 10))
		c.Set("Content-Length", strconv.FormatInt(length, 10))
		return c.Stream(http.StatusPartialContent, contentType, io.LimitReader(f, length))
	}

	c.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	return c.Stream(http.StatusOK, contentType, f)
}

func openTimeout(name string, timeout time.Duration) (*os.File, error) {
	type result struct {
		f   *os.File
		err error
	}
	done := make(chan result, 1)
	go func() {
		f, err := os.Open(name)
		done <- result{f, err}
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		return res.f, res.err
	case <-timer.C:
		go func() {
			if res := <-done; res.f != nil {
				_ = res.f.Close()
			}
		}()
		return nil, errFSTimeout
	}
}

// etagFor derives a strong ETag from the file's size and mtime via
// SHA-256.
func etagFor(info os.FileInfo) string {
	h := sha256.New()
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(info.Size()))
	binary.BigEndian.PutUint64(buf[8:], uint64(info.ModTime().UnixNano()))
	h.Write(buf[:])
	return `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}

func etagMatches(headerValue, tag string) bool {
	if headerValue == "*" {
		return true
	}
	for _, candidate := range strings.Split(headerValue, ",") {
		if strings.TrimSpace(candidate) == tag {
			return true
		}
	}
	return false
}

// parseRange parses a single-range "bytes=start-end" header against size.
// Multi-range and inverted ranges are refused; a suffix range "-N" selects
// the trailing N bytes and an open range "N-" runs to EOF. ok is false for
// an absent or syntactically foreign header, which callers treat as a
// plain full-body request.
func parseRange(header string, size int64) (start, end int64, ok bool, err error) {
	if header == "" || size == 0 {
		return 0, 0, false, nil
	}
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, 0, false, nil
	}
	if strings.Contains(spec, ",") {
		return 0, 0, false, httperr.BadRequest("multi-range requests are not supported")
	}
	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return 0, 0, false, httperr.BadRequest("malformed range")
	}
	startStr := strings.TrimSpace(spec[:dash])
	endStr := strings.TrimSpace(spec[dash+1:])

	switch {
	case startStr == "" && endStr == "":
		return 0, 0, false, httperr.BadRequest("malformed range")
	case startStr == "":
		// Suffix form: the final N bytes.
		n, perr := strconv.ParseInt(endStr, 10, 64)
		if perr != nil || n <= 0 {
			return 0, 0, false, httperr.BadRequest("malformed range")
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true, nil
	case endStr == "":
		s, perr := strconv.ParseInt(startStr, 10, 64)
		if perr != nil || s < 0 || s >= size {
			return 0, 0, false, httperr.BadRequest("malformed range")
		}
		return s, size - 1, true, nil
	default:
		s, serr := strconv.ParseInt(startStr, 10, 64)
		e, eerr := strconv.ParseInt(endStr, 10, 64)
		if serr != nil || eerr != nil || s < 0 || e < s || s >= size {
			return 0, 0, false, httperr.BadRequest("malformed range")
		}
		if e >= size {
			e = size - 1
		}
		return s, e, true, nil
	}
}
