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
	"compress/flate"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"

	"github.com/veltra-dev/veltra/router"
)

// Option defines functional options for compression middleware configuration.
type Option func(*config)

// config holds the configuration for the compression middleware.
type config struct {
	logger              *slog.Logger
	gzipLevel           int
	brotliLevel         int
	deflateLevel        int
	minSize             int
	enableGzip          bool
	enableBrotli        bool
	enableDeflate       bool
	excludePaths        map[string]bool
	excludeExtensions   map[string]bool
	excludeContentTypes map[string]bool
}

func defaultConfig() *config {
	return &config{
		gzipLevel:           gzip.DefaultCompression,
		brotliLevel:         4,
		deflateLevel:        flate.DefaultCompression,
		minSize:             1024,
		enableGzip:          true,
		enableBrotli:        true,
		enableDeflate:       true,
		excludePaths:        make(map[string]bool),
		excludeExtensions:   make(map[string]bool),
		excludeContentTypes: make(map[string]bool),
	}
}

// compressWriter wraps the response writer. The body is buffered until it
// crosses the size threshold; only then is the encoding committed and the
// buffered prefix compressed. A body that finishes under the threshold is
// sent uncompressed, untouched.
type compressWriter struct {
	http.ResponseWriter
	writer              io.WriteCloser
	pool                *sync.Pool
	encoding            string
	minSize             int
	excludeContentTypes map[string]bool

	status   int
	buf      []byte
	skip     bool // content-type/status ruled compression out
	decided  bool // header written to the underlying writer
	compress bool
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.status == 0 {
		cw.status = code
	}
	contentType := cw.ResponseWriter.Header().Get("Content-Type")
	if shouldSkipStatus(cw.status) ||
		cw.ResponseWriter.Header().Get("Content-Encoding") != "" ||
		!shouldCompressContentType(contentType, cw.excludeContentTypes) {
		cw.skip = true
	}
}

func (cw *compressWriter) Write(data []byte) (int, error) {
	if cw.status == 0 {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.decided {
		if cw.compress {
			return cw.writer.Write(data)
		}
		return cw.ResponseWriter.Write(data)
	}
	if cw.skip {
		cw.commit(false)
		return cw.ResponseWriter.Write(data)
	}

	cw.buf = append(cw.buf, data...)
	if len(cw.buf) >= cw.minSize {
		if err := cw.flushBuffered(true); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

// commit writes the response head exactly once, with or without the
// Content-Encoding swap.
func (cw *compressWriter) commit(compress bool) {
	if cw.decided {
		return
	}
	cw.decided = true
	cw.compress = compress
	if compress {
		cw.ResponseWriter.Header().Del("Content-Length")
		cw.ResponseWriter.Header().Set("Content-Encoding", cw.encoding)
		cw.ResponseWriter.Header().Add("Vary", "Accept-Encoding")
	}
	if cw.status == 0 {
		cw.status = http.StatusOK
	}
	cw.ResponseWriter.WriteHeader(cw.status)
	if compress {
		w := cw.pool.Get().(io.WriteCloser)
		resetWriter(w, cw.ResponseWriter)
		cw.writer = w
	}
}

func (cw *compressWriter) flushBuffered(compress bool) error {
	cw.commit(compress)
	buf := cw.buf
	cw.buf = nil
	if len(buf) == 0 {
		return nil
	}
	var err error
	if cw.compress {
		_, err = cw.writer.Write(buf)
	} else {
		_, err = cw.ResponseWriter.Write(buf)
	}
	return err
}

// Close finalizes the response. A body still below the threshold is sent
// as-is.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		if cw.status == 0 {
			// Nothing was ever written; leave the head to the server.
			return nil
		}
		return cw.flushBuffered(false)
	}
	if !cw.compress || cw.writer == nil {
		return nil
	}
	err := cw.writer.Close()
	resetWriter(cw.writer, nil)
	cw.pool.Put(cw.writer)
	cw.writer = nil
	return err
}

func resetWriter(w io.WriteCloser, dst io.Writer) {
	if dst == nil {
		dst = io.Discard
	}
	switch ww := w.(type) {
	case *gzip.Writer:
		ww.Reset(dst)
	case *brotli.Writer:
		ww.Reset(dst)
	case *flate.Writer:
		ww.Reset(dst)
	}
}

func shouldSkipStatus(code int) bool {
	return code == http.StatusNoContent ||
		code == http.StatusNotModified ||
		code == http.StatusPartialContent
}

// shouldCompressContentType allows only types that actually shrink:
// textual content, JSON, JavaScript, XML, and SVG. Absent a content type
// the body is left alone.
func shouldCompressContentType(ct string, excludes map[string]bool) bool {
	if ct == "" {
		return false
	}
	ctLower := strings.ToLower(ct)
	for excluded := range excludes {
		if strings.Contains(ctLower, strings.ToLower(excluded)) {
			return false
		}
	}
	for _, allowed := range []string{"text/", "json", "javascript", "xml", "svg"} {
		if strings.Contains(ctLower, allowed) {
			return true
		}
	}
	return false
}

var (
	gzipWriterPools    = make(map[int]*sync.Pool)
	brotliWriterPools  = make(map[int]*sync.Pool)
	deflateWriterPools = make(map[int]*sync.Pool)
	poolsMutex         sync.RWMutex
)

func getWriterPool(pools map[int]*sync.Pool, level int, build func(int) io.WriteCloser) *sync.Pool {
	poolsMutex.RLock()
	pool, exists := pools[level]
	poolsMutex.RUnlock()
	if exists {
		return pool
	}

	poolsMutex.Lock()
	defer poolsMutex.Unlock()
	if pool, exists := pools[level]; exists {
		return pool
	}
	pool = &sync.Pool{
		New: func() any { return build(level) },
	}
	pools[level] = pool
	return pool
}

func getGzipWriterPool(level int) *sync.Pool {
	return getWriterPool(gzipWriterPools, level, func(l int) io.WriteCloser {
		w, _ := gzip.NewWriterLevel(io.Discard, l)
		return w
	})
}

func getBrotliWriterPool(level int) *sync.Pool {
	return getWriterPool(brotliWriterPools, level, func(l int) io.WriteCloser {
		return brotli.NewWriterLevel(io.Discard, l)
	})
}

func getDeflateWriterPool(level int) *sync.Pool {
	return getWriterPool(deflateWriterPools, level, func(l int) io.WriteCloser {
		w, _ := flate.NewWriter(io.Discard, l)
		return w
	})
}

// chooseEncoding selects the best encoding based on Accept-Encoding,
// respecting q-values and preferring br over gzip over deflate when more
// than one qualifies.
func chooseEncoding(acceptEncoding string, cfg *config) string {
	if acceptEncoding == "" {
		return ""
	}
	ae := strings.ToLower(acceptEncoding)

	brQ := parseQValue(ae, "br")
	gzipQ := parseQValue(ae, "gzip")
	deflateQ := parseQValue(ae, "deflate")

	if cfg.enableBrotli && brQ > 0 && brQ >= gzipQ && brQ >= deflateQ {
		return "br"
	}
	if cfg.enableGzip && gzipQ > 0 && gzipQ >= deflateQ {
		return "gzip"
	}
	if cfg.enableDeflate && deflateQ > 0 {
		return "deflate"
	}
	return ""
}

// parseQValue returns encoding's q-value in accept, -1 when the codec is
// not offered at all, and 1.0 when offered without an explicit q. Only the
// codec's own parameter segment (up to the next comma) is searched, so one
// entry's q can never bleed into another's.
func parseQValue(accept, encoding string) float64 {
	for _, entry := range strings.Split(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(entry), ";")
		if strings.TrimSpace(name) != encoding {
			continue
		}
		for _, param := range strings.Split(params, ";") {
			if qStr, ok := strings.CutPrefix(strings.TrimSpace(param), "q="); ok {
				q, err := strconv.ParseFloat(strings.TrimSpace(qStr), 64)
				if err != nil {
					return 1.0
				}
				return q
			}
		}
		return 1.0
	}
	return -1
}

// New returns middleware that compresses responses with Brotli, gzip, or
// deflate, negotiated from the request's Accept-Encoding header.
func New(opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) error {
		path := c.Path()
		if cfg.excludePaths[path] {
			return next()
		}
		for ext := range cfg.excludeExtensions {
			if strings.HasSuffix(path, ext) {
				return next()
			}
		}
		if c.Response.Header().Get("Content-Encoding") != "" {
			return next()
		}

		encoding := chooseEncoding(c.Header("Accept-Encoding"), cfg)
		if encoding == "" {
			return next()
		}

		var pool *sync.Pool
		switch encoding {
		case "br":
			pool = getBrotliWriterPool(cfg.brotliLevel)
		case "gzip":
			pool = getGzipWriterPool(cfg.gzipLevel)
		case "deflate":
			pool = getDeflateWriterPool(cfg.deflateLevel)
		default:
			return next()
		}

		original := c.Response
		cw := &compressWriter{
			ResponseWriter:      original,
			encoding:            encoding,
			minSize:             cfg.minSize,
			excludeContentTypes: cfg.excludeContentTypes,
			pool:                pool,
		}
		c.Response = cw

		err := next()

		if cerr := cw.Close(); cerr != nil && cfg.logger != nil {
			cfg.logger.Error("compression finalization failed", "error", cerr)
		}
		c.Response = original
		return err
	}
}
