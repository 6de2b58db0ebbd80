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
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"time"

	"github.com/veltra-dev/veltra/httperr"
	"github.com/veltra-dev/veltra/internal/safeparse"
	"github.com/veltra-dev/veltra/router"
)

// New returns middleware that reads and parses the request body by content
// type, publishing the parsed value via the context's SetBody (and SetFiles
// for multipart uploads). An absent body leaves the context untouched: an
// empty POST is not a parse error.
func New(opts ...Option) router.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context, next router.Next) error {
		if cfg.skipPaths[c.Path()] {
			return next()
		}
		r := c.Request
		if r.Body == nil {
			return next()
		}
		// Declared length past the cap is rejected before reading a byte.
		if r.ContentLength > cfg.maxBodySize {
			return httperr.PayloadTooLarge("request body exceeds the configured limit")
		}

		buf, err := readBounded(c, cfg.maxBodySize, cfg.readTimeout)
		if err != nil {
			return err
		}
		if len(buf) == 0 {
			return next()
		}

		mediaType := ""
		params := map[string]string{}
		if raw := r.Header.Get("Content-Type"); raw != "" {
			mt, ps, perr := mime.ParseMediaType(raw)
			if perr != nil {
				return httperr.BadRequest("malformed Content-Type header")
			}
			mediaType = strings.ToLower(mt)
			params = ps
		}

		switch {
		case mediaType == "application/json":
			var v any
			if derr := safeparse.DecodeJSON(bytes.NewReader(buf), &v, safeparse.JSONLimits{
				MaxBytes: cfg.maxBodySize,
				MaxDepth: cfg.maxJSONDepth,
			}); derr != nil {
				return jsonErr(derr)
			}
			c.SetBody(v)

		case mediaType == "application/x-www-form-urlencoded":
			values, perr := safeparse.ParseForm(string(buf))
			if perr != nil {
				return formErr(perr)
			}
			c.SetBody(values)

		case mediaType == "multipart/form-data":
			boundary, ok := params["boundary"]
			if !ok {
				return httperr.BadRequest("multipart body is missing its boundary")
			}
			if merr := parseMultipart(c, buf, boundary, cfg.maxBodySize); merr != nil {
				return merr
			}

		case strings.HasPrefix(mediaType, "text/"):
			c.SetBody(string(buf))

		default:
			if cfg.raw {
				c.SetBody(buf)
			}
		}

		return next()
	}
}

// readBounded drains the request body into memory, failing with 413 once
// more than maxBytes have arrived and with 408 when the read outlives
// timeout or the client goes away.
func readBounded(c *router.Context, maxBytes int64, timeout time.Duration) ([]byte, error) {
	type result struct {
		buf []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		limited := io.LimitReader(c.Request.Body, maxBytes+1)
		buf, err := io.ReadAll(limited)
		done <- result{buf, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, httperr.BadRequest("request body could not be read")
		}
		if int64(len(res.buf)) > maxBytes {
			return nil, httperr.PayloadTooLarge("request body exceeds the configured limit")
		}
		return res.buf, nil
	case <-c.Request.Context().Done():
		return nil, httperr.BadRequest("client closed the connection during body read")
	case <-timer.C:
		return nil, &httperr.Error{Status: 408, Message: "timed out reading request body"}
	}
}

// parseMultipart walks the parts of an already-buffered multipart body.
// Field parts accumulate into an ordered value set published as the body;
// file parts become MultipartFile descriptors. The aggregate is already
// bounded by readBounded, so per-part reads need no further cap.
func parseMultipart(c *router.Context, buf []byte, boundary string, maxBytes int64) error {
	mr := multipart.NewReader(bytes.NewReader(buf), boundary)
	fields := safeparse.NewValues()
	var files []*router.MultipartFile
	var total int64

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return httperr.BadRequest("malformed multipart body")
		}

		data, rerr := io.ReadAll(io.LimitReader(part, maxBytes+1))
		_ = part.Close()
		if rerr != nil {
			return httperr.BadRequest("malformed multipart part")
		}
		total += int64(len(data))
		if total > maxBytes {
			return httperr.PayloadTooLarge("multipart body exceeds the configured limit")
		}

		if part.FileName() == "" {
			fields.Add(part.FormName(), string(data))
			continue
		}
		ct := part.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		files = append(files, &router.MultipartFile{
			Filename:    part.FileName(),
			ContentType: ct,
			Size:        int64(len(data)),
			Data:        data,
		})
	}

	c.SetBody(fields)
	if len(files) > 0 {
		c.SetFiles(files)
	}
	return nil
}

func jsonErr(err error) error {
	switch {
	case errors.Is(err, safeparse.ErrJSONTooLarge):
		return httperr.PayloadTooLarge("json body exceeds the configured limit")
	case errors.Is(err, safeparse.ErrJSONTooDeep):
		return httperr.BadRequest("json body nests too deeply")
	default:
		return httperr.BadRequest("json body is malformed")
	}
}

func formErr(err error) error {
	if errors.Is(err, safeparse.ErrQueryTooLarge) {
		return httperr.PayloadTooLarge("form body exceeds the configured limit")
	}
	return httperr.BadRequest("form body is malformed")
}
