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
	"time"

	"github.com/veltra-dev/veltra/router"
)

// DotfilePolicy controls how paths with a dot-prefixed segment are served.
type DotfilePolicy int

const (
	// DotfilesIgnore pretends dotfiles do not exist (falls through or 404).
	DotfilesIgnore DotfilePolicy = iota
	// DotfilesAllow serves dotfiles like any other file.
	DotfilesAllow
	// DotfilesDeny answers 403 for any dotfile path.
	DotfilesDeny
)

// Option configures the static file middleware.
type Option func(*config)

type config struct {
	maxAge       time.Duration
	index        []string
	extensions   []string
	dotfiles     DotfilePolicy
	etag         bool
	lastModified bool
	redirect     bool
	fallthrough_ bool
	fsTimeout    time.Duration
	setHeaders   func(c *router.Context, resolvedPath string)
}

func defaultConfig() *config {
	return &config{
		index:        []string{"index.html"},
		etag:         true,
		lastModified: true,
		redirect:     true,
		fsTimeout:    5 * time.Second,
	}
}

// WithMaxAge sets the Cache-Control max-age emitted with served files.
func WithMaxAge(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.maxAge = d
		}
	}
}

// WithIndex replaces the index file candidates tried for a directory
// request (default: index.html). An empty list disables index resolution.
func WithIndex(names ...string) Option {
	return func(cfg *config) { cfg.index = names }
}

// WithExtensions sets extensions appended when the literal path does not
// exist, e.g. WithExtensions("html") serves about.html for /about.
func WithExtensions(exts ...string) Option {
	return func(cfg *config) { cfg.extensions = exts }
}

// WithDotfiles sets the dotfile policy (default: ignore).
func WithDotfiles(p DotfilePolicy) Option {
	return func(cfg *config) { cfg.dotfiles = p }
}

// WithoutETag disables ETag generation.
func WithoutETag() Option {
	return func(cfg *config) { cfg.etag = false }
}

// WithoutLastModified disables the Last-Modified header.
func WithoutLastModified() Option {
	return func(cfg *config) { cfg.lastModified = false }
}

// WithoutRedirect disables the 301 redirect that adds a trailing slash to
// directory requests.
func WithoutRedirect() Option {
	return func(cfg *config) { cfg.redirect = false }
}

// WithFallthrough makes misses (and refused paths) continue to the next
// handler instead of terminating with 403/404.
func WithFallthrough() Option {
	return func(cfg *config) { cfg.fallthrough_ = true }
}

// WithFSTimeout bounds each filesystem stat/open call (default 5s).
func WithFSTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.fsTimeout = d
		}
	}
}

// WithSetHeaders installs a callback invoked just before a file is served.
// The callback receives the resolved on-disk path; sanitize anything
// derived from it before writing it into a header.
func WithSetHeaders(fn func(c *router.Context, resolvedPath string)) Option {
	return func(cfg *config) { cfg.setHeaders = fn }
}
