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

import "log/slog"

// WithGzipLevel sets the gzip compression level.
// Valid values: 0 (no compression) to 9 (best compression).
// Default: gzip.DefaultCompression (-1, which is typically level 6)
//
// Example:
//
//	compression.New(compression.WithGzipLevel(gzip.BestCompression))
func WithGzipLevel(level int) Option {
	return func(cfg *config) {
		cfg.gzipLevel = level
	}
}

// WithBrotliLevel sets the Brotli compression level.
// Valid values: 0 (no compression) to 11 (best compression).
// For dynamic content (JSON/text), use 4-5. Higher levels are CPU-expensive.
// Default: 4 (conservative for dynamic content)
//
// Example:
//
//	compression.New(compression.WithBrotliLevel(5))
func WithBrotliLevel(level int) Option {
	return func(cfg *config) {
		// Clamp to valid Brotli level range [0, 11]
		cfg.brotliLevel = max(0, min(level, 11))
	}
}

// WithBrotliDisabled disables Brotli compression (gzip and deflate remain).
//
// Example:
//
//	compression.New(compression.WithBrotliDisabled())
func WithBrotliDisabled() Option {
	return func(cfg *config) {
		cfg.enableBrotli = false
	}
}

// WithGzipDisabled disables gzip compression (Brotli and deflate remain).
//
// Example:
//
//	compression.New(compression.WithGzipDisabled())
func WithGzipDisabled() Option {
	return func(cfg *config) {
		cfg.enableGzip = false
	}
}

// WithDeflateLevel sets the deflate compression level.
// Valid values: -1 (default) to 9 (best compression).
//
// Example:
//
//	compression.New(compression.WithDeflateLevel(6))
func WithDeflateLevel(level int) Option {
	return func(cfg *config) {
		cfg.deflateLevel = level
	}
}

// WithDeflateDisabled disables deflate compression.
//
// Example:
//
//	compression.New(compression.WithDeflateDisabled())
func WithDeflateDisabled() Option {
	return func(cfg *config) {
		cfg.enableDeflate = false
	}
}

// WithMinSize sets the minimum response size to compress (in bytes).
// Bodies are buffered up to this threshold before an encoding is
// committed; anything that finishes smaller goes out uncompressed, since
// compressing tiny payloads costs more than it saves.
// Default: 1024
//
// Example:
//
//	compression.New(compression.WithMinSize(2048))
func WithMinSize(size int) Option {
	return func(cfg *config) {
		if size >= 0 {
			cfg.minSize = size
		}
	}
}

// WithExcludePaths sets paths that should not be compressed.
// Useful for endpoints that already serve compressed content or streaming responses.
//
// Example:
//
//	compression.New(compression.WithExcludePaths("/metrics", "/stream"))
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		for _, path := range paths {
			cfg.excludePaths[path] = true
		}
	}
}

// WithExcludeExtensions sets file extensions that should not be compressed.
// Already compressed formats don't benefit from compression.
// Default: none (but should typically exclude .jpg, .png, .gif, .zip, etc.)
//
// Example:
//
//	compression.New(compression.WithExcludeExtensions(".jpg", ".png", ".gif", ".zip", ".gz"))
func WithExcludeExtensions(extensions ...string) Option {
	return func(cfg *config) {
		for _, ext := range extensions {
			cfg.excludeExtensions[ext] = true
		}
	}
}

// WithExcludeContentTypes sets content types that should not be compressed.
// Already compressed content types don't benefit from compression.
//
// Example:
//
//	compression.New(compression.WithExcludeContentTypes("image/jpeg", "image/png", "application/zip"))
func WithExcludeContentTypes(contentTypes ...string) Option {
	return func(cfg *config) {
		for _, ct := range contentTypes {
			cfg.excludeContentTypes[ct] = true
		}
	}
}

// WithLogger sets the slog.Logger for error logging.
// If not provided, errors will be silently ignored.
//
// Uses the standard library's log/slog package for structured logging:
//
//	import "log/slog"
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	compression.New(compression.WithLogger(logger))
//
// Example:
//
//	import "log/slog"
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	app.Use(compression.New(compression.WithLogger(logger)))
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
