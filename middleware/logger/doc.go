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

// Package logger provides structured HTTP access logging middleware.
//
// One slog record is emitted per request with method, path, status,
// duration, response bytes, client IP, and a request id. The request id is
// taken from an inbound X-Request-ID header when present, generated
// otherwise, and echoed on the response.
//
// # Basic Usage
//
//	import (
//	    "log/slog"
//	    "os"
//
//	    "github.com/veltra-dev/veltra/middleware/logger"
//	)
//
//	l := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	app := veltra.New()
//	app.Use(logger.New(logger.WithLogger(l)))
//
// # Configuration Options
//
//   - Logger: destination *slog.Logger (default slog.Default())
//   - ExcludePaths: paths never logged (health probes, metrics scrapes)
//
// Errors recorded on the context are attached to the record, so a request
// that failed downstream is visible even when an error middleware already
// rewrote the response.
package logger
