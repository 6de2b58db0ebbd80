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

// Package httperr provides a typed HTTP error taxonomy, a formatter that
// keeps server-error details out of production responses, and an
// async-handler wrapper.
package httperr

import (
	"fmt"
	"net/http"
)

// Error is the taxonomy member type: a status plus an optional user-visible
// message. It also carries an optional wrapped cause, kept
// out of any production-facing body.
type Error struct {
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// HTTPStatus lets the router's default error handler (and any other
// generic caller) recover the status without importing this package,
// via the router.statusError duck-typed interface.
func (e *Error) HTTPStatus() int { return e.Status }

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// Wrap attaches err as the Cause of a copy of e, for internal logging
// without leaking err's message to the client.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Cause = err
	return &cp
}

func newErr(status int, msg string) *Error { return &Error{Status: status, Message: msg} }

// BadRequest constructs a 400 error, defaulting to the standard status text
// when msg is empty.
func BadRequest(msg string) *Error { return newErr(http.StatusBadRequest, msg) }

// Unauthorized constructs a 401 error.
func Unauthorized(msg string) *Error { return newErr(http.StatusUnauthorized, msg) }

// Forbidden constructs a 403 error.
func Forbidden(msg string) *Error { return newErr(http.StatusForbidden, msg) }

// NotFound constructs a 404 error.
func NotFound(msg string) *Error { return newErr(http.StatusNotFound, msg) }

// MethodNotAllowed constructs a 405 error.
func MethodNotAllowed(msg string) *Error { return newErr(http.StatusMethodNotAllowed, msg) }

// Conflict constructs a 409 error.
func Conflict(msg string) *Error { return newErr(http.StatusConflict, msg) }

// PayloadTooLarge constructs a 413 error.
func PayloadTooLarge(msg string) *Error { return newErr(http.StatusRequestEntityTooLarge, msg) }

// UnsupportedMediaType constructs a 415 error.
func UnsupportedMediaType(msg string) *Error {
	return newErr(http.StatusUnsupportedMediaType, msg)
}

// TooManyRequests constructs a 429 error.
func TooManyRequests(msg string) *Error { return newErr(http.StatusTooManyRequests, msg) }

// Internal constructs a 500 error. cause, if non-nil, is logged internally
// by Format but never sent to the client.
func Internal(msg string, cause error) *Error {
	e := newErr(http.StatusInternalServerError, msg)
	e.Cause = cause
	return e
}

// ServiceUnavailable constructs a 503 error.
func ServiceUnavailable(msg string) *Error { return newErr(http.StatusServiceUnavailable, msg) }

// Options controls how Format renders an error body.
type Options struct {
	Development      bool
	ExposeStackTrace bool
}

// Body is the wire shape of an error response.
type Body struct {
	Error string `json:"error"`
	Status int   `json:"status"`
	Stack  string `json:"stack,omitempty"`
}

// Format renders err into the wire body and status. A production 5xx
// carries only a generic message, never the error's own text, call-site
// paths, or internal source file names.
func Format(err error, opts Options) (status int, body Body) {
	status = http.StatusInternalServerError
	msg := "Internal Server Error"

	var he *Error
	if e, ok := err.(*Error); ok {
		he = e
	}

	if he != nil {
		status = he.Status
		if status < 500 {
			// 4xx: safe to echo the message verbatim.
			msg = he.Error()
		} else if opts.Development {
			msg = he.Error()
		}
	} else if opts.Development {
		msg = err.Error()
	}

	body = Body{Error: msg, Status: status}
	if opts.Development && opts.ExposeStackTrace && he != nil && he.Cause != nil {
		body.Stack = fmt.Sprintf("%+v", he.Cause)
	}
	return status, body
}
