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

import "errors"

// Sentinel errors, grouped by the boundary that raises them.

// Context errors.
var (
	ErrAlreadyResponded = errors.New("router: response already flushed, no further mutation permitted")
	ErrInvalidStatus    = errors.New("router: status code must be an integer in [100, 599]")
	ErrInvalidHeader    = errors.New("router: header name or value contains CR, LF, or NUL, or exceeds the size cap")
	ErrInvalidCookie    = errors.New("router: cookie name or value is invalid")
	ErrDangerousScheme  = errors.New("router: redirect target uses a disallowed scheme")
	ErrExternalRedirect = errors.New("router: external redirect target is not allow-listed")
)

// Middleware engine errors.
var (
	ErrNextCalledTwice = errors.New("router: next() called more than once by the same middleware invocation")
)

// Router errors.
var ErrMalformedParam = errors.New("router: route parameter contains malformed percent-encoding")

// Pool errors.
var ErrContextPoolCorrupted = errors.New("router: context pool returned an unexpected type")
