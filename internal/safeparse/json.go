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

// Package safeparse provides length- and depth-bounded parsers shared by the
// body parser and the request context. Every parser here is deliberately
// defensive: inputs come straight off the wire and must never be trusted to
// be well-formed or small.
package safeparse

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Errors returned by the JSON decoder below.
var (
	ErrJSONTooLarge    = errors.New("safeparse: json body exceeds configured maximum size")
	ErrJSONTooDeep     = errors.New("safeparse: json nesting exceeds configured maximum depth")
	ErrJSONMalformed   = errors.New("safeparse: json body is malformed")
	ErrJSONMultipleTop = errors.New("safeparse: json body contains multiple top-level values")
)

// JSONLimits bounds a single JSON decode.
type JSONLimits struct {
	MaxBytes int64 // 0 means use DefaultMaxJSONBytes
	MaxDepth int   // 0 means use DefaultMaxJSONDepth
}

// Defaults applied when JSONLimits leaves a field zero.
const (
	DefaultMaxJSONBytes = 1 << 20 // 1 MiB
	DefaultMaxJSONDepth = 20
)

// DecodeJSON reads r (bounded to limits.MaxBytes+1 so an oversize body is
// detected without buffering the whole thing) and unmarshals into v after
// checking that no array/object nests beyond limits.MaxDepth.
//
// Depth is checked via the streaming token API rather than json.Unmarshal
// directly: encoding/json's Decoder does not expose a depth limit, so the
// document is tokenized once to enforce the bound before it is re-decoded
// into v. This is the one place the parser trades a second pass for safety.
func DecodeJSON(r io.Reader, v any, limits JSONLimits) error {
	maxBytes := limits.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxJSONBytes
	}
	maxDepth := limits.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxJSONDepth
	}

	limited := io.LimitReader(r, maxBytes+1)
	buf, err := io.ReadAll(limited)
	if err != nil {
		return ErrJSONMalformed
	}
	if int64(len(buf)) > maxBytes {
		return ErrJSONTooLarge
	}

	if err := checkDepth(buf, maxDepth); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return ErrJSONMalformed
	}
	if dec.More() {
		return ErrJSONMultipleTop
	}
	return nil
}

// checkDepth walks the raw JSON token stream and rejects documents that
// nest arrays/objects deeper than maxDepth. Circularity needs no separate
// check: a finite byte buffer can only ever describe a finite, acyclic
// document.
func checkDepth(buf []byte, maxDepth int) error {
	dec := json.NewDecoder(bytes.NewReader(buf))
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ErrJSONMalformed
		}
		switch tok.(type) {
		case json.Delim:
			d := tok.(json.Delim)
			switch d {
			case '{', '[':
				depth++
				if depth > maxDepth {
					return ErrJSONTooDeep
				}
			case '}', ']':
				depth--
			}
		}
	}
}
