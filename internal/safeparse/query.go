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

package safeparse

import (
	"errors"
	"net/url"
	"strings"
)

// Errors returned by the query/form parser.
var (
	ErrQueryTooLarge   = errors.New("safeparse: query string exceeds configured maximum size")
	ErrQueryDangerous  = errors.New("safeparse: query key is a reserved prototype-pollution vector")
	ErrQueryMalformed  = errors.New("safeparse: query string contains malformed percent-encoding")
)

// DefaultMaxQueryBytes bounds the raw (unparsed) query/form string.
const DefaultMaxQueryBytes = 1 << 20

// dangerousKeys are the classic prototype-pollution vectors. Go has no
// object prototypes, so these names carry no intrinsic danger here, but
// they are rejected anyway so payloads probing for pollution bugs fail
// loudly instead of flowing into application maps.
var dangerousKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// Values holds parsed query/form values, preserving key insertion order.
type Values struct {
	keys   []string
	values map[string][]string
}

// NewValues returns an empty Values.
func NewValues() *Values {
	return &Values{values: make(map[string][]string)}
}

// Add appends value under key, recording first-seen order.
func (v *Values) Add(key, value string) {
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.values[key] = append(v.values[key], value)
}

// Get returns the first value for key, or "" if absent.
func (v *Values) Get(key string) string {
	vs := v.values[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// List returns all values for key in insertion order.
func (v *Values) List(key string) []string {
	return v.values[key]
}

// Has reports whether key was present at all.
func (v *Values) Has(key string) bool {
	_, ok := v.values[key]
	return ok
}

// Keys returns all keys in first-seen order.
func (v *Values) Keys() []string {
	return v.keys
}

// ParseQuery parses a raw query string (without the leading '?') into
// Values, rejecting prototype-pollution key names and oversize input.
// Percent-decoding errors fail the whole parse.
func ParseQuery(raw string) (*Values, error) {
	if len(raw) > DefaultMaxQueryBytes {
		return nil, ErrQueryTooLarge
	}

	out := NewValues()
	for raw != "" {
		var pair string
		idx := strings.IndexByte(raw, '&')
		if idx < 0 {
			pair, raw = raw, ""
		} else {
			pair, raw = raw[:idx], raw[idx+1:]
		}
		if pair == "" {
			continue
		}
		// ';' historically also separated pairs; RFC 3986 treats it as a
		// sub-delim, so it is rejected as a key separator here and left
		// inside the key/value for url.QueryUnescape to decode if encoded.
		key := pair
		var value string
		if eq := strings.IndexByte(pair, '='); eq >= 0 {
			key, value = pair[:eq], pair[eq+1:]
		}

		decKey, err := url.QueryUnescape(strings.ReplaceAll(key, "+", " "))
		if err != nil {
			return nil, ErrQueryMalformed
		}
		decVal, err := url.QueryUnescape(strings.ReplaceAll(value, "+", " "))
		if err != nil {
			return nil, ErrQueryMalformed
		}

		if isDangerousKey(decKey) {
			return nil, ErrQueryDangerous
		}
		out.Add(decKey, decVal)
	}
	return out, nil
}

// ParseForm parses an application/x-www-form-urlencoded body. It shares
// every protection ParseQuery has: the same key rejection and the same
// size cap.
func ParseForm(raw string) (*Values, error) {
	return ParseQuery(raw)
}

func isDangerousKey(key string) bool {
	_, ok := dangerousKeys[strings.ToLower(key)]
	return ok
}
