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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSON_Basic(t *testing.T) {
	var out map[string]any
	err := DecodeJSON(strings.NewReader(`{"a":1,"b":"x"}`), &out, JSONLimits{})
	require.NoError(t, err)
	require.Equal(t, float64(1), out["a"])
	require.Equal(t, "x", out["b"])
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"a":"` + strings.Repeat("x", 100) + `"}`
	var out map[string]any
	err := DecodeJSON(strings.NewReader(body), &out, JSONLimits{MaxBytes: 10})
	require.ErrorIs(t, err, ErrJSONTooLarge)
}

func TestDecodeJSON_TooDeep(t *testing.T) {
	// depth 5: {"a":{"a":{"a":{"a":{"a":1}}}}}
	nested := "1"
	for i := 0; i < 5; i++ {
		nested = `{"a":` + nested + `}`
	}
	var out map[string]any
	err := DecodeJSON(strings.NewReader(nested), &out, JSONLimits{MaxDepth: 3})
	require.ErrorIs(t, err, ErrJSONTooDeep)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	var out map[string]any
	err := DecodeJSON(strings.NewReader(`{"a":`), &out, JSONLimits{})
	require.ErrorIs(t, err, ErrJSONMalformed)
}

func TestDecodeJSON_MultipleTopLevel(t *testing.T) {
	var out map[string]any
	err := DecodeJSON(strings.NewReader(`{"a":1}{"b":2}`), &out, JSONLimits{})
	require.ErrorIs(t, err, ErrJSONMultipleTop)
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	var out map[string]any
	err := DecodeJSON(strings.NewReader(``), &out, JSONLimits{})
	require.NoError(t, err)
}
