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

func TestRegexCache_CompileAndMatch(t *testing.T) {
	c := NewRegexCache(4)
	re, err := c.Compile(`^/admin\.users$`)
	require.NoError(t, err)
	require.True(t, re.MatchString("/admin.users"))
	require.False(t, re.MatchString("/adminXusers"))
}

func TestRegexCache_RejectsTooLong(t *testing.T) {
	c := NewRegexCache(4)
	_, err := c.Compile(strings.Repeat("a", MaxPatternLength+1))
	require.ErrorIs(t, err, ErrPatternTooLong)
}

func TestRegexCache_RejectsTooManyCaptures(t *testing.T) {
	c := NewRegexCache(4)
	pattern := strings.Repeat("(a)", MaxCaptureGroups+1)
	_, err := c.Compile(pattern)
	require.ErrorIs(t, err, ErrTooManyCaptures)
}

func TestRegexCache_TrueLRUEviction(t *testing.T) {
	c := NewRegexCache(2)
	_, err := c.Compile("^a$")
	require.NoError(t, err)
	_, err = c.Compile("^b$")
	require.NoError(t, err)

	// Touch "a" so it becomes most-recently-used.
	_, err = c.Compile("^a$")
	require.NoError(t, err)

	// Inserting a third pattern should evict "b" (least-recently-used),
	// not "a".
	_, err = c.Compile("^c$")
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	_, hasA := c.items["^a$"]
	_, hasB := c.items["^b$"]
	_, hasC := c.items["^c$"]
	require.True(t, hasA)
	require.False(t, hasB)
	require.True(t, hasC)
}

func TestRegexCache_SimplifiesNestedQuantifiers(t *testing.T) {
	c := NewRegexCache(4)
	re, err := c.Compile(`^(a+)+$`)
	require.NoError(t, err)
	require.True(t, re.MatchString("aaaa"))
}
