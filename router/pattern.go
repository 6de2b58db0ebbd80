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

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/veltra-dev/veltra/internal/safeparse"
)

func pathUnescape(s string) (string, error) {
	return url.PathUnescape(s)
}

// matcher is a compiled route pattern: a regexp plus the ordered list of
// named parameters its capture groups correspond to. Immutable after
// construction.
type matcher struct {
	raw        string
	re         *regexp.Regexp
	paramNames []string
	end        bool
}

// patternOptions holds the sensitive/strict/end matching knobs.
type patternOptions struct {
	sensitive bool // case-sensitive match
	strict    bool // trailing slash matters
	end       bool // anchor to end (true for routes, false for use-style prefixes)
}

var defaultRegexCache = safeparse.NewRegexCache(0)

// paramTokenRE finds the `:name`/`*name` tokens in a pattern.
var paramTokenRE = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)|\*([A-Za-z_][A-Za-z0-9_]*)`)

// compilePattern turns a string pattern into a matcher:
//
//   - literal segments are regex-escaped so that e.g. "/admin.users" cannot
//     be matched by "/adminXusers";
//   - ":name" compiles to "([^/]+)" (non-slash, non-empty);
//   - "*name" compiles to "(.*)" (greedy, may be empty);
//   - escaping uses a two-phase sentinel-placeholder substitution so the
//     substituted parameter groups are never themselves re-escaped.
func compilePattern(pattern string, opts patternOptions) (*matcher, error) {
	const sentinelPrefix = "\x00VELTRA_PARAM_"
	const sentinelSuffix = "\x00"

	var params []string
	placeholderOf := make(map[string]string)

	tokenized := paramTokenRE.ReplaceAllStringFunc(pattern, func(tok string) string {
		var name string
		var repl string
		if strings.HasPrefix(tok, ":") {
			name = tok[1:]
			repl = `([^/]+)`
		} else {
			name = tok[1:]
			repl = `(.*)`
		}
		placeholder := fmt.Sprintf("%s%d%s", sentinelPrefix, len(params), sentinelSuffix)
		placeholderOf[placeholder] = repl
		params = append(params, name)
		return placeholder
	})

	// Phase 1 is done: literal text now contains sentinel placeholders in
	// place of parameters. Phase 2 escapes everything that is NOT a
	// placeholder, then substitutes placeholders for their regex groups.
	escaped := regexp.QuoteMeta(tokenized)
	for placeholder, repl := range placeholderOf {
		quotedPlaceholder := regexp.QuoteMeta(placeholder)
		escaped = strings.ReplaceAll(escaped, quotedPlaceholder, repl)
	}

	if !opts.sensitive {
		escaped = "(?i)" + escaped
	}

	var sb strings.Builder
	sb.WriteString("^")
	sb.WriteString(escaped)
	if !opts.strict {
		sb.WriteString(`/?`)
	}
	if opts.end {
		sb.WriteString("$")
	}

	re, err := defaultRegexCache.Compile(sb.String())
	if err != nil {
		return nil, err
	}

	return &matcher{raw: pattern, re: re, paramNames: params, end: opts.end}, nil
}

// match reports whether path matches m, returning the extracted parameter
// values keyed by name. If the compiled matcher yields more capture groups
// than paramNames (a miscompilation signal), the extras are ignored rather
// than indexed. A malformed percent-encoded parameter value is reported
// via err so the caller can fail the request with 400.
func (m *matcher) match(path string) (matched bool, params map[string]string, err error) {
	groups := m.re.FindStringSubmatch(path)
	if groups == nil {
		return false, nil, nil
	}
	captures := groups[1:]
	n := len(m.paramNames)
	if len(captures) < n {
		n = len(captures)
	}
	if n == 0 {
		return true, nil, nil
	}
	out := make(map[string]string, n)
	for i := 0; i < n; i++ {
		decoded, decErr := urlPathDecode(captures[i])
		if decErr != nil {
			return false, nil, ErrMalformedParam
		}
		out[m.paramNames[i]] = decoded
	}
	return true, out, nil
}

// urlPathDecode percent-decodes a single path segment, treating '+' as a
// literal (path segments, unlike query strings, do not use '+' for spaces).
func urlPathDecode(s string) (string, error) {
	return pathUnescape(s)
}
