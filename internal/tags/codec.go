// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package tags converts between the persisted tag encoding (a JSON array of
// strings) and an ordered slice of tag tokens.
package tags

import (
	"strings"

	"github.com/goccy/go-json"
)

// Decode parses raw into tag tokens. Empty, null, or malformed input yields an
// empty, non-nil slice. Decode never fails.
func Decode(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// Encode produces the canonical persisted form of tokens. A nil slice encodes as "[]".
func Encode(tokens []string) string {
	if tokens == nil {
		tokens = []string{}
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		// []string always marshals
		return "[]"
	}
	return string(data)
}

// IsBlank reports whether raw carries no text. Blank encodings are skipped by
// the ranker entirely.
func IsBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// ContainsAny reports whether the decoded tags of raw include at least one of wanted.
func ContainsAny(raw string, wanted []string) bool {
	if len(wanted) == 0 {
		return false
	}
	have := make(map[string]struct{})
	for _, t := range Decode(raw) {
		have[t] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := have[w]; ok {
			return true
		}
	}
	return false
}

// ParseList splits a comma separated query value into trimmed, non-empty tags.
func ParseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
