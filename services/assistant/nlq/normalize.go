// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import "strings"

// Normalize lowercases the raw query and collapses all runs of whitespace to
// single spaces. The result is the canonical form every other stage in this
// package operates on; it is recomputed per turn and never stored.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// Tokenize splits a normalized query into word tokens, stripping surrounding
// punctuation from each token. Used for whole-word matching (project keys)
// and for the token-set similarity in the matcher.
func Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// tokenSet returns the deduplicated token set of a normalized string.
func tokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(normalized) {
		set[tok] = true
	}
	return set
}

// truncateForLog shortens a string for log and span attributes.
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
