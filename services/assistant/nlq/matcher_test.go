// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import (
	"errors"
	"testing"
)

func testCandidates() []Candidate {
	return []Candidate{
		{Intent: "list_open_issues", Paraphrase: Normalize("show me open issues")},
		{Intent: "list_open_issues", Paraphrase: Normalize("what issues are open")},
		{Intent: "count_bugs", Paraphrase: Normalize("how many bugs are there")},
		{Intent: "sprint_status", Paraphrase: Normalize("how is the current sprint going")},
		{Intent: "assignee_workload", Paraphrase: Normalize("what is everyone working on")},
	}
}

func TestMatchExact(t *testing.T) {
	m := NewMatcher(testCandidates(), 0, nil)
	got, err := m.Match(Normalize("Show me open issues"))
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if got.Intent != "list_open_issues" {
		t.Errorf("intent = %q, want list_open_issues", got.Intent)
	}
	if !got.Exact || got.Score != 1.0 {
		t.Errorf("exact=%v score=%v, want exact match at 1.0", got.Exact, got.Score)
	}
}

func TestMatchFuzzyWordOrderAndExtras(t *testing.T) {
	m := NewMatcher(testCandidates(), 0, nil)

	// Same tokens, different order, one extra word.
	got, err := m.Match(Normalize("open issues show me please"))
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if got.Intent != "list_open_issues" {
		t.Errorf("intent = %q, want list_open_issues", got.Intent)
	}
	if got.Exact {
		t.Error("match reported exact, want fuzzy")
	}
	if got.Score < DefaultMatchThreshold {
		t.Errorf("score = %v, want >= %v", got.Score, DefaultMatchThreshold)
	}
}

func TestMatchBelowThreshold(t *testing.T) {
	m := NewMatcher(testCandidates(), 0, nil)
	_, err := m.Match(Normalize("order a pizza for the team"))
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
}

func TestMatchEmptyQuery(t *testing.T) {
	m := NewMatcher(testCandidates(), 0, nil)
	if _, err := m.Match(""); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch for empty query", err)
	}
}

func TestMatchThresholdConfigurable(t *testing.T) {
	// With a forgiving threshold the same off-corpus query matches.
	loose := NewMatcher(testCandidates(), 0.2, nil)
	if _, err := loose.Match(Normalize("bugs are there")); err != nil {
		t.Fatalf("loose matcher rejected: %v", err)
	}
	if loose.Threshold() != 0.2 {
		t.Errorf("Threshold() = %v, want 0.2", loose.Threshold())
	}

	strict := NewMatcher(testCandidates(), 0.99, nil)
	if _, err := strict.Match(Normalize("bugs are there")); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("strict matcher accepted, want ErrNoMatch")
	}
}

func TestMatchDeterministicTieBreak(t *testing.T) {
	cands := []Candidate{
		{Intent: "first", Paraphrase: "alpha beta gamma"},
		{Intent: "second", Paraphrase: "alpha beta gamma delta"},
	}
	m := NewMatcher(cands, 0.5, nil)
	for i := 0; i < 20; i++ {
		got, err := m.Match("alpha beta gamma")
		if err != nil {
			t.Fatalf("Match returned error: %v", err)
		}
		if got.Intent != "first" {
			t.Fatalf("run %d: intent = %q, want first (corpus order wins ties)", i, got.Intent)
		}
	}
}

func TestTokenSetRatio(t *testing.T) {
	cases := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"show me open issues", "show me open issues", 1.0, 1.0},
		{"open issues show me", "show me open issues", 1.0, 1.0},
		{"show me open issues please", "show me open issues", 0.9, 1.0},
		{"order a pizza", "show me open issues", 0.0, 0.7},
		{"", "show me open issues", 0.0, 0.0},
	}
	for _, tc := range cases {
		got := tokenSetRatio(tokenSet(tc.a), tokenSet(tc.b))
		if got < tc.min || got > tc.max {
			t.Errorf("tokenSetRatio(%q, %q) = %v, want in [%v, %v]", tc.a, tc.b, got, tc.min, tc.max)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"sprint", "sprint", 0},
		{"sprint", "print", 1},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
