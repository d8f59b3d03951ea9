// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"strings"
	"testing"

	"github.com/AjithTao/jira-copilot/services/assistant/nlq"
)

func TestGetTrainingCorpusLoadsEmbedded(t *testing.T) {
	ResetTrainingCorpus()
	defer ResetTrainingCorpus()

	corpus, err := GetTrainingCorpus(context.Background())
	if err != nil {
		t.Fatalf("GetTrainingCorpus failed: %v", err)
	}
	if len(corpus.Intents) == 0 {
		t.Fatal("embedded corpus has no intents")
	}
	if corpus.MatchThreshold != 0.82 {
		t.Errorf("match_threshold = %v, want 0.82", corpus.MatchThreshold)
	}

	// Second call returns the same cached instance.
	again, err := GetTrainingCorpus(context.Background())
	if err != nil {
		t.Fatalf("second GetTrainingCorpus failed: %v", err)
	}
	if corpus != again {
		t.Error("expected cached corpus instance")
	}
}

func TestGetTrainingCorpusNilContext(t *testing.T) {
	if _, err := GetTrainingCorpus(nil); err == nil { //nolint:staticcheck
		t.Fatal("expected error for nil context")
	}
}

func TestEmbeddedCorpusWellFormed(t *testing.T) {
	ResetTrainingCorpus()
	defer ResetTrainingCorpus()

	corpus, err := GetTrainingCorpus(context.Background())
	if err != nil {
		t.Fatalf("GetTrainingCorpus failed: %v", err)
	}

	for _, in := range corpus.Intents {
		if in.ExpectedResponse != "" && !strings.Contains(in.ExpectedResponse, "{count}") {
			t.Errorf("intent %s: expected_response has no {count} placeholder", in.Name)
		}
		got, ok := corpus.Intent(in.Name)
		if !ok || got.Name != in.Name {
			t.Errorf("Intent(%q) lookup failed", in.Name)
		}
	}

	cands := corpus.Candidates()
	if len(cands) < len(corpus.Intents) {
		t.Errorf("Candidates() = %d entries, want at least one per intent", len(cands))
	}
	for _, c := range cands {
		if c.Paraphrase != nlq.Normalize(c.Paraphrase) {
			t.Errorf("candidate paraphrase %q not normalized", c.Paraphrase)
		}
	}
}

func TestLoadTrainingCorpusRejectsEmpty(t *testing.T) {
	if _, err := LoadTrainingCorpus(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestLoadTrainingCorpusRejectsBadYAML(t *testing.T) {
	if _, err := LoadTrainingCorpus(context.Background(), []byte("intents: [")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadTrainingCorpusValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "no intents",
			yaml: "match_threshold: 0.8\nintents: []\n",
		},
		{
			name: "duplicate intent name",
			yaml: `
intents:
  - name: a
    response_type: list
    paraphrases: ["one"]
    jql: "project = {project}"
  - name: a
    response_type: list
    paraphrases: ["two"]
    jql: "project = {project}"
`,
		},
		{
			name: "unknown response type",
			yaml: `
intents:
  - name: a
    response_type: graph
    paraphrases: ["one"]
    jql: "project = {project}"
`,
		},
		{
			name: "no paraphrases",
			yaml: `
intents:
  - name: a
    response_type: list
    paraphrases: []
    jql: "project = {project}"
`,
		},
		{
			name: "unknown slot in template",
			yaml: `
intents:
  - name: a
    response_type: list
    paraphrases: ["one"]
    jql: "project = {proj_key}"
`,
		},
		{
			name: "threshold out of range",
			yaml: `
match_threshold: 1.5
intents:
  - name: a
    response_type: list
    paraphrases: ["one"]
    jql: "project = {project}"
`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadTrainingCorpus(context.Background(), []byte(tc.yaml)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
