// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/AjithTao/jira-copilot/services/assistant/nlq"
)

var corpusTracer = otel.Tracer("jira-copilot/assistant/config")

// MaxYAMLFileSize caps corpus files at 5 MB. The shipped corpus is a few KB;
// anything near the cap is a mistake or an attack.
const MaxYAMLFileSize = 5 * 1024 * 1024

// =============================================================================
// Embedded Default Training Corpus
// =============================================================================

//go:embed training_corpus.yaml
var defaultTrainingCorpusYAML []byte

// =============================================================================
// Training Corpus Types
// =============================================================================

// Response types an intent may declare.
const (
	// ResponseList renders issue summaries line by line.
	ResponseList = "list"

	// ResponseCount answers with a number only; no issue bodies are fetched.
	ResponseCount = "count"

	// ResponseSummary renders a short aggregate gloss of the result set.
	ResponseSummary = "summary"
)

// IntentSpec is one trained intent: the paraphrases that trigger it and the
// query template that answers it.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type IntentSpec struct {
	// Name identifies the intent. Unique within the corpus. Slot defaulting
	// keys off substrings of this name, so names describe the question
	// ("list_open_bugs", "sprint_status"), not an internal code.
	Name string `yaml:"name"`

	// ResponseType selects the rendering path: list, count, or summary.
	ResponseType string `yaml:"response_type"`

	// Paraphrases are example phrasings of the question. Matched exactly
	// after normalization, then fuzzily by token-set similarity.
	Paraphrases []string `yaml:"paraphrases"`

	// JQL is the query template. Placeholders are written as "{slot}" and
	// must name a known slot.
	JQL string `yaml:"jql"`

	// ExpectedResponse optionally templates the answer's lead line, with
	// "{count}" and slot placeholders available.
	ExpectedResponse string `yaml:"expected_response"`
}

// TrainingCorpus is the full intent corpus plus matcher tuning.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type TrainingCorpus struct {
	// MatchThreshold overrides the fuzzy acceptance threshold. Zero keeps
	// the built-in default.
	MatchThreshold float64 `yaml:"match_threshold"`

	// Intents are all trained intents.
	Intents []IntentSpec `yaml:"intents"`

	byName map[string]*IntentSpec
}

// Candidates flattens the corpus into normalized (intent, paraphrase) pairs
// for the matcher, preserving corpus order.
func (c *TrainingCorpus) Candidates() []nlq.Candidate {
	var out []nlq.Candidate
	for i := range c.Intents {
		in := &c.Intents[i]
		for _, p := range in.Paraphrases {
			out = append(out, nlq.Candidate{Intent: in.Name, Paraphrase: nlq.Normalize(p)})
		}
	}
	return out
}

// Intent looks up an intent by name.
func (c *TrainingCorpus) Intent(name string) (*IntentSpec, bool) {
	in, ok := c.byName[name]
	return in, ok
}

// =============================================================================
// Singleton Training Corpus
// =============================================================================

var (
	corpusMu      sync.RWMutex
	corpusOnce    sync.Once
	cachedCorpus  *TrainingCorpus
	corpusLoadErr error
)

// GetTrainingCorpus returns the cached training corpus.
//
// Description:
//
//	Loads the embedded corpus on first call and caches for subsequent
//	calls. Uses sync.Once for thread-safe initialization.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//
// Outputs:
//
//	*TrainingCorpus - The loaded corpus. Never nil on success.
//	error - Non-nil if loading or validation failed.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func GetTrainingCorpus(ctx context.Context) (*TrainingCorpus, error) {
	if ctx == nil {
		return nil, fmt.Errorf("GetTrainingCorpus: ctx must not be nil")
	}

	corpusMu.RLock()
	if cachedCorpus != nil || corpusLoadErr != nil {
		c, err := cachedCorpus, corpusLoadErr
		corpusMu.RUnlock()
		return c, err
	}
	corpusMu.RUnlock()

	corpusMu.Lock()
	defer corpusMu.Unlock()

	if cachedCorpus != nil || corpusLoadErr != nil {
		return cachedCorpus, corpusLoadErr
	}

	corpusOnce.Do(func() {
		cachedCorpus, corpusLoadErr = LoadTrainingCorpus(ctx, defaultTrainingCorpusYAML)
	})

	return cachedCorpus, corpusLoadErr
}

// ResetTrainingCorpus resets the cached corpus for testing.
//
// Thread Safety: Safe for concurrent use.
func ResetTrainingCorpus() {
	corpusMu.Lock()
	defer corpusMu.Unlock()
	cachedCorpus = nil
	corpusLoadErr = nil
	corpusOnce = sync.Once{}
}

// LoadTrainingCorpus loads and validates a TrainingCorpus from YAML bytes.
//
// Description:
//
//	Parses the YAML and validates every intent: unique names, at least one
//	paraphrase, a non-empty template whose placeholders all name known
//	slots, and a recognized response type.
//
// Inputs:
//
//	ctx - Context for tracing.
//	data - Raw YAML bytes to parse.
//
// Outputs:
//
//	*TrainingCorpus - The validated corpus.
//	error - Non-nil if parsing or validation fails.
func LoadTrainingCorpus(ctx context.Context, data []byte) (*TrainingCorpus, error) {
	_, span := corpusTracer.Start(ctx, "config.LoadTrainingCorpus")
	defer span.End()

	if len(data) == 0 {
		return nil, fmt.Errorf("LoadTrainingCorpus: empty YAML data")
	}
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("LoadTrainingCorpus: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var corpus TrainingCorpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("LoadTrainingCorpus: parsing YAML: %w", err)
	}

	if corpus.MatchThreshold < 0 || corpus.MatchThreshold > 1 {
		return nil, fmt.Errorf("LoadTrainingCorpus: match_threshold %v outside [0,1]", corpus.MatchThreshold)
	}

	if err := validateTrainingCorpus(&corpus); err != nil {
		return nil, fmt.Errorf("LoadTrainingCorpus: validation: %w", err)
	}

	corpus.byName = make(map[string]*IntentSpec, len(corpus.Intents))
	paraphrases := 0
	for i := range corpus.Intents {
		corpus.byName[corpus.Intents[i].Name] = &corpus.Intents[i]
		paraphrases += len(corpus.Intents[i].Paraphrases)
	}

	span.SetAttributes(
		attribute.Int("intents", len(corpus.Intents)),
		attribute.Int("paraphrases", paraphrases),
		attribute.Float64("match_threshold", corpus.MatchThreshold),
	)

	slog.Info("training corpus loaded",
		slog.Int("intents", len(corpus.Intents)),
		slog.Int("paraphrases", paraphrases),
	)

	return &corpus, nil
}

// validateTrainingCorpus checks all intents for consistency.
func validateTrainingCorpus(corpus *TrainingCorpus) error {
	if len(corpus.Intents) == 0 {
		return fmt.Errorf("corpus has no intents")
	}

	seen := make(map[string]bool, len(corpus.Intents))
	for i, in := range corpus.Intents {
		if in.Name == "" {
			return fmt.Errorf("intent[%d]: name must not be empty", i)
		}
		if seen[in.Name] {
			return fmt.Errorf("intent[%d] (%s): duplicate name", i, in.Name)
		}
		seen[in.Name] = true

		switch in.ResponseType {
		case ResponseList, ResponseCount, ResponseSummary:
		default:
			return fmt.Errorf("intent[%d] (%s): unknown response_type %q", i, in.Name, in.ResponseType)
		}

		if len(in.Paraphrases) == 0 {
			return fmt.Errorf("intent[%d] (%s): paraphrases must not be empty", i, in.Name)
		}
		for j, p := range in.Paraphrases {
			if nlq.Normalize(p) == "" {
				return fmt.Errorf("intent[%d] (%s): paraphrase[%d] is blank", i, in.Name, j)
			}
		}

		if in.JQL == "" {
			return fmt.Errorf("intent[%d] (%s): jql must not be empty", i, in.Name)
		}
		for _, slot := range nlq.TemplatePlaceholders(in.JQL) {
			if !nlq.KnownSlots[slot] {
				return fmt.Errorf("intent[%d] (%s): jql references unknown slot %q", i, in.Name, slot)
			}
		}
	}

	return nil
}
