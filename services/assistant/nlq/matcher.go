// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import (
	"log/slog"
	"sort"
	"strings"
)

// DefaultMatchThreshold is the fuzzy acceptance threshold. Scores below it
// yield ErrNoMatch. 0.82 is the empirically tuned value: lower floods users
// with wrong queries, higher sends too many answerable questions to the
// clarification path.
const DefaultMatchThreshold = 0.82

// Candidate is one (intent, paraphrase) pair from the training corpus.
// Paraphrase must already be normalized (see Normalize); the matcher does not
// re-normalize corpus text on every query.
type Candidate struct {
	Intent     string
	Paraphrase string
}

// Match is the result of a successful intent match.
type Match struct {
	// Intent is the matched intent name.
	Intent string

	// Paraphrase is the corpus paraphrase that won.
	Paraphrase string

	// Score is the similarity in [0,1]. 1.0 for exact matches.
	Score float64

	// Exact reports whether the match came from the exact-lookup fast path.
	Exact bool
}

// candidate is the compiled form of a Candidate: token set precomputed once
// at construction so per-query work is scoring only.
type candidate struct {
	intent     string
	paraphrase string
	tokens     map[string]bool
}

// Matcher maps a normalized query to a corpus intent.
//
// Description:
//
//	Two-phase: an exact hash lookup over all normalized paraphrases, then a
//	linear fuzzy scan scored by token-set similarity. The corpus is a few
//	hundred paraphrases, so the scan is microseconds; no index is needed.
//	Ties on the fuzzy score break by corpus order (first candidate wins),
//	which keeps results deterministic across runs.
//
// Thread Safety: Safe for concurrent use (read-only after construction).
type Matcher struct {
	threshold  float64
	exact      map[string]Candidate
	candidates []candidate
	logger     *slog.Logger
}

// NewMatcher compiles the candidate list into a Matcher.
//
// Inputs:
//
//	cands - Corpus (intent, paraphrase) pairs, paraphrases normalized.
//	threshold - Fuzzy acceptance threshold in (0,1]. <=0 uses the default.
//	logger - Logger instance. Nil uses slog.Default().
//
// Outputs:
//
//	*Matcher - The compiled matcher. Never nil.
func NewMatcher(cands []Candidate, threshold float64, logger *slog.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Matcher{
		threshold:  threshold,
		exact:      make(map[string]Candidate, len(cands)),
		candidates: make([]candidate, 0, len(cands)),
		logger:     logger,
	}
	for _, c := range cands {
		if c.Paraphrase == "" {
			continue
		}
		// First occurrence wins on duplicate paraphrases across intents.
		if _, dup := m.exact[c.Paraphrase]; !dup {
			m.exact[c.Paraphrase] = c
		}
		m.candidates = append(m.candidates, candidate{
			intent:     c.Intent,
			paraphrase: c.Paraphrase,
			tokens:     tokenSet(c.Paraphrase),
		})
	}
	return m
}

// Match finds the best intent for a normalized query.
//
// Inputs:
//
//	normalized - The normalized query (see Normalize).
//
// Outputs:
//
//	Match - The winning intent with its score.
//	error - ErrNoMatch when no paraphrase reaches the threshold.
//
// Thread Safety: Safe for concurrent use.
func (m *Matcher) Match(normalized string) (Match, error) {
	if c, ok := m.exact[normalized]; ok {
		matcherMatchTotal.WithLabelValues("exact").Inc()
		matcherBestScore.Observe(1.0)
		return Match{Intent: c.Intent, Paraphrase: c.Paraphrase, Score: 1.0, Exact: true}, nil
	}

	queryTokens := tokenSet(normalized)
	var best Match
	for _, c := range m.candidates {
		score := tokenSetRatio(queryTokens, c.tokens)
		if score > best.Score {
			best = Match{Intent: c.intent, Paraphrase: c.paraphrase, Score: score}
		}
	}

	matcherBestScore.Observe(best.Score)
	if best.Score < m.threshold {
		matcherMatchTotal.WithLabelValues("none").Inc()
		m.logger.Debug("no intent above threshold",
			slog.String("query", truncateForLog(normalized, 120)),
			slog.Float64("best_score", best.Score),
			slog.Float64("threshold", m.threshold))
		return Match{}, ErrNoMatch
	}

	matcherMatchTotal.WithLabelValues("fuzzy").Inc()
	return best, nil
}

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// =============================================================================
// Token-Set Similarity
// =============================================================================

// tokenSetRatio scores two token sets in [0,1].
//
// Description:
//
//	The classic token-set construction: build three strings from the sorted
//	intersection and the sorted one-sided differences, score each pair with
//	an edit-distance ratio, take the max. Shared-token-heavy pairs score
//	near 1 regardless of word order or one-sided extra words, which is
//	exactly the tolerance paraphrase matching needs.
func tokenSetRatio(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for tok := range a {
		if b[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range b {
		if !a[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	r1 := editRatio(base, combinedA)
	r2 := editRatio(base, combinedB)
	r3 := editRatio(combinedA, combinedB)

	best := r1
	if r2 > best {
		best = r2
	}
	if r3 > best {
		best = r3
	}
	return best
}

// editRatio converts Levenshtein distance to a similarity in [0,1]:
// (len(a)+len(b)-dist) / (len(a)+len(b)). Identical strings score 1.0,
// fully disjoint short strings approach 0.
func editRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	total := la + lb
	if total == 0 {
		return 0
	}
	d := levenshtein(a, b)
	return float64(total-d) / float64(total)
}

// levenshtein computes edit distance over runes with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
