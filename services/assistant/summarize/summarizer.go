// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package summarize renders query results as chat answers. The deterministic
// renderer is the product; an optional LLM pass can rewrite the lead line,
// and any LLM failure silently keeps the deterministic answer.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AjithTao/jira-copilot/services/assistant/config"
	"github.com/AjithTao/jira-copilot/services/assistant/jira"
	"github.com/AjithTao/jira-copilot/services/assistant/nlq"
	"github.com/AjithTao/jira-copilot/services/assistant/providers"
)

var llmSummariesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "copilot",
	Subsystem: "summarize",
	Name:      "llm_total",
	Help:      "LLM summary attempts by outcome: ok, error",
}, []string{"outcome"})

// maxListItems caps how many issue lines a list answer renders when the user
// did not ask for a specific count. The total is always stated, so nothing is
// hidden, just not itemized.
const maxListItems = 10

// llmOptions keep the enrichment pass short and deterministic-ish.
var llmOptions = providers.ChatOptions{Temperature: 0.2, MaxTokens: 200}

// Input is everything the summarizer needs to render one answer.
type Input struct {
	// Intent is the matched intent name.
	Intent string

	// ResponseType is the intent's rendering mode (config.ResponseList,
	// config.ResponseCount, config.ResponseSummary).
	ResponseType string

	// Question is the user's original question, passed to the LLM pass for
	// tone. Never re-parsed.
	Question string

	// Slots is the final slot set the query was built from.
	Slots nlq.SlotSet

	// LeadTemplate optionally templates the lead line, with {count} and
	// slot placeholders available.
	LeadTemplate string

	// Count is the full match total.
	Count int

	// Issues is the fetched page, empty for count answers.
	Issues []jira.Issue
}

// Summarizer renders Inputs into answer text.
//
// Thread Safety: Safe for concurrent use.
type Summarizer struct {
	chat   providers.ChatClient
	logger *slog.Logger
}

// New creates a Summarizer.
//
// Inputs:
//
//	chat - Optional LLM client. Nil disables the enrichment pass.
//	logger - Logger instance. Nil uses slog.Default().
func New(chat providers.ChatClient, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{chat: chat, logger: logger}
}

// Summarize renders one answer.
//
// Description:
//
//	Builds the deterministic answer first, then, when an LLM client is
//	configured, asks it to rewrite the lead in at most three sentences.
//	The enrichment pass can only replace the lead line; the itemized body
//	is always the deterministic rendering, and any LLM error returns the
//	baseline unchanged.
//
// Outputs:
//
//	string - The answer text. Never empty.
func (s *Summarizer) Summarize(ctx context.Context, in Input) string {
	lead := s.leadLine(in)
	body := s.body(in)

	baseline := lead
	if body != "" {
		baseline = lead + "\n" + body
	}

	if s.chat == nil {
		return baseline
	}

	enriched, err := s.enrichLead(ctx, in, lead)
	if err != nil {
		llmSummariesTotal.WithLabelValues("error").Inc()
		s.logger.Warn("LLM summary failed, keeping deterministic answer",
			slog.String("intent", in.Intent),
			slog.String("error", err.Error()))
		return baseline
	}

	llmSummariesTotal.WithLabelValues("ok").Inc()
	if body != "" {
		return enriched + "\n" + body
	}
	return enriched
}

// leadLine renders the first line of the answer.
func (s *Summarizer) leadLine(in Input) string {
	if in.LeadTemplate != "" {
		if line, ok := fillLead(in.LeadTemplate, in.Count, in.Slots); ok {
			return line
		}
	}
	if in.Count == 0 {
		return "No issues match that."
	}
	if in.Count == 1 {
		return "Found 1 issue."
	}
	return fmt.Sprintf("Found %d issues.", in.Count)
}

// body renders everything after the lead line for the response type.
func (s *Summarizer) body(in Input) string {
	switch in.ResponseType {
	case config.ResponseCount:
		return ""
	case config.ResponseSummary:
		return summaryBody(in.Issues)
	default:
		// An explicit "top N" overrides the default cap in both directions.
		return listBody(in.Count, in.Issues, nlq.QuantityLimit(in.Slots, maxListItems))
	}
}

// listBody itemizes up to limit issues.
func listBody(total int, issues []jira.Issue, limit int) string {
	if len(issues) == 0 {
		return ""
	}

	shown := issues
	if len(shown) > limit {
		shown = shown[:limit]
	}

	var b strings.Builder
	for _, is := range shown {
		b.WriteString("- ")
		b.WriteString(is.Key)
		b.WriteString(": ")
		b.WriteString(is.Fields.Summary)
		b.WriteString(" (")
		b.WriteString(is.Fields.Status.Name)
		b.WriteString(", ")
		b.WriteString(assigneeName(is))
		b.WriteString(")\n")
	}
	if total > len(shown) {
		fmt.Fprintf(&b, "...and %d more.", total-len(shown))
	}
	return strings.TrimRight(b.String(), "\n")
}

// summaryBody renders a status breakdown plus the busiest assignees.
func summaryBody(issues []jira.Issue) string {
	if len(issues) == 0 {
		return ""
	}

	byStatus := make(map[string]int)
	byAssignee := make(map[string]int)
	for _, is := range issues {
		byStatus[is.Fields.Status.Name]++
		byAssignee[assigneeName(is)]++
	}

	var b strings.Builder
	b.WriteString("By status: ")
	b.WriteString(formatCounts(byStatus, 0))
	b.WriteString("\nBy assignee: ")
	b.WriteString(formatCounts(byAssignee, 5))
	return b.String()
}

// formatCounts renders a count map as "3 In Progress, 2 To Do", descending,
// name as the tie-break. limit 0 means all entries.
func formatCounts(counts map[string]int, limit int) string {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, n := range counts {
		entries = append(entries, entry{name, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%d %s", e.count, e.name)
	}
	return strings.Join(parts, ", ")
}

// assigneeName returns the display name or the explicit unassigned marker.
func assigneeName(is jira.Issue) string {
	if is.Fields.Assignee == nil || is.Fields.Assignee.DisplayName == "" {
		return "Unassigned"
	}
	return is.Fields.Assignee.DisplayName
}

// fillLead substitutes {count} and slot placeholders into a lead template.
// Reports ok=false when placeholders remain unfilled, so the caller can fall
// back to the generic lead instead of leaking braces to the user.
func fillLead(tpl string, count int, slots nlq.SlotSet) (string, bool) {
	line := strings.ReplaceAll(tpl, "{count}", fmt.Sprintf("%d", count))
	for slot, value := range slots {
		line = strings.ReplaceAll(line, "{"+string(slot)+"}", value)
	}
	if strings.Contains(line, "{") {
		return "", false
	}
	return line, true
}

// enrichLead asks the LLM for a short rewrite of the lead line.
func (s *Summarizer) enrichLead(ctx context.Context, in Input, lead string) (string, error) {
	digest := listBody(in.Count, in.Issues, maxListItems)
	prompt := fmt.Sprintf(
		"Question: %s\nFacts: %s\nIssues:\n%s\n\nRewrite the facts as a direct answer to the question in at most three sentences. State only the facts given; do not invent issues or numbers.",
		in.Question, lead, digest)

	out, err := s.chat.Chat(ctx, []providers.Message{
		{Role: "system", Content: "You summarize issue tracker query results. Be concise and factual."},
		{Role: "user", Content: prompt},
	}, llmOptions)
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("empty LLM response")
	}
	return out, nil
}
