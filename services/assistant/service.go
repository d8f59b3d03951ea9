// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package assistant wires the NLQ pipeline end to end: normalize, extract,
// carry session context, match an intent, build JQL, run it against Jira,
// and render the answer.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AjithTao/jira-copilot/services/assistant/config"
	"github.com/AjithTao/jira-copilot/services/assistant/jira"
	"github.com/AjithTao/jira-copilot/services/assistant/nlq"
	"github.com/AjithTao/jira-copilot/services/assistant/providers"
	"github.com/AjithTao/jira-copilot/services/assistant/summarize"
)

var assistantTracer = otel.Tracer("jira-copilot/assistant")

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "copilot",
		Subsystem: "assistant",
		Name:      "turns_total",
		Help:      "Chat turns by outcome: answered, clarify_intent, clarify_slot, error",
	}, []string{"outcome"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "copilot",
		Subsystem: "assistant",
		Name:      "turn_duration_seconds",
		Help:      "End-to-end chat turn latency",
		Buckets:   prometheus.DefBuckets,
	})
)

// defaultDirectoryTTL is how long a known-entity snapshot is reused before a
// fresh fetch. Projects and assignees change rarely; a stale snapshot costs
// precision, not correctness.
const defaultDirectoryTTL = 5 * time.Minute

// defaultPageSize is how many issue bodies a list/summary turn fetches.
const defaultPageSize = 10

// SearchClient is the Jira surface the service depends on. *jira.Client
// satisfies it; tests substitute fakes.
//
// Thread Safety: Implementations must be safe for concurrent use.
type SearchClient interface {
	SearchIssues(ctx context.Context, jql string, maxResults int) (*jira.SearchResult, error)
	CountIssues(ctx context.Context, jql string) (int, error)
	ListProjectKeys(ctx context.Context) ([]string, error)
	ListAssigneeNames(ctx context.Context, projectKeys []string) ([]string, error)
}

// Options configures NewService.
type Options struct {
	// Corpus is the loaded training corpus. Required.
	Corpus *config.TrainingCorpus

	// Jira runs the built queries. Required.
	Jira SearchClient

	// Sessions persists per-conversation context. Required.
	Sessions SessionStore

	// Chat optionally enables LLM summary enrichment. May be nil.
	Chat providers.ChatClient

	// Extraction overrides the extractor tables. Zero value uses defaults.
	Extraction nlq.ExtractorConfig

	// DirectoryTTL overrides the directory snapshot lifetime.
	DirectoryTTL time.Duration

	// PageSize overrides how many issues a turn fetches.
	PageSize int

	// Logger is the logger instance. Nil uses slog.Default().
	Logger *slog.Logger
}

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	// Answer is the rendered reply text. Always set, including on the
	// clarification paths.
	Answer string `json:"answer"`

	// Matched reports whether an intent was found.
	Matched bool `json:"matched"`

	// Intent is the matched intent name, empty when Matched is false.
	Intent string `json:"intent,omitempty"`

	// JQL is the executed query, empty when no query ran.
	JQL string `json:"jql,omitempty"`

	// Count is the full match total of the executed query.
	Count int `json:"count"`

	// NeedsClarification is true on both clarification paths: no intent
	// matched, or a required slot was missing.
	NeedsClarification bool `json:"needs_clarification,omitempty"`

	// MissingSlot names the slot the user should supply, when one is.
	MissingSlot string `json:"missing_slot,omitempty"`
}

// Service is the assembled assistant.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	corpus     *config.TrainingCorpus
	matcher    *nlq.Matcher
	extractor  *nlq.Extractor
	summarizer *summarize.Summarizer
	jira       SearchClient
	sessions   SessionStore
	pageSize   int
	logger     *slog.Logger

	dirTTL        time.Duration
	dirMu         sync.Mutex
	dir           nlq.Directory
	dirFetched    time.Time
	dirRefreshing bool
}

// NewService assembles a Service from its parts.
func NewService(opts Options) (*Service, error) {
	if opts.Corpus == nil {
		return nil, fmt.Errorf("NewService: Corpus is required")
	}
	if opts.Jira == nil {
		return nil, fmt.Errorf("NewService: Jira is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("NewService: Sessions is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	extraction := opts.Extraction
	if extraction.ProjectAliases == nil && extraction.Stopwords == nil {
		extraction = nlq.DefaultExtractorConfig()
	}

	ttl := opts.DirectoryTTL
	if ttl <= 0 {
		ttl = defaultDirectoryTTL
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Service{
		corpus:     opts.Corpus,
		matcher:    nlq.NewMatcher(opts.Corpus.Candidates(), opts.Corpus.MatchThreshold, logger),
		extractor:  nlq.NewExtractor(extraction, logger),
		summarizer: summarize.New(opts.Chat, logger),
		jira:       opts.Jira,
		sessions:   opts.Sessions,
		pageSize:   pageSize,
		logger:     logger,
		dirTTL:     ttl,
	}, nil
}

// ProcessTurn answers one chat turn.
//
// Description:
//
//	The full pipeline. Both clarification outcomes (no intent, missing
//	slot) are successful turns with NeedsClarification set, not errors;
//	only a failed Jira query returns an error. Session context is
//	committed once, at the end, only when the turn fully succeeded.
//
// Inputs:
//
//	ctx - Context for cancellation/timeout. Must not be nil.
//	sessionID - Conversation identifier. Empty disables carry-over.
//	question - The raw user question.
//
// Outputs:
//
//	*TurnResult - The rendered turn outcome.
//	error - Non-nil only for execution failures (*jira.SearchError).
func (s *Service) ProcessTurn(ctx context.Context, sessionID, question string) (*TurnResult, error) {
	ctx, span := assistantTracer.Start(ctx, "assistant.ProcessTurn")
	defer span.End()
	start := time.Now()
	defer func() { turnDuration.Observe(time.Since(start).Seconds()) }()

	normalized := nlq.Normalize(question)
	span.SetAttributes(attribute.String("question", normalized))
	if normalized == "" {
		turnsTotal.WithLabelValues("clarify_intent").Inc()
		return &TurnResult{
			Answer:             "Ask me something about your Jira issues, like \"show me open bugs in CCM\".",
			NeedsClarification: true,
		}, nil
	}

	slots := s.extractor.Extract(normalized, s.directory(ctx))

	// Carry the previous turn's project into project-less follow-ups before
	// defaulting, so "how many of those are bugs?" stays in context.
	var sc SessionContext
	if sessionID != "" {
		if prev, ok := s.sessions.Get(sessionID); ok {
			sc = prev
			if !slots.Has(nlq.SlotProject) && prev.Project != "" {
				slots = slots.Clone()
				slots[nlq.SlotProject] = prev.Project
				span.SetAttributes(attribute.String("carried_project", prev.Project))
			}
		}
	}

	match, err := s.matcher.Match(normalized)
	if errors.Is(err, nlq.ErrNoMatch) {
		turnsTotal.WithLabelValues("clarify_intent").Inc()
		span.SetAttributes(attribute.Bool("matched", false))
		return &TurnResult{
			Answer:             "I didn't catch that. Try asking about open issues, bug counts, sprint status, or someone's workload.",
			NeedsClarification: true,
		}, nil
	}
	span.SetAttributes(
		attribute.Bool("matched", true),
		attribute.String("intent", match.Intent),
		attribute.Float64("match_score", match.Score),
	)

	spec, ok := s.corpus.Intent(match.Intent)
	if !ok {
		// Corpus validation makes this unreachable; guard anyway.
		turnsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ProcessTurn: matched unknown intent %q", match.Intent)
	}

	slots = nlq.ApplyDefaults(match.Intent, slots)

	jql, err := nlq.BuildJQL(match.Intent, spec.JQL, slots)
	if err != nil {
		mse, isMissing := nlq.AsMissingSlot(err)
		if !isMissing {
			turnsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		turnsTotal.WithLabelValues("clarify_slot").Inc()
		span.SetAttributes(attribute.String("missing_slot", string(mse.Slot)))
		return &TurnResult{
			Matched:            true,
			Intent:             match.Intent,
			NeedsClarification: true,
			MissingSlot:        string(mse.Slot),
			Answer:             clarifySlot(mse.Slot),
		}, nil
	}
	span.SetAttributes(attribute.String("jql", jql))

	count, issues, err := s.execute(ctx, spec, jql, nlq.QuantityLimit(slots, s.pageSize))
	if err != nil {
		turnsTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	answer := s.summarizer.Summarize(ctx, summarize.Input{
		Intent:       match.Intent,
		ResponseType: spec.ResponseType,
		Question:     question,
		Slots:        slots,
		LeadTemplate: spec.ExpectedResponse,
		Count:        count,
		Issues:       issues,
	})

	if sessionID != "" {
		sc.LastIntent = match.Intent
		sc.LastSlots = slots
		if slots.Has(nlq.SlotProject) {
			sc.Project = slots[nlq.SlotProject]
		}
		sc.UpdatedAt = time.Now()
		s.sessions.Put(sessionID, sc)
	}

	turnsTotal.WithLabelValues("answered").Inc()
	s.logger.Info("turn answered",
		slog.String("intent", match.Intent),
		slog.String("jql", jql),
		slog.Int("count", count),
		slog.Bool("exact_match", match.Exact))

	return &TurnResult{
		Answer:  answer,
		Matched: true,
		Intent:  match.Intent,
		JQL:     jql,
		Count:   count,
	}, nil
}

// execute runs the built query. Count intents fetch the total only; list and
// summary intents fetch one page, sized by an explicit "top N" when given.
func (s *Service) execute(ctx context.Context, spec *config.IntentSpec, jql string, pageSize int) (int, []jira.Issue, error) {
	if spec.ResponseType == config.ResponseCount {
		count, err := s.jira.CountIssues(ctx, jql)
		return count, nil, err
	}
	result, err := s.jira.SearchIssues(ctx, jql, pageSize)
	if err != nil {
		return 0, nil, err
	}
	return result.Total, result.Issues, nil
}

// clarifySlot phrases the follow-up question for a missing slot.
func clarifySlot(slot nlq.Slot) string {
	switch slot {
	case nlq.SlotProject:
		return "Which project should I look in?"
	case nlq.SlotAssignee:
		return "Whose issues should I look at?"
	case nlq.SlotText:
		return "What should I search for?"
	default:
		return fmt.Sprintf("I need a value for %s to answer that.", slot)
	}
}

// directory returns the cached known-entity snapshot.
//
// A stale snapshot is served as-is while a single background goroutine
// refreshes it, so turns never wait on the network once a snapshot exists;
// only the very first call fetches inline. Refresh failures degrade to empty
// sides inside SnapshotDirectory; a fully empty snapshot is still cached so a
// dead Jira is not hammered every turn.
func (s *Service) directory(ctx context.Context) nlq.Directory {
	s.dirMu.Lock()
	if time.Since(s.dirFetched) < s.dirTTL || s.dirRefreshing {
		dir := s.dir
		s.dirMu.Unlock()
		return dir
	}
	s.dirRefreshing = true
	if !s.dirFetched.IsZero() {
		dir := s.dir
		s.dirMu.Unlock()
		go s.refreshDirectory(context.WithoutCancel(ctx))
		return dir
	}
	s.dirMu.Unlock()
	return s.refreshDirectory(ctx)
}

// refreshDirectory fetches a fresh snapshot and installs it.
func (s *Service) refreshDirectory(ctx context.Context) nlq.Directory {
	dir := nlq.SnapshotDirectory(ctx, &clientDirectory{jira: s.jira}, s.logger)
	s.dirMu.Lock()
	s.dir = dir
	s.dirFetched = time.Now()
	s.dirRefreshing = false
	s.dirMu.Unlock()
	return dir
}

// clientDirectory adapts a SearchClient to nlq.DirectoryProvider.
type clientDirectory struct {
	jira SearchClient
}

func (d *clientDirectory) ProjectKeys(ctx context.Context) ([]string, error) {
	return d.jira.ListProjectKeys(ctx)
}

func (d *clientDirectory) AssigneeNames(ctx context.Context) ([]string, error) {
	keys, err := d.jira.ListProjectKeys(ctx)
	if err != nil {
		return nil, err
	}
	return d.jira.ListAssigneeNames(ctx, keys)
}
