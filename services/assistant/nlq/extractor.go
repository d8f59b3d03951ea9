// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Directory Snapshot
// =============================================================================

// Directory is a read-only snapshot of the known-entity sets the extractor
// disambiguates against. It is a plain value: tests supply fixed directories,
// production code fetches one per turn (or from a short-lived cache).
type Directory struct {
	// ProjectKeys are the canonical project keys known to the tracker.
	ProjectKeys []string

	// AssigneeNames are full display names, in directory order. Order is the
	// tie-break for substring matches — first match wins, no scoring.
	AssigneeNames []string
}

// DirectoryProvider supplies the live known-entity sets.
//
// Thread Safety: Implementations must be safe for concurrent use.
type DirectoryProvider interface {
	ProjectKeys(ctx context.Context) ([]string, error)
	AssigneeNames(ctx context.Context) ([]string, error)
}

// SnapshotDirectory fetches both directory sides in parallel.
//
// Description:
//
//	Each side degrades independently: a failed lookup yields an empty set
//	and a warning, never an error. A stale or unavailable directory makes
//	extraction less precise, not broken — slots simply come back absent.
//
// Inputs:
//
//	ctx - Context for cancellation/timeout. Must not be nil.
//	p - The directory provider. Must not be nil.
//	logger - Logger instance. Nil uses slog.Default().
//
// Outputs:
//
//	Directory - The snapshot. Never fails; sides may be empty.
func SnapshotDirectory(ctx context.Context, p DirectoryProvider, logger *slog.Logger) Directory {
	if logger == nil {
		logger = slog.Default()
	}

	var dir Directory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		keys, err := p.ProjectKeys(gctx)
		if err != nil {
			extractorDirectoryErrors.WithLabelValues("projects").Inc()
			logger.Warn("project directory unavailable, extraction degrades to empty set",
				slog.String("error", err.Error()))
			return nil
		}
		dir.ProjectKeys = keys
		return nil
	})
	g.Go(func() error {
		names, err := p.AssigneeNames(gctx)
		if err != nil {
			extractorDirectoryErrors.WithLabelValues("assignees").Inc()
			logger.Warn("assignee directory unavailable, extraction degrades to empty set",
				slog.String("error", err.Error()))
			return nil
		}
		dir.AssigneeNames = names
		return nil
	})
	_ = g.Wait() // goroutines never return errors; they degrade instead
	return dir
}

// =============================================================================
// Rule Tables
// =============================================================================

// phraseRule maps a literal phrase to a slot value. Tables of phraseRules are
// ordered and evaluated first-match-wins, which keeps tie-break behavior
// explicit and testable.
type phraseRule struct {
	phrase string
	value  string
}

// regexRule maps a compiled pattern to a slot value. An empty value means
// "use capture group 1".
type regexRule struct {
	re    *regexp.Regexp
	value string
}

// dateRules map relative-date phrases to JQL relative-date expressions.
// Longer phrases come first so "last month" wins over a later "last" rule.
var dateRules = []phraseRule{
	{"last month", "-30d"},
	{"this month", "startOfMonth()"},
	{"last week", "-1w"},
	{"this week", "-1w"},
	{"yesterday", "-1d"},
	{"today", "-1d"},
}

// issueTypeRules use word boundaries so "bug" does not fire inside "debug".
var issueTypeRules = []regexRule{
	{regexp.MustCompile(`\bbugs?\b`), "Bug"},
	{regexp.MustCompile(`\bdefects?\b`), "Bug"},
	{regexp.MustCompile(`\bstor(?:y|ies)\b`), "Story"},
	{regexp.MustCompile(`\btasks?\b`), "Task"},
	{regexp.MustCompile(`\bsub-?tasks?\b`), "Sub-task"},
	{regexp.MustCompile(`\bepics?\b`), "Epic"},
}

// priorityRules: "highest"/"lowest" are listed before "high"/"low"; the word
// boundaries keep the shorter patterns from firing inside the longer words.
var priorityRules = []regexRule{
	{regexp.MustCompile(`\bhighest\b|\bblockers?\b|\bcritical\b`), "Highest"},
	{regexp.MustCompile(`\bhigh\b`), "High"},
	{regexp.MustCompile(`\bmedium\b`), "Medium"},
	{regexp.MustCompile(`\blowest\b|\btrivial\b`), "Lowest"},
	{regexp.MustCompile(`\blow\b|\bminor\b`), "Low"},
}

var statusRules = []phraseRule{
	{"in progress", "In Progress"},
	{"in review", "In Review"},
	{"to do", "To Do"},
	{"todo", "To Do"},
	{"blocked", "Blocked"},
	{"resolved", "Done"},
	{"closed", "Done"},
	{"done", "Done"},
}

// statusCategoryRules produce a ready-to-splice JQL comparison so templates
// can say `statusCategory {status_category}` for both open and finished work.
var statusCategoryRules = []regexRule{
	{regexp.MustCompile(`\bopen\b|\bunresolved\b|\boutstanding\b|\bpending\b|\boverdue\b`), "!= Done"},
	{regexp.MustCompile(`\bcompleted\b|\bfinished\b|\bdelivered\b|\bshipped\b`), "= Done"},
}

var sprintRules = []phraseRule{
	{"current sprint", "openSprints()"},
	{"this sprint", "openSprints()"},
	{"active sprint", "openSprints()"},
	{"next sprint", "futureSprints()"},
	{"upcoming sprint", "futureSprints()"},
	{"last sprint", "closedSprints()"},
	{"previous sprint", "closedSprints()"},
}

var labelRules = []regexRule{
	{regexp.MustCompile(`\blabell?ed (?:as |with )?"?([a-z0-9][a-z0-9_-]*)"?`), ""},
	{regexp.MustCompile(`\blabel "?([a-z0-9][a-z0-9_-]*)"?`), ""},
}

var componentRules = []regexRule{
	{regexp.MustCompile(`\b(?:in|for|on) the ([a-z0-9][a-z0-9 _-]*?) component\b`), ""},
	{regexp.MustCompile(`\bcomponent "?([a-z0-9][a-z0-9_-]*)"?`), ""},
}

var versionRules = []regexRule{
	{regexp.MustCompile(`\b(?:fix version|version|release) "?v?([0-9][0-9a-z.\-]*)"?`), ""},
}

var quantityRules = []regexRule{
	{regexp.MustCompile(`\btop ([0-9]+)\b`), ""},
	{regexp.MustCompile(`\bfirst ([0-9]+)\b`), ""},
	{regexp.MustCompile(`\b([0-9]+) (?:issues|tickets|bugs|stories|tasks)\b`), ""},
}

var orderRules = []phraseRule{
	{"recently updated", "updated DESC"},
	{"last updated", "updated DESC"},
	{"most recent", "created DESC"},
	{"newest", "created DESC"},
	{"latest", "created DESC"},
	{"oldest", "created ASC"},
}

var epicKeyRule = regexp.MustCompile(`\bepic ([a-z][a-z0-9]*-[0-9]+)\b`)

var freeTextRule = regexp.MustCompile(`\b(?:about|mentioning|containing|regarding|related to) (.+)$`)

// assigneePatterns are the secondary heuristic path, used only when the
// directory scan finds nothing. Leading stopwords are stripped from the
// captured span; spans that reduce to nothing or to a project reference are
// rejected.
var assigneePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bassigned to ([a-z]+(?: [a-z]+)?)\b`),
	regexp.MustCompile(`\bby ([a-z]+(?: [a-z]+)?)\b`),
	regexp.MustCompile(`\b([a-z]+(?: [a-z]+)?)'s (?:issues|tickets|work)\b`),
	regexp.MustCompile(`\b([a-z]+(?: [a-z]+)?) (?:issues|tickets)\b`),
}

// =============================================================================
// Extractor
// =============================================================================

// ExtractorConfig holds the curated tables the extractor consults before the
// live directory. All values are matched against normalized (lowercase) text.
type ExtractorConfig struct {
	// ProjectAliases maps human-friendly project names to canonical keys,
	// e.g. "customer care" -> "CCM". Checked before the key directory so a
	// short key that happens to be an English word cannot false-positive.
	ProjectAliases map[string]string

	// AssigneeAliases maps known nicknames to full display names. Takes
	// priority over the generic regex patterns.
	AssigneeAliases map[string]string

	// Stopwords are words that can never start a bare extracted name. They
	// are stripped from the front of a regex-captured span; a span that is
	// nothing but stopwords is discarded.
	// Hand-tuned in the source system; kept configurable rather than
	// hard-coded because the exact list is empirical, not load-bearing.
	Stopwords []string
}

// DefaultExtractorConfig returns the curated tables shipped with the service.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		ProjectAliases: map[string]string{
			"customer care":   "CCM",
			"care management": "CCM",
			"ccm":             "CCM",
			"titan":           "TI",
			"go tools":        "GTMS",
			"core platform":   "CORE",
		},
		AssigneeAliases: map[string]string{},
		Stopwords: []string{
			// articles / determiners
			"the", "a", "an", "this", "that", "these", "those",
			// quantifiers
			"all", "any", "some", "few", "many", "most", "every", "top",
			// pronouns
			"my", "me", "our", "us", "his", "her", "their",
			// temporal
			"today", "yesterday", "week", "month", "sprint", "last",
			"current", "recent", "recently", "now", "latest", "new", "old",
			// common query words that land in name position
			"open", "closed", "done", "high", "low", "priority", "status",
		},
	}
}

// Extractor turns a normalized query into a SlotSet.
//
// Description:
//
//	Pure function of (normalized text, directory snapshot, static tables).
//	Each slot is resolved by an independent rule; multiple rules may fire on
//	the same query and populate multiple slots. Ambiguity is represented as
//	slot absence, never as an error — Extract has no failure mode.
//
// Thread Safety: Safe for concurrent use (all state is read-only after
// construction).
type Extractor struct {
	cfg       ExtractorConfig
	stopwords map[string]bool

	// projectAliases and assigneeAliases hold the config maps flattened to
	// deterministic slices: longest alias first, then lexicographic. Map
	// iteration order must not decide which alias wins.
	projectAliases  []phraseRule
	assigneeAliases []phraseRule

	logger *slog.Logger
}

// NewExtractor creates an Extractor from the given config.
//
// Inputs:
//
//	cfg - Extraction tables. Zero value disables aliases and stopword checks.
//	logger - Logger instance. Nil uses slog.Default().
//
// Outputs:
//
//	*Extractor - The constructed extractor. Never nil.
func NewExtractor(cfg ExtractorConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	stop := make(map[string]bool, len(cfg.Stopwords))
	for _, w := range cfg.Stopwords {
		stop[strings.ToLower(w)] = true
	}

	return &Extractor{
		cfg:             cfg,
		stopwords:       stop,
		projectAliases:  flattenAliases(cfg.ProjectAliases),
		assigneeAliases: flattenAliases(cfg.AssigneeAliases),
		logger:          logger,
	}
}

// flattenAliases converts an alias map to an ordered rule slice:
// longest alias first so "care management" wins over "care".
func flattenAliases(aliases map[string]string) []phraseRule {
	rules := make([]phraseRule, 0, len(aliases))
	for alias, canonical := range aliases {
		rules = append(rules, phraseRule{phrase: strings.ToLower(alias), value: canonical})
	}
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i].phrase) != len(rules[j].phrase) {
			return len(rules[i].phrase) > len(rules[j].phrase)
		}
		return rules[i].phrase < rules[j].phrase
	})
	return rules
}

// Extract resolves all slots from a normalized query.
//
// Description:
//
//	Runs every rule table independently over the normalized text. The
//	directory snapshot is consulted for project and assignee resolution
//	only; all other slots come from the static tables above.
//
// Inputs:
//
//	normalized - The normalized query (see Normalize).
//	dir - Known-entity snapshot. Empty sides are fine.
//
// Outputs:
//
//	SlotSet - Present slots only. Never nil, may be empty.
//
// Thread Safety: Safe for concurrent use.
func (e *Extractor) Extract(normalized string, dir Directory) SlotSet {
	slots := make(SlotSet)
	if normalized == "" {
		return slots
	}
	tokens := Tokenize(normalized)

	if key, ok := e.resolveProject(normalized, tokens, dir.ProjectKeys); ok {
		slots[SlotProject] = key
	}
	if name, ok := e.resolveAssignee(normalized, dir); ok {
		slots[SlotAssignee] = name
	}

	// Epic key is matched before the issue-type table: "epic CCM-41" names a
	// parent link, not a request for issues of type Epic.
	epicMatched := false
	if m := epicKeyRule.FindStringSubmatch(normalized); m != nil {
		slots[SlotEpic] = strings.ToUpper(m[1])
		epicMatched = true
	}

	for _, rule := range issueTypeRules {
		if rule.re.MatchString(normalized) {
			if rule.value == "Epic" && epicMatched {
				break
			}
			slots[SlotIssueType] = rule.value
			break
		}
	}

	for _, rule := range priorityRules {
		if rule.re.MatchString(normalized) {
			slots[SlotPriority] = rule.value
			break
		}
	}

	for _, rule := range statusRules {
		if strings.Contains(normalized, rule.phrase) {
			slots[SlotStatus] = rule.value
			break
		}
	}

	for _, rule := range statusCategoryRules {
		if rule.re.MatchString(normalized) {
			slots[SlotStatusCategory] = rule.value
			break
		}
	}

	for _, rule := range dateRules {
		if strings.Contains(normalized, rule.phrase) {
			slots[SlotDateRange] = rule.value
			break
		}
	}

	for _, rule := range sprintRules {
		if strings.Contains(normalized, rule.phrase) {
			slots[SlotSprint] = rule.value
			break
		}
	}

	for _, rule := range labelRules {
		if m := rule.re.FindStringSubmatch(normalized); m != nil {
			slots[SlotLabel] = m[1]
			break
		}
	}

	for _, rule := range componentRules {
		if m := rule.re.FindStringSubmatch(normalized); m != nil {
			slots[SlotComponent] = strings.TrimSpace(m[1])
			break
		}
	}

	for _, rule := range versionRules {
		if m := rule.re.FindStringSubmatch(normalized); m != nil {
			slots[SlotVersion] = m[1]
			break
		}
	}

	for _, rule := range quantityRules {
		if m := rule.re.FindStringSubmatch(normalized); m != nil {
			slots[SlotQuantity] = m[1]
			break
		}
	}

	for _, rule := range orderRules {
		if strings.Contains(normalized, rule.phrase) {
			slots[SlotOrder] = rule.value
			break
		}
	}

	if m := freeTextRule.FindStringSubmatch(normalized); m != nil {
		slots[SlotText] = strings.Trim(m[1], " ?.!")
	}

	extractorSlotsFilled.Observe(float64(len(slots)))
	return slots
}

// resolveProject maps free text to a canonical project key.
//
// Resolution order:
//
//	(a) curated alias table, substring match, longest alias first;
//	(b) whole-word token match against the live key directory.
//
// Requiring a whole-word match for raw keys avoids false positives on short
// keys that coincide with English words (a two-letter key inside a longer
// word must not fire).
func (e *Extractor) resolveProject(normalized string, tokens []string, keys []string) (string, bool) {
	for _, rule := range e.projectAliases {
		if strings.Contains(normalized, rule.phrase) {
			return rule.value, true
		}
	}
	for _, tok := range tokens {
		for _, key := range keys {
			if key != "" && strings.EqualFold(tok, key) {
				return strings.ToUpper(key), true
			}
		}
	}
	return "", false
}

// resolveAssignee maps free text to a directory display name.
//
// Resolution order: curated nickname aliases, then a directory scan for any
// full display name occurring as a substring (first match in directory order
// wins — no scoring), then the regex fallback patterns. A fallback span is
// trimmed of leading stopwords and dropped when nothing remains or when a
// remaining word names a project, so "show me ccm issues" yields a project
// slot, not an assignee called "Me Ccm".
func (e *Extractor) resolveAssignee(normalized string, dir Directory) (string, bool) {
	for _, rule := range e.assigneeAliases {
		if strings.Contains(normalized, rule.phrase) {
			return rule.value, true
		}
	}

	for _, name := range dir.AssigneeNames {
		if name == "" {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(name)) {
			return name, true
		}
	}

	for _, re := range assigneePatterns {
		m := re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		span := e.trimStopwordPrefix(strings.TrimSpace(m[1]))
		if span == "" || e.hasProjectToken(span, dir.ProjectKeys) {
			continue
		}
		return titleCase(span), true
	}

	return "", false
}

// trimStopwordPrefix drops leading stopwords from a captured span, so
// "the marcus" reduces to "marcus" and an all-stopword span to nothing.
func (e *Extractor) trimStopwordPrefix(span string) string {
	words := strings.Fields(span)
	for len(words) > 0 && e.stopwords[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// hasProjectToken reports whether any span word names a project, via the
// alias table or the live key directory.
func (e *Extractor) hasProjectToken(span string, keys []string) bool {
	for _, w := range strings.Fields(span) {
		for _, rule := range e.projectAliases {
			if w == rule.phrase || strings.EqualFold(w, rule.value) {
				return true
			}
		}
		for _, key := range keys {
			if key != "" && strings.EqualFold(w, key) {
				return true
			}
		}
	}
	return false
}

// titleCase uppercases the first letter of each word. The fallback path has
// no canonical display name to return, so it reconstructs one from the span.
func titleCase(span string) string {
	words := strings.Fields(span)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
