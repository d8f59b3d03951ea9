// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func testDirectory() Directory {
	return Directory{
		ProjectKeys:   []string{"CCM", "TI", "GTMS"},
		AssigneeNames: []string{"Ajith Kumar", "Priya Nair", "Saiteja Rao"},
	}
}

func newTestExtractor() *Extractor {
	return NewExtractor(DefaultExtractorConfig(), slog.Default())
}

func TestExtractCombinedSlots(t *testing.T) {
	e := newTestExtractor()
	slots := e.Extract(Normalize("Show me high priority bugs in CCM"), testDirectory())

	if got := slots[SlotProject]; got != "CCM" {
		t.Errorf("project = %q, want CCM", got)
	}
	if got := slots[SlotPriority]; got != "High" {
		t.Errorf("priority = %q, want High", got)
	}
	if got := slots[SlotIssueType]; got != "Bug" {
		t.Errorf("issuetype = %q, want Bug", got)
	}
}

func TestExtractProjectAliasBeatsDirectory(t *testing.T) {
	e := newTestExtractor()
	slots := e.Extract(Normalize("open issues in customer care"), testDirectory())
	if got := slots[SlotProject]; got != "CCM" {
		t.Errorf("project = %q, want CCM via alias", got)
	}
}

func TestExtractProjectRequiresWholeWord(t *testing.T) {
	e := NewExtractor(ExtractorConfig{}, nil)
	dir := Directory{ProjectKeys: []string{"TI"}}

	// "ti" occurs inside "tickets" but not as a standalone token.
	slots := e.Extract(Normalize("show me all tickets"), dir)
	if slots.Has(SlotProject) {
		t.Errorf("project = %q, want absent", slots[SlotProject])
	}

	slots = e.Extract(Normalize("bugs in TI please"), dir)
	if got := slots[SlotProject]; got != "TI" {
		t.Errorf("project = %q, want TI", got)
	}
}

func TestExtractAssigneeFromDirectory(t *testing.T) {
	e := newTestExtractor()
	slots := e.Extract(Normalize("what is Priya Nair working on"), testDirectory())
	if got := slots[SlotAssignee]; got != "Priya Nair" {
		t.Errorf("assignee = %q, want Priya Nair", got)
	}
}

func TestExtractAssigneeRegexFallback(t *testing.T) {
	e := newTestExtractor()
	slots := e.Extract(Normalize("issues assigned to marcus webb"), Directory{})
	if got := slots[SlotAssignee]; got != "Marcus Webb" {
		t.Errorf("assignee = %q, want Marcus Webb", got)
	}
}

func TestExtractAssigneeStopwordSpanRejected(t *testing.T) {
	e := newTestExtractor()
	// "all open" would be captured by the "<name> issues" pattern but is
	// pure stopwords, so the slot must stay absent.
	slots := e.Extract(Normalize("show me all open issues"), Directory{})
	if slots.Has(SlotAssignee) {
		t.Errorf("assignee = %q, want absent", slots[SlotAssignee])
	}
}

func TestExtractProjectWordNotAssignee(t *testing.T) {
	e := newTestExtractor()
	// "me ccm" lands in the "<name> issues" capture; stripping the leading
	// stopword leaves a project reference, which must not become a person.
	slots := e.Extract(Normalize("show me CCM issues"), testDirectory())
	if got := slots[SlotProject]; got != "CCM" {
		t.Errorf("project = %q, want CCM", got)
	}
	if slots.Has(SlotAssignee) {
		t.Errorf("assignee = %q, want absent", slots[SlotAssignee])
	}
}

func TestExtractAssigneeLeadingStopwordStripped(t *testing.T) {
	e := newTestExtractor()
	slots := e.Extract(Normalize("issues created by the marcus"), Directory{})
	if got := slots[SlotAssignee]; got != "Marcus" {
		t.Errorf("assignee = %q, want Marcus", got)
	}
}

func TestExtractDateAndSprint(t *testing.T) {
	e := newTestExtractor()
	cases := []struct {
		query string
		slot  Slot
		want  string
	}{
		{"bugs created last week", SlotDateRange, "-1w"},
		{"what changed today", SlotDateRange, "-1d"},
		{"issues from last month", SlotDateRange, "-30d"},
		{"delivered this month", SlotDateRange, "startOfMonth()"},
		{"current sprint status", SlotSprint, "openSprints()"},
		{"what is in the next sprint", SlotSprint, "futureSprints()"},
		{"what did we finish last sprint", SlotSprint, "closedSprints()"},
	}
	for _, tc := range cases {
		slots := e.Extract(Normalize(tc.query), Directory{})
		if got := slots[tc.slot]; got != tc.want {
			t.Errorf("Extract(%q)[%s] = %q, want %q", tc.query, tc.slot, got, tc.want)
		}
	}
}

func TestExtractPriorityOrdering(t *testing.T) {
	e := newTestExtractor()
	cases := []struct {
		query string
		want  string
	}{
		{"highest priority issues", "Highest"},
		{"high priority issues", "High"},
		{"critical bugs", "Highest"},
		{"lowest priority items", "Lowest"},
		{"low priority items", "Low"},
	}
	for _, tc := range cases {
		slots := e.Extract(Normalize(tc.query), Directory{})
		if got := slots[SlotPriority]; got != tc.want {
			t.Errorf("Extract(%q) priority = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestExtractStatusCategory(t *testing.T) {
	e := newTestExtractor()

	slots := e.Extract(Normalize("open issues in CCM"), testDirectory())
	if got := slots[SlotStatusCategory]; got != "!= Done" {
		t.Errorf("status_category = %q, want != Done", got)
	}

	slots = e.Extract(Normalize("what did we finish, completed work"), Directory{})
	if got := slots[SlotStatusCategory]; got != "= Done" {
		t.Errorf("status_category = %q, want = Done", got)
	}
}

func TestExtractEpicKeySuppressesEpicType(t *testing.T) {
	e := newTestExtractor()
	slots := e.Extract(Normalize("issues in epic CCM-41"), testDirectory())
	if got := slots[SlotEpic]; got != "CCM-41" {
		t.Errorf("epic = %q, want CCM-41", got)
	}
	if slots.Has(SlotIssueType) {
		t.Errorf("issuetype = %q, want absent when an epic key is named", slots[SlotIssueType])
	}
}

func TestExtractEmptyQuery(t *testing.T) {
	e := newTestExtractor()
	slots := e.Extract("", testDirectory())
	if slots == nil || len(slots) != 0 {
		t.Errorf("Extract(\"\") = %v, want empty non-nil set", slots)
	}
}

type fakeProvider struct {
	keys    []string
	names   []string
	keysErr error
}

func (f *fakeProvider) ProjectKeys(context.Context) ([]string, error) {
	return f.keys, f.keysErr
}

func (f *fakeProvider) AssigneeNames(context.Context) ([]string, error) {
	return f.names, nil
}

func TestSnapshotDirectoryDegrades(t *testing.T) {
	p := &fakeProvider{
		keys:    []string{"CCM"},
		names:   []string{"Priya Nair"},
		keysErr: errors.New("jira down"),
	}
	dir := SnapshotDirectory(context.Background(), p, nil)
	if len(dir.ProjectKeys) != 0 {
		t.Errorf("ProjectKeys = %v, want empty on lookup failure", dir.ProjectKeys)
	}
	if len(dir.AssigneeNames) != 1 || dir.AssigneeNames[0] != "Priya Nair" {
		t.Errorf("AssigneeNames = %v, want surviving side intact", dir.AssigneeNames)
	}
}
