// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import (
	"strings"
	"testing"
)

func TestApplyDefaultsFillsAbsentSlots(t *testing.T) {
	out := ApplyDefaults("list_open_bugs", SlotSet{SlotProject: "CCM"})

	if got := out[SlotStatusCategory]; got != "!= Done" {
		t.Errorf("status_category = %q, want != Done", got)
	}
	if got := out[SlotIssueType]; got != "Bug" {
		t.Errorf("issuetype = %q, want Bug", got)
	}
	if got := out[SlotProject]; got != "CCM" {
		t.Errorf("project = %q, want CCM preserved", got)
	}
}

func TestApplyDefaultsNeverOverridesExtracted(t *testing.T) {
	in := SlotSet{SlotIssueType: "Story", SlotStatusCategory: "= Done"}
	out := ApplyDefaults("list_open_bugs", in)

	if got := out[SlotIssueType]; got != "Story" {
		t.Errorf("issuetype = %q, want extracted Story to win over default Bug", got)
	}
	if got := out[SlotStatusCategory]; got != "= Done" {
		t.Errorf("status_category = %q, want extracted value to win", got)
	}
}

func TestApplyDefaultsDoesNotMutateInput(t *testing.T) {
	in := SlotSet{SlotProject: "CCM"}
	_ = ApplyDefaults("list_open_bugs", in)
	if len(in) != 1 {
		t.Errorf("input set mutated: %v", in)
	}
}

func TestApplyDefaultsNoMatchingKeyword(t *testing.T) {
	out := ApplyDefaults("count_issues_for_assignee", SlotSet{})
	if len(out) != 0 {
		t.Errorf("defaults applied for unrelated intent: %v", out)
	}
}

func TestApplyDefaultsHighPriorityIntent(t *testing.T) {
	// Paraphrases like "what needs attention first" carry no priority word,
	// so the intent name has to supply the value its template needs.
	out := ApplyDefaults("list_high_priority", SlotSet{SlotProject: "CCM"})
	if got := out[SlotPriority]; got != "High" {
		t.Errorf("priority = %q, want High", got)
	}

	jql, err := BuildJQL("list_high_priority",
		"project = {project} AND priority = {priority} AND statusCategory != Done ORDER BY updated DESC", out)
	if err != nil {
		t.Fatalf("BuildJQL failed after defaulting: %v", err)
	}
	if !strings.Contains(jql, "priority = High") {
		t.Errorf("jql = %q, want priority = High", jql)
	}
}

func TestApplyDefaultsHighPriorityKeepsExtracted(t *testing.T) {
	out := ApplyDefaults("list_high_priority", SlotSet{SlotPriority: "Highest"})
	if got := out[SlotPriority]; got != "Highest" {
		t.Errorf("priority = %q, want extracted Highest to win over default", got)
	}
}

func TestApplyDefaultsSprintIntent(t *testing.T) {
	out := ApplyDefaults("sprint_status", nil)
	if got := out[SlotSprint]; got != "openSprints()" {
		t.Errorf("sprint = %q, want openSprints()", got)
	}
}
