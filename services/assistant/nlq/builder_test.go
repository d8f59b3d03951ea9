// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import "testing"

func TestBuildJQLSubstitution(t *testing.T) {
	slots := SlotSet{
		SlotProject:        "CCM",
		SlotIssueType:      "Bug",
		SlotStatusCategory: "!= Done",
	}
	got, err := BuildJQL("list_open_bugs",
		"project = {project} AND issuetype = {issuetype} AND statusCategory {status_category}",
		slots)
	if err != nil {
		t.Fatalf("BuildJQL returned error: %v", err)
	}
	want := "project = CCM AND issuetype = Bug AND statusCategory != Done"
	if got != want {
		t.Errorf("jql = %q, want %q", got, want)
	}
}

func TestBuildJQLMissingSlot(t *testing.T) {
	_, err := BuildJQL("assignee_workload",
		`assignee = "{assignee}" AND statusCategory {status_category}`,
		SlotSet{SlotStatusCategory: "!= Done"})
	mse, ok := AsMissingSlot(err)
	if !ok {
		t.Fatalf("err = %v, want *MissingSlotError", err)
	}
	if mse.Slot != SlotAssignee {
		t.Errorf("missing slot = %q, want assignee", mse.Slot)
	}
	if mse.Intent != "assignee_workload" {
		t.Errorf("intent = %q, want assignee_workload", mse.Intent)
	}
}

func TestBuildJQLEscapesQuotes(t *testing.T) {
	got, err := BuildJQL("search_text",
		`text ~ "{text}"`,
		SlotSet{SlotText: `login "loop" bug`})
	if err != nil {
		t.Fatalf("BuildJQL returned error: %v", err)
	}
	want := `text ~ "login \"loop\" bug"`
	if got != want {
		t.Errorf("jql = %q, want %q", got, want)
	}
}

func TestBuildJQLAppendsOrder(t *testing.T) {
	got, err := BuildJQL("recent_issues",
		"project = {project}",
		SlotSet{SlotProject: "CCM", SlotOrder: "updated DESC"})
	if err != nil {
		t.Fatalf("BuildJQL returned error: %v", err)
	}
	want := "project = CCM ORDER BY updated DESC"
	if got != want {
		t.Errorf("jql = %q, want %q", got, want)
	}
}

func TestBuildJQLRespectsTemplateOrder(t *testing.T) {
	got, err := BuildJQL("recent_issues",
		"project = {project} ORDER BY created ASC",
		SlotSet{SlotProject: "CCM", SlotOrder: "updated DESC"})
	if err != nil {
		t.Fatalf("BuildJQL returned error: %v", err)
	}
	want := "project = CCM ORDER BY created ASC"
	if got != want {
		t.Errorf("jql = %q, want template ordering untouched: %q", got, want)
	}
}

func TestTemplatePlaceholders(t *testing.T) {
	got := TemplatePlaceholders("project = {project} AND assignee = {assignee} AND project = {project}")
	if len(got) != 2 || got[0] != SlotProject || got[1] != SlotAssignee {
		t.Errorf("placeholders = %v, want [project assignee]", got)
	}
}
