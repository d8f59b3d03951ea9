// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package jira is a thin read-only client for the Jira Cloud REST API:
// issue search, counting, and the project/assignee directories the
// extractor disambiguates against.
package jira

// Issue is one search hit. Only the fields the assistant renders are mapped.
type Issue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields mirrors the nested Jira field layout.
type IssueFields struct {
	Summary   string     `json:"summary"`
	Status    Status     `json:"status"`
	Assignee  *User      `json:"assignee"`
	Priority  *Priority  `json:"priority"`
	IssueType *IssueType `json:"issuetype"`
	Updated   string     `json:"updated"`
}

// Status is an issue's workflow status.
type Status struct {
	Name           string         `json:"name"`
	StatusCategory StatusCategory `json:"statusCategory"`
}

// StatusCategory is the coarse grouping Jira maintains over statuses.
type StatusCategory struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// User is the subset of a Jira user the assistant needs.
type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Active      bool   `json:"active"`
}

// Priority is an issue priority.
type Priority struct {
	Name string `json:"name"`
}

// IssueType is an issue type.
type IssueType struct {
	Name string `json:"name"`
}

// Project is one entry from the project directory.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// SearchResult is the answer to a JQL search.
type SearchResult struct {
	// Total is the full match count, independent of how many issue bodies
	// were returned.
	Total int `json:"total"`

	// Issues are the returned page of matches. Empty for count-only
	// searches.
	Issues []Issue `json:"issues"`
}
