// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(srv *httptest.Server) *Client {
	return NewClient(Config{BaseURL: srv.URL, Email: "bot@example.com", APIToken: "token"})
}

func TestSearchIssues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "bot@example.com" {
			t.Errorf("basic auth user = %q, ok=%v", user, ok)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.JQL != "project = CCM" {
			t.Errorf("jql = %q", req.JQL)
		}
		if req.MaxResults != 10 {
			t.Errorf("maxResults = %d, want 10", req.MaxResults)
		}
		_ = json.NewEncoder(w).Encode(SearchResult{
			Total: 42,
			Issues: []Issue{
				{Key: "CCM-1", Fields: IssueFields{Summary: "Login loop", Status: Status{Name: "In Progress"}}},
			},
		})
	}))
	defer srv.Close()

	got, err := testClient(srv).SearchIssues(context.Background(), "project = CCM", 10)
	if err != nil {
		t.Fatalf("SearchIssues returned error: %v", err)
	}
	if got.Total != 42 {
		t.Errorf("total = %d, want 42", got.Total)
	}
	if len(got.Issues) != 1 || got.Issues[0].Key != "CCM-1" {
		t.Errorf("issues = %+v", got.Issues)
	}
}

func TestCountIssuesUsesZeroPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.MaxResults != 0 {
			t.Errorf("maxResults = %d, want 0 for count", req.MaxResults)
		}
		if len(req.Fields) != 0 {
			t.Errorf("fields = %v, want none for count", req.Fields)
		}
		_ = json.NewEncoder(w).Encode(SearchResult{Total: 7})
	}))
	defer srv.Close()

	got, err := testClient(srv).CountIssues(context.Background(), "project = CCM AND issuetype = Bug")
	if err != nil {
		t.Fatalf("CountIssues returned error: %v", err)
	}
	if got != 7 {
		t.Errorf("count = %d, want 7", got)
	}
}

func TestSearchIssuesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages":["Field 'proj' does not exist"]}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv).SearchIssues(context.Background(), "proj = CCM", 10)
	var se *SearchError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SearchError", err)
	}
	if se.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", se.StatusCode)
	}
}

func TestListProjectKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/project" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]Project{
			{Key: "CCM", Name: "Customer Care"},
			{Key: "TI", Name: "Titan"},
		})
	}))
	defer srv.Close()

	got, err := testClient(srv).ListProjectKeys(context.Background())
	if err != nil {
		t.Fatalf("ListProjectKeys returned error: %v", err)
	}
	if len(got) != 2 || got[0] != "CCM" || got[1] != "TI" {
		t.Errorf("keys = %v", got)
	}
}

func TestListAssigneeNamesDropsInactive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("projectKeys"); got != "CCM,TI" {
			t.Errorf("projectKeys = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]User{
			{DisplayName: "Priya Nair", Active: true},
			{DisplayName: "Old Account", Active: false},
		})
	}))
	defer srv.Close()

	got, err := testClient(srv).ListAssigneeNames(context.Background(), []string{"CCM", "TI"})
	if err != nil {
		t.Fatalf("ListAssigneeNames returned error: %v", err)
	}
	if len(got) != 1 || got[0] != "Priya Nair" {
		t.Errorf("names = %v", got)
	}
}

func TestListAssigneeNamesNoProjects(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused", Email: "a", APIToken: "b"})
	got, err := c.ListAssigneeNames(context.Background(), nil)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if got != nil {
		t.Errorf("names = %v, want nil without projects", got)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("JIRA_BASE_URL", "https://example.atlassian.net")
	t.Setenv("JIRA_EMAIL", "bot@example.com")
	t.Setenv("JIRA_API_TOKEN", "secret")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv returned error: %v", err)
	}
	if cfg.BaseURL != "https://example.atlassian.net" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}

	t.Setenv("JIRA_API_TOKEN", "")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for missing token")
	}
}
