// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var jiraTracer = otel.Tracer("jira-copilot/assistant/jira")

var apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "copilot",
	Subsystem: "jira",
	Name:      "requests_total",
	Help:      "Jira API requests by endpoint and outcome",
}, []string{"endpoint", "outcome"})

// requestTimeout bounds a single Jira API call.
const requestTimeout = 30 * time.Second

// searchFields are the issue fields fetched for rendering. Anything more is
// wasted payload.
var searchFields = []string{"summary", "status", "assignee", "priority", "issuetype", "updated"}

// SearchError reports a failed Jira API call. Callers must distinguish it
// from an empty result set: zero matches is an answer, a SearchError is not.
type SearchError struct {
	// Endpoint is the logical API operation that failed.
	Endpoint string

	// StatusCode is the HTTP status, 0 for transport failures.
	StatusCode int

	// Body is the (truncated) error body, when one was returned.
	Body string

	// Err is the underlying transport error, when there was one.
	Err error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jira %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("jira %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Config holds Jira connection settings.
type Config struct {
	// BaseURL is the site URL, e.g. "https://example.atlassian.net".
	BaseURL string

	// Email and APIToken form the basic-auth pair for Jira Cloud.
	Email    string
	APIToken string
}

// ConfigFromEnv reads JIRA_BASE_URL, JIRA_EMAIL, and JIRA_API_TOKEN.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:  os.Getenv("JIRA_BASE_URL"),
		Email:    os.Getenv("JIRA_EMAIL"),
		APIToken: os.Getenv("JIRA_API_TOKEN"),
	}
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("JIRA_BASE_URL not set")
	}
	if cfg.Email == "" || cfg.APIToken == "" {
		return Config{}, fmt.Errorf("JIRA_EMAIL and JIRA_API_TOKEN must both be set")
	}
	return cfg, nil
}

// Client is a read-only Jira Cloud API client.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

// NewClient creates a Client from the given config.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		email:   cfg.Email,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// searchRequest is the wire format for POST /rest/api/2/search.
type searchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
}

// SearchIssues runs a JQL search.
//
// Description:
//
//	Returns up to maxResults issue bodies plus the full match total. The
//	total always reflects the whole result set, so callers can render
//	"showing 10 of 134" without a second call.
//
// Inputs:
//
//	ctx - Context for cancellation/timeout. Must not be nil.
//	jql - The finished JQL query.
//	maxResults - Page size. 0 fetches the total only.
//
// Outputs:
//
//	*SearchResult - Total and issue page.
//	error - *SearchError on API or transport failure.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) (*SearchResult, error) {
	ctx, span := jiraTracer.Start(ctx, "jira.SearchIssues")
	defer span.End()
	span.SetAttributes(
		attribute.String("jql", jql),
		attribute.Int("max_results", maxResults),
	)

	fields := searchFields
	if maxResults == 0 {
		fields = nil
	}
	body, err := json.Marshal(searchRequest{JQL: jql, MaxResults: maxResults, Fields: fields})
	if err != nil {
		return nil, &SearchError{Endpoint: "search", Err: err}
	}

	var result SearchResult
	if err := c.doJSON(ctx, http.MethodPost, "/rest/api/2/search", bytes.NewReader(body), "search", &result); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("total", result.Total))
	return &result, nil
}

// CountIssues returns the number of issues matching a JQL query.
//
// A zero-page search is the cheapest way to count: no issue bodies cross the
// wire, only the total.
func (c *Client) CountIssues(ctx context.Context, jql string) (int, error) {
	result, err := c.SearchIssues(ctx, jql, 0)
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

// ListProjectKeys returns the keys of all projects visible to the account.
func (c *Client) ListProjectKeys(ctx context.Context) ([]string, error) {
	ctx, span := jiraTracer.Start(ctx, "jira.ListProjectKeys")
	defer span.End()

	var projects []Project
	if err := c.doJSON(ctx, http.MethodGet, "/rest/api/2/project", nil, "projects", &projects); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	keys := make([]string, 0, len(projects))
	for _, p := range projects {
		if p.Key != "" {
			keys = append(keys, p.Key)
		}
	}
	span.SetAttributes(attribute.Int("projects", len(keys)))
	return keys, nil
}

// ListAssigneeNames returns the display names of users assignable in the
// given projects, in API order. Inactive accounts are dropped.
func (c *Client) ListAssigneeNames(ctx context.Context, projectKeys []string) ([]string, error) {
	ctx, span := jiraTracer.Start(ctx, "jira.ListAssigneeNames")
	defer span.End()

	if len(projectKeys) == 0 {
		return nil, nil
	}

	path := "/rest/api/2/user/assignable/multiProjectSearch?maxResults=200&projectKeys=" +
		url.QueryEscape(strings.Join(projectKeys, ","))

	var users []User
	if err := c.doJSON(ctx, http.MethodGet, path, nil, "assignees", &users); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	names := make([]string, 0, len(users))
	for _, u := range users {
		if u.Active && u.DisplayName != "" {
			names = append(names, u.DisplayName)
		}
	}
	span.SetAttributes(attribute.Int("assignees", len(names)))
	return names, nil
}

// doJSON runs one API call and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		apiRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &SearchError{Endpoint: endpoint, Err: err}
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		apiRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &SearchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		apiRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &SearchError{Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		apiRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &SearchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		apiRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &SearchError{Endpoint: endpoint, Err: fmt.Errorf("parsing response: %w", err)}
	}

	apiRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
