// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command copilotctl is a small CLI for talking to a running copilot server.
//
// Usage:
//
//	copilotctl ask "show me open bugs in CCM"
//	copilotctl ask --session conv-7 "how many are critical?"
//	copilotctl corpus
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	sessionID string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "copilotctl",
		Short: "CLI for the Jira copilot server",
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Copilot server URL")

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the copilot a question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	askCmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversational context")

	corpusCmd := &cobra.Command{
		Use:   "corpus",
		Short: "Show the loaded intent corpus",
		Args:  cobra.NoArgs,
		RunE:  runCorpus,
	}

	rootCmd.AddCommand(askCmd, corpusCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

func runAsk(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(map[string]string{
		"session_id": sessionID,
		"message":    strings.Join(args, " "),
	})
	if err != nil {
		return err
	}

	resp, err := httpClient().Post(
		strings.TrimRight(serverURL, "/")+"/v1/assistant/chat",
		"application/json",
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("reaching server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var out struct {
		Answer             string `json:"answer"`
		Intent             string `json:"intent"`
		JQL                string `json:"jql"`
		Count              int    `json:"count"`
		SessionID          string `json:"session_id"`
		NeedsClarification bool   `json:"needs_clarification"`
		Error              string `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, out.Error)
	}

	fmt.Println(out.Answer)
	if out.JQL != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nintent: %s\njql:    %s\nsession: %s\n", out.Intent, out.JQL, out.SessionID)
	} else if out.NeedsClarification {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nsession: %s\n", out.SessionID)
	}
	return nil
}

func runCorpus(cmd *cobra.Command, _ []string) error {
	resp, err := httpClient().Get(strings.TrimRight(serverURL, "/") + "/v1/assistant/debug/corpus")
	if err != nil {
		return fmt.Errorf("reaching server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var out struct {
		MatchThreshold float64 `json:"match_threshold"`
		Intents        []struct {
			Name         string `json:"name"`
			ResponseType string `json:"response_type"`
			Paraphrases  int    `json:"paraphrases"`
			JQL          string `json:"jql"`
		} `json:"intents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Printf("match threshold: %.2f\n\n", out.MatchThreshold)
	for _, in := range out.Intents {
		fmt.Printf("%-24s %-8s %2d paraphrases  %s\n", in.Name, in.ResponseType, in.Paraphrases, in.JQL)
	}
	return nil
}
