// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ollamaTimeout is generous because a cold model may need to load first.
const ollamaTimeout = 120 * time.Second

// OllamaChatClient talks to a local Ollama server's /api/chat endpoint.
//
// Thread Safety: Safe for concurrent use.
type OllamaChatClient struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewOllamaChatClient creates a client for a local Ollama server.
//
// Inputs:
//
//	baseURL - Server URL. Empty uses DefaultOllamaBaseURL.
//	model - Default model. Empty uses DefaultOllamaModel.
func NewOllamaChatClient(baseURL, model string) *OllamaChatClient {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: ollamaTimeout},
	}
}

// ollamaChatRequest is the wire format for POST /api/chat.
type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []Message         `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  ollamaChatOptions `json:"options"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

// Chat implements ChatClient.
func (c *OllamaChatClient) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: ollamaChatOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("OllamaChatClient.Chat: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("OllamaChatClient.Chat: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("OllamaChatClient.Chat: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("OllamaChatClient.Chat: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OllamaChatClient.Chat: status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("OllamaChatClient.Chat: parsing response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("OllamaChatClient.Chat: server error: %s", parsed.Error)
	}
	return parsed.Message.Content, nil
}
