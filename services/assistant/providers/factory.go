// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package providers

import (
	"fmt"
	"log/slog"
)

// NewChatClient creates a ChatClient for the given provider config.
//
// Inputs:
//
//	cfg - Provider selection and credentials.
//
// Outputs:
//
//	ChatClient - The adapter, nil when cfg selects ProviderNone.
//	error - Non-nil if the provider is unsupported or misconfigured.
func NewChatClient(cfg ProviderConfig) (ChatClient, error) {
	switch cfg.Provider {
	case ProviderNone, "":
		return nil, nil

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY required for OpenAI provider")
		}
		return NewOpenAIChatClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil

	case ProviderOllama:
		return NewOllamaChatClient(cfg.BaseURL, cfg.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %q (valid: %v)", cfg.Provider, ValidProviders)
	}
}

// ChatClientFromEnv builds a ChatClient from the environment.
//
// Description:
//
//	The summarizer treats the LLM as optional: a missing or broken
//	provider configuration logs a warning and returns ok=false rather
//	than failing startup.
//
// Outputs:
//
//	ChatClient - The adapter when a provider is configured and valid.
//	bool - False when no usable provider is configured.
func ChatClientFromEnv(logger *slog.Logger) (ChatClient, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := ConfigFromEnv()
	client, err := NewChatClient(cfg)
	if err != nil {
		logger.Warn("LLM provider misconfigured, summaries stay deterministic",
			slog.String("provider", cfg.Provider),
			slog.String("error", err.Error()))
		return nil, false
	}
	if client == nil {
		return nil, false
	}

	logger.Info("LLM summarization enabled",
		slog.String("provider", cfg.Provider),
		slog.String("model", cfg.Model))
	return client, true
}
