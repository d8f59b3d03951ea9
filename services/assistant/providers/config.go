// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package providers

import "os"

// Supported provider identifiers.
const (
	// ProviderNone disables LLM summarization; the deterministic gloss is
	// the final answer.
	ProviderNone = "none"

	// ProviderOpenAI uses the OpenAI chat completions API.
	ProviderOpenAI = "openai"

	// ProviderOllama uses a local Ollama server.
	ProviderOllama = "ollama"
)

// ValidProviders lists the accepted COPILOT_LLM_PROVIDER values.
var ValidProviders = []string{ProviderNone, ProviderOpenAI, ProviderOllama}

// Defaults applied when the corresponding env var is unset.
const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOllamaModel   = "llama3.1:8b"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// ProviderConfig selects and configures a chat provider.
type ProviderConfig struct {
	// Provider is one of ValidProviders. Empty means ProviderNone.
	Provider string

	// Model is the provider-specific model identifier.
	Model string

	// APIKey authenticates cloud providers. Unused by Ollama.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string
}

// ConfigFromEnv reads the provider selection from the environment.
//
// Description:
//
//	COPILOT_LLM_PROVIDER selects the provider ("none", "openai",
//	"ollama"); unset means none. COPILOT_LLM_MODEL overrides the model.
//	OPENAI_API_KEY and OPENAI_BASE_URL configure OpenAI; OLLAMA_HOST
//	configures Ollama.
func ConfigFromEnv() ProviderConfig {
	cfg := ProviderConfig{
		Provider: os.Getenv("COPILOT_LLM_PROVIDER"),
		Model:    os.Getenv("COPILOT_LLM_MODEL"),
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderNone
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultOpenAIBaseURL
		}
	case ProviderOllama:
		cfg.BaseURL = os.Getenv("OLLAMA_HOST")
		if cfg.Model == "" {
			cfg.Model = DefaultOllamaModel
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultOllamaBaseURL
		}
	}
	return cfg
}
