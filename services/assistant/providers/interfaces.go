// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package providers defines the provider-agnostic chat interface and
// factories for the LLM backends the summarizer can escalate to. The
// assistant is fully functional with no provider configured; everything in
// this package is optional polish.
//
// Thread Safety:
//
//	All interfaces in this package must be implemented as safe for
//	concurrent use.
package providers

import "context"

// Message is a single chat message.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ChatClient is the minimal chat interface the summarizer needs.
//
// Description:
//
//	Summarization is a single short completion: no tool calls, no
//	streaming. This minimal interface keeps adapters trivial for any
//	provider.
//
// Thread Safety: Implementations must be safe for concurrent use.
type ChatClient interface {
	// Chat sends messages and returns the assistant's response text.
	//
	// Inputs:
	//   - ctx: Context for cancellation and timeout.
	//   - messages: Conversation messages (system, user, assistant).
	//   - opts: Provider-agnostic chat options.
	//
	// Outputs:
	//   - string: The assistant's response text.
	//   - error: Non-nil on failure.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

// ChatOptions holds provider-agnostic options for a chat request.
type ChatOptions struct {
	// Temperature controls randomness (0.0-1.0). The zero value is an
	// explicit "most deterministic" setting, which is what summarization
	// wants anyway.
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int

	// Model overrides the model for this request. Empty uses the model the
	// adapter was constructed with.
	Model string
}
