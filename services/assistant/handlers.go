// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assistant

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AjithTao/jira-copilot/services/assistant/jira"
)

// ChatRequest is the body of POST /v1/assistant/chat.
type ChatRequest struct {
	// SessionID identifies the conversation. Empty starts a new session;
	// the response returns the ID to send on the next turn.
	SessionID string `json:"session_id"`

	// Message is the user's question.
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the body of a successful chat turn.
type ChatResponse struct {
	TurnResult

	// SessionID echoes (or mints) the conversation identifier.
	SessionID string `json:"session_id"`
}

// Handlers holds the HTTP handlers for the assistant service.
type Handlers struct {
	service *Service
	logger  *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(service *Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, logger: logger}
}

// HandleChat processes one chat turn.
//
// Description:
//
//	POST /v1/assistant/chat. Clarification outcomes are 200s carrying
//	needs_clarification; only execution failures are error statuses. A
//	failed Jira query maps to 502 so callers can tell "Jira is down"
//	apart from "zero matches", which is a 200 with count 0.
func (h *Handlers) HandleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := h.service.ProcessTurn(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		var se *jira.SearchError
		if errors.As(err, &se) {
			h.logger.Error("jira query failed",
				slog.String("endpoint", se.Endpoint),
				slog.Int("status", se.StatusCode),
				slog.String("error", se.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Jira is not reachable right now. Try again in a moment."})
			return
		}
		h.logger.Error("turn failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{TurnResult: *result, SessionID: sessionID})
}

// HandleHealth reports liveness.
//
// GET /v1/assistant/health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady reports readiness: the corpus is loaded and the matcher is
// compiled. Jira reachability is deliberately not part of readiness; the
// service degrades per turn instead of flapping.
//
// GET /v1/assistant/ready
func (h *Handlers) HandleReady(c *gin.Context) {
	if h.service == nil || len(h.service.corpus.Intents) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "corpus not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"intents": len(h.service.corpus.Intents),
	})
}

// HandleCorpus dumps the loaded intent corpus for debugging.
//
// GET /v1/assistant/debug/corpus
func (h *Handlers) HandleCorpus(c *gin.Context) {
	type intentInfo struct {
		Name         string `json:"name"`
		ResponseType string `json:"response_type"`
		Paraphrases  int    `json:"paraphrases"`
		JQL          string `json:"jql"`
	}

	intents := make([]intentInfo, 0, len(h.service.corpus.Intents))
	for _, in := range h.service.corpus.Intents {
		intents = append(intents, intentInfo{
			Name:         in.Name,
			ResponseType: in.ResponseType,
			Paraphrases:  len(in.Paraphrases),
			JQL:          in.JQL,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"match_threshold": h.service.matcher.Threshold(),
		"intents":         intents,
	})
}
