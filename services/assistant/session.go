// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assistant

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/AjithTao/jira-copilot/services/assistant/nlq"
	"github.com/AjithTao/jira-copilot/services/assistant/storage/badgerstore"
)

// SessionTTL is how long an idle conversation keeps its context.
const SessionTTL = 30 * time.Minute

// SessionContext is the conversational state carried between turns.
//
// Description:
//
//	Only the project carries over into later queries; a follow-up like
//	"how many are bugs?" inherits the project from the previous turn. The
//	full slot set of the last successful turn is kept for debugging and
//	future carry-over rules but is never spliced into new queries.
type SessionContext struct {
	// Project is the last project key a successful turn resolved.
	Project string `json:"project,omitempty"`

	// LastSlots is the final slot set of the last successful turn.
	LastSlots nlq.SlotSet `json:"last_slots,omitempty"`

	// LastIntent is the intent of the last successful turn.
	LastIntent string `json:"last_intent,omitempty"`

	// UpdatedAt is when the context was last committed.
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore persists per-session context between turns.
//
// Description:
//
//	Session loss is always acceptable: both implementations degrade to
//	"no context" rather than surfacing storage errors to the user.
//
// Thread Safety: Implementations must be safe for concurrent use.
type SessionStore interface {
	// Get returns the context for a session, ok=false when none exists.
	Get(sessionID string) (SessionContext, bool)

	// Put commits the context for a session. Called once per successful
	// turn, after the whole pipeline succeeded, so a failed turn never
	// pollutes the carried context.
	Put(sessionID string, sc SessionContext)
}

// =============================================================================
// In-Memory Sessions
// =============================================================================

// MemorySessionStore keeps sessions in process memory. The default when no
// data directory is configured; contexts die with the process.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionContext
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]SessionContext)}
}

// Get implements SessionStore.
func (m *MemorySessionStore) Get(sessionID string) (SessionContext, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.sessions[sessionID]
	if !ok || time.Since(sc.UpdatedAt) > SessionTTL {
		return SessionContext{}, false
	}
	return sc, true
}

// Put implements SessionStore.
func (m *MemorySessionStore) Put(sessionID string, sc SessionContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = sc
}

// =============================================================================
// Badger-Backed Sessions
// =============================================================================

// BadgerSessionStore persists sessions in a badgerstore so context survives
// restarts. Storage failures degrade to "no context" with a warning.
type BadgerSessionStore struct {
	store  *badgerstore.Store
	logger *slog.Logger
}

// NewBadgerSessionStore wraps an opened badgerstore.
func NewBadgerSessionStore(store *badgerstore.Store, logger *slog.Logger) *BadgerSessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerSessionStore{store: store, logger: logger}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// Get implements SessionStore.
func (b *BadgerSessionStore) Get(sessionID string) (SessionContext, bool) {
	raw, ok, err := b.store.Get(sessionKey(sessionID))
	if err != nil {
		b.logger.Warn("session read failed, continuing without context",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return SessionContext{}, false
	}
	if !ok {
		return SessionContext{}, false
	}

	var sc SessionContext
	if err := json.Unmarshal(raw, &sc); err != nil {
		b.logger.Warn("session decode failed, dropping stored context",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		_ = b.store.Delete(sessionKey(sessionID))
		return SessionContext{}, false
	}
	return sc, true
}

// Put implements SessionStore.
func (b *BadgerSessionStore) Put(sessionID string, sc SessionContext) {
	raw, err := json.Marshal(sc)
	if err != nil {
		b.logger.Warn("session encode failed, context not persisted",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return
	}
	if err := b.store.Set(sessionKey(sessionID), raw, SessionTTL); err != nil {
		b.logger.Warn("session write failed, context not persisted",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}
}
