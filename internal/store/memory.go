// Package store provides document-store implementations of the engine's
// transactional Load/CommitIfUnchanged contract.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/adidanco/scambodia/internal/engine"
)

// Memory is an in-process document store. Documents are kept as JSON so
// every Load hands out an isolated copy; a caller can never mutate the
// committed state without going through CommitIfUnchanged.
type Memory struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*memoryDoc
}

type memoryDoc struct {
	raw     []byte
	version int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[uuid.UUID]*memoryDoc)}
}

// Create persists a new document at version 1.
func (m *Memory) Create(ctx context.Context, g *engine.GameState) (int64, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return 0, fmt.Errorf("marshal game %s: %w", g.GameID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[g.GameID]; exists {
		return 0, fmt.Errorf("game %s already exists", g.GameID)
	}
	m.docs[g.GameID] = &memoryDoc{raw: raw, version: 1}
	return 1, nil
}

// Load returns an isolated copy of the document and its version.
func (m *Memory) Load(ctx context.Context, gameID uuid.UUID) (*engine.GameState, int64, error) {
	m.mu.RLock()
	doc, ok := m.docs[gameID]
	m.mu.RUnlock()
	if !ok {
		return nil, 0, fmt.Errorf("%w: game %s", engine.ErrNotFound, gameID)
	}
	var g engine.GameState
	if err := json.Unmarshal(doc.raw, &g); err != nil {
		return nil, 0, fmt.Errorf("unmarshal game %s: %w", gameID, err)
	}
	return &g, doc.version, nil
}

// CommitIfUnchanged writes g only when the stored version still equals
// expected.
func (m *Memory) CommitIfUnchanged(ctx context.Context, gameID uuid.UUID, expected int64, g *engine.GameState) (int64, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return 0, fmt.Errorf("marshal game %s: %w", gameID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[gameID]
	if !ok {
		return 0, fmt.Errorf("%w: game %s", engine.ErrNotFound, gameID)
	}
	if doc.version != expected {
		return 0, fmt.Errorf("%w: game %s at version %d, expected %d", engine.ErrVersionConflict, gameID, doc.version, expected)
	}
	doc.raw = raw
	doc.version++
	return doc.version, nil
}
