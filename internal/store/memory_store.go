// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/ManuGH/multirec/internal/config"
)

// MemoryStore keeps configurations in memory, serialized per entry so callers
// never share mutable state with the store. Used in tests and for ephemeral
// sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, cfg *config.RecordingConfiguration) error {
	if cfg.ID == "" {
		return fmt.Errorf("save: configuration has no ID")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("save: encode configuration: %w", err)
	}
	s.mu.Lock()
	s.data[cfg.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*config.RecordingConfiguration, error) {
	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("load %q: %w", id, ErrNotFound)
	}
	var cfg config.RecordingConfiguration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("load %q: decode: %w", id, err)
	}
	return &cfg, nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ ConfigStore = (*MemoryStore)(nil)
