// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sceneref provides serializable handles to live scene nodes.
// Live references do not survive a serialization round trip; handles do,
// and the Tracker re-binds them on demand.
package sceneref

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ManuGH/multirec/internal/log"
)

// ErrNotFound is returned when a handle cannot be bound to a live node.
// Resolution never substitutes a guessed match.
var ErrNotFound = errors.New("scene node not found")

// Node is a live scene object addressable by hierarchy path.
type Node interface {
	Name() string
	Path() string
}

// Scene looks up live nodes by hierarchy path.
type Scene interface {
	Find(path string) (Node, bool)
}

// Handle is the serializable stand-in for a live node reference.
type Handle struct {
	ID   string `json:"id" yaml:"id"`
	Path string `json:"path" yaml:"path"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// IsZero reports whether the handle references nothing.
func (h Handle) IsZero() bool {
	return h.ID == "" && h.Path == ""
}

// PromptFunc surfaces an interactive replacement request for a handle whose
// node is gone. Returning ok=false leaves the handle unresolved.
type PromptFunc func(Handle) (Node, bool)

// Tracker binds handles to live nodes. Resolution order: cached live node
// while still owned by the scene, then path lookup, then the registered
// prompt. An unresolvable handle yields ErrNotFound.
type Tracker struct {
	mu     sync.Mutex
	scene  Scene
	live   map[string]Node
	prompt PromptFunc
}

// NewTracker creates a tracker over the given scene.
func NewTracker(scene Scene) *Tracker {
	return &Tracker{
		scene: scene,
		live:  make(map[string]Node),
	}
}

// SetPrompt registers the interactive fallback. Pass nil to disable it.
func (t *Tracker) SetPrompt(fn PromptFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prompt = fn
}

// Create issues a handle for a live node and caches the binding.
func (t *Tracker) Create(node Node) Handle {
	h := Handle{
		ID:   uuid.New().String(),
		Path: node.Path(),
		Name: node.Name(),
	}
	t.mu.Lock()
	t.live[h.ID] = node
	t.mu.Unlock()
	return h
}

// TryResolve returns the live node for a handle, or false when the handle
// cannot be bound. A wrong node is never returned.
func (t *Tracker) TryResolve(h Handle) (Node, bool) {
	if h.IsZero() {
		return nil, false
	}

	t.mu.Lock()
	cached := t.live[h.ID]
	prompt := t.prompt
	t.mu.Unlock()

	// Cached binding counts only while the scene still owns that exact node.
	if cached != nil {
		if cur, ok := t.scene.Find(cached.Path()); ok && cur == cached {
			return cached, true
		}
	}

	if node, ok := t.scene.Find(h.Path); ok {
		t.rebind(h, node)
		return node, true
	}

	if prompt != nil {
		if node, ok := prompt(h); ok && node != nil {
			logger := log.WithComponent("sceneref")
			logger.Warn().
				Str(log.FieldHandle, h.ID).
				Str("old_path", h.Path).
				Str("new_path", node.Path()).
				Msg("reference re-bound via replacement prompt")
			t.rebind(h, node)
			return node, true
		}
	}

	return nil, false
}

// Validate returns ErrNotFound (wrapped with the handle path) when the handle
// cannot be bound.
func (t *Tracker) Validate(h Handle) error {
	if _, ok := t.TryResolve(h); !ok {
		return fmt.Errorf("handle %q (%s): %w", h.Path, h.ID, ErrNotFound)
	}
	return nil
}

// RefreshAll drops cached bindings whose node the scene no longer owns and
// returns the number of dropped entries.
func (t *Tracker) RefreshAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	dropped := 0
	for id, node := range t.live {
		cur, ok := t.scene.Find(node.Path())
		if !ok || cur != node {
			delete(t.live, id)
			dropped++
		}
	}
	return dropped
}

func (t *Tracker) rebind(h Handle, node Node) {
	t.mu.Lock()
	t.live[h.ID] = node
	t.mu.Unlock()
}
