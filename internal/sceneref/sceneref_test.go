// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sceneref

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	name string
	path string
}

func (n *fakeNode) Name() string { return n.name }
func (n *fakeNode) Path() string { return n.path }

type fakeScene struct {
	nodes map[string]Node
}

func newFakeScene(nodes ...*fakeNode) *fakeScene {
	s := &fakeScene{nodes: make(map[string]Node)}
	for _, n := range nodes {
		s.nodes[n.path] = n
	}
	return s
}

func (s *fakeScene) Find(path string) (Node, bool) {
	n, ok := s.nodes[path]
	return n, ok
}

func TestCreateAndResolveLive(t *testing.T) {
	cam := &fakeNode{name: "MainCamera", path: "Root/MainCamera"}
	scene := newFakeScene(cam)
	tr := NewTracker(scene)

	h := tr.Create(cam)
	require.False(t, h.IsZero())
	assert.Equal(t, "Root/MainCamera", h.Path)

	got, ok := tr.TryResolve(h)
	require.True(t, ok)
	assert.Same(t, cam, got.(*fakeNode))
}

func TestResolveByPathAfterReload(t *testing.T) {
	cam := &fakeNode{name: "MainCamera", path: "Root/MainCamera"}
	scene := newFakeScene(cam)
	tr := NewTracker(scene)

	// Simulate a handle restored from serialized configuration: the tracker
	// has no live cache entry for it.
	h := Handle{ID: "restored", Path: "Root/MainCamera"}

	got, ok := tr.TryResolve(h)
	require.True(t, ok)
	assert.Same(t, cam, got.(*fakeNode))
}

func TestResolveNeverGuesses(t *testing.T) {
	other := &fakeNode{name: "Other", path: "Root/Other"}
	scene := newFakeScene(other)
	tr := NewTracker(scene)

	h := Handle{ID: "gone", Path: "Root/Missing"}
	_, ok := tr.TryResolve(h)
	assert.False(t, ok)

	err := tr.Validate(h)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStaleCacheFallsBackToPathLookup(t *testing.T) {
	cam := &fakeNode{name: "MainCamera", path: "Root/MainCamera"}
	scene := newFakeScene(cam)
	tr := NewTracker(scene)
	h := tr.Create(cam)

	// Scene replaces the node object at the same path (reload).
	cam2 := &fakeNode{name: "MainCamera", path: "Root/MainCamera"}
	scene.nodes[cam2.path] = cam2

	got, ok := tr.TryResolve(h)
	require.True(t, ok)
	assert.Same(t, cam2, got.(*fakeNode))
}

func TestPromptFallback(t *testing.T) {
	replacement := &fakeNode{name: "Camera2", path: "Root/Camera2"}
	scene := newFakeScene(replacement)
	tr := NewTracker(scene)

	h := Handle{ID: "dead", Path: "Root/DeletedCamera"}

	// Without a prompt the handle stays unresolved.
	_, ok := tr.TryResolve(h)
	require.False(t, ok)

	prompted := 0
	tr.SetPrompt(func(got Handle) (Node, bool) {
		prompted++
		assert.Equal(t, "Root/DeletedCamera", got.Path)
		return replacement, true
	})

	got, ok := tr.TryResolve(h)
	require.True(t, ok)
	assert.Same(t, replacement, got.(*fakeNode))
	assert.Equal(t, 1, prompted)

	// The re-binding sticks: second resolve needs no prompt.
	_, ok = tr.TryResolve(h)
	require.True(t, ok)
	assert.Equal(t, 1, prompted)
}

func TestRefreshAllDropsDeadBindings(t *testing.T) {
	a := &fakeNode{name: "A", path: "Root/A"}
	b := &fakeNode{name: "B", path: "Root/B"}
	scene := newFakeScene(a, b)
	tr := NewTracker(scene)

	tr.Create(a)
	hb := tr.Create(b)

	delete(scene.nodes, "Root/B")

	assert.Equal(t, 1, tr.RefreshAll())
	_, ok := tr.TryResolve(hb)
	assert.False(t, ok)
}

func TestZeroHandle(t *testing.T) {
	tr := NewTracker(newFakeScene())
	_, ok := tr.TryResolve(Handle{})
	assert.False(t, ok)
}
