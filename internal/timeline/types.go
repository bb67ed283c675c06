// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package timeline models the playback collaborator: timed sequences of
// tracks and clips, and the controllers that evaluate them over time.
package timeline

import (
	"github.com/ManuGH/multirec/internal/sceneref"
)

// TrackKind distinguishes control tracks (driving child sequences) from
// capture tracks (driving a capture backend).
type TrackKind string

const (
	TrackControl TrackKind = "control"
	TrackCapture TrackKind = "capture"
)

// PlayState is the coarse controller lifecycle.
type PlayState string

const (
	StatePlaying PlayState = "PLAYING"
	StatePaused  PlayState = "PAUSED"
	StateStopped PlayState = "STOPPED"
)

// CaptureSettings is the opaque per-stream settings object a capture backend
// consumes. The engine only ever reads the enable flag and output path.
type CaptureSettings interface {
	Kind() string
	Enabled() bool
	OutputPath() string
}

// Clip is one placed span on a track. Times are in seconds.
type Clip struct {
	Name     string  `json:"name"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`

	// Binding addresses the child controller of a control clip.
	Binding sceneref.Handle `json:"binding,omitempty"`
	// Child is the resolved controller for in-process evaluation.
	// Not serialized; re-resolved from Binding after reload.
	Child Controller `json:"-"`

	// Capture carries the backend settings of a capture clip.
	Capture CaptureSettings `json:"-"`
}

// End returns the exclusive end time of the clip.
func (c Clip) End() float64 {
	return c.Start + c.Duration
}

// Covers reports whether t falls inside the clip span.
func (c Clip) Covers(t float64) bool {
	return t >= c.Start && t < c.End()
}

// Track is an ordered set of clips of one kind.
type Track struct {
	Kind  TrackKind `json:"kind"`
	Name  string    `json:"name"`
	Clips []Clip    `json:"clips"`
}

// AddClip appends a clip. Callers keep clips ordered by start time.
func (t *Track) AddClip(c Clip) {
	t.Clips = append(t.Clips, c)
}

// Sequence is a timed composition of tracks evaluated at a single rate.
type Sequence struct {
	Name      string   `json:"name"`
	FrameRate float64  `json:"frameRate"`
	Tracks    []*Track `json:"tracks"`
}

// NewSequence creates an empty sequence with the given evaluation rate.
func NewSequence(name string, frameRate float64) *Sequence {
	return &Sequence{Name: name, FrameRate: frameRate}
}

// AddTrack appends an empty track and returns it.
func (s *Sequence) AddTrack(kind TrackKind, name string) *Track {
	t := &Track{Kind: kind, Name: name}
	s.Tracks = append(s.Tracks, t)
	return t
}

// Duration is the latest clip end across all tracks.
func (s *Sequence) Duration() float64 {
	var d float64
	for _, t := range s.Tracks {
		for _, c := range t.Clips {
			if end := c.End(); end > d {
				d = end
			}
		}
	}
	return d
}

// Controller evaluates a sequence over time.
type Controller interface {
	Time() float64
	State() PlayState
	Play()
	Stop()
	Advance(dt float64)
	Evaluate(t float64)
	Sequence() *Sequence
}
