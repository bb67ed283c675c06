// SPDX-License-Identifier: MIT

// Package config holds the recording configuration model: global defaults,
// the ordered timeline list and their capture streams.
package config

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ManuGH/multirec/internal/recorder"
	"github.com/ManuGH/multirec/internal/sceneref"
	"github.com/ManuGH/multirec/internal/validate"
)

// RecordingConfiguration is the root of one recording run description.
// Global frame rate and resolution apply to every stream unless the stream
// overrides them.
type RecordingConfiguration struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	SceneName  string  `json:"sceneName" yaml:"sceneName"`
	FrameRate  float64 `json:"frameRate" yaml:"frameRate"`
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	OutputPath string  `json:"outputPath" yaml:"outputPath"`
	Take       int     `json:"take" yaml:"take"`

	Timelines []TimelineConfig `json:"timelines" yaml:"timelines"`
}

// TimelineConfig references one source playback controller and the capture
// streams recording while it plays.
type TimelineConfig struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Enabled   bool            `json:"enabled" yaml:"enabled"`
	Take      int             `json:"take" yaml:"take"`
	Reference sceneref.Handle `json:"reference" yaml:"reference"`

	// Duration is the authored source length in seconds. Headless runs use
	// it to synthesize in-process controllers; inside a host it is ignored
	// in favor of the referenced controller's own sequence.
	Duration float64 `json:"duration,omitempty" yaml:"duration,omitempty"`

	Recorders recorder.SettingsList `json:"recorders" yaml:"recorders"`
}

// EnabledRecorders returns the enabled streams in configuration order.
func (t TimelineConfig) EnabledRecorders() []recorder.Settings {
	var out []recorder.Settings
	for _, r := range t.Recorders {
		if r.Base().Enabled {
			out = append(out, r)
		}
	}
	return out
}

// EnabledTimelines returns the enabled timelines in configuration order.
func (c *RecordingConfiguration) EnabledTimelines() []TimelineConfig {
	var out []TimelineConfig
	for _, t := range c.Timelines {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// EnabledStreamCount counts enabled streams across enabled timelines.
func (c *RecordingConfiguration) EnabledStreamCount() int {
	n := 0
	for _, t := range c.EnabledTimelines() {
		n += len(t.EnabledRecorders())
	}
	return n
}

// ValidateStructure runs the structural checks that gate a run: frame rate,
// resolution, output path and at least one enabled timeline.
func (c *RecordingConfiguration) ValidateStructure() error {
	v := validate.New()
	v.FrameRate("FrameRate", c.FrameRate)
	v.Resolution("Resolution", c.Width, c.Height)
	v.NotEmpty("OutputPath", c.OutputPath)
	v.NonNegative("Take", c.Take)

	if len(c.EnabledTimelines()) == 0 {
		v.AddError("Timelines", "configuration has no enabled timeline", nil)
	}
	for i, t := range c.Timelines {
		if t.Enabled && t.Reference.IsZero() {
			v.AddError(timelineField(i, t, "Reference"),
				"enabled timeline has no playback controller reference", nil)
		}
	}
	return v.Err()
}

func timelineField(i int, t TimelineConfig, name string) string {
	id := t.Name
	if id == "" {
		id = t.ID
	}
	if id == "" {
		return fmt.Sprintf("Timelines[%d].%s", i, name)
	}
	return fmt.Sprintf("Timelines[%s].%s", id, name)
}

// Builder assembles a RecordingConfiguration with generated IDs and
// engine defaults.
type Builder struct {
	cfg RecordingConfiguration
}

// NewBuilder starts a configuration with engine defaults.
func NewBuilder(name string) *Builder {
	return &Builder{cfg: RecordingConfiguration{
		ID:        uuid.New().String(),
		Name:      name,
		FrameRate: 30,
		Width:     1920,
		Height:    1080,
		Take:      1,
	}}
}

// FrameRate sets the global evaluation rate.
func (b *Builder) FrameRate(fps float64) *Builder {
	b.cfg.FrameRate = fps
	return b
}

// Resolution sets the global output resolution.
func (b *Builder) Resolution(w, h int) *Builder {
	b.cfg.Width = w
	b.cfg.Height = h
	return b
}

// OutputPath sets the base output directory.
func (b *Builder) OutputPath(path string) *Builder {
	b.cfg.OutputPath = path
	return b
}

// Scene sets the scene name used by the <Scene> token.
func (b *Builder) Scene(name string) *Builder {
	b.cfg.SceneName = name
	return b
}

// Take sets the global take counter.
func (b *Builder) Take(n int) *Builder {
	b.cfg.Take = n
	return b
}

// Timeline appends a timeline referencing the given controller handle and
// returns the builder for chaining. Streams are attached to the most
// recently added timeline via Recorder.
func (b *Builder) Timeline(name string, ref sceneref.Handle) *Builder {
	b.cfg.Timelines = append(b.cfg.Timelines, TimelineConfig{
		ID:        uuid.New().String(),
		Name:      name,
		Enabled:   true,
		Take:      1,
		Reference: ref,
	})
	return b
}

// Duration sets the authored source length of the last added timeline.
// Calling it before any Timeline is a programming error and panics.
func (b *Builder) Duration(seconds float64) *Builder {
	if len(b.cfg.Timelines) == 0 {
		panic("config: Duration called before Timeline")
	}
	b.cfg.Timelines[len(b.cfg.Timelines)-1].Duration = seconds
	return b
}

// Recorder appends a capture stream to the last added timeline.
// Calling it before any Timeline is a programming error and panics.
func (b *Builder) Recorder(s recorder.Settings) *Builder {
	if len(b.cfg.Timelines) == 0 {
		panic("config: Recorder called before Timeline")
	}
	if s.Base().ID == "" {
		s.Base().ID = uuid.New().String()
	}
	last := &b.cfg.Timelines[len(b.cfg.Timelines)-1]
	last.Recorders = append(last.Recorders, s)
	return b
}

// Build returns the assembled configuration.
func (b *Builder) Build() *RecordingConfiguration {
	cfg := b.cfg
	return &cfg
}
