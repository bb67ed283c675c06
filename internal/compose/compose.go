// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package compose builds the composite render graph for one recording run:
// a control track sequencing the source timelines back to back, plus one
// capture track per enabled stream spanning the whole run.
package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/ManuGH/multirec/internal/config"
	"github.com/ManuGH/multirec/internal/fsutil"
	"github.com/ManuGH/multirec/internal/log"
	"github.com/ManuGH/multirec/internal/metrics"
	"github.com/ManuGH/multirec/internal/recorder"
	"github.com/ManuGH/multirec/internal/sceneref"
	"github.com/ManuGH/multirec/internal/timeline"
	"github.com/ManuGH/multirec/internal/wildcard"
)

// DefaultFileName is the output pattern for streams that configure none.
const DefaultFileName = "<Scene>_<Timeline>_<Recorder>_<Take>"

// Composite is the built render graph plus its persisted manifest. It is
// exclusively owned by one recording job and released on job teardown.
type Composite struct {
	ID           string
	Sequence     *timeline.Sequence
	Duration     float64
	ManifestPath string
}

// Release deletes the persisted manifest. Safe to call more than once.
func (c *Composite) Release() error {
	if c.ManifestPath == "" {
		return nil
	}
	err := os.Remove(c.ManifestPath)
	c.ManifestPath = ""
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release composite manifest: %w", err)
	}
	return nil
}

// Composer assembles composites from configurations.
type Composer struct {
	resolver *wildcard.Resolver
	registry *recorder.Registry
	tempDir  string
}

// NewComposer creates a composer persisting manifests under tempDir.
func NewComposer(resolver *wildcard.Resolver, registry *recorder.Registry, tempDir string) *Composer {
	return &Composer{resolver: resolver, registry: registry, tempDir: tempDir}
}

// Compose builds the composite sequence for cfg. Control clips are laid out
// in configuration order at a running offset with a one-frame gap between
// them; every enabled capture stream gets its own track spanning the full
// composite. A timeline whose controller cannot be resolved is skipped with
// a warning, unless no timeline survives. The manifest is written atomically
// before the composite is returned; on error nothing is left behind.
func (c *Composer) Compose(ctx context.Context, cfg *config.RecordingConfiguration, tracker *sceneref.Tracker) (*Composite, error) {
	logger := log.WithComponent("compose")

	if err := cfg.ValidateStructure(); err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}

	seq := timeline.NewSequence(cfg.Name+"_composite", cfg.FrameRate)
	control := seq.AddTrack(timeline.TrackControl, "control")

	gap := 1 / cfg.FrameRate
	offset := 0.0
	var live []config.TimelineConfig

	for _, tl := range cfg.EnabledTimelines() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node, ok := tracker.TryResolve(tl.Reference)
		if !ok {
			logger.Warn().
				Str(log.FieldTimeline, tl.Name).
				Str("reference", tl.Reference.Path).
				Msg("timeline has no live playback controller, skipping")
			continue
		}
		ctrl, ok := node.(timeline.Controller)
		if !ok {
			logger.Warn().
				Str(log.FieldTimeline, tl.Name).
				Str("reference", tl.Reference.Path).
				Msg("referenced node is not a playback controller, skipping")
			continue
		}

		dur := ctrl.Sequence().Duration()
		control.AddClip(timeline.Clip{
			Name:     tl.Name,
			Start:    offset,
			Duration: dur,
			Binding:  tl.Reference,
			Child:    ctrl,
		})
		offset += dur + gap
		live = append(live, tl)
	}

	if len(live) == 0 {
		return nil, fmt.Errorf("compose: no timeline with a live playback controller")
	}
	total := offset - gap

	for _, tl := range live {
		for _, rec := range tl.EnabledRecorders() {
			if err := c.addCaptureTracks(seq, cfg, tl, rec, tracker, total); err != nil {
				return nil, err
			}
		}
	}

	comp := &Composite{
		ID:       uuid.NewString(),
		Sequence: seq,
		Duration: total,
	}
	path, err := c.persist(comp)
	if err != nil {
		return nil, err
	}
	comp.ManifestPath = path

	logger.Info().
		Str("composite_id", comp.ID).
		Int("timelines", len(live)).
		Float64("duration_s", total).
		Msg("composite built")
	return comp, nil
}

func (c *Composer) addCaptureTracks(seq *timeline.Sequence, cfg *config.RecordingConfiguration,
	tl config.TimelineConfig, rec recorder.Settings, tracker *sceneref.Tracker, total float64) error {

	logger := log.WithComponent("compose")

	adapter, ok := c.registry.Lookup(rec.Kind())
	if !ok {
		return fmt.Errorf("compose: no capture adapter for kind %q", rec.Kind())
	}

	// One evaluation clock per run: a stream's own rate cannot be honored.
	if rate := recorder.StreamFrameRate(rec); rate != 0 && rate != cfg.FrameRate {
		logger.Warn().
			Str(log.FieldTimeline, tl.Name).
			Str(log.FieldRecorder, rec.Base().Name).
			Float64("stream_rate", rate).
			Float64("global_rate", cfg.FrameRate).
			Msg("stream frame rate overridden by the global rate")
	}

	output, err := c.resolveOutput(cfg, tl, rec)
	if err != nil {
		return fmt.Errorf("compose: output path of %s stream %q: %w", rec.Kind(), rec.Base().Name, err)
	}
	scope := recorder.Scope{
		FrameRate:  cfg.FrameRate,
		Width:      cfg.Width,
		Height:     cfg.Height,
		OutputPath: output,
		Timeline:   tl.Name,
	}
	if target := recorder.TargetHandle(rec); !target.IsZero() {
		node, ok := tracker.TryResolve(target)
		if !ok {
			return fmt.Errorf("compose: target of %s stream %q cannot be resolved", rec.Kind(), rec.Base().Name)
		}
		scope.TargetPath = node.Path()
	}

	captures, err := adapter.BuildCaptures(rec, scope)
	if err != nil {
		return fmt.Errorf("compose: build %s captures: %w", rec.Kind(), err)
	}

	for i, capture := range captures {
		name := fmt.Sprintf("%s_%s", tl.Name, rec.Base().Name)
		if len(captures) > 1 {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		track := seq.AddTrack(timeline.TrackCapture, name)
		track.AddClip(timeline.Clip{
			Name:     name,
			Start:    0,
			Duration: total,
			Capture:  capture,
		})
		metrics.ComposerClipsTotal.WithLabelValues(capture.Kind()).Inc()
	}
	return nil
}

// resolveOutput joins the configured output directory with the stream's
// token-resolved file name, confined to the output root.
func (c *Composer) resolveOutput(cfg *config.RecordingConfiguration, tl config.TimelineConfig, rec recorder.Settings) (string, error) {
	pattern := rec.Base().FileName
	if pattern == "" {
		pattern = DefaultFileName
	}
	tctx := wildcard.Context{
		Scene:        cfg.SceneName,
		Timeline:     tl.Name,
		Recorder:     rec.Base().Name,
		RecorderType: string(rec.Kind()),
		Take:         cfg.Take,
		TimelineTake: tl.Take,
		RecorderTake: rec.Base().Take,
	}
	if target := recorder.TargetHandle(rec); !target.IsZero() {
		tctx.GameObject = target.Name
	}
	return fsutil.ConfineRelPath(cfg.OutputPath, c.resolver.Resolve(pattern, tctx))
}

// manifest is the serialized form of a composite. Controllers and capture
// settings are live-only and re-derived after reload.
type manifest struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	FrameRate float64          `json:"frameRate"`
	Duration  float64          `json:"duration"`
	Tracks    []timeline.Track `json:"tracks"`
}

func (c *Composer) persist(comp *Composite) (string, error) {
	if err := os.MkdirAll(c.tempDir, 0750); err != nil {
		return "", fmt.Errorf("create composite temp dir: %w", err)
	}

	tracks := make([]timeline.Track, 0, len(comp.Sequence.Tracks))
	for _, t := range comp.Sequence.Tracks {
		tracks = append(tracks, *t)
	}
	data, err := json.MarshalIndent(manifest{
		ID:        comp.ID,
		Name:      comp.Sequence.Name,
		FrameRate: comp.Sequence.FrameRate,
		Duration:  comp.Duration,
		Tracks:    tracks,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode composite manifest: %w", err)
	}

	path := filepath.Join(c.tempDir, "composite-"+comp.ID+".json")
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return "", fmt.Errorf("create pending manifest: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger := log.WithComponent("compose")
			logger.Debug().Err(err).Msg("cleanup pending manifest")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return "", fmt.Errorf("write composite manifest: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace composite manifest: %w", err)
	}
	return path, nil
}
