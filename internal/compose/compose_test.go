// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/multirec/internal/config"
	"github.com/ManuGH/multirec/internal/recorder"
	"github.com/ManuGH/multirec/internal/sceneref"
	"github.com/ManuGH/multirec/internal/timeline"
	"github.com/ManuGH/multirec/internal/wildcard"
)

type fakeScene struct {
	nodes map[string]sceneref.Node
}

func (s *fakeScene) Find(path string) (sceneref.Node, bool) {
	n, ok := s.nodes[path]
	return n, ok
}

func director(name string, duration float64) *timeline.Director {
	seq := timeline.NewSequence(name, 30)
	seq.AddTrack(timeline.TrackControl, "content").
		AddClip(timeline.Clip{Name: "body", Duration: duration})
	return timeline.NewDirector(name, "Timelines/"+name, seq)
}

func newComposer(t *testing.T) *Composer {
	t.Helper()
	return NewComposer(wildcard.New(), recorder.NewRegistry(), t.TempDir())
}

func twoTimelineConfig(t *testing.T) (*config.RecordingConfiguration, *sceneref.Tracker) {
	t.Helper()

	scene := &fakeScene{nodes: map[string]sceneref.Node{}}
	for _, d := range []*timeline.Director{director("Intro", 5), director("Boss", 3)} {
		scene.nodes[d.Path()] = d
	}

	cfg := config.NewBuilder("run").
		Scene("Level1").
		FrameRate(30).
		Resolution(1920, 1080).
		OutputPath(t.TempDir()).
		Take(2).
		Timeline("Intro", sceneref.Handle{ID: "h1", Path: "Timelines/Intro"}).
		Recorder(&recorder.ImageSettings{
			Common: recorder.Common{Name: "stills", Enabled: true, FileName: "<Scene>_<Timeline>_<Take>"},
			Format: "png",
		}).
		Timeline("Boss", sceneref.Handle{ID: "h2", Path: "Timelines/Boss"}).
		Recorder(&recorder.ImageSettings{
			Common: recorder.Common{Name: "stills", Enabled: true, FileName: "<Scene>_<Timeline>_<Take>"},
			Format: "png",
		}).
		Build()

	return cfg, sceneref.NewTracker(scene)
}

func controlTrack(t *testing.T, comp *Composite) *timeline.Track {
	t.Helper()
	for _, tr := range comp.Sequence.Tracks {
		if tr.Kind == timeline.TrackControl {
			return tr
		}
	}
	t.Fatal("composite has no control track")
	return nil
}

func TestComposeOffsetsAndDuration(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)

	comp, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.NoError(t, err)
	defer comp.Release() //nolint:errcheck

	// 5s + 3s at 30fps with a one-frame gap between the clips.
	require.InDelta(t, 5+3+1.0/30, comp.Duration, 1e-9)

	control := controlTrack(t, comp)
	require.Len(t, control.Clips, 2)
	assert.InDelta(t, 0, control.Clips[0].Start, 1e-9)
	assert.InDelta(t, 5+1.0/30, control.Clips[1].Start, 1e-9)
	assert.Equal(t, "Intro", control.Clips[0].Name)
	assert.Equal(t, "Boss", control.Clips[1].Name)

	// Control clips never overlap.
	assert.LessOrEqual(t, control.Clips[0].End(), control.Clips[1].Start)
}

func TestComposeCaptureTracksSpanWholeRun(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)

	comp, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.NoError(t, err)
	defer comp.Release() //nolint:errcheck

	var captures []*timeline.Track
	for _, tr := range comp.Sequence.Tracks {
		if tr.Kind == timeline.TrackCapture {
			captures = append(captures, tr)
		}
	}
	require.Len(t, captures, 2, "one capture track per enabled stream")

	for _, tr := range captures {
		require.Len(t, tr.Clips, 1)
		clip := tr.Clips[0]
		assert.Zero(t, clip.Start)
		assert.InDelta(t, comp.Duration, clip.Duration, 1e-9)
		require.NotNil(t, clip.Capture)
		assert.True(t, clip.Capture.Enabled())
	}
}

func TestComposeResolvesOutputPaths(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)

	comp, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.NoError(t, err)
	defer comp.Release() //nolint:errcheck

	want := map[string]bool{
		filepath.Join(cfg.OutputPath, "Level1_Intro_002"): false,
		filepath.Join(cfg.OutputPath, "Level1_Boss_002"):  false,
	}
	for _, tr := range comp.Sequence.Tracks {
		if tr.Kind != timeline.TrackCapture {
			continue
		}
		out := tr.Clips[0].Capture.OutputPath()
		_, known := want[out]
		require.True(t, known, "unexpected output path %q", out)
		want[out] = true
	}
	for path, seen := range want {
		assert.True(t, seen, "missing capture output %q", path)
	}
}

func TestComposeMultiOutputStreams(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)
	cfg.Timelines[0].Recorders = append(cfg.Timelines[0].Recorders, &recorder.AOVSettings{
		Common: recorder.Common{Name: "passes", Enabled: true, FileName: "<Scene>"},
		Passes: []string{"beauty", "depth", "normal"},
		Format: "exr",
	})

	comp, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.NoError(t, err)
	defer comp.Release() //nolint:errcheck

	var aov int
	for _, tr := range comp.Sequence.Tracks {
		if tr.Kind == timeline.TrackCapture && tr.Clips[0].Capture.Kind() == "aov" {
			aov++
		}
	}
	assert.Equal(t, 3, aov, "every configured pass surfaces as its own stream")
}

func TestComposeSkipsDeadTimeline(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)
	cfg.Timelines[1].Reference = sceneref.Handle{ID: "dead", Path: "Timelines/Gone"}

	comp, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.NoError(t, err)
	defer comp.Release() //nolint:errcheck

	control := controlTrack(t, comp)
	require.Len(t, control.Clips, 1)
	assert.Equal(t, "Intro", control.Clips[0].Name)

	// No gap after the last clip.
	assert.InDelta(t, 5.0, comp.Duration, 1e-9)
}

func TestComposeFailsWhenNoControllerSurvives(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)
	cfg.Timelines[0].Reference = sceneref.Handle{ID: "dead1", Path: "Timelines/Gone1"}
	cfg.Timelines[1].Reference = sceneref.Handle{ID: "dead2", Path: "Timelines/Gone2"}

	_, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no timeline with a live playback controller")
}

func TestComposeFailsOnUnresolvableTarget(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)
	cfg.Timelines[0].Recorders = append(cfg.Timelines[0].Recorders, &recorder.FBXSettings{
		Common:  recorder.Common{Name: "export", Enabled: true},
		Target:  sceneref.Handle{ID: "dead", Path: "Root/Gone"},
		Options: []string{"transforms"},
	})

	_, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be resolved")
}

func TestComposeRejectsEscapingOutputPattern(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)
	cfg.Timelines[0].Recorders[0].Base().FileName = "../../outside/<Scene>"

	_, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output path")
}

func TestComposePersistsAndReleasesManifest(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)

	comp, err := newComposer(t).Compose(context.Background(), cfg, tracker)
	require.NoError(t, err)
	require.FileExists(t, comp.ManifestPath)

	data, err := os.ReadFile(comp.ManifestPath)
	require.NoError(t, err)

	var m struct {
		ID        string  `json:"id"`
		FrameRate float64 `json:"frameRate"`
		Duration  float64 `json:"duration"`
		Tracks    []struct {
			Kind string `json:"kind"`
		} `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, comp.ID, m.ID)
	assert.InDelta(t, comp.Duration, m.Duration, 1e-9)
	assert.Len(t, m.Tracks, 3)

	path := comp.ManifestPath
	require.NoError(t, comp.Release())
	assert.NoFileExists(t, path)
	require.NoError(t, comp.Release(), "release is idempotent")
}

func TestComposeCancelledContext(t *testing.T) {
	cfg, tracker := twoTimelineConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newComposer(t).Compose(ctx, cfg, tracker)
	require.ErrorIs(t, err, context.Canceled)
}
