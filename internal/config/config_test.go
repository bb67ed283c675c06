// SPDX-License-Identifier: MIT

package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/multirec/internal/recorder"
	"github.com/ManuGH/multirec/internal/sceneref"
)

func sampleConfig(t *testing.T) *RecordingConfiguration {
	t.Helper()
	return NewBuilder("nightly batch").
		Scene("Level1").
		FrameRate(30).
		Resolution(1920, 1080).
		OutputPath(t.TempDir()).
		Take(2).
		Timeline("Intro", sceneref.Handle{ID: "h1", Path: "Timelines/Intro"}).
		Recorder(&recorder.ImageSettings{
			Common: recorder.Common{Name: "stills", Enabled: true, Take: 1, FileName: "<Scene>_<Timeline>_<Take>"},
			Format: "png",
		}).
		Timeline("Boss", sceneref.Handle{ID: "h2", Path: "Timelines/Boss"}).
		Recorder(&recorder.MovieSettings{
			Common:    recorder.Common{Name: "movie", Enabled: true, Take: 1, FileName: "<Scene>_<Timeline>_<Take>"},
			Codec:     "h264",
			Container: "mp4",
			Quality:   80,
		}).
		Build()
}

func TestBuilderDefaultsAndChaining(t *testing.T) {
	cfg := sampleConfig(t)

	require.NotEmpty(t, cfg.ID)
	assert.Equal(t, 30.0, cfg.FrameRate)
	require.Len(t, cfg.Timelines, 2)
	assert.True(t, cfg.Timelines[0].Enabled)
	require.Len(t, cfg.Timelines[0].Recorders, 1)
	assert.NotEmpty(t, cfg.Timelines[0].Recorders[0].Base().ID)
	assert.Equal(t, 2, cfg.EnabledStreamCount())
}

func TestRecorderBeforeTimelinePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder("x").Recorder(&recorder.ImageSettings{})
	})
}

func TestValidateStructure(t *testing.T) {
	cfg := sampleConfig(t)
	require.NoError(t, cfg.ValidateStructure())

	t.Run("zero frame rate blocks", func(t *testing.T) {
		bad := sampleConfig(t)
		bad.FrameRate = 0
		assert.Error(t, bad.ValidateStructure())
	})

	t.Run("no enabled timeline blocks", func(t *testing.T) {
		bad := sampleConfig(t)
		for i := range bad.Timelines {
			bad.Timelines[i].Enabled = false
		}
		assert.Error(t, bad.ValidateStructure())
	})

	t.Run("enabled timeline without reference blocks", func(t *testing.T) {
		bad := sampleConfig(t)
		bad.Timelines[0].Reference = sceneref.Handle{}
		err := bad.ValidateStructure()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Intro")
	})
}

func TestJSONRoundTrip(t *testing.T) {
	cfg := sampleConfig(t)
	path := filepath.Join(t.TempDir(), "run.json")

	require.NoError(t, Export(cfg, path))
	got, err := Import(path)
	require.NoError(t, err)

	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := sampleConfig(t)
	path := filepath.Join(t.TempDir(), "run.yaml")

	require.NoError(t, Export(cfg, path))
	got, err := Import(path)
	require.NoError(t, err)

	require.Len(t, got.Timelines, 2)
	assert.Equal(t, cfg.Timelines[1].Name, got.Timelines[1].Name)
	mov, ok := got.Timelines[1].Recorders[0].(*recorder.MovieSettings)
	require.True(t, ok)
	assert.Equal(t, "h264", mov.Codec)
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "run.toml"))
	assert.Error(t, err)
}
