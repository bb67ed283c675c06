// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/multirec/internal/sceneref"
	"github.com/ManuGH/multirec/internal/validate"
)

func TestMovieCodecContainerCompatibility(t *testing.T) {
	tests := []struct {
		name      string
		codec     string
		container string
		wantErr   bool
	}{
		{"h264 in mp4", "h264", "mp4", false},
		{"h264 in mov", "h264", "mov", true},
		{"prores in mov", "prores", "mov", false},
		{"prores in mp4", "prores", "mp4", true},
		{"hevc in mov", "hevc", "mov", false},
		{"vp9 in webm", "vp9", "webm", false},
		{"unknown codec", "cinepak", "mp4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &MovieSettings{
				Common:    Common{Name: "movie"},
				Codec:     tt.codec,
				Container: tt.container,
				Quality:   75,
			}
			v := validate.New()
			s.Validate(v)
			assert.Equal(t, tt.wantErr, !v.IsValid(), "errors: %v", v.Errors())
		})
	}
}

func TestExportKindsRequireTargetAndOptions(t *testing.T) {
	v := validate.New()
	abc := &AlembicSettings{Common: Common{Name: "geo"}}
	abc.Validate(v)
	require.False(t, v.IsValid())
	assert.Len(t, v.Errors(), 2, "missing target and missing options")

	v = validate.New()
	ok := &AlembicSettings{
		Common:  Common{Name: "geo"},
		Target:  sceneref.Handle{ID: "x", Path: "Root/Mesh"},
		Options: []string{"normals"},
	}
	ok.Validate(v)
	assert.True(t, v.IsValid(), "errors: %v", v.Errors())

	// Scene scope needs no target.
	v = validate.New()
	scoped := &AlembicSettings{
		Common:  Common{Name: "geo"},
		Scope:   "scene",
		Options: []string{"normals"},
	}
	scoped.Validate(v)
	assert.True(t, v.IsValid(), "errors: %v", v.Errors())
}

func TestAOVRequiresPasses(t *testing.T) {
	v := validate.New()
	s := &AOVSettings{Common: Common{Name: "passes"}, Format: "exr"}
	s.Validate(v)
	assert.False(t, v.IsValid())
}

func TestAOVAdapterSurfacesEveryPass(t *testing.T) {
	reg := NewRegistry()
	a, ok := reg.Lookup(KindAOV)
	require.True(t, ok)
	require.True(t, a.Capabilities().MultiOutput)

	s := &AOVSettings{
		Common: Common{Name: "passes", Enabled: true},
		Passes: []string{"beauty", "depth", "normal"},
		Format: "exr",
	}
	caps, err := a.BuildCaptures(s, Scope{Width: 1920, Height: 1080, OutputPath: "out/shot"})
	require.NoError(t, err)
	require.Len(t, caps, 3, "one capture stream per configured pass")

	assert.Equal(t, "out/shot_beauty", caps[0].OutputPath())
	assert.Equal(t, "out/shot_depth", caps[1].OutputPath())
	assert.Equal(t, "out/shot_normal", caps[2].OutputPath())
}

func TestMovieAdapterResolutionOverride(t *testing.T) {
	reg := NewRegistry()
	a, _ := reg.Lookup(KindMovie)

	s := &MovieSettings{
		Common:     Common{Name: "movie", Enabled: true},
		Codec:      "h264",
		Container:  "mp4",
		Resolution: Resolution{Width: 1280, Height: 720},
	}
	caps, err := a.BuildCaptures(s, Scope{Width: 1920, Height: 1080, OutputPath: "out/movie"})
	require.NoError(t, err)
	require.Len(t, caps, 1)

	c := caps[0].(*Capture)
	assert.Equal(t, "1280", c.Field("width"))
	assert.Equal(t, "720", c.Field("height"))

	// Without override the global resolution applies.
	s.Resolution = Resolution{}
	caps, err = a.BuildCaptures(s, Scope{Width: 1920, Height: 1080, OutputPath: "out/movie"})
	require.NoError(t, err)
	assert.Equal(t, "1920", caps[0].(*Capture).Field("width"))
}

func TestAdapterRejectsForeignSettings(t *testing.T) {
	reg := NewRegistry()
	a, _ := reg.Lookup(KindImage)
	_, err := a.BuildCaptures(&MovieSettings{}, Scope{})
	assert.Error(t, err)
}

func TestSettingsListJSONRoundTrip(t *testing.T) {
	in := SettingsList{
		&ImageSettings{
			Common: Common{ID: "r1", Name: "stills", Enabled: true, Take: 3, FileName: "<Scene>_<Take>"},
			Format: "png",
		},
		&MovieSettings{
			Common:    Common{ID: "r2", Name: "movie", Enabled: true},
			Codec:     "h264",
			Container: "mp4",
			Quality:   80,
		},
		&AOVSettings{
			Common: Common{ID: "r3", Name: "passes"},
			Passes: []string{"beauty", "depth"},
			Format: "exr",
		},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out SettingsList
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out, 3)

	assert.Equal(t, KindImage, out[0].Kind())
	assert.Equal(t, "stills", out[0].Base().Name)
	assert.Equal(t, 3, out[0].Base().Take)

	mov, ok := out[1].(*MovieSettings)
	require.True(t, ok)
	assert.Equal(t, "h264", mov.Codec)

	aov, ok := out[2].(*AOVSettings)
	require.True(t, ok)
	assert.Equal(t, []string{"beauty", "depth"}, aov.Passes)
}

func TestSettingsListRejectsUnknownKind(t *testing.T) {
	var out SettingsList
	err := json.Unmarshal([]byte(`[{"kind":"hologram","spec":{}}]`), &out)
	assert.Error(t, err)
}
