// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"fmt"
	"strconv"

	"github.com/ManuGH/multirec/internal/timeline"
)

// Capabilities is the static probe of a capture adapter. The composer and
// validation service consult it instead of poking at backend internals.
type Capabilities struct {
	ResolutionOverride bool
	Audio              bool
	MultiOutput        bool
	RequiresTarget     bool
}

// Scope carries the composite-level values an adapter needs to build its
// capture settings. OutputPath arrives token-resolved.
type Scope struct {
	FrameRate  float64
	Width      int
	Height     int
	OutputPath string
	Timeline   string
	TargetPath string
}

// Adapter translates one settings kind into backend capture settings.
type Adapter interface {
	Kind() Kind
	Capabilities() Capabilities
	// BuildCaptures returns one capture settings object per output stream.
	// Multi-output kinds surface every stream; nothing is dropped.
	BuildCaptures(s Settings, scope Scope) ([]timeline.CaptureSettings, error)
}

// Capture is the concrete settings object handed to capture clips. Beyond
// Kind, Enabled and OutputPath it is opaque to the engine.
type Capture struct {
	kind    Kind
	output  string
	enabled bool
	fields  map[string]string
}

func (c *Capture) Kind() string       { return string(c.kind) }
func (c *Capture) Enabled() bool      { return c.enabled }
func (c *Capture) OutputPath() string { return c.output }

// Field exposes backend-specific values to tests and capture backends.
func (c *Capture) Field(name string) string { return c.fields[name] }

var _ timeline.CaptureSettings = (*Capture)(nil)

// Registry maps kinds to adapters.
type Registry struct {
	adapters map[Kind]Adapter
}

// NewRegistry returns a registry with all built-in adapters installed.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[Kind]Adapter)}
	for _, a := range []Adapter{
		imageAdapter{}, movieAdapter{}, animationAdapter{},
		alembicAdapter{}, fbxAdapter{}, aovAdapter{},
	} {
		r.adapters[a.Kind()] = a
	}
	return r
}

// Lookup returns the adapter for a kind.
func (r *Registry) Lookup(kind Kind) (Adapter, bool) {
	a, ok := r.adapters[kind]
	return a, ok
}

// Register installs or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Kind()] = a
}

func effectiveResolution(override Resolution, scope Scope) (int, int) {
	if override.IsSet() {
		return override.Width, override.Height
	}
	return scope.Width, scope.Height
}

type imageAdapter struct{}

func (imageAdapter) Kind() Kind { return KindImage }
func (imageAdapter) Capabilities() Capabilities {
	return Capabilities{ResolutionOverride: true}
}

func (imageAdapter) BuildCaptures(s Settings, scope Scope) ([]timeline.CaptureSettings, error) {
	img, ok := s.(*ImageSettings)
	if !ok {
		return nil, fmt.Errorf("image adapter: unexpected settings %T", s)
	}
	w, h := effectiveResolution(img.Resolution, scope)
	return []timeline.CaptureSettings{&Capture{
		kind:    KindImage,
		output:  scope.OutputPath,
		enabled: img.Enabled,
		fields: map[string]string{
			"format": img.Format,
			"width":  strconv.Itoa(w),
			"height": strconv.Itoa(h),
		},
	}}, nil
}

type movieAdapter struct{}

func (movieAdapter) Kind() Kind { return KindMovie }
func (movieAdapter) Capabilities() Capabilities {
	return Capabilities{ResolutionOverride: true, Audio: true}
}

func (movieAdapter) BuildCaptures(s Settings, scope Scope) ([]timeline.CaptureSettings, error) {
	mov, ok := s.(*MovieSettings)
	if !ok {
		return nil, fmt.Errorf("movie adapter: unexpected settings %T", s)
	}
	w, h := effectiveResolution(mov.Resolution, scope)
	return []timeline.CaptureSettings{&Capture{
		kind:    KindMovie,
		output:  scope.OutputPath,
		enabled: mov.Enabled,
		fields: map[string]string{
			"codec":     mov.Codec,
			"container": mov.Container,
			"quality":   strconv.Itoa(mov.Quality),
			"audio":     strconv.FormatBool(mov.CaptureAudio),
			"width":     strconv.Itoa(w),
			"height":    strconv.Itoa(h),
		},
	}}, nil
}

type animationAdapter struct{}

func (animationAdapter) Kind() Kind { return KindAnimation }
func (animationAdapter) Capabilities() Capabilities {
	return Capabilities{RequiresTarget: true}
}

func (animationAdapter) BuildCaptures(s Settings, scope Scope) ([]timeline.CaptureSettings, error) {
	anim, ok := s.(*AnimationSettings)
	if !ok {
		return nil, fmt.Errorf("animation adapter: unexpected settings %T", s)
	}
	return []timeline.CaptureSettings{&Capture{
		kind:    KindAnimation,
		output:  scope.OutputPath,
		enabled: anim.Enabled,
		fields: map[string]string{
			"target":    scope.TargetPath,
			"recursive": strconv.FormatBool(anim.Recursive),
		},
	}}, nil
}

type alembicAdapter struct{}

func (alembicAdapter) Kind() Kind { return KindAlembic }
func (alembicAdapter) Capabilities() Capabilities {
	return Capabilities{RequiresTarget: true}
}

func (alembicAdapter) BuildCaptures(s Settings, scope Scope) ([]timeline.CaptureSettings, error) {
	abc, ok := s.(*AlembicSettings)
	if !ok {
		return nil, fmt.Errorf("alembic adapter: unexpected settings %T", s)
	}
	fields := map[string]string{
		"target": scope.TargetPath,
		"scope":  abc.Scope,
	}
	for _, opt := range abc.Options {
		fields["opt_"+opt] = "true"
	}
	return []timeline.CaptureSettings{&Capture{
		kind:    KindAlembic,
		output:  scope.OutputPath,
		enabled: abc.Enabled,
		fields:  fields,
	}}, nil
}

type fbxAdapter struct{}

func (fbxAdapter) Kind() Kind { return KindFBX }
func (fbxAdapter) Capabilities() Capabilities {
	return Capabilities{RequiresTarget: true}
}

func (fbxAdapter) BuildCaptures(s Settings, scope Scope) ([]timeline.CaptureSettings, error) {
	fbx, ok := s.(*FBXSettings)
	if !ok {
		return nil, fmt.Errorf("fbx adapter: unexpected settings %T", s)
	}
	fields := map[string]string{
		"target":         scope.TargetPath,
		"embed_textures": strconv.FormatBool(fbx.EmbedTextures),
	}
	for _, opt := range fbx.Options {
		fields["opt_"+opt] = "true"
	}
	return []timeline.CaptureSettings{&Capture{
		kind:    KindFBX,
		output:  scope.OutputPath,
		enabled: fbx.Enabled,
		fields:  fields,
	}}, nil
}

type aovAdapter struct{}

func (aovAdapter) Kind() Kind { return KindAOV }
func (aovAdapter) Capabilities() Capabilities {
	return Capabilities{ResolutionOverride: true, MultiOutput: true}
}

// BuildCaptures emits one capture stream per configured pass. The per-pass
// output path is the resolved path with the pass name appended.
func (aovAdapter) BuildCaptures(s Settings, scope Scope) ([]timeline.CaptureSettings, error) {
	aov, ok := s.(*AOVSettings)
	if !ok {
		return nil, fmt.Errorf("aov adapter: unexpected settings %T", s)
	}
	w, h := effectiveResolution(aov.Resolution, scope)
	out := make([]timeline.CaptureSettings, 0, len(aov.Passes))
	for _, pass := range aov.Passes {
		out = append(out, &Capture{
			kind:    KindAOV,
			output:  scope.OutputPath + "_" + pass,
			enabled: aov.Enabled,
			fields: map[string]string{
				"pass":   pass,
				"format": aov.Format,
				"width":  strconv.Itoa(w),
				"height": strconv.Itoa(h),
			},
		})
	}
	return out, nil
}
