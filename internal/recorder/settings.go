// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recorder defines the per-stream capture configurations and the
// adapters translating them into backend capture settings.
package recorder

import (
	"fmt"

	"github.com/ManuGH/multirec/internal/sceneref"
	"github.com/ManuGH/multirec/internal/validate"
)

// Kind enumerates the supported capture-stream kinds.
type Kind string

const (
	KindImage     Kind = "image"
	KindMovie     Kind = "movie"
	KindAnimation Kind = "animation"
	KindAlembic   Kind = "alembic"
	KindFBX       Kind = "fbx"
	KindAOV       Kind = "aov"
)

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindImage, KindMovie, KindAnimation, KindAlembic, KindFBX, KindAOV}
}

// Common is the head shared by every capture-stream configuration.
type Common struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Take     int    `json:"take" yaml:"take"`
	FileName string `json:"fileName" yaml:"fileName"` // token pattern, see wildcard
}

// Settings is the polymorphic capture-stream configuration.
type Settings interface {
	Kind() Kind
	Base() *Common
	// Validate accumulates kind-specific constraint violations.
	Validate(v *validate.Validator)
}

// Resolution is an optional per-stream override. Zero means "use global".
type Resolution struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsSet reports whether the override is active.
func (r Resolution) IsSet() bool { return r.Width != 0 || r.Height != 0 }

// codecContainers is the compatibility table for movie streams.
var codecContainers = map[string][]string{
	"h264":   {"mp4"},
	"hevc":   {"mp4", "mov"},
	"prores": {"mov"},
	"vp8":    {"webm"},
	"vp9":    {"webm"},
}

// CompatibleContainers returns the containers valid for a codec.
func CompatibleContainers(codec string) ([]string, bool) {
	c, ok := codecContainers[codec]
	return c, ok
}

// ImageSettings captures an image sequence.
type ImageSettings struct {
	Common     `yaml:",inline"`
	Resolution Resolution `json:"resolution" yaml:"resolution"`
	Format     string     `json:"format" yaml:"format"` // png, jpg, exr
	FrameRate  float64    `json:"frameRate,omitempty" yaml:"frameRate,omitempty"`
}

func (s *ImageSettings) Kind() Kind    { return KindImage }
func (s *ImageSettings) Base() *Common { return &s.Common }

func (s *ImageSettings) Validate(v *validate.Validator) {
	v.OneOf(field(s, "Format"), s.Format, []string{"png", "jpg", "exr"})
	if s.Resolution.IsSet() {
		v.Resolution(field(s, "Resolution"), s.Resolution.Width, s.Resolution.Height)
	}
}

// MovieSettings captures an encoded movie.
type MovieSettings struct {
	Common       `yaml:",inline"`
	Resolution   Resolution `json:"resolution" yaml:"resolution"`
	Codec        string     `json:"codec" yaml:"codec"`
	Container    string     `json:"container" yaml:"container"`
	Quality      int        `json:"quality" yaml:"quality"` // 0..100
	CaptureAudio bool       `json:"captureAudio" yaml:"captureAudio"`
	FrameRate    float64    `json:"frameRate,omitempty" yaml:"frameRate,omitempty"`
}

func (s *MovieSettings) Kind() Kind    { return KindMovie }
func (s *MovieSettings) Base() *Common { return &s.Common }

func (s *MovieSettings) Validate(v *validate.Validator) {
	v.Range(field(s, "Quality"), s.Quality, 0, 100)
	if s.Resolution.IsSet() {
		v.Resolution(field(s, "Resolution"), s.Resolution.Width, s.Resolution.Height)
	}
	containers, ok := CompatibleContainers(s.Codec)
	if !ok {
		v.AddError(field(s, "Codec"), fmt.Sprintf("unknown codec %q", s.Codec), s.Codec)
		return
	}
	for _, c := range containers {
		if c == s.Container {
			return
		}
	}
	v.AddError(field(s, "Container"),
		fmt.Sprintf("container %q is incompatible with codec %q (allowed: %v)", s.Container, s.Codec, containers),
		s.Container)
}

// AnimationSettings records animation curves from a target node.
type AnimationSettings struct {
	Common          `yaml:",inline"`
	Target          sceneref.Handle `json:"target" yaml:"target"`
	Recursive       bool            `json:"recursive" yaml:"recursive"` // include child hierarchy
	ClampedTangents bool            `json:"clampedTangents" yaml:"clampedTangents"`
}

func (s *AnimationSettings) Kind() Kind    { return KindAnimation }
func (s *AnimationSettings) Base() *Common { return &s.Common }

func (s *AnimationSettings) Validate(v *validate.Validator) {
	if s.Target.IsZero() {
		v.AddError(field(s, "Target"), "animation capture requires a target node", nil)
	}
}

// AlembicSettings exports a geometry cache.
type AlembicSettings struct {
	Common  `yaml:",inline"`
	Target  sceneref.Handle `json:"target" yaml:"target"`
	Scope   string          `json:"scope" yaml:"scope"` // "target" or "scene"
	Options []string        `json:"options" yaml:"options"`
}

func (s *AlembicSettings) Kind() Kind    { return KindAlembic }
func (s *AlembicSettings) Base() *Common { return &s.Common }

func (s *AlembicSettings) Validate(v *validate.Validator) {
	if s.Scope != "scene" && s.Target.IsZero() {
		v.AddError(field(s, "Target"), "geometry export requires a target node or scene scope", nil)
	}
	if len(s.Options) == 0 {
		v.AddError(field(s, "Options"), "geometry export requires at least one recording option", nil)
	}
}

// FBXSettings exports a scene subtree.
type FBXSettings struct {
	Common        `yaml:",inline"`
	Target        sceneref.Handle `json:"target" yaml:"target"`
	Options       []string        `json:"options" yaml:"options"`
	EmbedTextures bool            `json:"embedTextures" yaml:"embedTextures"`
}

func (s *FBXSettings) Kind() Kind    { return KindFBX }
func (s *FBXSettings) Base() *Common { return &s.Common }

func (s *FBXSettings) Validate(v *validate.Validator) {
	if s.Target.IsZero() {
		v.AddError(field(s, "Target"), "scene export requires a target node", nil)
	}
	if len(s.Options) == 0 {
		v.AddError(field(s, "Options"), "scene export requires at least one recording option", nil)
	}
}

// AOVSettings captures pass-separated render outputs. Each configured pass
// yields its own capture stream; none are dropped.
type AOVSettings struct {
	Common     `yaml:",inline"`
	Resolution Resolution `json:"resolution" yaml:"resolution"`
	Passes     []string   `json:"passes" yaml:"passes"` // beauty, depth, normal, ...
	Format     string     `json:"format" yaml:"format"` // exr only today
}

func (s *AOVSettings) Kind() Kind    { return KindAOV }
func (s *AOVSettings) Base() *Common { return &s.Common }

func (s *AOVSettings) Validate(v *validate.Validator) {
	if len(s.Passes) == 0 {
		v.AddError(field(s, "Passes"), "pass-separated capture requires at least one pass", nil)
	}
	v.OneOf(field(s, "Format"), s.Format, []string{"exr"})
	if s.Resolution.IsSet() {
		v.Resolution(field(s, "Resolution"), s.Resolution.Width, s.Resolution.Height)
	}
}

// TargetHandle returns the scene-node target of export kinds, or a zero
// handle for kinds that capture the whole frame.
func TargetHandle(s Settings) sceneref.Handle {
	switch t := s.(type) {
	case *AnimationSettings:
		return t.Target
	case *AlembicSettings:
		return t.Target
	case *FBXSettings:
		return t.Target
	}
	return sceneref.Handle{}
}

// StreamFrameRate returns a stream's own frame-rate override, zero when the
// kind has none or it is unset.
func StreamFrameRate(s Settings) float64 {
	switch t := s.(type) {
	case *ImageSettings:
		return t.FrameRate
	case *MovieSettings:
		return t.FrameRate
	}
	return 0
}

func field(s Settings, name string) string {
	id := s.Base().Name
	if id == "" {
		id = s.Base().ID
	}
	return fmt.Sprintf("%s[%s].%s", s.Kind(), id, name)
}
