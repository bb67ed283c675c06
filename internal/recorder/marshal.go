// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SettingsList carries the polymorphic stream configurations through JSON
// and YAML using a {kind, spec} envelope.
type SettingsList []Settings

func newSettings(k Kind) (Settings, error) {
	switch k {
	case KindImage:
		return &ImageSettings{}, nil
	case KindMovie:
		return &MovieSettings{}, nil
	case KindAnimation:
		return &AnimationSettings{}, nil
	case KindAlembic:
		return &AlembicSettings{}, nil
	case KindFBX:
		return &FBXSettings{}, nil
	case KindAOV:
		return &AOVSettings{}, nil
	}
	return nil, fmt.Errorf("unknown recorder kind %q", k)
}

type jsonEnvelope struct {
	Kind Kind            `json:"kind"`
	Spec json.RawMessage `json:"spec"`
}

// MarshalJSON implements json.Marshaler.
func (l SettingsList) MarshalJSON() ([]byte, error) {
	out := make([]jsonEnvelope, 0, len(l))
	for _, s := range l {
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		out = append(out, jsonEnvelope{Kind: s.Kind(), Spec: raw})
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *SettingsList) UnmarshalJSON(b []byte) error {
	var envs []jsonEnvelope
	if err := json.Unmarshal(b, &envs); err != nil {
		return err
	}
	out := make(SettingsList, 0, len(envs))
	for _, env := range envs {
		s, err := newSettings(env.Kind)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(env.Spec, s); err != nil {
			return fmt.Errorf("decode %s settings: %w", env.Kind, err)
		}
		out = append(out, s)
	}
	*l = out
	return nil
}

type yamlEnvelope struct {
	Kind Kind      `yaml:"kind"`
	Spec yaml.Node `yaml:"spec"`
}

// MarshalYAML implements yaml.Marshaler.
func (l SettingsList) MarshalYAML() (interface{}, error) {
	out := make([]map[string]interface{}, 0, len(l))
	for _, s := range l {
		out = append(out, map[string]interface{}{
			"kind": string(s.Kind()),
			"spec": s,
		})
	}
	return out, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *SettingsList) UnmarshalYAML(node *yaml.Node) error {
	var envs []yamlEnvelope
	if err := node.Decode(&envs); err != nil {
		return err
	}
	out := make(SettingsList, 0, len(envs))
	for _, env := range envs {
		s, err := newSettings(env.Kind)
		if err != nil {
			return err
		}
		if err := env.Spec.Decode(s); err != nil {
			return fmt.Errorf("decode %s settings: %w", env.Kind, err)
		}
		out = append(out, s)
	}
	*l = out
	return nil
}
