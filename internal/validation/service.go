// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validation

import (
	"fmt"
	"os"

	"github.com/ManuGH/multirec/internal/config"
	"github.com/ManuGH/multirec/internal/metrics"
	"github.com/ManuGH/multirec/internal/recorder"
	"github.com/ManuGH/multirec/internal/sceneref"
	"github.com/ManuGH/multirec/internal/validate"
)

// Service validates configurations against the live scene.
type Service struct {
	tracker  *sceneref.Tracker
	registry *recorder.Registry
}

// NewService creates a validation service over the given tracker and
// adapter registry.
func NewService(tracker *sceneref.Tracker, registry *recorder.Registry) *Service {
	return &Service{tracker: tracker, registry: registry}
}

// Validate runs the structural checks plus one validator per stream kind.
// A reference failure on one stream never stops validation of the others:
// every issue is collected and reported.
func (s *Service) Validate(cfg *config.RecordingConfiguration) Report {
	var issues []Issue

	v := validate.New()
	v.FrameRate("FrameRate", cfg.FrameRate)
	v.Resolution("Resolution", cfg.Width, cfg.Height)
	v.NotEmpty("OutputPath", cfg.OutputPath)
	issues = append(issues, fromValidator(v, SeverityError)...)

	// A missing directory is a warning: auto-repair creates it.
	if cfg.OutputPath != "" {
		if _, err := os.Stat(cfg.OutputPath); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Code:     CodeOutputPath,
				Field:    "OutputPath",
				Message:  fmt.Sprintf("output directory %q does not exist", cfg.OutputPath),
			})
		}
	}

	if len(cfg.EnabledTimelines()) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeStructure,
			Field:    "Timelines",
			Message:  "configuration has no enabled timeline",
		})
	}

	for _, tl := range cfg.Timelines {
		if !tl.Enabled {
			continue
		}
		issues = append(issues, s.validateTimeline(cfg, tl)...)
	}

	for _, i := range issues {
		metrics.ValidationIssuesTotal.WithLabelValues(string(i.Severity)).Inc()
	}

	report := Report{Issues: issues}
	report.Valid = len(report.Errors()) == 0
	return report
}

func (s *Service) validateTimeline(cfg *config.RecordingConfiguration, tl config.TimelineConfig) []Issue {
	var issues []Issue

	scope := fmt.Sprintf("Timelines[%s]", tl.Name)
	if tl.Reference.IsZero() {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeReference,
			Field:    scope + ".Reference",
			Message:  "enabled timeline has no playback controller reference",
		})
	} else if err := s.tracker.Validate(tl.Reference); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeReference,
			Field:    scope + ".Reference",
			Message:  fmt.Sprintf("playback controller cannot be resolved: %v", err),
		})
	}

	for _, rec := range tl.Recorders {
		if !rec.Base().Enabled {
			continue
		}
		issues = append(issues, s.validateRecorder(cfg, scope, rec)...)
	}
	return issues
}

func (s *Service) validateRecorder(cfg *config.RecordingConfiguration, scope string, rec recorder.Settings) []Issue {
	var issues []Issue
	field := fmt.Sprintf("%s.%s[%s]", scope, rec.Kind(), rec.Base().Name)

	v := validate.New()
	rec.Validate(v)
	issues = append(issues, fromValidator(v, SeverityError)...)

	adapter, ok := s.registry.Lookup(rec.Kind())
	if !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeStream,
			Field:    field,
			Message:  fmt.Sprintf("no capture adapter registered for kind %q", rec.Kind()),
		})
		return issues
	}

	// A dangling target handle fails only this stream.
	if adapter.Capabilities().RequiresTarget {
		if h := recorder.TargetHandle(rec); !h.IsZero() {
			if err := s.tracker.Validate(h); err != nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     CodeReference,
					Field:    field + ".Target",
					Message:  fmt.Sprintf("target node cannot be resolved: %v", err),
				})
			}
		}
	}

	// Per-stream frame rates are not supported: the engine has one
	// evaluation clock. The override is ignored and flagged.
	if rate := recorder.StreamFrameRate(rec); rate != 0 && rate != cfg.FrameRate {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeFrameRate,
			Field:    field + ".FrameRate",
			Message: fmt.Sprintf("stream frame rate %g is overridden by the global rate %g",
				rate, cfg.FrameRate),
		})
	}

	return issues
}

func fromValidator(v *validate.Validator, sev Severity) []Issue {
	var out []Issue
	for _, e := range v.Errors() {
		out = append(out, Issue{
			Severity: sev,
			Code:     deriveCode(e.Field),
			Field:    e.Field,
			Message:  e.Message,
		})
	}
	return out
}
