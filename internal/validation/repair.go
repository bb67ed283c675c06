// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validation

import (
	"fmt"
	"os"

	"github.com/ManuGH/multirec/internal/config"
	"github.com/ManuGH/multirec/internal/metrics"
)

// Repair records one auto-repair attempt. Applied repairs must be surfaced
// to the user as warnings; nothing is fixed silently.
type Repair struct {
	Issue       Issue  `json:"issue"`
	Strategy    string `json:"strategy"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
}

// strategy is one ordered repair rule. Apply mutates the configuration and
// describes the change, or errors when it cannot fix this issue instance.
type strategy struct {
	name  string
	match func(Issue) bool
	apply func(*Service, *config.RecordingConfiguration, Issue) (string, error)
}

// Strategies run in a fixed order; the first success per issue wins.
var strategies = []strategy{
	{
		name:  "frame_rate_reconciliation",
		match: func(i Issue) bool { return i.Code == CodeFrameRate && i.Severity == SeverityError },
		apply: func(_ *Service, cfg *config.RecordingConfiguration, _ Issue) (string, error) {
			old := cfg.FrameRate
			switch {
			case cfg.FrameRate < 1:
				cfg.FrameRate = 30
			case cfg.FrameRate > 120:
				cfg.FrameRate = 120
			default:
				return "", fmt.Errorf("frame rate %g is already in range", cfg.FrameRate)
			}
			return fmt.Sprintf("frame rate reconciled from %g to %g", old, cfg.FrameRate), nil
		},
	},
	{
		name:  "resolution_clamp",
		match: func(i Issue) bool { return i.Code == CodeResolution && i.Severity == SeverityError },
		apply: func(_ *Service, cfg *config.RecordingConfiguration, _ Issue) (string, error) {
			oldW, oldH := cfg.Width, cfg.Height
			w, h := clampAxis(cfg.Width), clampAxis(cfg.Height)
			if w == oldW && h == oldH {
				return "", fmt.Errorf("resolution %dx%d is already in range", oldW, oldH)
			}
			cfg.Width, cfg.Height = w, h
			return fmt.Sprintf("resolution clamped from %dx%d to %dx%d", oldW, oldH, w, h), nil
		},
	},
	{
		name:  "output_path_creation",
		match: func(i Issue) bool { return i.Code == CodeOutputPath },
		apply: func(_ *Service, cfg *config.RecordingConfiguration, _ Issue) (string, error) {
			if cfg.OutputPath == "" {
				return "", fmt.Errorf("no output path to create")
			}
			if err := os.MkdirAll(cfg.OutputPath, 0750); err != nil {
				return "", fmt.Errorf("create output path: %w", err)
			}
			return fmt.Sprintf("output path %q created", cfg.OutputPath), nil
		},
	},
	{
		name:  "reference_reselection",
		match: func(i Issue) bool { return i.Code == CodeReference },
		apply: func(s *Service, cfg *config.RecordingConfiguration, issue Issue) (string, error) {
			// Drop stale cached bindings, then retry; the tracker's
			// replacement prompt may also supply a new node.
			s.tracker.RefreshAll()
			for _, remaining := range s.Validate(cfg).Errors() {
				if remaining.Code == CodeReference {
					return "", fmt.Errorf("reference still unresolved: %s", remaining.Field)
				}
			}
			return "scene references re-resolved", nil
		},
	},
}

const maxAxis = 8192

func clampAxis(v int) int {
	if v <= 0 {
		return 1080
	}
	if v > maxAxis {
		return maxAxis
	}
	return v
}

// AutoRepair validates the configuration and attempts one repair per issue,
// walking the fixed strategy list in order and stopping at the first
// success. Issues no strategy matches (or fixes) come back unapplied.
func (s *Service) AutoRepair(cfg *config.RecordingConfiguration) []Repair {
	report := s.Validate(cfg)

	var repairs []Repair
	for _, issue := range report.Issues {
		repaired := false
		for _, st := range strategies {
			if !st.match(issue) {
				continue
			}
			desc, err := st.apply(s, cfg, issue)
			if err != nil {
				metrics.AutoRepairTotal.WithLabelValues(st.name, "failed").Inc()
				continue
			}
			metrics.AutoRepairTotal.WithLabelValues(st.name, "applied").Inc()
			repairs = append(repairs, Repair{
				Issue:       issue,
				Strategy:    st.name,
				Description: desc,
				Applied:     true,
			})
			repaired = true
			break
		}
		if !repaired {
			repairs = append(repairs, Repair{Issue: issue, Applied: false})
		}
	}
	return repairs
}
