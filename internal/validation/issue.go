// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package validation checks recording configurations, predicts their
// resource demand and applies auto-repair strategies.
package validation

import "strings"

// Severity ranks an issue. Errors block a run; warnings advise.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a compact, typed issue class. Repair strategies match on it.
type Code string

const (
	CodeFrameRate  Code = "frame_rate"
	CodeResolution Code = "resolution"
	CodeOutputPath Code = "output_path"
	CodeReference  Code = "reference"
	CodeCodec      Code = "codec"
	CodeStream     Code = "stream"
	CodeStructure  Code = "structure"
)

// Issue is one validation finding, scoped by Field to the configuration
// element that raised it.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// Report is the result of validating one configuration.
type Report struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Errors returns the blocking issues.
func (r Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the advisory issues.
func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// deriveCode classifies an accumulated field error by its field name.
func deriveCode(field string) Code {
	switch {
	case strings.Contains(field, "FrameRate"):
		return CodeFrameRate
	case strings.Contains(field, "Resolution"):
		return CodeResolution
	case strings.Contains(field, "OutputPath"):
		return CodeOutputPath
	case strings.Contains(field, "Reference"), strings.Contains(field, "Target"):
		return CodeReference
	case strings.Contains(field, "Codec"), strings.Contains(field, "Container"):
		return CodeCodec
	case strings.Contains(field, "Timelines"):
		return CodeStructure
	}
	return CodeStream
}
