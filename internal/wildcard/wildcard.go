// SPDX-License-Identifier: MIT

// Package wildcard resolves output-path token patterns like
// "<Scene>_<Timeline>_<Take>" into concrete file names.
package wildcard

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ManuGH/multirec/internal/log"
)

// Context holds the resolved token values for one path computation.
// It is created per resolution call and discarded afterwards.
type Context struct {
	Scene        string
	Timeline     string
	Recorder     string
	RecorderType string
	GameObject   string

	Take         int
	TimelineTake int
	RecorderTake int

	// Now overrides the clock for <Date> and <Time>. Zero means time.Now().
	Now time.Time
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Tokens expanded by the capture backend at frame-write time. The resolver
// must pass them through byte for byte.
var reserved = map[string]bool{
	"Frame":      true,
	"Resolution": true,
	"Extension":  true,
}

var tokenRE = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9]*)>`)

// CustomFunc produces the value for a caller-registered token.
type CustomFunc func(Context) string

// Resolver substitutes tokens in path patterns. The zero value is not usable;
// construct with New.
type Resolver struct {
	custom map[string]CustomFunc
}

// New creates a resolver with the built-in token table only.
func New() *Resolver {
	return &Resolver{custom: make(map[string]CustomFunc)}
}

// RegisterCustom adds a caller-defined token. Built-in and backend-reserved
// names cannot be shadowed.
func (r *Resolver) RegisterCustom(name string, fn CustomFunc) error {
	if fn == nil {
		return fmt.Errorf("wildcard: nil custom func for %q", name)
	}
	if reserved[name] || builtin(name) {
		return fmt.Errorf("wildcard: token %q is reserved", name)
	}
	r.custom[name] = fn
	return nil
}

// Resolve substitutes every recognized token in pattern and sanitizes the
// result. It is total: it never fails, and a pattern containing no recognized
// tokens is returned unchanged. Unknown tokens that are not backend-reserved
// are replaced with "_" and logged.
func (r *Resolver) Resolve(pattern string, ctx Context) string {
	matches := tokenRE.FindAllStringSubmatchIndex(pattern, -1)
	if len(matches) == 0 {
		return pattern
	}

	var b strings.Builder
	var subs []span
	last := 0
	for _, m := range matches {
		b.WriteString(pattern[last:m[0]])
		name := pattern[m[2]:m[3]]

		switch {
		case reserved[name]:
			// Leave the literal token for the capture backend.
			b.WriteString(pattern[m[0]:m[1]])
		default:
			value, known := r.lookup(name, ctx)
			if !known {
				logger := log.WithComponent("wildcard")
				logger.Warn().
					Str("token", name).
					Str("pattern", pattern).
					Msg("unknown token replaced with safe default")
				value = "_"
			}
			start := b.Len()
			b.WriteString(sanitizeValue(value))
			subs = append(subs, span{start, b.Len()})
		}
		last = m[1]
	}
	b.WriteString(pattern[last:])

	if len(subs) == 0 {
		return b.String()
	}
	return collapseSeparators(b.String(), subs)
}

func (r *Resolver) lookup(name string, ctx Context) (string, bool) {
	switch name {
	case "Scene":
		return ctx.Scene, true
	case "Timeline":
		return ctx.Timeline, true
	case "Recorder", "RecorderName":
		return ctx.Recorder, true
	case "RecorderType":
		return ctx.RecorderType, true
	case "GameObject":
		return ctx.GameObject, true
	case "Take":
		return pad(ctx.Take), true
	case "TimelineTake":
		return pad(ctx.TimelineTake), true
	case "RecorderTake":
		return pad(ctx.RecorderTake), true
	case "Date":
		return ctx.now().Format("2006-01-02"), true
	case "Time":
		return ctx.now().Format("150405"), true
	}
	if fn, ok := r.custom[name]; ok {
		return fn(ctx), true
	}
	return "", false
}

func builtin(name string) bool {
	switch name {
	case "Scene", "Timeline", "Recorder", "RecorderName", "RecorderType",
		"GameObject", "Take", "TimelineTake", "RecorderTake", "Date", "Time":
		return true
	}
	return false
}

// pad zero-pads counters to at least three digits without ever truncating.
func pad(n int) string {
	return fmt.Sprintf("%03d", n)
}

// sanitizeValue replaces characters that are illegal in file paths with "_".
// Forward slashes are kept so values may address subdirectories.
func sanitizeValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x20:
			b.WriteRune('_')
		case strings.ContainsRune(`<>:"|?*\`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var sepRuns = regexp.MustCompile(`//+|__+`)

// span marks the byte range a substituted value occupies in the output.
type span struct{ start, end int }

// collapseSeparators squeezes doubled separator runs, but only runs that
// touch a substituted value. Runs the caller wrote between plain literal
// text are kept as typed.
func collapseSeparators(s string, subs []span) string {
	runs := sepRuns.FindAllStringIndex(s, -1)
	if len(runs) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, run := range runs {
		if !touchesSub(run[0], run[1], subs) {
			continue
		}
		b.WriteString(s[last:run[0]])
		b.WriteByte(s[run[0]])
		last = run[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func touchesSub(start, end int, subs []span) bool {
	for _, sp := range subs {
		if sp.start <= end && sp.end >= start {
			return true
		}
	}
	return false
}
