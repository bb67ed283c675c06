// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/ManuGH/multirec/internal/bus"
	mrlog "github.com/ManuGH/multirec/internal/log"
	"github.com/ManuGH/multirec/internal/orchestrator"
)

// newEventLogBus wires a bus whose orchestrator topics are mirrored into the
// structured log, giving headless runs visible lifecycle output.
func newEventLogBus() *bus.Bus {
	b := bus.New()
	logger := mrlog.WithComponent("events")

	b.Subscribe(orchestrator.TopicStateChanged, func(ev bus.Event) {
		e := ev.(orchestrator.JobEvent)
		logger.Info().
			Str(mrlog.FieldJobID, e.JobID).
			Str(mrlog.FieldNewState, string(e.State)).
			Msg("job state changed")
	})

	// Progress fires every tick; log once per decile.
	lastDecile := -1
	b.Subscribe(orchestrator.TopicProgress, func(ev bus.Event) {
		e := ev.(orchestrator.JobEvent)
		decile := int(e.Progress * 10)
		if decile == lastDecile {
			return
		}
		lastDecile = decile
		logger.Info().
			Str(mrlog.FieldJobID, e.JobID).
			Float64(mrlog.FieldProgress, e.Progress).
			Int(mrlog.FieldFrame, e.CurrentFrame).
			Msg("recording progress")
	})

	b.Subscribe(orchestrator.TopicFailed, func(ev bus.Event) {
		e := ev.(orchestrator.JobEvent)
		logger.Error().
			Str(mrlog.FieldJobID, e.JobID).
			Str(mrlog.FieldReason, string(e.Reason)).
			Msg(e.Message)
	})

	return b
}
