// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

// State is the recording job lifecycle.
type State string

const (
	StatePending        State = "PENDING"
	StatePreparing      State = "PREPARING"
	StateRecording      State = "RECORDING"
	StatePostProcessing State = "POST_PROCESSING"
	StateCompleted      State = "COMPLETED"
	StateCancelled      State = "CANCELLED"
	StateFailed         State = "FAILED"
)

// IsTerminal reports whether the job can no longer advance.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

// Reason classifies why a job ended.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonValidation  Reason = "validation"
	ReasonReference   Reason = "reference"
	ReasonBusy        Reason = "busy"
	ReasonComposition Reason = "composition"
	ReasonExecution   Reason = "execution"
	ReasonTimeout     Reason = "timeout"
	ReasonCancelled   Reason = "cancelled"
)

// Bus topics published by the orchestrator.
const (
	TopicStarted      = "recording.started"
	TopicStateChanged = "recording.state"
	TopicProgress     = "recording.progress"
	TopicCompleted    = "recording.completed"
	TopicFailed       = "recording.failed"
	TopicCancelled    = "recording.cancelled"
)

// JobEvent is the payload on every orchestrator topic.
type JobEvent struct {
	JobID        string
	State        State
	Progress     float64
	CurrentFrame int
	Reason       Reason
	Message      string
}
