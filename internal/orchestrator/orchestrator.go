// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package orchestrator drives recording jobs through their state machine.
// The machine is poll-based: the host calls Tick once per frame and the
// active job advances only there. At most one job is non-terminal at a time.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/multirec/internal/bus"
	"github.com/ManuGH/multirec/internal/compose"
	"github.com/ManuGH/multirec/internal/config"
	"github.com/ManuGH/multirec/internal/log"
	"github.com/ManuGH/multirec/internal/metrics"
	"github.com/ManuGH/multirec/internal/sceneref"
	"github.com/ManuGH/multirec/internal/timeline"
	"github.com/ManuGH/multirec/internal/validation"
)

// MsgAlreadyInProgress is the fixed message returned when a second job is
// started while one is still running. Callers match on it.
const MsgAlreadyInProgress = "recording already in progress"

const (
	// Ticks the host gets to settle after playback starts.
	settleTicks = 1
	// Bounded wait for the controller to report playing.
	maxStartWaitTicks = 10
)

// Session is the host's interactive preview session. Entered at job start,
// exited during cleanup. Both calls are side effects outside the state
// machine contract.
type Session interface {
	Enter() error
	Exit() error
}

// Result is the final outcome of one recording run.
type Result struct {
	JobID       string   `json:"jobId,omitempty"`
	State       State    `json:"state"`
	Reason      Reason   `json:"reason,omitempty"`
	Message     string   `json:"message,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	OutputPaths []string `json:"outputPaths,omitempty"`
	Duration    float64  `json:"duration,omitempty"`
	IsSuccess   bool     `json:"isSuccess"`
}

// Snapshot is a point-in-time view of a job for progress queries.
type Snapshot struct {
	JobID        string  `json:"jobId"`
	State        State   `json:"state"`
	Progress     float64 `json:"progress"`
	CurrentFrame int     `json:"currentFrame"`
	Reason       Reason  `json:"reason,omitempty"`
	LastError    string  `json:"lastError,omitempty"`
}

// Deps wires the orchestrator's collaborators. Composer, Tracker, Validator
// and Bus are required; Session and NewController are optional.
type Deps struct {
	Composer  *compose.Composer
	Tracker   *sceneref.Tracker
	Validator *validation.Service
	Bus       *bus.Bus
	Session   Session

	// NewController builds the temporary playback controller for a
	// composite. Defaults to an in-process Director.
	NewController func(*compose.Composite) timeline.Controller
}

type busEvent struct {
	topic   string
	payload JobEvent
}

// job is the orchestrator-owned state of one run. All fields are guarded by
// the orchestrator mutex.
type job struct {
	id  string
	cfg *config.RecordingConfiguration

	state   State
	reason  Reason
	message string

	progress float64
	frame    int

	settle    int
	startWait int
	ticks     int
	maxTicks  int
	playing   bool

	cancelRequested bool
	cleanedUp       bool
	delivered       bool
	sessionEntered  bool

	composite  *compose.Composite
	controller timeline.Controller
	outputs    []string
	warnings   []string

	events []busEvent
	result Result
	done   chan Result
	stop   chan struct{}
}

// Orchestrator owns the job registry and the single active job.
type Orchestrator struct {
	mu     sync.Mutex
	deps   Deps
	logger zerolog.Logger
	jobs   map[string]*job
	active *job
}

// New creates an orchestrator over its collaborators.
func New(deps Deps) *Orchestrator {
	if deps.NewController == nil {
		deps.NewController = func(c *compose.Composite) timeline.Controller {
			return timeline.NewDirector(c.Sequence.Name, "__composite/"+c.ID, c.Sequence)
		}
	}
	return &Orchestrator{
		deps:   deps,
		logger: log.WithComponent("orchestrator"),
		jobs:   make(map[string]*job),
	}
}

// ExecuteRecording runs one recording to completion, acting as its own tick
// source. Frames are evaluated as fast as the machine allows; offline runs
// are not bound to wall-clock playback. Cancelling ctx cancels the job
// cooperatively.
func (o *Orchestrator) ExecuteRecording(ctx context.Context, cfg *config.RecordingConfiguration) Result {
	j, pre := o.startJob(cfg)
	if pre != nil {
		return *pre
	}
	for {
		select {
		case r := <-j.done:
			return r
		default:
		}
		if ctx.Err() != nil {
			_ = o.Cancel(j.id)
		}
		o.Tick()
	}
}

// ExecuteRecordingAsync registers the job and returns a channel delivering
// its final result. The state machine still advances only on host Tick
// calls; pre-job failures deliver immediately with no job registered.
func (o *Orchestrator) ExecuteRecordingAsync(ctx context.Context, cfg *config.RecordingConfiguration) <-chan Result {
	j, pre := o.startJob(cfg)
	if pre != nil {
		ch := make(chan Result, 1)
		ch <- *pre
		return ch
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = o.Cancel(j.id)
		case <-j.stop:
		}
	}()
	return j.done
}

// Cancel requests cooperative cancellation. The job reaches Cancelled on the
// next tick, at most one tick of latency.
func (o *Orchestrator) Cancel(jobID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	j, ok := o.jobs[jobID]
	if !ok {
		return fmt.Errorf("unknown job %q", jobID)
	}
	if j.state.IsTerminal() {
		return fmt.Errorf("job %q already finished", jobID)
	}
	j.cancelRequested = true
	return nil
}

// Progress returns the current snapshot of a job, terminal or not.
func (o *Orchestrator) Progress(jobID string) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	j, ok := o.jobs[jobID]
	if !ok {
		return Snapshot{}, fmt.Errorf("unknown job %q", jobID)
	}
	return Snapshot{
		JobID:        j.id,
		State:        j.state,
		Progress:     j.progress,
		CurrentFrame: j.frame,
		Reason:       j.reason,
		LastError:    j.message,
	}, nil
}

// Tick advances the active job by one frame step. Events collected during
// the step are published after the orchestrator lock is released, and the
// final result is delivered exactly once.
func (o *Orchestrator) Tick() {
	o.mu.Lock()
	j := o.active
	if j == nil {
		o.mu.Unlock()
		return
	}

	if j.cancelRequested {
		o.cancelLocked(j)
	} else {
		o.step(j)
	}

	events := j.events
	j.events = nil
	var deliver *Result
	if j.state.IsTerminal() && !j.delivered {
		j.delivered = true
		r := j.result
		deliver = &r
		close(j.stop)
	}
	o.mu.Unlock()

	for _, e := range events {
		o.deps.Bus.Publish(e.topic, e.payload)
	}
	if deliver != nil {
		j.done <- *deliver
	}
}

// startJob validates the configuration and registers the job, or returns a
// pre-job failure result with no job id issued.
func (o *Orchestrator) startJob(cfg *config.RecordingConfiguration) (*job, *Result) {
	warnings, pre := o.gate(cfg)
	if pre != nil {
		return nil, pre
	}

	o.mu.Lock()
	if o.active != nil && !o.active.state.IsTerminal() {
		o.mu.Unlock()
		return nil, &Result{
			State:   StateFailed,
			Reason:  ReasonBusy,
			Message: MsgAlreadyInProgress,
		}
	}
	j := &job{
		id:       uuid.NewString(),
		cfg:      cfg,
		state:    StatePending,
		warnings: warnings,
		done:     make(chan Result, 1),
		stop:     make(chan struct{}),
	}
	o.jobs[j.id] = j
	o.active = j
	metrics.ActiveJobs.Inc()
	o.mu.Unlock()

	o.logger.Info().
		Str(log.FieldJobID, j.id).
		Str(log.FieldConfigID, cfg.ID).
		Msg("recording job registered")
	o.deps.Bus.Publish(TopicStarted, JobEvent{JobID: j.id, State: StatePending})
	return j, nil
}

// gate validates before any job exists. Validation errors block the run and
// are never coerced; unresolvable references get one auto-repair attempt
// first. Warnings carry into the result.
func (o *Orchestrator) gate(cfg *config.RecordingConfiguration) ([]string, *Result) {
	report := o.deps.Validator.Validate(cfg)

	var warnings []string
	if !report.Valid && onlyReferenceErrors(report) {
		for _, r := range o.deps.Validator.AutoRepair(cfg) {
			if r.Applied {
				warnings = append(warnings, r.Description)
			}
		}
		report = o.deps.Validator.Validate(cfg)
	}
	for _, w := range report.Warnings() {
		warnings = append(warnings, w.Message)
	}

	if !report.Valid {
		reason := ReasonValidation
		if onlyReferenceErrors(report) {
			reason = ReasonReference
		}
		return nil, &Result{
			State:    StateFailed,
			Reason:   reason,
			Message:  report.Errors()[0].Message,
			Warnings: warnings,
		}
	}
	return warnings, nil
}

func onlyReferenceErrors(r validation.Report) bool {
	for _, i := range r.Errors() {
		if i.Code != validation.CodeReference {
			return false
		}
	}
	return true
}

func (o *Orchestrator) step(j *job) {
	switch j.state {
	case StatePending:
		o.transition(j, StatePreparing)
	case StatePreparing:
		o.prepare(j)
	case StateRecording:
		o.record(j)
	case StatePostProcessing:
		o.cleanup(j)
		o.terminal(j, StateCompleted, ReasonNone, "")
	}
}

func (o *Orchestrator) prepare(j *job) {
	comp, err := o.deps.Composer.Compose(context.Background(), j.cfg, o.deps.Tracker)
	if err != nil {
		o.fail(j, ReasonComposition, err)
		return
	}
	j.composite = comp
	j.maxTicks = int(comp.Duration*j.cfg.FrameRate)*2 + maxStartWaitTicks + 16
	for _, tr := range comp.Sequence.Tracks {
		if tr.Kind != timeline.TrackCapture {
			continue
		}
		for _, c := range tr.Clips {
			if c.Capture != nil {
				j.outputs = append(j.outputs, c.Capture.OutputPath())
			}
		}
	}

	if o.deps.Session != nil {
		if err := o.deps.Session.Enter(); err != nil {
			o.fail(j, ReasonExecution, fmt.Errorf("enter preview session: %w", err))
			return
		}
		j.sessionEntered = true
	}

	j.controller = o.deps.NewController(comp)
	j.controller.Play()
	j.settle = settleTicks
	o.transition(j, StateRecording)
}

func (o *Orchestrator) record(j *job) {
	dt := 1 / j.cfg.FrameRate

	if j.settle > 0 {
		j.settle--
		return
	}

	if !j.playing {
		if j.controller.State() != timeline.StatePlaying {
			j.controller.Advance(dt)
			if j.controller.State() != timeline.StatePlaying {
				j.startWait++
				if j.startWait >= maxStartWaitTicks {
					o.fail(j, ReasonTimeout,
						fmt.Errorf("controller not playing after %d ticks", maxStartWaitTicks))
				}
				return
			}
		}
		j.playing = true
		return
	}

	if j.controller.State() == timeline.StateStopped {
		if j.progress < 1-1e-9 {
			o.fail(j, ReasonExecution, fmt.Errorf("playback stopped at progress %.3f", j.progress))
			return
		}
		o.transition(j, StatePostProcessing)
		return
	}

	j.controller.Advance(dt)
	t := j.controller.Time()
	j.progress = t / j.composite.Duration
	if j.progress > 1 {
		j.progress = 1
	}
	j.frame = int(t * j.cfg.FrameRate)
	j.ticks++
	j.publish(TopicProgress)

	if j.controller.State() == timeline.StateStopped {
		j.progress = 1
		o.transition(j, StatePostProcessing)
		return
	}
	if j.ticks > j.maxTicks {
		o.fail(j, ReasonTimeout, fmt.Errorf("run exceeded expected duration after %d ticks", j.ticks))
	}
}

// transition moves the job to a non-terminal state.
func (o *Orchestrator) transition(j *job, to State) {
	from := j.state
	j.state = to
	metrics.RecordTransition(string(from), string(to))
	o.logger.Info().
		Str(log.FieldJobID, j.id).
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Msg("job state changed")
	j.publish(TopicStateChanged)
}

func (o *Orchestrator) fail(j *job, reason Reason, err error) {
	o.logger.Error().
		Str(log.FieldJobID, j.id).
		Str(log.FieldReason, string(reason)).
		Err(err).
		Msg("recording job failed")
	o.cleanup(j)
	o.terminal(j, StateFailed, reason, err.Error())
}

func (o *Orchestrator) cancelLocked(j *job) {
	o.cleanup(j)
	o.terminal(j, StateCancelled, ReasonCancelled, "cancelled by request")
}

// cleanup releases the job's temporaries. It runs exactly once per job, for
// every terminal outcome.
func (o *Orchestrator) cleanup(j *job) {
	if j.cleanedUp {
		return
	}
	j.cleanedUp = true

	if j.controller != nil {
		j.controller.Stop()
	}
	if j.composite != nil {
		if err := j.composite.Release(); err != nil {
			o.logger.Warn().Str(log.FieldJobID, j.id).Err(err).Msg("release composite")
		}
	}
	if j.sessionEntered {
		if err := o.deps.Session.Exit(); err != nil {
			o.logger.Warn().Str(log.FieldJobID, j.id).Err(err).Msg("exit preview session")
		}
	}
}

// terminal finalizes the job and records its result. The job stays in the
// registry for progress queries; only the active slot is freed.
func (o *Orchestrator) terminal(j *job, state State, reason Reason, msg string) {
	from := j.state
	j.state = state
	j.reason = reason
	j.message = msg

	metrics.RecordTransition(string(from), string(state))
	metrics.RecordOutcome(string(state), string(reason))
	metrics.ActiveJobs.Dec()
	o.active = nil

	var duration float64
	if j.composite != nil {
		duration = j.composite.Duration
	}
	j.result = Result{
		JobID:       j.id,
		State:       state,
		Reason:      reason,
		Message:     msg,
		Warnings:    j.warnings,
		OutputPaths: j.outputs,
		Duration:    duration,
		IsSuccess:   state == StateCompleted,
	}

	j.publish(TopicStateChanged)
	switch state {
	case StateCompleted:
		j.publish(TopicCompleted)
	case StateCancelled:
		j.publish(TopicCancelled)
	case StateFailed:
		j.publish(TopicFailed)
	}
}

func (j *job) publish(topic string) {
	j.events = append(j.events, busEvent{topic: topic, payload: JobEvent{
		JobID:        j.id,
		State:        j.state,
		Progress:     j.progress,
		CurrentFrame: j.frame,
		Reason:       j.reason,
		Message:      j.message,
	}})
}
