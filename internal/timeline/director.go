// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package timeline

// Director is the in-process playback controller. It advances a sequence in
// frame steps when ticked and drives the child controllers bound to control
// clips, mapping composite time to child-local time.
//
// A Director is also a scene node, so it can be referenced through
// sceneref handles.
type Director struct {
	name string
	path string
	seq  *Sequence

	time    float64
	state   PlayState
	pending int // ticks remaining until Play takes effect

	// StartLatencyTicks delays the Playing state after Play by the given
	// number of Advance calls. Real playback engines need a settle period;
	// tests use it to exercise the startup timeout path.
	StartLatencyTicks int
}

// NewDirector creates a stopped controller for the sequence.
func NewDirector(name, path string, seq *Sequence) *Director {
	return &Director{
		name:  name,
		path:  path,
		seq:   seq,
		state: StateStopped,
	}
}

// Name implements sceneref.Node.
func (d *Director) Name() string { return d.name }

// Path implements sceneref.Node.
func (d *Director) Path() string { return d.path }

// Sequence returns the sequence under control.
func (d *Director) Sequence() *Sequence { return d.seq }

// Time returns the current local time in seconds.
func (d *Director) Time() float64 { return d.time }

// State returns the playback state.
func (d *Director) State() PlayState { return d.state }

// Play rewinds and starts playback. With a start latency the controller
// reports Paused until the latency has elapsed.
func (d *Director) Play() {
	d.time = 0
	if d.StartLatencyTicks > 0 {
		d.pending = d.StartLatencyTicks
		d.state = StatePaused
		return
	}
	d.state = StatePlaying
}

// Stop halts playback, keeping the current time.
func (d *Director) Stop() {
	d.state = StateStopped
	d.pending = 0
}

// Evaluate positions the sequence at t and evaluates covering control clips
// into their children.
func (d *Director) Evaluate(t float64) {
	d.time = t
	d.evaluateChildren(t)
}

// Advance moves playback forward by dt seconds. It is the per-tick entry
// point; outside the Playing state (and pending start) it does nothing.
// Playback stops naturally when the sequence end is reached.
func (d *Director) Advance(dt float64) {
	if d.pending > 0 {
		d.pending--
		if d.pending == 0 {
			d.state = StatePlaying
		}
		return
	}
	if d.state != StatePlaying {
		return
	}

	d.time += dt
	end := d.seq.Duration()
	// Accumulated frame deltas land just shy of the exact end, so detect
	// the final frame within half a step and clamp.
	if d.time >= end-dt/2 {
		d.time = end
		d.evaluateChildren(end)
		d.state = StateStopped
		return
	}
	d.evaluateChildren(d.time)
}

func (d *Director) evaluateChildren(t float64) {
	for _, track := range d.seq.Tracks {
		if track.Kind != TrackControl {
			continue
		}
		for _, clip := range track.Clips {
			if clip.Child == nil {
				continue
			}
			if clip.Covers(t) {
				clip.Child.Evaluate(t - clip.Start)
			}
		}
	}
}

var _ Controller = (*Director)(nil)
