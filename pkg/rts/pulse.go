// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

// Pulse is a period during which the line is held at one level
type Pulse struct {
	Level    Level
	Duration uint32 // microseconds
}

// PulseRecorder is an Output and Delay that records the pulse train instead
// of driving hardware. Consecutive periods at the same level are merged.
type PulseRecorder struct {
	pulses  []Pulse
	level   Level
	started bool
	pending uint32
}

// NewPulseRecorder creates an empty recorder
func NewPulseRecorder() *PulseRecorder {
	return &PulseRecorder{}
}

// SetLevel implements Output
func (r *PulseRecorder) SetLevel(level Level) error {
	if r.started && level != r.level {
		r.flush()
	}
	r.level = level
	r.started = true
	return nil
}

// DelayMicroseconds implements Delay
func (r *PulseRecorder) DelayMicroseconds(us uint32) error {
	r.pending += us
	return nil
}

func (r *PulseRecorder) flush() {
	if r.pending > 0 {
		r.pulses = append(r.pulses, Pulse{Level: r.level, Duration: r.pending})
	}
	r.pending = 0
}

// Pulses returns the recorded pulse train, including the current period
func (r *PulseRecorder) Pulses() []Pulse {
	out := make([]Pulse, len(r.pulses), len(r.pulses)+1)
	copy(out, r.pulses)
	if r.started && r.pending > 0 {
		out = append(out, Pulse{Level: r.level, Duration: r.pending})
	}
	return out
}

// Duration returns the total recorded time in microseconds
func (r *PulseRecorder) Duration() uint64 {
	var total uint64
	for _, p := range r.Pulses() {
		total += uint64(p.Duration)
	}
	return total
}

// Reset discards everything recorded so far
func (r *PulseRecorder) Reset() {
	r.pulses = r.pulses[:0]
	r.started = false
	r.pending = 0
	r.level = Low
}

// RecordFrame returns the pulse train a Transmitter emits for a frame sent
// with the given number of repetitions.
func RecordFrame(frame Frame, repetitions int) ([]Pulse, error) {
	rec := NewPulseRecorder()
	if err := NewTransmitter(rec, rec).SendFrameRepeat(frame, repetitions); err != nil {
		return nil, err
	}
	return rec.Pulses(), nil
}
