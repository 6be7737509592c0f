// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package line

import (
	"io"

	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// OutputCloser is an output line that owns a device handle
type OutputCloser interface {
	rts.Output
	io.Closer
}

// Hardware is a FrameSender that bit-bangs frames on a local output line
type Hardware struct {
	tx  *rts.Transmitter
	out OutputCloser
}

// NewHardware wraps an output line and a delay source in a Transmitter
func NewHardware(out OutputCloser, delay rts.Delay) *Hardware {
	return &Hardware{
		tx:  rts.NewTransmitter(out, delay),
		out: out,
	}
}

// SendFrameRepeat implements rts.FrameSender
func (h *Hardware) SendFrameRepeat(frame rts.Frame, repetitions int) error {
	unlock := LockThread()
	defer unlock()
	return h.tx.SendFrameRepeat(frame, repetitions)
}

// Close releases the output line
func (h *Hardware) Close() error {
	return h.out.Close()
}
