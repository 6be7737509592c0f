// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package line

import (
	"fmt"
	"io"
	"sync"

	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// Printer is a FrameSender that prints the frame and its pulse train instead
// of transmitting. Nothing is timed.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// SendFrameRepeat implements rts.FrameSender
func (p *Printer) SendFrameRepeat(frame rts.Frame, repetitions int) error {
	pulses, err := rts.RecordFrame(frame, repetitions)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprint(p.w, rts.FormatFrame(frame)); err != nil {
		return err
	}
	fmt.Fprintf(p.w, "Repetitions: %d\n", repetitions)
	_, err = fmt.Fprint(p.w, rts.FormatPulses(pulses))
	return err
}

// Close implements io.Closer
func (p *Printer) Close() error {
	return nil
}
