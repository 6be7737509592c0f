// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

import (
	"sync"
)

// Level is the state of a binary output line
type Level uint8

// Output levels
const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "High"
	}
	return "Low"
}

// Output drives the data input of a radio transmitter
type Output interface {
	SetLevel(level Level) error
}

// Delay blocks for a number of microseconds
type Delay interface {
	DelayMicroseconds(us uint32) error
}

// FrameSender emits a frame once followed by a number of repetitions
type FrameSender interface {
	SendFrameRepeat(frame Frame, repetitions int) error
}

// Transmitter bit-bangs frames on an output line.
//
// The host is assumed to honour sub-millisecond delays without large
// scheduling jitter. Transmitter serialises its own calls, but nothing else
// may drive the same line while a send is in progress.
type Transmitter struct {
	mu    sync.Mutex
	out   Output
	delay Delay
}

// NewTransmitter creates a transmitter on the given output and delay
func NewTransmitter(out Output, delay Delay) *Transmitter {
	return &Transmitter{out: out, delay: delay}
}

// SendFrame sends a frame once
func (t *Transmitter) SendFrame(frame Frame) error {
	return t.SendFrameRepeat(frame, 0)
}

// SendFrameRepeat sends a frame 1+repetitions times. The first frame carries
// the wake-up pulse and the short hardware sync, the following frames use the
// repeat sync. The first failure aborts the call.
func (t *Transmitter) SendFrameRepeat(frame Frame, repetitions int) error {
	if repetitions < 0 {
		return &TransmitError{Repetition: 0, Err: ErrNegativeRepetitions}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.wakeUp(); err != nil {
		return &TransmitError{Repetition: 0, Err: err}
	}
	if err := t.sendFrame(frame, SyncOnce); err != nil {
		return &TransmitError{Repetition: 0, Err: err}
	}

	for i := 1; i <= repetitions; i++ {
		if err := t.sendFrame(frame, SyncRepeat); err != nil {
			return &TransmitError{Repetition: i, Err: err}
		}
	}

	return nil
}

func (t *Transmitter) sendFrame(frame Frame, sync SyncType) error {
	if err := t.hardwareSync(sync); err != nil {
		return err
	}
	if err := t.softwareSync(); err != nil {
		return err
	}

	for _, b := range frame {
		if err := t.sendByte(b); err != nil {
			return err
		}
	}

	return t.send(Low, InterFrameGap)
}

func (t *Transmitter) wakeUp() error {
	if err := t.send(High, WakeUpHigh); err != nil {
		return err
	}
	return t.send(Low, WakeUpLow)
}

func (t *Transmitter) hardwareSync(sync SyncType) error {
	for i := 0; i < sync.Pairs(); i++ {
		if err := t.send(High, HardwareSyncWidth); err != nil {
			return err
		}
		if err := t.send(Low, HardwareSyncWidth); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transmitter) softwareSync() error {
	if err := t.send(High, SoftwareSyncHigh); err != nil {
		return err
	}
	return t.send(Low, SoftwareSyncLow)
}

// sendByte sends the most significant bit first
func (t *Transmitter) sendByte(b byte) error {
	for bit := 7; bit >= 0; bit-- {
		if err := t.sendBit(b&(1<<bit) != 0); err != nil {
			return err
		}
	}
	return nil
}

// sendBit Manchester-encodes one bit: 1 is low then high, 0 is high then low
func (t *Transmitter) sendBit(bit bool) error {
	first, second := High, Low
	if bit {
		first, second = Low, High
	}
	if err := t.send(first, HalfSymbol); err != nil {
		return err
	}
	return t.send(second, HalfSymbol)
}

func (t *Transmitter) send(level Level, us uint32) error {
	if err := t.out.SetLevel(level); err != nil {
		return err
	}
	return t.delay.DelayMicroseconds(us)
}
