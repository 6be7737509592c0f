// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

import (
	"errors"
	"fmt"
)

// ErrNegativeRepetitions is returned when a send asks for fewer than zero
// repeated frames. Nothing is emitted.
var ErrNegativeRepetitions = errors.New("repetitions must not be negative")

// ErrUnconfirmed is wrapped by senders that handed a frame off but could not
// confirm it was emitted, e.g. a bridge whose ack never arrived.
var ErrUnconfirmed = errors.New("transmission not confirmed")

// BuildError reports a frame field that cannot be encoded
type BuildError struct {
	Field  string
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build frame: invalid %s: %s", e.Field, e.Reason)
}

// TransmitError reports an output or delay failure while emitting a frame.
// The rolling code was not advanced. Frames after Repetition were never sent.
type TransmitError struct {
	// Repetition is the 0-based index of the frame that failed, or -1 when
	// the sender cannot tell which frame it was.
	Repetition int
	Err        error
}

func (e *TransmitError) Error() string {
	if e.Repetition < 0 {
		return fmt.Sprintf("transmit: %v", e.Err)
	}
	return fmt.Sprintf("transmit frame %d: %v", e.Repetition, e.Err)
}

func (e *TransmitError) Unwrap() error {
	return e.Err
}

// StorageError reports that a command was transmitted and the rolling code
// advanced, but the new code could not be persisted. Until a later persist
// succeeds, a restart reloads an already used code and the receiver will
// ignore the next command.
type StorageError struct {
	Address     Address
	RollingCode uint16
	Err         error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("persist rolling code %d for remote %s: %v", e.RollingCode, e.Address, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// UnconfirmedError reports a send whose outcome is unknown. The frame may be
// on air, so the rolling code was advanced and persisted as if it were.
type UnconfirmedError struct {
	Address     Address
	RollingCode uint16
	Err         error
}

func (e *UnconfirmedError) Error() string {
	return fmt.Sprintf("remote %s: rolling code advanced to %d: %v", e.Address, e.RollingCode, e.Err)
}

func (e *UnconfirmedError) Unwrap() error {
	return e.Err
}

// UnknownCommandError reports a command name outside the RTS vocabulary
type UnknownCommandError struct {
	Input string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Input)
}
