// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

import (
	"errors"
	"fmt"
)

// RollingCodeStore durably records the rolling code of a remote. The entry
// is located by the remote's address.
type RollingCodeStore interface {
	Persist(remote *Remote) error
}

// Remote is a virtual RTS remote paired with one receiver. It owns the
// rolling code for its address.
//
// Sends follow a transmit-then-persist order: the code is advanced only after
// the frame went out, then written to the store. A crash or store failure
// between the two can replay a used code on the next start; the receiver
// then ignores one command and accepts the one after it. The alternative
// order would instead burn codes that were never sent.
//
// A sender that cannot tell whether the frame went out (ErrUnconfirmed) is
// treated as having sent it: the code is advanced and persisted, and the
// caller gets an *UnconfirmedError. Burning a code is harmless; reusing one
// that is on air gets the next command ignored.
type Remote struct {
	address     Address
	rollingCode uint16
	key         byte
}

// NewRemote creates a remote with the given address and next rolling code
func NewRemote(address Address, rollingCode uint16) *Remote {
	return &Remote{
		address:     address,
		rollingCode: rollingCode,
		key:         DefaultKey,
	}
}

// WithKey sets the whitening key used for this remote's frames
func (r *Remote) WithKey(key byte) *Remote {
	r.key = key
	return r
}

// Address returns the remote's 24-bit address
func (r *Remote) Address() Address {
	return r.address
}

// RollingCode returns the code the next frame will carry
func (r *Remote) RollingCode() uint16 {
	return r.rollingCode
}

// Key returns the whitening key
func (r *Remote) Key() byte {
	return r.key
}

func (r *Remote) String() string {
	return fmt.Sprintf("remote %s (rolling code %d)", r.address, r.rollingCode)
}

// Frame builds the frame the next send of cmd would emit
func (r *Remote) Frame(cmd Command) (Frame, error) {
	return NewFrame(r.key, cmd, r.rollingCode, r.address)
}

// Send sends a command once
func (r *Remote) Send(tx FrameSender, store RollingCodeStore, cmd Command) error {
	return r.SendRepeat(tx, store, cmd, 0)
}

// SendRepeat sends a command 1+repetitions times, then advances and persists
// the rolling code. A *TransmitError means nothing was committed; a
// *StorageError means the command went out but the new code is not durable;
// an *UnconfirmedError means it may have gone out and the code was advanced.
func (r *Remote) SendRepeat(tx FrameSender, store RollingCodeStore, cmd Command, repetitions int) error {
	frame, err := r.Frame(cmd)
	if err != nil {
		return err
	}

	if err := tx.SendFrameRepeat(frame, repetitions); err != nil {
		if errors.Is(err, ErrUnconfirmed) {
			r.rollingCode++
			if perr := store.Persist(r); perr != nil {
				return &StorageError{Address: r.address, RollingCode: r.rollingCode, Err: errors.Join(perr, err)}
			}
			return &UnconfirmedError{Address: r.address, RollingCode: r.rollingCode, Err: err}
		}
		var txErr *TransmitError
		if errors.As(err, &txErr) {
			return err
		}
		return &TransmitError{Repetition: -1, Err: err}
	}

	r.rollingCode++

	if err := store.Persist(r); err != nil {
		return &StorageError{Address: r.address, RollingCode: r.rollingCode, Err: err}
	}
	return nil
}
