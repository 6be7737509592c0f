// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Address is the 24-bit identity a receiver is paired with
type Address uint32

// Valid reports whether a fits in 24 bits
func (a Address) Valid() bool {
	return a <= MaxAddress
}

func (a Address) String() string {
	return fmt.Sprintf("0x%06X", uint32(a))
}

// ParseAddress parses a decimal or 0x-prefixed hexadecimal 24-bit address
func ParseAddress(s string) (Address, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	a := Address(v)
	if !a.Valid() {
		return 0, fmt.Errorf("invalid address %q: exceeds 24 bits", s)
	}
	return a, nil
}

// Frame is a whitened RTS frame, exactly as it goes over the air:
// [key, command|checksum, rolling code hi, rolling code lo, addr lo, addr mid, addr hi]
type Frame [FrameSize]byte

// Fields holds the de-whitened content of a frame
type Fields struct {
	Key         byte
	Command     Command
	Checksum    byte
	RollingCode uint16
	Address     Address
}

// NewFrame builds and whitens a frame.
func NewFrame(key byte, cmd Command, rollingCode uint16, address Address) (Frame, error) {
	if !cmd.Valid() {
		return Frame{}, &BuildError{Field: "command", Reason: fmt.Sprintf("code 0x%X is not a known command", uint8(cmd))}
	}
	if !address.Valid() {
		return Frame{}, &BuildError{Field: "address", Reason: fmt.Sprintf("%s exceeds 24 bits", address)}
	}

	var raw [FrameSize]byte
	raw[offsetKey] = key
	raw[offsetCommand] = byte(cmd) << 4
	binary.BigEndian.PutUint16(raw[offsetRollingCode:], rollingCode)
	raw[offsetAddress] = byte(address)
	raw[offsetAddress+1] = byte(address >> 8)
	raw[offsetAddress+2] = byte(address >> 16)

	raw[offsetCommand] |= Checksum(raw)

	whiten(&raw)
	return Frame(raw), nil
}

// Bytes returns a copy of the wire bytes
func (f Frame) Bytes() []byte {
	out := make([]byte, FrameSize)
	copy(out, f[:])
	return out
}

// Key returns the whitening seed, which is sent in clear
func (f Frame) Key() byte {
	return f[offsetKey]
}

// Fields reverses the whitening and splits the frame into its fields
func (f Frame) Fields() Fields {
	raw := [FrameSize]byte(f)
	dewhiten(&raw)

	return Fields{
		Key:         raw[offsetKey],
		Command:     Command(raw[offsetCommand] >> 4),
		Checksum:    raw[offsetCommand] & 0x0F,
		RollingCode: binary.BigEndian.Uint16(raw[offsetRollingCode:]),
		Address:     Address(uint32(raw[offsetAddress]) | uint32(raw[offsetAddress+1])<<8 | uint32(raw[offsetAddress+2])<<16),
	}
}

// ChecksumValid reports whether the embedded checksum matches the content
func (f Frame) ChecksumValid() bool {
	raw := [FrameSize]byte(f)
	dewhiten(&raw)
	return Checksum(raw) == 0
}

// whiten obfuscates a frame in place. Each byte is XORed with its already
// whitened predecessor, starting from the key.
func whiten(b *[FrameSize]byte) {
	for i := 1; i < FrameSize; i++ {
		b[i] ^= b[i-1]
	}
}

// dewhiten is the inverse of whiten, walking the chain backwards
func dewhiten(b *[FrameSize]byte) {
	for i := FrameSize - 1; i > 0; i-- {
		b[i] ^= b[i-1]
	}
}
