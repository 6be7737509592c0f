// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package rts implements the transmitting side of the RTS rolling-code radio
// protocol used by motorised blinds, shutters and awnings.
//
// A command is turned into a 7-byte whitened frame (NewFrame), emitted as a
// Manchester-encoded pulse train on a digital output line (Transmitter), and
// bound to a paired receiver through the rolling code kept by a Remote.
//
// All pulse widths below are part of the radio protocol. Changing any of them
// breaks interoperability with real receivers.
package rts

// Frame layout
const (
	FrameSize = 7

	// DefaultKey is the whitening seed sent in the first frame byte.
	DefaultKey = 0xA7

	// MaxAddress is the largest 24-bit remote address.
	MaxAddress = 0xFFFFFF
)

// Byte offsets within a frame
const (
	offsetKey         = 0
	offsetCommand     = 1
	offsetRollingCode = 2 // 2 bytes, big-endian
	offsetAddress     = 4 // 3 bytes, little-endian
)

// Timing table, all values in microseconds
const (
	SymbolWidth = 1280
	HalfSymbol  = SymbolWidth / 2

	// Wake-up pulse, first frame of a send only
	WakeUpHigh = 9415
	WakeUpLow  = 89565

	// Hardware sync: symmetric pulse pairs
	HardwareSyncWidth  = 2 * SymbolWidth
	HardwareSyncOnce   = 2 // pairs, first frame
	HardwareSyncRepeat = 7 // pairs, repeated frames

	// Software sync
	SoftwareSyncHigh = 4550
	SoftwareSyncLow  = HalfSymbol

	InterFrameGap = 30415
)

// SyncType selects the hardware sync pattern for a frame
type SyncType int

const (
	SyncOnce SyncType = iota
	SyncRepeat
)

// Pairs returns the number of hardware sync pulse pairs for the sync type
func (s SyncType) Pairs() int {
	if s == SyncRepeat {
		return HardwareSyncRepeat
	}
	return HardwareSyncOnce
}

func (s SyncType) String() string {
	if s == SyncRepeat {
		return "repeat"
	}
	return "once"
}
