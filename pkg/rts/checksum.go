// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

// Checksum computes the 4-bit frame checksum over unwhitened frame bytes.
// The low nibble of the command byte must be zero (or already hold the
// checksum, in which case the result is zero for a valid frame).
func Checksum(raw [FrameSize]byte) byte {
	var sum byte
	for _, b := range raw {
		sum ^= b ^ (b >> 4)
	}
	return sum & 0x0F
}
