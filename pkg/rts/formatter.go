// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f Frame) string {
	fields := f.Fields()

	var s strings.Builder
	s.WriteString("Frame:")
	for _, b := range f {
		fmt.Fprintf(&s, " %02X", b)
	}
	s.WriteString("\n")

	checksum := "ok"
	if !f.ChecksumValid() {
		checksum = "MISMATCH"
	}

	fmt.Fprintf(&s, "  Key:          0x%02X\n", fields.Key)
	fmt.Fprintf(&s, "  Command:      %s (0x%X)\n", FormatCommand(fields.Command), uint8(fields.Command))
	fmt.Fprintf(&s, "  Checksum:     0x%X (%s)\n", fields.Checksum, checksum)
	fmt.Fprintf(&s, "  Rolling code: %d\n", fields.RollingCode)
	fmt.Fprintf(&s, "  Address:      %s\n", fields.Address)

	return s.String()
}

// FormatCommand returns the upper-case display name for a command
func FormatCommand(c Command) string {
	switch c {
	case CommandMy:
		return "MY"
	case CommandUp:
		return "UP"
	case CommandMyUp:
		return "MY_UP"
	case CommandDown:
		return "DOWN"
	case CommandMyDown:
		return "MY_DOWN"
	case CommandUpDown:
		return "UP_DOWN"
	case CommandMyUpDown:
		return "MY_UP_DOWN"
	case CommandProg:
		return "PROG"
	case CommandSunFlag:
		return "SUN_FLAG"
	case CommandFlag:
		return "FLAG"
	default:
		return "UNKNOWN"
	}
}

// FormatPulses formats a pulse train, one "level duration" line per pulse,
// followed by a total.
func FormatPulses(pulses []Pulse) string {
	var s strings.Builder
	var total uint64
	for _, p := range pulses {
		fmt.Fprintf(&s, "%-4s %10d\n", p.Level, p.Duration)
		total += uint64(p.Duration)
	}
	fmt.Fprintf(&s, "%d pulses, %.3f ms\n", len(pulses), float64(total)/1000.0)
	return s.String()
}
