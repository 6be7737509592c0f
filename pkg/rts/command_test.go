// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

import (
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"my", CommandMy},
		{"up", CommandUp},
		{"Up", CommandUp},
		{"UP", CommandUp},
		{"myup", CommandMyUp},
		{"down", CommandDown},
		{"MyDown", CommandMyDown},
		{"updown", CommandUpDown},
		{"myupdown", CommandMyUpDown},
		{"PROG", CommandProg},
		{"sunflag", CommandSunFlag},
		{"SunFlag", CommandSunFlag},
		{"flag", CommandFlag},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			if err != nil {
				t.Fatalf("ParseCommand(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = 0x%X, want 0x%X", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCommand_Unknown(t *testing.T) {
	for _, input := range []string{"upp", "", "stop", " up", "my up", "0x2"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCommand(input)
			var unknown *UnknownCommandError
			if !errors.As(err, &unknown) {
				t.Fatalf("ParseCommand(%q) error = %v, want *UnknownCommandError", input, err)
			}
			if unknown.Input != input {
				t.Errorf("UnknownCommandError.Input = %q, want %q", unknown.Input, input)
			}
		})
	}
}

func TestCommands_RoundTripThroughString(t *testing.T) {
	commands := Commands()
	if len(commands) != 10 {
		t.Fatalf("Commands() returned %d commands, want 10", len(commands))
	}

	seen := make(map[Command]bool)
	for _, c := range commands {
		if seen[c] {
			t.Errorf("duplicate command code 0x%X", uint8(c))
		}
		seen[c] = true

		if c > 0xF {
			t.Errorf("command 0x%X does not fit in a nibble", uint8(c))
		}

		parsed, err := ParseCommand(c.String())
		if err != nil {
			t.Errorf("ParseCommand(%q) error: %v", c.String(), err)
			continue
		}
		if parsed != c {
			t.Errorf("ParseCommand(%q) = 0x%X, want 0x%X", c.String(), parsed, c)
		}
	}
}

func TestCommand_Valid(t *testing.T) {
	if Command(0).Valid() {
		t.Error("Command(0) should be invalid")
	}
	if Command(0xB).Valid() {
		t.Error("Command(0xB) should be invalid")
	}
	if Command(0xB).String() != "unknown" {
		t.Errorf("Command(0xB).String() = %q, want unknown", Command(0xB).String())
	}
	for _, c := range Commands() {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
}
