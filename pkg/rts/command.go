// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rts

import "strings"

// Command is a 4-bit RTS button code, sent in the high nibble of the
// command byte.
type Command uint8

// Command values
const (
	CommandMy       Command = 0x1
	CommandUp       Command = 0x2
	CommandMyUp     Command = 0x3
	CommandDown     Command = 0x4
	CommandMyDown   Command = 0x5
	CommandUpDown   Command = 0x6
	CommandMyUpDown Command = 0x7
	CommandProg     Command = 0x8
	CommandSunFlag  Command = 0x9
	CommandFlag     Command = 0xA
)

var commandNames = []struct {
	name    string
	command Command
}{
	{"my", CommandMy},
	{"up", CommandUp},
	{"myup", CommandMyUp},
	{"down", CommandDown},
	{"mydown", CommandMyDown},
	{"updown", CommandUpDown},
	{"myupdown", CommandMyUpDown},
	{"prog", CommandProg},
	{"sunflag", CommandSunFlag},
	{"flag", CommandFlag},
}

// ParseCommand maps a command name to its Command, ignoring case.
func ParseCommand(s string) (Command, error) {
	for _, c := range commandNames {
		if strings.EqualFold(s, c.name) {
			return c.command, nil
		}
	}
	return 0, &UnknownCommandError{Input: s}
}

// Commands returns every command in protocol order
func Commands() []Command {
	out := make([]Command, len(commandNames))
	for i, c := range commandNames {
		out[i] = c.command
	}
	return out
}

// Valid reports whether c is one of the defined commands
func (c Command) Valid() bool {
	return c >= CommandMy && c <= CommandFlag
}

// String returns the lower-case command name accepted by ParseCommand
func (c Command) String() string {
	for _, n := range commandNames {
		if n.command == c {
			return n.name
		}
	}
	return "unknown"
}
