// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// rtsctl - Somfy RTS remote control
//
// A CLI tool for emulating Somfy RTS remotes with a 433.42 MHz transmitter
// attached to a Raspberry Pi GPIO pin, a USB-serial modem line or a
// WebSocket radio bridge.

package main

import (
	"os"

	"github.com/Thermoquad/rtsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
