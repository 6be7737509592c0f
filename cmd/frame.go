// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rtsctl/pkg/rts"
)

var (
	frameCommand     string
	frameRollingCode uint16
	frameAddress     string
)

var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Build a frame and show its bytes and fields",
	Long: `Build an RTS frame from its fields without transmitting it.

Prints the whitened bytes as sent on air, followed by the de-whitened key,
command, checksum, rolling code and address. Useful for checking a
transmitter against a capture.

Example:
  rtsctl frame --command up --rolling-code 42 --address 0xFFAA11`,
	Args: cobra.NoArgs,
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)
	frameCmd.Flags().StringVarP(&frameCommand, "command", "c", "", "Command name ("+commandList()+")")
	frameCmd.Flags().Uint16VarP(&frameRollingCode, "rolling-code", "r", 0, "Rolling code")
	frameCmd.Flags().StringVarP(&frameAddress, "address", "a", "", "24-bit remote address")
	frameCmd.MarkFlagRequired("command")
	frameCmd.MarkFlagRequired("address")
}

func runFrame(cmd *cobra.Command, args []string) error {
	command, err := rts.ParseCommand(frameCommand)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	address, err := rts.ParseAddress(frameAddress)
	if err != nil {
		return withExitCode(exitConnection, err)
	}

	frame, err := rts.NewFrame(cfg.Key, command, frameRollingCode, address)
	if err != nil {
		return withExitCode(exitConnection, err)
	}

	fmt.Fprint(cmd.OutOrStdout(), rts.FormatFrame(frame))
	return nil
}
