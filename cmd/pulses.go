// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rtsctl/internal/control"
	"github.com/Thermoquad/rtsctl/internal/store"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

var pulsesRepetitions int

var pulsesCmd = &cobra.Command{
	Use:   "pulses <remote> <command>",
	Short: "Show the pulse train a command would transmit",
	Long: `Show the frame and the complete pulse timeline (level and duration in
microseconds) that "send" would transmit for a remote.

Nothing is transmitted and the rolling code is not advanced.`,
	Args: cobra.ExactArgs(2),
	RunE: runPulses,
}

func init() {
	rootCmd.AddCommand(pulsesCmd)
	pulsesCmd.Flags().IntVarP(&pulsesRepetitions, "repeat", "r", 0, fmt.Sprintf("Number of frame repetitions (0-%d)", control.MaxRepetitions))
}

func runPulses(cmd *cobra.Command, args []string) error {
	if pulsesRepetitions < 0 || pulsesRepetitions > control.MaxRepetitions {
		return withExitCode(exitConnection, fmt.Errorf("%w: --repeat %d", control.ErrTooManyRepetitions, pulsesRepetitions))
	}

	command, err := rts.ParseCommand(args[1])
	if err != nil {
		return withExitCode(exitConnection, err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	remote, err := st.Remote(args[0])
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	remote.WithKey(cfg.Key)

	frame, err := remote.Frame(command)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	pulses, err := rts.RecordFrame(frame, pulsesRepetitions)
	if err != nil {
		return withExitCode(exitConnection, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Remote: %s\n", args[0])
	fmt.Fprint(out, rts.FormatFrame(frame))
	fmt.Fprintf(out, "Repetitions: %d\n\n", pulsesRepetitions)
	fmt.Fprint(out, rts.FormatPulses(pulses))
	return nil
}
