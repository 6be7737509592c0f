// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rtsctl/internal/control"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

var sendRepetitions int

var sendCmd = &cobra.Command{
	Use:   "send <remote> <command>",
	Short: "Send a command with a paired remote",
	Long: `Send one command with a paired remote, then advance and save its rolling code.

Commands: ` + commandList() + `

The frame is sent once plus --repeat extra times. A held button on a real
remote repeats its frame; "prog" usually needs a few repetitions to start
pairing on older motors.

Exit codes:
  0 - Command sent and rolling code saved
  1 - Transmission failed, rolling code unchanged, or the bridge never
      confirmed it (rolling code advanced)
  2 - Store, config or transmitter could not be opened
  3 - Command sent but the new rolling code was not saved`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVarP(&sendRepetitions, "repeat", "r", 0, fmt.Sprintf("Number of frame repetitions (0-%d)", control.MaxRepetitions))
}

func commandList() string {
	names := make([]string, 0, len(rts.Commands()))
	for _, c := range rts.Commands() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

func runSend(cmd *cobra.Command, args []string) error {
	name := args[0]
	command, err := rts.ParseCommand(args[1])
	if err != nil {
		return withExitCode(exitConnection, fmt.Errorf("%w (valid: %s)", err, commandList()))
	}

	ctrl, _, sender, connInfo, err := openController(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer sender.Close()

	logger.Debug().Str("connection", connInfo).Msg("transmitter_open")

	res, err := ctrl.Send(cmd.Context(), name, command, sendRepetitions)
	if err != nil {
		var storageErr *rts.StorageError
		if errors.As(err, &storageErr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: command was sent but rolling code %d was not saved; the next command may be ignored\n",
				storageErr.RollingCode)
		}
		var unconfirmed *rts.UnconfirmedError
		if errors.As(err, &unconfirmed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: command may have been sent; rolling code advanced to %d\n",
				unconfirmed.RollingCode)
		}
		if errors.Is(err, control.ErrTooManyRepetitions) {
			return withExitCode(exitConnection, err)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s with %s (rolling code %d, %d frame(s), %s)\n",
		res.Command, res.Remote, res.RollingCode, res.Frames, res.Duration.Round(time.Millisecond))
	return nil
}
