// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling blinds",
	Long: `Control paired remotes via an interactive terminal UI.

Pick a remote with the arrow keys and press:
  u - up      d - down     m / s - my (stop)
  p - prog    + / - - change repetitions
  q - quit

Every command advances and saves the remote's rolling code exactly like
"rtsctl send". Events are shown in the log panel instead of stderr.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

func runControl(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal; events go to the TUI log instead
	logger = zerolog.Nop()

	ctrl, st, sender, connInfo, err := openController(cmd.Context(), io.Discard)
	if err != nil {
		return err
	}
	defer sender.Close()

	if len(st.Names()) == 0 {
		return withExitCode(exitConnection,
			fmt.Errorf("no remotes in %s, add one with \"rtsctl remote add\"", st.Path()))
	}

	m := initialControlModel(ctrl, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
