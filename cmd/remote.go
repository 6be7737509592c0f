// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rtsctl/internal/store"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

var (
	remoteAddress     string
	remoteRollingCode uint16
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage paired remotes",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a virtual remote",
	Long: `Add a virtual remote to the store.

Without --address a random 24-bit address is chosen. To pair it, hold PROG on
an existing remote until the blind jogs, then run:

  rtsctl send <name> prog`,
	Args: cobra.ExactArgs(1),
	RunE: runRemoteAdd,
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remotes and their rolling codes",
	Args:  cobra.NoArgs,
	RunE:  runRemoteList,
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a remote from the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteRemove,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.AddCommand(remoteAddCmd, remoteListCmd, remoteRemoveCmd)

	remoteAddCmd.Flags().StringVarP(&remoteAddress, "address", "a", "", "24-bit remote address (e.g. 0x1A2B3C)")
	remoteAddCmd.Flags().Uint16VarP(&remoteRollingCode, "rolling-code", "c", 1, "Initial rolling code")
}

// openOrCreateStore loads the store, or starts an empty one if the file does
// not exist yet.
func openOrCreateStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return store.New(path), nil
	}
	return st, err
}

func runRemoteAdd(cmd *cobra.Command, args []string) error {
	st, err := openOrCreateStore(cfg.Store.Path)
	if err != nil {
		return withExitCode(exitConnection, err)
	}

	address := rts.Address(rand.Uint32N(rts.MaxAddress + 1))
	if remoteAddress != "" {
		address, err = rts.ParseAddress(remoteAddress)
		if err != nil {
			return withExitCode(exitConnection, err)
		}
	}

	if err := st.Add(args[0], address, remoteRollingCode); err != nil {
		return withExitCode(exitConnection, err)
	}

	logger.Info().Str("remote", args[0]).Stringer("address", address).Msg("remote_added")
	fmt.Fprintf(cmd.OutOrStdout(), "Added %q: address %s, rolling code %d (%s)\n",
		args[0], address, remoteRollingCode, st.Path())
	return nil
}

func runRemoteList(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return withExitCode(exitConnection, err)
	}

	out := cmd.OutOrStdout()
	names := st.Names()
	if len(names) == 0 {
		fmt.Fprintf(out, "No remotes in %s\n", st.Path())
		return nil
	}

	fmt.Fprintf(out, "%-24s %-10s %s\n", "NAME", "ADDRESS", "ROLLING CODE")
	for _, name := range names {
		e, _ := st.Entry(name)
		fmt.Fprintf(out, "%-24s %-10s %d\n", name, rts.Address(e.Address), e.RollingCode)
	}
	return nil
}

func runRemoteRemove(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	if err := st.Remove(args[0]); err != nil {
		return withExitCode(exitConnection, err)
	}

	logger.Info().Str("remote", args[0]).Msg("remote_removed")
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", args[0])
	return nil
}
