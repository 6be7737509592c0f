// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rtsctl/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the paired remotes over HTTP",
	Long: `Start an HTTP API for the paired remotes.

Routes:
  GET  /healthz
  GET  /metrics                      Prometheus metrics
  GET  /api/remotes
  GET  /api/remotes/:name
  POST /api/remotes/:name/commands   {"command": "up", "repetitions": 0}
  POST /api/remotes/:name/move       {"position": 0..100}

Every remote starts at position 50. A move to a lower position sends "down",
a higher one sends "up".

Requests are serialised on the single transmitter.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8888)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, st, sender, connInfo, err := openController(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer sender.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	logger.Info().
		Str("connection", connInfo).
		Str("store", st.Path()).
		Int("remotes", len(st.Names())).
		Msg("serve_start")

	return withExitCode(exitConnection, server.New(ctrl, logger).Run(ctx, addr))
}
