// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rtsctl/internal/config"
	"github.com/Thermoquad/rtsctl/internal/line"
)

var (
	bridgePingTimeout int
	bridgePingCount   int
)

var bridgePingCmd = &cobra.Command{
	Use:   "bridge_ping",
	Short: "Test the WebSocket radio bridge without transmitting",
	Long: `Send empty requests to the radio bridge and wait for each acknowledgement.

The bridge answers these without keying the radio, so no rolling code is used.

This is useful for verifying:
  - WebSocket connection is established
  - HTTP Basic authentication works
  - The bridge is decoding requests

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runBridgePing,
}

func init() {
	rootCmd.AddCommand(bridgePingCmd)
	bridgePingCmd.Flags().IntVar(&bridgePingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	bridgePingCmd.Flags().IntVar(&bridgePingCount, "count", 3, "Number of pings to send")
}

func runBridgePing(cmd *cobra.Command, args []string) error {
	if cfg.Transmitter.Backend != config.BackendBridge {
		return withExitCode(exitConnection, errors.New("bridge_ping needs --url or backend = \"bridge\""))
	}
	if bridgePingCount < 1 {
		return withExitCode(exitConnection, errors.New("--count must be at least 1"))
	}

	sender, connInfo, err := OpenSender(cmd.Context(), cfg.Transmitter, cmd.OutOrStdout())
	if err != nil {
		return withExitCode(exitConnection, fmt.Errorf("connection error: %w", err))
	}
	defer sender.Close()
	bridge := sender.(*line.Bridge)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rtsctl - Bridge Ping\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Timeout: %d seconds per ping\n", bridgePingTimeout)
	fmt.Fprintf(out, "Count: %d pings\n\n", bridgePingCount)

	failCount := 0
	timeout := time.Duration(bridgePingTimeout) * time.Second

	for i := 1; i <= bridgePingCount; i++ {
		fmt.Fprintf(out, "Ping %d/%d: ", i, bridgePingCount)

		rtt, err := bridge.Ping(timeout)
		if err != nil {
			fmt.Fprintf(out, "FAILED: %v\n", err)
			failCount++
			// A read error leaves the connection unusable
			if !errors.Is(err, line.ErrBridgeRejected) {
				failCount += bridgePingCount - i
				break
			}
			continue
		}
		fmt.Fprintf(out, "ACK, rtt=%v\n", rtt.Round(time.Millisecond))

		if i < bridgePingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Fprintf(out, "\n--- Ping statistics ---\n")
	fmt.Fprintf(out, "%d pings sent, %d acknowledged, %.0f%% loss\n",
		bridgePingCount, bridgePingCount-failCount, float64(failCount)/float64(bridgePingCount)*100)

	if failCount > 0 {
		return withExitCode(exitTransmit, fmt.Errorf("%d of %d pings failed", failCount, bridgePingCount))
	}
	return nil
}
