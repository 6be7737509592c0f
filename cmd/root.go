// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rtsctl/internal/config"
	"github.com/Thermoquad/rtsctl/internal/observability"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// Exit codes
const (
	exitOK          = 0
	exitTransmit    = 1
	exitConnection  = 2
	exitStorageSync = 3
)

var (
	configPath string

	// Store flags
	storePath string

	// Transmitter flags
	backend    string
	gpioPin    int
	inverted   bool
	portName   string
	signalName string

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	keyFlag  string
	logLevel string

	// Resolved in PersistentPreRunE
	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rtsctl",
	Short: "Somfy RTS remote control",
	Long: `rtsctl - emulate Somfy RTS remotes with a 433.42 MHz transmitter.

Each paired virtual remote has a 24-bit address and a rolling code that is
advanced and saved after every command. Remotes are kept in a TOML (or .cbor)
file, ./remotes.toml by default.

Transmitter backends:
  gpio:    --pin 4 [--inverted]              Raspberry Pi GPIO (default)
  serial:  --port /dev/ttyUSB0 [--signal rts] USB-serial modem line
  bridge:  --url ws://host/rts [--username u] WebSocket radio bridge
  dry-run:                                   print frames and pulses only

Settings are read from --config (TOML) and overridden by flags. For bridge
authentication the password is read from the RTSCTL_PASSWORD environment
variable, or prompted interactively if not set.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "", "Config file (TOML)")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "Remote store file (.toml or .cbor)")

	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Transmitter backend (gpio, serial, bridge, dry-run)")
	rootCmd.PersistentFlags().IntVar(&gpioPin, "pin", 4, "BCM GPIO pin (gpio only)")
	rootCmd.PersistentFlags().BoolVar(&inverted, "inverted", false, "Invert the output line")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (serial only)")
	rootCmd.PersistentFlags().StringVar(&signalName, "signal", "rts", "Modem line to drive (rts or dtr, serial only)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "Bridge WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&keyFlag, "key", "", "Frame key byte (default 0xA7)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
}

// loadConfig reads the config file, applies changed flags on top and sets up
// logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return withExitCode(exitConnection, err)
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		c.Store.Path = storePath
	}
	if flags.Changed("backend") {
		c.Transmitter.Backend = backend
	}
	if flags.Changed("pin") {
		c.Transmitter.Pin = gpioPin
	}
	if flags.Changed("inverted") {
		c.Transmitter.Inverted = inverted
	}
	if flags.Changed("port") {
		c.Transmitter.Port = portName
		if !flags.Changed("backend") {
			c.Transmitter.Backend = config.BackendSerial
		}
	}
	if flags.Changed("signal") {
		c.Transmitter.Signal = signalName
	}
	if flags.Changed("url") {
		c.Transmitter.URL = wsURL
		if !flags.Changed("backend") {
			c.Transmitter.Backend = config.BackendBridge
		}
	}
	if flags.Changed("username") {
		c.Transmitter.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		c.Transmitter.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("key") {
		key, err := parseByte(keyFlag)
		if err != nil {
			return withExitCode(exitConnection, fmt.Errorf("invalid --key: %w", err))
		}
		c.Key = key
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}

	if err := config.Validate(c); err != nil {
		return withExitCode(exitConnection, err)
	}

	cfg = c
	logger = observability.InitLogger("rtsctl", cfg.Log.Level, cfg.Log.NoColor)
	return nil
}

// exitError carries a process exit code
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCode maps an error returned by Execute to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var storageErr *rts.StorageError
	if errors.As(err, &storageErr) {
		return exitStorageSync
	}
	return exitTransmit
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
