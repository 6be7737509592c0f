// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Thermoquad/rtsctl/internal/config"
	"github.com/Thermoquad/rtsctl/internal/control"
	"github.com/Thermoquad/rtsctl/internal/line"
	"github.com/Thermoquad/rtsctl/internal/store"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// EnvPassword holds the bridge password
const EnvPassword = "RTSCTL_PASSWORD"

// Sender is a frame sender that owns a device or connection
type Sender interface {
	rts.FrameSender
	io.Closer
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenSender opens the configured transmitter backend
func OpenSender(ctx context.Context, t config.TransmitterConfig, out io.Writer) (Sender, string, error) {
	switch t.Backend {
	case config.BackendGPIO:
		pin, err := line.OpenGPIO(t.Pin, t.Inverted)
		if err != nil {
			return nil, "", err
		}
		return line.NewHardware(pin, line.SpinDelay{}), fmt.Sprintf("GPIO: BCM %d", t.Pin), nil

	case config.BackendSerial:
		port, err := line.OpenSerial(t.Port, t.Signal, t.Inverted)
		if err != nil {
			return nil, "", err
		}
		return line.NewHardware(port, line.SpinDelay{}),
			fmt.Sprintf("Serial: %s (%s)", t.Port, strings.ToUpper(t.Signal)), nil

	case config.BackendBridge:
		password := ""
		if t.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		bridge, err := line.DialBridge(ctx, t.URL, t.Username, password, t.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return bridge, fmt.Sprintf("Bridge: %s", t.URL), nil

	case config.BackendDryRun:
		return line.NewPrinter(out), "Dry run", nil

	default:
		return nil, "", fmt.Errorf("unknown transmitter backend %q", t.Backend)
	}
}

// openController loads the store and opens the transmitter. Both failures
// exit with the connection error code.
func openController(ctx context.Context, out io.Writer) (*control.Controller, *store.Store, Sender, string, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, "", withExitCode(exitConnection, err)
	}

	sender, info, err := OpenSender(ctx, cfg.Transmitter, out)
	if err != nil {
		return nil, nil, nil, "", withExitCode(exitConnection, fmt.Errorf("connection error: %w", err))
	}

	return control.New(sender, st, cfg.Key, logger), st, sender, info, nil
}

// parseByte accepts decimal, 0x hex, 0o octal or 0b binary
func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
