// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Thermoquad/rtsctl/internal/observability"
	"github.com/Thermoquad/rtsctl/internal/store"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// Environment overrides
const (
	EnvLogLevel   = "RTSCTL_LOG_LEVEL"
	EnvLogNoColor = "RTSCTL_LOG_NOCOLOR"
	EnvStorePath  = "RTSCTL_STORE"
	EnvBackend    = "RTSCTL_BACKEND"
)

// Transmitter backends
const (
	BackendGPIO   = "gpio"
	BackendSerial = "serial"
	BackendBridge = "bridge"
	BackendDryRun = "dry-run"
)

// Serial modem lines usable as the data output
const (
	SignalRTS = "rts"
	SignalDTR = "dtr"
)

type Config struct {
	Key         uint8             `toml:"key"`
	Store       StoreConfig       `toml:"store"`
	Transmitter TransmitterConfig `toml:"transmitter"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type TransmitterConfig struct {
	Backend     string `toml:"backend"`
	Pin         int    `toml:"pin"`
	Inverted    bool   `toml:"inverted"`
	Port        string `toml:"port"`
	Signal      string `toml:"signal"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

// Default returns the configuration used when no file is given: GPIO 4 on a
// Raspberry Pi, remotes in ./remotes.toml.
func Default() Config {
	return Config{
		Key: rts.DefaultKey,
		Store: StoreConfig{
			Path: store.DefaultPath,
		},
		Transmitter: TransmitterConfig{
			Backend: BackendGPIO,
			Pin:     4,
			Signal:  SignalRTS,
		},
		Server: ServerConfig{
			Addr: ":8888",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML config file over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogNoColor))); err == nil {
		cfg.Log.NoColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorePath)); v != "" {
		cfg.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		cfg.Transmitter.Backend = v
	}
}

// Validate checks the log level and that the selected backend has what it
// needs
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Store.Path) == "" {
		return errors.New("store.path is required")
	}
	if _, ok := observability.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("unknown log.level %q (use trace, debug, info, warn, error or disabled)", cfg.Log.Level)
	}

	t := cfg.Transmitter
	switch t.Backend {
	case BackendGPIO:
		if t.Pin < 0 || t.Pin > 53 {
			return fmt.Errorf("transmitter.pin %d is not a BCM GPIO number", t.Pin)
		}
	case BackendSerial:
		if t.Port == "" {
			return errors.New("transmitter.port is required for the serial backend")
		}
		if t.Signal != SignalRTS && t.Signal != SignalDTR {
			return fmt.Errorf("transmitter.signal must be %q or %q, got %q", SignalRTS, SignalDTR, t.Signal)
		}
	case BackendBridge:
		if !strings.HasPrefix(t.URL, "ws://") && !strings.HasPrefix(t.URL, "wss://") {
			return fmt.Errorf("transmitter.url must be a ws:// or wss:// URL, got %q", t.URL)
		}
	case BackendDryRun:
	default:
		return fmt.Errorf("unknown transmitter.backend %q", t.Backend)
	}
	return nil
}
