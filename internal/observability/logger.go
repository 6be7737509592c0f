// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger builds the process logger and installs it as the zerolog global.
// Output goes to stderr so command output on stdout stays clean.
func InitLogger(app, level string, noColor bool) zerolog.Logger {
	return initLogger(os.Stderr, app, level, noColor)
}

func initLogger(out io.Writer, app, level string, noColor bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	lvl, _ := ParseLevel(level)
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall back
// to info and report false.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "", "info":
		return zerolog.InfoLevel, raw != ""
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
