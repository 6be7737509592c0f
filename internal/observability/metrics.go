// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rtsctl",
			Subsystem: "rts",
			Name:      "frames_sent_total",
			Help:      "Frames transmitted, including repetitions.",
		},
		[]string{"remote", "command"},
	)
	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rtsctl",
			Subsystem: "rts",
			Name:      "commands_total",
			Help:      "Command requests by outcome.",
		},
		[]string{"remote", "command", "outcome"},
	)
	transmitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rtsctl",
			Subsystem: "rts",
			Name:      "transmit_duration_seconds",
			Help:      "Time spent holding the radio line per command.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5},
		},
		[]string{"remote"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rtsctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rtsctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Command outcomes
const (
	OutcomeOK            = "ok"
	OutcomeTransmitError = "transmit_error"
	OutcomeStorageError  = "storage_error"
	OutcomeRejected      = "rejected"
	OutcomeUnconfirmed   = "unconfirmed"
)

// UnknownRemote labels requests for remote names that are not paired, so
// arbitrary names from clients never become series.
const UnknownRemote = "unknown"

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesSent, commands, transmitDuration, httpRequests, httpDuration)
	})
}

// RecordCommand counts one command request. frames is the number of frames
// that actually went out.
func RecordCommand(remote, command, outcome string, frames int, duration time.Duration) {
	RegisterMetrics()
	commands.WithLabelValues(remote, command, outcome).Inc()
	if frames > 0 {
		framesSent.WithLabelValues(remote, command).Add(float64(frames))
		transmitDuration.WithLabelValues(remote).Observe(duration.Seconds())
	}
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
