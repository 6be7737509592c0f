// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"info", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, false},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestInitLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := initLogger(&buf, "rtsctl", "warn", true)

	logger.Info().Msg("hidden")
	logger.Warn().Str("remote", "kitchen").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "remote=kitchen") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(framesSent.WithLabelValues("metrics-test", "Up"))
	RecordCommand("metrics-test", "Up", OutcomeOK, 3, 250*time.Millisecond)
	RecordCommand("metrics-test", "Up", OutcomeRejected, 0, 0)

	if got := testutil.ToFloat64(framesSent.WithLabelValues("metrics-test", "Up")) - before; got != 3 {
		t.Errorf("frames_sent_total grew by %v, want 3", got)
	}
	if got := testutil.ToFloat64(commands.WithLabelValues("metrics-test", "Up", OutcomeRejected)); got != 1 {
		t.Errorf("rejected commands = %v, want 1", got)
	}

	RecordHTTPRequest("GET", "/healthz", 200, 12*time.Millisecond)
}

func TestHTTPObserver(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	r := gin.New()
	r.Use(HTTPObserver(logger))
	r.GET("/api/remotes/:name", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/remotes/garage", nil))

	out := buf.String()
	for _, want := range []string{`"route":"/api/remotes/:name"`, `"remote":"garage"`, `"level":"warn"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}

	got := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/remotes/:name", "404"))
	if got < 1 {
		t.Errorf("http_requests_total for route = %v, want >= 1", got)
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if buf.Len() != 0 {
		t.Errorf("health check logged at info: %s", buf.String())
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/healthz", "200")); got < 1 {
		t.Errorf("health check not counted")
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/else", nil))
	if got := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")); got < 1 {
		t.Errorf("unmatched path not counted under a fixed label")
	}
}
