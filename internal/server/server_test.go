// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Thermoquad/rtsctl/internal/control"
	"github.com/Thermoquad/rtsctl/internal/store"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSender accepts frames unless err is set
type stubSender struct {
	frames []rts.Frame
	err    error
}

func (s *stubSender) SendFrameRepeat(frame rts.Frame, repetitions int) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, frame)
	return nil
}

func newTestServer(t *testing.T) (*Server, *stubSender, *store.Store) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "remotes.toml"))
	if err := st.Add("kitchen", 0x123456, 10); err != nil {
		t.Fatal(err)
	}
	if err := st.Add("office", 0x000042, 3); err != nil {
		t.Fatal(err)
	}
	sender := &stubSender{}
	ctrl := control.New(sender, st, rts.DefaultKey, zerolog.Nop())
	return New(ctrl, zerolog.Nop()), sender, st
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode body: %v (%s)", err, rr.Body.String())
		}
	}
	return rr, out
}

func TestHealthAndMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)

	rr, body := do(t, s, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || body["status"] != "ok" || body["remotes"] != float64(2) {
		t.Errorf("healthz = %d %v", rr.Code, body)
	}

	do(t, s, http.MethodPost, "/api/remotes/kitchen/commands", `{"command":"my"}`)

	rr, _ = do(t, s, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "rtsctl_rts_commands_total") {
		t.Error("metrics output missing rtsctl_rts_commands_total")
	}
}

func TestListAndGetRemotes(t *testing.T) {
	s, _, _ := newTestServer(t)

	rr, body := do(t, s, http.MethodGet, "/api/remotes", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	remotes, _ := body["remotes"].([]any)
	if len(remotes) != 2 {
		t.Fatalf("remotes = %v", body["remotes"])
	}
	first := remotes[0].(map[string]any)
	if first["name"] != "kitchen" || first["address"] != "0x123456" || first["position"] != float64(50) {
		t.Errorf("first remote = %v", first)
	}

	rr, body = do(t, s, http.MethodGet, "/api/remotes/office", "")
	if rr.Code != http.StatusOK || body["rolling_code"] != float64(3) {
		t.Errorf("office = %d %v", rr.Code, body)
	}

	rr, _ = do(t, s, http.MethodGet, "/api/remotes/garage", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown remote status = %d", rr.Code)
	}
}

func TestSendCommand(t *testing.T) {
	s, sender, st := newTestServer(t)

	rr, body := do(t, s, http.MethodPost, "/api/remotes/kitchen/commands", `{"command":"UP","repetitions":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%v", rr.Code, body)
	}
	if body["sent"] != true || body["frames"] != float64(3) || body["rolling_code"] != float64(10) || body["command"] != "up" {
		t.Errorf("body = %v", body)
	}
	if len(sender.frames) != 1 || sender.frames[0].Fields().Command != rts.CommandUp {
		t.Errorf("frames = %v", sender.frames)
	}
	if e, _ := st.Entry("kitchen"); e.RollingCode != 11 {
		t.Errorf("rolling code = %d, want 11", e.RollingCode)
	}
}

func TestSendCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		txErr    error
		wantCode int
		wantSent bool
	}{
		{"unknown command", "/api/remotes/kitchen/commands", `{"command":"open"}`, nil, http.StatusBadRequest, false},
		{"bad body", "/api/remotes/kitchen/commands", `{"command":`, nil, http.StatusBadRequest, false},
		{"empty body", "/api/remotes/kitchen/commands", ``, nil, http.StatusBadRequest, false},
		{"too many repetitions", "/api/remotes/kitchen/commands", `{"command":"up","repetitions":21}`, nil, http.StatusBadRequest, false},
		{"unknown remote", "/api/remotes/garage/commands", `{"command":"up"}`, nil, http.StatusNotFound, false},
		{"transmit failure", "/api/remotes/kitchen/commands", `{"command":"up"}`, errors.New("radio unplugged"), http.StatusBadGateway, false},
		{"ack lost", "/api/remotes/kitchen/commands", `{"command":"up"}`, errors.Join(rts.ErrUnconfirmed, errors.New("i/o timeout")), http.StatusGatewayTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sender, _ := newTestServer(t)
			sender.err = tt.txErr

			rr, body := do(t, s, http.MethodPost, tt.path, tt.body)
			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (body %v)", rr.Code, tt.wantCode, body)
			}
			if sent, _ := body["sent"].(bool); sent != tt.wantSent {
				t.Errorf("sent = %v, want %v", body["sent"], tt.wantSent)
			}
			if body["error"] == nil {
				t.Error("error message missing")
			}
		})
	}
}

func TestSendCommandStorageFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remotes.toml")
	st := store.New(path)
	if err := st.Add("kitchen", 0x123456, 10); err != nil {
		t.Fatal(err)
	}
	s := New(control.New(&stubSender{}, failingStore{st}, rts.DefaultKey, zerolog.Nop()), zerolog.Nop())

	rr, body := do(t, s, http.MethodPost, "/api/remotes/kitchen/commands", `{"command":"down"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
	if body["sent"] != true {
		t.Errorf("sent = %v, want true", body["sent"])
	}
}

// failingStore reads from a real store but cannot persist
type failingStore struct{ *store.Store }

func (failingStore) Persist(*rts.Remote) error {
	return errors.New("disk full")
}

func TestMove(t *testing.T) {
	s, sender, _ := newTestServer(t)

	rr, body := do(t, s, http.MethodPost, "/api/remotes/kitchen/move", `{"position":10}`)
	if rr.Code != http.StatusOK || body["moved"] != true || body["command"] != "down" || body["from"] != float64(50) {
		t.Errorf("move down = %d %v", rr.Code, body)
	}

	rr, body = do(t, s, http.MethodPost, "/api/remotes/kitchen/move", `{"position":10}`)
	if rr.Code != http.StatusOK || body["moved"] != false || body["sent"] != false {
		t.Errorf("no-op move = %d %v", rr.Code, body)
	}

	rr, body = do(t, s, http.MethodPost, "/api/remotes/kitchen/move", `{"position":0}`)
	if rr.Code != http.StatusOK || body["moved"] != true || body["to"] != float64(0) {
		t.Errorf("move to 0 = %d %v", rr.Code, body)
	}

	if len(sender.frames) != 2 {
		t.Errorf("%d frames, want 2", len(sender.frames))
	}

	_, body = do(t, s, http.MethodGet, "/api/remotes/kitchen", "")
	if body["position"] != float64(0) {
		t.Errorf("position = %v", body["position"])
	}

	for _, bad := range []string{`{}`, `{"position":101}`, `{"position":-1}`, `nope`} {
		rr, _ := do(t, s, http.MethodPost, "/api/remotes/kitchen/move", bad)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("move %s status = %d", bad, rr.Code)
		}
	}

	rr, _ = do(t, s, http.MethodPost, "/api/remotes/garage/move", `{"position":0}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown remote move status = %d", rr.Code)
	}
}

func TestRunShutsDown(t *testing.T) {
	s, _, _ := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
