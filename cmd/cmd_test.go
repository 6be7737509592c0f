// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Thermoquad/rtsctl/internal/control"
	"github.com/Thermoquad/rtsctl/internal/line"
	"github.com/Thermoquad/rtsctl/internal/store"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"transmit", &rts.TransmitError{Repetition: 0, Err: errors.New("x")}, 1},
		{"storage", &rts.StorageError{Err: errors.New("x")}, 3},
		{"wrapped storage", fmt.Errorf("send: %w", &rts.StorageError{Err: errors.New("x")}), 3},
		{"connection", withExitCode(exitConnection, errors.New("no port")), 2},
		{"unconfirmed", &rts.UnconfirmedError{Err: rts.ErrUnconfirmed}, 1},
		{"other", errors.New("x"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseByte(t *testing.T) {
	tests := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{"0xA7", 0xA7, false},
		{"167", 167, false},
		{" 0b1 ", 1, false},
		{"256", 0, true},
		{"key", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseByte(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("parseByte(%q) = 0x%02X, %v", tt.in, got, err)
			}
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFrameCommand(t *testing.T) {
	out, err := execute(t, "frame", "--command", "up", "--rolling-code", "42", "--address", "0xFFAA11")
	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}
	for _, want := range []string{"Frame: A7 80 80 AA BB 11 EE", "Checksum:     0x7 (ok)", "Address:      0xFFAA11"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSendDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remotes.toml")
	st := store.New(path)
	if err := st.Add("kitchen", 0xFFAA11, 42); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--store", path, "--backend", "dry-run", "--log-level", "disabled", "send", "kitchen", "UP")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !strings.Contains(out, "Frame: A7 80 80 AA BB 11 EE") || !strings.Contains(out, "Sent up with kitchen (rolling code 42") {
		t.Errorf("unexpected output:\n%s", out)
	}

	reloaded, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if e, _ := reloaded.Entry("kitchen"); e.RollingCode != 43 {
		t.Errorf("rolling code = %d, want 43", e.RollingCode)
	}

	_, err = execute(t, "--store", path, "--backend", "dry-run", "send", "garage", "up")
	if !errors.Is(err, store.ErrRemoteNotFound) {
		t.Errorf("unknown remote error = %v", err)
	}

	_, err = execute(t, "--store", path, "--backend", "dry-run", "send", "kitchen", "open")
	if ExitCode(err) != exitConnection {
		t.Errorf("unknown command exit code = %d (%v)", ExitCode(err), err)
	}
}

func TestPulsesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remotes.toml")
	st := store.New(path)
	if err := st.Add("kitchen", 0xFFAA11, 42); err != nil {
		t.Fatal(err)
	}

	for _, reps := range []string{"-1", fmt.Sprint(control.MaxRepetitions + 1), "1000000"} {
		t.Run(reps, func(t *testing.T) {
			_, err := execute(t, "--store", path, "--log-level", "disabled", "pulses", "kitchen", "up", "--repeat="+reps)
			if !errors.Is(err, control.ErrTooManyRepetitions) || ExitCode(err) != exitConnection {
				t.Errorf("error = %v (exit %d), want ErrTooManyRepetitions", err, ExitCode(err))
			}
		})
	}

	out, err := execute(t, "--store", path, "--log-level", "disabled", "pulses", "kitchen", "up", "--repeat", "1")
	if err != nil {
		t.Fatalf("pulses failed: %v", err)
	}
	if !strings.Contains(out, "Frame: A7 80 80 AA BB 11 EE") || !strings.Contains(out, "Repetitions: 1") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if e, _ := st.Entry("kitchen"); e.RollingCode != 42 {
		t.Errorf("rolling code = %d, want 42", e.RollingCode)
	}
}

func newTestModel(t *testing.T) (controlModel, *store.Store) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "remotes.toml"))
	if err := st.Add("kitchen", 0x123456, 10); err != nil {
		t.Fatal(err)
	}
	if err := st.Add("office", 0x000042, 1); err != nil {
		t.Fatal(err)
	}
	ctrl := control.New(line.NewPrinter(io.Discard), st, rts.DefaultKey, zerolog.Nop())
	return initialControlModel(ctrl, "Dry run"), st
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestControlModel_Send(t *testing.T) {
	m, st := newTestModel(t)

	model, cmd := m.Update(key("u"))
	m = model.(controlModel)
	if cmd == nil || !m.sending {
		t.Fatal("pressing u did not start a send")
	}

	// A second key press while transmitting is refused
	model, busy := m.Update(key("d"))
	m = model.(controlModel)
	if busy != nil || len(m.eventLog) != 1 || !m.eventLog[0].isError {
		t.Errorf("second send while busy: cmd=%v log=%+v", busy != nil, m.eventLog)
	}

	model, _ = m.Update(cmd())
	m = model.(controlModel)
	if m.sending {
		t.Error("still sending after result")
	}
	last := m.eventLog[len(m.eventLog)-1]
	if last.isError || !strings.Contains(last.message, "kitchen: sent UP (code 10") {
		t.Errorf("log entry = %+v", last)
	}
	if e, _ := st.Entry("kitchen"); e.RollingCode != 11 {
		t.Errorf("rolling code = %d, want 11", e.RollingCode)
	}
	if !strings.Contains(m.View(), "Next code:") {
		t.Error("view missing control panel")
	}
}

func TestControlModel_Repetitions(t *testing.T) {
	m, _ := newTestModel(t)

	for i := 0; i < control.MaxRepetitions+5; i++ {
		model, _ := m.Update(key("+"))
		m = model.(controlModel)
	}
	if m.repetitions != control.MaxRepetitions {
		t.Errorf("repetitions = %d, want cap %d", m.repetitions, control.MaxRepetitions)
	}

	for i := 0; i < control.MaxRepetitions+5; i++ {
		model, _ := m.Update(key("-"))
		m = model.(controlModel)
	}
	if m.repetitions != 0 {
		t.Errorf("repetitions = %d, want 0", m.repetitions)
	}
}

func TestControlModel_SelectsRemote(t *testing.T) {
	m, st := newTestModel(t)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(controlModel)
	if sel := m.selectedRemote(); sel == nil || sel.status.Name != "office" {
		t.Fatalf("selected = %+v", sel)
	}

	model, cmd := m.Update(key("m"))
	m = model.(controlModel)
	m.Update(cmd())

	if e, _ := st.Entry("office"); e.RollingCode != 2 {
		t.Errorf("office rolling code = %d, want 2", e.RollingCode)
	}
	if e, _ := st.Entry("kitchen"); e.RollingCode != 10 {
		t.Errorf("kitchen rolling code changed to %d", e.RollingCode)
	}
}
