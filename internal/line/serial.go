// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package line

import (
	"fmt"
	"sync"

	"go.bug.st/serial"

	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// Modem control lines usable as output
const (
	SignalRTS = "rts"
	SignalDTR = "dtr"
)

// modemPort is the part of serial.Port the transmitter uses
type modemPort interface {
	SetRTS(rts bool) error
	SetDTR(dtr bool) error
	Close() error
}

// Serial drives the RTS or DTR line of a serial port. Most USB-UART bridges
// drive these pins active low, so asserted means Low unless inverted.
type Serial struct {
	port     modemPort
	set      func(bool) error
	inverted bool
	once     sync.Once
}

// OpenSerial opens a serial port and parks the selected line at idle level
func OpenSerial(portName, signal string, inverted bool) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	s, err := newSerial(port, signal, inverted)
	if err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

func newSerial(port modemPort, signal string, inverted bool) (*Serial, error) {
	s := &Serial{port: port, inverted: inverted}
	switch signal {
	case SignalRTS, "":
		s.set = port.SetRTS
	case SignalDTR:
		s.set = port.SetDTR
	default:
		return nil, fmt.Errorf("unsupported modem signal %q (use %s or %s)", signal, SignalRTS, SignalDTR)
	}
	if err := s.SetLevel(rts.Low); err != nil {
		return nil, err
	}
	return s, nil
}

// SetLevel implements rts.Output
func (s *Serial) SetLevel(level rts.Level) error {
	asserted := (level == rts.Low) != s.inverted
	if err := s.set(asserted); err != nil {
		return fmt.Errorf("set modem line: %w", err)
	}
	return nil
}

// Close returns the line to idle and closes the port
func (s *Serial) Close() error {
	var err error
	s.once.Do(func() {
		s.SetLevel(rts.Low)
		err = s.port.Close()
	})
	return err
}
