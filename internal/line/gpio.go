// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package line provides the output-line backends a Transmitter drives: a
// Raspberry Pi GPIO pin, a serial port modem line, a WebSocket radio bridge
// and a dry-run printer.
package line

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// digitalPin is the part of rpio.Pin the transmitter uses
type digitalPin interface {
	High()
	Low()
}

// GPIO drives a Raspberry Pi pin through /dev/gpiomem
type GPIO struct {
	pin      digitalPin
	inverted bool
	close    func() error
	once     sync.Once
}

// OpenGPIO maps the GPIO registers and configures the BCM pin as an output
// at idle level.
func OpenGPIO(bcm int, inverted bool) (*GPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open gpio: %w", err)
	}

	pin := rpio.Pin(bcm)
	pin.Output()

	g := newGPIO(pin, inverted, rpio.Close)
	if err := g.SetLevel(rts.Low); err != nil {
		rpio.Close()
		return nil, err
	}
	return g, nil
}

func newGPIO(pin digitalPin, inverted bool, closeFn func() error) *GPIO {
	return &GPIO{pin: pin, inverted: inverted, close: closeFn}
}

// SetLevel implements rts.Output
func (g *GPIO) SetLevel(level rts.Level) error {
	if (level == rts.High) != g.inverted {
		g.pin.High()
	} else {
		g.pin.Low()
	}
	return nil
}

// Close returns the pin to idle and unmaps the registers
func (g *GPIO) Close() error {
	var err error
	g.once.Do(func() {
		g.SetLevel(rts.Low)
		if g.close != nil {
			err = g.close()
		}
	})
	return err
}
