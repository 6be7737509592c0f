// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package line

import (
	"runtime"
	"time"
)

// sleepMargin is how early SpinDelay wakes from time.Sleep before spinning
// out the rest of the interval.
const sleepMargin = 2 * time.Millisecond

// SpinDelay implements rts.Delay with microsecond accuracy. Long intervals
// sleep for most of their length and busy-wait the remainder against the
// monotonic clock.
type SpinDelay struct{}

// DelayMicroseconds implements rts.Delay
func (SpinDelay) DelayMicroseconds(us uint32) error {
	d := time.Duration(us) * time.Microsecond
	deadline := time.Now().Add(d)
	if d > sleepMargin {
		time.Sleep(d - sleepMargin)
	}
	for time.Now().Before(deadline) {
	}
	return nil
}

// LockThread pins the calling goroutine to its OS thread for the length of a
// transmission. The returned function undoes it.
func LockThread() func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}
