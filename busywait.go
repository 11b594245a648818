// go-pn532wire
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-pn532wire.
//
// go-pn532wire is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-pn532wire is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-pn532wire; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package pn532

import (
	"context"
	"time"
)

// DefaultPollDelay is the pause before every readiness poll. The PN532 needs
// roughly this long to settle after a command before its status is reliable.
const DefaultPollDelay = 190 * time.Millisecond

// Clock abstracts wall time so tests can drive BusyWait without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// WaitOption configures a BusyWait.
type WaitOption func(*BusyWait)

// WithPollDelay overrides the pause taken before each readiness poll.
func WithPollDelay(d time.Duration) WaitOption {
	return func(w *BusyWait) {
		if d >= 0 {
			w.delay = d
		}
	}
}

// WithClock injects the time source used for delays and timeouts.
func WithClock(c Clock) WaitOption {
	return func(w *BusyWait) {
		if c != nil {
			w.clock = c
		}
	}
}

// BusyWait turns a Bus into a Waiter by polling the status byte until the
// device reports ready. It is not safe for concurrent use; Session
// serializes access.
type BusyWait struct {
	bus   Bus
	clock Clock
	delay time.Duration
	polls uint64
}

// NewBusyWait wraps bus with readiness polling.
func NewBusyWait(bus Bus, opts ...WaitOption) *BusyWait {
	w := &BusyWait{
		bus:   bus,
		clock: systemClock{},
		delay: DefaultPollDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write forwards buf to the bus.
func (w *BusyWait) Write(buf []byte) error {
	return w.bus.Write(buf)
}

// WaitRead sleeps, reads one chunk and repeats until the chunk's status byte
// has bit 0 set. It returns len(buf) on success. Read errors are returned
// immediately. ctx is only consulted between polls; a poll in progress is
// never interrupted.
func (w *BusyWait) WaitRead(ctx context.Context, buf []byte) (int, error) {
	for {
		ready, err := w.poll(buf)
		if err != nil {
			return 0, err
		}
		if ready {
			return len(buf), nil
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

// WaitReadTimeout is WaitRead with an upper bound. The elapsed time is only
// checked after a not-ready poll, so the call may overshoot timeout by up to
// one poll delay plus one read.
func (w *BusyWait) WaitReadTimeout(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	start := w.clock.Now()
	for {
		ready, err := w.poll(buf)
		if err != nil {
			return 0, err
		}
		if ready {
			return len(buf), nil
		}
		if w.clock.Now().Sub(start) > timeout {
			Debugf("busy wait: not ready after %v (%d polls)", timeout, w.polls)
			return 0, ErrTimeout
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

func (w *BusyWait) poll(buf []byte) (bool, error) {
	w.clock.Sleep(w.delay)
	w.polls++
	if _, err := w.bus.Read(buf); err != nil {
		return false, err
	}
	return len(buf) > 0 && buf[0]&0x01 == 0x01, nil
}
