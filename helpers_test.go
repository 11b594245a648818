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
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-pn532wire/internal/testing"
)

// fakeClock advances only when slept on.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

// scriptedBus returns the scripted windows in order, then reports not-ready
// forever.
type scriptedBus struct {
	readErr  error
	writeErr error
	windows  [][]byte
	written  [][]byte
	reads    int
}

func (b *scriptedBus) Read(buf []byte) (int, error) {
	b.reads++
	if b.readErr != nil {
		return 0, b.readErr
	}
	clear(buf)
	if len(b.windows) == 0 {
		return len(buf), nil
	}
	copy(buf, b.windows[0])
	b.windows = b.windows[1:]
	return len(buf), nil
}

func (b *scriptedBus) Write(buf []byte) error {
	b.written = append(b.written, append([]byte(nil), buf...))
	return b.writeErr
}

// newSimSession returns a session over a simulator with no poll delay.
func newSimSession(t *testing.T, opts ...CodecOption) (*Session, *testutil.VirtualPN532) {
	t.Helper()
	sim := testutil.NewVirtualPN532()
	return NewSession(NewBusyWait(sim, WithPollDelay(0)), opts...), sim
}
