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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusyWait_WaitReadSleepsBeforeEveryPoll(t *testing.T) {
	t.Parallel()

	bus := &scriptedBus{windows: [][]byte{{0x00}, {0x02}, {0x01, 0xAA}}}
	clock := newFakeClock()
	w := NewBusyWait(bus, WithClock(clock))

	buf := make([]byte, 4)
	n, err := w.WaitRead(context.Background(), buf)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0x01, 0xAA, 0x00, 0x00}, buf)
	assert.Equal(t, 3, bus.reads)
	assert.Equal(t, []time.Duration{DefaultPollDelay, DefaultPollDelay, DefaultPollDelay}, clock.slept)
	assert.Equal(t, uint64(3), w.polls)
}

func TestBusyWait_ReadyBitOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status byte
		ready  bool
	}{
		{name: "zero", status: 0x00, ready: false},
		{name: "bit0", status: 0x01, ready: true},
		{name: "bit1 only", status: 0x02, ready: false},
		{name: "all bits", status: 0xFF, ready: true},
		{name: "high bits without bit0", status: 0xFE, ready: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bus := &scriptedBus{windows: [][]byte{{tt.status}, {0x01}}}
			w := NewBusyWait(bus, WithClock(newFakeClock()))

			_, err := w.WaitRead(context.Background(), make([]byte, 2))
			require.NoError(t, err)
			if tt.ready {
				assert.Equal(t, 1, bus.reads)
			} else {
				assert.Equal(t, 2, bus.reads)
			}
		})
	}
}

func TestBusyWait_ReadErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("bus fault")
	bus := &scriptedBus{readErr: boom}
	w := NewBusyWait(bus, WithClock(newFakeClock()))

	_, err := w.WaitRead(context.Background(), make([]byte, 4))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, bus.reads, "no retry after a read error")

	_, err = w.WaitReadTimeout(context.Background(), make([]byte, 4), time.Second)
	require.ErrorIs(t, err, boom)
}

func TestBusyWait_TimeoutNeverReady(t *testing.T) {
	t.Parallel()

	bus := &scriptedBus{}
	clock := newFakeClock()
	w := NewBusyWait(bus, WithClock(clock), WithPollDelay(100*time.Millisecond))
	start := clock.Now()

	_, err := w.WaitReadTimeout(context.Background(), make([]byte, 8), 250*time.Millisecond)

	require.ErrorIs(t, err, ErrTimeout)
	elapsed := clock.Now().Sub(start)
	assert.GreaterOrEqual(t, elapsed, 250*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 350*time.Millisecond, "overshoot is at most one poll")
	assert.Equal(t, 3, bus.reads)
}

func TestBusyWait_TimeoutStillReturnsLateReady(t *testing.T) {
	t.Parallel()

	// The deadline is only checked after a not-ready poll, so a ready read
	// that lands past the deadline is still a success.
	bus := &scriptedBus{windows: [][]byte{{0x00}, {0x01, 0x42}}}
	w := NewBusyWait(bus, WithClock(newFakeClock()), WithPollDelay(time.Second))

	buf := make([]byte, 2)
	_, err := w.WaitReadTimeout(context.Background(), buf, 1500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), buf[1])
}

func TestBusyWait_RealClockTimeout(t *testing.T) {
	t.Parallel()

	w := NewBusyWait(&scriptedBus{}, WithPollDelay(5*time.Millisecond))
	start := time.Now()
	_, err := w.WaitReadTimeout(context.Background(), make([]byte, 4), 30*time.Millisecond)

	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestBusyWait_ContextCheckedBetweenPolls(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bus := &scriptedBus{}
	w := NewBusyWait(bus, WithClock(newFakeClock()))
	_, err := w.WaitRead(ctx, make([]byte, 4))

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, bus.reads, "the poll in progress completes first")
}

func TestBusyWait_ZeroLengthBufferIsNotReady(t *testing.T) {
	t.Parallel()

	w := NewBusyWait(&scriptedBus{}, WithClock(newFakeClock()), WithPollDelay(time.Millisecond))
	_, err := w.WaitReadTimeout(context.Background(), nil, 5*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestBusyWait_WriteForwards(t *testing.T) {
	t.Parallel()

	bus := &scriptedBus{}
	w := NewBusyWait(bus)
	require.NoError(t, w.Write([]byte{1, 2, 3}))
	assert.Equal(t, [][]byte{{1, 2, 3}}, bus.written)
}

func TestBusyWait_Options(t *testing.T) {
	t.Parallel()

	w := NewBusyWait(&scriptedBus{}, WithPollDelay(-time.Second), WithClock(nil))
	assert.Equal(t, DefaultPollDelay, w.delay, "negative delay ignored")
	assert.Equal(t, systemClock{}, w.clock, "nil clock ignored")
}
