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
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/go-pn532wire/internal/frame"
	testutil "github.com/ZaparooProject/go-pn532wire/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScriptedCodec(windows ...[]byte) (*Codec, *scriptedBus) {
	bus := &scriptedBus{windows: windows}
	return NewCodec(NewBusyWait(bus, WithClock(newFakeClock()))), bus
}

func TestCodec_LoopbackRoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewCodec(NewBusyWait(testutil.NewLoopback(), WithPollDelay(0)))
	payloads := [][]byte{{}, {42}, {42, 47}, {0, 1, 2}}

	for _, payload := range payloads {
		require.NoError(t, codec.Send(payload))

		dst := make([]byte, 16)
		n, err := codec.Recv(context.Background(), dst)
		require.NoError(t, err)
		assert.Equal(t, len(payload), n)
		assert.Equal(t, payload, dst[:n])
	}
}

func TestCodec_SendEncodesSingleWrite(t *testing.T) {
	t.Parallel()

	codec, bus := newScriptedCodec()
	require.NoError(t, codec.Send([]byte{0x14, 0x01, 0x01}))

	require.Len(t, bus.written, 1)
	assert.Equal(t, []byte{0x00, 0xFF, 0x04, 0xFC, 0xD4, 0x14, 0x01, 0x01, 0x16}, bus.written[0])
}

func TestCodec_SendErrors(t *testing.T) {
	t.Parallel()

	t.Run("too much data", func(t *testing.T) {
		t.Parallel()
		codec, bus := newScriptedCodec()
		err := codec.Send(make([]byte, 255))

		var tooMuch *TooMuchDataError
		require.ErrorAs(t, err, &tooMuch)
		assert.Equal(t, 255, tooMuch.Len)
		var sendErr *SendError
		require.ErrorAs(t, err, &sendErr)
		assert.Empty(t, bus.written)
	})

	t.Run("max payload fits", func(t *testing.T) {
		t.Parallel()
		codec, bus := newScriptedCodec()
		require.NoError(t, codec.Send(make([]byte, 254)))
		assert.Len(t, bus.written[0], 260)
	})

	t.Run("write failure", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("nak on bus")
		bus := &scriptedBus{writeErr: boom}
		codec := NewCodec(NewBusyWait(bus))

		err := codec.Send([]byte{0x02})
		require.ErrorIs(t, err, boom)
		var sendErr *SendError
		require.ErrorAs(t, err, &sendErr)
	})
}

func TestCodec_RecvMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		check  func(t *testing.T, err error)
		name   string
		window []byte
	}{
		{
			name:   "length checksum",
			window: []byte{0x01, 0x00, 0xFF, 0x02, 0x02, 0xD5, 0x00, 0x2B},
			check: func(t *testing.T, err error) {
				t.Helper()
				var ce *ChecksumError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, ChecksumLength, ce.Kind)
			},
		},
		{
			name:   "frame identifier",
			window: []byte{0x01, 0x00, 0xFF, 0x01, 0xFF, 0xD4, 0x2C},
			check: func(t *testing.T, err error) {
				t.Helper()
				var be *ByteError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, byte(0xD4), be.Actual)
			},
		},
		{
			name:   "data checksum",
			window: []byte{0x01, 0x00, 0xFF, 0x02, 0xFE, 0xD5, 0x03, 0x00},
			check: func(t *testing.T, err error) {
				t.Helper()
				var ce *ChecksumError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, ChecksumData, ce.Kind)
			},
		},
		{
			name:   "no preamble",
			window: []byte{0x01, 0x12, 0x34},
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, ErrUnexpectedEnd)
			},
		},
		{
			name:   "zero length",
			window: []byte{0x01, 0x00, 0xFF, 0x00, 0x00, 0xD5},
			check: func(t *testing.T, err error) {
				t.Helper()
				var be *ByteError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, byte(0x00), be.Actual)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			codec, _ := newScriptedCodec(tt.window)
			_, err := codec.Recv(context.Background(), make([]byte, 16))
			require.Error(t, err)

			var recvErr *RecvError
			require.ErrorAs(t, err, &recvErr)
			tt.check(t, err)
		})
	}
}

func TestCodec_RecvTruncatesSilently(t *testing.T) {
	t.Parallel()

	window := testutil.ReadyWindow(frame.ReadWindow, testutil.BuildResponseFrame([]byte{1, 2, 3, 4, 5}))
	codec, _ := newScriptedCodec(window)

	dst := make([]byte, 2)
	n, err := codec.Recv(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{1, 2}, dst)
}

func TestCodec_RecvWithTimeout(t *testing.T) {
	t.Parallel()

	t.Run("timeout is not wrapped in RecvError", func(t *testing.T) {
		t.Parallel()
		codec, _ := newScriptedCodec()
		_, err := codec.RecvWithTimeout(context.Background(), make([]byte, 4), time.Second)

		require.ErrorIs(t, err, ErrTimeout)
		var recvErr *RecvError
		assert.False(t, errors.As(err, &recvErr))
	})

	t.Run("decodes like Recv", func(t *testing.T) {
		t.Parallel()
		window := testutil.ReadyWindow(frame.ReadWindow, testutil.BuildResponseFrame([]byte{0x15}))
		codec, _ := newScriptedCodec([]byte{0x00}, window)

		dst := make([]byte, 4)
		n, err := codec.RecvWithTimeout(context.Background(), dst, time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x15}, dst[:n])
	})

	t.Run("read failure wrapped", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("bus fault")
		codec := NewCodec(NewBusyWait(&scriptedBus{readErr: boom}, WithClock(newFakeClock())))
		_, err := codec.RecvWithTimeout(context.Background(), make([]byte, 4), time.Second)

		require.ErrorIs(t, err, boom)
		var recvErr *RecvError
		require.ErrorAs(t, err, &recvErr)
	})
}

func TestCodec_RecvAckLax(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		window []byte
		ok     bool
	}{
		{name: "ack", window: testutil.ReadyWindow(8, frame.AckFrame), ok: true},
		{name: "nack still passes", window: testutil.ReadyWindow(8, frame.NackFrame), ok: true},
		{name: "bare pair", window: []byte{0x01, 0x00, 0xFF}, ok: true},
		{name: "no pair", window: []byte{0x01, 0xFF, 0x00, 0x12}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			codec, _ := newScriptedCodec(tt.window)
			err := codec.RecvAck(context.Background())
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrUnexpectedEnd)
		})
	}
}

func TestCodec_RecvAckStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want   error
		name   string
		window []byte
	}{
		{name: "ack", window: testutil.ReadyWindow(8, frame.AckFrame)},
		{name: "nack", window: testutil.ReadyWindow(8, frame.NackFrame), want: ErrNACKReceived},
		{name: "bare pair", window: []byte{0x01, 0x00, 0xFF}, want: ErrNoACK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bus := &scriptedBus{windows: [][]byte{tt.window}}
			codec := NewCodec(NewBusyWait(bus, WithClock(newFakeClock())), WithStrictAck())
			err := codec.RecvAck(context.Background())
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCodec_ErrorsCarryWireTrace(t *testing.T) {
	t.Parallel()

	bus := &scriptedBus{windows: [][]byte{{0x01, 0x12}}}
	codec := NewCodec(NewBusyWait(bus, WithClock(newFakeClock())), WithTraceLabel("test-reader"))

	require.NoError(t, codec.Send([]byte{0x02}))
	err := codec.RecvAck(context.Background())
	require.Error(t, err)

	te := GetTrace(err)
	require.NotNil(t, te)
	assert.Equal(t, "test-reader", te.Label)
	require.Len(t, te.Trace, 2)
	assert.Equal(t, TraceTX, te.Trace[0].Direction)
	assert.Equal(t, TraceRX, te.Trace[1].Direction)

	formatted := te.FormatTrace()
	assert.True(t, strings.HasPrefix(formatted, "[test-reader] Wire trace (2 entries)"))
	assert.Contains(t, formatted, "> 00 FF 02 FE D4 02 2A")
	assert.Len(t, codec.Trace(), 2)
}

func TestCodec_SendWaitAckAgainstSimulator(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	codec := NewCodec(NewBusyWait(sim, WithPollDelay(0)), WithStrictAck())

	require.NoError(t, codec.SendWaitAck(context.Background(), []byte{0x02}))
	dst := make([]byte, 8)
	n, err := codec.Recv(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, testutil.BuildFirmwareVersionResponse(), dst[:n])

	sim.InjectNACK()
	err = codec.SendWaitAck(context.Background(), []byte{0x02})
	require.ErrorIs(t, err, ErrNACKReceived)
}
