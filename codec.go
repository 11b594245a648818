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
	"time"

	"github.com/ZaparooProject/go-pn532wire/internal/frame"
)

const traceDepth = 16

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithStrictAck makes RecvAck require the exact six-byte ACK frame instead of
// accepting any 00 FF pair in the read window.
func WithStrictAck() CodecOption {
	return func(c *Codec) {
		c.strictAck = true
	}
}

// WithTraceLabel sets the label shown in wire traces attached to errors.
func WithTraceLabel(label string) CodecOption {
	return func(c *Codec) {
		if label != "" {
			c.trace = NewTraceBuffer(label, traceDepth)
		}
	}
}

// Codec frames payloads onto a Waiter and decodes replies from it.
// It keeps the last few wire operations so errors can carry a trace.
type Codec struct {
	w         Waiter
	trace     *TraceBuffer
	strictAck bool
}

// NewCodec creates a frame codec over w.
func NewCodec(w Waiter, opts ...CodecOption) *Codec {
	c := &Codec{
		w:     w,
		trace: NewTraceBuffer("pn532", traceDepth),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trace returns the wire operations recorded so far, oldest first.
func (c *Codec) Trace() []TraceEntry {
	return c.trace.Entries()
}

// Send frames payload as a host-to-device information frame and writes it in
// a single bus write. Payloads over 254 bytes fail with *TooMuchDataError
// inside a *SendError.
func (c *Codec) Send(payload []byte) error {
	buf := frame.GetBuffer(frame.FrameBufferSize)
	defer frame.PutBuffer(buf)

	out, err := frame.Encode(buf, payload)
	if err != nil {
		return c.trace.WrapError(&SendError{Err: err})
	}

	c.trace.RecordTX(out, "")
	Debugf("TX: %X", out)
	if err := c.w.Write(out); err != nil {
		return c.trace.WrapError(&SendError{Err: err})
	}
	return nil
}

// Recv waits for a ready read window and decodes the frame in it, copying at
// most len(dst) payload bytes (TFI excluded) into dst. Longer payloads are
// truncated silently.
func (c *Codec) Recv(ctx context.Context, dst []byte) (int, error) {
	window := frame.GetBuffer(frame.ReadWindow)
	defer frame.PutBuffer(window)

	if _, err := c.w.WaitRead(ctx, window); err != nil {
		return 0, c.trace.WrapError(&RecvError{Err: err})
	}
	return c.decode(window, dst)
}

// RecvWithTimeout is Recv bounded by timeout. A timeout is returned as
// ErrTimeout rather than a *RecvError.
func (c *Codec) RecvWithTimeout(ctx context.Context, dst []byte, timeout time.Duration) (int, error) {
	window := frame.GetBuffer(frame.ReadWindow)
	defer frame.PutBuffer(window)

	if _, err := c.w.WaitReadTimeout(ctx, window, timeout); err != nil {
		if errors.Is(err, ErrTimeout) {
			return 0, c.trace.WrapError(err)
		}
		return 0, c.trace.WrapError(&RecvError{Err: err})
	}
	return c.decode(window, dst)
}

func (c *Codec) decode(window, dst []byte) (int, error) {
	c.trace.RecordRX(window, "")
	Debugf("RX: %X", window)

	n, err := frame.Decode(window, dst)
	if err != nil {
		return 0, c.trace.WrapError(&RecvError{Err: err})
	}
	return n, nil
}

// RecvAck waits for a ready read window and checks it for an ACK. By default
// any 00 FF pair counts; a window without one is ErrUnexpectedEnd. With
// WithStrictAck the window must contain the full ACK frame: a NACK gives
// ErrNACKReceived and anything else ErrNoACK.
func (c *Codec) RecvAck(ctx context.Context) error {
	window := frame.GetBuffer(frame.ReadWindow)
	defer frame.PutBuffer(window)

	if _, err := c.w.WaitRead(ctx, window); err != nil {
		return c.trace.WrapError(&RecvError{Err: err})
	}
	c.trace.RecordRX(window, "ack")
	Debugf("RX ACK: %X", window)

	if !c.strictAck {
		if frame.ScanAck(window) {
			return nil
		}
		return c.trace.WrapError(&RecvError{Err: ErrUnexpectedEnd})
	}

	ack, nack := frame.FindAck(window)
	switch {
	case ack:
		return nil
	case nack:
		return c.trace.WrapError(&RecvError{Err: ErrNACKReceived})
	default:
		return c.trace.WrapError(&RecvError{Err: ErrNoACK})
	}
}

// SendWaitAck sends payload and waits for the device to acknowledge it.
func (c *Codec) SendWaitAck(ctx context.Context, payload []byte) error {
	if err := c.Send(payload); err != nil {
		return err
	}
	return c.RecvAck(ctx)
}
