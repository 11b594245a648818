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

// Package uart implements pn532.Bus over a serial port (HSU mode).
package uart

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532wire"
	"github.com/ZaparooProject/go-pn532wire/internal/frame"
	"github.com/ZaparooProject/go-pn532wire/internal/syncutil"
	"go.bug.st/serial"
)

const (
	pn532Ready = 0x01
	baudRate   = 115200
	chunkSize  = 64

	// headerLen is the bytes from the start code through LCS.
	headerLen = 4
)

// wakeUpSequence takes the PN532 out of power-down before every frame.
var wakeUpSequence = []byte{
	0x55, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// Transport is a pn532.Bus on a serial port. A UART has no status byte, so
// Read synthesizes one: the device is ready once a complete frame has been
// buffered. Each Read hands back at most one frame; bytes past it stay
// queued for the next Read.
type Transport struct {
	port     serial.Port
	pending  []byte
	portName string
	mu       syncutil.Mutex
	closed   bool
}

var _ pn532.Bus = (*Transport)(nil)

// isWindows returns true if running on Windows
func isWindows() bool {
	return runtime.GOOS == "windows"
}

// readTimeout bounds every port read. Windows drivers need longer.
func readTimeout() time.Duration {
	if isWindows() {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// New opens the named serial port at 115200 8N1.
func New(portName string) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(readTimeout()); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	return NewWithPort(port, portName), nil
}

// NewWithPort wraps an open serial port. The port should have a read
// timeout set so that Read returns when the line is idle.
func NewWithPort(port serial.Port, name string) *Transport {
	return &Transport{port: port, portName: name}
}

// frameEnd returns the index just past the first frame in data, including
// the postamble. It returns -1 when the header has not arrived yet.
func frameEnd(data []byte) int {
	s := bytes.Index(data, []byte{frame.StartCode1, frame.StartCode2})
	if s < 0 || len(data) < s+headerLen {
		return -1
	}
	length, lcs := data[s+2], data[s+3]
	if (length == 0x00 && lcs == 0xFF) || (length == 0xFF && lcs == 0x00) {
		// ACK or NACK
		return s + headerLen + 1
	}
	return s + headerLen + int(length) + 2
}

// fill reads from the port until a whole frame is buffered or the line goes
// idle.
func (t *Transport) fill() error {
	chunk := frame.GetBuffer(chunkSize)
	defer frame.PutBuffer(chunk)

	for {
		if end := frameEnd(t.pending); end >= 0 && len(t.pending) >= end {
			return nil
		}
		n, err := t.port.Read(chunk)
		if err != nil {
			return pn532.NewTransportError("read", t.portName, err)
		}
		if n == 0 {
			return nil
		}
		t.pending = append(t.pending, chunk[:n]...)

		// Line noise with no start code in sight.
		if len(t.pending) > 2*frame.MaxFrameLength && frameEnd(t.pending) < 0 {
			pn532.Debugf("uart %s: dropping %d bytes of noise", t.portName, len(t.pending))
			t.pending = t.pending[:0]
		}
	}
}

// Read reports ready in buf[0] once a complete frame is available and
// copies it into buf[1:]. Frames longer than the window are truncated and
// the remainder discarded.
func (t *Transport) Read(buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, pn532.NewTransportError("read", t.portName, pn532.ErrTransportClosed)
	}
	if len(buf) == 0 {
		return 0, nil
	}
	clear(buf)

	if err := t.fill(); err != nil {
		return 0, err
	}
	end := frameEnd(t.pending)
	if end < 0 || len(t.pending) < end {
		return len(buf), nil
	}

	copy(buf[1:], t.pending[:end])
	t.pending = append(t.pending[:0], t.pending[end:]...)
	buf[0] = pn532Ready
	return len(buf), nil
}

// Write wakes the PN532 and sends buf.
func (t *Transport) Write(buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return pn532.NewTransportError("write", t.portName, pn532.ErrTransportClosed)
	}
	if err := t.writeAll("wake up", wakeUpSequence); err != nil {
		return err
	}
	return t.writeAll("send frame", buf)
}

func (t *Transport) writeAll(op string, data []byte) error {
	n, err := t.port.Write(data)
	if err != nil {
		return pn532.NewTransportError(op, t.portName, err)
	}
	if n != len(data) {
		return pn532.NewTransportError(op, t.portName, pn532.ErrTransportWrite)
	}
	return t.drainWithRetry(op)
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// drainWithRetry performs port drain with retry logic for interrupted system calls
func (t *Transport) drainWithRetry(operation string) error {
	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	for attempt := range maxRetries {
		err := t.port.Drain()
		if err == nil {
			return nil
		}
		if !isInterruptedSystemCall(err) || attempt == maxRetries-1 {
			return fmt.Errorf("UART %s drain failed: %w", operation, err)
		}
		time.Sleep(baseDelay * time.Duration(1<<attempt)) // 2ms, 4ms
	}
	return fmt.Errorf("UART %s drain failed after %d retries", operation, maxRetries)
}

// Close closes the serial port.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.pending = nil
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// IsConnected returns true until Close is called.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// String returns the port name.
func (t *Transport) String() string {
	return "uart:" + t.portName
}
