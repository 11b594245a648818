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

// Package spi implements pn532.Bus over SPI using periph.io.
package spi

import (
	"fmt"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532wire"
	"github.com/ZaparooProject/go-pn532wire/internal/frame"
	"github.com/ZaparooProject/go-pn532wire/internal/syncutil"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// SPI protocol constants
	spiStatRead  = 0x02
	spiDataWrite = 0x01
	spiDataRead  = 0x03
	spiReady     = 0x01

	// Default SPI settings
	defaultFreq = 1 * physic.MegaHertz
	mode        = spi.Mode0 // CPOL=0, CPHA=0 (LSB first is handled by bit reversal)
)

// Transport is a pn532.Bus on an SPI port. A Bus read becomes a status read
// followed, when the device is ready, by a data read into the rest of the
// window.
type Transport struct {
	port     spi.PortCloser // nil when the connection is owned by the caller
	conn     spi.Conn
	portName string
	mu       syncutil.Mutex
	closed   bool
}

var _ pn532.Bus = (*Transport)(nil)

// New opens the named SPI port (e.g. "/dev/spidev0.0") and wakes the PN532.
func New(portName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(defaultFreq, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	t := NewWithConn(conn, portName)
	t.port = port
	t.wakeup()
	return t, nil
}

// NewWithConn wraps an already connected SPI conn. Close does not close it.
func NewWithConn(conn spi.Conn, name string) *Transport {
	return &Transport{conn: conn, portName: name}
}

// wakeup sends the wake up sequence to PN532
func (t *Transport) wakeup() {
	time.Sleep(1 * time.Millisecond)
	_ = t.conn.Tx([]byte{0x00}, nil) // Ignore error for wakeup
	time.Sleep(1 * time.Millisecond)
}

// reverseBit reverses the bits in a byte (LSB <-> MSB)
// PN532 uses LSB first, but most SPI implementations are MSB first
func reverseBit(b byte) byte {
	var result byte
	for range 8 {
		result <<= 1
		result |= b & 1
		b >>= 1
	}
	return result
}

func reverseInPlace(data []byte) {
	for i, b := range data {
		data[i] = reverseBit(b)
	}
}

// Read fills buf[0] with the status byte and, when the device is ready,
// buf[1:] with the data that follows.
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

	status := []byte{reverseBit(spiStatRead), 0}
	resp := make([]byte, 2)
	if err := t.conn.Tx(status, resp); err != nil {
		return 0, pn532.NewTransportError("status read", t.portName, err)
	}
	buf[0] = reverseBit(resp[1])
	if buf[0]&spiReady == 0 || len(buf) == 1 {
		return len(buf), nil
	}

	w := frame.GetBuffer(len(buf))
	defer frame.PutBuffer(w)
	r := frame.GetBuffer(len(buf))
	defer frame.PutBuffer(r)

	w[0] = reverseBit(spiDataRead)
	if err := t.conn.Tx(w, r); err != nil {
		return 0, pn532.NewTransportError("data read", t.portName, err)
	}
	reverseInPlace(r[1:])
	copy(buf[1:], r[1:])
	return len(buf), nil
}

// Write sends buf prefixed with the data-write command byte.
func (t *Transport) Write(buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return pn532.NewTransportError("write", t.portName, pn532.ErrTransportClosed)
	}

	w := frame.GetBuffer(len(buf) + 1)
	defer frame.PutBuffer(w)
	w[0] = spiDataWrite
	copy(w[1:], buf)
	reverseInPlace(w)

	if err := t.conn.Tx(w, nil); err != nil {
		return pn532.NewTransportError("write", t.portName, err)
	}
	return nil
}

// Close closes the SPI port if New opened it.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	if t.port != nil {
		err := t.port.Close()
		t.port = nil
		if err != nil {
			return fmt.Errorf("failed to close SPI port: %w", err)
		}
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
	return "spi:" + t.portName
}
