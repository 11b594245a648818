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

// Package i2c implements pn532.Bus over I2C using periph.io.
package i2c

import (
	"fmt"
	"strings"

	pn532 "github.com/ZaparooProject/go-pn532wire"
	"github.com/ZaparooProject/go-pn532wire/internal/syncutil"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// PN532 7-bit I2C address (datasheet says 0x48, which is the 8-bit write
	// address including the R/W bit; periph.io and the Linux kernel expect the
	// 7-bit form: 0x48 >> 1 = 0x24).
	pn532Addr = 0x24

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz
)

// Transport is a pn532.Bus on an I2C bus. Every read transaction returns
// the PN532 status byte first, which is exactly the Bus read contract, so
// reads and writes map one to one onto I2C transactions.
type Transport struct {
	dev     *i2c.Dev
	bus     i2c.Bus
	closer  i2c.BusCloser // nil when the bus is owned by the caller
	busName string
	mu      syncutil.Mutex
}

var _ pn532.Bus = (*Transport)(nil)

// parseI2CPath extracts the bus path from a composite path.
// Accepts "/dev/i2c-1:0x24" or "/dev/i2c-1".
func parseI2CPath(path string) string {
	bus, _, _ := strings.Cut(path, ":")
	return bus
}

// New opens the named I2C bus (e.g. "/dev/i2c-1" or "1") and addresses the
// PN532 on it.
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(parseI2CPath(busName))
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Continue at the default speed when the adapter refuses 400 kHz.
	if err := bus.SetSpeed(maxClockFreq); err != nil {
		pn532.Debugf("i2c %s: keeping default clock: %v", busName, err)
	}

	t := NewWithBus(bus, busName)
	t.closer = bus
	return t, nil
}

// NewWithBus addresses the PN532 on an already opened bus. Close does not
// close bus.
func NewWithBus(bus i2c.Bus, name string) *Transport {
	return &Transport{
		dev:     &i2c.Dev{Addr: pn532Addr, Bus: bus},
		bus:     bus,
		busName: name,
	}
}

// Read performs one I2C read transaction of len(buf) bytes.
func (t *Transport) Read(buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return 0, pn532.NewTransportError("read", t.busName, pn532.ErrTransportClosed)
	}
	if err := t.dev.Tx(nil, buf); err != nil {
		return 0, pn532.NewTransportError("read", t.busName, err)
	}
	return len(buf), nil
}

// Write sends buf in one I2C write transaction.
func (t *Transport) Write(buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return pn532.NewTransportError("write", t.busName, pn532.ErrTransportClosed)
	}
	if err := t.dev.Tx(buf, nil); err != nil {
		return pn532.NewTransportError("write", t.busName, err)
	}
	return nil
}

// Close releases the I2C bus file descriptor if New opened it.
// Must be called when the transport is no longer needed to prevent file
// descriptor leaks that can wedge the bus on rapid reopen cycles.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dev = nil
	if t.closer != nil {
		err := t.closer.Close()
		t.closer = nil
		if err != nil {
			return fmt.Errorf("failed to close I2C bus: %w", err)
		}
	}
	return nil
}

// IsConnected returns true until Close is called.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil
}

// String returns the bus name.
func (t *Transport) String() string {
	return "i2c:" + t.busName
}
