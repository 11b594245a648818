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

// Package pn532 talks to NXP PN532 NFC controllers at the frame level:
// readiness polling, frame encoding and decoding, a small command session
// and zero-copy enumeration of listed tags.
//
// Tag enumeration borrows the session: while a Tags chain is alive every
// other command fails with ErrSessionBusy. Walk the chain to the end or
// defer tags.Release() right after ListTags succeeds.
package pn532

import (
	"context"
	"time"
)

// Bus is the raw byte channel to a PN532. Each concrete transport (I2C, SPI,
// HSU) and every test double implements it.
//
// Read fills buf with one fixed-size chunk from the device. buf[0] is the
// device status byte; bit 0 set means the chip has a frame ready and the
// remaining bytes hold it. Write sends the whole buffer in one operation.
type Bus interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) error
}

// Waiter is the readiness-aware view of a Bus used by the frame codec.
// *BusyWait implements it.
type Waiter interface {
	// Write forwards buf to the bus unchanged.
	Write(buf []byte) error
	// WaitRead polls until the device reports ready, then returns the read.
	WaitRead(ctx context.Context, buf []byte) (int, error)
	// WaitReadTimeout is WaitRead bounded by timeout, returning ErrTimeout.
	WaitReadTimeout(ctx context.Context, buf []byte, timeout time.Duration) (int, error)
}

// Closer is implemented by transports that own an OS handle.
type Closer interface {
	Close() error
}
