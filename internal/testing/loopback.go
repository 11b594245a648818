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

package testing

import "github.com/ZaparooProject/go-pn532wire/internal/frame"

// Loopback is a bus that answers every read with the last frame written,
// turned around into a device-to-host frame. It is always ready.
type Loopback struct {
	buf [frame.MaxFrameLength + 2]byte
	n   int
}

// NewLoopback creates an empty loopback bus.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Write stores buf with its TFI switched to 0xD5 and the data checksum
// adjusted to match.
func (l *Loopback) Write(buf []byte) error {
	l.n = copy(l.buf[:], buf)
	if l.n > 5 {
		l.buf[4] = frame.PN532ToHost
		l.buf[l.n-1]--
	}
	return nil
}

// Read reports ready and copies the stored frame after the status byte.
func (l *Loopback) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	buf[0] = 0x01
	copy(buf[1:], l.buf[:])
	return len(buf), nil
}
