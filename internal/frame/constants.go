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

package frame

// Frame identifiers (TFI)
const (
	HostToPN532 = 0xD4 // Commands from host to PN532
	PN532ToHost = 0xD5 // Responses from PN532 to host
)

// Frame markers
const (
	StartCode1 = 0x00 // Start code byte 1
	StartCode2 = 0xFF // Start code byte 2
)

// Frame size limits
const (
	// MaxPayload is the largest payload a normal information frame can carry.
	// LEN counts the TFI byte too, so 254 payload bytes give LEN = 0xFF.
	MaxPayload = 254
	// Overhead is the number of framing bytes around an outbound payload:
	// start code (2) + LEN + LCS + TFI + DCS.
	Overhead = 6
	// MaxFrameLength is the size of the largest outbound frame.
	MaxFrameLength = MaxPayload + Overhead
	// ReadWindow is the number of bytes fetched per ready poll, including the
	// leading status byte. It matches the chip's poll granularity.
	ReadWindow = 32
	// CommandBufferSize is the size of the scratch buffers commands are
	// assembled in and replies are received into.
	CommandBufferSize = 256
)

// ACK and NACK frames - these are used for flow control
var (
	AckFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)
