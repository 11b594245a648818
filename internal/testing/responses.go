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

// BuildResponseFrame frames payload as the PN532 sends it to the host:
// preamble, start code, LEN, LCS, TFI 0xD5, payload, DCS, postamble.
func BuildResponseFrame(payload []byte) []byte {
	length := byte(len(payload) + 1)
	out := make([]byte, 0, len(payload)+8)
	out = append(out, 0x00, frame.StartCode1, frame.StartCode2, length, -length, frame.PN532ToHost)
	out = append(out, payload...)
	return append(out, -frame.Checksum(frame.PN532ToHost, payload), 0x00)
}

// BuildErrorFrame is the application-level error frame the PN532 sends for
// a syntax error in a command.
func BuildErrorFrame() []byte {
	return []byte{0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00}
}

// ReadyWindow lays out a read window of size n as a ready device returns it:
// status byte 0x01 followed by data, zero-padded or cut to fit.
func ReadyWindow(n int, data ...[]byte) []byte {
	w := make([]byte, n)
	if n == 0 {
		return w
	}
	w[0] = 0x01
	pos := 1
	for _, d := range data {
		pos += copy(w[pos:], d)
	}
	return w
}

// BuildFirmwareVersionResponse is the GetFirmwareVersion reply of a PN532 v1.6.
func BuildFirmwareVersionResponse() []byte {
	return []byte{0x03, 0x32, 0x01, 0x06, 0x07}
}

// BuildSAMConfigurationResponse is the SAMConfiguration reply.
func BuildSAMConfigurationResponse() []byte {
	return []byte{0x15}
}

// BuildNoTagResponse is an InListPassiveTarget reply without targets.
func BuildNoTagResponse() []byte {
	return []byte{0x4B, 0x00}
}

// BuildNTAGDetectionResponse is an InListPassiveTarget reply carrying one
// NTAG with the given UID.
func BuildNTAGDetectionResponse(uid []byte) []byte {
	res := make([]byte, 0, 7+len(uid))
	res = append(res, 0x4B, 0x01, 0x01, 0x00, 0x44, 0x00, byte(len(uid)))
	return append(res, uid...)
}

// BuildDataExchangeResponse is a successful InDataExchange reply.
func BuildDataExchangeResponse(data []byte) []byte {
	res := make([]byte, 0, 2+len(data))
	res = append(res, 0x41, 0x00)
	return append(res, data...)
}

// BuildErrorResponse is a reply to cmd carrying errorCode in its status byte.
func BuildErrorResponse(cmd, errorCode byte) []byte {
	return []byte{cmd + 1, errorCode}
}

// Common UIDs for testing
var (
	// TestNTAG213UID is a sample NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}
	// TestMIFAREUID is a sample 4-byte MIFARE Classic UID
	TestMIFAREUID = []byte{0x12, 0x34, 0x56, 0x78}
	// TestDESFireUID is a sample ISO14443-4 UID
	TestDESFireUID = []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
)
