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

import "bytes"

// Encode writes a host to PN532 information frame for payload into dst,
// growing it if needed, and returns the frame:
//
//	00 FF LEN LCS D4 <payload> DCS
func Encode(dst, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, &TooMuchDataError{Len: len(payload)}
	}

	n := len(payload) + Overhead
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	length := byte(len(payload) + 1)
	dst[0] = StartCode1
	dst[1] = StartCode2
	dst[2] = length
	dst[3] = -length
	dst[4] = HostToPN532
	copy(dst[5:], payload)
	dst[5+len(payload)] = -Checksum(HostToPN532, payload)

	return dst, nil
}

// Decode parses one PN532 to host frame out of window and copies its payload
// into dst. Bytes before the start code are skipped. When dst is shorter than
// the payload the excess is dropped silently; the returned count is the
// number of bytes copied.
func Decode(window, dst []byte) (int, error) {
	var p Parser
	i := 0
	for i < len(window) {
		more, err := p.Next(window[i])
		i++
		if err != nil {
			return 0, err
		}
		if !more {
			break
		}
	}

	l, ok := p.Len()
	if !ok {
		return 0, ErrUnexpectedEnd
	}

	length := int(l)
	rest := window[i:]
	if length > len(rest) {
		return 0, ErrUnexpectedEnd
	}
	if length == 0 {
		return 0, &ByteError{Actual: 0, Expected: "value at least 0x01"}
	}

	// LEN counts the TFI, so rest[:length] is payload plus DCS.
	if Checksum(PN532ToHost, rest[:length]) != 0 {
		return 0, &ChecksumError{Kind: ChecksumData}
	}

	return copy(dst, rest[:length-1]), nil
}

// ScanAck reports whether window contains a 00 FF pair. It does not check
// the rest of the ACK signature.
func ScanAck(window []byte) bool {
	var s PreambleState
	for _, b := range window {
		var done bool
		if s, done = s.Next(b); done {
			return true
		}
	}
	return false
}

// FindAck reports whether window contains the exact six byte ACK frame, and
// separately whether it contains a NACK frame.
func FindAck(window []byte) (ack, nack bool) {
	return bytes.Contains(window, AckFrame), bytes.Contains(window, NackFrame)
}
