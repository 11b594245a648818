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

import (
	"errors"
	"fmt"
)

// ErrUnexpectedEnd is returned when fewer bytes are available than the
// frame header declares.
var ErrUnexpectedEnd = errors.New("received message is too short")

// ChecksumKind identifies which checksum of a frame failed.
type ChecksumKind int

const (
	// ChecksumLength is the LEN + LCS check.
	ChecksumLength ChecksumKind = iota
	// ChecksumData is the TFI + payload + DCS check.
	ChecksumData
)

func (k ChecksumKind) String() string {
	if k == ChecksumLength {
		return "length"
	}
	return "data"
}

// ChecksumError reports a frame whose length or data checksum does not sum to zero.
type ChecksumError struct {
	Kind ChecksumKind
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("packet %s has invalid checksum", e.Kind)
}

// ByteError reports a byte that does not match what the protocol requires
// at its position.
type ByteError struct {
	Expected string
	Actual   byte
}

func (e *ByteError) Error() string {
	return fmt.Sprintf("invalid byte (0x%02X) encountered, expected %s", e.Actual, e.Expected)
}

// TooMuchDataError is returned when a payload does not fit a normal information frame.
type TooMuchDataError struct {
	Len int
}

func (e *TooMuchDataError) Error() string {
	return fmt.Sprintf("tried to write %d bytes of data but writing more than %d bytes is not supported",
		e.Len, MaxPayload)
}
