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

// PreambleState tracks progress through the 00 FF start code.
type PreambleState uint8

const (
	// PreambleStart is the initial state; any byte other than 0x00 keeps it here.
	PreambleStart PreambleState = iota
	// PreambleZeroFound means the previous byte was 0x00.
	PreambleZeroFound
)

// Next consumes one byte. done is true exactly when b is the 0xFF that
// completes a 00 FF pair; leading and repeated 0x00 bytes are tolerated.
func (s PreambleState) Next(b byte) (next PreambleState, done bool) {
	switch {
	case s == PreambleZeroFound && b == StartCode2:
		return PreambleStart, true
	case b == StartCode1:
		return PreambleZeroFound, false
	default:
		return PreambleStart, false
	}
}

type stage uint8

const (
	stagePreamble stage = iota
	stageLength
	stageLengthChecksum
	stageFrameIdentifier
	stageDone
)

// Parser decodes the header of a PN532 to host frame one byte at a time:
// start code, LEN, LCS and TFI. The zero value is ready to use.
type Parser struct {
	stage    stage
	preamble PreambleState
	length   byte
}

// Next consumes one byte and reports whether the parser wants more input.
// It returns false with a nil error once the TFI has been accepted. Once
// done, further bytes are ignored.
func (p *Parser) Next(b byte) (bool, error) {
	switch p.stage {
	case stagePreamble:
		next, done := p.preamble.Next(b)
		p.preamble = next
		if done {
			p.stage = stageLength
		}
	case stageLength:
		p.length = b
		p.stage = stageLengthChecksum
	case stageLengthChecksum:
		if p.length+b != 0 {
			return false, &ChecksumError{Kind: ChecksumLength}
		}
		p.stage = stageFrameIdentifier
	case stageFrameIdentifier:
		if b != PN532ToHost {
			return false, &ByteError{Actual: b, Expected: "0xD5"}
		}
		p.stage = stageDone
	case stageDone:
	}
	return p.stage != stageDone, nil
}

// Done reports whether a complete header has been parsed.
func (p *Parser) Done() bool {
	return p.stage == stageDone
}

// Len returns the LEN field once the header is complete.
func (p *Parser) Len() (byte, bool) {
	if p.stage != stageDone {
		return 0, false
	}
	return p.length, true
}
