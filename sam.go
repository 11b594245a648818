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

package pn532

// SAM mode codes sent in SAMConfiguration.
const (
	samCodeNormal      = 0x01
	samCodeVirtualCard = 0x02
	samCodeWiredCard   = 0x03
	samCodeDualCard    = 0x04
)

// SAMMode selects how the PN532 routes traffic to its Security Access Module.
// The set of modes is closed; build values with the constructors below.
type SAMMode interface {
	// Code returns the mode byte sent to the device.
	Code() byte
	// Timeout returns the virtual card timeout in units of 50ms, if one is set.
	Timeout() (byte, bool)
	sealedSAMMode()
}

type samMode struct {
	code       byte
	timeout    byte
	hasTimeout bool
}

func (m samMode) Code() byte { return m.code }

func (m samMode) Timeout() (byte, bool) { return m.timeout, m.hasTimeout }

func (samMode) sealedSAMMode() {}

// NormalMode disables the SAM. This is the mode every reader application
// wants before listing tags.
func NormalMode() SAMMode {
	return samMode{code: samCodeNormal}
}

// NormalModeTimeout is NormalMode with an explicit timeout byte.
func NormalModeTimeout(timeout byte) SAMMode {
	return samMode{code: samCodeNormal, timeout: timeout, hasTimeout: true}
}

// VirtualCardMode pairs the PN532 and SAM as one contactless card. It always
// carries a timeout.
func VirtualCardMode(timeout byte) SAMMode {
	return samMode{code: samCodeVirtualCard, timeout: timeout, hasTimeout: true}
}

// WiredCardMode lets the host talk to the SAM directly.
func WiredCardMode() SAMMode {
	return samMode{code: samCodeWiredCard}
}

// WiredCardModeTimeout is WiredCardMode with an explicit timeout byte.
func WiredCardModeTimeout(timeout byte) SAMMode {
	return samMode{code: samCodeWiredCard, timeout: timeout, hasTimeout: true}
}

// DualCardMode exposes both the PN532 and the SAM to external readers.
func DualCardMode() SAMMode {
	return samMode{code: samCodeDualCard}
}

// DualCardModeTimeout is DualCardMode with an explicit timeout byte.
func DualCardModeTimeout(timeout byte) SAMMode {
	return samMode{code: samCodeDualCard, timeout: timeout, hasTimeout: true}
}

// encodeSAMConfiguration appends the SAMConfiguration command for mode to dst.
// The timeout byte is only present when the mode carries one; the IRQ byte
// (0x01) always terminates the command.
func encodeSAMConfiguration(dst []byte, mode SAMMode) []byte {
	dst = append(dst, cmdSAMConfiguration, mode.Code())
	if t, ok := mode.Timeout(); ok {
		dst = append(dst, t)
	}
	return append(dst, 0x01)
}
