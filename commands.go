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

// PN532 command codes. Every reply carries the command code plus one.
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSAMConfiguration    = 0x14
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
)

// Reply codes.
const (
	resGetFirmwareVersion  = cmdGetFirmwareVersion + 1
	resSAMConfiguration    = cmdSAMConfiguration + 1
	resInDataExchange      = cmdInDataExchange + 1
	resInListPassiveTarget = cmdInListPassiveTarget + 1
	resInRelease           = cmdInRelease + 1
)

// maxTags is the most targets InListPassiveTarget ever reports.
const maxTags = 2

// statusErrorMask selects the error code bits of a status byte. The upper
// bits flag NAD and chaining.
const statusErrorMask = 0x3F
