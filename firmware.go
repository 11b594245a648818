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

import "fmt"

// Support bits of the GetFirmwareVersion reply.
const (
	supportISO14443A = 0x01
	supportISO14443B = 0x02
	supportISO18092  = 0x04
)

// FirmwareVersion contains PN532 firmware information
type FirmwareVersion struct {
	IC      byte
	Ver     byte
	Rev     byte
	Support byte
}

// Version returns the firmware version as "ver.rev".
func (f *FirmwareVersion) Version() string {
	return fmt.Sprintf("%d.%d", f.Ver, f.Rev)
}

// SupportISO14443A reports whether the firmware handles ISO/IEC 14443 type A.
func (f *FirmwareVersion) SupportISO14443A() bool { return f.Support&supportISO14443A != 0 }

// SupportISO14443B reports whether the firmware handles ISO/IEC 14443 type B.
func (f *FirmwareVersion) SupportISO14443B() bool { return f.Support&supportISO14443B != 0 }

// SupportISO18092 reports whether the firmware handles ISO/IEC 18092.
func (f *FirmwareVersion) SupportISO18092() bool { return f.Support&supportISO18092 != 0 }

func (f *FirmwareVersion) String() string {
	return fmt.Sprintf("PN5%02X v%s (support 0x%02X)", f.IC, f.Version(), f.Support)
}

// parseFirmwareVersion decodes the GetFirmwareVersion reply [0x03 IC Ver Rev Support].
func parseFirmwareVersion(res []byte) (*FirmwareVersion, error) {
	if len(res) < 5 {
		return nil, ErrUnexpectedEnd
	}
	if res[0] != resGetFirmwareVersion {
		return nil, &ByteError{Actual: res[0], Expected: "0x03"}
	}
	return &FirmwareVersion{IC: res[1], Ver: res[2], Rev: res[3], Support: res[4]}, nil
}
