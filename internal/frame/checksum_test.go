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

import "testing"

func TestChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		init byte
		want byte
	}{
		{name: "empty data", init: 0, data: []byte{}, want: 0},
		{name: "empty data keeps init", init: 0x42, data: nil, want: 0x42},
		{name: "zero init", init: 0, data: []byte{1, 2, 3}, want: 6},
		{name: "small init", init: 2, data: []byte{1, 2, 3}, want: 8},
		{name: "wraps around", init: 253, data: []byte{1, 2, 3}, want: 3},
		{name: "overflow to zero", init: 0, data: []byte{0xFF, 0x01}, want: 0x00},
		{name: "response TFI with DCS", init: PN532ToHost, data: []byte{0x2B}, want: 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Checksum(tt.init, tt.data); got != tt.want {
				t.Errorf("Checksum(%d, %v) = %d, want %d", tt.init, tt.data, got, tt.want)
			}
		})
	}
}
