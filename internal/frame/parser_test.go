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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreambleState_NoStartCode(t *testing.T) {
	t.Parallel()

	s := PreambleStart
	for _, b := range []byte{0, 1, 2, 3} {
		var done bool
		s, done = s.Next(b)
		assert.False(t, done, "byte 0x%02X must not complete the start code", b)
	}
}

func TestPreambleState_CompletesOnFF(t *testing.T) {
	t.Parallel()

	s := PreambleStart
	input := []byte{0, 1, 2, 3, 0, 0xFF}
	for i, b := range input {
		var done bool
		s, done = s.Next(b)
		if done {
			assert.Equal(t, 5, i)
			assert.Equal(t, byte(0xFF), b)
			return
		}
	}
	t.Fatal("start code never completed")
}

func TestPreambleState_RepeatedZeros(t *testing.T) {
	t.Parallel()

	s := PreambleStart
	for _, b := range []byte{0, 0, 0} {
		s, _ = s.Next(b)
	}
	assert.Equal(t, PreambleZeroFound, s)

	_, done := s.Next(0xFF)
	assert.True(t, done)
}

func TestParser_Complete(t *testing.T) {
	t.Parallel()

	var p Parser
	input := []byte{0, 1, 2, 0, 0xFF, 1, 0xFF, 0xD5}
	for i, b := range input {
		more, err := p.Next(b)
		require.NoError(t, err)
		if i < len(input)-1 {
			assert.True(t, more, "parser finished early at byte %d", i)
		} else {
			assert.False(t, more)
		}
	}

	l, ok := p.Len()
	require.True(t, ok)
	assert.Equal(t, byte(1), l)
	assert.True(t, p.Done())
}

func TestParser_Incomplete(t *testing.T) {
	t.Parallel()

	var p Parser
	for _, b := range []byte{0, 1, 2, 0, 0xFF, 1} {
		more, err := p.Next(b)
		require.NoError(t, err)
		assert.True(t, more)
	}

	_, ok := p.Len()
	assert.False(t, ok)
	assert.False(t, p.Done())
}

func TestParser_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		check func(t *testing.T, err error)
		name  string
		input []byte
	}{
		{
			name:  "length checksum mismatch",
			input: []byte{0x00, 0xFF, 0x02, 0xFF},
			check: func(t *testing.T, err error) {
				var ce *ChecksumError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, ChecksumLength, ce.Kind)
			},
		},
		{
			name:  "host frame identifier",
			input: []byte{0x00, 0xFF, 0x01, 0xFF, 0xD4},
			check: func(t *testing.T, err error) {
				var be *ByteError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, byte(0xD4), be.Actual)
				assert.Equal(t, "0xD5", be.Expected)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p Parser
			var err error
			for _, b := range tt.input {
				if _, err = p.Next(b); err != nil {
					break
				}
			}
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestParser_IgnoresBytesAfterDone(t *testing.T) {
	t.Parallel()

	var p Parser
	for _, b := range []byte{0x00, 0xFF, 0x03, 0xFD, 0xD5} {
		_, err := p.Next(b)
		require.NoError(t, err)
	}

	more, err := p.Next(0x42)
	require.NoError(t, err)
	assert.False(t, more)

	l, ok := p.Len()
	require.True(t, ok)
	assert.Equal(t, byte(3), l)
}
