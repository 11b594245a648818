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

//nolint:paralleltest // tests replace package-level hooks
package uart

import (
	"context"
	"errors"
	"testing"

	"github.com/ZaparooProject/go-pn532wire/detection"
	virt "github.com/ZaparooProject/go-pn532wire/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

type closableSim struct {
	*virt.VirtualPN532
}

func (closableSim) Close() error { return nil }

// withPorts installs fake enumeration results and a fake opener that
// answers only on the given paths.
func withPorts(t *testing.T, ports []*enumerator.PortDetails, responders ...string) {
	t.Helper()
	origList, origOpen := listPorts, openPort
	t.Cleanup(func() { listPorts, openPort = origList, origOpen })

	listPorts = func() ([]*enumerator.PortDetails, error) { return ports, nil }
	openPort = func(path string) (detection.BusCloser, error) {
		for _, r := range responders {
			if r == path {
				return closableSim{virt.NewVirtualPN532()}, nil
			}
		}
		return nil, errors.New("no such device")
	}
}

var (
	ch340 = &enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"}
	ftdi  = &enumerator.PortDetails{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001", SerialNumber: "A10K"}
	other = &enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"}
	board = &enumerator.PortDetails{Name: "/dev/ttyS0"}
)

func TestDetect_SafeModeKeepsResponders(t *testing.T) {
	withPorts(t, []*enumerator.PortDetails{ch340, ftdi, other, board}, "/dev/ttyUSB1", "/dev/ttyACM0")

	devices, err := New().Detect(context.Background(), &detection.Options{Mode: detection.Safe})
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "/dev/ttyUSB1", devices[0].Path)
	assert.Equal(t, detection.High, devices[0].Confidence)
	assert.Equal(t, "0403:6001", devices[0].Metadata["vidpid"])
	assert.Equal(t, "A10K", devices[0].Metadata["serial"])
	assert.NotEmpty(t, devices[0].Metadata["firmware"])

	assert.Equal(t, "/dev/ttyACM0", devices[1].Path)
}

func TestDetect_SafeModeDiscardsLikelyDeviceWhenProbeFails(t *testing.T) {
	withPorts(t, []*enumerator.PortDetails{ch340})

	_, err := New().Detect(context.Background(), &detection.Options{Mode: detection.Safe})
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)
}

func TestDetect_PassiveModeUsesDescriptors(t *testing.T) {
	withPorts(t, []*enumerator.PortDetails{ch340, other, board})

	devices, err := New().Detect(context.Background(), &detection.Options{Mode: detection.Passive})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/ttyUSB0", devices[0].Path)
	assert.Equal(t, detection.Medium, devices[0].Confidence)
}

func TestDetect_BlocklistAndIgnorePaths(t *testing.T) {
	withPorts(t, []*enumerator.PortDetails{ch340, ftdi}, "/dev/ttyUSB0", "/dev/ttyUSB1")

	opts := &detection.Options{
		Mode:        detection.Safe,
		Blocklist:   []string{"1A86:7523"},
		IgnorePaths: []string{"/dev/ttyUSB1"},
	}
	_, err := New().Detect(context.Background(), opts)
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)
}

func TestDetect_EnumerationError(t *testing.T) {
	errEnum := errors.New("enumeration failed")
	withPorts(t, nil)
	listPorts = func() ([]*enumerator.PortDetails, error) { return nil, errEnum }

	_, err := New().Detect(context.Background(), &detection.Options{})
	require.ErrorIs(t, err, errEnum)
}

func TestIsLikelyPN532(t *testing.T) {
	assert.True(t, isLikelyPN532(ch340))
	assert.True(t, isLikelyPN532(ftdi))
	assert.False(t, isLikelyPN532(other))
	assert.False(t, isLikelyPN532(board))
	assert.True(t, isLikelyPN532(&enumerator.PortDetails{
		Name: "/dev/ttyACM1", IsUSB: true, VID: "cafe", PID: "0001", Product: "PN532 NFC HAT",
	}))
}

func TestPortName(t *testing.T) {
	assert.Equal(t, "Serial port /dev/ttyS0", portName(board))
	assert.Equal(t, "NFC reader", portName(&enumerator.PortDetails{Name: "COM3", Product: "NFC reader"}))
	assert.Equal(t, "uart", New().Transport())
}
