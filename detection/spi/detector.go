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

// Package spi detects PN532 readers on Linux spidev nodes.
package spi

import (
	"context"
	"runtime"

	"github.com/ZaparooProject/go-pn532wire/detection"
	"github.com/ZaparooProject/go-pn532wire/transport/spi"
)

// detector implements the Detector interface for SPI devices
type detector struct{}

// New creates a new SPI detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Replaced in tests.
var (
	devPattern = "/dev/spidev*"
	goos       = runtime.GOOS
	openConn   = func(path string) (detection.BusCloser, error) {
		t, err := spi.New(path)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
)

// Transport returns the transport type
func (*detector) Transport() string {
	return "spi"
}

// Detect probes every spidev node. SPI has no addressing, so an answer to
// GetFirmwareVersion is the only evidence a PN532 sits behind a node.
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if goos != "linux" {
		return nil, detection.ErrUnsupportedPlatform
	}
	return detection.ScanPaths(ctx, "spi", devPattern, opts, openConn)
}
