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

package detection

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532wire"
)

const (
	// probePollDelay is much shorter than the session default; a PN532
	// answers GetFirmwareVersion within a few milliseconds.
	probePollDelay = 5 * time.Millisecond
	probeTimeout   = 2 * time.Second
)

// Probe asks the device on bus for its firmware version. In Full mode the
// SAM is configured as well. Only one attempt is made.
func Probe(ctx context.Context, bus pn532.Bus, mode Mode) (*pn532.FirmwareVersion, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	s := pn532.NewSession(pn532.NewBusyWait(bus, pn532.WithPollDelay(probePollDelay)))
	fw, err := s.FirmwareVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	if mode == Full {
		if err := s.SAMConfigure(ctx, pn532.NormalMode()); err != nil {
			return nil, fmt.Errorf("probe: %w", err)
		}
	}
	return fw, nil
}

// ProbePath opens path with open, probes it and closes it again. The
// firmware version is recorded in device.Metadata on success.
func ProbePath(
	ctx context.Context,
	path string,
	mode Mode,
	open func(string) (BusCloser, error),
	device *DeviceInfo,
) bool {
	bus, err := open(path)
	if err != nil {
		pn532.Debugf("detection: open %s: %v", path, err)
		return false
	}
	defer func() { _ = bus.Close() }()

	fw, err := Probe(ctx, bus, mode)
	if err != nil {
		pn532.Debugf("detection: %s: %v", path, err)
		return false
	}
	if device.Metadata == nil {
		device.Metadata = make(map[string]string)
	}
	device.Metadata["firmware"] = fw.String()
	return true
}

// ScanPaths lists the device nodes matching pattern and, unless mode is
// Passive, keeps only those that answer a probe. It serves buses that have
// no descriptors to filter on, like I2C and SPI.
func ScanPaths(
	ctx context.Context,
	transport, pattern string,
	opts *Options,
	open func(string) (BusCloser, error),
) ([]DeviceInfo, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s devices: %w", transport, err)
	}

	var devices []DeviceInfo
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		if IsPathIgnored(path, opts.IgnorePaths) {
			continue
		}

		device := DeviceInfo{
			Transport:  transport,
			Path:       path,
			Name:       fmt.Sprintf("%s device at %s", transport, path),
			Confidence: Low,
			Metadata:   make(map[string]string),
		}
		if opts.Mode != Passive {
			if !ProbePath(ctx, path, opts.Mode, open, &device) {
				continue
			}
			device.Confidence = High
		}
		devices = append(devices, device)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}
