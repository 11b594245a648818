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

// Package uart detects PN532 readers behind USB serial adapters.
package uart

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-pn532wire/detection"
	"github.com/ZaparooProject/go-pn532wire/transport/uart"
	"go.bug.st/serial/enumerator"
)

// detector implements the Detector interface for UART devices.
type detector struct{}

// New creates a new UART detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Replaced in tests.
var (
	listPorts = enumerator.GetDetailedPortsList
	openPort  = func(path string) (detection.BusCloser, error) {
		t, err := uart.New(path)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
)

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect searches for PN532 devices on serial ports
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}
		if port.IsUSB && detection.IsBlocked(vidpid(port), opts.Blocklist) {
			continue
		}
		if detection.IsPathIgnored(port.Name, opts.IgnorePaths) {
			continue
		}
		if device, ok := d.processPort(ctx, port, opts); ok {
			devices = append(devices, device)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// processPort handles a single port's detection logic. Passive mode keeps
// only ports whose descriptors look like a PN532 board. Safe and Full modes
// keep only ports that answer the probe.
func (*detector) processPort(
	ctx context.Context,
	port *enumerator.PortDetails,
	opts *detection.Options,
) (detection.DeviceInfo, bool) {
	likely := isLikelyPN532(port)
	device := detection.DeviceInfo{
		Transport:  "uart",
		Path:       port.Name,
		Name:       portName(port),
		Confidence: detection.Low,
		Metadata:   make(map[string]string),
	}
	if likely {
		device.Confidence = detection.Medium
	}
	if port.IsUSB {
		device.Metadata["vidpid"] = vidpid(port)
		if port.SerialNumber != "" {
			device.Metadata["serial"] = port.SerialNumber
		}
		if port.Product != "" {
			device.Metadata["product"] = port.Product
		}
	}

	if opts.Mode == detection.Passive {
		return device, likely
	}
	if !detection.ProbePath(ctx, port.Name, opts.Mode, openPort, &device) {
		return detection.DeviceInfo{}, false
	}
	device.Confidence = detection.High
	return device, true
}

func vidpid(port *enumerator.PortDetails) string {
	return strings.ToUpper(port.VID + ":" + port.PID)
}

func portName(port *enumerator.PortDetails) string {
	if port.Product != "" {
		return port.Product
	}
	return "Serial port " + port.Name
}

// isLikelyPN532 checks if a serial port is likely to be a PN532 device
func isLikelyPN532(port *enumerator.PortDetails) bool {
	if !port.IsUSB {
		return false
	}

	// USB-serial bridges commonly fitted to PN532 boards
	knownPN532 := []string{
		"067B:2303", // Prolific PL2303
		"0403:6001", // FTDI FT232
		"10C4:EA60", // Silicon Labs CP210x
		"1A86:7523", // QinHeng CH340
	}

	id := vidpid(port)
	for _, known := range knownPN532 {
		if id == known {
			return true
		}
	}

	lowerProduct := strings.ToLower(port.Product)
	for _, keyword := range []string{"pn532", "nfc", "rfid", "13.56"} {
		if strings.Contains(lowerProduct, keyword) {
			return true
		}
	}
	return false
}
