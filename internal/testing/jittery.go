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

package testing

import (
	"errors"
	"math/rand/v2"
	"time"
)

// ErrInjectedFailure is returned by JitteryBus once its failure point is reached.
var ErrInjectedFailure = errors.New("jittery bus: injected failure")

// Bus mirrors the pn532 Bus interface to avoid an import cycle.
type Bus interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) error
}

// JitterConfig configures the behavior of JitteryBus.
type JitterConfig struct {
	MaxLatency   time.Duration
	Seed         uint64
	NotReadyRate float64 // probability that a read reports not-ready
	FailAfter    int     // fail every read after this many, 0 disables
}

// DefaultJitterConfig returns a configuration with occasional not-ready
// polls and no added latency.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		NotReadyRate: 0.3,
	}
}

// JitteryBus wraps a Bus to simulate a slow or flaky device: reads may
// report not-ready without touching the backend, take random extra time,
// or start failing after a number of reads.
type JitteryBus struct {
	backend Bus
	rng     *rand.Rand
	config  JitterConfig
	reads   int
	skipped int
}

// NewJitteryBus wraps backend with jitter simulation.
func NewJitteryBus(backend Bus, config JitterConfig) *JitteryBus {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	return &JitteryBus{backend: backend, config: config, rng: rng}
}

// Write passes writes through unchanged.
func (j *JitteryBus) Write(buf []byte) error {
	return j.backend.Write(buf) //nolint:wrapcheck // Pass-through wrapper
}

// Read forwards to the backend unless jitter decides this poll is not ready.
func (j *JitteryBus) Read(buf []byte) (int, error) {
	j.reads++
	if j.config.FailAfter > 0 && j.reads > j.config.FailAfter {
		return 0, ErrInjectedFailure
	}
	if j.config.MaxLatency > 0 {
		time.Sleep(time.Duration(j.rng.Int64N(int64(j.config.MaxLatency) + 1)))
	}
	if j.config.NotReadyRate > 0 && j.rng.Float64() < j.config.NotReadyRate {
		j.skipped++
		clear(buf)
		return len(buf), nil
	}
	return j.backend.Read(buf) //nolint:wrapcheck // Pass-through wrapper
}

// Skipped returns how many reads were turned into not-ready polls.
func (j *JitteryBus) Skipped() int {
	return j.skipped
}
