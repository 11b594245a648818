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

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZaparooProject/go-pn532wire/internal/syncutil"
)

var (
	logMu         syncutil.Mutex
	debugOutput   io.Writer = os.Stderr
	sessionWriter io.Writer
	debugEnabled  bool      = os.Getenv("PN532_DEBUG") != "" || os.Getenv("DEBUG") != ""
)

// Debugf logs a formatted debug line. It always goes to the session log if
// one is open, and to the debug output when debugging is enabled via
// PN532_DEBUG, DEBUG or SetDebugEnabled.
func Debugf(format string, args ...any) {
	logLine(fmt.Sprintf(format, args...))
}

func logLine(message string) {
	logMu.Lock()
	defer logMu.Unlock()

	if sessionWriter == nil && !debugEnabled {
		return
	}
	if sessionWriter != nil {
		_, _ = fmt.Fprintf(sessionWriter, "%s DEBUG: %s\n", time.Now().Format("15:04:05.000"), message)
	}
	if debugEnabled {
		_, _ = fmt.Fprintf(debugOutput, "DEBUG: %s\n", message)
	}
}

// SetDebugEnabled turns console debug output on or off.
func SetDebugEnabled(enabled bool) {
	logMu.Lock()
	defer logMu.Unlock()
	debugEnabled = enabled
}

// SetDebugOutput redirects console debug output. nil restores stderr.
func SetDebugOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	debugOutput = w
}
