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

//nolint:paralleltest // Tests modify package-level session log state, cannot run in parallel
package pn532

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanupSessionLog(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		_ = CloseSessionLog()
	})
}

func TestInitSessionLog_CreatesFile(t *testing.T) {
	cleanupSessionLog(t)
	dir := t.TempDir()

	path, err := InitSessionLog(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, path, SessionLogPath())
	matched, err := regexp.MatchString(`^pn532_\d{8}_\d{6}\.log$`, filepath.Base(path))
	require.NoError(t, err)
	assert.True(t, matched, "got: %s", path)

	content, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "=== PN532 wire session ===\n"))
	assert.Contains(t, string(content), "PID: ")
}

func TestSessionLog_ReceivesDebugLines(t *testing.T) {
	cleanupSessionLog(t)
	SetDebugEnabled(false)

	path, err := InitSessionLog(t.TempDir())
	require.NoError(t, err)

	Debugf("InListPassiveTarget: %d tag(s)", 1)
	require.NoError(t, CloseSessionLog())

	content, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Contains(t, string(content), "DEBUG: InListPassiveTarget: 1 tag(s)\n")
	assert.Contains(t, string(content), "=== Session ended ===")
	assert.Empty(t, SessionLogPath())
}

func TestCloseSessionLog_NotOpen(t *testing.T) {
	require.NoError(t, CloseSessionLog())
	require.NoError(t, CloseSessionLog())
}

func TestInitSessionLog_BadDirectory(t *testing.T) {
	_, err := InitSessionLog(filepath.Join(t.TempDir(), "missing", "dir"))
	require.Error(t, err)
	assert.Empty(t, SessionLogPath())
}
