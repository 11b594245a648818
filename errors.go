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
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-pn532wire/internal/frame"
)

// Protocol errors
var (
	// ErrTimeout is returned by the timeout-bounded waits when the device
	// did not report ready in time.
	ErrTimeout = errors.New("operation timed out")
	// ErrUnexpectedEnd is returned when a reply is shorter than its header
	// or the command requires.
	ErrUnexpectedEnd = frame.ErrUnexpectedEnd
	// ErrNoACK is returned in strict ACK mode when the read window holds
	// neither an ACK nor a NACK frame.
	ErrNoACK = errors.New("no ACK received")
	// ErrNACKReceived is returned in strict ACK mode when the device NACKs.
	ErrNACKReceived = errors.New("NACK received")
	// ErrTooManyTags is returned when a tag listing reports more than two tags.
	ErrTooManyTags = errors.New("tag count exceeds protocol limit")
)

// Ownership errors
var (
	// ErrSessionBusy is returned by session commands while a tag cursor
	// chain still holds the session.
	ErrSessionBusy = errors.New("session is held by a tag cursor")
	// ErrBufferBorrowed is returned when a tag buffer backing a live cursor
	// chain is passed to another tag listing.
	ErrBufferBorrowed = errors.New("tag buffer is backing a live tag cursor")
	// ErrStaleCursor is returned when a consumed or released tag cursor is used.
	ErrStaleCursor = errors.New("tag cursor already consumed")
)

// Transport errors
var (
	ErrTransportClosed  = errors.New("transport is closed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Frame-level error types, shared with the frame parser.
type (
	// ChecksumKind identifies which checksum of a frame failed.
	ChecksumKind = frame.ChecksumKind
	// ChecksumError reports a frame whose length or data checksum does not sum to zero.
	ChecksumError = frame.ChecksumError
	// ByteError reports a byte that does not match what the protocol expects.
	ByteError = frame.ByteError
	// TooMuchDataError is returned when a payload exceeds 254 bytes.
	TooMuchDataError = frame.TooMuchDataError
)

const (
	// ChecksumLength is the LEN + LCS check.
	ChecksumLength = frame.ChecksumLength
	// ChecksumData is the TFI + payload + DCS check.
	ChecksumData = frame.ChecksumData
)

// SendError wraps a failure to put a frame on the bus: either the payload
// did not fit a frame or the bus write failed.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return "send frame: " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// RecvError wraps a failure to read or decode a frame from the device.
type RecvError struct {
	Err error
}

func (e *RecvError) Error() string {
	return "receive frame: " + e.Err.Error()
}

func (e *RecvError) Unwrap() error {
	return e.Err
}

// TransportError wraps bus-level errors with the operation and port that failed.
type TransportError struct {
	Err  error  // Underlying error
	Op   string // Operation that failed
	Port string // Port or device identifier
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error with consistent formatting
func NewTransportError(op, port string, err error) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err}
}

// PN532Error reports a non-zero status byte returned by the PN532 for a
// command that reached a target.
type PN532Error struct {
	Command   string
	ErrorCode byte
	Target    byte
}

func (e *PN532Error) Error() string {
	return fmt.Sprintf("%s error 0x%02X (%s) [target %d]",
		e.Command, e.ErrorCode, pn532ErrorCodeMeaning(e.ErrorCode), e.Target)
}

// IsTimeoutError returns true if the PN532 reported an RF timeout
func (e *PN532Error) IsTimeoutError() bool {
	return e.ErrorCode == 0x01
}

// pn532ErrorCodeMeaning returns a human-readable meaning for PN532 error codes
// Error codes are from the PN532 User Manual section 7.1
func pn532ErrorCodeMeaning(code byte) string {
	switch code {
	case 0x00:
		return "success"
	case 0x01:
		return "timeout"
	case 0x02:
		return "CRC error"
	case 0x03:
		return "parity error"
	case 0x04:
		return "erroneous bit count during anti-collision"
	case 0x05:
		return "framing error during mifare operation"
	case 0x06:
		return "abnormal bit collision"
	case 0x07:
		return "communication buffer size insufficient"
	case 0x09:
		return "RF buffer overflow"
	case 0x0A:
		return "RF field not activated in time"
	case 0x0B:
		return "RF protocol error"
	case 0x0D:
		return "overheating"
	case 0x0E:
		return "internal buffer overflow"
	case 0x10:
		return "invalid parameter"
	case 0x12:
		return "DEP protocol not supported"
	case 0x13:
		return "dataformat does not match"
	case 0x14:
		return "authentication error"
	case 0x23:
		return "UID check byte is wrong"
	case 0x25:
		return "DEP invalid state"
	case 0x26:
		return "operation not allowed"
	case 0x27:
		return "wrong context for command"
	case 0x29:
		return "target released by initiator"
	case 0x2A:
		return "card ID mismatch"
	case 0x2B:
		return "card disappeared"
	case 0x2C:
		return "NFCID3 initiator/target mismatch"
	case 0x2D:
		return "over-current event"
	case 0x2E:
		return "NAD missing in DEP frame"
	default:
		return "unknown error"
	}
}

// IsFatal returns true if the error indicates the device or connection is
// gone and the session should be abandoned rather than the command re-issued.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	if isDeviceGoneError(err) {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// Windows error codes for device disconnection detection.
// These are defined here because they're not available on non-Windows platforms.
const (
	errAccessDenied syscall.Errno = 5   // ERROR_ACCESS_DENIED
	errGenFailure   syscall.Errno = 31  // ERROR_GEN_FAILURE
	errNoSuchDevice syscall.Errno = 433 // ERROR_NO_SUCH_DEVICE
)

// isDeviceGoneError checks for OS-level errors indicating the bus device
// disappeared during I/O, e.g. an unplugged USB-serial adapter.
func isDeviceGoneError(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}

	//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
	switch errno {
	case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
		return true
	}

	if runtime.GOOS == "windows" {
		//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
		switch errno {
		case errAccessDenied, errGenFailure, errNoSuchDevice:
			return true
		}
	}

	return false
}

// =============================================================================
// Wire Trace Logging
// =============================================================================
// TraceableError embeds the most recent frames exchanged with the device in
// errors returned by the codec, so callers can see what was on the wire when
// a command failed.

// TraceDirection indicates the direction of wire data
type TraceDirection string

const (
	// TraceTX indicates data sent to the PN532
	TraceTX TraceDirection = "TX"
	// TraceRX indicates data received from the PN532
	TraceRX TraceDirection = "RX"
)

// TraceEntry represents a single bus read or write
type TraceEntry struct {
	Timestamp time.Time
	Direction TraceDirection
	Note      string
	Data      []byte
}

// String formats a trace entry for display
func (e TraceEntry) String() string {
	s := fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format("15:04:05.000"), e.Direction, formatHexBytes(e.Data))
	if e.Note != "" {
		s += " (" + e.Note + ")"
	}
	return s
}

// TraceableError wraps an error with wire-level trace data for debugging.
//
//	var te *pn532.TraceableError
//	if errors.As(err, &te) {
//	    log.Printf("Wire trace:\n%s", te.FormatTrace())
//	}
type TraceableError struct {
	Err   error
	Label string
	Trace []TraceEntry
}

// Error implements the error interface
func (e *TraceableError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace returns a human-readable formatted trace log
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[%s] (no trace data)", e.Label)
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "[%s] Wire trace (%d entries):\n", e.Label, len(e.Trace))
	for _, entry := range e.Trace {
		direction := ">"
		if entry.Direction == TraceRX {
			direction = "<"
		}
		_, _ = fmt.Fprintf(&sb, "  %s %s", direction, formatHexBytes(entry.Data))
		if entry.Note != "" {
			_, _ = fmt.Fprintf(&sb, " (%s)", entry.Note)
		}
		_ = sb.WriteByte('\n')
	}
	return sb.String()
}

// GetTrace extracts trace data from an error, returning nil if not present
func GetTrace(err error) *TraceableError {
	var te *TraceableError
	if errors.As(err, &te) {
		return te
	}
	return nil
}

// formatHexBytes formats a byte slice as space-separated hex values,
// truncating after 32 bytes.
func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}

	shown := data
	if len(shown) > 32 {
		shown = shown[:32]
	}
	parts := make([]string, len(shown))
	for i, b := range shown {
		parts[i] = fmt.Sprintf("%02X", b)
	}

	s := strings.Join(parts, " ")
	if len(data) > len(shown) {
		s += fmt.Sprintf(" ... (%d bytes total)", len(data))
	}
	return s
}

// TraceBuffer keeps the most recent wire operations in a fixed-size ring.
type TraceBuffer struct {
	label   string
	entries []TraceEntry
	maxSize int
}

// NewTraceBuffer creates a new trace buffer with the specified capacity
func NewTraceBuffer(label string, maxSize int) *TraceBuffer {
	if maxSize <= 0 {
		maxSize = 16
	}
	return &TraceBuffer{
		label:   label,
		entries: make([]TraceEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// RecordTX records a transmission to the PN532
func (tb *TraceBuffer) RecordTX(data []byte, note string) {
	tb.record(TraceTX, data, note)
}

// RecordRX records data received from the PN532
func (tb *TraceBuffer) RecordRX(data []byte, note string) {
	tb.record(TraceRX, data, note)
}

func (tb *TraceBuffer) record(dir TraceDirection, data []byte, note string) {
	entry := TraceEntry{
		Direction: dir,
		Data:      append([]byte(nil), data...),
		Timestamp: time.Now(),
		Note:      note,
	}

	if len(tb.entries) >= tb.maxSize {
		copy(tb.entries, tb.entries[1:])
		tb.entries[len(tb.entries)-1] = entry
		return
	}
	tb.entries = append(tb.entries, entry)
}

// WrapError wraps err with a copy of the collected trace.
// Returns nil if err is nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &TraceableError{
		Err:   err,
		Label: tb.label,
		Trace: append([]TraceEntry(nil), tb.entries...),
	}
}

// Entries returns a copy of the collected trace.
func (tb *TraceBuffer) Entries() []TraceEntry {
	return append([]TraceEntry(nil), tb.entries...)
}

// Clear resets the trace buffer
func (tb *TraceBuffer) Clear() {
	tb.entries = tb.entries[:0]
}
