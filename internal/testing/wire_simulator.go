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
	"bytes"
	"errors"

	"github.com/ZaparooProject/go-pn532wire/internal/frame"
	"github.com/ZaparooProject/go-pn532wire/internal/syncutil"
)

const (
	cmdGetFirmwareVersion  = 0x02
	cmdSAMConfiguration    = 0x14
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
)

// Status codes returned in InDataExchange and InRelease replies.
const (
	errTimeout      = 0x01
	errInvalidParam = 0x10
	errCommand      = 0x27
)

// ErrBadFrame is returned by Write when strict frame checking is enabled and
// the host sends a malformed frame.
var ErrBadFrame = errors.New("virtual pn532: malformed host frame")

// SimulatorState is the observable state of a VirtualPN532.
type SimulatorState struct {
	SAMMode       byte
	SAMTimeout    byte
	SAMConfigured bool
	ListedTargets int
}

// VirtualPN532 simulates a PN532 on an I2C-style bus: every read returns a
// status byte followed by the next pending ACK or reply frame. It satisfies
// the Bus interface of the pn532 package.
type VirtualPN532 struct {
	readErr         error
	writeErr        error
	outbox          [][]byte
	writes          [][]byte
	tags            []*VirtualTag
	listed          []*VirtualTag
	state           SimulatorState
	reads           int
	notReadyPolls   int
	pendingNotReady int
	mu              syncutil.Mutex
	firmware        [4]byte
	neverReady      bool
	corruptNext     bool
	nackNext        bool
	dropNextACK     bool
	strictFrames    bool
}

// NewVirtualPN532 creates a simulator reporting firmware PN532 v1.6.
func NewVirtualPN532() *VirtualPN532 {
	return &VirtualPN532{
		firmware: [4]byte{0x32, 0x01, 0x06, 0x07},
	}
}

// Write accepts one host frame and queues the ACK and reply for it.
func (v *VirtualPN532) Write(buf []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.writes = append(v.writes, append([]byte(nil), buf...))
	if v.writeErr != nil {
		return v.writeErr
	}

	payload, ok := parseHostFrame(buf)
	if !ok {
		if v.strictFrames {
			return ErrBadFrame
		}
		return nil
	}
	if len(payload) == 0 {
		return nil
	}

	switch {
	case v.nackNext:
		v.nackNext = false
		v.queue(frame.NackFrame)
		return nil
	case v.dropNextACK:
		v.dropNextACK = false
	default:
		v.queue(frame.AckFrame)
	}

	v.queue(v.respond(payload))
	return nil
}

// Read fills buf with the status byte and, when ready, the next queued
// message. The rest of buf is zeroed.
func (v *VirtualPN532) Read(buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.reads++
	if v.readErr != nil {
		return 0, v.readErr
	}
	clear(buf)
	if len(buf) == 0 || v.neverReady || len(v.outbox) == 0 {
		return len(buf), nil
	}
	if v.pendingNotReady > 0 {
		v.pendingNotReady--
		return len(buf), nil
	}

	msg := v.outbox[0]
	v.outbox = v.outbox[1:]
	v.pendingNotReady = v.notReadyPolls
	buf[0] = 0x01
	copy(buf[1:], msg)
	return len(buf), nil
}

func (v *VirtualPN532) queue(msg []byte) {
	if len(v.outbox) == 0 {
		v.pendingNotReady = v.notReadyPolls
	}
	v.outbox = append(v.outbox, append([]byte(nil), msg...))
}

// parseHostFrame extracts the payload (TFI excluded) of a host-to-device frame.
func parseHostFrame(buf []byte) ([]byte, bool) {
	start := bytes.Index(buf, []byte{frame.StartCode1, frame.StartCode2})
	if start < 0 || len(buf) < start+5 {
		return nil, false
	}
	b := buf[start+2:]
	length, lcs := b[0], b[1]
	if length+lcs != 0 || length == 0 || len(b) < int(length)+3 {
		return nil, false
	}
	body := b[2 : 2+int(length)]
	if body[0] != frame.HostToPN532 {
		return nil, false
	}
	if frame.Checksum(0, body)+b[2+int(length)] != 0 {
		return nil, false
	}
	return body[1:], true
}

func (v *VirtualPN532) respond(payload []byte) []byte {
	var res []byte
	switch payload[0] {
	case cmdGetFirmwareVersion:
		res = append([]byte{cmdGetFirmwareVersion + 1}, v.firmware[:]...)
	case cmdSAMConfiguration:
		res = v.handleSAMConfiguration(payload[1:])
	case cmdInListPassiveTarget:
		res = v.handleInListPassiveTarget(payload[1:])
	case cmdInDataExchange:
		res = v.handleInDataExchange(payload[1:])
	case cmdInRelease:
		res = v.handleInRelease(payload[1:])
	default:
		return BuildErrorFrame()
	}
	if res == nil {
		return BuildErrorFrame()
	}

	out := BuildResponseFrame(res)
	if v.corruptNext {
		v.corruptNext = false
		out[len(out)-2]++
	}
	return out
}

func (v *VirtualPN532) handleSAMConfiguration(params []byte) []byte {
	if len(params) < 1 {
		return nil
	}
	v.state.SAMMode = params[0]
	if len(params) >= 3 {
		v.state.SAMTimeout = params[1]
	}
	v.state.SAMConfigured = true
	return BuildSAMConfigurationResponse()
}

func (v *VirtualPN532) handleInListPassiveTarget(params []byte) []byte {
	if len(params) < 2 {
		return nil
	}
	limit := int(params[0])
	if limit < 1 || limit > 2 {
		return nil
	}
	tech := params[1]

	v.listed = v.listed[:0]
	for _, tag := range v.tags {
		if len(v.listed) == limit {
			break
		}
		if tag.Answers(tech) {
			v.listed = append(v.listed, tag)
		}
	}
	v.state.ListedTargets = len(v.listed)

	res := []byte{cmdInListPassiveTarget + 1, byte(len(v.listed))}
	for i, tag := range v.listed {
		res = tag.AppendRecord(res, byte(i+1))
	}
	return res
}

func (v *VirtualPN532) handleInDataExchange(params []byte) []byte {
	if len(params) < 1 {
		return nil
	}
	tg := int(params[0])
	if tg < 1 || tg > len(v.listed) {
		return BuildErrorResponse(cmdInDataExchange, errCommand)
	}
	data, status := v.listed[tg-1].Transceive(params[1:])
	if status != 0 {
		return BuildErrorResponse(cmdInDataExchange, status)
	}
	return BuildDataExchangeResponse(data)
}

func (v *VirtualPN532) handleInRelease(params []byte) []byte {
	if len(params) < 1 {
		return nil
	}
	tg := int(params[0])
	switch {
	case tg == 0:
		v.listed = v.listed[:0]
	case tg <= len(v.listed):
		v.listed = append(v.listed[:tg-1], v.listed[tg:]...)
	default:
		return BuildErrorResponse(cmdInRelease, errCommand)
	}
	v.state.ListedTargets = len(v.listed)
	return []byte{cmdInRelease + 1, 0x00}
}

// AddTag places a tag in the field.
func (v *VirtualPN532) AddTag(tag *VirtualTag) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tags = append(v.tags, tag)
}

// RemoveAllTags empties the field.
func (v *VirtualPN532) RemoveAllTags() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tags = nil
	v.listed = nil
}

// SetFirmwareVersion changes the GetFirmwareVersion reply.
func (v *VirtualPN532) SetFirmwareVersion(ic, ver, rev, support byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.firmware = [4]byte{ic, ver, rev, support}
}

// QueueRaw queues arbitrary bytes to be returned after the next ready status.
func (v *VirtualPN532) QueueRaw(msg []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue(msg)
}

// SetNotReadyPolls makes the device report not-ready n times before each
// queued message.
func (v *VirtualPN532) SetNotReadyPolls(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notReadyPolls = n
}

// SetNeverReady makes every read report not-ready.
func (v *VirtualPN532) SetNeverReady(never bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.neverReady = never
}

// SetStrictFrames makes Write reject malformed host frames with ErrBadFrame.
func (v *VirtualPN532) SetStrictFrames(strict bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.strictFrames = strict
}

// InjectChecksumError corrupts the data checksum of the next reply frame.
func (v *VirtualPN532) InjectChecksumError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.corruptNext = true
}

// InjectNACK answers the next command with a NACK and no reply.
func (v *VirtualPN532) InjectNACK() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nackNext = true
}

// DropNextACK skips the ACK of the next command; its reply is still sent.
func (v *VirtualPN532) DropNextACK() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropNextACK = true
}

// InjectReadError makes every read fail with err until cleared with nil.
func (v *VirtualPN532) InjectReadError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readErr = err
}

// InjectWriteError makes every write fail with err until cleared with nil.
func (v *VirtualPN532) InjectWriteError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeErr = err
}

// GetState returns a snapshot of the simulator state.
func (v *VirtualPN532) GetState() SimulatorState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Writes returns every buffer the host wrote, oldest first.
func (v *VirtualPN532) Writes() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([][]byte, len(v.writes))
	copy(out, v.writes)
	return out
}

// LastCommand returns the payload of the last well-formed host frame, or nil.
func (v *VirtualPN532) LastCommand() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := len(v.writes) - 1; i >= 0; i-- {
		if p, ok := parseHostFrame(v.writes[i]); ok {
			return p
		}
	}
	return nil
}

// Reads returns the number of reads performed.
func (v *VirtualPN532) Reads() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reads
}

// HasPendingResponse reports whether messages are waiting to be read.
func (v *VirtualPN532) HasPendingResponse() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.outbox) > 0
}

// Reset drops queued messages, injected faults and recorded writes.
func (v *VirtualPN532) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outbox = nil
	v.writes = nil
	v.listed = nil
	v.reads = 0
	v.state = SimulatorState{}
	v.readErr, v.writeErr = nil, nil
	v.corruptNext, v.nackNext, v.dropNextACK = false, false, false
	v.neverReady = false
	v.pendingNotReady = 0
}
