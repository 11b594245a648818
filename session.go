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
	"context"
	"fmt"

	"github.com/ZaparooProject/go-pn532wire/internal/frame"
	"github.com/ZaparooProject/go-pn532wire/internal/syncutil"
)

// Session issues PN532 commands over a frame codec. Commands run one at a
// time. While a Tags chain is alive the session belongs to it: only the
// chain's Tag.Transceive may talk to the device and every other command
// returns ErrSessionBusy.
type Session struct {
	codec *Codec
	lease *lease
	mu    syncutil.Mutex
}

// NewSession creates a session over w.
func NewSession(w Waiter, opts ...CodecOption) *Session {
	return &Session{codec: NewCodec(w, opts...)}
}

// Open creates a session over bus with the default busy-wait polling.
func Open(bus Bus, opts ...CodecOption) *Session {
	return NewSession(NewBusyWait(bus), opts...)
}

// Codec returns the underlying frame codec for raw exchanges. It bypasses
// the session's ownership checks.
func (s *Session) Codec() *Codec {
	return s.codec
}

// Busy reports whether a Tags chain currently holds the session.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lease != nil
}

// SAMConfigure sets the SAM mode. The device must reply with exactly 0x15.
func (s *Session) SAMConfigure(ctx context.Context, mode SAMMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease != nil {
		return ErrSessionBusy
	}

	cmd := encodeSAMConfiguration(make([]byte, 0, 4), mode)
	Debugf("SAMConfiguration: mode 0x%02X", mode.Code())
	if err := s.codec.SendWaitAck(ctx, cmd); err != nil {
		return fmt.Errorf("SAM configuration: %w", err)
	}

	var res [1]byte
	n, err := s.codec.Recv(ctx, res[:])
	if err != nil {
		return fmt.Errorf("SAM configuration: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("SAM configuration: %w", ErrUnexpectedEnd)
	}
	if res[0] != resSAMConfiguration {
		return fmt.Errorf("SAM configuration: %w", &ByteError{Actual: res[0], Expected: "0x15"})
	}
	return nil
}

// FirmwareVersion queries the chip's IC and firmware version.
func (s *Session) FirmwareVersion(ctx context.Context) (*FirmwareVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease != nil {
		return nil, ErrSessionBusy
	}

	var res [8]byte
	n, err := s.exchange(ctx, []byte{cmdGetFirmwareVersion}, res[:])
	if err != nil {
		return nil, fmt.Errorf("get firmware version: %w", err)
	}
	fw, err := parseFirmwareVersion(res[:n])
	if err != nil {
		return nil, fmt.Errorf("get firmware version: %w", err)
	}
	Debugf("firmware: %s", fw)
	return fw, nil
}

// ListTags polls for tags with InListPassiveTarget and receives the reply
// into buf without copying. When tags were found the returned Tags holds both
// the session and buf until its chain ends; see Tags. Callers that may not
// walk the whole chain should defer tags.Release(). A listing with no tags
// holds nothing.
//
// The reply must start with 0x4B and report at most two tags.
func (s *Session) ListTags(ctx context.Context, opts TagListOptions, buf *TagBuffer) (*Tags, error) {
	if opts == nil || buf == nil {
		return nil, ErrInvalidParameter
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if buf.borrowed() {
		return nil, ErrBufferBorrowed
	}
	if s.lease != nil {
		return nil, ErrSessionBusy
	}

	count, err := s.listTags(ctx, opts, buf)
	if err != nil {
		return nil, err
	}

	l := &lease{s: s, buf: buf}
	if count == 0 {
		l.done = true
		return &Tags{l: l, tech: opts.Technology()}, nil
	}
	s.lease = l
	buf.lease = l
	return &Tags{l: l, tech: opts.Technology(), count: count}, nil
}

// listTags runs InListPassiveTarget into buf and returns the tag count.
// Callers hold s.mu.
func (s *Session) listTags(ctx context.Context, opts TagListOptions, buf *TagBuffer) (int, error) {
	cmd := frame.GetBuffer(frame.CommandBufferSize)
	defer frame.PutBuffer(cmd)

	payload := opts.encode(append(cmd[:0], cmdInListPassiveTarget))
	Debugf("InListPassiveTarget: %s, params %X", opts.Technology(), payload[1:])
	if err := s.codec.SendWaitAck(ctx, payload); err != nil {
		return 0, fmt.Errorf("list passive targets: %w", err)
	}

	n, err := s.codec.Recv(ctx, buf.data[:])
	if err != nil {
		return 0, fmt.Errorf("list passive targets: %w", err)
	}
	if n < firstTagOffset {
		return 0, fmt.Errorf("list passive targets: %w", ErrUnexpectedEnd)
	}
	if buf.data[0] != resInListPassiveTarget {
		return 0, fmt.Errorf("list passive targets: %w", &ByteError{Actual: buf.data[0], Expected: "0x4B"})
	}

	count := int(buf.data[tagCountOffset])
	if count > maxTags {
		return 0, fmt.Errorf("list passive targets: %w: %d", ErrTooManyTags, count)
	}
	Debugf("InListPassiveTarget: %d tag(s)", count)
	return count, nil
}

// ListTagRecords lists tags like ListTags but copies each record (target
// number first) out of a private buffer, so nothing is held afterwards.
func (s *Session) ListTagRecords(ctx context.Context, opts TagListOptions) ([][]byte, error) {
	if opts == nil {
		return nil, ErrInvalidParameter
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease != nil {
		return nil, ErrSessionBusy
	}

	var buf TagBuffer
	count, err := s.listTags(ctx, opts, &buf)
	if err != nil {
		return nil, err
	}

	records := make([][]byte, 0, count)
	offset := firstTagOffset
	for range count {
		rec := recordAt(opts.Technology(), buf.data[:], offset)
		records = append(records, append([]byte(nil), rec.Bytes()...))
		offset += 1 + rec.Len()
	}
	return records, nil
}

// Transceive sends out to target tg with InDataExchange and copies up to
// len(in) bytes of the reply data into in, dropping the rest. out is cut
// to fit one frame. A non-zero status byte is returned as *PN532Error.
func (s *Session) Transceive(ctx context.Context, tg byte, out, in []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease != nil {
		return 0, ErrSessionBusy
	}
	return s.transceive(ctx, tg, out, in)
}

// transceive runs InDataExchange. Callers hold s.mu.
func (s *Session) transceive(ctx context.Context, tg byte, out, in []byte) (int, error) {
	if limit := frame.MaxPayload - 2; len(out) > limit {
		out = out[:limit]
	}

	cmd := frame.GetBuffer(frame.CommandBufferSize)
	defer frame.PutBuffer(cmd)
	cmd = append(append(cmd[:0], cmdInDataExchange, tg), out...)

	res := frame.GetBuffer(frame.FrameBufferSize)
	defer frame.PutBuffer(res)

	n, err := s.exchange(ctx, cmd, res)
	if err != nil {
		return 0, fmt.Errorf("data exchange: %w", err)
	}
	if n < 2 {
		return 0, fmt.Errorf("data exchange: %w", ErrUnexpectedEnd)
	}
	if res[0] != resInDataExchange {
		return 0, fmt.Errorf("data exchange: %w", &ByteError{Actual: res[0], Expected: "0x41"})
	}
	if status := res[1] & statusErrorMask; status != 0 {
		return 0, &PN532Error{Command: "InDataExchange", ErrorCode: status, Target: tg}
	}
	return copy(in, res[2:n]), nil
}

// Release deselects target tg with InRelease. Zero releases all targets.
func (s *Session) Release(ctx context.Context, tg byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease != nil {
		return ErrSessionBusy
	}

	var res [2]byte
	n, err := s.exchange(ctx, []byte{cmdInRelease, tg}, res[:])
	if err != nil {
		return fmt.Errorf("release target: %w", err)
	}
	if n < 2 {
		return fmt.Errorf("release target: %w", ErrUnexpectedEnd)
	}
	if res[0] != resInRelease {
		return fmt.Errorf("release target: %w", &ByteError{Actual: res[0], Expected: "0x53"})
	}
	if status := res[1] & statusErrorMask; status != 0 {
		return &PN532Error{Command: "InRelease", ErrorCode: status, Target: tg}
	}
	return nil
}

// Exchange sends a raw command payload (command code first), waits for the
// ACK and receives the reply into dst. The reply is not interpreted.
func (s *Session) Exchange(ctx context.Context, payload, dst []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease != nil {
		return 0, ErrSessionBusy
	}
	return s.exchange(ctx, payload, dst)
}

func (s *Session) exchange(ctx context.Context, payload, dst []byte) (int, error) {
	if err := s.codec.SendWaitAck(ctx, payload); err != nil {
		return 0, err
	}
	return s.codec.Recv(ctx, dst)
}
