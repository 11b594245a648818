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

import "context"

// TagBufferSize is the capacity of a TagBuffer, enough for any reply payload.
const TagBufferSize = 256

const (
	tagCountOffset = 1
	firstTagOffset = 2
)

// TagBuffer receives InListPassiveTarget replies. The caller owns it and can
// reuse it across listings, but only one Tags chain may live on it at a time.
//
// A TagBuffer is not safe for concurrent use. Sessions on different
// goroutines must not share one; give each session its own buffer.
type TagBuffer struct {
	lease *lease
	data  [TagBufferSize]byte
}

// Bytes returns the buffer contents: the reply opcode, the tag count and the
// target records.
func (b *TagBuffer) Bytes() []byte {
	return b.data[:]
}

func (b *TagBuffer) borrowed() bool {
	return b.lease != nil && !b.lease.done
}

// lease is the exclusive claim a Tags chain holds on its session and buffer.
// cursor is the generation of the one live Tag; each Next bumps it so the
// consumed Tag goes stale.
type lease struct {
	s      *Session
	buf    *TagBuffer
	cursor uint64
	done   bool
}

// end releases the session and the buffer. Callers hold s.mu.
func (l *lease) end() {
	if l.done {
		return
	}
	l.done = true
	if l.s.lease == l {
		l.s.lease = nil
	}
	if l.buf.lease == l {
		l.buf.lease = nil
	}
}

// Tags is the result of a tag listing. It holds the session and the
// TagBuffer until First returns nil, the last Tag's Next returns nil, or
// Release is called. Until then every other command on the session fails
// with ErrSessionBusy. An abandoned chain is never released for you:
//
//	tags, err := s.ListTags(ctx, opts, &buf)
//	if err != nil {
//		return err
//	}
//	defer tags.Release()
//
// A listing with no tags holds nothing; Count is 0 and First returns nil.
type Tags struct {
	l     *lease
	tech  Technology
	count int
}

// Count returns the number of tags the device reported (0, 1 or 2).
func (t *Tags) Count() int {
	return t.count
}

// Technology returns the technology the tags were listed with.
func (t *Tags) Technology() Technology {
	return t.tech
}

// First returns a cursor on the first tag. With no tags it returns nil. It returns nil as well once the chain has been started
// or released.
func (t *Tags) First() *Tag {
	s := t.l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.l.done || t.l.cursor != 0 {
		return nil
	}
	if t.count == 0 {
		t.l.end()
		return nil
	}
	t.l.cursor = 1
	return &Tag{
		l:      t.l,
		gen:    t.l.cursor,
		tech:   t.tech,
		offset: firstTagOffset,
		last:   t.count == 1,
	}
}

// Release ends the chain early, freeing the session and the buffer. Any
// outstanding Tag goes stale. Releasing twice is a no-op.
func (t *Tags) Release() {
	s := t.l.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t.l.end()
}

// Tag is a cursor on one target record. Next consumes it: afterwards the
// receiver is stale and only the returned cursor is usable.
type Tag struct {
	l      *lease
	gen    uint64
	offset int
	tech   Technology
	last   bool
}

// live reports whether t is the current cursor of an unreleased chain.
// Callers hold the session lock.
func (t *Tag) live() bool {
	return !t.l.done && t.l.cursor == t.gen
}

// Valid reports whether t can still be used.
func (t *Tag) Valid() bool {
	s := t.l.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.live()
}

// Number returns the target number (Tg), or 0 for a stale cursor.
func (t *Tag) Number() byte {
	if r := t.Record(); r != nil {
		return r.Number()
	}
	return 0
}

// Record returns the tag's record, viewed in place in the TagBuffer, or nil
// for a stale cursor. The view is only meaningful while the chain is alive.
func (t *Tag) Record() Record {
	s := t.l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.live() {
		return nil
	}
	return recordAt(t.tech, t.l.buf.data[:], t.offset)
}

// Next consumes t and returns a cursor on the following tag. When t is the
// last tag it ends the lease and returns nil. A stale t also gives nil.
func (t *Tag) Next() *Tag {
	s := t.l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.live() {
		return nil
	}
	if t.last {
		t.l.end()
		return nil
	}

	rec := recordAt(t.tech, t.l.buf.data[:], t.offset)
	t.l.cursor++
	return &Tag{
		l:      t.l,
		gen:    t.l.cursor,
		tech:   t.tech,
		offset: t.offset + 1 + rec.Len(),
		last:   true,
	}
}

// Release ends the chain, freeing the session and the buffer.
func (t *Tag) Release() {
	s := t.l.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.live() {
		t.l.end()
	}
}

// Transceive sends out to this tag with InDataExchange and copies the reply
// data into in. See Session.Transceive.
func (t *Tag) Transceive(ctx context.Context, out, in []byte) (int, error) {
	s := t.l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.live() {
		return 0, ErrStaleCursor
	}
	tg := recordAt(t.tech, t.l.buf.data[:], t.offset).Number()
	return s.transceive(ctx, tg, out, in)
}
