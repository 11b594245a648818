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

package frame

import "sync"

// BufferPool manages reusable byte slices for the two sizes the codec needs:
// read windows and full frames. This keeps the per-command hot path free of
// allocations.
type BufferPool struct {
	windowPool sync.Pool
	framePool  sync.Pool
}

// FrameBufferSize covers the largest outbound frame and the largest command
// or reply scratch buffer.
const FrameBufferSize = MaxFrameLength

var defaultPool = NewBufferPool()

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		windowPool: sync.Pool{
			New: func() any {
				buf := make([]byte, ReadWindow)
				return &buf
			},
		},
		framePool: sync.Pool{
			New: func() any {
				buf := make([]byte, FrameBufferSize)
				return &buf
			},
		},
	}
}

// GetBuffer returns a zeroed buffer of exactly size bytes. Sizes above
// FrameBufferSize are allocated directly.
func (p *BufferPool) GetBuffer(size int) []byte {
	var pool *sync.Pool
	switch {
	case size <= ReadWindow:
		pool = &p.windowPool
	case size <= FrameBufferSize:
		pool = &p.framePool
	default:
		return make([]byte, size)
	}

	bufPtr, ok := pool.Get().(*[]byte)
	if !ok {
		return make([]byte, size)
	}
	return (*bufPtr)[:size]
}

// PutBuffer clears buf and returns it to the pool it came from.
// The buffer must not be used after calling this function.
func (p *BufferPool) PutBuffer(buf []byte) {
	if buf == nil {
		return
	}

	full := buf[:cap(buf)]
	clear(full)

	switch cap(buf) {
	case ReadWindow:
		p.windowPool.Put(&full)
	case FrameBufferSize:
		p.framePool.Put(&full)
	default:
		// Directly allocated, let GC handle it
	}
}

// GetBuffer acquires a buffer from the default pool
func GetBuffer(size int) []byte {
	return defaultPool.GetBuffer(size)
}

// PutBuffer returns a buffer to the default pool
func PutBuffer(buf []byte) {
	defaultPool.PutBuffer(buf)
}
