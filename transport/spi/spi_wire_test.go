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

package spi

import (
	"context"
	"errors"
	"testing"

	pn532 "github.com/ZaparooProject/go-pn532wire"
	virt "github.com/ZaparooProject/go-pn532wire/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var errPortClosed = errors.New("port is closed")

// mockReverseBytes reverses bits in all bytes of a slice.
func mockReverseBytes(data []byte) []byte {
	result := make([]byte, len(data))
	for i, b := range data {
		var r byte
		for range 8 {
			r <<= 1
			r |= b & 1
			b >>= 1
		}
		result[i] = r
	}
	return result
}

// MockSPIConn implements spi.Conn backed by VirtualPN532. A status read
// pulls the next ready message from the simulator and holds it until the
// following data read.
type MockSPIConn struct {
	sim     *virt.VirtualPN532
	pending []byte
	raw     [][]byte
	closed  bool
}

// NewMockSPIConn creates a new mock SPI connection.
func NewMockSPIConn(sim *virt.VirtualPN532) *MockSPIConn {
	return &MockSPIConn{sim: sim}
}

func (m *MockSPIConn) Tx(w, r []byte) error {
	if m.closed {
		return errPortClosed
	}
	if len(w) == 0 {
		return nil
	}
	m.raw = append(m.raw, append([]byte(nil), w...))

	plain := mockReverseBytes(w)
	switch plain[0] {
	case spiStatRead:
		return m.handleStatusRead(r)
	case spiDataWrite:
		return m.sim.Write(plain[1:]) //nolint:wrapcheck // mock
	case spiDataRead:
		m.handleDataRead(r)
	}
	return nil
}

func (m *MockSPIConn) handleStatusRead(r []byte) error {
	if m.pending == nil {
		window := make([]byte, frame265)
		if _, err := m.sim.Read(window); err != nil {
			return err //nolint:wrapcheck // mock
		}
		if window[0]&spiReady != 0 {
			m.pending = window[1:]
		}
	}
	if len(r) > 1 && m.pending != nil {
		r[1] = mockReverseBytes([]byte{spiReady})[0]
	}
	return nil
}

func (m *MockSPIConn) handleDataRead(r []byte) {
	if len(r) < 2 {
		return
	}
	copy(r[1:], mockReverseBytes(m.pending))
	m.pending = nil
}

// frame265 is large enough for any simulator reply.
const frame265 = 265

// Duplex implements conn.Conn.
func (*MockSPIConn) Duplex() conn.Duplex {
	return conn.Full
}

// String returns connection name.
func (*MockSPIConn) String() string {
	return "mock://spi"
}

// TxPackets implements spi.Conn.
func (m *MockSPIConn) TxPackets(p []spi.Packet) error {
	for _, pkt := range p {
		if err := m.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// MockSPIPort implements spi.PortCloser.
type MockSPIPort struct {
	conn   *MockSPIConn
	closed bool
}

// NewMockSPIPort creates a new mock SPI port.
func NewMockSPIPort(sim *virt.VirtualPN532) *MockSPIPort {
	return &MockSPIPort{conn: NewMockSPIConn(sim)}
}

// Connect returns the mock connection.
func (p *MockSPIPort) Connect(_ physic.Frequency, _ spi.Mode, _ int) (spi.Conn, error) {
	return p.conn, nil
}

// Close closes the port.
func (p *MockSPIPort) Close() error {
	p.closed = true
	p.conn.closed = true
	return nil
}

// String returns port name.
func (*MockSPIPort) String() string {
	return "mock://spi-port"
}

// LimitSpeed implements spi.Port.
func (*MockSPIPort) LimitSpeed(_ physic.Frequency) error {
	return nil
}

var _ spi.PortCloser = (*MockSPIPort)(nil)

func newTestSession(sim *virt.VirtualPN532) (*pn532.Session, *Transport, *MockSPIConn) {
	c := NewMockSPIConn(sim)
	tr := NewWithConn(c, "mock")
	return pn532.NewSession(pn532.NewBusyWait(tr, pn532.WithPollDelay(0))), tr, c
}

func TestReverseBit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, byte(0x80), reverseBit(0x01))
	assert.Equal(t, byte(0x40), reverseBit(0x02))
	assert.Equal(t, byte(0xC0), reverseBit(0x03))
	assert.Equal(t, byte(0xFF), reverseBit(0xFF))
	assert.Equal(t, byte(0x2B), reverseBit(0xD4))
	for b := range 256 {
		assert.Equal(t, byte(b), reverseBit(reverseBit(byte(b))))
	}
}

func TestSPI_GetFirmwareVersion(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	s, _, c := newTestSession(sim)

	fw, err := s.FirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x32), fw.IC)
	assert.Equal(t, "1.6", fw.Version())

	// Writes go out LSB first with the data-write prefix.
	require.NotEmpty(t, c.raw)
	assert.Equal(t, reverseBit(spiDataWrite), c.raw[0][0])
	assert.Equal(t, []byte{0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A}, sim.Writes()[0])
}

func TestSPI_SAMConfigurationAndListTags(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	sim.AddTag(virt.NewVirtualNTAG213(nil))
	s, _, _ := newTestSession(sim)
	ctx := context.Background()

	require.NoError(t, s.SAMConfigure(ctx, pn532.NormalMode()))

	var buf pn532.TagBuffer
	tags, err := s.ListTags(ctx, pn532.ISO14443AOptions{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, tags.Count())

	tag := tags.First()
	require.NotNil(t, tag)
	rec, ok := tag.Record().(pn532.ISO14443ARecord)
	require.True(t, ok)
	assert.Equal(t, virt.TestNTAG213UID, rec.NFCID())

	page := make([]byte, 16)
	n, err := tag.Transceive(ctx, []byte{0x30, 0x03}, page)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, byte(0xE1), page[0])
	tag.Release()
}

func TestSPI_NoTags(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession(virt.NewVirtualPN532())

	records, err := s.ListTagRecords(context.Background(), pn532.ISO14443AOptions{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSPI_NotReadyStatus(t *testing.T) {
	t.Parallel()

	tr := NewWithConn(NewMockSPIConn(virt.NewVirtualPN532()), "mock")
	buf := make([]byte, 8)
	n, err := tr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, byte(0), buf[0]&spiReady)
}

func TestSPI_PortClosed(t *testing.T) {
	t.Parallel()

	c := NewMockSPIConn(virt.NewVirtualPN532())
	c.closed = true
	tr := NewWithConn(c, "mock")

	_, err := tr.Read(make([]byte, 8))
	require.ErrorIs(t, err, errPortClosed)
	var te *pn532.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "status read", te.Op)

	require.ErrorIs(t, tr.Write([]byte{0x00}), errPortClosed)
}

func TestSPI_Close(t *testing.T) {
	t.Parallel()

	port := NewMockSPIPort(virt.NewVirtualPN532())
	c, err := port.Connect(defaultFreq, mode, 8)
	require.NoError(t, err)
	tr := NewWithConn(c, "mock")
	tr.port = port

	assert.True(t, tr.IsConnected())
	assert.Equal(t, "spi:mock", tr.String())
	require.NoError(t, tr.Close())
	assert.False(t, tr.IsConnected())
	assert.True(t, port.closed)

	_, err = tr.Read(make([]byte, 8))
	require.ErrorIs(t, err, pn532.ErrTransportClosed)
	require.ErrorIs(t, tr.Write([]byte{0x00}), pn532.ErrTransportClosed)
}
