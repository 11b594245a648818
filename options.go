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

// Technology identifies the modulation and baud rate a tag listing targets.
// It also fixes the layout of the records in the reply.
type Technology byte

// BrTy values sent in InListPassiveTarget.
const (
	TechISO14443A Technology = 0x00 // 106 kbps type A
	TechFeliCa212 Technology = 0x01 // 212 kbps FeliCa
	TechFeliCa424 Technology = 0x02 // 424 kbps FeliCa
	TechISO14443B Technology = 0x03 // 106 kbps type B
	TechJewel     Technology = 0x04 // 106 kbps Innovision Jewel
)

func (t Technology) String() string {
	switch t {
	case TechISO14443A:
		return "ISO14443A"
	case TechFeliCa212:
		return "FeliCa212"
	case TechFeliCa424:
		return "FeliCa424"
	case TechISO14443B:
		return "ISO14443B"
	case TechJewel:
		return "Jewel"
	default:
		return "unknown"
	}
}

// Limit is the maximum number of targets to initialise (MaxTg).
type Limit byte

const (
	LimitOne Limit = 1
	LimitTwo Limit = 2
)

func (l Limit) byteValue() byte {
	if l == LimitTwo {
		return byte(LimitTwo)
	}
	return byte(LimitOne)
}

// PollingMethod selects the ISO14443B anticollision scheme.
type PollingMethod byte

const (
	PollingTimeslot      PollingMethod = 0x00
	PollingProbabilistic PollingMethod = 0x01
)

// FeliCaBaudrate selects the FeliCa bit rate.
type FeliCaBaudrate byte

const (
	FeliCa212 FeliCaBaudrate = FeliCaBaudrate(TechFeliCa212)
	FeliCa424 FeliCaBaudrate = FeliCaBaudrate(TechFeliCa424)
)

// TagListOptions selects the technology and parameters of a tag listing.
// The implementations in this package are the complete set.
type TagListOptions interface {
	// Technology returns the technology the listing polls for.
	Technology() Technology
	// encode appends the InListPassiveTarget parameters (MaxTg onwards).
	encode(dst []byte) []byte
}

// ISO14443AOptions lists type A tags (MIFARE, NTAG, ...). A non-empty UID
// restricts the listing to the tag with that UID.
type ISO14443AOptions struct {
	UID   []byte
	Limit Limit
}

func (ISO14443AOptions) Technology() Technology { return TechISO14443A }

func (o ISO14443AOptions) encode(dst []byte) []byte {
	dst = append(dst, o.Limit.byteValue(), byte(TechISO14443A))
	return append(dst, o.UID...)
}

// ISO14443BOptions lists type B tags. Polling is sent only when set; the
// device defaults to timeslot polling.
type ISO14443BOptions struct {
	Polling *PollingMethod
	Limit   Limit
	AFI     byte
}

func (ISO14443BOptions) Technology() Technology { return TechISO14443B }

func (o ISO14443BOptions) encode(dst []byte) []byte {
	dst = append(dst, o.Limit.byteValue(), byte(TechISO14443B), o.AFI)
	if o.Polling != nil {
		dst = append(dst, byte(*o.Polling))
	}
	return dst
}

// FeliCaOptions lists FeliCa tags. Payload is the polling request: system
// code (2 bytes), request code and time slot number.
type FeliCaOptions struct {
	Limit    Limit
	Baudrate FeliCaBaudrate
	Payload  [5]byte
}

// DefaultFeliCaPayload polls for any system code with no extra request.
var DefaultFeliCaPayload = [5]byte{0x00, 0xFF, 0xFF, 0x00, 0x00}

func (o FeliCaOptions) Technology() Technology {
	if o.Baudrate == FeliCa424 {
		return TechFeliCa424
	}
	return TechFeliCa212
}

func (o FeliCaOptions) encode(dst []byte) []byte {
	dst = append(dst, o.Limit.byteValue(), byte(o.Technology()))
	return append(dst, o.Payload[:]...)
}

// JewelOptions lists Innovision Jewel tags. Only one can be listed at a time.
type JewelOptions struct{}

func (JewelOptions) Technology() Technology { return TechJewel }

func (JewelOptions) encode(dst []byte) []byte {
	return append(dst, byte(LimitOne), byte(TechJewel))
}
