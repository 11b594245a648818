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
	"encoding/hex"
	"errors"
)

// Technology codes (BrTy) a virtual tag answers to.
const (
	TechISO14443A byte = 0x00
	TechFeliCa212 byte = 0x01
	TechFeliCa424 byte = 0x02
	TechISO14443B byte = 0x03
	TechJewel     byte = 0x04
)

// Type 2 tag commands understood by NTAG-style virtual tags.
const (
	ntagCmdRead  = 0x30
	ntagCmdWrite = 0xA2
)

const ntagPageSize = 4

var (
	errPageOutOfRange = errors.New("page out of range")
	errPageLocked     = errors.New("page is write protected")
)

// VirtualTag is a simulated target. Its target record is built the way a
// PN532 reports it in an InListPassiveTarget reply.
type VirtualTag struct {
	Type    string
	UID     []byte
	ATS     []byte // ISO14443-4 tags only, without the length byte
	Extra   []byte // ATQB for type B, PMm for FeliCa
	Attrib  []byte // type B ATTRIB_RES
	Pages   [][]byte
	System  []byte // FeliCa system code, optional
	Tech    byte
	SensRes uint16
	SelRes  byte
	Present bool
}

// NewVirtualNTAG213 creates an NTAG213 holding an NDEF text record
// "Hello World".
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAG213UID
	}
	tag := &VirtualTag{
		Type:    "NTAG213",
		Tech:    TechISO14443A,
		UID:     uid,
		SensRes: 0x0044,
		SelRes:  0x00,
		Pages:   make([][]byte, 45),
		Present: true,
	}
	for i := range tag.Pages {
		tag.Pages[i] = make([]byte, ntagPageSize)
	}
	n := copy(tag.Pages[0][:3], uid)
	copy(tag.Pages[1], uid[n:])
	copy(tag.Pages[3], []byte{0xE1, 0x10, 0x12, 0x00})
	tag.SetNDEFText("Hello World")
	return tag
}

// NewVirtualMIFARE1K creates a MIFARE Classic 1K. It can be listed but does
// not answer data exchanges.
func NewVirtualMIFARE1K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestMIFAREUID
	}
	return &VirtualTag{
		Type:    "MIFARE1K",
		Tech:    TechISO14443A,
		UID:     uid,
		SensRes: 0x0004,
		SelRes:  0x08,
		Present: true,
	}
}

// NewVirtualISO14443A4 creates an ISO14443-4 type A tag reporting ats.
func NewVirtualISO14443A4(uid, ats []byte) *VirtualTag {
	if uid == nil {
		uid = TestDESFireUID
	}
	return &VirtualTag{
		Type:    "ISO14443-4A",
		Tech:    TechISO14443A,
		UID:     uid,
		ATS:     ats,
		SensRes: 0x0344,
		SelRes:  0x20,
		Present: true,
	}
}

// NewVirtualISO14443B creates a type B tag with a 12-byte ATQB.
func NewVirtualISO14443B(atqb, attrib []byte) *VirtualTag {
	return &VirtualTag{
		Type:    "ISO14443B",
		Tech:    TechISO14443B,
		Extra:   atqb,
		Attrib:  attrib,
		Present: true,
	}
}

// NewVirtualFeliCa creates a FeliCa tag. system may be nil.
func NewVirtualFeliCa(idm, pmm, system []byte) *VirtualTag {
	return &VirtualTag{
		Type:    "FeliCa",
		Tech:    TechFeliCa212,
		UID:     idm,
		Extra:   pmm,
		System:  system,
		Present: true,
	}
}

// NewVirtualJewel creates an Innovision Jewel tag.
func NewVirtualJewel(id []byte) *VirtualTag {
	return &VirtualTag{
		Type:    "Jewel",
		Tech:    TechJewel,
		UID:     id,
		SensRes: 0x0C00,
		Present: true,
	}
}

// GetUIDString returns the UID as a hex string
func (v *VirtualTag) GetUIDString() string {
	return hex.EncodeToString(v.UID)
}

// Answers reports whether the tag responds to a listing for tech.
func (v *VirtualTag) Answers(tech byte) bool {
	if !v.Present {
		return false
	}
	if v.Tech == TechFeliCa212 || v.Tech == TechFeliCa424 {
		return tech == TechFeliCa212 || tech == TechFeliCa424
	}
	return v.Tech == tech
}

// AppendRecord appends the tag's target record, numbered tg, to dst.
func (v *VirtualTag) AppendRecord(dst []byte, tg byte) []byte {
	dst = append(dst, tg)
	switch v.Tech {
	case TechISO14443B:
		atqb := make([]byte, 12)
		copy(atqb, v.Extra)
		dst = append(dst, atqb...)
		dst = append(dst, byte(len(v.Attrib)))
		return append(dst, v.Attrib...)
	case TechFeliCa212, TechFeliCa424:
		idm := make([]byte, 8)
		pmm := make([]byte, 8)
		copy(idm, v.UID)
		copy(pmm, v.Extra)
		dst = append(dst, byte(18+len(v.System)), 0x01)
		dst = append(dst, idm...)
		dst = append(dst, pmm...)
		return append(dst, v.System...)
	case TechJewel:
		id := make([]byte, 4)
		copy(id, v.UID)
		dst = append(dst, byte(v.SensRes>>8), byte(v.SensRes))
		return append(dst, id...)
	default:
		dst = append(dst, byte(v.SensRes>>8), byte(v.SensRes), v.SelRes, byte(len(v.UID)))
		dst = append(dst, v.UID...)
		if v.SelRes&0x20 != 0 {
			dst = append(dst, byte(len(v.ATS)+1))
			dst = append(dst, v.ATS...)
		}
		return dst
	}
}

// Transceive handles a data exchange and returns the reply data and the
// PN532 status byte.
func (v *VirtualTag) Transceive(data []byte) ([]byte, byte) {
	if !v.Present {
		return nil, errTimeout
	}
	if len(v.Pages) == 0 || len(data) == 0 {
		return nil, errTimeout
	}

	switch data[0] {
	case ntagCmdRead:
		if len(data) < 2 {
			return nil, errInvalidParam
		}
		out, err := v.ReadPages(int(data[1]))
		if err != nil {
			return nil, errTimeout
		}
		return out, 0
	case ntagCmdWrite:
		if len(data) < 2+ntagPageSize {
			return nil, errInvalidParam
		}
		if err := v.WritePage(int(data[1]), data[2:2+ntagPageSize]); err != nil {
			return nil, errTimeout
		}
		return nil, 0
	default:
		return nil, errTimeout
	}
}

// ReadPages returns the four pages starting at page, wrapping around the
// end of memory like an NTAG READ.
func (v *VirtualTag) ReadPages(page int) ([]byte, error) {
	if page < 0 || page >= len(v.Pages) {
		return nil, errPageOutOfRange
	}
	out := make([]byte, 0, 4*ntagPageSize)
	for i := range 4 {
		out = append(out, v.Pages[(page+i)%len(v.Pages)]...)
	}
	return out, nil
}

// WritePage writes one 4-byte page. Pages 0-2 hold the UID and lock bytes.
func (v *VirtualTag) WritePage(page int, data []byte) error {
	if page < 0 || page >= len(v.Pages) {
		return errPageOutOfRange
	}
	if page < 3 {
		return errPageLocked
	}
	copy(v.Pages[page], data)
	return nil
}

// SetNDEFText stores a single NDEF text record (language "en") starting at
// page 4 as an NDEF message TLV.
func (v *VirtualTag) SetNDEFText(text string) {
	payload := append([]byte{0x02, 'e', 'n'}, text...)
	record := append([]byte{0xD1, 0x01, byte(len(payload)), 'T'}, payload...)
	tlv := append([]byte{0x03, byte(len(record))}, record...)
	tlv = append(tlv, 0xFE)

	for page := 4; page < len(v.Pages); page++ {
		clear(v.Pages[page])
	}
	for i := 0; i < len(tlv); i += ntagPageSize {
		page := 4 + i/ntagPageSize
		if page >= len(v.Pages) {
			break
		}
		copy(v.Pages[page], tlv[i:])
	}
}

// Remove takes the tag out of the field.
func (v *VirtualTag) Remove() {
	v.Present = false
}

// Insert puts the tag back into the field.
func (v *VirtualTag) Insert() {
	v.Present = true
}
