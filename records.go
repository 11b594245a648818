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

// Record is one target entry of an InListPassiveTarget reply, viewed in place
// inside the TagBuffer it was received into. Byte 0 is the target number.
//
// Record lengths come from the reply itself and are trusted. Accessors never
// read past the end of the buffer; bytes beyond it read as zero or are cut off.
type Record interface {
	// Technology is the technology the record was listed with.
	Technology() Technology
	// Number returns the target number (Tg) assigned by the PN532.
	Number() byte
	// Len is the record length excluding the target number byte.
	Len() int
	// Bytes returns the record including the target number byte.
	Bytes() []byte
	sealedRecord()
}

// view is a window onto the tag buffer starting at a record's Tg byte.
type view []byte

func (v view) at(i int) byte {
	if i < 0 || i >= len(v) {
		return 0
	}
	return v[i]
}

func (v view) span(start, n int) []byte {
	if n <= 0 || start >= len(v) {
		return nil
	}
	end := start + n
	if end > len(v) {
		end = len(v)
	}
	return v[start:end]
}

func (v view) u16(i int) uint16 {
	return uint16(v.at(i))<<8 | uint16(v.at(i+1))
}

func (v view) bytes(recordLen int) []byte {
	return v.span(0, recordLen+1)
}

// selResISO14443_4 is set in SEL_RES when the tag is ISO/IEC 14443-4
// compliant. Only such tags report an ATS.
const selResISO14443_4 = 0x20

// ISO14443ARecord is a type A target:
//
//	Tg | SENS_RES (2) | SEL_RES | NFCIDLength | NFCID | ATS (length byte first)
type ISO14443ARecord struct {
	v view
}

func (ISO14443ARecord) Technology() Technology { return TechISO14443A }

func (ISO14443ARecord) sealedRecord() {}

func (r ISO14443ARecord) Number() byte { return r.v.at(0) }

// SensRes returns SENS_RES (ATQA), big-endian.
func (r ISO14443ARecord) SensRes() uint16 { return r.v.u16(1) }

// SelRes returns SEL_RES (SAK).
func (r ISO14443ARecord) SelRes() byte { return r.v.at(3) }

func (r ISO14443ARecord) nfcidLen() int { return int(r.v.at(4)) }

// NFCID returns the tag UID.
func (r ISO14443ARecord) NFCID() []byte { return r.v.span(5, r.nfcidLen()) }

// atsLen is the ATS length byte, which counts itself. It is zero when the
// tag does not support ISO/IEC 14443-4 and the reply carries no ATS.
func (r ISO14443ARecord) atsLen() int {
	if r.SelRes()&selResISO14443_4 == 0 {
		return 0
	}
	return int(r.v.at(5 + r.nfcidLen()))
}

// ATS returns the answer to select without its length byte, or nil.
func (r ISO14443ARecord) ATS() []byte {
	return r.v.span(6+r.nfcidLen(), r.atsLen()-1)
}

func (r ISO14443ARecord) Len() int { return r.nfcidLen() + r.atsLen() + 4 }

func (r ISO14443ARecord) Bytes() []byte { return r.v.bytes(r.Len()) }

// ISO14443BRecord is a type B target:
//
//	Tg | ATQB (12) | ATTRIB_RES length | ATTRIB_RES
type ISO14443BRecord struct {
	v view
}

func (ISO14443BRecord) Technology() Technology { return TechISO14443B }

func (ISO14443BRecord) sealedRecord() {}

func (r ISO14443BRecord) Number() byte { return r.v.at(0) }

// ATQB returns the 12-byte answer to request.
func (r ISO14443BRecord) ATQB() []byte { return r.v.span(1, 12) }

// AttribRes returns the ATTRIB response.
func (r ISO14443BRecord) AttribRes() []byte { return r.v.span(14, int(r.v.at(13))) }

func (r ISO14443BRecord) Len() int { return 13 + int(r.v.at(13)) }

func (r ISO14443BRecord) Bytes() []byte { return r.v.bytes(r.Len()) }

// FeliCaRecord is a FeliCa target at 212 or 424 kbps:
//
//	Tg | POL_RES length | 0x01 | NFCID2 (8) | Pad (8) | SYST_CODE (2, optional)
type FeliCaRecord struct {
	v    view
	tech Technology
}

func (r FeliCaRecord) Technology() Technology { return r.tech }

func (FeliCaRecord) sealedRecord() {}

func (r FeliCaRecord) Number() byte { return r.v.at(0) }

// POLResLen returns the POL_RES length byte, which counts itself.
func (r FeliCaRecord) POLResLen() byte { return r.v.at(1) }

// ResponseCode returns the polling response code, 0x01 for a valid reply.
func (r FeliCaRecord) ResponseCode() byte { return r.v.at(2) }

// NFCID2 returns the 8-byte FeliCa IDm.
func (r FeliCaRecord) NFCID2() []byte { return r.v.span(3, 8) }

// Pad returns the 8-byte PMm.
func (r FeliCaRecord) Pad() []byte { return r.v.span(11, 8) }

// SystemCode returns the system code when the tag reported one.
func (r FeliCaRecord) SystemCode() (uint16, bool) {
	if r.POLResLen() < 20 {
		return 0, false
	}
	return r.v.u16(19), true
}

func (r FeliCaRecord) Len() int { return int(r.POLResLen()) }

func (r FeliCaRecord) Bytes() []byte { return r.v.bytes(r.Len()) }

// JewelRecord is an Innovision Jewel target:
//
//	Tg | SENS_RES (2) | JEWELID (4)
type JewelRecord struct {
	v view
}

func (JewelRecord) Technology() Technology { return TechJewel }

func (JewelRecord) sealedRecord() {}

func (r JewelRecord) Number() byte { return r.v.at(0) }

// SensRes returns SENS_RES, big-endian.
func (r JewelRecord) SensRes() uint16 { return r.v.u16(1) }

// JewelID returns the 4-byte tag ID.
func (r JewelRecord) JewelID() []byte { return r.v.span(3, 4) }

func (JewelRecord) Len() int { return 6 }

func (r JewelRecord) Bytes() []byte { return r.v.bytes(r.Len()) }

// recordAt interprets buf from offset as a record of the given technology.
func recordAt(tech Technology, buf []byte, offset int) Record {
	var v view
	if offset < len(buf) {
		v = buf[offset:]
	}
	switch tech {
	case TechISO14443B:
		return ISO14443BRecord{v: v}
	case TechFeliCa212, TechFeliCa424:
		return FeliCaRecord{v: v, tech: tech}
	case TechJewel:
		return JewelRecord{v: v}
	default:
		return ISO14443ARecord{v: v}
	}
}
