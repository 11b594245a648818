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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	pn532 "github.com/ZaparooProject/go-pn532wire"
	"github.com/hsanjuan/go-ndef"
)

const (
	cmdRead       = 0x30 // Type 2 READ: four pages per command
	pageSize      = 4
	readSize      = 16
	ccPage        = 3
	firstDataPage = 4

	tlvNull       = 0x00
	tlvNDEF       = 0x03
	tlvTerminator = 0xFE
)

var (
	errNoCapabilityContainer = errors.New("no NDEF capability container")
	errNoNDEF                = errors.New("no NDEF message")
)

// uriPrefixes are the NFC Forum URI identifier codes.
var uriPrefixes = []string{
	"", "http://www.", "https://www.", "http://", "https://", "tel:", "mailto:",
	"ftp://anonymous:anonymous@", "ftp://ftp.", "ftps://", "sftp://", "smb://",
	"nfs://", "ftp://", "dav://", "news:", "telnet://", "imap:", "rtsp://",
	"urn:", "pop:", "sip:", "sips:", "tftp:", "btspp://", "btl2cap://",
	"btgoep://", "tcpobex://", "irdaobex://", "file://", "urn:epc:id:",
	"urn:epc:tag:", "urn:epc:pat:", "urn:epc:raw:", "urn:epc:", "urn:nfc:",
}

// readPages issues a READ for page and returns the 16 bytes that follow it.
func readPages(ctx context.Context, tag *pn532.Tag, page int) ([]byte, error) {
	data := make([]byte, readSize)
	n, err := tag.Transceive(ctx, []byte{cmdRead, byte(page)}, data)
	if err != nil {
		return nil, fmt.Errorf("read page %d: %w", page, err)
	}
	if n < readSize {
		return nil, fmt.Errorf("read page %d: short reply (%d bytes)", page, n)
	}
	return data, nil
}

// readNDEF reads the data area of a Type 2 tag and returns the value of its
// first NDEF message TLV.
func readNDEF(ctx context.Context, tag *pn532.Tag) ([]byte, error) {
	cc, err := readPages(ctx, tag, ccPage)
	if err != nil {
		return nil, err
	}
	if cc[0] != 0xE1 {
		return nil, errNoCapabilityContainer
	}
	capacity := int(cc[2]) * 8

	var area []byte
	for page := firstDataPage; len(area) < capacity; page += readSize / pageSize {
		chunk, err := readPages(ctx, tag, page)
		if err != nil {
			return nil, err
		}
		area = append(area, chunk...)
		if value, done := findNDEF(area); done {
			if value == nil {
				return nil, errNoNDEF
			}
			return value, nil
		}
	}
	return nil, errNoNDEF
}

// findNDEF walks the TLV blocks in area. done is false while more data is
// needed to reach the end of the first NDEF TLV.
func findNDEF(area []byte) (value []byte, done bool) {
	i := 0
	for i < len(area) {
		switch area[i] {
		case tlvNull:
			i++
			continue
		case tlvTerminator:
			return nil, true
		}
		if i+1 >= len(area) {
			return nil, false
		}
		length, hdr := int(area[i+1]), 2
		if area[i+1] == 0xFF {
			if i+3 >= len(area) {
				return nil, false
			}
			length, hdr = int(area[i+2])<<8|int(area[i+3]), 4
		}
		end := i + hdr + length
		if end > len(area) {
			return nil, false
		}
		if area[i] == tlvNDEF {
			return area[i+hdr : end], true
		}
		i = end
	}
	return nil, false
}

// dumpNDEF prints every record of the tag's NDEF message.
func dumpNDEF(ctx context.Context, tag *pn532.Tag, out io.Writer) error {
	raw, err := readNDEF(ctx, tag)
	if err != nil {
		return err
	}

	msg := &ndef.Message{}
	if _, err := msg.Unmarshal(raw); err != nil {
		return fmt.Errorf("failed to parse NDEF message: %w", err)
	}
	for i, rec := range msg.Records {
		_, _ = fmt.Fprintf(out, "  NDEF record %d: %s\n", i, describeRecord(rec))
	}
	return nil
}

func describeRecord(rec *ndef.Record) string {
	payload, err := rec.Payload()
	if err != nil {
		return fmt.Sprintf("unreadable payload: %v", err)
	}
	data := payload.Marshal()

	switch rec.TNF() {
	case ndef.NFCForumWellKnownType:
		switch rec.Type() {
		case "T":
			if text, ok := decodeText(data); ok {
				return fmt.Sprintf("text %q", text)
			}
		case "U":
			if len(data) > 0 {
				return "uri " + uriPrefix(data[0]) + string(data[1:])
			}
		}
		return fmt.Sprintf("well-known %q %X", rec.Type(), data)
	case ndef.MediaType:
		return fmt.Sprintf("media %s (%d bytes)", rec.Type(), len(data))
	case ndef.AbsoluteURI:
		return "absolute uri " + rec.Type()
	case ndef.NFCForumExternalType:
		return fmt.Sprintf("external %s (%d bytes)", rec.Type(), len(data))
	default:
		return fmt.Sprintf("tnf %d (%d bytes)", rec.TNF(), len(data))
	}
}

// decodeText strips the status byte and language code of a text payload.
func decodeText(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	langLen := int(data[0] & 0x3F)
	if 1+langLen > len(data) {
		return "", false
	}
	return string(data[1+langLen:]), true
}

func uriPrefix(code byte) string {
	if int(code) < len(uriPrefixes) {
		return uriPrefixes[code]
	}
	return ""
}
