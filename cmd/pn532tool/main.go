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

// Command pn532tool lists the tags in front of a PN532 reader and can dump
// the NDEF message of NFC Forum Type 2 tags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532wire"
	"github.com/ZaparooProject/go-pn532wire/detection"
	_ "github.com/ZaparooProject/go-pn532wire/detection/i2c"
	_ "github.com/ZaparooProject/go-pn532wire/detection/spi"
	_ "github.com/ZaparooProject/go-pn532wire/detection/uart"
	"github.com/ZaparooProject/go-pn532wire/transport/i2c"
	"github.com/ZaparooProject/go-pn532wire/transport/spi"
	"github.com/ZaparooProject/go-pn532wire/transport/uart"
)

type config struct {
	devicePath string
	transport  string
	tech       string
	logDir     string
	timeout    time.Duration
	pollDelay  time.Duration
	limit      int
	debug      bool
	read       bool
	detect     bool
	strictAck  bool
}

// Package-level flag variables
var (
	flagDevicePath string
	flagTransport  string
	flagTech       string
	flagLogDir     string
	flagTimeout    time.Duration
	flagPollDelay  time.Duration
	flagLimit      int
	flagDebug      bool
	flagRead       bool
	flagDetect     bool
	flagStrictAck  bool
)

func init() {
	flag.StringVar(&flagDevicePath, "device", "", "Device path (auto-detect if empty)")
	flag.StringVar(&flagTransport, "transport", "", "Transport: uart, i2c or spi (guessed from the path if empty)")
	flag.StringVar(&flagTech, "tech", "a", "Technology to list: a, b, felica212, felica424 or jewel")
	flag.StringVar(&flagLogDir, "log", "", "Write a session log to this directory")
	flag.DurationVar(&flagTimeout, "timeout", 5*time.Second, "Overall timeout")
	flag.DurationVar(&flagPollDelay, "poll-delay", pn532.DefaultPollDelay, "Delay before each ready poll")
	flag.IntVar(&flagLimit, "limit", 1, "Maximum number of tags to list (1 or 2)")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.BoolVar(&flagRead, "read", false, "Read and decode the NDEF message of Type 2 tags")
	flag.BoolVar(&flagDetect, "detect", false, "List detected readers and exit")
	flag.BoolVar(&flagStrictAck, "strict-ack", false, "Require an exact ACK frame")
}

func parseConfig() (*config, error) {
	cfg := &config{
		devicePath: flagDevicePath,
		transport:  strings.ToLower(flagTransport),
		tech:       strings.ToLower(flagTech),
		logDir:     flagLogDir,
		timeout:    flagTimeout,
		pollDelay:  flagPollDelay,
		limit:      flagLimit,
		debug:      flagDebug,
		read:       flagRead,
		detect:     flagDetect,
		strictAck:  flagStrictAck,
	}
	if cfg.limit != 1 && cfg.limit != 2 {
		return nil, fmt.Errorf("invalid -limit %d: must be 1 or 2", cfg.limit)
	}
	if _, err := listOptions(cfg); err != nil {
		return nil, err
	}

	// Enable debug output if --debug flag is set
	if cfg.debug {
		pn532.SetDebugEnabled(true)
	}
	return cfg, nil
}

// listOptions maps -tech and -limit to InListPassiveTarget parameters.
func listOptions(cfg *config) (pn532.TagListOptions, error) {
	limit := pn532.LimitOne
	if cfg.limit == 2 {
		limit = pn532.LimitTwo
	}
	switch cfg.tech {
	case "a", "":
		return pn532.ISO14443AOptions{Limit: limit}, nil
	case "b":
		return pn532.ISO14443BOptions{Limit: limit}, nil
	case "felica212":
		return pn532.FeliCaOptions{Limit: limit, Baudrate: pn532.FeliCa212, Payload: pn532.DefaultFeliCaPayload}, nil
	case "felica424":
		return pn532.FeliCaOptions{Limit: limit, Baudrate: pn532.FeliCa424, Payload: pn532.DefaultFeliCaPayload}, nil
	case "jewel":
		return pn532.JewelOptions{}, nil
	default:
		return nil, fmt.Errorf("unsupported technology: %s", cfg.tech)
	}
}

// openTransport opens path with the named transport, or guesses it from the
// path the way device names are usually spelled.
func openTransport(transport, path string) (detection.BusCloser, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}
	if transport == "" {
		pathLower := strings.ToLower(path)
		switch {
		case strings.Contains(pathLower, "i2c"):
			transport = "i2c"
		case strings.Contains(pathLower, "spi"):
			transport = "spi"
		default:
			transport = "uart"
		}
	}

	switch transport {
	case "uart":
		t, err := uart.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport for %s: %w", path, err)
		}
		return t, nil
	case "i2c":
		t, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport for %s: %w", path, err)
		}
		return t, nil
	case "spi":
		t, err := spi.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport for %s: %w", path, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transport)
	}
}

// autoDetect returns the first reader that answers a probe.
func autoDetect(ctx context.Context, cfg *config) (transport, path string, err error) {
	opts := detection.DefaultOptions()
	if cfg.transport != "" {
		opts.Transports = []string{cfg.transport}
	}
	devices, err := detection.DetectAll(ctx, &opts)
	if err != nil {
		return "", "", fmt.Errorf("auto-detection failed: %w", err)
	}
	return devices[0].Transport, devices[0].Path, nil
}

func runDetect(ctx context.Context, out io.Writer) error {
	opts := detection.DefaultOptions()
	devices, err := detection.DetectAll(ctx, &opts)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	for _, d := range devices {
		_, _ = fmt.Fprintln(out, d.String())
		if fw, ok := d.Metadata["firmware"]; ok {
			_, _ = fmt.Fprintf(out, "  firmware: %s\n", fw)
		}
	}
	return nil
}

// scan configures the SAM, lists tags and prints each one.
func scan(ctx context.Context, cfg *config, bus pn532.Bus, label string, out io.Writer) error {
	codecOpts := []pn532.CodecOption{pn532.WithTraceLabel(label)}
	if cfg.strictAck {
		codecOpts = append(codecOpts, pn532.WithStrictAck())
	}
	session := pn532.NewSession(pn532.NewBusyWait(bus, pn532.WithPollDelay(cfg.pollDelay)), codecOpts...)

	fw, err := session.FirmwareVersion(ctx)
	if err != nil {
		return reportTrace(fmt.Errorf("failed to read firmware version: %w", err))
	}
	_, _ = fmt.Fprintf(out, "Reader: %s\n", fw)

	if err := session.SAMConfigure(ctx, pn532.NormalMode()); err != nil {
		return reportTrace(err)
	}

	opts, err := listOptions(cfg)
	if err != nil {
		return err
	}

	var buf pn532.TagBuffer
	tags, err := session.ListTags(ctx, opts, &buf)
	if err != nil {
		return reportTrace(fmt.Errorf("failed to list tags: %w", err))
	}
	defer tags.Release()
	_, _ = fmt.Fprintf(out, "%d %s tag(s) found\n", tags.Count(), tags.Technology())

	for tag := tags.First(); tag != nil; tag = tag.Next() {
		printRecord(out, tag.Record())
		if cfg.read && tags.Technology() == pn532.TechISO14443A {
			if err := dumpNDEF(ctx, tag, out); err != nil {
				_, _ = fmt.Fprintf(out, "  NDEF: %v\n", err)
			}
		}
	}
	return nil
}

func printRecord(out io.Writer, rec pn532.Record) {
	switch r := rec.(type) {
	case pn532.ISO14443ARecord:
		_, _ = fmt.Fprintf(out, "Tag %d: UID=%X ATQA=%04X SAK=%02X", r.Number(), r.NFCID(), r.SensRes(), r.SelRes())
		if ats := r.ATS(); len(ats) > 0 {
			_, _ = fmt.Fprintf(out, " ATS=%X", ats)
		}
		_, _ = fmt.Fprintln(out)
	case pn532.ISO14443BRecord:
		_, _ = fmt.Fprintf(out, "Tag %d: ATQB=%X ATTRIB_RES=%X\n", r.Number(), r.ATQB(), r.AttribRes())
	case pn532.FeliCaRecord:
		_, _ = fmt.Fprintf(out, "Tag %d: IDm=%X PMm=%X", r.Number(), r.NFCID2(), r.Pad())
		if code, ok := r.SystemCode(); ok {
			_, _ = fmt.Fprintf(out, " System=%04X", code)
		}
		_, _ = fmt.Fprintln(out)
	case pn532.JewelRecord:
		_, _ = fmt.Fprintf(out, "Tag %d: ATQA=%04X ID=%X\n", r.Number(), r.SensRes(), r.JewelID())
	case nil:
		_, _ = fmt.Fprintln(out, "Tag: <stale>")
	}
}

// reportTrace prints the wire trace attached to err, if any.
func reportTrace(err error) error {
	if te := pn532.GetTrace(err); te != nil {
		_, _ = fmt.Fprintln(os.Stderr, te.FormatTrace())
	}
	return err
}

func run(ctx context.Context, cfg *config, out io.Writer) error {
	if cfg.logDir != "" {
		path, err := pn532.InitSessionLog(cfg.logDir)
		if err != nil {
			return fmt.Errorf("failed to open session log: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Logging to %s\n", path)
		defer func() { _ = pn532.CloseSessionLog() }()
	}

	if cfg.detect {
		return runDetect(ctx, out)
	}

	transport, path := cfg.transport, cfg.devicePath
	if path == "" {
		if cfg.debug {
			_, _ = fmt.Fprintln(out, "Auto-detecting PN532 devices...")
		}
		var err error
		if transport, path, err = autoDetect(ctx, cfg); err != nil {
			return err
		}
	}

	bus, err := openTransport(transport, path)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", err)
		}
	}()

	return scan(ctx, cfg, bus, path, out)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
