// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Reader reads EDF/EDF+ files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// Open opens an EDF/EDF+ file for reading.
func Open(r io.ReadSeeker) (*Reader, error) {
	reader := bufio.NewReader(r)

	b := make([]byte, headerFixedBytes)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	// Parse fields based on EDF/EDF+ specifications
	hdr := &Header{}
	hdr.Version = Version(field(b[0:8]))
	hdr.PatientID = field(b[8:88])
	hdr.RecordingID = field(b[88:168])

	startDate, err := time.Parse("02.01.06", field(b[168:176]))
	if err != nil {
		return nil, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", field(b[176:184]))
	if err != nil {
		return nil, fmt.Errorf("error parsing start time: %w", err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	if hdr.HeaderBytes, err = strconv.Atoi(field(b[184:192])); err != nil {
		return nil, fmt.Errorf("error parsing header bytes: %w", err)
	}
	if hdr.DataRecords, err = strconv.Atoi(field(b[236:244])); err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}
	if hdr.DataRecordDuration, err = time.ParseDuration(field(b[244:252]) + "s"); err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}
	if hdr.SignalCount, err = strconv.Atoi(field(b[252:256])); err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}
	if hdr.SignalCount < 0 {
		return nil, fmt.Errorf("invalid signal count: %d", hdr.SignalCount)
	}
	if hdr.HeaderBytes <= 0 {
		return nil, fmt.Errorf("invalid header bytes: %d", hdr.HeaderBytes)
	}
	if hdr.DataRecords < -1 {
		return nil, fmt.Errorf("invalid number of data records: %d", hdr.DataRecords)
	}

	// Signal headers are stored field by field, each field repeated for
	// every signal before the next one starts.
	hdr.Signals = make([]Signal, hdr.SignalCount)
	fields := []struct {
		width int
		set   func(s *Signal, v string)
	}{
		{16, func(s *Signal, v string) { s.Label = v }},
		{80, func(s *Signal, v string) { s.TransducerType = v }},
		{8, func(s *Signal, v string) { s.PhysicalDimension = v }},
		{8, func(s *Signal, v string) { s.PhysicalMin = parseFloat(v) }},
		{8, func(s *Signal, v string) { s.PhysicalMax = parseFloat(v) }},
		{8, func(s *Signal, v string) { s.DigitalMin = parseInt(v) }},
		{8, func(s *Signal, v string) { s.DigitalMax = parseInt(v) }},
		{80, func(s *Signal, v string) { s.Prefiltering = v }},
		{8, func(s *Signal, v string) { s.SamplesPerRecord = parseInt(v) }},
		{32, func(s *Signal, v string) { s.Reserved = v }},
	}
	for _, f := range fields {
		b := make([]byte, f.width)
		for i := range hdr.Signals {
			if _, err := io.ReadFull(reader, b); err != nil {
				return nil, fmt.Errorf("error reading signal headers: %w", err)
			}
			f.set(&hdr.Signals[i], field(b))
		}
	}
	for i, sig := range hdr.Signals {
		if sig.SamplesPerRecord < 0 {
			return nil, fmt.Errorf("signal %d: invalid samples per record: %d", i, sig.SamplesPerRecord)
		}
	}

	return &Reader{
		r:   r,
		hdr: hdr,
	}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() *Header {
	return er.hdr
}

// SignalReader reads continuous signal data from an EDF/EDF+ file.
type SignalReader struct {
	r             io.ReadSeeker
	hdr           *Header
	signal        Signal
	currentRecord int // Current record being processed
	currentSample int // Current sample in the record
	recordSize    int // Total size of one data record
	signalOffset  int // Byte offset of the signal in a record
	buf           []byte
}

// Signal creates a new SignalReader for a specified signal index.
func (er *Reader) Signal(signalIndex int) (*SignalReader, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, fmt.Errorf("signal index %d out of range [0, %d)", signalIndex, len(er.hdr.Signals))
	}

	recordSize, offsets := er.hdr.recordBytes()
	signal := er.hdr.Signals[signalIndex]

	return &SignalReader{
		r:            er.r,
		hdr:          er.hdr,
		signal:       signal,
		recordSize:   recordSize,
		signalOffset: offsets[signalIndex],
	}, nil
}

// SignalByLabel creates a new SignalReader for the signal with the given label.
func (er *Reader) SignalByLabel(label string) (*SignalReader, error) {
	i := er.hdr.SignalIndex(label)
	if i < 0 {
		return nil, fmt.Errorf("no signal labelled %q", label)
	}
	return er.Signal(i)
}

// ReadSignal returns every sample of a signal as physical values.
func (er *Reader) ReadSignal(signalIndex int) ([]float64, error) {
	sr, err := er.Signal(signalIndex)
	if err != nil {
		return nil, err
	}
	if er.hdr.DataRecords < 0 {
		return nil, fmt.Errorf("unknown number of data records")
	}

	spr := sr.signal.SamplesPerRecord
	if spr > 0 && er.hdr.DataRecords > math.MaxInt/spr {
		return nil, fmt.Errorf("signal too long: %d records of %d samples", er.hdr.DataRecords, spr)
	}

	// The header must not promise more records than the file holds.
	size, err := er.r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("error seeking to end of file: %w", err)
	}
	if sr.recordSize > 0 {
		available := max(size-int64(er.hdr.HeaderBytes), 0) / int64(sr.recordSize)
		if int64(er.hdr.DataRecords) > available {
			return nil, fmt.Errorf("truncated file: header declares %d data records, file holds %d",
				er.hdr.DataRecords, available)
		}
	}

	data := make([]float64, er.hdr.DataRecords*spr)
	n, err := sr.Read(data)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("short signal: read %d of %d samples", n, len(data))
	}
	return data, nil
}

// Read fills the provided float64 slice with the physical values from the signal.
func (sr *SignalReader) Read(data []float64) (int, error) {
	n := 0
	for n < len(data) {
		if sr.currentRecord >= sr.hdr.DataRecords {
			return n, io.EOF // End of data records
		}
		if sr.signal.SamplesPerRecord == 0 {
			sr.currentRecord++
			continue
		}

		// Read the remainder of this record's block for the signal in one go.
		remaining := min(sr.signal.SamplesPerRecord-sr.currentSample, len(data)-n)
		pos := int64(sr.hdr.HeaderBytes) + int64(sr.currentRecord)*int64(sr.recordSize) +
			int64(sr.signalOffset) + int64(sr.currentSample*sampleBytes)
		if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
			return n, fmt.Errorf("error seeking to position: %w", err)
		}
		if cap(sr.buf) < remaining*sampleBytes {
			sr.buf = make([]byte, remaining*sampleBytes)
		}
		buf := sr.buf[:remaining*sampleBytes]
		if _, err := io.ReadFull(sr.r, buf); err != nil {
			return n, fmt.Errorf("error reading sample data: %w", err)
		}

		for i := 0; i < remaining; i++ {
			digital := int16(binary.LittleEndian.Uint16(buf[i*sampleBytes:]))
			data[n] = convertDigitalToPhysical(digital, sr.signal.DigitalMin, sr.signal.DigitalMax, sr.signal.PhysicalMin, sr.signal.PhysicalMax)
			n++
		}

		sr.currentSample += remaining
		if sr.currentSample >= sr.signal.SamplesPerRecord {
			sr.currentSample = 0
			sr.currentRecord++
		}
	}

	return n, nil
}

// convertDigitalToPhysical converts a digital value from the data record to a physical value using the calibration factors.
func convertDigitalToPhysical(digital int16, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return 0 // Avoid division by zero
	}
	return pmin + (float64(digital)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}

func field(b []byte) string {
	return strings.TrimSpace(string(b))
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}
