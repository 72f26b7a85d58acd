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
	"time"
)

// Writer writes EDF files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int // Number of data records written so far.
}

// Create creates a new EDF writer that writes to the given writer.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	if hdr.SignalCount != len(hdr.Signals) {
		return nil, fmt.Errorf("signal count %d does not match %d signal definitions", hdr.SignalCount, len(hdr.Signals))
	}
	if recordSize, _ := hdr.recordBytes(); recordSize > maxRecordBytes {
		// As recommended by the EDF standard.
		return nil, fmt.Errorf("data record too large: %d bytes, max is %d bytes", recordSize, maxRecordBytes)
	}
	if _, err := formatDuration(hdr.DataRecordDuration); err != nil {
		return nil, err
	}

	hdr.Signals = append([]Signal(nil), hdr.Signals...)
	hdr.DataRecords = -1 // Unknown number of data records (at this time).

	ew := &Writer{w: w, hdr: &hdr}

	// Write the initial header
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Close finalizes the EDF file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	return nil
}

// WriteRecord writes a single data record to the EDF file.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != ew.hdr.SignalCount {
		return fmt.Errorf("expected %d signals, got %d", ew.hdr.SignalCount, len(signals))
	}
	for i, signal := range signals {
		if want := ew.hdr.Signals[i].SamplesPerRecord; len(signal) != want {
			return fmt.Errorf("signal %d: expected %d samples per record, got %d", i, want, len(signal))
		}
	}

	// Records are appended after the header and every record already written.
	recordSize, _ := ew.hdr.recordBytes()
	pos := int64(ew.hdr.HeaderBytes) + int64(ew.dataRecords)*int64(recordSize)
	if _, err := ew.w.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to record %d: %w", ew.dataRecords, err)
	}

	writer := bufio.NewWriter(ew.w)
	buf := make([]byte, sampleBytes)
	for i, signal := range signals {
		def := ew.hdr.Signals[i]
		for _, sample := range signal {
			digital := convertPhysicalToDigital(sample, def.PhysicalMin, def.PhysicalMax, def.DigitalMin, def.DigitalMax)
			binary.LittleEndian.PutUint16(buf, uint16(digital))
			if _, err := writer.Write(buf); err != nil {
				return err
			}
		}
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// WriteSignals writes whole signals, splitting them into as many data records
// as they fill. Every signal must cover the same number of records; a partial
// trailing record is padded with the signal's physical minimum.
func (ew *Writer) WriteSignals(signals [][]float64) error {
	if len(signals) != ew.hdr.SignalCount {
		return fmt.Errorf("expected %d signals, got %d", ew.hdr.SignalCount, len(signals))
	}

	records := -1
	for i, signal := range signals {
		spr := ew.hdr.Signals[i].SamplesPerRecord
		if spr <= 0 {
			return fmt.Errorf("signal %d: no samples per record", i)
		}
		n := (len(signal) + spr - 1) / spr
		if records >= 0 && n != records {
			return fmt.Errorf("signal %d spans %d records, expected %d", i, n, records)
		}
		records = n
	}

	record := make([][]float64, len(signals))
	for r := 0; r < records; r++ {
		for i, signal := range signals {
			def := ew.hdr.Signals[i]
			chunk := make([]float64, def.SamplesPerRecord)
			for j := range chunk {
				chunk[j] = def.PhysicalMin
			}
			copy(chunk, signal[r*def.SamplesPerRecord:])
			record[i] = chunk
		}
		if err := ew.WriteRecord(record); err != nil {
			return fmt.Errorf("error writing record %d: %w", r, err)
		}
	}

	return nil
}

// writeHeader writes the EDF header at the start of the file.
func (ew *Writer) writeHeader() error {
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	duration, err := formatDuration(ew.hdr.DataRecordDuration)
	if err != nil {
		return err
	}
	ew.hdr.HeaderBytes = headerFixedBytes + ew.hdr.SignalCount*headerSignalBytes

	writer := bufio.NewWriter(ew.w)
	put := func(width int, v any) {
		fmt.Fprintf(writer, "%-*.*s", width, width, fmt.Sprint(v))
	}

	put(8, ew.hdr.Version)
	put(80, ew.hdr.PatientID)
	put(80, ew.hdr.RecordingID)
	put(8, ew.hdr.StartTime.Format("02.01.06"))
	put(8, ew.hdr.StartTime.Format("15.04.05"))
	put(8, ew.hdr.HeaderBytes)
	put(44, "") // Reserved
	put(8, ew.hdr.DataRecords)
	put(8, duration)
	put(4, ew.hdr.SignalCount)

	for _, s := range ew.hdr.Signals {
		put(16, s.Label)
	}
	for _, s := range ew.hdr.Signals {
		put(80, s.TransducerType)
	}
	for _, s := range ew.hdr.Signals {
		put(8, s.PhysicalDimension)
	}
	for _, s := range ew.hdr.Signals {
		put(8, formatPhysicalValue(s.PhysicalMin))
	}
	for _, s := range ew.hdr.Signals {
		put(8, formatPhysicalValue(s.PhysicalMax))
	}
	for _, s := range ew.hdr.Signals {
		put(8, s.DigitalMin)
	}
	for _, s := range ew.hdr.Signals {
		put(8, s.DigitalMax)
	}
	for _, s := range ew.hdr.Signals {
		put(80, s.Prefiltering)
	}
	for _, s := range ew.hdr.Signals {
		put(8, s.SamplesPerRecord)
	}
	for range ew.hdr.Signals {
		put(32, "") // Reserved
	}

	// bufio.Writer keeps the first write error and reports it on Flush.
	return writer.Flush()
}

// convertPhysicalToDigital converts a physical value to a digital value using the calibration factors.
func convertPhysicalToDigital(physical float64, pmin, pmax float64, dmin, dmax int) int16 {
	if pmax == pmin {
		return 0 // Avoid division by zero
	}
	digital := math.Round((physical-pmin)*float64(dmax-dmin)/(pmax-pmin)) + float64(dmin)
	digital = math.Max(float64(dmin), math.Min(float64(dmax), digital))
	return int16(digital)
}

// formatDuration renders a record duration in seconds within the 8 byte field.
func formatDuration(d time.Duration) (string, error) {
	if d <= 0 {
		return "", fmt.Errorf("data record duration must be positive, got %s", d)
	}
	s := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if len(s) > 8 {
		return "", fmt.Errorf("data record duration %s does not fit the header", d)
	}
	return s, nil
}

func formatPhysicalValue(val float64) string {
	// Try with 2 decimal places
	s := fmt.Sprintf("%.2f", val)
	if len(s) > 8 {
		// Fall back to no decimal
		s = fmt.Sprintf("%.0f", val)
	}
	return s
}
