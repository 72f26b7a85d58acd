// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenPSG/broadband/edf"
	"github.com/stretchr/testify/require"
)

func ecogSignal(label string, samplesPerRecord int) edf.Signal {
	return edf.Signal{
		Label:             label,
		TransducerType:    "Platinum electrode",
		PhysicalDimension: "uV",
		PhysicalMin:       -3000,
		PhysicalMax:       3000,
		DigitalMin:        -32768,
		DigitalMax:        32767,
		SamplesPerRecord:  samplesPerRecord,
	}
}

func createFile(t *testing.T) *os.File {
	t.Helper()

	f, err := os.OpenFile(filepath.Join(t.TempDir(), "test.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})
	return f
}

func TestWriter(t *testing.T) {
	f := createFile(t)

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "Patient X",
		RecordingID:        "Recording 1",
		StartTime:          time.Now(),
		DataRecordDuration: 60 * time.Second,
		SignalCount:        1,
		Signals: []edf.Signal{
			{
				Label:             "EEG Fpz-Cz",
				TransducerType:    "AgAgCl electrode",
				PhysicalDimension: "uV",
				PhysicalMin:       -1000,
				PhysicalMax:       1000,
				DigitalMin:        -2048,
				DigitalMax:        2047,
				SamplesPerRecord:  256,
			},
		},
	}

	ew, err := edf.Create(f, hdr)
	require.NoError(t, err)

	// Write some data records
	record := make([]float64, 256)
	for i := range record {
		record[i] = float64(i) // physical value
	}

	// Write the first data record
	err = ew.WriteRecord([][]float64{record})
	require.NoError(t, err)

	for i := range record {
		record[i] = float64(i + 256)
	}

	// Write the second data record
	err = ew.WriteRecord([][]float64{record})
	require.NoError(t, err)

	// Close the writer (this writes the header)
	require.NoError(t, ew.Close())

	// Rewind the file
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)
	require.Equal(t, 2, er.Header().DataRecords)

	sr, err := er.Signal(0)
	require.NoError(t, err)

	samples := make([]float64, 512)
	n, err := sr.Read(samples)
	require.NoError(t, err)
	require.Equal(t, 512, n)

	// Verify the samples match what was written.
	for i := range samples {
		require.InDelta(t, float64(i), samples[i], 1.0)
	}

	// Reader should now return EOF
	_, err = sr.Read(samples)
	require.Equal(t, io.EOF, err)
}

func TestWriteSignals(t *testing.T) {
	f := createFile(t)

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		PatientID:          "ca",
		RecordingID:        "faces_basic",
		StartTime:          time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		DataRecordDuration: 100 * time.Millisecond,
		SignalCount:        2,
		Signals:            []edf.Signal{ecogSignal("ECoG 1", 100), ecogSignal("ECoG 2", 100)},
	})
	require.NoError(t, err)

	// 250 samples spill into a third, padded record.
	a := make([]float64, 250)
	b := make([]float64, 250)
	for i := range a {
		a[i] = float64(i)
		b[i] = -float64(i) * 2
	}
	require.NoError(t, ew.WriteSignals([][]float64{a, b}))
	require.NoError(t, ew.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)

	hdr := er.Header()
	require.Equal(t, 3, hdr.DataRecords)
	require.Equal(t, 100*time.Millisecond, hdr.DataRecordDuration)
	require.InDelta(t, 1000.0, hdr.SampleRate(1), 1e-9)

	got, err := er.ReadSignal(1)
	require.NoError(t, err)
	require.Len(t, got, 300)
	for i := range b {
		require.InDelta(t, b[i], got[i], 0.1)
	}
	for i := 250; i < 300; i++ {
		require.InDelta(t, -3000.0, got[i], 0.1)
	}
}

func TestWriterRejects(t *testing.T) {
	f := createFile(t)

	hdr := edf.Header{
		Version:            edf.Version0,
		StartTime:          time.Now(),
		DataRecordDuration: time.Second,
		SignalCount:        1,
		Signals:            []edf.Signal{ecogSignal("ECoG 1", 1000)},
	}

	_, err := edf.Create(f, edf.Header{SignalCount: 2, DataRecordDuration: time.Second, Signals: hdr.Signals})
	require.Error(t, err)

	big := hdr
	big.SignalCount = 31
	big.Signals = make([]edf.Signal, 31)
	for i := range big.Signals {
		big.Signals[i] = ecogSignal("ECoG", 1000)
	}
	_, err = edf.Create(f, big)
	require.Error(t, err)

	ew, err := edf.Create(f, hdr)
	require.NoError(t, err)
	require.Error(t, ew.WriteRecord([][]float64{make([]float64, 999)}))
	require.Error(t, ew.WriteSignals([][]float64{nil, nil}))
}
