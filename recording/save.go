// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package recording

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/OpenPSG/broadband/edf"
	"gonum.org/v1/gonum/floats"
)

// recordDuration keeps data records of many-channel recordings under the
// EDF size limit.
const recordDuration = 100 * time.Millisecond

// Save writes the recording as an EDF file and an events file.
func (r *Recording) Save(edfPath, eventsPath string) error {
	if err := r.Validate(); err != nil {
		return err
	}

	samplesPerRecord := int(math.Round(r.SampleRate * recordDuration.Seconds()))
	if r.Samples()%samplesPerRecord != 0 {
		return fmt.Errorf("%d samples do not fill whole %d-sample records", r.Samples(), samplesPerRecord)
	}
	signals := make([]edf.Signal, len(r.V))
	for i, ch := range r.V {
		// Symmetric physical range, widened slightly so the extremes survive
		// quantization.
		bound := 1.0
		if len(ch) > 0 {
			bound = math.Max(math.Abs(floats.Min(ch)), math.Abs(floats.Max(ch)))
			bound = math.Max(math.Ceil(bound*1.01), 1)
		}
		label := fmt.Sprintf("ECoG %d", i+1)
		if i < len(r.Labels) && r.Labels[i] != "" {
			label = r.Labels[i]
		}
		signals[i] = edf.Signal{
			Label:             label,
			TransducerType:    "ECoG electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       -bound,
			PhysicalMax:       bound,
			DigitalMin:        -32767,
			DigitalMax:        32767,
			SamplesPerRecord:  samplesPerRecord,
		}
	}

	f, err := os.Create(edfPath)
	if err != nil {
		return err
	}
	defer f.Close()

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		PatientID:          fmt.Sprintf("Subject %d", r.Subject),
		RecordingID:        string(r.Experiment),
		StartTime:          time.Now().UTC(),
		DataRecordDuration: recordDuration,
		SignalCount:        len(signals),
		Signals:            signals,
	})
	if err != nil {
		return fmt.Errorf("error creating %s: %w", edfPath, err)
	}
	if err := ew.WriteSignals(r.V); err != nil {
		return fmt.Errorf("error writing %s: %w", edfPath, err)
	}
	if err := ew.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	ef, err := os.Create(eventsPath)
	if err != nil {
		return err
	}
	defer ef.Close()

	if err := WriteEvents(ef, r.Events); err != nil {
		return fmt.Errorf("error writing %s: %w", eventsPath, err)
	}
	return ef.Close()
}
