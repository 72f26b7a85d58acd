// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package recording assembles one subject's experiment session: the
// continuous voltage of every channel and the trial events that index into
// it.
package recording

import (
	"fmt"
	"math"
	"os"

	"github.com/OpenPSG/broadband"
	"github.com/OpenPSG/broadband/edf"
)

// Experiment names the paradigm a recording was made under.
type Experiment string

const (
	// FacesBasic is passive viewing of face and house images.
	FacesBasic Experiment = "faces_basic"
	// FacesNoise is viewing of noisy face and house images with a key press
	// whenever a face is perceived.
	FacesNoise Experiment = "faces_noise"
)

// Validate reports whether e is a known experiment.
func (e Experiment) Validate() error {
	switch e {
	case FacesBasic, FacesNoise:
		return nil
	default:
		return fmt.Errorf("unknown experiment %q", string(e))
	}
}

// Recording is one subject's session of one experiment.
type Recording struct {
	Subject    int
	Experiment Experiment
	SampleRate float64
	Labels     []string    // Channel labels
	V          [][]float64 // Voltage, one slice of samples per channel
	Events     *Events
}

// Load reads a recording from an EDF file and its events file.
func Load(subject int, experiment Experiment, edfPath, eventsPath string) (*Recording, error) {
	if err := experiment.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(edfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	er, err := edf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", edfPath, err)
	}

	hdr := er.Header()
	rec := &Recording{
		Subject:    subject,
		Experiment: experiment,
		Labels:     make([]string, hdr.SignalCount),
		V:          make([][]float64, hdr.SignalCount),
	}
	for i, sig := range hdr.Signals {
		rate := hdr.SampleRate(i)
		if i == 0 {
			rec.SampleRate = rate
		} else if rate != rec.SampleRate {
			return nil, fmt.Errorf("%s: channel %q sampled at %g Hz, expected %g Hz", edfPath, sig.Label, rate, rec.SampleRate)
		}

		rec.Labels[i] = sig.Label
		if rec.V[i], err = er.ReadSignal(i); err != nil {
			return nil, fmt.Errorf("error reading channel %q: %w", sig.Label, err)
		}
	}

	if rec.Events, err = LoadEvents(eventsPath); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", edfPath, err)
	}

	return rec, nil
}

// Samples returns the number of samples per channel.
func (r *Recording) Samples() int {
	if len(r.V) == 0 {
		return 0
	}
	return len(r.V[0])
}

// Validate checks the recording against what its experiment needs. Trial
// windows themselves are checked when responses are extracted.
func (r *Recording) Validate() error {
	if err := r.Experiment.Validate(); err != nil {
		return err
	}
	if math.Abs(r.SampleRate-broadband.SampleRate) > 1e-9 {
		return fmt.Errorf("sample rate %g Hz, expected %d Hz", r.SampleRate, broadband.SampleRate)
	}
	for i, ch := range r.V {
		if len(ch) != r.Samples() {
			return fmt.Errorf("channel %d has %d samples, expected %d", i, len(ch), r.Samples())
		}
	}
	if r.Events == nil {
		return fmt.Errorf("no events")
	}

	switch r.Experiment {
	case FacesBasic:
		if r.Events.StimIDs == nil {
			return fmt.Errorf("%s events need a %s column", r.Experiment, ColStimID)
		}
	case FacesNoise:
		if r.Events.StimCats == nil || r.Events.KeyPresses == nil {
			return fmt.Errorf("%s events need %s and %s columns", r.Experiment, ColStimCat, ColKeyPress)
		}
	}
	return nil
}

// Channel returns the voltage trace of channel i.
func (r *Recording) Channel(i int) ([]float64, error) {
	if i < 0 || i >= len(r.V) {
		return nil, fmt.Errorf("channel %d out of range [0, %d)", i, len(r.V))
	}
	return r.V[i], nil
}

// StimulusResponses converts channel i to power and extracts one response
// per passive-viewing trial.
func (r *Recording) StimulusResponses(conv *broadband.Converter, i int) ([]broadband.PowerResponse, error) {
	if r.Experiment != FacesBasic {
		return nil, fmt.Errorf("stimulus responses need a %s recording, got %s", FacesBasic, r.Experiment)
	}
	power, err := r.power(conv, i)
	if err != nil {
		return nil, err
	}
	return broadband.ExtractStimulusResponses(power, r.Events.Onsets, r.Events.Offsets, r.Events.StimIDs)
}

// BehaviorResponses converts channel i to power and extracts one response
// per behavioral trial.
func (r *Recording) BehaviorResponses(conv *broadband.Converter, i int) ([]broadband.BehaviorResponse, error) {
	if r.Experiment != FacesNoise {
		return nil, fmt.Errorf("behavior responses need a %s recording, got %s", FacesNoise, r.Experiment)
	}
	power, err := r.power(conv, i)
	if err != nil {
		return nil, err
	}
	return broadband.ExtractBehaviorResponses(r.Subject, power,
		r.Events.Onsets, r.Events.Offsets, r.Events.KeyPresses, r.Events.StimCats)
}

func (r *Recording) power(conv *broadband.Converter, i int) ([]float64, error) {
	v, err := r.Channel(i)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		conv = broadband.DefaultConverter()
	}
	power, err := conv.Convert(v)
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w", i, err)
	}
	return power, nil
}
