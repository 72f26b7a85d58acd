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
	"math/rand"

	"github.com/OpenPSG/broadband"
)

// SynthOptions describes a synthetic session.
type SynthOptions struct {
	Subject    int
	Experiment Experiment
	Channels   int
	Trials     int
	Seed       int64

	// Responsive is the channel whose broadband power rises during face
	// trials. Other channels carry noise only.
	Responsive int
}

// Synthesize builds a recording of Gaussian noise in which the responsive
// channel carries a high-frequency burst during each trial, three times
// stronger for faces than for houses. Trials last 400 ms with 600 ms gaps.
// In the behavioral paradigm the subject presses the key during face trials
// and misses one in five.
func Synthesize(opts SynthOptions) (*Recording, error) {
	if err := opts.Experiment.Validate(); err != nil {
		return nil, err
	}
	if opts.Channels < 1 || opts.Trials < 1 {
		return nil, fmt.Errorf("need at least one channel and one trial")
	}
	if opts.Responsive < 0 || opts.Responsive >= opts.Channels {
		return nil, fmt.Errorf("responsive channel %d out of range [0, %d)", opts.Responsive, opts.Channels)
	}

	const (
		lead     = 1000
		duration = 400
		gap      = 600
		burstHz  = 110
	)
	samples := lead + opts.Trials*(duration+gap)
	rng := rand.New(rand.NewSource(opts.Seed))

	rec := &Recording{
		Subject:    opts.Subject,
		Experiment: opts.Experiment,
		SampleRate: broadband.SampleRate,
		Labels:     make([]string, opts.Channels),
		V:          make([][]float64, opts.Channels),
		Events:     &Events{},
	}
	for c := range rec.V {
		rec.Labels[c] = fmt.Sprintf("ECoG %d", c+1)
		rec.V[c] = make([]float64, samples)
		for i := range rec.V[c] {
			rec.V[c][i] = 10 * rng.NormFloat64()
		}
	}

	ev := rec.Events
	for t := 0; t < opts.Trials; t++ {
		onset := lead + t*(duration+gap)
		offset := onset + duration
		face := rng.Intn(2) == 1

		ev.Onsets = append(ev.Onsets, onset)
		ev.Offsets = append(ev.Offsets, offset)
		switch opts.Experiment {
		case FacesBasic:
			id := 1 + rng.Intn(50)
			if face {
				id += 50
			}
			ev.StimIDs = append(ev.StimIDs, id)
		case FacesNoise:
			cat, press := 1, broadband.NoKeyPress
			if face {
				cat = 2
				if rng.Intn(5) != 0 {
					press = onset + 250 + rng.Intn(duration-250)
				}
			}
			ev.StimCats = append(ev.StimCats, cat)
			ev.KeyPresses = append(ev.KeyPresses, press)
		}

		amplitude := 10.0
		if face {
			amplitude = 30.0
		}
		v := rec.V[opts.Responsive]
		for i := onset + 100; i < offset-100; i++ {
			v[i] += amplitude * math.Sin(2*math.Pi*burstHz*float64(i)/broadband.SampleRate)
		}
	}

	return rec, nil
}
