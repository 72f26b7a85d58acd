// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package broadband extracts trial-aligned broadband power features from
// intracranial voltage recordings.
//
// A channel's voltage trace is turned into a normalized power envelope by a
// Converter, then cut into stimulus-locked trials by ExtractStimulusResponses
// (passive viewing) or ExtractBehaviorResponses (noisy images with a button
// press). Each trial is reduced to the peak power inside its window.
package broadband

import "fmt"

// SampleRate is the sampling rate, in Hz, of every recording handled here.
const SampleRate = 1000

// Category is the stimulus category shown during a trial.
type Category int

const (
	House Category = iota
	Face
)

func (c Category) String() string {
	switch c {
	case House:
		return "house"
	case Face:
		return "face"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	switch c {
	case House, Face:
		return []byte(c.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	switch string(b) {
	case "house":
		*c = House
	case "face":
		*c = Face
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(b))
	}
	return nil
}

// PowerResponse is the peak normalized power of one passive-viewing trial.
type PowerResponse struct {
	Category Category `json:"category" yaml:"category"`
	Power    float64  `json:"power" yaml:"power"`
}

// BehaviorResponse is the peak normalized power of one behavioral trial,
// together with whether the subject reported seeing a face.
type BehaviorResponse struct {
	Subject       int      `json:"subject" yaml:"subject"`
	Category      Category `json:"category" yaml:"category"`
	Power         float64  `json:"power" yaml:"power"`
	PerceivedFace bool     `json:"perceived_face" yaml:"perceived_face"`
}

// NoKeyPress marks a behavioral trial in which the subject never pressed the
// response key.
const NoKeyPress = -1
