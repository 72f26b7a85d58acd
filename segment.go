// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package broadband

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// PreStimulusLead is the number of samples before a passive-viewing trial's
// onset included in its analysis window.
const PreStimulusLead = 200

// Stimulus ids of the passive-viewing protocol: houses first, then faces.
const (
	firstHouseID = 1
	lastHouseID  = 50
	lastFaceID   = 100
)

// faceCategoryCode is the stim_cat value of face trials in the behavioral
// protocol.
const faceCategoryCode = 2

// StimulusCategory maps a passive-viewing stimulus id to its category: ids
// 1-50 are houses and 51-100 faces. Ids outside 1-100, such as 0 or 101, are
// not part of the protocol and return ErrInvalidCategory rather than Face.
func StimulusCategory(stimID int) (Category, error) {
	switch {
	case stimID >= firstHouseID && stimID <= lastHouseID:
		return House, nil
	case stimID > lastHouseID && stimID <= lastFaceID:
		return Face, nil
	default:
		return 0, fmt.Errorf("%w: stimulus id %d outside [%d, %d]", ErrInvalidCategory, stimID, firstHouseID, lastFaceID)
	}
}

// BehaviorCategory maps a behavioral-protocol category code to its category.
// Every code other than the face code is a house.
func BehaviorCategory(stimCat int) Category {
	if stimCat == faceCategoryCode {
		return Face
	}
	return House
}

// PerceivedFace reports whether keyPress falls within [onset, offset].
func PerceivedFace(onset, offset, keyPress int) bool {
	if keyPress == NoKeyPress {
		return false
	}
	return onset <= keyPress && keyPress <= offset
}

// ExtractStimulusResponses reduces each passive-viewing trial to the peak of
// power over [onset-PreStimulusLead, offset). Windows starting before the
// trace are clamped to its first sample.
func ExtractStimulusResponses(power []float64, onsets, offsets, stimIDs []int) ([]PowerResponse, error) {
	if err := sameLength(len(onsets), column{"offsets", len(offsets)}, column{"stimulus ids", len(stimIDs)}); err != nil {
		return nil, err
	}

	responses := make([]PowerResponse, len(onsets))
	for i := range onsets {
		if err := checkWindow(i, onsets[i], offsets[i], len(power)); err != nil {
			return nil, err
		}

		category, err := StimulusCategory(stimIDs[i])
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}

		start := max(onsets[i]-PreStimulusLead, 0)
		responses[i] = PowerResponse{
			Category: category,
			Power:    floats.Max(power[start:offsets[i]]),
		}
	}

	return responses, nil
}

// ExtractBehaviorResponses reduces each behavioral trial to the peak of power
// over [onset, offset) and records whether the subject's key press fell
// inside the trial.
func ExtractBehaviorResponses(subject int, power []float64, onsets, offsets, keyPresses, stimCats []int) ([]BehaviorResponse, error) {
	if err := sameLength(len(onsets),
		column{"offsets", len(offsets)},
		column{"key presses", len(keyPresses)},
		column{"stimulus categories", len(stimCats)},
	); err != nil {
		return nil, err
	}

	responses := make([]BehaviorResponse, len(onsets))
	for i := range onsets {
		if err := checkWindow(i, onsets[i], offsets[i], len(power)); err != nil {
			return nil, err
		}

		responses[i] = BehaviorResponse{
			Subject:       subject,
			Category:      BehaviorCategory(stimCats[i]),
			Power:         floats.Max(power[onsets[i]:offsets[i]]),
			PerceivedFace: PerceivedFace(onsets[i], offsets[i], keyPresses[i]),
		}
	}

	return responses, nil
}

// checkWindow validates the nominal window [onset, offset) of trial i.
func checkWindow(i, onset, offset, n int) error {
	if offset <= onset {
		return fmt.Errorf("%w: trial %d offset %d not after onset %d", ErrInvalidTrial, i, offset, onset)
	}
	if onset < 0 || offset > n {
		return fmt.Errorf("%w: trial %d window [%d, %d) outside trace of %d samples", ErrInvalidTrial, i, onset, offset, n)
	}
	return nil
}

type column struct {
	name string
	len  int
}

// sameLength checks that every per-trial array has one entry per onset.
func sameLength(onsets int, cols ...column) error {
	for _, c := range cols {
		if c.len != onsets {
			return fmt.Errorf("%w: %d onsets but %d %s", ErrInvalidTrial, onsets, c.len, c.name)
		}
	}
	return nil
}
