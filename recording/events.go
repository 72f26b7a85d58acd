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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/OpenPSG/broadband"
)

// Column names of an events file.
const (
	ColOnset    = "t_on"
	ColOffset   = "t_off"
	ColStimID   = "stim_id"
	ColStimCat  = "stim_cat"
	ColKeyPress = "key_press"
)

// Events holds the per-trial arrays of one experiment, all indexed by trial.
// Sample indices refer to the recording's continuous traces.
type Events struct {
	Onsets     []int
	Offsets    []int
	StimIDs    []int // Passive viewing only
	StimCats   []int // Behavioral only
	KeyPresses []int // Behavioral only, broadband.NoKeyPress when absent
}

// Len returns the number of trials.
func (e *Events) Len() int {
	return len(e.Onsets)
}

// LoadEvents reads an events file from disk.
func LoadEvents(path string) (*Events, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := ReadEvents(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// ReadEvents parses a CSV events table. The first row names the columns;
// t_on and t_off are required, stim_id, stim_cat and key_press are read when
// present. An empty or "nan" key press means the subject did not respond.
func ReadEvents(r io.Reader) (*Events, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	cols := make(map[string]int)
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColOnset, ColOffset} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}

	events := &Events{}
	for i, record := range records[1:] {
		line := i + 2

		get := func(name string) (string, bool) {
			c, ok := cols[name]
			if !ok || c >= len(record) {
				return "", false
			}
			return strings.TrimSpace(record[c]), true
		}
		index := func(name string) (int, error) {
			s, _ := get(name)
			v, err := parseIndex(s)
			if err != nil {
				return 0, fmt.Errorf("line %d: invalid %s: %v", line, name, err)
			}
			return v, nil
		}

		onset, err := index(ColOnset)
		if err != nil {
			return nil, err
		}
		offset, err := index(ColOffset)
		if err != nil {
			return nil, err
		}
		events.Onsets = append(events.Onsets, onset)
		events.Offsets = append(events.Offsets, offset)

		if _, ok := cols[ColStimID]; ok {
			v, err := index(ColStimID)
			if err != nil {
				return nil, err
			}
			events.StimIDs = append(events.StimIDs, v)
		}
		if _, ok := cols[ColStimCat]; ok {
			v, err := index(ColStimCat)
			if err != nil {
				return nil, err
			}
			events.StimCats = append(events.StimCats, v)
		}
		if _, ok := cols[ColKeyPress]; ok {
			s, _ := get(ColKeyPress)
			press := broadband.NoKeyPress
			if s != "" && !strings.EqualFold(s, "nan") {
				if press, err = parseIndex(s); err != nil {
					return nil, fmt.Errorf("line %d: invalid %s: %v", line, ColKeyPress, err)
				}
			}
			events.KeyPresses = append(events.KeyPresses, press)
		}
	}

	return events, nil
}

// WriteEvents writes events as CSV with the columns that are populated.
func WriteEvents(w io.Writer, events *Events) error {
	type column struct {
		name   string
		values []int
	}
	all := []column{
		{ColOnset, events.Onsets},
		{ColOffset, events.Offsets},
		{ColStimID, events.StimIDs},
		{ColStimCat, events.StimCats},
		{ColKeyPress, events.KeyPresses},
	}

	var cols []column
	for _, c := range all {
		if c.values != nil {
			if len(c.values) != events.Len() {
				return fmt.Errorf("%s has %d values for %d trials", c.name, len(c.values), events.Len())
			}
			cols = append(cols, c)
		}
	}

	writer := csv.NewWriter(w)
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = c.name
	}
	if err := writer.Write(row); err != nil {
		return err
	}

	for t := 0; t < events.Len(); t++ {
		for i, c := range cols {
			v := c.values[t]
			if c.name == ColKeyPress && v == broadband.NoKeyPress {
				row[i] = "nan"
			} else {
				row[i] = strconv.Itoa(v)
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// parseIndex parses a sample index, accepting integral floats such as
// "1200.0" as exported by numerical tools.
func parseIndex(s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not a whole sample index", s)
	}
	return int(f), nil
}
