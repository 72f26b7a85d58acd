// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/OpenPSG/broadband/recording"
)

// Manifest lists the recordings of a study.
//
//	workers: 4
//	subjects:
//	  - subject: 0
//	    experiment: faces_basic
//	    edf: sub0/faces_basic.edf
//	    events: sub0/faces_basic.csv
//	    channels: [45, 46]
type Manifest struct {
	Workers  int             `yaml:"workers"`
	Subjects []ManifestEntry `yaml:"subjects"`
}

// ManifestEntry is one subject's recording of one experiment.
type ManifestEntry struct {
	Subject    int                  `yaml:"subject"`
	Experiment recording.Experiment `yaml:"experiment"`
	EDF        string               `yaml:"edf"`
	Events     string               `yaml:"events"`
	Channels   []int                `yaml:"channels,omitempty"`
}

// LoadManifest reads a manifest. Relative paths inside it are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range m.Subjects {
		e := &m.Subjects[i]
		if err := e.Experiment.Validate(); err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i, err)
		}
		if e.EDF == "" || e.Events == "" {
			return nil, fmt.Errorf("manifest entry %d: edf and events are required", i)
		}
		if !filepath.IsAbs(e.EDF) {
			e.EDF = filepath.Join(dir, e.EDF)
		}
		if !filepath.IsAbs(e.Events) {
			e.Events = filepath.Join(dir, e.Events)
		}
	}

	return &m, nil
}

// Jobs returns one job per manifest entry, in manifest order.
func (m *Manifest) Jobs() []Job {
	jobs := make([]Job, len(m.Subjects))
	for i, e := range m.Subjects {
		jobs[i] = Job{
			Subject:    e.Subject,
			Experiment: e.Experiment,
			EDF:        e.EDF,
			Events:     e.Events,
			Channels:   e.Channels,
		}
	}
	return jobs
}
