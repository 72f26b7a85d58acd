// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/broadband"
	"github.com/OpenPSG/broadband/pipeline"
	"github.com/OpenPSG/broadband/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func synthesize(t *testing.T, subject int, experiment recording.Experiment) *recording.Recording {
	t.Helper()

	rec, err := recording.Synthesize(recording.SynthOptions{
		Subject:    subject,
		Experiment: experiment,
		Channels:   2,
		Trials:     8,
		Seed:       int64(subject),
	})
	require.NoError(t, err)
	return rec
}

func TestRunConcatenatesInJobOrder(t *testing.T) {
	var jobs []pipeline.Job
	for s := 0; s < 5; s++ {
		jobs = append(jobs, pipeline.Job{Subject: s, Recording: synthesize(t, s, recording.FacesBasic)})
	}
	for s := 5; s < 8; s++ {
		jobs = append(jobs, pipeline.Job{Subject: s, Recording: synthesize(t, s, recording.FacesNoise)})
	}

	opts := pipeline.Options{Logger: quietLogger()}

	var perSubject []*pipeline.Result
	for _, job := range jobs {
		res, err := pipeline.Run(context.Background(), []pipeline.Job{job}, opts)
		require.NoError(t, err)
		require.NoError(t, res.Err())
		perSubject = append(perSubject, res)
	}

	opts.Workers = 3
	all, err := pipeline.Run(context.Background(), jobs, opts)
	require.NoError(t, err)
	require.NoError(t, all.Err())

	want := pipeline.Concat(perSubject...)
	assert.Equal(t, want.Stimulus, all.Stimulus)
	assert.Equal(t, want.Behavior, all.Behavior)

	assert.Len(t, all.Stimulus, 5*2*8)
	assert.Len(t, all.Behavior, 3*2*8)
	assert.Equal(t, 0, all.Stimulus[0].Subject)
	assert.Equal(t, 1, all.Stimulus[8].Channel)
	assert.Equal(t, 4, all.Stimulus[len(all.Stimulus)-1].Subject)
	assert.Equal(t, 7, all.Behavior[len(all.Behavior)-1].Subject)
}

func TestRunIsolatesFailures(t *testing.T) {
	good := synthesize(t, 1, recording.FacesBasic)

	broken := synthesize(t, 2, recording.FacesBasic)
	broken.Events.StimIDs[3] = 250

	jobs := []pipeline.Job{
		{Subject: 0, Experiment: recording.FacesBasic, EDF: "missing.edf", Events: "missing.csv"},
		{Subject: 1, Recording: good, Channels: []int{0, 5}},
		{Subject: 2, Recording: broken},
	}

	res, err := pipeline.Run(context.Background(), jobs, pipeline.Options{Workers: 2, Logger: quietLogger()})
	require.NoError(t, err)

	require.Len(t, res.Failures, 4)
	assert.Equal(t, 0, res.Failures[0].Subject)
	assert.Equal(t, -1, res.Failures[0].Channel)
	assert.Equal(t, 1, res.Failures[1].Subject)
	assert.Equal(t, 5, res.Failures[1].Channel)
	assert.Equal(t, 2, res.Failures[2].Subject)
	assert.ErrorIs(t, res.Failures[2], broadband.ErrInvalidCategory)
	assert.ErrorIs(t, res.Err(), broadband.ErrInvalidCategory)

	// Channel 0 of the good subject still produced its records.
	require.Len(t, res.Stimulus, 8)
	for _, r := range res.Stimulus {
		assert.Equal(t, 1, r.Subject)
		assert.Equal(t, 0, r.Channel)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := pipeline.Run(ctx, []pipeline.Job{{Subject: 1, Recording: synthesize(t, 1, recording.FacesBasic)}}, pipeline.Options{Logger: quietLogger()})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Stimulus)
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "data"), 0o755))

	basic := synthesize(t, 3, recording.FacesBasic)
	require.NoError(t, basic.Save(filepath.Join(dir, "data", "s3.edf"), filepath.Join(dir, "data", "s3.csv")))
	noise := synthesize(t, 4, recording.FacesNoise)
	require.NoError(t, noise.Save(filepath.Join(dir, "data", "s4.edf"), filepath.Join(dir, "data", "s4.csv")))

	manifest := `workers: 2
subjects:
  - subject: 3
    experiment: faces_basic
    edf: data/s3.edf
    events: data/s3.csv
    channels: [1]
  - subject: 4
    experiment: faces_noise
    edf: data/s4.edf
    events: data/s4.csv
`
	path := filepath.Join(dir, "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	m, err := pipeline.LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Workers)
	require.Len(t, m.Subjects, 2)
	assert.Equal(t, filepath.Join(dir, "data", "s3.edf"), m.Subjects[0].EDF)
	assert.Equal(t, []int{1}, m.Subjects[0].Channels)

	res, err := pipeline.Run(context.Background(), m.Jobs(), pipeline.Options{Workers: m.Workers, Logger: quietLogger()})
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Len(t, res.Stimulus, 8)
	assert.Len(t, res.Behavior, 2*8)
	for _, r := range res.Behavior {
		assert.Equal(t, 4, r.Subject)
	}
}

func TestManifestInvalid(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{
		"experiment": "subjects:\n  - subject: 1\n    experiment: faces_motion\n    edf: a.edf\n    events: a.csv\n",
		"paths":      "subjects:\n  - subject: 1\n    experiment: faces_basic\n",
		"yaml":       "subjects: [\n",
	} {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := pipeline.LoadManifest(path)
		assert.Error(t, err, name)
	}

	_, err := pipeline.LoadManifest(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestRunIsolatesCorruptRecording(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good")
	require.NoError(t, synthesize(t, 1, recording.FacesBasic).Save(good+".edf", good+".csv"))

	bad := filepath.Join(dir, "bad")
	require.NoError(t, synthesize(t, 2, recording.FacesBasic).Save(bad+".edf", bad+".csv"))
	data, err := os.ReadFile(bad + ".edf")
	require.NoError(t, err)
	// Samples per record of the first of two signals.
	copy(data[256+2*216:], "-1      ")
	require.NoError(t, os.WriteFile(bad+".edf", data, 0o644))

	jobs := []pipeline.Job{
		{Subject: 2, Experiment: recording.FacesBasic, EDF: bad + ".edf", Events: bad + ".csv"},
		{Subject: 1, Experiment: recording.FacesBasic, EDF: good + ".edf", Events: good + ".csv"},
	}
	res, err := pipeline.Run(context.Background(), jobs, pipeline.Options{Workers: 2, Logger: quietLogger()})
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Subject)
	assert.Equal(t, -1, res.Failures[0].Channel)

	require.Len(t, res.Stimulus, 2*8)
	for _, r := range res.Stimulus {
		assert.Equal(t, 1, r.Subject)
	}
}
