// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package pipeline runs feature extraction over many subjects and channels
// and concatenates the results.
//
// Every job is independent. A job that fails is recorded in the result and
// does not affect the records of other jobs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OpenPSG/broadband"
	"github.com/OpenPSG/broadband/recording"
)

// Job extracts responses from some channels of one subject's recording.
type Job struct {
	Subject    int
	Experiment recording.Experiment
	EDF        string // Path of the EDF file, used when Recording is nil
	Events     string // Path of the events file, used when Recording is nil
	Channels   []int  // Channels to process; all channels when empty

	Recording *recording.Recording
}

// StimulusRecord is a passive-viewing response tagged with its origin.
type StimulusRecord struct {
	Subject                 int `json:"subject" yaml:"subject"`
	Channel                 int `json:"channel" yaml:"channel"`
	broadband.PowerResponse `yaml:",inline"`
}

// BehaviorRecord is a behavioral response tagged with its channel.
type BehaviorRecord struct {
	Channel                    int `json:"channel" yaml:"channel"`
	broadband.BehaviorResponse `yaml:",inline"`
}

// Failure describes a job, or one channel of a job, that produced no records.
type Failure struct {
	Subject int
	Channel int // -1 when the recording itself could not be loaded
	Err     error
}

func (f Failure) Error() string {
	if f.Channel < 0 {
		return fmt.Sprintf("subject %d: %v", f.Subject, f.Err)
	}
	return fmt.Sprintf("subject %d channel %d: %v", f.Subject, f.Channel, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result holds the records of one or more jobs in job and channel order.
type Result struct {
	Stimulus []StimulusRecord `json:"stimulus,omitempty" yaml:"stimulus,omitempty"`
	Behavior []BehaviorRecord `json:"behavior,omitempty" yaml:"behavior,omitempty"`
	Failures []Failure        `json:"-" yaml:"-"`
}

// Err joins every failure, or returns nil when all jobs succeeded.
func (r *Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Concat appends results in order.
func Concat(results ...*Result) *Result {
	out := &Result{}
	for _, r := range results {
		if r == nil {
			continue
		}
		out.Stimulus = append(out.Stimulus, r.Stimulus...)
		out.Behavior = append(out.Behavior, r.Behavior...)
		out.Failures = append(out.Failures, r.Failures...)
	}
	return out
}

// Options configures Run.
type Options struct {
	// Workers is the number of jobs processed at once. Defaults to 1.
	Workers int
	// Converter turns voltage into power. Defaults to broadband.DefaultConverter.
	Converter *broadband.Converter
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Run processes jobs and concatenates their records in job order, whatever
// the number of workers. It returns an error only when ctx ends before every
// job was started; failures of individual jobs are reported in Result.
func Run(ctx context.Context, jobs []Job, opts Options) (*Result, error) {
	workers := max(opts.Workers, 1)
	if opts.Converter == nil {
		opts.Converter = broadband.DefaultConverter()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	results := make([]*Result, len(jobs))
	next := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(workers, len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				results[i] = runJob(jobs[i], opts)
			}
		}()
	}

	var err error
feed:
	for i := range jobs {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case next <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(next)
	wg.Wait()

	return Concat(results...), err
}

func runJob(job Job, opts Options) *Result {
	log := opts.Logger.With("subject", job.Subject, "experiment", job.Experiment)
	start := time.Now()

	rec := job.Recording
	if rec == nil {
		var err error
		rec, err = recording.Load(job.Subject, job.Experiment, job.EDF, job.Events)
		if err != nil {
			log.Error("failed to load recording", "edf", job.EDF, "events", job.Events, "error", err)
			return &Result{Failures: []Failure{{Subject: job.Subject, Channel: -1, Err: err}}}
		}
	}

	channels := job.Channels
	if len(channels) == 0 {
		channels = make([]int, len(rec.V))
		for i := range channels {
			channels[i] = i
		}
	}

	res := &Result{}
	for _, ch := range channels {
		var n int
		var err error
		switch rec.Experiment {
		case recording.FacesBasic:
			var responses []broadband.PowerResponse
			responses, err = rec.StimulusResponses(opts.Converter, ch)
			for _, r := range responses {
				res.Stimulus = append(res.Stimulus, StimulusRecord{Subject: rec.Subject, Channel: ch, PowerResponse: r})
			}
			n = len(responses)
		case recording.FacesNoise:
			var responses []broadband.BehaviorResponse
			responses, err = rec.BehaviorResponses(opts.Converter, ch)
			for _, r := range responses {
				res.Behavior = append(res.Behavior, BehaviorRecord{Channel: ch, BehaviorResponse: r})
			}
			n = len(responses)
		default:
			err = rec.Experiment.Validate()
		}

		if err != nil {
			log.Warn("channel failed", "channel", ch, "error", err)
			res.Failures = append(res.Failures, Failure{Subject: rec.Subject, Channel: ch, Err: err})
			continue
		}
		log.Debug("channel processed", "channel", ch, "trials", n)
	}

	log.Info("subject processed", "channels", len(channels), "failures", len(res.Failures), "elapsed", time.Since(start))
	return res
}
