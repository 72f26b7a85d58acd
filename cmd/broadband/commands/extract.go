// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/OpenPSG/broadband/pipeline"
	"github.com/OpenPSG/broadband/recording"
)

type extractFlags struct {
	subject  int
	edf      string
	events   string
	channels []int
}

func newStimulusCmd(g *globals) *cobra.Command {
	return newExtractCmd(g, recording.FacesBasic, &cobra.Command{
		Use:   "stimulus",
		Short: "Extract passive-viewing responses (faces_basic)",
		Long: `Extract one peak-power response per trial of a passive-viewing recording.

The analysis window of each trial starts 200 ms before its onset and ends at
its offset. Stimulus ids 1-50 are houses, 51-100 faces.`,
	})
}

func newBehaviorCmd(g *globals) *cobra.Command {
	return newExtractCmd(g, recording.FacesNoise, &cobra.Command{
		Use:   "behavior",
		Short: "Extract behavioral responses (faces_noise)",
		Long: `Extract one peak-power response per trial of a behavioral recording.

The analysis window of each trial runs from its onset to its offset. Category
code 2 is a face, anything else a house. A trial counts as perceived as a face
when the key press lies within [onset, offset].`,
	})
}

func newExtractCmd(g *globals, experiment recording.Experiment, cmd *cobra.Command) *cobra.Command {
	f := &extractFlags{}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		job := pipeline.Job{
			Subject:    f.subject,
			Experiment: experiment,
			EDF:        f.edf,
			Events:     f.events,
			Channels:   f.channels,
		}
		return runJobs(cmd, g, []pipeline.Job{job}, 1)
	}

	cmd.Flags().IntVar(&f.subject, "subject", 0, "subject identifier")
	cmd.Flags().StringVar(&f.edf, "edf", "", "EDF recording")
	cmd.Flags().StringVar(&f.events, "events", "", "CSV events file")
	cmd.Flags().IntSliceVar(&f.channels, "channel", nil, "channel index to process, repeatable (default: all)")
	_ = cmd.MarkFlagRequired("edf")
	_ = cmd.MarkFlagRequired("events")

	return cmd
}

// runJobs runs the pipeline and writes whatever records it produced. Failed
// jobs turn into the command's error after the output is written.
func runJobs(cmd *cobra.Command, g *globals, jobs []pipeline.Job, workers int) error {
	res, err := pipeline.Run(cmd.Context(), jobs, pipeline.Options{
		Workers: workers,
		Logger:  slog.Default(),
	})
	if err != nil {
		return err
	}

	if err := writeResult(cmd.OutOrStdout(), res, OutputFormat(g.format), g.output); err != nil {
		return err
	}

	if len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d jobs had failures:\n%w", countJobs(res.Failures), len(jobs), res.Err())
	}
	return nil
}

func countJobs(failures []pipeline.Failure) int {
	subjects := make(map[int]struct{})
	for _, f := range failures {
		subjects[f.Subject] = struct{}{}
	}
	return len(subjects)
}
