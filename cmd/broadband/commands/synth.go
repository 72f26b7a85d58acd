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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/OpenPSG/broadband/recording"
)

func newSynthCmd() *cobra.Command {
	var (
		opts       recording.SynthOptions
		experiment string
		edfPath    string
		eventsPath string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic recording and its events",
		Long: `Write a synthetic recording of Gaussian noise in which one channel responds
to every trial with a high-frequency burst, stronger for faces than houses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Experiment = recording.Experiment(experiment)
			rec, err := recording.Synthesize(opts)
			if err != nil {
				return err
			}
			if err := rec.Save(edfPath, eventsPath); err != nil {
				return err
			}
			slog.Info("wrote synthetic recording", "edf", edfPath, "events", eventsPath,
				"channels", len(rec.V), "trials", rec.Events.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&experiment, "experiment", string(recording.FacesBasic), "experiment (faces_basic, faces_noise)")
	cmd.Flags().IntVar(&opts.Subject, "subject", 0, "subject identifier")
	cmd.Flags().IntVar(&opts.Channels, "channels", 4, "number of channels")
	cmd.Flags().IntVar(&opts.Trials, "trials", 50, "number of trials")
	cmd.Flags().IntVar(&opts.Responsive, "responsive", 0, "channel that responds to the stimuli")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&edfPath, "edf", "", "EDF file to write")
	cmd.Flags().StringVar(&eventsPath, "events", "", "CSV events file to write")
	_ = cmd.MarkFlagRequired("edf")
	_ = cmd.MarkFlagRequired("events")

	return cmd
}
