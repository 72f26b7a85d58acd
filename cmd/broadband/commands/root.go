// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package commands implements the broadband command tree.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	verbose bool
	format  string
	output  string
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "broadband",
		Short: "Trial-aligned broadband power features from ECoG recordings",
		Long: `broadband - extract per-trial broadband power from intracranial recordings.

Each channel is high-passed at 50 Hz, squared, low-passed at 10 Hz and
divided by its mean. Every trial is then reduced to its peak power and
labelled face or house; behavioral recordings also report whether the
subject pressed the key during the trial.

Recordings are EDF files with a CSV events file alongside (columns t_on,
t_off, stim_id for faces_basic; t_on, t_off, stim_cat, key_press for
faces_noise).

Examples:
  # Write a synthetic passive-viewing recording and extract channel 0
  broadband synth --experiment faces_basic --edf s1.edf --events s1.csv
  broadband stimulus --subject 1 --edf s1.edf --events s1.csv --channel 0

  # Process a whole study as JSON
  broadband run study.yaml --format json -o features.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&g.format, "format", string(FormatYAML), "output format (yaml, json, csv)")
	cmd.PersistentFlags().StringVarP(&g.output, "output", "o", "", "output file (default: stdout)")

	cmd.AddCommand(
		newStimulusCmd(g),
		newBehaviorCmd(g),
		newRunCmd(g),
		newSynthCmd(),
		newVersionCmd(g),
	)
	return cmd
}
