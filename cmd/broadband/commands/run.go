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
	"github.com/spf13/cobra"

	"github.com/OpenPSG/broadband/pipeline"
)

func newRunCmd(g *globals) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "run <manifest.yaml>",
		Short: "Process every recording listed in a manifest",
		Long: `Process every recording listed in a YAML manifest and concatenate the
responses in manifest order.

Manifest format:

  workers: 4
  subjects:
    - subject: 0
      experiment: faces_basic
      edf: sub0/faces_basic.edf
      events: sub0/faces_basic.csv
      channels: [45, 46]

Paths are relative to the manifest. A subject that fails is reported and does
not prevent the others from being written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := pipeline.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				m.Workers = workers
			}
			return runJobs(cmd, g, m.Jobs(), m.Workers)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 1, "recordings processed at once (overrides the manifest)")

	return cmd
}
