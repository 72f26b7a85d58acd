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
	"runtime"

	"github.com/spf13/cobra"

	"github.com/OpenPSG/broadband/cmd/broadband/internal/build"
)

func newVersionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.String())
			if g.verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "  go: %s\n", runtime.Version())
			}
		},
	}
}
