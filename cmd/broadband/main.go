// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Command broadband extracts per-trial broadband power from ECoG recordings.
//
// Usage:
//
//	broadband [flags] <command> [args]
//
// Commands:
//
//	stimulus  - Passive-viewing responses of one recording
//	behavior  - Behavioral responses of one recording
//	run       - Every recording listed in a YAML manifest
//	synth     - Write a synthetic recording
//	version   - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/OpenPSG/broadband/cmd/broadband/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
