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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/OpenPSG/broadband/pipeline"
	"github.com/OpenPSG/broadband/recording"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatYAML outputs as YAML (default)
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatCSV outputs one row per response
	FormatCSV OutputFormat = "csv"
)

// writeResult writes the records of res to path, or to stdout when path is
// empty.
func writeResult(stdout io.Writer, res *pipeline.Result, format OutputFormat, path string) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case FormatYAML, "":
		data, err := yaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatCSV:
		return writeCSV(w, res)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeCSV(w io.Writer, res *pipeline.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"experiment", "subject", "channel", "category", "power", "perceived_face"}); err != nil {
		return err
	}

	power := func(p float64) string {
		return strconv.FormatFloat(p, 'g', -1, 64)
	}
	for _, r := range res.Stimulus {
		if err := writer.Write([]string{
			string(recording.FacesBasic),
			strconv.Itoa(r.Subject),
			strconv.Itoa(r.Channel),
			r.Category.String(),
			power(r.Power),
			"",
		}); err != nil {
			return err
		}
	}
	for _, r := range res.Behavior {
		if err := writer.Write([]string{
			string(recording.FacesNoise),
			strconv.Itoa(r.Subject),
			strconv.Itoa(r.Channel),
			r.Category.String(),
			power(r.Power),
			strconv.FormatBool(r.PerceivedFace),
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
