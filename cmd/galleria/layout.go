/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"galleria/internal/domain"
	"galleria/internal/gallery"
)

func addLayout(topLevel *cobra.Command, a *app) {
	var (
		f      sessionFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "render the gallery headlessly and print the column layout",
		Example: `
galleria layout --width 1024
galleria layout --manifest public/gallery/gallery.json --fandom Zeta --sort oldest --fetch
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, closeKV, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer closeKV()
			s, err := a.startSession(cmd.Context(), f, kv)
			if err != nil {
				return err
			}
			if asJSON {
				return writeLayoutJSON(cmd.OutOrStdout(), s)
			}
			return writeLayoutTable(cmd.OutOrStdout(), s)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout as JSON")
	topLevel.AddCommand(cmd)
}

type layoutReport struct {
	Viewport int                 `json:"viewport_width"`
	State    domain.FilterState  `json:"state"`
	Count    string              `json:"count"`
	Layout   domain.ColumnLayout `json:"layout"`
	Files    map[int]string      `json:"files"`
}

func writeLayoutJSON(w io.Writer, s *gallery.Session) error {
	rep := layoutReport{
		Viewport: s.Doc.Viewport.Width,
		State:    s.State(),
		Count:    s.Doc.CountInfo,
		Layout:   s.Layout(),
		Files:    map[int]string{},
	}
	for _, r := range s.Visible() {
		rep.Files[r.Index] = r.Filename
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func writeLayoutTable(w io.Writer, s *gallery.Session) error {
	byIndex := map[int]domain.ImageRecord{}
	for _, r := range s.Visible() {
		byIndex[r.Index] = r
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COLUMN\tHEIGHT\tITEMS")
	for i, col := range s.Layout().Columns {
		names := make([]string, 0, len(col.Items))
		for _, idx := range col.Items {
			names = append(names, path.Base(byIndex[idx].Filename))
		}
		_, _ = fmt.Fprintf(tw, "%d\t%.2f\t%s\n", i+1, col.Height, strings.Join(names, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, s.Doc.CountInfo)
	return err
}
