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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"galleria/internal/accent"
	"galleria/internal/domain"
	"galleria/internal/export"
	"galleria/internal/gallery"
	applog "galleria/internal/log"
	"galleria/internal/masonry"
)

// accentWorkers bounds concurrent accent sampling requests.
const accentWorkers = 4

func addExport(topLevel *cobra.Command, a *app) {
	var (
		f       sessionFlags
		out     string
		format  string
		preset  string
		labels  bool
		accents bool
		title   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "render the current layout as a contact sheet",
		Example: `
galleria export --out sheet.pdf
galleria export --out sheets/ --format png --preset screen --accent --fetch
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			kv, closeKV, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer closeKV()
			s, err := a.startSession(cmd.Context(), f, kv)
			if err != nil {
				return err
			}
			sheet := sheetFor(s, title)
			if accents {
				sampleAccents(cmd.Context(), sheet, s.Visible(), accent.HTTPSampler{})
			}
			switch strings.ToLower(format) {
			case "", "pdf":
				if err := export.ContactSheetPDF(sheet, out, export.PDFOptions{Preset: export.PresetName(preset), IncludeLabels: labels}); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Wrote", out)
				return err
			case "png":
				paths, err := export.ContactSheetPNGPages(sheet, out, export.PNGOptions{Preset: export.PresetName(preset), IncludeLabels: labels})
				if err != nil {
					return err
				}
				for _, p := range paths {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), "Wrote", filepath.Clean(p)); err != nil {
						return err
					}
				}
				return nil
			default:
				return fmt.Errorf("unknown format: %s", format)
			}
		},
	}
	f.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&out, "out", "", "output file (pdf) or directory (png)")
	fl.StringVar(&format, "format", "pdf", "pdf or png")
	fl.StringVar(&preset, "preset", string(export.PresetA4), "page preset: a4, letter or screen")
	fl.BoolVar(&labels, "labels", true, "print file names on the cells")
	fl.BoolVar(&accents, "accent", false, "sample each image's dominant colour as its fill")
	fl.StringVar(&title, "title", "", "heading printed on every page")
	topLevel.AddCommand(cmd)
}

// sheetFor copies the rendered layout and the known aspect ratios.
func sheetFor(s *gallery.Session, title string) export.Sheet {
	sheet := export.NewSheet(title, s.Layout(), s.Visible(), len(s.Master()))
	for _, r := range s.Visible() {
		if img := s.Image(r.Index); img != nil {
			sheet.Ratios[r.Index] = masonry.AspectRatio(img)
		}
	}
	return sheet
}

// sampleAccents fills sheet.Accents; a failed sample keeps the neutral fill.
func sampleAccents(ctx context.Context, sheet export.Sheet, recs []domain.ImageRecord, sampler accent.Sampler) {
	l := applog.WithOperation(applog.WithComponent("cli"), "accent")
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(accentWorkers)
	for _, r := range recs {
		g.Go(func() error {
			c, err := sampler.Sample(gctx, r.Primary.Load())
			if err != nil {
				l.Warn("background color extraction failed", slog.String("file", r.Filename), slog.Any("err", err))
				return nil
			}
			mu.Lock()
			sheet.Accents[r.Index] = c
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}
