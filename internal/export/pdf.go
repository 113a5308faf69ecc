/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/lucasb-eyer/go-colorful"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). Built-in Helvetica keeps the text vector without embedding.
type PDFOptions struct {
	Preset        PresetName
	IncludeLabels bool
	Stroke        color.RGBA
}

// ContactSheetPDF writes the sheet to outPath, creating the parent directory.
func ContactSheetPDF(s Sheet, outPath string, opt PDFOptions) error {
	if outPath == "" {
		return fmt.Errorf("output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	pdf, err := buildPDF(s, opt)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// WriteContactSheetPDF streams the sheet to w.
func WriteContactSheetPDF(w io.Writer, s Sheet, opt PDFOptions) error {
	pdf, err := buildPDF(s, opt)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func buildPDF(s Sheet, opt PDFOptions) (*gofpdf.Fpdf, error) {
	g, err := Preset(opt.Preset)
	if err != nil {
		return nil, err
	}
	stroke := opt.Stroke
	if stroke == (color.RGBA{}) {
		stroke = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: g.Width, Ht: g.Height},
	})
	pdf.SetTitle(s.headingTitle(), true)
	pdf.SetAuthor("Galleria", false)
	pdf.SetAutoPageBreak(false, 0)

	pages := Paginate(s, g)
	for _, p := range pages {
		pdf.AddPage()
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Text(g.Margin, g.Margin+g.Header*0.6, s.heading(p, len(pages)))

		pdf.SetLineWidth(0.5)
		pdf.SetDrawColor(int(stroke.R), int(stroke.G), int(stroke.B))
		for _, c := range p.Cells {
			pdf.SetFillColor(int(c.Fill.R), int(c.Fill.G), int(c.Fill.B))
			pdf.Rect(c.X, c.Y, c.W, c.H, "FD")
			if !opt.IncludeLabels {
				continue
			}
			pdf.SetFont("Helvetica", "", 7)
			if darkFill(c.Fill) {
				pdf.SetTextColor(255, 255, 255)
			} else {
				pdf.SetTextColor(0, 0, 0)
			}
			pdf.Text(c.X+3, c.Y+c.H-4, fit(pdf, c.Label, c.W-6))
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

func (s Sheet) headingTitle() string {
	if s.Title == "" {
		return "Galleria contact sheet"
	}
	return s.Title
}

// fit shortens text until it fits width, marking the cut with "..".
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if width <= 0 {
		return ""
	}
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	r := []rune(text)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"..") > width {
		r = r[:len(r)-1]
	}
	if len(r) == 0 {
		return ""
	}
	return string(r) + ".."
}

// darkFill reports whether labels on c read better in white.
func darkFill(c color.RGBA) bool {
	cc, _ := colorful.MakeColor(c)
	l, _, _ := cc.Lab()
	return l < 0.55
}
