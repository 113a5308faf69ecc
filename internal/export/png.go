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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PNGOptions controls raster export.
// DPI defaults to 96; IncludeLabels draws file names with the fixed 7x13 face.
type PNGOptions struct {
	Preset        PresetName
	DPI           int
	IncludeLabels bool
}

// ContactSheetPNGPages writes one PNG per page as sheet-<n>.png into outDir
// and returns the written paths.
func ContactSheetPNGPages(s Sheet, outDir string, opt PNGOptions) ([]string, error) {
	g, err := Preset(opt.Preset)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	pages := Paginate(s, g)
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		img := RasterPage(s, g, p, len(pages), opt)
		name := filepath.Join(outDir, fmt.Sprintf("sheet-%d.png", p.Number))
		f, err := os.Create(name)
		if err != nil {
			return out, fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return out, fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return out, fmt.Errorf("close png: %w", err)
		}
		out = append(out, name)
	}
	return out, nil
}

// RasterPage draws one page; cells are filled with their accent and outlined.
func RasterPage(s Sheet, g Geometry, p Page, pages int, opt PNGOptions) *image.RGBA {
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 96
	}
	scale := float64(dpi) / 72.0
	px := func(v float64) int { return int(math.Round(v * scale)) }

	img := image.NewRGBA(image.Rect(0, 0, px(g.Width), px(g.Height)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	black := color.RGBA{A: 255}
	drawText(img, px(g.Margin), px(g.Margin+g.Header*0.6), s.heading(p, pages), black)

	edge := color.RGBA{R: 120, G: 120, B: 120, A: 255}
	for _, c := range p.Cells {
		x0, y0 := px(c.X), px(c.Y)
		x1, y1 := px(c.X+c.W)-1, px(c.Y+c.H)-1
		fillRect(img, x0, y0, x1, y1, c.Fill)
		strokeRect(img, x0, y0, x1, y1, edge)
		if opt.IncludeLabels {
			ink := black
			if darkFill(c.Fill) {
				ink = color.RGBA{255, 255, 255, 255}
			}
			maxChars := (x1 - x0 - 4) / basicfont.Face7x13.Advance
			drawText(img, x0+3, y1-3, clip(c.Label, maxChars), ink)
		}
	}
	return img
}

func drawText(img *image.RGBA, x, y int, s string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func clip(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n <= 2 {
		return string(r[:n])
	}
	return string(r[:n-2]) + ".."
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	draw.Draw(img, image.Rect(x0, y0, x1+1, y1+1), &image.Uniform{C: col}, image.Point{}, draw.Src)
}
