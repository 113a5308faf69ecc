/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders a masonry column layout as a printable contact sheet.
package export

import (
	"fmt"
	"image/color"
	"path"

	"galleria/internal/domain"
)

// Sheet is the input of a contact sheet: the layout plus what is known about each placed record.
type Sheet struct {
	Title   string
	Total   int
	Layout  domain.ColumnLayout
	Records map[int]domain.ImageRecord
	// Ratios holds height/width per record index; missing entries count as square.
	Ratios map[int]float64
	// Accents holds extracted dominant colours; missing entries use the neutral fill.
	Accents map[int]color.RGBA
}

// NewSheet indexes recs by their record index.
func NewSheet(title string, layout domain.ColumnLayout, recs []domain.ImageRecord, total int) Sheet {
	s := Sheet{
		Title:   title,
		Total:   total,
		Layout:  layout,
		Records: make(map[int]domain.ImageRecord, len(recs)),
		Ratios:  map[int]float64{},
		Accents: map[int]color.RGBA{},
	}
	for _, r := range recs {
		s.Records[r.Index] = r
	}
	return s
}

// Cell is one placed record on a page, in points from the top-left corner.
type Cell struct {
	Index  int
	Column int
	X, Y   float64
	W, H   float64
	Label  string
	Fill   color.RGBA
	Accent bool
}

// Page holds the cells of one output page.
type Page struct {
	Number int
	Cells  []Cell
}

var neutralFill = color.RGBA{R: 230, G: 230, B: 230, A: 255}

// Paginate flows every column top-down; a cell that does not fit the rest of
// a page starts that column on the next page. At least one page is returned.
func Paginate(s Sheet, g Geometry) []Page {
	pages := []Page{{Number: 1}}
	n := len(s.Layout.Columns)
	if n == 0 {
		return pages
	}
	top, usableH := g.usable()
	colW := (g.Width - 2*g.Margin - float64(n-1)*g.Gutter) / float64(n)
	if colW <= 0 || usableH <= 0 {
		return pages
	}
	for c, col := range s.Layout.Columns {
		page, y := 0, 0.0
		for _, idx := range col.Items {
			ratio := s.Ratios[idx]
			if ratio <= 0 {
				ratio = 1
			}
			h := colW * ratio
			if h > usableH {
				h = usableH
			}
			if y > 0 && y+h > usableH {
				page++
				y = 0
			}
			for len(pages) <= page {
				pages = append(pages, Page{Number: len(pages) + 1})
			}
			cell := Cell{
				Index:  idx,
				Column: c,
				X:      g.Margin + float64(c)*(colW+g.Gutter),
				Y:      top + y,
				W:      colW,
				H:      h,
				Label:  label(s.Records[idx]),
				Fill:   neutralFill,
			}
			if a, ok := s.Accents[idx]; ok {
				cell.Fill, cell.Accent = a, true
			}
			pages[page].Cells = append(pages[page].Cells, cell)
			y += h + g.Gutter
		}
	}
	return pages
}

func label(r domain.ImageRecord) string {
	name := path.Base(r.Filename)
	if r.Filename == "" {
		name = fmt.Sprintf("#%d", r.Index)
	}
	if r.Rating != "" {
		name += " [" + r.Rating + "]"
	}
	return name
}

func (s Sheet) heading(p Page, pages int) string {
	title := s.Title
	if title == "" {
		title = "Galleria"
	}
	shown := s.Layout.Len()
	total := s.Total
	if total < shown {
		total = shown
	}
	return fmt.Sprintf("%s  %d of %d images  page %d/%d", title, shown, total, p.Number, pages)
}
