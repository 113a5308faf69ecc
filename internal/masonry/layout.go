/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package masonry distributes gallery items over a responsive number of
// columns, always appending to the currently shortest one.
package masonry

import (
	"galleria/internal/domain"
	"galleria/internal/view"
)

// Width breakpoints (px).
const (
	breakOne   = 768
	breakTwo   = 1024
	breakThree = 1280
)

// ColumnCount maps a viewport width to the number of columns.
func ColumnCount(width int) int {
	switch {
	case width < breakOne:
		return 1
	case width < breakTwo:
		return 2
	case width < breakThree:
		return 3
	default:
		return 4
	}
}

// AspectRatio estimates an image's height relative to its width. Undecoded or
// failed images count as square.
func AspectRatio(img *view.Image) float64 {
	if img == nil || !img.Decoded() {
		return 1
	}
	return float64(img.NaturalHeight) / float64(img.NaturalWidth)
}

// Place assigns ratios (item order) to n columns greedily. Items carry their
// position in ratios; ties go to the lowest column index.
func Place(n int, ratios []float64) domain.ColumnLayout {
	if n < 1 {
		n = 1
	}
	cols := make([]domain.Column, n)
	for i, r := range ratios {
		c := shortest(cols)
		cols[c].Items = append(cols[c].Items, i)
		cols[c].Height += r
	}
	return domain.ColumnLayout{Columns: cols}
}

func shortest(cols []domain.Column) int {
	best := 0
	for i := 1; i < len(cols); i++ {
		if cols[i].Height < cols[best].Height {
			best = i
		}
	}
	return best
}
