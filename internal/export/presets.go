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
	"strings"
)

// PresetName represents a named page preset.
type PresetName string

const (
	PresetA4     PresetName = "a4"
	PresetLetter PresetName = "letter"
	PresetScreen PresetName = "screen"
)

// Geometry is a page in points (1/72") with its margins.
// Header is the band above the cells reserved for the title line.
type Geometry struct {
	Width  float64
	Height float64
	Margin float64
	Gutter float64
	Header float64
}

// Preset resolves a page preset; the empty name is A4.
func Preset(name PresetName) (Geometry, error) {
	switch PresetName(strings.ToLower(strings.TrimSpace(string(name)))) {
	case "", PresetA4:
		return Geometry{Width: 595, Height: 842, Margin: 36, Gutter: 8, Header: 24}, nil
	case PresetLetter:
		return Geometry{Width: 612, Height: 792, Margin: 36, Gutter: 8, Header: 24}, nil
	case PresetScreen:
		// 1280x800 CSS pixels at 96dpi
		return Geometry{Width: 960, Height: 600, Margin: 12, Gutter: 6, Header: 18}, nil
	default:
		return Geometry{}, fmt.Errorf("unknown page preset: %s", name)
	}
}

func (g Geometry) usable() (top, height float64) {
	top = g.Margin + g.Header
	return top, g.Height - top - g.Margin
}
