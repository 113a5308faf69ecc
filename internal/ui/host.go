/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui hosts a gallery session in a desktop window.
package ui

import (
	"image/color"
	"math"

	"galleria/internal/accent"
	"galleria/internal/view"
)

const (
	columnGap = 8
	// sidebarWidth is taken from the window before the gallery width is reported.
	sidebarWidth = 220
)

var neutralBorder = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}

// columnWidth splits the gallery width into n columns separated by columnGap.
func columnWidth(total float32, n int) float32 {
	if n < 1 {
		n = 1
	}
	w := (total - float32(n-1)*columnGap) / float32(n)
	if w < 1 {
		return 1
	}
	return w
}

// itemHeight is the drawn height of an item; unloaded items keep the wrapper reserve.
func itemHeight(colW float32, ratio float64, loaded bool) float32 {
	if !loaded {
		return float32(view.DefaultReserve)
	}
	if ratio <= 0 {
		ratio = 1
	}
	return float32(math.Round(float64(colW) * ratio))
}

// galleryViewport maps a window size to the viewport the session lays out for.
func galleryViewport(w, h float32) view.Viewport {
	gw := int(w) - sidebarWidth
	if gw < 1 {
		gw = 1
	}
	return view.Viewport{Width: gw, Height: int(h)}
}

func dropdownTexts(d view.Dropdown) []string {
	out := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		out = append(out, it.Text)
	}
	return out
}

// valueForText maps a selected menu text back to its data-value.
func valueForText(d view.Dropdown, text string) (string, bool) {
	for _, it := range d.Items {
		if it.Text == text {
			return it.Value, true
		}
	}
	return "", false
}

// borderColor converts a preview border value; the neutral variable maps to neutralBorder.
func borderColor(v string) color.Color {
	if c, ok := accent.ParseRGB(v); ok {
		return c
	}
	return neutralBorder
}
