/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package accent derives a dominant colour from an image and applies it as the
// preview frame accent.
package accent

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// ErrNoPixels is returned when every sampled pixel was ignored.
var ErrNoPixels = errors.New("accent: no usable pixels")

const (
	maxSampleSide  = 64
	minAlpha       = 125
	whiteThreshold = 250
	bucketShift    = 3 // 5 bits per channel
)

type bucket struct {
	n       int
	r, g, b int
}

// Dominant returns the mean colour of the most populated 5-bit RGB bucket.
// Near-white and mostly transparent pixels do not vote. Ties go to the lowest
// bucket key so the same bitmap always yields the same colour.
func Dominant(src image.Image) (color.RGBA, error) {
	img := downsample(src)
	b := img.Bounds()
	hist := map[int]*bucket{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := img.PixOffset(x, y)
			r, g, bl, a := img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3]
			if a < minAlpha {
				continue
			}
			if r > whiteThreshold && g > whiteThreshold && bl > whiteThreshold {
				continue
			}
			key := int(r>>bucketShift)<<10 | int(g>>bucketShift)<<5 | int(bl>>bucketShift)
			e := hist[key]
			if e == nil {
				e = &bucket{}
				hist[key] = e
			}
			e.n++
			e.r += int(r)
			e.g += int(g)
			e.b += int(bl)
		}
	}
	bestKey, best := -1, (*bucket)(nil)
	for k, e := range hist {
		if best == nil || e.n > best.n || (e.n == best.n && k < bestKey) {
			bestKey, best = k, e
		}
	}
	if best == nil {
		return color.RGBA{}, ErrNoPixels
	}
	return color.RGBA{
		R: uint8(best.r / best.n),
		G: uint8(best.g / best.n),
		B: uint8(best.b / best.n),
		A: 255,
	}, nil
}

// downsample scales src to fit maxSampleSide, keeping the aspect ratio. The
// result is non-premultiplied so alpha tests see the stored values.
func downsample(src image.Image) *image.NRGBA {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w > maxSampleSide || h > maxSampleSide {
		if w >= h {
			h = max(1, h*maxSampleSide/w)
			w = maxSampleSide
		} else {
			w = max(1, w*maxSampleSide/h)
			h = maxSampleSide
		}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

// RGBString renders c the way it is stored on elements: rgb(r,g,b).
func RGBString(c color.RGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Hex renders c as #rrggbb.
func Hex(c color.RGBA) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}

// ParseRGB reads back a value produced by RGBString.
func ParseRGB(s string) (color.RGBA, bool) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "rgb(%d,%d,%d)", &r, &g, &b); err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}
