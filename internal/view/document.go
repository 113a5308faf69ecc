/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package view

import (
	"strconv"
	"strings"
)

// Element ids and classes the engine addresses.
const (
	IDOverlay       = "image-overlay"
	IDCloseOverlay  = "close-overlay"
	IDPreview1      = "preview-image-1"
	IDPreview2      = "preview-image-2"
	IDFandom        = "fandom-dropdown"
	IDSort          = "sort-dropdown"
	ClassGallery    = "gallery-container"
	ClassColumn     = "col"
	ClassWrapper    = "image-div"
	ClassImage      = "gallery-image"
	ClassPreview    = "preview-image"
	ClassLoaded     = "loaded"
	ClassHidden     = "hidden"
	LabelSelectAll  = "Select All"
	LabelDeselect   = "Deselect All"
)

// DefaultReserve is the min-height (px) a wrapper keeps until its image loads.
const DefaultReserve = 250.0

// Viewport is the visible window size in px.
type Viewport struct {
	Width  int
	Height int
}

// ScrollContainer is the scrollable gallery area.
type ScrollContainer struct {
	top           float64
	ContentHeight float64
	ClientHeight  float64
}

// Top returns the scroll offset.
func (s *ScrollContainer) Top() float64 { return s.top }

// SetTop scrolls, clamping to [0, ContentHeight-ClientHeight] like a browser.
func (s *ScrollContainer) SetTop(v float64) {
	maxTop := s.ContentHeight - s.ClientHeight
	if maxTop < 0 {
		maxTop = 0
	}
	if v > maxTop {
		v = maxTop
	}
	if v < 0 {
		v = 0
	}
	s.top = v
}

// Document is the whole page.
type Document struct {
	Viewport   Viewport
	Scroll     ScrollContainer
	Gallery    *Node
	GalleryTop float64

	Checkboxes []*Checkbox
	Fandom     *Dropdown
	Sort       *Dropdown
	SelectAll  string // button label
	CountInfo  string

	Overlay  *Node
	Close    *Node
	Preview1 *Image
	Preview2 *Image
}

// NewDocument builds the static page: gallery container, controls and the
// hidden lightbox overlay with two preview slots.
func NewDocument(vp Viewport, boxes []CheckboxSpec) *Document {
	d := &Document{
		Viewport:  vp,
		Gallery:   NewNode("div", ClassGallery),
		SelectAll: LabelSelectAll,
		Fandom:    &Dropdown{ID: IDFandom, Label: "All Fandoms"},
		Sort:      &Dropdown{ID: IDSort, Label: "Newest"},
	}
	d.Fandom.Add("all", "All Fandoms")
	d.Sort.Add("newest", "Newest")
	d.Sort.Add("oldest", "Oldest")
	for _, b := range boxes {
		d.Checkboxes = append(d.Checkboxes, &Checkbox{ID: b.ID, Tag: b.Tag, Label: b.Label, Checked: b.Checked})
	}
	d.Overlay = NewNode("div", ClassHidden)
	d.Overlay.ID = IDOverlay
	d.Overlay.Hidden = true
	d.Close = NewNode("span")
	d.Close.ID = IDCloseOverlay
	d.Overlay.Append(d.Close)
	d.Preview1 = newPreview(IDPreview1)
	d.Preview2 = newPreview(IDPreview2)
	d.Overlay.Append(d.Preview1.Parent())
	d.Overlay.Append(d.Preview2.Parent())
	d.Scroll.ClientHeight = float64(vp.Height)
	return d
}

func newPreview(id string) *Image {
	wrap := NewNode("div", "preview-wrapper")
	img := NewImage(ClassPreview)
	img.ID = id
	wrap.Append(img.Node)
	return img
}

// Checkbox implements the filter control lookup by id.
func (d *Document) Checkbox(id string) (checked bool, exists bool) {
	for _, c := range d.Checkboxes {
		if c.ID == id {
			return c.Checked, true
		}
	}
	return false, false
}

// CheckboxByID returns the control or nil.
func (d *Document) CheckboxByID(id string) *Checkbox {
	for _, c := range d.Checkboxes {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CheckboxesByTag returns every control sharing tag.
func (d *Document) CheckboxesByTag(tag string) []*Checkbox {
	var out []*Checkbox
	for _, c := range d.Checkboxes {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// SetViewport resizes the window.
func (d *Document) SetViewport(vp Viewport) {
	d.Viewport = vp
	d.Scroll.ClientHeight = float64(vp.Height)
	d.Scroll.SetTop(d.Scroll.Top())
}

// ViewportRect is the visible region in content coordinates.
func (d *Document) ViewportRect() Rect {
	return Rect{X: 0, Y: d.Scroll.Top(), W: float64(d.Viewport.Width), H: float64(d.Viewport.Height)}
}

// Attached reports whether n is currently inside the gallery container.
func (d *Document) Attached(n *Node) bool { return d.Gallery.Contains(n) }

// Layout assigns boxes to columns and wrappers: columns split the viewport
// width evenly and wrappers stack by image aspect ratio, or by their reserved
// min-height while the image is not decoded.
func (d *Document) Layout() {
	cols := d.Gallery.children
	maxH := 0.0
	if n := len(cols); n > 0 {
		colW := float64(d.Viewport.Width) / float64(n)
		for i, col := range cols {
			x := float64(i) * colW
			y := d.GalleryTop
			for _, w := range col.children {
				h := wrapperHeight(w, colW)
				w.Box = Rect{X: x, Y: y, W: colW, H: h}
				for _, c := range w.children {
					c.Box = w.Box
				}
				y += h
			}
			col.Box = Rect{X: x, Y: d.GalleryTop, W: colW, H: y - d.GalleryTop}
			if col.Box.H > maxH {
				maxH = col.Box.H
			}
		}
	}
	d.Gallery.Box = Rect{X: 0, Y: d.GalleryTop, W: float64(d.Viewport.Width), H: maxH}
	d.Scroll.ContentHeight = d.GalleryTop + maxH
	d.Scroll.ClientHeight = float64(d.Viewport.Height)
}

func wrapperHeight(w *Node, colW float64) float64 {
	reserve := DefaultReserve
	if v, ok := w.Style("min-height"); ok {
		if px, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64); err == nil {
			reserve = px
		}
	}
	h := 0.0
	for _, c := range w.children {
		if img := c.Image(); img != nil && img.Decoded() {
			h = colW * float64(img.NaturalHeight) / float64(img.NaturalWidth)
		}
	}
	if h < reserve {
		return reserve
	}
	return h
}
