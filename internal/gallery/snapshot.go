/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package gallery

import (
	"path"

	"galleria/internal/accent"
	"galleria/internal/lightbox"
	"galleria/internal/masonry"
	"galleria/internal/view"
)

// Item is a placed gallery image as seen by a front-end.
type Item struct {
	Index  int
	Label  string
	Src    string // empty until promoted
	Loaded bool
	Ratio  float64
}

// Preview is one lightbox slot.
type Preview struct {
	Src     string
	Visible bool
	Border  string
}

// Snapshot is a copy of everything a front-end draws. It holds no live
// nodes, so it may be handed to another goroutine.
type Snapshot struct {
	Columns    [][]Item
	Checkboxes []view.Checkbox
	Fandom     view.Dropdown
	Sort       view.Dropdown
	SelectAll  string
	Count      string
	ScrollTop  float64
	Lightbox   lightbox.State
	Overlay    bool
	Previews   [2]Preview
}

// Snapshot copies the current document. Call it on the session goroutine,
// typically from Options.OnChange.
func (s *Session) Snapshot() Snapshot {
	d := s.Doc
	snap := Snapshot{
		Fandom:    copyDropdown(d.Fandom),
		Sort:      copyDropdown(d.Sort),
		SelectAll: d.SelectAll,
		Count:     d.CountInfo,
		ScrollTop: d.Scroll.Top(),
		Lightbox:  s.lightbox.State(),
		Overlay:   !d.Overlay.Hidden,
	}
	for _, cb := range d.Checkboxes {
		snap.Checkboxes = append(snap.Checkboxes, *cb)
	}
	for _, col := range s.layout.Columns {
		items := make([]Item, 0, len(col.Items))
		for _, i := range col.Items {
			w, _ := s.engine.Registry.Node(i)
			img := masonry.Image(w)
			if img == nil {
				continue
			}
			items = append(items, Item{
				Index:  i,
				Label:  path.Base(img.AttrOr("alt")),
				Src:    img.Src(),
				Loaded: img.HasClass(view.ClassLoaded),
				Ratio:  masonry.AspectRatio(img),
			})
		}
		snap.Columns = append(snap.Columns, items)
	}
	for i, p := range []*view.Image{d.Preview1, d.Preview2} {
		snap.Previews[i] = Preview{
			Src:     p.Src(),
			Visible: p.Src() != "" && !p.Parent().Hidden,
			Border:  accent.Border(p),
		}
	}
	return snap
}

func copyDropdown(d *view.Dropdown) view.Dropdown {
	c := *d
	c.Items = append([]view.DropItem(nil), d.Items...)
	return c
}
