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

// Checkbox is a tag filter control. Several checkboxes may share a Tag; ID is unique.
type Checkbox struct {
	ID      string
	Tag     string
	Label   string
	Checked bool
}

// CheckboxSpec declares a checkbox at document construction.
type CheckboxSpec struct {
	ID      string
	Tag     string
	Label   string
	Checked bool
}

// DropItem is one entry of a dropdown menu.
type DropItem struct {
	Value    string
	Text     string
	Selected bool
}

// Dropdown is a custom select: the current value lives in Value (data-value)
// and Label mirrors the text of the selected item.
type Dropdown struct {
	ID    string
	Value string
	Label string
	Items []DropItem
}

// Add appends a menu item.
func (d *Dropdown) Add(value, text string) {
	d.Items = append(d.Items, DropItem{Value: value, Text: text})
}

// SetValue stores v and marks the matching item selected. An unknown value is
// still stored; the selection highlight is cleared and the label is left as is.
func (d *Dropdown) SetValue(v string) {
	d.Value = v
	for i := range d.Items {
		d.Items[i].Selected = d.Items[i].Value == v
		if d.Items[i].Selected {
			d.Label = d.Items[i].Text
		}
	}
}

// Has reports whether a menu item carries value v.
func (d *Dropdown) Has(v string) bool {
	for _, it := range d.Items {
		if it.Value == v {
			return true
		}
	}
	return false
}
