/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "time"

// This file defines the gallery data model shared by the manifest loader,
// the filter/sort engine and the masonry layout.

// AllFandoms is the fandom selector sentinel meaning "no fandom restriction".
const AllFandoms = "all"

// SortKey selects the ordering of the visible subset.
type SortKey string

const (
	SortNewest SortKey = "newest"
	SortOldest SortKey = "oldest"
)

// AssetURLs holds both addressing forms of one stored object.
// Direct goes straight to object storage, Proxied through the fetch endpoint.
type AssetURLs struct {
	Direct  string `json:"direct,omitempty"`
	Proxied string `json:"proxied,omitempty"`
	// UseProxied selects Proxied as the load URL.
	UseProxied bool `json:"-"`
}

// Load returns the URL used to fetch the image bytes.
func (u AssetURLs) Load() string {
	if u.UseProxied && u.Proxied != "" {
		return u.Proxied
	}
	if u.Direct == "" {
		return u.Proxied
	}
	return u.Direct
}

// Empty reports whether neither form is set.
func (u AssetURLs) Empty() bool { return u.Direct == "" && u.Proxied == "" }

// ImageRecord is one manifest entry. Manifest fields are immutable after load;
// Index, ParsedDate, Primary and Secondary are derived during normalization.
type ImageRecord struct {
	Filename          string   `json:"filename"`
	SecondaryFilename string   `json:"preview-2,omitempty"`
	Fandom            []string `json:"fandom,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Rating            string   `json:"rating,omitempty"`
	Date              string   `json:"date,omitempty"`

	Index      int       `json:"-"`
	ParsedDate time.Time `json:"-"`
	Primary    AssetURLs `json:"-"`
	Secondary  AssetURLs `json:"-"`
}

// HasFandom reports whether f is one of the record's fandoms.
func (r ImageRecord) HasFandom(f string) bool {
	for _, v := range r.Fandom {
		if v == f {
			return true
		}
	}
	return false
}

// FilterState is the user's active selection.
type FilterState struct {
	Checks map[string]bool `json:"checks"`
	Fandom string          `json:"fandom"`
	Sort   SortKey         `json:"sort"`
}

// Column is one masonry column: record indexes in placement order and the
// accumulated aspect-ratio height.
type Column struct {
	Items  []int   `json:"items"`
	Height float64 `json:"height"`
}

// ColumnLayout is rebuilt on every render.
type ColumnLayout struct {
	Columns []Column `json:"columns"`
}

// Len returns the number of placed items across all columns.
func (l ColumnLayout) Len() int {
	n := 0
	for _, c := range l.Columns {
		n += len(c.Items)
	}
	return n
}
