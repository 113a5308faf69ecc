/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package filter computes the visible, ordered subset of the master dataset.
// It is pure: inputs are never mutated.
package filter

import (
	"sort"
	"strings"

	"galleria/internal/domain"
)

// Controls exposes checkbox state by control id.
type Controls interface {
	Checkbox(id string) (checked bool, exists bool)
}

// Match reports whether rec passes the fandom selector and the tag checkboxes.
// A tag without a control does not exclude the record.
func Match(rec domain.ImageRecord, controls Controls, fandom string) bool {
	if fandom != "" && fandom != domain.AllFandoms && !rec.HasFandom(fandom) {
		return false
	}
	for _, tag := range rec.Tags {
		checked, exists := controls.Checkbox(strings.TrimSpace(tag))
		if exists && !checked {
			return false
		}
	}
	return true
}

// Filter returns the matching records in master order.
func Filter(master []domain.ImageRecord, controls Controls, fandom string) []domain.ImageRecord {
	out := make([]domain.ImageRecord, 0, len(master))
	for _, r := range master {
		if Match(r, controls, fandom) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a copy ordered by parsed date. Equal dates keep their input order;
// an unrecognised key returns the copy unchanged.
func Sort(recs []domain.ImageRecord, key domain.SortKey) []domain.ImageRecord {
	out := make([]domain.ImageRecord, len(recs))
	copy(out, recs)
	switch key {
	case domain.SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ParsedDate.After(out[j].ParsedDate) })
	case domain.SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ParsedDate.Before(out[j].ParsedDate) })
	}
	return out
}

// Apply filters then sorts. An empty sort key means newest first.
func Apply(master []domain.ImageRecord, controls Controls, st domain.FilterState) []domain.ImageRecord {
	key := st.Sort
	if key == "" {
		key = domain.SortNewest
	}
	return Sort(Filter(master, controls, st.Fandom), key)
}

// MapControls adapts a plain map to Controls.
type MapControls map[string]bool

func (m MapControls) Checkbox(id string) (bool, bool) {
	v, ok := m[id]
	return v, ok
}
