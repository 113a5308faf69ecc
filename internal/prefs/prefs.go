/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package prefs persists the gallery filter selection between sessions.
package prefs

import (
	"encoding/json"
	"log/slog"

	"galleria/internal/domain"
	applog "galleria/internal/log"
)

// Storage keys.
const (
	KeyFilters = "galleryFilters"
	KeyFandom  = "galleryFandom"
	KeySort    = "gallerySort"
)

// DefaultTag is checked on first visit.
const DefaultTag = "rpf"

// Defaults returns the first-visit selection.
func Defaults() domain.FilterState {
	return domain.FilterState{Checks: map[string]bool{DefaultTag: true}, Fandom: domain.AllFandoms, Sort: domain.SortNewest}
}

// Load reads the selection. The bool reports whether stored filters existed;
// without them (or when they are malformed) the default tag is checked.
func Load(kv KV) (domain.FilterState, bool) {
	lg := applog.WithOperation(applog.WithComponent("prefs"), "load")
	st := Defaults()
	found := false
	if raw, ok, err := kv.Get(KeyFilters); err != nil {
		lg.Warn("read filters failed", slog.Any("err", err))
	} else if ok {
		var checks map[string]bool
		if err := json.Unmarshal([]byte(raw), &checks); err != nil || checks == nil {
			lg.Warn("stored filters malformed, using defaults", slog.Any("err", err))
		} else {
			st.Checks = checks
			found = true
		}
	}
	if v, ok, err := kv.Get(KeyFandom); err != nil {
		lg.Warn("read fandom failed", slog.Any("err", err))
	} else if ok && v != "" {
		st.Fandom = v
	}
	if v, ok, err := kv.Get(KeySort); err != nil {
		lg.Warn("read sort failed", slog.Any("err", err))
	} else if ok && v != "" {
		st.Sort = domain.SortKey(v)
	}
	return st, found
}

// Save writes the three entries independently; the first error is returned
// but later entries are still attempted.
func Save(kv KV, st domain.FilterState) error {
	checks := st.Checks
	if checks == nil {
		checks = map[string]bool{}
	}
	b, err := json.Marshal(checks)
	if err != nil {
		return err
	}
	var first error
	for _, kvp := range [][2]string{{KeyFilters, string(b)}, {KeyFandom, st.Fandom}, {KeySort, string(st.Sort)}} {
		if err := kv.Set(kvp[0], kvp[1]); err != nil && first == nil {
			first = err
		}
	}
	return first
}
