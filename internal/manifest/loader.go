/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package manifest loads the gallery manifest and turns it into the master dataset.
package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"galleria/internal/domain"
	applog "galleria/internal/log"
)

// Result is the loaded master dataset.
type Result struct {
	Records []domain.ImageRecord
	Fandoms []string
}

// Loader runs Fetch, Decode, Normalize and Fandoms in order.
type Loader struct {
	Source Source
	URLs   URLStrategy
}

// Load returns the normalized dataset or a wrapped error. It never panics on bad input.
func (l Loader) Load(ctx context.Context) (Result, error) {
	lg := applog.WithOperation(applog.WithComponent("manifest"), "load")
	start := time.Now()
	if l.Source == nil {
		return Result{}, fmt.Errorf("load manifest: no source configured")
	}
	data, err := l.Source.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch manifest: %w", err)
	}
	recs, err := Decode(data)
	if err != nil {
		return Result{}, fmt.Errorf("decode manifest: %w", err)
	}
	recs = Normalize(recs, l.URLs)
	res := Result{Records: recs, Fandoms: Fandoms(recs)}
	lg.Debug("manifest loaded", slog.Int("records", len(recs)), slog.Int("fandoms", len(res.Fandoms)), slog.Duration("took", time.Since(start)))
	return res, nil
}
