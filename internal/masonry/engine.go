/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package masonry

import (
	"log/slog"

	"galleria/internal/domain"
	"galleria/internal/lazy"
	applog "galleria/internal/log"
	"galleria/internal/view"
)

// Observer receives images that still wait for their real source.
type Observer interface {
	Observe(img *view.Image)
}

// Engine rebuilds the gallery container from the visible records.
type Engine struct {
	Doc      *view.Document
	Registry *Registry
	Lazy     Observer
}

// NewEngine wires an engine to doc with a fresh registry.
func NewEngine(doc *view.Document, obs Observer) *Engine {
	return &Engine{Doc: doc, Registry: NewRegistry(), Lazy: obs}
}

// Render lays out records in order. Column items are record indexes.
func (e *Engine) Render(records []domain.ImageRecord) domain.ColumnLayout {
	doc := e.Doc
	top := doc.Scroll.Top()
	doc.Gallery.Empty()

	n := ColumnCount(doc.Viewport.Width)
	cols := make([]*view.Node, n)
	for i := range cols {
		cols[i] = view.NewNode("div", view.ClassColumn)
		doc.Gallery.Append(cols[i])
	}

	nodes := make([]*view.Node, len(records))
	ratios := make([]float64, len(records))
	for i, rec := range records {
		nodes[i] = e.Registry.Ensure(rec)
		ratios[i] = AspectRatio(Image(nodes[i]))
	}
	layout := Place(n, ratios)
	for c, col := range layout.Columns {
		for k, pos := range col.Items {
			cols[c].Append(nodes[pos])
			layout.Columns[c].Items[k] = records[pos].Index
		}
	}
	doc.Layout()

	if e.Lazy != nil {
		for _, w := range nodes {
			if img := Image(w); img != nil {
				if _, deferred := img.Attr(lazy.AttrDeferred); deferred {
					e.Lazy.Observe(img)
				}
			}
		}
	}
	doc.Scroll.SetTop(top)
	applog.WithComponent("masonry").Debug("render",
		slog.Int("columns", n), slog.Int("items", len(records)), slog.Float64("scroll", doc.Scroll.Top()))
	return layout
}
