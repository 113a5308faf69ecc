/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package lazy defers image fetches until an element approaches the viewport.
package lazy

import (
	"context"
	"errors"

	"galleria/internal/view"
)

// AttrDeferred holds the real source of an image that has not been promoted yet.
const AttrDeferred = "data-src"

// DefaultMargin extends the viewport's bottom edge (px) so images start loading
// slightly before they scroll into view.
const DefaultMargin = 200.0

var errNoFetcher = errors.New("lazy: no fetcher configured")

// Observer tracks deferred images and promotes them once they come near the viewport.
type Observer struct {
	Margin float64
	Loader *Loader
	// Attached filters out elements that are not in the document.
	Attached func(*view.Node) bool

	order    []*view.Image
	observed map[*view.Image]bool
	promoted map[*view.Image]bool
}

// NewObserver returns an observer with the default look-ahead margin.
func NewObserver(l *Loader, attached func(*view.Node) bool) *Observer {
	return &Observer{Margin: DefaultMargin, Loader: l, Attached: attached}
}

// Observe starts watching img if it still has a deferred source. Repeated calls are no-ops.
func (o *Observer) Observe(img *view.Image) {
	if _, ok := img.Attr(AttrDeferred); !ok {
		return
	}
	if o.observed == nil {
		o.observed = map[*view.Image]bool{}
		o.promoted = map[*view.Image]bool{}
	}
	if o.observed[img] || o.promoted[img] {
		return
	}
	o.observed[img] = true
	o.order = append(o.order, img)
}

// Observing reports whether img is currently watched.
func (o *Observer) Observing(img *view.Image) bool { return o.observed[img] }

// Pending returns the number of watched images.
func (o *Observer) Pending() int { return len(o.order) }

// Check promotes every watched image whose box intersects vp extended by the margin.
// It returns the promoted elements in observation order.
func (o *Observer) Check(ctx context.Context, vp view.Rect) []*view.Image {
	zone := vp
	zone.H += o.Margin
	var hits []*view.Image
	keep := o.order[:0]
	for _, img := range o.order {
		if (o.Attached == nil || o.Attached(img.Node)) && img.Box.Intersects(zone) {
			hits = append(hits, img)
			continue
		}
		keep = append(keep, img)
	}
	for i := len(keep); i < len(o.order); i++ {
		o.order[i] = nil
	}
	o.order = keep
	for _, img := range hits {
		delete(o.observed, img)
		o.promoted[img] = true
		src, ok := img.Attr(AttrDeferred)
		if !ok {
			continue
		}
		img.RemoveAttr(AttrDeferred)
		if o.Loader != nil {
			o.Loader.load(ctx, img, src, markLoaded)
		} else {
			img.SetSrc(src)
		}
	}
	return hits
}

// markLoaded flags a decoded gallery image and releases its wrapper's reserved height.
func markLoaded(img *view.Image, err error) {
	if err != nil {
		return
	}
	img.AddClass(view.ClassLoaded)
	if w := img.Parent(); w != nil && w.HasClass(view.ClassWrapper) {
		w.SetStyle("min-height", "0")
	}
}
