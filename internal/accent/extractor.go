/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package accent

import (
	"context"
	"image/color"
	"log/slog"
	"sync"

	applog "galleria/internal/log"
	"galleria/internal/task"
	"galleria/internal/view"
)

const (
	// DataKey is the element data entry holding the cached colour.
	DataKey = "dominant-color"
	// BorderVar is the wrapper style property carrying the accent.
	BorderVar = "--image-border"
	// Neutral is the accent used when no colour is known.
	Neutral = "var(--background)"
)

// Extractor samples colours off the owner goroutine and applies them to
// preview elements. Post hands completions back to the owner; nil runs inline.
type Extractor struct {
	Sampler Sampler
	Post    func(func())

	mu    sync.Mutex
	cache map[string]color.RGBA
}

func (e *Extractor) lookup(url string) (color.RGBA, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cache[url]
	return c, ok
}

func (e *Extractor) store(url string, c color.RGBA) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cache == nil {
		e.cache = map[string]color.RGBA{}
	}
	e.cache[url] = c
}

// Extract samples url and stores the result on target and, when given, on
// secondary. A result arriving after target's source changed is dropped.
// Failures are logged and leave the neutral accent.
func (e *Extractor) Extract(ctx context.Context, url string, target, secondary *view.Image) *task.Future[color.RGBA] {
	if url == "" || target == nil {
		return task.Resolved(color.RGBA{}, ErrNoPixels)
	}
	if c, ok := e.lookup(url); ok {
		e.apply(url, c, target, secondary)
		return task.Resolved(c, nil)
	}
	f := task.NewFuture[color.RGBA]()
	sample := func() (color.RGBA, error) {
		if e.Sampler == nil {
			return color.RGBA{}, ErrNoPixels
		}
		return e.Sampler.Sample(ctx, url)
	}
	finish := func(c color.RGBA, err error) {
		if err != nil {
			applog.WithComponent("accent").Warn("background color extraction failed",
				slog.String("url", url), slog.Any("err", err))
		} else {
			e.store(url, c)
			e.apply(url, c, target, secondary)
		}
		f.Resolve(c, err)
	}
	if e.Post == nil {
		finish(sample())
		return f
	}
	go func() {
		c, err := sample()
		e.Post(func() { finish(c, err) })
	}()
	return f
}

func (e *Extractor) apply(url string, c color.RGBA, target, secondary *view.Image) {
	if target.Src() != url {
		return
	}
	rgb := RGBString(c)
	for _, img := range []*view.Image{target, secondary} {
		if img == nil {
			continue
		}
		img.SetData(DataKey, rgb)
		if img.Hovered {
			setBorder(img, rgb)
		}
	}
	applog.WithComponent("accent").Debug("accent applied", slog.String("url", url), slog.String("hex", Hex(c)))
}

// Hover tracks the pointer over img and updates its wrapper accent.
func (e *Extractor) Hover(img *view.Image, entered bool) {
	img.Hovered = entered
	if !entered {
		setBorder(img, Neutral)
		return
	}
	if c, ok := img.Data(DataKey); ok && c != "" {
		setBorder(img, c)
		return
	}
	setBorder(img, Neutral)
}

// Reset drops the element's colour and returns its wrapper to neutral.
func (e *Extractor) Reset(img *view.Image) {
	img.RemoveData(DataKey)
	setBorder(img, Neutral)
}

// Border returns the accent currently applied to img's wrapper.
func Border(img *view.Image) string {
	if p := img.Parent(); p != nil {
		if v, ok := p.Style(BorderVar); ok {
			return v
		}
	}
	return Neutral
}

func setBorder(img *view.Image, v string) {
	if p := img.Parent(); p != nil {
		p.SetStyle(BorderVar, v)
	}
}
