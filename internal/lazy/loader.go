/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package lazy

import (
	"context"
	"image"
	"log/slog"
	"sync"

	applog "galleria/internal/log"
	"galleria/internal/task"
	"galleria/internal/view"
)

// Loader assigns image sources and reports their completion. It plays the
// part of the browser's image pipeline and keeps a decoded-size cache so a
// source seen before completes immediately.
//
// With Post set, fetches run on their own goroutines and the element update is
// handed to Post (the session loop). With Post nil, fetches run inline.
type Loader struct {
	Fetcher Fetcher
	Post    func(func())
	// OnLoad runs on the owning goroutine after an element settles.
	OnLoad func(img *view.Image, err error)

	mu    sync.Mutex
	cache map[string]image.Config
}

func (l *Loader) cached(url string) (image.Config, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cfg, ok := l.cache[url]
	return cfg, ok
}

func (l *Loader) remember(url string, cfg image.Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cache == nil {
		l.cache = map[string]image.Config{}
	}
	l.cache[url] = cfg
}

// Load sets img's source to url and returns a future that settles when the
// element is complete, whether the load succeeded or not.
func (l *Loader) Load(ctx context.Context, img *view.Image, url string) *task.Future[image.Config] {
	return l.load(ctx, img, url, nil)
}

func (l *Loader) load(ctx context.Context, img *view.Image, url string, then func(*view.Image, error)) *task.Future[image.Config] {
	img.SetSrc(url)
	if url == "" {
		return task.Resolved(image.Config{}, nil)
	}
	// Explicit completion check: a source already decoded resolves now.
	if cfg, ok := l.cached(url); ok {
		l.apply(img, url, cfg, nil, then)
		return task.Resolved(cfg, nil)
	}
	if img.Complete {
		return task.Resolved(image.Config{Width: img.NaturalWidth, Height: img.NaturalHeight}, nil)
	}
	f := task.NewFuture[image.Config]()
	fetch := func() (image.Config, error) {
		if l.Fetcher == nil {
			return image.Config{}, errNoFetcher
		}
		return l.Fetcher.Fetch(ctx, url)
	}
	if l.Post == nil {
		cfg, err := fetch()
		l.settle(img, url, cfg, err, then)
		f.Resolve(cfg, err)
		return f
	}
	go func() {
		cfg, err := fetch()
		l.Post(func() {
			l.settle(img, url, cfg, err, then)
			f.Resolve(cfg, err)
		})
	}()
	return f
}

func (l *Loader) settle(img *view.Image, url string, cfg image.Config, err error, then func(*view.Image, error)) {
	if err == nil {
		l.remember(url, cfg)
	} else {
		applog.WithComponent("lazy").Debug("image load failed", slog.String("url", url), slog.Any("err", err))
	}
	l.apply(img, url, cfg, err, then)
}

// apply updates the element unless its source changed while the load was in flight.
func (l *Loader) apply(img *view.Image, url string, cfg image.Config, err error, then func(*view.Image, error)) {
	if img.Src() != url {
		return
	}
	if err != nil {
		img.MarkFailed()
	} else {
		img.MarkLoaded(cfg.Width, cfg.Height)
	}
	if then != nil {
		then(img, err)
	}
	if l.OnLoad != nil {
		l.OnLoad(img, err)
	}
}
