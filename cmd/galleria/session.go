/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"galleria/internal/domain"
	"galleria/internal/gallery"
	"galleria/internal/lazy"
	"galleria/internal/manifest"
	"galleria/internal/prefs"
	"galleria/internal/view"
)

const defaultViewportHeight = 900

// sessionFlags are shared by the commands that drive a headless session.
type sessionFlags struct {
	width    int
	height   int
	fandom   string
	sort     string
	manifest string
	urlMode  string
	fetch    bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.width, "width", 0, "viewport width in px (default from config)")
	fl.IntVar(&f.height, "height", defaultViewportHeight, "viewport height in px")
	fl.StringVar(&f.fandom, "fandom", "", "fandom filter, \"all\" for every fandom")
	fl.StringVar(&f.sort, "sort", "", "sort order: newest or oldest")
	fl.StringVar(&f.manifest, "manifest", "", "manifest URL or file path (default from config)")
	fl.StringVar(&f.urlMode, "url-mode", "", "image addressing: direct or proxied (default from config)")
	fl.BoolVar(&f.fetch, "fetch", false, "fetch image headers for real aspect ratios")
}

func (f *sessionFlags) validate() error {
	switch domain.SortKey(f.sort) {
	case "", domain.SortNewest, domain.SortOldest:
	default:
		return fmt.Errorf("unknown sort %q: want newest or oldest", f.sort)
	}
	switch f.urlMode {
	case "", manifest.ModeDirect, manifest.ModeProxied:
	default:
		return fmt.Errorf("unknown url mode %q: want direct or proxied", f.urlMode)
	}
	return nil
}

// offlineFetcher treats every image as square so layouts work without network.
var offlineFetcher = lazy.FetcherFunc(func(context.Context, string) (image.Config, error) {
	return image.Config{Width: 1, Height: 1}, nil
})

func (a *app) urlStrategy(mode string) manifest.URLStrategy {
	if mode == "" {
		mode = a.cfg.Gallery.URLMode
	}
	return manifest.URLStrategy{Mode: mode, DirectBase: a.cfg.Gallery.DirectBaseURL, ProxyPrefix: a.cfg.Gallery.ProxyPrefix}
}

// openPrefs opens the configured preference store; the returned func closes it.
func (a *app) openPrefs() (prefs.KV, func(), error) {
	kv, err := prefs.Open(a.cfg.Gallery.PrefsDriver, a.cfg.Gallery.PrefsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open prefs: %w", err)
	}
	closeFn := func() {}
	if c, ok := kv.(io.Closer); ok {
		closeFn = func() { _ = c.Close() }
	}
	return kv, closeFn, nil
}

func (a *app) sessionOptions(f sessionFlags, kv prefs.KV) gallery.Options {
	width := f.width
	if width <= 0 {
		width = a.cfg.Gallery.ViewportWidth
	}
	height := f.height
	if height <= 0 {
		height = defaultViewportHeight
	}
	loc := strings.TrimSpace(f.manifest)
	if loc == "" {
		loc = a.cfg.Gallery.ManifestURL
	}
	opts := gallery.Options{
		Viewport: view.Viewport{Width: width, Height: height},
		Manifest: manifest.Loader{Source: manifest.SourceFor(loc), URLs: a.urlStrategy(f.urlMode)},
		Prefs:    kv,
	}
	if !f.fetch {
		opts.Fetcher = offlineFetcher
	}
	return opts
}

// startSession loads and renders a sync session, then applies the flag
// selections as if picked from the menus so they are saved.
func (a *app) startSession(ctx context.Context, f sessionFlags, kv prefs.KV) (*gallery.Session, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	s := gallery.New(a.sessionOptions(f, kv))
	if a.crash != nil {
		a.crash.Prefs, a.crash.State = kv, s.State
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	if f.fandom != "" {
		s.Dispatch(gallery.DropdownSelected{DropdownID: view.IDFandom, Value: f.fandom})
	}
	if f.sort != "" {
		s.Dispatch(gallery.DropdownSelected{DropdownID: view.IDSort, Value: f.sort})
	}
	scrollAll(s)
	return s, nil
}

// scrollAll pages through the gallery so every image is promoted, then returns to the top.
func scrollAll(s *gallery.Session) {
	step := float64(s.Doc.Viewport.Height)
	if step <= 0 {
		step = defaultViewportHeight
	}
	for top := 0.0; ; top += step {
		s.Dispatch(gallery.Scrolled{Top: top})
		if top >= s.Doc.Scroll.ContentHeight-s.Doc.Scroll.ClientHeight {
			break
		}
	}
	s.Dispatch(gallery.Scrolled{Top: 0})
}
