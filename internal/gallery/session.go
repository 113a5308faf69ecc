/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package gallery wires manifest, filters, masonry, lazy loading, accent and
// lightbox into one page session driven by a serial event loop.
package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"galleria/internal/accent"
	"galleria/internal/domain"
	"galleria/internal/filter"
	"galleria/internal/lazy"
	"galleria/internal/lightbox"
	applog "galleria/internal/log"
	"galleria/internal/manifest"
	"galleria/internal/masonry"
	"galleria/internal/prefs"
	"galleria/internal/task"
	"galleria/internal/view"
)

// ResizeQuiet is the trailing quiet period before a resize re-renders.
const ResizeQuiet = 200 * time.Millisecond

// Options configure a Session.
type Options struct {
	Viewport view.Viewport
	// Checkboxes declares the tag filters. When empty they are derived from
	// the manifest tags once it is loaded.
	Checkboxes []view.CheckboxSpec
	Manifest   manifest.Loader
	Prefs      prefs.KV
	Fetcher    lazy.Fetcher
	Sampler    accent.Sampler
	Navigator  lightbox.Navigator
	// Async runs completions through the Run loop. Without it every fetch and
	// timer completes inline and Dispatch handles events immediately.
	Async       bool
	ResizeQuiet time.Duration
	// OnChange runs on the session goroutine after Start and after every
	// handled event.
	OnChange func()
}

// Session is one page view. Its state is owned by the goroutine calling
// Start and Run; other goroutines only Dispatch.
type Session struct {
	Doc *view.Document

	opts     Options
	ctx      context.Context
	master   []domain.ImageRecord
	fandoms  []string
	visible  []domain.ImageRecord
	layout   domain.ColumnLayout
	loadErr  error
	started  bool
	allSel   bool
	dirty    bool
	checking bool

	engine   *masonry.Engine
	observer *lazy.Observer
	loader   *lazy.Loader
	accent   *accent.Extractor
	lightbox *lightbox.Controller
	resize   *task.Debouncer

	events  chan Event
	stopped chan struct{}
}

// New builds a session and its document. Nothing is fetched until Start.
func New(opts Options) *Session {
	if opts.Fetcher == nil {
		opts.Fetcher = lazy.HTTPFetcher{}
	}
	if opts.Sampler == nil {
		opts.Sampler = accent.HTTPSampler{}
	}
	if opts.Navigator == nil {
		opts.Navigator = lightbox.NavigatorFunc(func(url string) {
			applog.WithComponent("gallery").Info("open in new tab", slog.String("url", url))
		})
	}
	if opts.ResizeQuiet <= 0 {
		opts.ResizeQuiet = ResizeQuiet
	}
	s := &Session{
		Doc:     view.NewDocument(opts.Viewport, opts.Checkboxes),
		opts:    opts,
		ctx:     context.Background(),
		events:  make(chan Event, 64),
		stopped: make(chan struct{}),
	}
	var post func(func())
	if opts.Async {
		post = s.post
	}
	s.loader = &lazy.Loader{Fetcher: opts.Fetcher, Post: post, OnLoad: s.onImageLoad}
	s.observer = lazy.NewObserver(s.loader, s.Doc.Attached)
	s.engine = masonry.NewEngine(s.Doc, s.observer)
	s.accent = &accent.Extractor{Sampler: opts.Sampler, Post: post}
	s.lightbox = lightbox.New(s.Doc, s.loader, s.accent, opts.Navigator, post)
	s.resize = task.NewDebouncer(opts.ResizeQuiet, func() { s.Dispatch(rerender{}) })
	return s
}

func (s *Session) log() *slog.Logger { return applog.WithComponent("gallery") }

func (s *Session) post(fn func()) { s.Dispatch(callback(fn)) }

// Start loads the manifest, builds the item nodes, fills the fandom menu,
// restores saved preferences and renders. A manifest failure is logged and
// returned; the session stays usable with an empty gallery.
func (s *Session) Start(ctx context.Context) error {
	s.ctx = ctx
	lg := applog.WithOperation(s.log(), "start")
	res, err := s.opts.Manifest.Load(ctx)
	if err != nil {
		lg.Error("manifest load failed", slog.Any("err", err))
		s.loadErr = err
		res = manifest.Result{}
	}
	s.master = res.Records
	s.fandoms = res.Fandoms
	if len(s.Doc.Checkboxes) == 0 {
		for _, spec := range TagControls(s.master) {
			s.Doc.Checkboxes = append(s.Doc.Checkboxes, &view.Checkbox{ID: spec.ID, Tag: spec.Tag, Label: spec.Label, Checked: spec.Checked})
		}
	}
	for _, rec := range s.master {
		s.engine.Registry.Ensure(rec)
	}
	for _, f := range s.fandoms {
		s.Doc.Fandom.Add(f, f)
	}
	s.restore()
	s.started = true
	s.render(ctx)
	lg.Info("session started", slog.Int("records", len(s.master)), slog.Int("fandoms", len(s.fandoms)),
		slog.Int("checkboxes", len(s.Doc.Checkboxes)))
	s.changed()
	return err
}

// TagControls derives one unchecked checkbox per distinct trimmed tag, sorted.
// The first-visit default is applied afterwards by restore.
func TagControls(recs []domain.ImageRecord) []view.CheckboxSpec {
	seen := map[string]bool{}
	var tags []string
	for _, r := range recs {
		for _, t := range r.Tags {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	out := make([]view.CheckboxSpec, 0, len(tags))
	for _, t := range tags {
		out = append(out, view.CheckboxSpec{ID: t, Tag: t, Label: t})
	}
	return out
}

// Run processes events until ctx ends. It must run on the goroutine that called Start.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer close(s.stopped)
	defer s.resize.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			s.Handle(ctx, ev)
		}
	}
}

// Dispatch enqueues ev for the loop. In inline mode the event is handled at
// once. It returns false after the loop stopped.
func (s *Session) Dispatch(ev Event) bool {
	if !s.opts.Async {
		s.Handle(s.ctx, ev)
		return true
	}
	select {
	case s.events <- ev:
		return true
	case <-s.stopped:
		return false
	}
}

// Handle applies one event to the session state.
func (s *Session) Handle(ctx context.Context, ev Event) {
	defer s.changed()
	switch e := ev.(type) {
	case CheckboxChanged:
		cb := s.Doc.CheckboxByID(e.ID)
		if cb == nil {
			return
		}
		cb.Checked = e.Checked
		if cb.Tag != "" {
			for _, other := range s.Doc.CheckboxesByTag(cb.Tag) {
				other.Checked = e.Checked
			}
		}
		s.mutated(ctx)
	case DropdownSelected:
		dd := s.dropdown(e.DropdownID)
		if dd == nil {
			return
		}
		dd.SetValue(e.Value)
		s.mutated(ctx)
	case SelectAllClicked:
		s.allSel = !s.allSel
		for _, cb := range s.Doc.Checkboxes {
			cb.Checked = s.allSel
		}
		s.mutated(ctx)
	case Resized:
		s.Doc.SetViewport(e.Viewport)
		if s.opts.Async {
			s.resize.Trigger()
			return
		}
		s.render(ctx)
	case rerender:
		s.render(ctx)
	case Scrolled:
		s.Doc.Scroll.SetTop(e.Top)
		s.settle(ctx)
	case ItemClicked:
		w, ok := s.engine.Registry.Node(e.Index)
		if !ok || !s.Doc.Attached(w) {
			return
		}
		if img := masonry.Image(w); img != nil {
			s.lightbox.Open(ctx, img)
		}
	case PreviewClicked:
		s.lightbox.ClickPreview(e.Slot)
	case BackdropClicked:
		s.lightbox.ClickBackdrop(e.TargetID)
	case PreviewHovered:
		p := s.Doc.Preview1
		if e.Slot == 2 {
			p = s.Doc.Preview2
		}
		s.accent.Hover(p, e.Entered)
	case callback:
		e()
	default:
		s.log().Warn("unknown event", slog.String("type", fmt.Sprintf("%T", ev)))
	}
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

func (s *Session) dropdown(id string) *view.Dropdown {
	switch id {
	case view.IDFandom:
		return s.Doc.Fandom
	case view.IDSort:
		return s.Doc.Sort
	}
	return nil
}

// mutated re-renders and saves after a control change.
func (s *Session) mutated(ctx context.Context) {
	s.render(ctx)
	s.save()
}

func (s *Session) render(ctx context.Context) {
	if !s.started {
		return
	}
	s.visible = filter.Apply(s.master, s.Doc, s.State())
	s.layout = s.engine.Render(s.visible)
	s.Doc.CountInfo = CountText(len(s.visible), len(s.master))
	s.syncSelectAll()
	s.settle(ctx)
}

// settle promotes images near the viewport and relayouts as they complete.
func (s *Session) settle(ctx context.Context) {
	if s.checking {
		s.dirty = true
		return
	}
	s.checking = true
	defer func() { s.checking = false }()
	for {
		s.dirty = false
		s.observer.Check(ctx, s.Doc.ViewportRect())
		if !s.dirty {
			return
		}
		s.Doc.Layout()
	}
}

func (s *Session) onImageLoad(img *view.Image, err error) {
	if !img.HasClass(view.ClassImage) {
		return
	}
	if s.checking {
		s.dirty = true
		return
	}
	s.Doc.Layout()
	s.settle(s.ctx)
}

func (s *Session) syncSelectAll() {
	all := true
	for _, cb := range s.Doc.Checkboxes {
		if !cb.Checked {
			all = false
			break
		}
	}
	s.allSel = all
	if all {
		s.Doc.SelectAll = view.LabelDeselect
	} else {
		s.Doc.SelectAll = view.LabelSelectAll
	}
}

// CountText is the image count line.
func CountText(visible, total int) string {
	return fmt.Sprintf("Showing %d of %d images.", visible, total)
}

// State is the selection currently shown by the controls.
func (s *Session) State() domain.FilterState {
	checks := make(map[string]bool, len(s.Doc.Checkboxes))
	for _, cb := range s.Doc.Checkboxes {
		checks[cb.ID] = cb.Checked
	}
	return domain.FilterState{Checks: checks, Fandom: s.Doc.Fandom.Value, Sort: domain.SortKey(s.Doc.Sort.Value)}
}

// restore applies saved checks by control id, spreading each to the controls
// sharing its tag. Keys naming no control are matched as tags.
func (s *Session) restore() {
	st, found := prefs.Defaults(), false
	if s.opts.Prefs != nil {
		st, found = prefs.Load(s.opts.Prefs)
	}
	if !found {
		for _, cb := range s.Doc.CheckboxesByTag(prefs.DefaultTag) {
			cb.Checked = true
		}
	} else {
		for _, key := range slices.Sorted(maps.Keys(st.Checks)) {
			on, tag := st.Checks[key], key
			if cb := s.Doc.CheckboxByID(key); cb != nil {
				tag = cb.Tag
				cb.Checked = on
			}
			for _, cb := range s.Doc.CheckboxesByTag(tag) {
				cb.Checked = on
			}
		}
	}
	s.Doc.Fandom.SetValue(st.Fandom)
	s.Doc.Sort.SetValue(string(st.Sort))
}

func (s *Session) save() {
	if s.opts.Prefs == nil {
		return
	}
	if err := prefs.Save(s.opts.Prefs, s.State()); err != nil {
		s.log().Warn("save preferences failed", slog.Any("err", err))
	}
}

// Master returns the loaded dataset.
func (s *Session) Master() []domain.ImageRecord { return s.master }

// Fandoms returns the sorted fandom menu values.
func (s *Session) Fandoms() []string { return s.fandoms }

// Visible returns the records of the last render in display order.
func (s *Session) Visible() []domain.ImageRecord { return s.visible }

// Layout returns the last column layout.
func (s *Session) Layout() domain.ColumnLayout { return s.layout }

// LoadErr is the manifest error from Start, if any.
func (s *Session) LoadErr() error { return s.loadErr }

// Lightbox exposes the overlay controller.
func (s *Session) Lightbox() *lightbox.Controller { return s.lightbox }

// Image returns the gallery image of record i.
func (s *Session) Image(i int) *view.Image {
	w, ok := s.engine.Registry.Node(i)
	if !ok {
		return nil
	}
	return masonry.Image(w)
}
