//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"image/color"
	"log/slog"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"galleria/internal/crash"
	"galleria/internal/gallery"
	"galleria/internal/lightbox"
	applog "galleria/internal/log"
	"galleria/internal/view"
)

// Run opens the gallery window and drives a session in async mode until the
// window closes or ctx ends.
func Run(ctx context.Context, opts gallery.Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	fyneApp := app.NewWithID("galleria")
	w := fyneApp.NewWindow("Galleria")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1500)
	winH := prefs.IntWithFallback("window.height", 900)
	if winW < 600 {
		winW = 600
	}
	if winH < 400 {
		winH = 400
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := newHost(w)
	opts.Async = true
	opts.Viewport = galleryViewport(float32(winW), float32(winH))
	h.width = float32(opts.Viewport.Width)
	opts.Navigator = lightbox.NavigatorFunc(func(raw string) {
		u, err := url.Parse(raw)
		if err != nil {
			l.Warn("invalid preview link", slog.String("url", raw), slog.Any("err", err))
			return
		}
		fyne.Do(func() {
			if err := fyneApp.OpenURL(u); err != nil {
				l.Warn("open link failed", slog.String("url", raw), slog.Any("err", err))
			}
		})
	})
	var sess *gallery.Session
	opts.OnChange = func() {
		snap := sess.Snapshot()
		fyne.Do(func() { h.apply(snap) })
	}
	sess = gallery.New(opts)
	h.sess = sess

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer crash.Recover(&crash.Context{Command: "ui", Prefs: opts.Prefs, State: sess.State})
		if err := sess.Start(ctx); err != nil {
			l.Warn("gallery started without manifest", slog.Any("err", err))
		}
		_ = sess.Run(ctx)
	}()

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		cancel()
	})
	w.ShowAndRun()
	cancel()
	<-done
	l.Info("UI closed")
	return nil
}

// host owns the widgets. All methods run on the fyne goroutine; the session
// is only reached through Dispatch.
type host struct {
	win  fyne.Window
	sess *gallery.Session

	applying bool
	width    float32

	checks    []*widget.Check
	checkBox  *fyne.Container
	fandom    *widget.Select
	sort      *widget.Select
	selectAll *widget.Button
	count     *widget.Label
	scroll    *container.Scroll
	images    map[string]*canvas.Image
	cur       gallery.Snapshot

	popup    *widget.PopUp
	previews [2]*canvas.Image
	frames   [2]*canvas.Rectangle
	slots    [2]*fyne.Container
}

func newHost(w fyne.Window) *host {
	h := &host{win: w, images: map[string]*canvas.Image{}}
	h.checkBox = container.NewVBox()
	h.fandom = widget.NewSelect(nil, func(text string) { h.selected(h.cur.Fandom, text) })
	h.sort = widget.NewSelect(nil, func(text string) { h.selected(h.cur.Sort, text) })
	h.selectAll = widget.NewButton(view.LabelSelectAll, func() { h.dispatch(gallery.SelectAllClicked{}) })
	h.count = widget.NewLabel("")
	h.scroll = container.NewVScroll(container.NewHBox())
	h.scroll.OnScrolled = func(p fyne.Position) { h.dispatch(gallery.Scrolled{Top: float64(p.Y)}) }

	sidebar := container.NewVBox(
		widget.NewLabel("Filters"), h.checkBox, h.selectAll,
		widget.NewSeparator(),
		widget.NewLabel("Fandom"), h.fandom,
		widget.NewLabel("Sort"), h.sort,
		widget.NewSeparator(), h.count,
	)
	watched := container.New(&sizeWatcher{onChange: h.resized}, h.scroll)
	w.SetContent(container.NewBorder(nil, nil, sidebar, nil, watched))

	for i := range h.previews {
		slot := i + 1
		img := canvas.NewImageFromResource(nil)
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(420, 560))
		frame := canvas.NewRectangle(color.Transparent)
		frame.StrokeWidth = 4
		frame.StrokeColor = neutralBorder
		h.previews[i], h.frames[i] = img, frame
		h.slots[i] = container.NewStack(frame, newTapTarget(img,
			func() { h.dispatch(gallery.PreviewClicked{Slot: slot}) },
			func(in bool) { h.dispatch(gallery.PreviewHovered{Slot: slot, Entered: in}) }))
	}
	closeBtn := widget.NewButton("Close", func() { h.dispatch(gallery.BackdropClicked{TargetID: view.IDCloseOverlay}) })
	backdrop := newTapTarget(canvas.NewRectangle(color.NRGBA{A: 0xb0}),
		func() { h.dispatch(gallery.BackdropClicked{TargetID: view.IDOverlay}) }, nil)
	overlay := container.NewStack(backdrop, container.NewBorder(container.NewHBox(closeBtn), nil, nil, nil,
		container.NewCenter(container.NewHBox(h.slots[0], h.slots[1]))))
	h.popup = widget.NewModalPopUp(overlay, w.Canvas())
	return h
}

func (h *host) dispatch(ev gallery.Event) {
	if h.applying || h.sess == nil {
		return
	}
	h.sess.Dispatch(ev)
}

func (h *host) selected(d view.Dropdown, text string) {
	if v, ok := valueForText(d, text); ok {
		h.dispatch(gallery.DropdownSelected{DropdownID: d.ID, Value: v})
	}
}

func (h *host) resized(sz fyne.Size) {
	h.width = sz.Width
	h.dispatch(gallery.Resized{Viewport: view.Viewport{Width: int(sz.Width), Height: int(sz.Height)}})
	h.drawGallery()
}

// apply renders a snapshot; widget setters fire their callbacks, so dispatching is muted meanwhile.
func (h *host) apply(snap gallery.Snapshot) {
	h.applying = true
	defer func() { h.applying = false }()
	h.cur = snap

	if len(h.checks) != len(snap.Checkboxes) {
		h.checks = h.checks[:0]
		h.checkBox.RemoveAll()
		for _, cb := range snap.Checkboxes {
			id := cb.ID
			c := widget.NewCheck(cb.Label, func(v bool) { h.dispatch(gallery.CheckboxChanged{ID: id, Checked: v}) })
			h.checks = append(h.checks, c)
			h.checkBox.Add(c)
		}
	}
	for i, cb := range snap.Checkboxes {
		h.checks[i].SetChecked(cb.Checked)
	}
	h.fandom.Options = dropdownTexts(snap.Fandom)
	h.fandom.SetSelected(snap.Fandom.Label)
	h.sort.Options = dropdownTexts(snap.Sort)
	h.sort.SetSelected(snap.Sort.Label)
	h.selectAll.SetText(snap.SelectAll)
	h.count.SetText(snap.Count)

	h.drawGallery()
	h.drawLightbox()
}

func (h *host) drawGallery() {
	n := len(h.cur.Columns)
	if n == 0 {
		h.scroll.Content = container.NewHBox()
		h.scroll.Refresh()
		return
	}
	colW := columnWidth(h.width, n)
	cols := make([]fyne.CanvasObject, 0, n)
	for _, col := range h.cur.Columns {
		box := container.NewVBox()
		for _, it := range col {
			index := it.Index
			box.Add(newTapTarget(h.itemObject(it, colW), func() { h.dispatch(gallery.ItemClicked{Index: index}) }, nil))
		}
		cols = append(cols, box)
	}
	h.scroll.Content = container.NewGridWithColumns(n, cols...)
	h.scroll.Refresh()
}

func (h *host) itemObject(it gallery.Item, colW float32) fyne.CanvasObject {
	size := fyne.NewSize(colW, itemHeight(colW, it.Ratio, it.Loaded))
	if img := h.image(it.Src); img != nil {
		img.SetMinSize(size)
		return img
	}
	r := canvas.NewRectangle(color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff})
	r.SetMinSize(size)
	return r
}

// image returns a cached canvas image for src, or nil when src is not loadable.
func (h *host) image(src string) *canvas.Image {
	if src == "" {
		return nil
	}
	if img, ok := h.images[src]; ok {
		return img
	}
	uri, err := fstorage.ParseURI(src)
	if err != nil {
		return nil
	}
	img := canvas.NewImageFromURI(uri)
	img.FillMode = canvas.ImageFillContain
	h.images[src] = img
	return img
}

func (h *host) drawLightbox() {
	if !h.cur.Overlay {
		h.popup.Hide()
		return
	}
	for i, p := range h.cur.Previews {
		if !p.Visible {
			h.slots[i].Hide()
			continue
		}
		if img := h.image(p.Src); img != nil && img != h.previews[i] {
			img.SetMinSize(fyne.NewSize(420, 560))
			h.previews[i] = img
			h.slots[i].Objects[1].(*tapTarget).setContent(img)
		}
		h.frames[i].StrokeColor = borderColor(p.Border)
		h.frames[i].Refresh()
		h.slots[i].Show()
	}
	h.popup.Resize(h.win.Canvas().Size())
	h.popup.Show()
}

// tapTarget forwards taps and hover changes of its content.
type tapTarget struct {
	widget.BaseWidget
	stack   *fyne.Container
	onTap   func()
	onHover func(bool)
}

var (
	_ fyne.Tappable     = (*tapTarget)(nil)
	_ desktop.Hoverable = (*tapTarget)(nil)
)

func newTapTarget(content fyne.CanvasObject, onTap func(), onHover func(bool)) *tapTarget {
	t := &tapTarget{stack: container.NewStack(content), onTap: onTap, onHover: onHover}
	t.ExtendBaseWidget(t)
	return t
}

func (t *tapTarget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.stack)
}

func (t *tapTarget) setContent(o fyne.CanvasObject) {
	t.stack.Objects = []fyne.CanvasObject{o}
	t.stack.Refresh()
}

func (t *tapTarget) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap()
	}
}

func (t *tapTarget) MouseIn(*desktop.MouseEvent) {
	if t.onHover != nil {
		t.onHover(true)
	}
}

func (t *tapTarget) MouseMoved(*desktop.MouseEvent) {}

func (t *tapTarget) MouseOut() {
	if t.onHover != nil {
		t.onHover(false)
	}
}

// sizeWatcher stretches its objects and reports size changes.
type sizeWatcher struct {
	last     fyne.Size
	onChange func(fyne.Size)
}

func (s *sizeWatcher) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var m fyne.Size
	for _, o := range objects {
		m = m.Max(o.MinSize())
	}
	return m
}

func (s *sizeWatcher) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
	if size != s.last {
		s.last = size
		if s.onChange != nil {
			s.onChange(size)
		}
	}
}
