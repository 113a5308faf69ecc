/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package lightbox drives the enlarged preview overlay with up to two slots.
package lightbox

import (
	"context"
	"image"
	"log/slog"
	"time"

	"galleria/internal/accent"
	"galleria/internal/lazy"
	applog "galleria/internal/log"
	"galleria/internal/masonry"
	"galleria/internal/task"
	"galleria/internal/view"
)

// State of the overlay.
type State int

const (
	Closed State = iota
	Opening
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	}
	return "unknown"
}

// FadeDuration is the overlay fade out time.
const FadeDuration = 300 * time.Millisecond

// DataPrettyLink holds the shareable URL of a preview slot.
const DataPrettyLink = "pretty-link"

// Navigator opens a URL in a new browsing context.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

func (fn NavigatorFunc) Navigate(url string) { fn(url) }

// Controller owns the overlay elements of a Document. All methods run on the
// session goroutine; Post schedules work back onto it (nil means inline).
type Controller struct {
	Doc       *view.Document
	Loader    *lazy.Loader
	Accent    *accent.Extractor
	Navigator Navigator
	Post      func(func())
	Fade      time.Duration

	state State
	gen   int
	fade  *time.Timer
}

// New returns a closed controller for doc.
func New(doc *view.Document, loader *lazy.Loader, ext *accent.Extractor, nav Navigator, post func(func())) *Controller {
	return &Controller{Doc: doc, Loader: loader, Accent: ext, Navigator: nav, Post: post, Fade: FadeDuration}
}

// State reports the current overlay state.
func (c *Controller) State() State { return c.state }

func (c *Controller) log() *slog.Logger { return applog.WithComponent("lightbox") }

// Open starts showing img in the overlay. It returns false when img has no
// loaded source yet. The overlay is revealed once every slot settled.
func (c *Controller) Open(ctx context.Context, img *view.Image) bool {
	src := img.Src()
	if src == "" {
		return false
	}
	pretty := img.AttrOr(masonry.AttrPretty)
	raw2 := img.AttrOr(masonry.AttrPreview2Raw)
	pretty2 := img.AttrOr(masonry.AttrPreview2Nice)

	c.stopFade()
	c.gen++
	gen := c.gen
	p1, p2 := c.Doc.Preview1, c.Doc.Preview2
	c.reset(p1)
	c.reset(p2)
	p2.Parent().Hidden = true
	c.state = Opening

	futures := []*task.Future[image.Config]{c.load(ctx, p1, src)}
	p1.SetData(DataPrettyLink, pretty)

	var secondary *view.Image
	if raw2 != "" {
		secondary = p2
	}
	if c.Accent != nil {
		c.Accent.Extract(ctx, src, p1, secondary)
	}
	if raw2 != "" {
		p2.Parent().Hidden = false
		futures = append(futures, c.load(ctx, p2, raw2))
		p2.SetData(DataPrettyLink, pretty2)
	}
	c.log().Debug("open", slog.String("src", src), slog.Bool("paired", raw2 != ""), slog.Int("gen", gen))

	if settled(futures) || c.Post == nil {
		if err := task.All(ctx, futures...); err == nil {
			c.reveal(gen)
		}
		return true
	}
	go func() {
		if err := task.All(ctx, futures...); err != nil {
			return
		}
		c.Post(func() { c.reveal(gen) })
	}()
	return true
}

func (c *Controller) load(ctx context.Context, img *view.Image, url string) *task.Future[image.Config] {
	if c.Loader == nil {
		img.SetSrc(url)
		return task.Resolved(image.Config{}, nil)
	}
	return c.Loader.Load(ctx, img, url)
}

func settled[T any](fs []*task.Future[T]) bool {
	for _, f := range fs {
		if !f.Settled() {
			return false
		}
	}
	return true
}

func (c *Controller) reset(p *view.Image) {
	p.ClearStyle()
	p.SetSrc("")
	p.RemoveData(DataPrettyLink)
	if c.Accent != nil {
		c.Accent.Reset(p)
	} else {
		p.RemoveData(accent.DataKey)
		p.Parent().SetStyle(accent.BorderVar, accent.Neutral)
	}
}

// reveal shows the overlay unless a newer open or a close superseded gen.
func (c *Controller) reveal(gen int) {
	if gen != c.gen || c.state != Opening {
		return
	}
	c.state = Open
	c.Doc.Overlay.Hidden = false
	c.Doc.Overlay.RemoveClass(view.ClassHidden)
}

// ClickPreview opens slot's pretty link, or its raw source, through the Navigator.
func (c *Controller) ClickPreview(slot int) (string, bool) {
	if c.state != Open {
		return "", false
	}
	p := c.Doc.Preview1
	if slot == 2 {
		p = c.Doc.Preview2
	}
	url, _ := p.Data(DataPrettyLink)
	if url == "" {
		url = p.Src()
	}
	if url == "" {
		return "", false
	}
	if c.Navigator != nil {
		c.Navigator.Navigate(url)
	}
	return url, true
}

// ClickBackdrop closes the overlay when the click landed on the backdrop or the close control.
func (c *Controller) ClickBackdrop(targetID string) bool {
	if targetID != view.IDOverlay && targetID != view.IDCloseOverlay {
		return false
	}
	return c.Close()
}

// Close fades the overlay out and clears both slots afterwards.
func (c *Controller) Close() bool {
	if c.state == Closed || c.state == Closing {
		return false
	}
	c.gen++
	gen := c.gen
	c.state = Closing
	if c.Post == nil || c.Fade <= 0 {
		c.finishClose(gen)
		return true
	}
	c.fade = time.AfterFunc(c.Fade, func() {
		c.Post(func() { c.finishClose(gen) })
	})
	return true
}

func (c *Controller) finishClose(gen int) {
	if gen != c.gen {
		return
	}
	c.fade = nil
	c.Doc.Overlay.Hidden = true
	c.Doc.Overlay.AddClass(view.ClassHidden)
	c.Doc.Preview1.SetSrc("")
	c.Doc.Preview2.SetSrc("")
	c.state = Closed
}

func (c *Controller) stopFade() {
	if c.fade != nil {
		c.fade.Stop()
		c.fade = nil
	}
}
