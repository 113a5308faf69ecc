/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package view is a headless presentation tree: render nodes, images, form
// controls, a scroll container and a viewport. The gallery engine mutates it
// the way a page script mutates a DOM; front-ends only read it.
package view

import (
	"slices"
)

// Rect is an axis-aligned box in content coordinates (y grows downwards).
type Rect struct {
	X, Y, W, H float64
}

// Intersects reports whether r and o overlap with non-zero area, or touch when
// one of them is degenerate (zero height boxes still intersect a viewport).
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W && r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}

// Node is an element of the tree. Nodes are relocated between parents, never copied.
type Node struct {
	Tag string
	ID  string

	classes  []string
	attrs    map[string]string
	style    map[string]string
	data     map[string]string
	parent   *Node
	children []*Node
	image    *Image

	Hidden bool
	Box    Rect
}

// NewNode returns a detached element.
func NewNode(tag string, classes ...string) *Node {
	return &Node{Tag: tag, classes: slices.Clone(classes)}
}

func (n *Node) AddClass(c string) {
	if !n.HasClass(c) {
		n.classes = append(n.classes, c)
	}
}

func (n *Node) RemoveClass(c string) {
	n.classes = slices.DeleteFunc(n.classes, func(v string) bool { return v == c })
}

func (n *Node) HasClass(c string) bool { return slices.Contains(n.classes, c) }

func (n *Node) Classes() []string { return slices.Clone(n.classes) }

// Attr returns an attribute and whether it is present.
func (n *Node) Attr(k string) (string, bool) {
	v, ok := n.attrs[k]
	return v, ok
}

// AttrOr returns the attribute or "".
func (n *Node) AttrOr(k string) string { return n.attrs[k] }

func (n *Node) SetAttr(k, v string) {
	if n.attrs == nil {
		n.attrs = map[string]string{}
	}
	n.attrs[k] = v
}

func (n *Node) RemoveAttr(k string) { delete(n.attrs, k) }

func (n *Node) Style(k string) (string, bool) {
	v, ok := n.style[k]
	return v, ok
}

func (n *Node) SetStyle(k, v string) {
	if n.style == nil {
		n.style = map[string]string{}
	}
	n.style[k] = v
}

// ClearStyle drops the inline style entirely.
func (n *Node) ClearStyle() { n.style = nil }

// Data returns script-side data (not reflected as an attribute).
func (n *Node) Data(k string) (string, bool) {
	v, ok := n.data[k]
	return v, ok
}

func (n *Node) SetData(k, v string) {
	if n.data == nil {
		n.data = map[string]string{}
	}
	n.data[k] = v
}

func (n *Node) RemoveData(k string) { delete(n.data, k) }

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Append moves child under n, detaching it from its current parent first.
func (n *Node) Append(child *Node) {
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// Detach removes n from its parent. The node and its subtree stay intact.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	p.children = slices.DeleteFunc(p.children, func(c *Node) bool { return c == n })
	n.parent = nil
}

// Empty detaches every child.
func (n *Node) Empty() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Contains reports whether d is n or one of its descendants.
func (n *Node) Contains(d *Node) bool {
	for c := d; c != nil; c = c.parent {
		if c == n {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Image returns the image state when n is an img element.
func (n *Node) Image() *Image { return n.image }

// Image is an img element with load state.
type Image struct {
	*Node
	Complete      bool
	NaturalWidth  int
	NaturalHeight int
	Hovered       bool
}

// NewImage returns a detached img with no source. Like a browser image
// without src it counts as complete.
func NewImage(classes ...string) *Image {
	n := NewNode("img", classes...)
	img := &Image{Node: n, Complete: true}
	n.image = img
	return img
}

// Src is the current source URL.
func (i *Image) Src() string { return i.AttrOr("src") }

// SetSrc assigns a new source. A non-empty source starts a pending load.
func (i *Image) SetSrc(url string) {
	prev, had := i.Attr("src")
	i.SetAttr("src", url)
	if had && prev == url && i.Complete {
		return
	}
	i.NaturalWidth, i.NaturalHeight = 0, 0
	i.Complete = url == ""
}

// MarkLoaded records a successful decode.
func (i *Image) MarkLoaded(w, h int) {
	i.Complete = true
	i.NaturalWidth, i.NaturalHeight = w, h
}

// MarkFailed records a failed load: complete with no dimensions.
func (i *Image) MarkFailed() {
	i.Complete = true
	i.NaturalWidth, i.NaturalHeight = 0, 0
}

// Decoded reports whether natural dimensions are known.
func (i *Image) Decoded() bool {
	return i.Complete && i.NaturalWidth > 0 && i.NaturalHeight > 0
}
