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
	"strconv"
	"strings"

	"galleria/internal/domain"
	"galleria/internal/lazy"
	"galleria/internal/view"
)

// Attributes carried by a gallery image element.
const (
	AttrPretty       = "data-pretty"
	AttrRating       = "rating"
	AttrFandom       = "fandom"
	AttrPreview2Raw  = "data-preview-2-raw"
	AttrPreview2Nice = "data-preview-2-pretty"
)

// Registry owns one wrapper node per record for the whole session. Nodes are
// created on first use and relocated between renders, never rebuilt.
type Registry struct {
	// Build overrides the default node construction.
	Build func(rec domain.ImageRecord) *view.Node

	nodes map[int]*view.Node
}

// NewRegistry returns an empty registry using BuildNode.
func NewRegistry() *Registry {
	return &Registry{Build: BuildNode, nodes: map[int]*view.Node{}}
}

// Ensure returns the wrapper for rec, creating it on first call.
func (r *Registry) Ensure(rec domain.ImageRecord) *view.Node {
	if r.nodes == nil {
		r.nodes = map[int]*view.Node{}
	}
	if n, ok := r.nodes[rec.Index]; ok {
		return n
	}
	build := r.Build
	if build == nil {
		build = BuildNode
	}
	n := build(rec)
	r.nodes[rec.Index] = n
	return n
}

// Node looks up the wrapper of record i.
func (r *Registry) Node(i int) (*view.Node, bool) {
	n, ok := r.nodes[i]
	return n, ok
}

// Len is the number of built nodes.
func (r *Registry) Len() int { return len(r.nodes) }

// Image returns the gallery image inside a wrapper.
func Image(wrapper *view.Node) *view.Image {
	if wrapper == nil {
		return nil
	}
	for _, c := range wrapper.Children() {
		if img := c.Image(); img != nil && img.HasClass(view.ClassImage) {
			return img
		}
	}
	return nil
}

// BuildNode creates the wrapper and its deferred image for rec.
func BuildNode(rec domain.ImageRecord) *view.Node {
	wrap := view.NewNode("div", view.ClassWrapper)
	wrap.SetData("index", strconv.Itoa(rec.Index))
	wrap.SetStyle("min-height", strconv.FormatFloat(view.DefaultReserve, 'f', -1, 64)+"px")

	img := view.NewImage(view.ClassImage)
	img.SetAttr("alt", rec.Filename)
	img.SetAttr(lazy.AttrDeferred, rec.Primary.Load())
	img.SetAttr(AttrPretty, rec.Primary.Proxied)
	img.SetAttr(AttrRating, rec.Rating)
	img.SetAttr(AttrFandom, strings.Join(rec.Fandom, ","))
	if !rec.Secondary.Empty() {
		img.SetAttr(AttrPreview2Raw, rec.Secondary.Load())
		img.SetAttr(AttrPreview2Nice, rec.Secondary.Proxied)
	}
	wrap.Append(img.Node)
	return wrap
}
