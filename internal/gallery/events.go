/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package gallery

import "galleria/internal/view"

// Event is an input processed by the session loop.
type Event interface {
	isEvent()
}

// CheckboxChanged is a user toggle of the checkbox with ID.
type CheckboxChanged struct {
	ID      string
	Checked bool
}

// DropdownSelected is a click on a dropdown menu item.
type DropdownSelected struct {
	DropdownID string
	Value      string
}

// SelectAllClicked toggles every checkbox.
type SelectAllClicked struct{}

// Resized reports a new window size.
type Resized struct {
	Viewport view.Viewport
}

// Scrolled reports a new scroll offset of the gallery area.
type Scrolled struct {
	Top float64
}

// ItemClicked is a click on the gallery image of record Index.
type ItemClicked struct {
	Index int
}

// PreviewClicked is a click on lightbox slot 1 or 2.
type PreviewClicked struct {
	Slot int
}

// BackdropClicked is a click inside the overlay; TargetID is the clicked element id.
type BackdropClicked struct {
	TargetID string
}

// PreviewHovered is the pointer entering or leaving a lightbox slot.
type PreviewHovered struct {
	Slot    int
	Entered bool
}

// callback runs an asynchronous completion on the loop.
type callback func()

// rerender is the debounced resize firing.
type rerender struct{}

func (CheckboxChanged) isEvent()  {}
func (DropdownSelected) isEvent() {}
func (SelectAllClicked) isEvent() {}
func (Resized) isEvent()          {}
func (Scrolled) isEvent()         {}
func (ItemClicked) isEvent()      {}
func (PreviewClicked) isEvent()   {}
func (BackdropClicked) isEvent()  {}
func (PreviewHovered) isEvent()   {}
func (callback) isEvent()         {}
func (rerender) isEvent()         {}
