/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"dekk/internal/space"
	"dekk/internal/undo"
	"dekk/internal/vector"
)

// Options configure an Editor. Zero values select defaults.
type Options struct {
	Zoom            float64
	SnapThresholdPx float64
	SnapStep        float64
	GuideGrid       int
	HistoryMaxBytes int
	// Scope keys the undo history, usually the deck id.
	Scope string
	// Undo may be shared between editors of several open decks.
	Undo *undo.Manager
}

// Editor wires the interactive parts around one store.
type Editor struct {
	Store   *space.Store
	State   *State
	Clips   *ClipTracker
	Anim    *Animator
	History *History
	Drag    *Drag
}

func New(store *space.Store, opts Options) *Editor {
	m := opts.Undo
	if m == nil {
		m = undo.NewManager(undo.Config{MaxBytes: opts.HistoryMaxBytes, MaxPerScope: 200})
	}
	scope := opts.Scope
	if scope == "" {
		scope = "default"
	}
	e := &Editor{Store: store, State: NewState(opts.Zoom)}
	e.Clips = NewClipTracker(store)
	e.Anim = NewAnimator(store, e.Clips, vector.DragSpring)
	e.History = NewHistory(m, scope, store)
	e.Drag = NewDrag(store, e.State, e.Anim, e.History, DragOptions{
		ThresholdPx: opts.SnapThresholdPx,
		Step:        opts.SnapStep,
		Grid:        opts.GuideGrid,
	})
	return e
}

// MoveToActive centers the camera on the active slice.
func (e *Editor) MoveToActive() bool {
	id, _ := e.State.Active()
	sl, ok := e.Store.Slice(id)
	if !ok {
		return false
	}
	e.State.MoveToSlice(sl, e.Store.Space(), DefaultMovePadding)
	return true
}

// Close detaches the editor from its store.
func (e *Editor) Close() {
	e.Anim.Close()
	e.Clips.Close()
}
