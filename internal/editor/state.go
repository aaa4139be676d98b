/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor holds the interactive side of the deck canvas: selection and
// camera state, the drag controller, animated positions, per-slice clip planes
// and undo history. It renders nothing; a frontend feeds it pointer gestures
// and reads positions, guides and clips back.
package editor

import (
	"math"
	"sync"

	"dekk/internal/domain"
	"dekk/internal/vector"
)

// Zoom limits and defaults of the orthographic camera.
const (
	DefaultZoom        = 0.75
	MinZoom            = 0.05
	MaxZoom            = 2
	DefaultMovePadding = 100
)

// Size is a viewport size in screen pixels.
type Size struct {
	Width, Height float64
}

// State is the ephemeral editor state. It never persists.
type State struct {
	mu           sync.RWMutex
	zoom         float64
	viewport     Size
	camera       vector.Vec2
	controllable bool
	activeSlice  string
	activeEntity string
	guideX       *vector.Segment
	guideY       *vector.Segment

	subMu sync.Mutex
	subs  []func()
}

func NewState(zoom float64) *State {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return &State{zoom: zoom, controllable: true}
}

// OnChange registers fn to run after every state change.
func (s *State) OnChange(fn func()) {
	s.subMu.Lock()
	s.subs = append(s.subs, fn)
	s.subMu.Unlock()
}

func (s *State) changed() {
	s.subMu.Lock()
	fns := append([]func(){}, s.subs...)
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *State) set(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.changed()
}

func (s *State) Zoom() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoom
}

// SetZoom clamps z to the camera limits.
func (s *State) SetZoom(z float64) {
	s.set(func() { s.zoom = math.Max(MinZoom, math.Min(MaxZoom, z)) })
}

func (s *State) Viewport() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

func (s *State) SetViewport(v Size) { s.set(func() { s.viewport = v }) }

func (s *State) Camera() vector.Vec2 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

func (s *State) SetCamera(p vector.Vec2) { s.set(func() { s.camera = p }) }

// Pan moves the camera by a screen-pixel delta. It does nothing while a drag
// holds the camera.
func (s *State) Pan(dxPx, dyPx float64) bool {
	s.mu.Lock()
	if !s.controllable {
		s.mu.Unlock()
		return false
	}
	s.camera.X -= dxPx / s.zoom
	s.camera.Y += dyPx / s.zoom
	s.mu.Unlock()
	s.changed()
	return true
}

func (s *State) Controllable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controllable
}

func (s *State) SetControllable(v bool) { s.set(func() { s.controllable = v }) }

func (s *State) Active() (sliceID, entityID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSlice, s.activeEntity
}

// SetActive selects a slice and optionally one of its entities.
func (s *State) SetActive(sliceID, entityID string) {
	s.set(func() { s.activeSlice, s.activeEntity = sliceID, entityID })
}

// Guides returns the current guide segments; nil means hidden.
func (s *State) Guides() (x, y *vector.Segment) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guideX, s.guideY
}

func (s *State) SetGuides(x, y *vector.Segment) { s.set(func() { s.guideX, s.guideY = x, y }) }

// WorldViewport is the visible world area: the pixel viewport divided by zoom,
// centered on the camera.
func (s *State) WorldViewport() vector.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vector.Viewport{Width: s.viewport.Width / s.zoom, Height: s.viewport.Height / s.zoom, Camera: s.camera}
}

// MoveToSlice centers the camera on sl and zooms so the slice spans the
// viewport width minus padding on both sides.
func (s *State) MoveToSlice(sl domain.Slice, sp domain.Space, padding float64) {
	if padding < 0 {
		padding = DefaultMovePadding
	}
	s.set(func() {
		s.camera = vector.V2(sl.X, sl.Y)
		if sp.Width > 0 && s.viewport.Width > 2*padding {
			s.zoom = math.Max(MinZoom, math.Min(MaxZoom, (s.viewport.Width-2*padding)/sp.Width))
		}
	})
}

// ScreenToWorld converts a pixel position (origin top left) to world space.
func (s *State) ScreenToWorld(px, py float64) vector.Vec2 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vector.Vec2{
		X: s.camera.X + (px-s.viewport.Width/2)/s.zoom,
		Y: s.camera.Y - (py-s.viewport.Height/2)/s.zoom,
	}
}

// WorldToScreen is the inverse of ScreenToWorld.
func (s *State) WorldToScreen(p vector.Vec2) (px, py float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (p.X-s.camera.X)*s.zoom + s.viewport.Width/2, -(p.Y-s.camera.Y)*s.zoom + s.viewport.Height/2
}
