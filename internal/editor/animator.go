/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"sync"
	"time"

	"dekk/internal/space"
	"dekk/internal/vector"
)

type animated struct {
	spring *vector.Spring
	slice  bool
}

// Animator owns the rendered position of every slice and entity. Drags set
// positions immediately; committed changes from the store animate through a
// damped spring. Slice frames move the slice's clip planes along.
type Animator struct {
	store *space.Store
	clips *ClipTracker
	cfg   vector.SpringConfig

	mu      sync.Mutex
	springs map[string]*animated

	cancel func()
}

func NewAnimator(store *space.Store, clips *ClipTracker, cfg vector.SpringConfig) *Animator {
	a := &Animator{store: store, clips: clips, cfg: cfg, springs: make(map[string]*animated)}
	a.sync()
	a.cancel = store.Subscribe(func(space.Change) { a.sync() })
	return a
}

// sync retargets every spring at the committed store position. Slices still
// in flight move their clip planes back from the committed position the
// tracker just set to the animated one.
func (a *Animator) sync() {
	seen := make(map[string]bool)
	moving := make(map[string]vector.Vec2)
	a.mu.Lock()
	for _, sl := range a.store.Slices() {
		seen[sl.ID] = true
		s := a.retargetLocked(sl.ID, vector.V3(sl.X, sl.Y, sl.Z), true)
		if !s.spring.Settled() {
			moving[sl.ID] = s.spring.Position().XY()
		}
	}
	for _, e := range a.store.Entities() {
		seen[e.ID] = true
		a.retargetLocked(e.ID, vector.V3(e.X, e.Y, e.Z), false)
	}
	for id := range a.springs {
		if !seen[id] {
			delete(a.springs, id)
		}
	}
	a.mu.Unlock()
	if a.clips != nil {
		for id, p := range moving {
			a.clips.Follow(id, p)
		}
	}
}

func (a *Animator) retargetLocked(id string, p vector.Vec3, slice bool) *animated {
	if s, ok := a.springs[id]; ok {
		if s.spring.Target() != p {
			s.spring.Animate(p)
		}
		return s
	}
	s := &animated{spring: vector.NewSpring(a.cfg, p), slice: slice}
	a.springs[id] = s
	return s
}

// Set places id at p without animation.
func (a *Animator) Set(id string, p vector.Vec3) {
	a.mu.Lock()
	s, ok := a.springs[id]
	if ok {
		s.spring.Set(p)
	}
	a.mu.Unlock()
	if ok && s.slice && a.clips != nil {
		a.clips.Follow(id, p.XY())
	}
}

// Animate springs id toward p from wherever it is now.
func (a *Animator) Animate(id string, p vector.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.springs[id]; ok {
		s.spring.Animate(p)
	}
}

// Position returns the rendered position of id.
func (a *Animator) Position(id string) (vector.Vec3, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.springs[id]; ok {
		return s.spring.Position(), true
	}
	return vector.Vec3{}, false
}

// Step advances all springs by dt and returns the ids that moved.
func (a *Animator) Step(dt time.Duration) []string {
	type follow struct {
		id string
		p  vector.Vec2
	}
	var moved []string
	var follows []follow
	a.mu.Lock()
	for id, s := range a.springs {
		if s.spring.Settled() {
			continue
		}
		p := s.spring.Step(dt)
		moved = append(moved, id)
		if s.slice {
			follows = append(follows, follow{id, p.XY()})
		}
	}
	a.mu.Unlock()
	if a.clips != nil {
		for _, f := range follows {
			a.clips.Follow(f.id, f.p)
		}
	}
	return moved
}

// Animating reports whether any spring is still moving.
func (a *Animator) Animating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.springs {
		if !s.spring.Settled() {
			return true
		}
	}
	return false
}

func (a *Animator) Close() { a.cancel() }
