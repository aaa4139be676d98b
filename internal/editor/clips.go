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

	"dekk/internal/space"
	"dekk/internal/vector"
)

// ClipTracker keeps the clip planes of every slice current. Committed
// positions come from store notifications; animated positions are fed in by
// the Animator each frame.
type ClipTracker struct {
	store *space.Store

	mu    sync.RWMutex
	clips map[string]vector.SliceClips
	w, h  float64

	cancel func()
}

func NewClipTracker(store *space.Store) *ClipTracker {
	c := &ClipTracker{store: store, clips: make(map[string]vector.SliceClips)}
	c.recompute()
	c.cancel = store.Subscribe(func(ch space.Change) {
		if ch.Kind == space.ChangeSlice || ch.Kind == space.ChangeSpace || ch.Kind == space.ChangeDocument {
			c.recompute()
		}
	})
	return c
}

func (c *ClipTracker) recompute() {
	sp := c.store.Space()
	slices := c.store.Slices()
	next := make(map[string]vector.SliceClips, len(slices))
	for _, sl := range slices {
		next[sl.ID] = vector.ClipPlanesFor(sl.X, sl.Y, sp.Width, sp.Height)
	}
	c.mu.Lock()
	c.clips, c.w, c.h = next, sp.Width, sp.Height
	c.mu.Unlock()
}

// Follow moves the planes of sliceID to an in-between animated position.
func (c *ClipTracker) Follow(sliceID string, p vector.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.clips[sliceID]
	if !ok {
		return
	}
	cl.Update(p.X, p.Y, c.w, c.h)
	c.clips[sliceID] = cl
}

// Clips returns the current plane sets of sliceID.
func (c *ClipTracker) Clips(sliceID string) (vector.SliceClips, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cl, ok := c.clips[sliceID]
	return cl, ok
}

func (c *ClipTracker) Close() { c.cancel() }
