/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Clip planes confine an entity's rendering to its slice. A plane keeps the
// half space where Normal·p + Constant >= 0.

// ClipEpsilon absorbs rounding when classifying points on a plane.
const ClipEpsilon = 1e-6

type Plane struct {
	Normal   Vec2
	Constant float64
}

// Distance is the signed distance of p from the plane.
func (pl Plane) Distance(p Vec2) float64 { return pl.Normal.Dot(p) + pl.Constant }

// ClipSet is the four planes of one slice: top, bottom, right, left.
type ClipSet [4]Plane

var clipNormals = [4]Vec2{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// Inside reports whether p lies in every half space of the set.
func (c ClipSet) Inside(p Vec2) bool {
	for _, pl := range c {
		if pl.Distance(p) < -ClipEpsilon {
			return false
		}
	}
	return true
}

// InsideAny reports whether p lies in at least one half space. Renderers
// clipping by intersection keep exactly these points.
func (c ClipSet) InsideAny(p Vec2) bool {
	for _, pl := range c {
		if pl.Distance(p) >= -ClipEpsilon {
			return true
		}
	}
	return false
}

// SliceClips holds the visible and ghost plane sets of a slice. The visible
// set intersects to the slice footprint; the ghost set flips the sign of the
// dimension term so its union is everything outside the footprint.
type SliceClips struct {
	Visible ClipSet
	Ghost   ClipSet
}

// ClipPlanesFor computes the plane sets of a w×h slice centered at (x, y).
func ClipPlanesFor(x, y, w, h float64) SliceClips {
	var c SliceClips
	c.Update(x, y, w, h)
	return c
}

// Update recomputes the constants in place. Normals never change.
func (c *SliceClips) Update(x, y, w, h float64) {
	for i, n := range clipNormals {
		c.Visible[i].Normal = n
		c.Ghost[i].Normal = n
	}
	c.Visible[0].Constant = -y + h/2
	c.Visible[1].Constant = y + h/2
	c.Visible[2].Constant = -x + w/2
	c.Visible[3].Constant = x + w/2

	c.Ghost[0].Constant = -y - h/2
	c.Ghost[1].Constant = y - h/2
	c.Ghost[2].Constant = -x - w/2
	c.Ghost[3].Constant = x - w/2
}

// ClipPolygon keeps the part of the convex polygon poly inside pl.
func ClipPolygon(poly []Vec2, pl Plane) []Vec2 {
	if len(poly) == 0 {
		return nil
	}
	out := make([]Vec2, 0, len(poly)+1)
	prev := poly[len(poly)-1]
	dPrev := pl.Distance(prev)
	for _, cur := range poly {
		d := pl.Distance(cur)
		if (d >= -ClipEpsilon) != (dPrev >= -ClipEpsilon) {
			t := dPrev / (dPrev - d)
			out = append(out, prev.Add(cur.Sub(prev).Scale(t)))
		}
		if d >= -ClipEpsilon {
			out = append(out, cur)
		}
		prev, dPrev = cur, d
	}
	return out
}
