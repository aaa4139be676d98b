/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"testing"
	"time"
)

func TestClipCornersRoundTrip(t *testing.T) {
	cases := []struct{ x, y, w, h float64 }{
		{0, 0, 1600, 900},
		{2400, -300, 1600, 900},
		{-123.25, 77.5, 640, 480},
	}
	for _, c := range cases {
		clips := ClipPlanesFor(c.x, c.y, c.w, c.h)
		for _, p := range Centered(c.x, c.y, c.w, c.h).Corners() {
			if !clips.Visible.Inside(p) {
				t.Fatalf("corner %+v of %+v should be inside the visible set", p, c)
			}
			if clips.Ghost.Inside(p) {
				t.Fatalf("corner %+v of %+v should be outside the ghost set", p, c)
			}
		}
	}
}

func TestClipVisibleAndGhostRegions(t *testing.T) {
	clips := ClipPlanesFor(100, 50, 200, 100)
	if !clips.Visible.Inside(V2(100, 50)) || clips.Visible.Inside(V2(250, 50)) {
		t.Fatalf("visible set should match the footprint")
	}
	if clips.Ghost.InsideAny(V2(100, 50)) {
		t.Fatalf("ghost set must exclude the footprint")
	}
	if !clips.Ghost.InsideAny(V2(250, 50)) || !clips.Ghost.InsideAny(V2(100, -10)) {
		t.Fatalf("ghost set should cover points beside the slice")
	}
}

func TestClipUpdateTracksPosition(t *testing.T) {
	clips := ClipPlanesFor(0, 0, 100, 100)
	clips.Update(1000, 0, 100, 100)
	if clips.Visible.Inside(V2(0, 0)) || !clips.Visible.Inside(V2(1000, 0)) {
		t.Fatalf("planes did not follow the slice")
	}
	if clips.Visible[2].Constant != -950 || clips.Ghost[3].Constant != 950 {
		t.Fatalf("unexpected constants %+v %+v", clips.Visible, clips.Ghost)
	}
}

func TestSpringSettlesOnTarget(t *testing.T) {
	s := NewSpring(DragSpring, V3(0, 0, 1))
	s.Animate(V3(100, -50, 1))
	p := s.Step(16 * time.Millisecond)
	if p.X <= 0 || p.X >= 100 {
		t.Fatalf("spring should be moving toward the target, at %+v", p)
	}
	for i := 0; i < 200 && !s.Settled(); i++ {
		s.Step(16 * time.Millisecond)
	}
	if !s.Settled() || s.Position() != V3(100, -50, 1) {
		t.Fatalf("spring did not settle: %+v", s.Position())
	}
}

func TestSpringSetIsImmediate(t *testing.T) {
	s := NewSpring(DragSpring, V3(0, 0, 0))
	s.Set(V3(5, 5, 0))
	if !s.Settled() || s.Step(time.Millisecond) != V3(5, 5, 0) {
		t.Fatalf("Set should jump without animation")
	}
}

func TestRectHelpers(t *testing.T) {
	r := Centered(0, 0, 100, 50)
	if r.X != -50 || r.Y != -25 || r.Center() != V2(0, 0) {
		t.Fatalf("unexpected rect %+v", r)
	}
	if !r.Contains(V2(50, 25)) || r.Contains(V2(51, 0)) {
		t.Fatalf("contains mismatch")
	}
	if !r.Intersects(R(40, 0, 20, 20)) || r.Intersects(R(60, 0, 5, 5)) {
		t.Fatalf("intersects mismatch")
	}
	m := SliceToPage(1600, 900, 160, 90)
	if p := m.Apply(V2(800, 450)); p != V2(160, 0) {
		t.Fatalf("top right should map to page top right, got %+v", p)
	}
	if FloatRound(1.23456, 2) != 1.23 {
		t.Fatalf("FloatRound mismatch")
	}
}

func TestClipPolygonHalvesSquare(t *testing.T) {
	sq := R(0, 0, 10, 10).Corners()
	got := ClipPolygon(sq[:], Plane{Normal: V2(-1, 0), Constant: 5})
	if len(got) != 4 {
		t.Fatalf("clipped polygon = %v", got)
	}
	for _, p := range got {
		if p.X > 5+ClipEpsilon {
			t.Fatalf("point %v outside plane", p)
		}
	}
	if out := ClipPolygon(sq[:], Plane{Normal: V2(1, 0), Constant: -20}); len(out) != 0 {
		t.Fatalf("fully outside = %v", out)
	}
	if in := ClipPolygon(sq[:], Plane{Normal: V2(1, 0), Constant: 1}); len(in) != 4 {
		t.Fatalf("fully inside = %v", in)
	}
}
