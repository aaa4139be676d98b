/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestSnapWithinThreshold(t *testing.T) {
	sib := []Sibling{{ID: "a", X: 100}}
	r := Snap(95, AxisX, "m", sib, SnapOptions{Threshold: 10})
	if r.Value != 100 || r.Guide != AxisX {
		t.Fatalf("Snap(95) = %+v, want 100 with x guide", r)
	}
	r = Snap(80, AxisX, "m", sib, SnapOptions{Threshold: 10, Step: 1})
	if r.Value != 80 || r.Guide != AxisNone {
		t.Fatalf("Snap(80) = %+v, want 80 without guide", r)
	}
}

func TestSnapThresholdIsInclusive(t *testing.T) {
	sib := []Sibling{{ID: "a", Y: 50}}
	if r := Snap(60, AxisY, "m", sib, SnapOptions{Threshold: 10}); r.Value != 50 || r.Guide != AxisY {
		t.Fatalf("edge of window should snap: %+v", r)
	}
	if r := Snap(60.5, AxisY, "m", sib, SnapOptions{Threshold: 10}); r.Guide != AxisNone {
		t.Fatalf("outside window should not snap: %+v", r)
	}
}

func TestSnapExcludesSelf(t *testing.T) {
	sib := []Sibling{{ID: "m", X: 100}, {ID: "m", X: 96}}
	if r := Snap(95, AxisX, "m", sib, SnapOptions{Threshold: 10}); r.Guide != AxisNone || r.Value != 95 {
		t.Fatalf("self must never match: %+v", r)
	}
}

func TestSnapFirstMatchWins(t *testing.T) {
	sib := []Sibling{{ID: "far", X: 108}, {ID: "near", X: 101}}
	if r := Snap(100, AxisX, "m", sib, SnapOptions{Threshold: 10}); r.Value != 108 {
		t.Fatalf("first sibling in order should win, got %v", r.Value)
	}
}

func TestSnapDefaultsAndRounding(t *testing.T) {
	// default threshold 100
	if r := Snap(0, AxisX, "m", []Sibling{{ID: "a", X: 99}}, SnapOptions{}); r.Value != 99 {
		t.Fatalf("default threshold not applied: %+v", r)
	}
	if r := Snap(12.5, AxisX, "m", nil, SnapOptions{}); r.Value != 13 {
		t.Fatalf("half should round up: %v", r.Value)
	}
	if r := Snap(-12.5, AxisX, "m", nil, SnapOptions{}); r.Value != -12 {
		t.Fatalf("negative half should round toward +inf: %v", r.Value)
	}
	if r := Snap(37, AxisX, "m", nil, SnapOptions{Step: 10}); r.Value != 40 {
		t.Fatalf("step rounding: %v", r.Value)
	}
}

func TestGuidePoints(t *testing.T) {
	pts := GuidePoints(1600, 900, 4)
	if len(pts) != 25 {
		t.Fatalf("expected 25 points, got %d", len(pts))
	}
	if pts[0].ID != "__fixedGuide_-2_-2__" || pts[0].X != -800 || pts[0].Y != -450 {
		t.Fatalf("unexpected first point %+v", pts[0])
	}
	// column i=-2, row j=2
	if p := pts[4]; p.X != -800 || p.Y != 450 {
		t.Fatalf("y must follow the row index: %+v", p)
	}
	if p := pts[12]; p.X != 0 || p.Y != 0 {
		t.Fatalf("center point expected in the middle: %+v", p)
	}
}

func TestEntityAndSliceSiblings(t *testing.T) {
	es := EntitySiblings(1600, 900, 4, []EntityAnchor{{ID: "e1", X: 5, Y: 6}})
	if len(es) != 26 || es[25].ID != "e1" {
		t.Fatalf("entities must follow the guide grid: %+v", es[len(es)-1])
	}
	ss := SliceSiblings(1600, 900, []SliceAnchor{{ID: "s", X: 100, Y: 10}})
	want := []Sibling{{"s", 100, 10}, {"s", 900, 460}, {"s", -700, -440}}
	for i := range want {
		if ss[i] != want[i] {
			t.Fatalf("slice sibling %d = %+v, want %+v", i, ss[i], want[i])
		}
	}
}

func TestGuideSegments(t *testing.T) {
	vp := Viewport{Width: 400, Height: 200, Camera: V2(10, 20)}
	g := GuideX(50, V2(1000, 0), vp)
	if g.From != (Vec3{1050, -80, GuideDepth}) || g.To != (Vec3{1050, 120, GuideDepth}) {
		t.Fatalf("unexpected x guide %+v", g)
	}
	g = GuideY(5, V2(0, 100), vp)
	if g.From != (Vec3{-190, 105, GuideDepth}) || g.To != (Vec3{210, 105, GuideDepth}) {
		t.Fatalf("unexpected y guide %+v", g)
	}
}
