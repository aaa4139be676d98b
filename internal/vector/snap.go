/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Snapping for dragged slices and entities. Each axis is resolved on its own
// against a list of sibling anchor points.

import (
	"fmt"
	"math"
)

// Axis names a coordinate axis. AxisNone means "no guide".
type Axis string

const (
	AxisNone Axis = ""
	AxisX    Axis = "x"
	AxisY    Axis = "y"
)

// Sibling is an anchor point another object can snap to. Several siblings may
// share an id (a slice contributes its center and two edge points).
type Sibling struct {
	ID string
	X  float64
	Y  float64
}

// On returns the sibling coordinate on axis a.
func (s Sibling) On(a Axis) float64 {
	if a == AxisY {
		return s.Y
	}
	return s.X
}

// Default snap parameters in world units.
const (
	DefaultSnapThreshold = 100
	DefaultSnapStep      = 1
)

// SnapOptions controls the snap window and the fallback rounding grid.
// Zero values select the defaults.
type SnapOptions struct {
	Threshold float64
	Step      float64
}

// SnapResult is the resolved coordinate. Guide is the snapped axis or AxisNone.
type SnapResult struct {
	Value float64
	Guide Axis
}

// Snap resolves candidate on axis. The first sibling (in slice order) whose
// coordinate lies within ±Threshold of candidate wins and its coordinate is
// returned verbatim. Siblings with id movingID never match. Without a match the
// candidate is rounded half up to a multiple of Step.
func Snap(candidate float64, axis Axis, movingID string, siblings []Sibling, opts SnapOptions) SnapResult {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultSnapThreshold
	}
	step := opts.Step
	if step <= 0 {
		step = DefaultSnapStep
	}
	for _, s := range siblings {
		if s.ID == movingID {
			continue
		}
		v := s.On(axis)
		if v <= candidate+threshold && v >= candidate-threshold {
			return SnapResult{Value: v, Guide: axis}
		}
	}
	return SnapResult{Value: math.Floor(candidate/step+0.5) * step}
}

// SnapPoint resolves both axes of p independently.
func SnapPoint(p Vec2, movingID string, siblings []Sibling, opts SnapOptions) (x, y SnapResult) {
	return Snap(p.X, AxisX, movingID, siblings, opts), Snap(p.Y, AxisY, movingID, siblings, opts)
}

// GuidePoints returns the fixed guide grid for a space of w×h: grid+1 points
// per axis spaced w/4 and h/4 apart around the origin, column by column.
// A grid of 0 means 4.
func GuidePoints(w, h float64, grid int) []Sibling {
	if grid <= 0 {
		grid = 4
	}
	stepX, stepY := w/4, h/4
	half := grid / 2
	pts := make([]Sibling, 0, (2*half+1)*(2*half+1))
	for i := -half; i <= half; i++ {
		for j := -half; j <= half; j++ {
			pts = append(pts, Sibling{
				ID: fmt.Sprintf("__fixedGuide_%d_%d__", i, j),
				X:  float64(i) * stepX,
				Y:  float64(j) * stepY,
			})
		}
	}
	return pts
}

// EntityAnchor is the position of a sibling entity on the same slice.
type EntityAnchor struct {
	ID   string
	X, Y float64
}

// EntitySiblings builds the snap targets for an entity dragged on a slice:
// the fixed guide grid first, then the slice's entities in slice order.
func EntitySiblings(spaceW, spaceH float64, grid int, entities []EntityAnchor) []Sibling {
	out := GuidePoints(spaceW, spaceH, grid)
	for _, e := range entities {
		out = append(out, Sibling{ID: e.ID, X: e.X, Y: e.Y})
	}
	return out
}

// SliceAnchor is the center of a slice.
type SliceAnchor struct {
	ID   string
	X, Y float64
}

// SliceSiblings builds the snap targets for a dragged slice: per slice its
// center, then center plus and minus half the space size.
func SliceSiblings(spaceW, spaceH float64, slices []SliceAnchor) []Sibling {
	out := make([]Sibling, 0, 3*len(slices))
	for _, s := range slices {
		out = append(out,
			Sibling{ID: s.ID, X: s.X, Y: s.Y},
			Sibling{ID: s.ID, X: s.X + spaceW/2, Y: s.Y + spaceH/2},
			Sibling{ID: s.ID, X: s.X - spaceW/2, Y: s.Y - spaceH/2},
		)
	}
	return out
}

// Segment is a guide line in world space.
type Segment struct {
	From, To Vec3
}

// GuideDepth keeps guide lines in front of slice content.
const GuideDepth = 200

// Viewport is the visible world area around the camera.
type Viewport struct {
	Width, Height float64
	Camera        Vec2
}

// GuideX returns the vertical guide through x (slice-local) spanning the
// viewport height. offset is the slice position for entity drags.
func GuideX(x float64, offset Vec2, vp Viewport) Segment {
	gx := x + offset.X
	return Segment{
		From: Vec3{gx, -vp.Height/2 + vp.Camera.Y, GuideDepth},
		To:   Vec3{gx, vp.Height/2 + vp.Camera.Y, GuideDepth},
	}
}

// GuideY is GuideX for the horizontal line through y.
func GuideY(y float64, offset Vec2, vp Viewport) Segment {
	gy := y + offset.Y
	return Segment{
		From: Vec3{-vp.Width/2 + vp.Camera.X, gy, GuideDepth},
		To:   Vec3{vp.Width/2 + vp.Camera.X, gy, GuideDepth},
	}
}
