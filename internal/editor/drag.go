/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"dekk/internal/domain"
	applog "dekk/internal/log"
	"dekk/internal/space"
	"dekk/internal/vector"
)

// TargetKind tells slices from entities.
type TargetKind int

const (
	TargetSlice TargetKind = iota
	TargetEntity
)

// Target is the object under the pointer. SliceID is the owning slice of an
// entity; when empty it is looked up in the store.
type Target struct {
	Kind      TargetKind
	ID        string
	SliceID   string
	Draggable bool
}

type Phase int

const (
	Idle Phase = iota
	Dragging
	Committing
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	}
	return "idle"
}

// Gesture is the pointer movement in screen pixels accumulated since the press.
type Gesture struct {
	MovementX, MovementY float64
}

// DragOptions tune snapping. ThresholdPx is the snap window on screen; it is
// divided by the zoom so the feel does not change when zooming.
type DragOptions struct {
	ThresholdPx float64
	Step        float64
	Grid        int
}

// DefaultDragOptions match the canvas defaults.
var DefaultDragOptions = DragOptions{ThresholdPx: 10, Step: vector.DefaultSnapStep, Grid: 4}

// Drag turns pointer gestures on slices and entities into snapped positions
// and commits the result to the store on release. It is driven from the UI
// event loop and is not safe for concurrent use.
type Drag struct {
	store   *space.Store
	state   *State
	anim    *Animator
	history *History
	opts    DragOptions
	log     *slog.Logger

	phase    Phase
	target   Target
	base     vector.Vec3
	siblings []vector.Sibling
	offset   vector.Vec2
	last     vector.Vec3
}

func NewDrag(store *space.Store, state *State, anim *Animator, history *History, opts DragOptions) *Drag {
	if opts.ThresholdPx <= 0 {
		opts.ThresholdPx = DefaultDragOptions.ThresholdPx
	}
	if opts.Step <= 0 {
		opts.Step = DefaultDragOptions.Step
	}
	if opts.Grid <= 0 {
		opts.Grid = DefaultDragOptions.Grid
	}
	return &Drag{store: store, state: state, anim: anim, history: history, opts: opts, log: applog.WithComponent("drag")}
}

func (d *Drag) Phase() Phase { return d.phase }

// Target returns the object being dragged.
func (d *Drag) Target() Target { return d.target }

// Begin starts dragging t. A non-draggable target swallows the gesture and
// nothing changes. The camera is locked until the drag ends.
func (d *Drag) Begin(t Target) bool {
	if d.phase != Idle || !t.Draggable {
		return false
	}
	sp := d.store.Space()
	switch t.Kind {
	case TargetSlice:
		sl, ok := d.store.Slice(t.ID)
		if !ok {
			return false
		}
		anchors := make([]vector.SliceAnchor, 0)
		for _, o := range d.store.Slices() {
			anchors = append(anchors, vector.SliceAnchor{ID: o.ID, X: o.X, Y: o.Y})
		}
		d.base = vector.V3(sl.X, sl.Y, sl.Z)
		d.offset = vector.Vec2{}
		d.siblings = vector.SliceSiblings(sp.Width, sp.Height, anchors)
	case TargetEntity:
		e, ok := d.store.Entity(t.ID)
		if !ok {
			return false
		}
		owner, ok := d.owner(t)
		if !ok {
			return false
		}
		t.SliceID = owner.ID
		var anchors []vector.EntityAnchor
		for _, o := range d.store.SliceEntities(owner.ID) {
			anchors = append(anchors, vector.EntityAnchor{ID: o.ID, X: o.X, Y: o.Y})
		}
		d.base = vector.V3(e.X, e.Y, e.Z)
		d.offset = vector.V2(owner.X, owner.Y)
		d.siblings = vector.EntitySiblings(sp.Width, sp.Height, d.opts.Grid, anchors)
	default:
		return false
	}
	d.target = t
	d.last = d.base
	d.phase = Dragging
	d.state.SetControllable(false)
	applog.WithOperation(d.log, "begin").Debug("drag started", slog.String("id", t.ID))
	return true
}

func (d *Drag) owner(t Target) (domain.Slice, bool) {
	if t.SliceID != "" {
		return d.store.Slice(t.SliceID)
	}
	return d.store.OwnerOf(t.ID)
}

func (d *Drag) resolve(g Gesture) (pos vector.Vec3, gx, gy vector.SnapResult, moved bool) {
	zoom := d.state.Zoom()
	mx := g.MovementX / zoom
	my := -g.MovementY / zoom
	opts := vector.SnapOptions{Threshold: d.opts.ThresholdPx / zoom, Step: d.opts.Step}
	gx = vector.Snap(d.base.X+mx, vector.AxisX, d.target.ID, d.siblings, opts)
	gy = vector.Snap(d.base.Y+my, vector.AxisY, d.target.ID, d.siblings, opts)
	return vector.V3(gx.Value, gy.Value, d.base.Z), gx, gy, mx != 0 || my != 0
}

// Update applies a gesture while the pointer is down. The snapped position is
// shown immediately and guides are published for every snapped axis once the
// pointer has moved.
func (d *Drag) Update(g Gesture) (vector.Vec3, bool) {
	if d.phase != Dragging {
		return d.last, false
	}
	pos, gx, gy, moved := d.resolve(g)
	d.last = pos
	d.anim.Set(d.target.ID, pos)
	if d.state.Controllable() {
		d.state.SetControllable(false)
	}

	var segX, segY *vector.Segment
	if moved {
		vp := d.state.WorldViewport()
		if gx.Guide != vector.AxisNone {
			s := vector.GuideX(gx.Value, d.offset, vp)
			segX = &s
		}
		if gy.Guide != vector.AxisNone {
			s := vector.GuideY(gy.Value, d.offset, vp)
			segY = &s
		}
	}
	d.state.SetGuides(segX, segY)
	return pos, true
}

// End releases the pointer. Camera control is restored, guides are cleared
// and, if the pointer moved, the snapped position is committed to the store.
// A release without movement commits nothing, so a double click never turns
// into a drag.
func (d *Drag) End(g Gesture) (vector.Vec3, bool) {
	if d.phase != Dragging {
		return d.last, false
	}
	pos, _, _, moved := d.resolve(g)
	d.phase = Committing
	d.state.SetControllable(true)
	d.state.SetGuides(nil, nil)

	committed := false
	if moved {
		if d.history != nil {
			d.history.Checkpoint("drag")
		}
		switch d.target.Kind {
		case TargetSlice:
			committed = d.store.UpdateSlice(domain.SlicePatch{X: &pos.X, Y: &pos.Y, Z: &pos.Z}, d.target.ID)
		case TargetEntity:
			committed = d.store.MoveEntity(d.target.ID, pos.X, pos.Y, pos.Z)
		}
	}
	if committed {
		d.anim.Animate(d.target.ID, pos)
	} else {
		d.anim.Animate(d.target.ID, d.base)
		pos = d.base
	}
	applog.WithOperation(d.log, "end").Debug("drag ended", slog.String("id", d.target.ID), slog.Bool("committed", committed))
	d.last = pos
	d.phase = Idle
	d.target = Target{}
	d.siblings = nil
	return pos, committed
}

// Cancel aborts a drag without committing.
func (d *Drag) Cancel() {
	if d.phase != Dragging {
		return
	}
	d.state.SetControllable(true)
	d.state.SetGuides(nil, nil)
	d.anim.Animate(d.target.ID, d.base)
	d.phase = Idle
	d.target = Target{}
	d.siblings = nil
}

// DoubleClick selects t: a slice clears the active entity, an entity also
// activates its slice. It never moves anything.
func (d *Drag) DoubleClick(t Target) {
	switch t.Kind {
	case TargetSlice:
		d.state.SetActive(t.ID, "")
	case TargetEntity:
		owner, ok := d.owner(t)
		if !ok {
			return
		}
		d.state.SetActive(owner.ID, t.ID)
	}
}
