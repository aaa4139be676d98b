/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"sort"

	"dekk/internal/config"
	"dekk/internal/domain"
	"dekk/internal/editor"
	"dekk/internal/storage"
	"dekk/internal/textlayout"
	"dekk/internal/vector"
)

// Options select the deck the editor opens.
type Options struct {
	Library *storage.Library
	DeckID  string
	Config  config.AppConfig
}

// EditorOptions maps the editor section of the user config.
func EditorOptions(c config.EditorConfig, scope string) editor.Options {
	return editor.Options{
		Zoom:            c.Zoom,
		SnapThresholdPx: c.SnapThresholdPx,
		SnapStep:        c.SnapStep,
		GuideGrid:       c.GuideGrid,
		HistoryMaxBytes: c.HistoryMaxBytes,
		Scope:           scope,
	}
}

// Node is one drawable of the canvas. Rect is in world units, y up, with
// (X, Y) at the bottom-left corner.
type Node struct {
	Target editor.Target
	Rect   vector.Rect
	Z      float64
	Fill   domain.Color
	Label  string
	Block  textlayout.Block
	Active bool
	// Ghost marks entities dragged outside their home slice. They are drawn
	// faint, as content outside the visible clip set.
	Ghost bool
}

// Scene is a render-ready snapshot of the editor, back to front.
type Scene struct {
	Nodes          []Node
	GuideX, GuideY *vector.Segment
}

// BuildScene reads the store through the editor's animated positions. Slices
// are ordered by z; each slice's entities follow it, ordered by z.
func BuildScene(ed *editor.Editor, lay *textlayout.Layouter) Scene {
	if lay == nil {
		lay = textlayout.New(nil)
	}
	st := ed.Store
	sp := st.Space()
	activeSlice, activeEntity := ed.State.Active()

	slices := st.Slices()
	pos := make(map[string]vector.Vec3, len(slices))
	for _, sl := range slices {
		p, ok := ed.Anim.Position(sl.ID)
		if !ok {
			p = vector.V3(sl.X, sl.Y, sl.Z)
		}
		pos[sl.ID] = p
	}
	sort.SliceStable(slices, func(i, j int) bool { return pos[slices[i].ID].Z < pos[slices[j].ID].Z })

	var sc Scene
	for _, sl := range slices {
		p := pos[sl.ID]
		bg, _ := domain.EffectiveColors(sp, sl)
		sc.Nodes = append(sc.Nodes, Node{
			Target: editor.Target{Kind: editor.TargetSlice, ID: sl.ID, Draggable: true},
			Rect:   vector.Centered(p.X, p.Y, sp.Width, sp.Height),
			Z:      p.Z,
			Fill:   domain.ParseHexOr(bg, domain.Color{R: 255, G: 255, B: 255, A: 255}),
			Active: sl.ID == activeSlice && activeEntity == "",
		})

		clips, hasClips := ed.Clips.Clips(sl.ID)
		ents := st.SliceEntities(sl.ID)
		epos := make(map[string]vector.Vec3, len(ents))
		for _, e := range ents {
			ep, ok := ed.Anim.Position(e.ID)
			if !ok {
				ep = vector.V3(e.X, e.Y, e.Z)
			}
			epos[e.ID] = ep
		}
		sort.SliceStable(ents, func(i, j int) bool { return epos[ents[i].ID].Z < epos[ents[j].ID].Z })
		for _, e := range ents {
			ep := epos[e.ID]
			world := vector.V2(p.X+ep.X, p.Y+ep.Y)
			n := Node{
				Target: editor.Target{Kind: editor.TargetEntity, ID: e.ID, SliceID: sl.ID, Draggable: true},
				Z:      ep.Z,
				Active: e.ID == activeEntity,
			}
			switch {
			case e.Text != nil:
				n.Block = lay.Layout(*e.Text)
				n.Rect = vector.R(world.X+n.Block.Left, world.Y+n.Block.Top-n.Block.Height, n.Block.Width, n.Block.Height)
				n.Fill = domain.ParseHexOr(domain.TextColor(sp, sl, e), domain.Color{A: 255})
				n.Label = e.Text.Content
			case e.Picture != nil:
				n.Rect = vector.Centered(world.X, world.Y, e.Picture.Width, e.Picture.Height)
				n.Fill = domain.Color{R: 204, G: 204, B: 204, A: 255}
				n.Label = e.Picture.Src
			default:
				continue
			}
			n.Ghost = hasClips && !clips.Visible.Inside(n.Rect.Center())
			sc.Nodes = append(sc.Nodes, n)
		}
	}
	sc.GuideX, sc.GuideY = ed.State.Guides()
	return sc
}

// Hit returns the top-most node under the world point p.
func (s Scene) Hit(p vector.Vec2) (Node, bool) {
	for i := len(s.Nodes) - 1; i >= 0; i-- {
		if s.Nodes[i].Rect.Contains(p) {
			return s.Nodes[i], true
		}
	}
	return Node{}, false
}

// dragMode is the interaction kind of the current pointer drag.
type dragMode int

const (
	dragNone dragMode = iota
	dragPan
	dragObject
	// dragCaptured swallows the gesture of a non-draggable object.
	dragCaptured
)

// Press decides what a drag starting at world point p does. Empty space
// pans; an object starts a drag, or captures the gesture without moving
// anything when it cannot be dragged.
func (s Scene) Press(d *editor.Drag, p vector.Vec2) dragMode {
	n, ok := s.Hit(p)
	switch {
	case !ok:
		return dragPan
	case d.Begin(n.Target):
		return dragObject
	default:
		return dragCaptured
	}
}
