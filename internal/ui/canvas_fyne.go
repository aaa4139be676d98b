//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"dekk/internal/domain"
	"dekk/internal/editor"
	"dekk/internal/textlayout"
	"dekk/internal/vector"
)

var (
	workspaceColor = color.NRGBA{R: 30, G: 30, B: 34, A: 255}
	activeColor    = color.NRGBA{R: 0, G: 170, B: 255, A: 255}
	guideColor     = color.NRGBA{R: 255, G: 0, B: 170, A: 255}
)

// DeckCanvas draws the slices and entities of one deck and feeds pointer
// gestures into the editor's drag controller. Dragging empty space pans,
// the wheel zooms and a double tap selects.
type DeckCanvas struct {
	widget.BaseWidget

	ed   *editor.Editor
	lay  *textlayout.Layouter
	root string

	images map[string]*canvas.Image

	mode    dragMode
	gesture editor.Gesture

	// OnSelect runs after a double tap changed the selection.
	OnSelect func(editor.Target)
}

func NewDeckCanvas(ed *editor.Editor, lay *textlayout.Layouter, deckRoot string) *DeckCanvas {
	if lay == nil {
		lay = textlayout.New(nil)
	}
	c := &DeckCanvas{ed: ed, lay: lay, root: deckRoot, images: map[string]*canvas.Image{}}
	c.ExtendBaseWidget(c)
	return c
}

// SetLayouter swaps the text layouter, e.g. once fonts are installed.
func (c *DeckCanvas) SetLayouter(l *textlayout.Layouter) {
	c.lay = l
	c.Refresh()
}

// Resize keeps the editor viewport in sync with the widget size.
func (c *DeckCanvas) Resize(s fyne.Size) {
	c.ed.State.SetViewport(editor.Size{Width: float64(s.Width), Height: float64(s.Height)})
	c.BaseWidget.Resize(s)
}

func (c *DeckCanvas) MinSize() fyne.Size { return fyne.NewSize(640, 360) }

func (c *DeckCanvas) toWorld(p fyne.Position) vector.Vec2 {
	return c.ed.State.ScreenToWorld(float64(p.X), float64(p.Y))
}

func (c *DeckCanvas) toScreen(p vector.Vec2) fyne.Position {
	x, y := c.ed.State.WorldToScreen(p)
	return fyne.NewPos(float32(x), float32(y))
}

// Dragged decides on the first event whether the press landed on an object
// or on empty space, then forwards the accumulated movement.
func (c *DeckCanvas) Dragged(e *fyne.DragEvent) {
	if c.mode == dragNone {
		start := fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY)
		c.gesture = editor.Gesture{}
		c.mode = BuildScene(c.ed, c.lay).Press(c.ed.Drag, c.toWorld(start))
	}
	switch c.mode {
	case dragObject:
		c.gesture.MovementX += float64(e.Dragged.DX)
		c.gesture.MovementY += float64(e.Dragged.DY)
		c.ed.Drag.Update(c.gesture)
	case dragPan:
		c.ed.State.Pan(float64(e.Dragged.DX), float64(e.Dragged.DY))
	}
	c.Refresh()
}

func (c *DeckCanvas) DragEnd() {
	if c.mode == dragObject {
		c.ed.Drag.End(c.gesture)
	}
	c.mode = dragNone
	c.gesture = editor.Gesture{}
	c.Refresh()
}

func (c *DeckCanvas) DoubleTapped(e *fyne.PointEvent) {
	n, ok := BuildScene(c.ed, c.lay).Hit(c.toWorld(e.Position))
	if !ok {
		return
	}
	c.ed.Drag.DoubleClick(n.Target)
	if c.OnSelect != nil {
		c.OnSelect(n.Target)
	}
	c.Refresh()
}

// Scrolled zooms around the camera center.
func (c *DeckCanvas) Scrolled(e *fyne.ScrollEvent) {
	z := c.ed.State.Zoom() * math.Pow(1.0015, float64(e.Scrolled.DY))
	c.ed.State.SetZoom(z)
	c.Refresh()
}

func (c *DeckCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(workspaceColor)
	return &deckRenderer{c: c, bg: bg, objects: []fyne.CanvasObject{bg}}
}

// picture returns the cached image object of src, resolving deck-relative
// paths against the deck folder.
func (c *DeckCanvas) picture(src string) *canvas.Image {
	if img, ok := c.images[src]; ok {
		return img
	}
	var img *canvas.Image
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "file://"):
		u, err := fstorage.ParseURI(src)
		if err != nil {
			return nil
		}
		img = canvas.NewImageFromURI(u)
	case src == "":
		return nil
	default:
		p := src
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.root, filepath.FromSlash(p))
		}
		img = canvas.NewImageFromFile(p)
	}
	img.FillMode = canvas.ImageFillStretch
	c.images[src] = img
	return img
}

type deckRenderer struct {
	c       *DeckCanvas
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *deckRenderer) Destroy()                     {}
func (r *deckRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *deckRenderer) MinSize() fyne.Size           { return r.c.MinSize() }
func (r *deckRenderer) Refresh()                     { r.Layout(r.c.Size()); canvas.Refresh(r.c) }

// Layout rebuilds the drawables from a fresh scene.
func (r *deckRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	objs := []fyne.CanvasObject{r.bg}

	zoom := float32(r.c.ed.State.Zoom())
	sc := BuildScene(r.c.ed, r.c.lay)
	for _, n := range sc.Nodes {
		tl := r.c.toScreen(vector.V2(n.Rect.X, n.Rect.Y+n.Rect.H))
		sz := fyne.NewSize(float32(n.Rect.W)*zoom, float32(n.Rect.H)*zoom)
		switch n.Target.Kind {
		case editor.TargetSlice:
			objs = append(objs, r.slice(n, tl, sz)...)
		case editor.TargetEntity:
			objs = append(objs, r.entity(n, tl, sz, zoom)...)
		}
		if n.Active {
			sel := canvas.NewRectangle(color.Transparent)
			sel.StrokeColor = activeColor
			sel.StrokeWidth = 2
			sel.Move(tl)
			sel.Resize(sz)
			objs = append(objs, sel)
		}
	}
	for _, g := range []*vector.Segment{sc.GuideX, sc.GuideY} {
		if g == nil {
			continue
		}
		ln := canvas.NewLine(guideColor)
		ln.StrokeWidth = 1
		ln.Position1 = r.c.toScreen(g.From.XY())
		ln.Position2 = r.c.toScreen(g.To.XY())
		objs = append(objs, ln)
	}
	r.objects = objs
}

func (r *deckRenderer) slice(n Node, tl fyne.Position, sz fyne.Size) []fyne.CanvasObject {
	sl, _ := r.c.ed.Store.Slice(n.Target.ID)
	var obj fyne.CanvasObject
	if sl.ShowGradient && len(sl.Gradient) >= 2 {
		first, last := sl.Gradient[0], sl.Gradient[0]
		for _, g := range sl.Gradient {
			if g.Stop < first.Stop {
				first = g
			}
			if g.Stop >= last.Stop {
				last = g
			}
		}
		// two-color approximation along the top-left to bottom-right diagonal
		obj = canvas.NewLinearGradient(domain.ParseHexOr(first.Color, n.Fill).NRGBA(), domain.ParseHexOr(last.Color, n.Fill).NRGBA(), 315)
	} else {
		obj = canvas.NewRectangle(n.Fill.NRGBA())
	}
	obj.Move(tl)
	obj.Resize(sz)
	return []fyne.CanvasObject{obj}
}

func (r *deckRenderer) entity(n Node, tl fyne.Position, sz fyne.Size, zoom float32) []fyne.CanvasObject {
	alpha := uint8(255)
	if n.Ghost {
		alpha = 90
	}
	e, ok := r.c.ed.Store.Entity(n.Target.ID)
	if !ok {
		return nil
	}
	if e.Picture != nil {
		if img := r.c.picture(e.Picture.Src); img != nil {
			img.Translucency = 1 - float64(alpha)/255
			img.Move(tl)
			img.Resize(sz)
			return []fyne.CanvasObject{img}
		}
		ph := canvas.NewRectangle(withAlpha(n.Fill.NRGBA(), alpha))
		ph.Move(tl)
		ph.Resize(sz)
		return []fyne.CanvasObject{ph}
	}

	b := n.Block
	col := withAlpha(n.Fill.NRGBA(), alpha)
	style := fyne.TextStyle{Bold: b.Spec.Weight >= 600, Italic: b.Spec.Italic}
	var out []fyne.CanvasObject
	for _, ln := range b.Lines {
		t := canvas.NewText(ln.Text, col)
		t.TextSize = float32(b.Spec.Size) * zoom
		t.TextStyle = style
		t.Move(fyne.NewPos(tl.X+float32(ln.X)*zoom, tl.Y+float32(ln.Baseline-b.Metrics.Ascent)*zoom))
		out = append(out, t)
	}
	return out
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = uint8(uint16(c.A) * uint16(a) / 255)
	return c
}
