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
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"

	"dekk/internal/domain"
	"dekk/internal/vector"
)

func newTestCanvas(t *testing.T) *DeckCanvas {
	t.Helper()
	test.NewTempApp(t)
	ed := newSceneEditor(t)
	dc := NewDeckCanvas(ed, nil, t.TempDir())
	dc.Resize(fyne.NewSize(1600, 900))
	return dc
}

func TestDeckCanvasRendersDefaultDeck(t *testing.T) {
	dc := newTestCanvas(t)
	r := dc.CreateRenderer().(*deckRenderer)
	r.Layout(dc.Size())

	var gradients, texts int
	for _, o := range r.Objects() {
		switch o.(type) {
		case *canvas.LinearGradient:
			gradients++
		case *canvas.Text:
			texts++
		}
	}
	if gradients != 1 {
		t.Fatalf("expected the default slice gradient, got %d", gradients)
	}
	if texts == 0 {
		t.Fatalf("welcome text not drawn")
	}
}

func TestDeckCanvasDragMovesEntity(t *testing.T) {
	dc := newTestCanvas(t)
	ed := dc.ed
	x, y := ed.State.WorldToScreen(vector.V2(0, 0))
	dc.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(float32(x)+200, float32(y))},
		Dragged:    fyne.Delta{DX: 200},
	})
	if ed.State.Controllable() {
		t.Fatalf("camera must be locked while dragging")
	}
	dc.DragEnd()
	e, _ := ed.Store.Entity(domain.DefaultEntityID)
	if e.X < 200 {
		t.Fatalf("entity not moved: x=%v", e.X)
	}
	if !ed.State.Controllable() {
		t.Fatalf("camera still locked after release")
	}
}

func TestDeckCanvasDragOnEmptySpacePans(t *testing.T) {
	dc := newTestCanvas(t)
	before := dc.ed.State.Camera()
	dc.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(5, 5)},
		Dragged:    fyne.Delta{DX: 4, DY: 4},
	})
	dc.DragEnd()
	after := dc.ed.State.Camera()
	if after == before {
		t.Fatalf("camera did not pan")
	}
}
