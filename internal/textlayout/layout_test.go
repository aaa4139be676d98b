/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"dekk/internal/domain"
)

func body(content string, width float64) domain.TextBody {
	return domain.TextBody{
		Content:    content,
		Font:       domain.Font{Family: "Basic", Size: 10, Weight: 400, Style: domain.FontStyleNormal},
		Width:      width,
		TextAlign:  domain.AlignCenter,
		LineHeight: 1.2,
		AnchorX:    domain.AnchorCenter,
		AnchorY:    domain.AnchorMiddle,
	}
}

func TestLayoutWrapsAtWidth(t *testing.T) {
	b := New(nil).Layout(body("Hello world from Go", 50))
	want := []string{"Hello", "world", "from Go"}
	if len(b.Lines) != len(want) {
		t.Fatalf("lines = %+v", b.Lines)
	}
	for i, w := range want {
		if b.Lines[i].Text != w {
			t.Fatalf("line %d = %q, want %q", i, b.Lines[i].Text, w)
		}
	}
	if b.Width != 50 || b.LineAdvance != 12 || b.Height != 36 {
		t.Fatalf("box = %vx%v adv %v", b.Width, b.Height, b.LineAdvance)
	}
	if b.Lines[0].X != 7.5 {
		t.Fatalf("centered X = %v", b.Lines[0].X)
	}
	if b.Left != -25 || b.Top != 18 {
		t.Fatalf("anchor offset = %v,%v", b.Left, b.Top)
	}
}

func TestLayoutAnchorsAndAlign(t *testing.T) {
	in := body("Hi", 100)
	in.TextAlign = domain.AlignRight
	in.AnchorX = domain.AnchorLeft
	in.AnchorY = domain.AnchorBottom
	b := New(BasicProvider{}).Layout(in)
	if b.Lines[0].X != 100-14 {
		t.Fatalf("right aligned X = %v", b.Lines[0].X)
	}
	minX, minY, maxX, maxY := b.Bounds()
	if minX != 0 || maxX != 100 || minY != 0 || maxY != 12 {
		t.Fatalf("bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}
}

func TestLayoutLetterSpacingAndNewlines(t *testing.T) {
	in := body("Hello\nGo", 0)
	in.LetterSpacing = 0.1
	b := New(nil).Layout(in)
	if len(b.Lines) != 2 {
		t.Fatalf("explicit newline should split, got %+v", b.Lines)
	}
	if b.Lines[0].Width != 40 {
		t.Fatalf("spaced width = %v, want 40", b.Lines[0].Width)
	}
	// no wrap width: box hugs the widest line
	if b.Width != 40 {
		t.Fatalf("box width = %v", b.Width)
	}
}

func TestLayoutJustifySpreadsAllButLastLine(t *testing.T) {
	in := body("aa bb cc dd", 60)
	in.TextAlign = domain.AlignJustify
	b := New(nil).Layout(in)
	if len(b.Lines) < 2 {
		t.Fatalf("expected wrap, got %+v", b.Lines)
	}
	if b.Lines[0].Gap <= 0 {
		t.Fatalf("first line should be justified: %+v", b.Lines[0])
	}
	if b.Lines[len(b.Lines)-1].Gap != 0 {
		t.Fatalf("last line must not be justified")
	}
}

func TestMeasureDeterministic(t *testing.T) {
	w, h := Measure(BasicProvider{}, FontSpec{}, "ABC")
	if w != 21 || h != 13 {
		t.Fatalf("measure = %v,%v", w, h)
	}
}

func TestFontLibraryFallsBackToBasic(t *testing.T) {
	lib := NewFontLibrary()
	if lib.Has("Roboto", 400, false) || len(lib.Families()) != 0 {
		t.Fatalf("empty library reports fonts")
	}
	if err := lib.LoadBytes("Broken", 400, false, []byte("nope")); err == nil {
		t.Fatalf("expected parse error")
	}
	p := OTProvider{Lib: lib}
	face, m := p.Resolve(FontSpec{Family: "Roboto", Size: 40})
	if face == nil || m.Ascent != 11 {
		t.Fatalf("expected basic fallback, got %+v", m)
	}
}

func TestFontLibraryClosestWeightSource(t *testing.T) {
	lib := NewFontLibrary()
	if err := lib.LoadBytes("Go", 400, false, goregular.TTF); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	name, data, ok := lib.Source(FontSpec{Family: "Go", Weight: 700, Italic: true})
	if !ok || name != "Go-400" || len(data) != len(goregular.TTF) {
		t.Fatalf("Source = %q %d %v", name, len(data), ok)
	}
	if _, _, ok := lib.Source(FontSpec{Family: "Missing"}); ok {
		t.Fatalf("unknown family resolved")
	}
	face, m := OTProvider{Lib: lib}.Resolve(FontSpec{Family: "Go", Size: 40, Weight: 400})
	if face == nil || m.Ascent < 30 {
		t.Fatalf("opentype face metrics = %+v", m)
	}
}

func TestPresetsFeedTextInput(t *testing.T) {
	names := ListStyles()
	if len(names) != 4 || names[0] != "Title" {
		t.Fatalf("presets = %v", names)
	}
	s, ok := GetStyle("Title")
	if !ok {
		t.Fatalf("Title missing")
	}
	e := domain.NewTextEntity("t", s.Input())
	if e.Text.Content != "Title" || e.Text.Width != 800 {
		t.Fatalf("content/width = %q/%v", e.Text.Content, e.Text.Width)
	}
	f := e.Text.Font
	if f.Size != 160 || f.Weight != 900 || f.Variant != "900" || f.Style != domain.FontStyleNormal {
		t.Fatalf("font = %+v", f)
	}
	if _, ok := GetStyle("SFX"); ok {
		t.Fatalf("unexpected preset")
	}
}
