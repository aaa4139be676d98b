/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"testing"
)

func TestDeckJSONRoundTrip(t *testing.T) {
	d := Deck{ID: "d1", Name: "RoundTrip", Document: DefaultDocument()}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Deck
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != d.Name || len(got.Document.Slices) != 1 || len(got.Document.Entities) != 1 {
		t.Fatalf("unexpected deck structure: %+v", got)
	}
	e := got.Document.Entities[0]
	if e.Type != EntityText || e.Text == nil || e.Picture != nil {
		t.Fatalf("entity variant lost in round trip: %+v", e)
	}
	if e.Text.Font != DefaultFont() {
		t.Fatalf("font mismatch: %+v", e.Text.Font)
	}
}

func TestNewTextEntityDefaults(t *testing.T) {
	e := NewTextEntity("e1", TextInput{})
	if e.Text.Width != 1200 || e.Text.Font.Family != "Roboto" || e.Text.Font.Size != 160 {
		t.Fatalf("unexpected defaults: %+v", e.Text)
	}
	if e.Text.AnchorX != AnchorCenter || e.Text.AnchorY != AnchorMiddle || e.Text.Content != "Text" {
		t.Fatalf("unexpected anchors/content: %+v", e.Text)
	}
	if e.Text.TextAlign != AlignCenter || e.Text.LineHeight != 1.2 || e.Text.LetterSpacing != 0 {
		t.Fatalf("unexpected paragraph defaults: %+v", e.Text)
	}
	if e.Z != 2 || e.X != 0 || e.Y != 0 {
		t.Fatalf("unexpected position: %+v", e)
	}
}

func TestNewTextEntityMergesFontKeyByKey(t *testing.T) {
	e := NewTextEntity("e1", TextInput{Width: Ptr(800.0), Font: &FontPatch{Size: Ptr(64.0), Weight: Ptr(700), Variant: Ptr("700")}})
	want := Font{Family: "Roboto", Size: 64, Weight: 700, Style: FontStyleNormal, Variant: "700"}
	if e.Text.Font != want {
		t.Fatalf("font = %+v, want %+v", e.Text.Font, want)
	}
	if e.Text.Width != 800 {
		t.Fatalf("width override lost: %v", e.Text.Width)
	}
}

func TestPatchVariantMismatchIsIgnored(t *testing.T) {
	pic := NewPictureEntity("p1", PictureInput{})
	TextPatch{X: Ptr(5.0)}.Apply(&pic)
	if pic.X != 0 {
		t.Fatalf("text patch must not touch a picture: %+v", pic)
	}
	PicturePatch{Width: Ptr(300.0), X: Ptr(7.0)}.Apply(&pic)
	if pic.X != 7 || pic.Picture.Width != 300 || pic.Picture.Height != 600 {
		t.Fatalf("picture patch mismatch: %+v %+v", pic, pic.Picture)
	}
}

func TestSlicePatchReplacesGradient(t *testing.T) {
	s := DefaultDocument().Slices[0]
	SlicePatch{Gradient: []GradientStop{{ID: "x", Color: "#fff", Stop: 0.5}}}.Apply(&s)
	if len(s.Gradient) != 1 || s.Gradient[0].ID != "x" {
		t.Fatalf("gradient not replaced: %+v", s.Gradient)
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := DefaultDocument()
	c := d.Clone()
	c.Entities[0].Text.Content = "changed"
	c.Slices[0].EntityIDs[0] = "other"
	c.Slices[0].Gradient[0].Color = "#123456"
	if d.Entities[0].Text.Content != DefaultWelcomeText || d.Slices[0].EntityIDs[0] != DefaultEntityID || d.Slices[0].Gradient[0].Color != "#ff0000" {
		t.Fatalf("clone shares memory with original")
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff8000")
	if err != nil || c != (Color{R: 255, G: 128, B: 0, A: 255}) {
		t.Fatalf("ParseHex = %+v, %v", c, err)
	}
	if c, _ := ParseHex("#0f0"); c != (Color{G: 255, A: 255}) {
		t.Fatalf("short form = %+v", c)
	}
	if _, err := ParseHex("nope"); err == nil {
		t.Fatalf("expected error for invalid color")
	}
	if got := (Color{R: 1, G: 2, B: 3, A: 255}).Hex(); got != "#010203" {
		t.Fatalf("Hex = %q", got)
	}
	if got := Lerp(Color{A: 255}, Color{R: 255, A: 255}, 0.5); got.R != 128 {
		t.Fatalf("Lerp = %+v", got)
	}
}

func TestEffectiveColors(t *testing.T) {
	sp := DefaultSpace()
	s := Slice{Color: "#abcdef"}
	bg, fg := EffectiveColors(sp, s)
	if bg != sp.BackgroundColor || fg != "#abcdef" {
		t.Fatalf("EffectiveColors = %q %q", bg, fg)
	}
	e := NewTextEntity("e", TextInput{})
	if TextColor(sp, s, e) != "#abcdef" {
		t.Fatalf("text color should inherit the slice color")
	}
}
