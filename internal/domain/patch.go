/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Patches carry only the fields a caller wants to change. A nil pointer leaves
// the target field untouched; nested font fields merge key by key.

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }

type FontPatch struct {
	Family  *string
	Size    *float64
	Weight  *int
	Style   *FontStyle
	Variant *string
}

func (p *FontPatch) apply(f *Font) {
	if p == nil {
		return
	}
	if p.Family != nil {
		f.Family = *p.Family
	}
	if p.Size != nil {
		f.Size = *p.Size
	}
	if p.Weight != nil {
		f.Weight = *p.Weight
	}
	if p.Style != nil {
		f.Style = *p.Style
	}
	if p.Variant != nil {
		f.Variant = *p.Variant
	}
}

// TextPatch updates a text entity. It doubles as the input of "add text".
type TextPatch struct {
	X, Y, Z       *float64
	Content       *string
	Font          *FontPatch
	Color         *string
	Width         *float64
	TextAlign     *TextAlign
	LineHeight    *float64
	LetterSpacing *float64
	AnchorX       *AnchorX
	AnchorY       *AnchorY
}

// TextInput is the caller-supplied part of a new text entity.
type TextInput = TextPatch

// Apply merges p into e. It does nothing when e is not a text entity.
func (p TextPatch) Apply(e *Entity) {
	if e == nil || e.Text == nil {
		return
	}
	applyPosition(e, p.X, p.Y, p.Z)
	t := e.Text
	if p.Content != nil {
		t.Content = *p.Content
	}
	p.Font.apply(&t.Font)
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.Width != nil {
		t.Width = *p.Width
	}
	if p.TextAlign != nil {
		t.TextAlign = *p.TextAlign
	}
	if p.LineHeight != nil {
		t.LineHeight = *p.LineHeight
	}
	if p.LetterSpacing != nil {
		t.LetterSpacing = *p.LetterSpacing
	}
	if p.AnchorX != nil {
		t.AnchorX = *p.AnchorX
	}
	if p.AnchorY != nil {
		t.AnchorY = *p.AnchorY
	}
}

// PicturePatch updates a picture entity. It doubles as the input of "add picture".
type PicturePatch struct {
	X, Y, Z       *float64
	Src           *string
	Width, Height *float64
}

// PictureInput is the caller-supplied part of a new picture entity.
type PictureInput = PicturePatch

// Apply merges p into e. It does nothing when e is not a picture entity.
func (p PicturePatch) Apply(e *Entity) {
	if e == nil || e.Picture == nil {
		return
	}
	applyPosition(e, p.X, p.Y, p.Z)
	if p.Src != nil {
		e.Picture.Src = *p.Src
	}
	if p.Width != nil {
		e.Picture.Width = *p.Width
	}
	if p.Height != nil {
		e.Picture.Height = *p.Height
	}
}

func applyPosition(e *Entity, x, y, z *float64) {
	if x != nil {
		e.X = *x
	}
	if y != nil {
		e.Y = *y
	}
	if z != nil {
		e.Z = *z
	}
}

// SlicePatch updates a slice. A non-nil Gradient replaces the whole stop list.
type SlicePatch struct {
	X, Y, Z         *float64
	BackgroundColor *string
	Color           *string
	Gradient        []GradientStop
	ShowGradient    *bool
}

// SliceInput is the caller-supplied part of a new slice.
type SliceInput = SlicePatch

func (p SlicePatch) Apply(s *Slice) {
	if s == nil {
		return
	}
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Z != nil {
		s.Z = *p.Z
	}
	if p.BackgroundColor != nil {
		s.BackgroundColor = *p.BackgroundColor
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Gradient != nil {
		s.Gradient = append([]GradientStop{}, p.Gradient...)
	}
	if p.ShowGradient != nil {
		s.ShowGradient = *p.ShowGradient
	}
}

type SpacePatch struct {
	Width, Height   *float64
	BackgroundColor *string
	Color           *string
}

func (p SpacePatch) Apply(s *Space) {
	if s == nil {
		return
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.BackgroundColor != nil {
		s.BackgroundColor = *p.BackgroundColor
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
}

// GradientStopPatch updates a single gradient stop.
type GradientStopPatch struct {
	Color *string
	Stop  *float64
}

func (p GradientStopPatch) Apply(g *GradientStop) {
	if g == nil {
		return
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
	if p.Stop != nil {
		g.Stop = *p.Stop
	}
}
