/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout lays out text entities: word wrap at the entity width,
// line height and letter spacing relative to the font size, alignment inside
// the box and anchoring of the box to the entity position.
package textlayout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"dekk/internal/domain"
)

// FontSpec describes a requested font. Size is in world units (pixels).
type FontSpec struct {
	Family string
	Size   float64
	Weight int // 100..900
	Italic bool
}

// SpecFor converts an entity font.
func SpecFor(f domain.Font) FontSpec {
	return FontSpec{Family: f.Family, Size: f.Size, Weight: f.Weight, Italic: f.Style == domain.FontStyleItalic}
}

// Metrics are the vertical metrics of a resolved face, in pixels.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Provider maps a FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests. It
// ignores the requested size.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Line is one laid out line. X is the offset of the line start from the box
// left edge and Baseline the distance of its baseline below the box top.
// Gap is the extra width added to each space when justified.
type Line struct {
	Text     string
	Width    float64
	X        float64
	Baseline float64
	Gap      float64
}

// Block is a laid out text entity. Left and Top place the box corner relative
// to the entity position in y-up world units.
type Block struct {
	Lines       []Line
	Width       float64
	Height      float64
	LineAdvance float64
	Left, Top   float64
	Spec        FontSpec
	Metrics     Metrics
	Spacing     float64 // letter spacing in pixels
}

// Layouter wraps and positions text bodies.
type Layouter struct{ Provider Provider }

// New returns a Layouter; a nil provider uses BasicProvider.
func New(p Provider) *Layouter {
	if p == nil {
		p = BasicProvider{}
	}
	return &Layouter{Provider: p}
}

// Layout lays out body. A zero Width disables wrapping. LineHeight and
// LetterSpacing are multiples of the font size.
func (l *Layouter) Layout(body domain.TextBody) Block {
	spec := SpecFor(body.Font)
	face, met := l.Provider.Resolve(spec)
	b := Block{Spec: spec, Metrics: met}
	size := spec.Size
	if size <= 0 {
		size = met.Ascent + met.Descent
	}
	b.Spacing = body.LetterSpacing * size
	b.LineAdvance = met.Ascent + met.Descent + met.LineGap
	if body.LineHeight > 0 {
		b.LineAdvance = body.LineHeight * size
	}
	d := &font.Drawer{Face: face}
	measure := func(s string) float64 {
		return advance(d, s) + b.Spacing*float64(utf8.RuneCountInString(s))
	}

	var texts []string
	for _, para := range strings.Split(body.Content, "\n") {
		texts = append(texts, wrap(para, body.Width, measure)...)
	}
	for _, t := range texts {
		w := measure(t)
		b.Lines = append(b.Lines, Line{Text: t, Width: w})
		if w > b.Width {
			b.Width = w
		}
	}
	if body.Width > 0 {
		b.Width = body.Width
	}
	b.Height = b.LineAdvance * float64(len(b.Lines))

	// center the glyph box inside each line advance
	pad := (b.LineAdvance - met.Ascent - met.Descent) / 2
	for i := range b.Lines {
		ln := &b.Lines[i]
		ln.Baseline = float64(i)*b.LineAdvance + pad + met.Ascent
		switch body.TextAlign {
		case domain.AlignCenter:
			ln.X = (b.Width - ln.Width) / 2
		case domain.AlignRight:
			ln.X = b.Width - ln.Width
		case domain.AlignJustify:
			if n := strings.Count(ln.Text, " "); n > 0 && i < len(b.Lines)-1 {
				ln.Gap = (b.Width - ln.Width) / float64(n)
			}
		}
	}

	switch body.AnchorX {
	case domain.AnchorCenter:
		b.Left = -b.Width / 2
	case domain.AnchorRight:
		b.Left = -b.Width
	}
	switch body.AnchorY {
	case domain.AnchorMiddle:
		b.Top = b.Height / 2
	case domain.AnchorBottom:
		b.Top = b.Height
	}
	return b
}

// Bounds returns the block rectangle in entity-local y-up coordinates as
// (minX, minY, maxX, maxY).
func (b Block) Bounds() (float64, float64, float64, float64) {
	return b.Left, b.Top - b.Height, b.Left + b.Width, b.Top
}

// wrap breaks a paragraph on spaces so each line fits maxWidth. Words wider
// than maxWidth get a line of their own.
func wrap(para string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	var out []string
	cur := words[0]
	for _, w := range words[1:] {
		next := cur + " " + w
		if maxWidth > 0 && measure(next) > maxWidth {
			out = append(out, cur)
			cur = w
			continue
		}
		cur = next
	}
	return append(out, cur)
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// Measure returns the single-line width and glyph height of s.
func Measure(p Provider, spec FontSpec, s string) (w, h float64) {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	return advance(&font.Drawer{Face: face}, s), met.Ascent + met.Descent
}
