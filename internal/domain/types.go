/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the deck data model: the shared space, the slices (slides)
// and the text/picture entities placed on them. Entities are stored once in the
// document; a slice only lists the ids of the entities it owns.

// EntityType discriminates the entity variants.
type EntityType string

const (
	EntityText    EntityType = "text"
	EntityPicture EntityType = "picture"
)

type FontStyle string

const (
	FontStyleNormal FontStyle = "normal"
	FontStyleItalic FontStyle = "italic"
)

type AnchorX string

const (
	AnchorLeft   AnchorX = "left"
	AnchorCenter AnchorX = "center"
	AnchorRight  AnchorX = "right"
)

type AnchorY string

const (
	AnchorTop    AnchorY = "top"
	AnchorMiddle AnchorY = "middle"
	AnchorBottom AnchorY = "bottom"
)

type TextAlign string

const (
	AlignLeft    TextAlign = "left"
	AlignCenter  TextAlign = "center"
	AlignJustify TextAlign = "justify"
	AlignRight   TextAlign = "right"
)

// Font describes how a text entity is typeset. Variant is the font provider's
// name for the weight/style combination ("regular", "italic", "700", "700italic").
type Font struct {
	Family  string    `json:"family"`
	Size    float64   `json:"size"`
	Weight  int       `json:"weight"`
	Style   FontStyle `json:"style"`
	Variant string    `json:"variant"`
}

// Space is the document-wide canvas: slide dimensions and default colors.
type Space struct {
	ID              string  `json:"id"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	BackgroundColor string  `json:"backgroundColor"`
	Color           string  `json:"color"`
}

// GradientStop is one color stop of a slice background gradient; Stop is in 0..1.
type GradientStop struct {
	ID    string  `json:"id"`
	Color string  `json:"color"`
	Stop  float64 `json:"stop"`
}

// Slice is a single slide positioned in world space. Its center is (X, Y);
// Z orders slices front to back.
type Slice struct {
	ID              string         `json:"id"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Z               float64        `json:"z"`
	BackgroundColor string         `json:"backgroundColor,omitempty"`
	Color           string         `json:"color,omitempty"`
	Gradient        []GradientStop `json:"gradient"`
	ShowGradient    bool           `json:"showGradient"`
	EntityIDs       []string       `json:"entityIds"`
}

// Clone returns a copy that shares no slices with s.
func (s Slice) Clone() Slice {
	c := s
	c.Gradient = append([]GradientStop(nil), s.Gradient...)
	c.EntityIDs = append([]string(nil), s.EntityIDs...)
	if c.Gradient == nil {
		c.Gradient = []GradientStop{}
	}
	if c.EntityIDs == nil {
		c.EntityIDs = []string{}
	}
	return c
}

// Contains reports whether the slice lists entity id.
func (s Slice) Contains(id string) bool {
	for _, e := range s.EntityIDs {
		if e == id {
			return true
		}
	}
	return false
}

// TextBody holds the text-only fields of an entity.
type TextBody struct {
	Content       string    `json:"content"`
	Font          Font      `json:"font"`
	Color         string    `json:"color,omitempty"` // empty inherits slice, then space color
	Width         float64   `json:"width"`
	TextAlign     TextAlign `json:"textAlign"`
	LineHeight    float64   `json:"lineHeight"`
	LetterSpacing float64   `json:"letterSpacing"`
	AnchorX       AnchorX   `json:"anchorX"`
	AnchorY       AnchorY   `json:"anchorY"`
}

// PictureBody holds the picture-only fields of an entity.
type PictureBody struct {
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Entity is a text or picture object. Exactly one of Text and Picture is set,
// matching Type. X and Y are relative to the owning slice's center.
type Entity struct {
	ID      string       `json:"id"`
	Type    EntityType   `json:"type"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Z       float64      `json:"z"`
	Text    *TextBody    `json:"text,omitempty"`
	Picture *PictureBody `json:"picture,omitempty"`
}

// Clone returns a deep copy of e.
func (e Entity) Clone() Entity {
	c := e
	if e.Text != nil {
		t := *e.Text
		c.Text = &t
	}
	if e.Picture != nil {
		p := *e.Picture
		c.Picture = &p
	}
	return c
}

// Size returns the footprint used for layout and export. Text height is not
// known without a layout pass and is reported as 0.
func (e Entity) Size() (w, h float64) {
	switch {
	case e.Text != nil:
		return e.Text.Width, 0
	case e.Picture != nil:
		return e.Picture.Width, e.Picture.Height
	}
	return 0, 0
}

// Document is the complete in-memory deck content.
type Document struct {
	Space    Space    `json:"space"`
	Slices   []Slice  `json:"slices"`
	Entities []Entity `json:"entities"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	c := Document{Space: d.Space, Slices: make([]Slice, len(d.Slices)), Entities: make([]Entity, len(d.Entities))}
	for i, s := range d.Slices {
		c.Slices[i] = s.Clone()
	}
	for i, e := range d.Entities {
		c.Entities[i] = e.Clone()
	}
	return c
}

// Deck is a named document as stored on disk or in the backend.
type Deck struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Document Document `json:"document"`
}
