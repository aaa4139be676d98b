/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Defaults of a fresh deck and of newly added entities.
const (
	DefaultSpaceWidth   = 1600
	DefaultSpaceHeight  = 900
	DefaultEntityZ      = 2
	DefaultTextWidth    = 1200
	DefaultFontFamily   = "Roboto"
	DefaultFontSize     = 160
	DefaultFontWeight   = 400
	DefaultFontVariant  = "regular"
	DefaultText         = "Text"
	DefaultLineHeight   = 1.2
	DefaultPictureSize  = 600
	DefaultPictureSrc   = "/assets/robot.png"
	DefaultSpaceID      = "space:default"
	DefaultSliceID      = "slice:default"
	DefaultEntityID     = "entity:default"
	DefaultWelcomeText  = "Welcome to Dekk"
	DefaultStopColor    = "#000000"
	SliceSpacingFactor  = 1.5
	DefaultSpaceBgColor = "#ffffff"
	DefaultSpaceFgColor = "#000000"
)

// DefaultFont is the font of new text entities.
func DefaultFont() Font {
	return Font{
		Family:  DefaultFontFamily,
		Size:    DefaultFontSize,
		Weight:  DefaultFontWeight,
		Style:   FontStyleNormal,
		Variant: DefaultFontVariant,
	}
}

// NewTextEntity builds a text entity from in, filling every unset field with
// the defaults. The font merges key by key over DefaultFont.
func NewTextEntity(id string, in TextInput) Entity {
	e := Entity{
		ID:   id,
		Type: EntityText,
		Z:    DefaultEntityZ,
		Text: &TextBody{
			Content:    DefaultText,
			Font:       DefaultFont(),
			Width:      DefaultTextWidth,
			TextAlign:  AlignCenter,
			LineHeight: DefaultLineHeight,
			AnchorX:    AnchorCenter,
			AnchorY:    AnchorMiddle,
		},
	}
	in.Apply(&e)
	return e
}

// NewPictureEntity builds a picture entity from in over the picture defaults.
func NewPictureEntity(id string, in PictureInput) Entity {
	e := Entity{
		ID:   id,
		Type: EntityPicture,
		Z:    DefaultEntityZ,
		Picture: &PictureBody{
			Src:    DefaultPictureSrc,
			Width:  DefaultPictureSize,
			Height: DefaultPictureSize,
		},
	}
	in.Apply(&e)
	return e
}

// DefaultSpace returns the canvas of a fresh deck.
func DefaultSpace() Space {
	return Space{
		ID:              DefaultSpaceID,
		Width:           DefaultSpaceWidth,
		Height:          DefaultSpaceHeight,
		BackgroundColor: DefaultSpaceBgColor,
		Color:           DefaultSpaceFgColor,
	}
}

// DefaultDocument returns the content of a fresh deck: one slice with a
// red-to-blue gradient holding a welcome text.
func DefaultDocument() Document {
	welcome := NewTextEntity(DefaultEntityID, TextInput{
		Content: Ptr(DefaultWelcomeText),
		Color:   Ptr("#ffffff"),
	})
	return Document{
		Space: DefaultSpace(),
		Slices: []Slice{{
			ID:           DefaultSliceID,
			Z:            1,
			ShowGradient: true,
			Gradient: []GradientStop{
				{ID: "0", Stop: 0, Color: "#ff0000"},
				{ID: "1", Stop: 1, Color: "#0000ff"},
			},
			EntityIDs: []string{welcome.ID},
		}},
		Entities: []Entity{welcome},
	}
}

// EffectiveColors resolves the background and foreground color of a slice,
// falling back to the space defaults.
func EffectiveColors(sp Space, s Slice) (background, foreground string) {
	background, foreground = sp.BackgroundColor, sp.Color
	if s.BackgroundColor != "" {
		background = s.BackgroundColor
	}
	if s.Color != "" {
		foreground = s.Color
	}
	return background, foreground
}

// TextColor resolves the color a text entity renders with.
func TextColor(sp Space, s Slice, e Entity) string {
	_, fg := EffectiveColors(sp, s)
	if e.Text != nil && e.Text.Color != "" {
		return e.Text.Color
	}
	return fg
}
