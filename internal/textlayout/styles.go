/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "dekk/internal/domain"

// PresetWidth is the box width of text added from a preset.
const PresetWidth = 800

// TextStyle is a named starting point for new text entities.
type TextStyle struct {
	Name    string
	Family  string
	Size    float64
	Weight  int
	Variant string
}

var builtinStyles = map[string]TextStyle{
	"Title":    {Name: "Title", Family: "Roboto", Size: 160, Weight: 900, Variant: "900"},
	"Headline": {Name: "Headline", Family: "Roboto", Size: 120, Weight: 700, Variant: "700"},
	"Subtitle": {Name: "Subtitle", Family: "Roboto", Size: 100, Weight: 400, Variant: "regular"},
	"Body":     {Name: "Body", Family: "Roboto", Size: 80, Weight: 400, Variant: "regular"},
}

// GetStyle returns a builtin preset by name.
func GetStyle(name string) (TextStyle, bool) { s, ok := builtinStyles[name]; return s, ok }

// ListStyles lists the builtin presets in menu order.
func ListStyles() []string {
	return []string{"Title", "Headline", "Subtitle", "Body"}
}

// Input builds the entity input for adding this preset: the preset name as
// content, width 800, and the preset font merged over the defaults.
func (s TextStyle) Input() domain.TextInput {
	return domain.TextInput{
		Content: domain.Ptr(s.Name),
		Width:   domain.Ptr(float64(PresetWidth)),
		Font: &domain.FontPatch{
			Family:  domain.Ptr(s.Family),
			Size:    domain.Ptr(s.Size),
			Weight:  domain.Ptr(s.Weight),
			Variant: domain.Ptr(s.Variant),
		},
	}
}
