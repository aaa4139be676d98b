/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package space

import (
	"math"

	"dekk/internal/domain"
)

// AddGradientStop appends a black stop at 1 to slice sliceID; the first stop
// of an empty gradient sits at 0.
func (s *Store) AddGradientStop(sliceID string) (domain.GradientStop, bool) {
	stop := domain.GradientStop{ID: s.newID(), Color: domain.DefaultStopColor, Stop: 1}
	ok := s.mutateSlice("addGradientStop", sliceID, func(sl *domain.Slice) bool {
		if len(sl.Gradient) == 0 {
			stop.Stop = 0
		}
		sl.Gradient = append(sl.Gradient, stop)
		return true
	})
	if !ok {
		return domain.GradientStop{}, false
	}
	return stop, true
}

// UpdateGradientStop edits one stop. Values are stored as given; renderers
// clamp stop positions to 0..1.
func (s *Store) UpdateGradientStop(sliceID, stopID string, p domain.GradientStopPatch) bool {
	return s.mutateSlice("updateGradientStop", sliceID, func(sl *domain.Slice) bool {
		for i := range sl.Gradient {
			if sl.Gradient[i].ID == stopID {
				p.Apply(&sl.Gradient[i])
				return true
			}
		}
		return false
	})
}

// RemoveGradientStop drops one stop from the slice gradient.
func (s *Store) RemoveGradientStop(sliceID, stopID string) bool {
	return s.mutateSlice("removeGradientStop", sliceID, func(sl *domain.Slice) bool {
		for i := range sl.Gradient {
			if sl.Gradient[i].ID == stopID {
				sl.Gradient = append(sl.Gradient[:i], sl.Gradient[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SetPictureWidth sets the width of picture id and derives the height from
// aspect (width / height). A non-positive aspect uses the current proportions.
func (s *Store) SetPictureWidth(id string, width, aspect float64) bool {
	p, ok := s.picture(id)
	if !ok {
		s.missed("setPictureWidth", id)
		return false
	}
	if aspect <= 0 {
		aspect = aspectOf(p)
	}
	h := round2(width / aspect)
	return s.UpdatePictureEntity(domain.PicturePatch{Width: &width, Height: &h}, id)
}

// SetPictureHeight is SetPictureWidth for the other side.
func (s *Store) SetPictureHeight(id string, height, aspect float64) bool {
	p, ok := s.picture(id)
	if !ok {
		s.missed("setPictureHeight", id)
		return false
	}
	if aspect <= 0 {
		aspect = aspectOf(p)
	}
	w := round2(height * aspect)
	return s.UpdatePictureEntity(domain.PicturePatch{Width: &w, Height: &height}, id)
}

func (s *Store) picture(id string) (domain.PictureBody, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok || e.Picture == nil {
		return domain.PictureBody{}, false
	}
	return *e.Picture, true
}

func aspectOf(p domain.PictureBody) float64 {
	if p.Width <= 0 || p.Height <= 0 {
		return 1
	}
	return p.Width / p.Height
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// SetFontVariant switches the variant of text entity id and derives weight
// and style from it.
func (s *Store) SetFontVariant(id, variant string) bool {
	weight, style := domain.ParseVariant(variant)
	return s.UpdateTextEntity(domain.TextPatch{Font: &domain.FontPatch{
		Variant: &variant,
		Weight:  &weight,
		Style:   &style,
	}}, id)
}

// SetFontFamily switches the family and resets the variant to regular.
func (s *Store) SetFontFamily(id, family string) bool {
	return s.UpdateTextEntity(domain.TextPatch{Font: &domain.FontPatch{
		Family:  &family,
		Variant: domain.Ptr(domain.DefaultFontVariant),
		Weight:  domain.Ptr(domain.DefaultFontWeight),
		Style:   domain.Ptr(domain.FontStyleNormal),
	}}, id)
}
