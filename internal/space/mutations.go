/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package space

import (
	"log/slog"

	"dekk/internal/domain"
	applog "dekk/internal/log"
)

// AddTextEntity creates a text entity from in over the text defaults and
// appends it to slice parentID. Nothing is added when the slice is unknown.
func (s *Store) AddTextEntity(in domain.TextInput, parentID string) (domain.Entity, bool) {
	return s.addEntity("addTextEntity", parentID, func(id string) domain.Entity {
		return domain.NewTextEntity(id, in)
	})
}

// AddPictureEntity is AddTextEntity for pictures.
func (s *Store) AddPictureEntity(in domain.PictureInput, parentID string) (domain.Entity, bool) {
	return s.addEntity("addPictureEntity", parentID, func(id string) domain.Entity {
		return domain.NewPictureEntity(id, in)
	})
}

func (s *Store) addEntity(op, parentID string, build func(id string) domain.Entity) (domain.Entity, bool) {
	s.mu.Lock()
	i := s.sliceIndex(parentID)
	if i < 0 {
		s.mu.Unlock()
		s.missed(op, parentID)
		return domain.Entity{}, false
	}
	e := build(s.newID())
	s.entities[e.ID] = &e
	s.order = append(s.order, e.ID)
	s.slices[i].EntityIDs = append(s.slices[i].EntityIDs, e.ID)
	out := e.Clone()
	s.mu.Unlock()

	applog.WithOperation(s.log, op).Debug("entity added", slog.String("id", out.ID), slog.String("slice", parentID))
	s.notify(Change{Kind: ChangeEntity, Op: op, ID: out.ID})
	return out, true
}

// UpdateTextEntity merges p into the text entity id. The font merges key by
// key. It reports false when id is unknown or not a text entity.
func (s *Store) UpdateTextEntity(p domain.TextPatch, id string) bool {
	return s.updateEntity("updateTextEntity", id, domain.EntityText, p.Apply)
}

// UpdatePictureEntity merges p into the picture entity id.
func (s *Store) UpdatePictureEntity(p domain.PicturePatch, id string) bool {
	return s.updateEntity("updatePictureEntity", id, domain.EntityPicture, p.Apply)
}

func (s *Store) updateEntity(op, id string, kind domain.EntityType, apply func(*domain.Entity)) bool {
	s.mu.Lock()
	e, ok := s.entities[id]
	if !ok || e.Type != kind {
		s.mu.Unlock()
		s.missed(op, id)
		return false
	}
	apply(e)
	s.mu.Unlock()

	applog.WithOperation(s.log, op).Debug("entity updated", slog.String("id", id))
	s.notify(Change{Kind: ChangeEntity, Op: op, ID: id})
	return true
}

// MoveEntity sets the position of an entity of either variant. The drag
// controller commits through it.
func (s *Store) MoveEntity(id string, x, y, z float64) bool {
	s.mu.RLock()
	e, ok := s.entities[id]
	var kind domain.EntityType
	if ok {
		kind = e.Type
	}
	s.mu.RUnlock()
	switch kind {
	case domain.EntityText:
		return s.UpdateTextEntity(domain.TextPatch{X: &x, Y: &y, Z: &z}, id)
	case domain.EntityPicture:
		return s.UpdatePictureEntity(domain.PicturePatch{X: &x, Y: &y, Z: &z}, id)
	}
	s.missed("moveEntity", id)
	return false
}

// DeleteEntity removes id from the entity collection and from slice
// parentID's id list. It does nothing when id is not in the collection; the
// slice is left alone when it does not list id.
func (s *Store) DeleteEntity(id, parentID string) bool {
	s.mu.Lock()
	if _, ok := s.entities[id]; !ok {
		s.mu.Unlock()
		s.missed("deleteEntity", id)
		return false
	}
	delete(s.entities, id)
	s.order = removeString(s.order, id)
	if i := s.sliceIndex(parentID); i >= 0 {
		s.slices[i].EntityIDs = removeString(s.slices[i].EntityIDs, id)
	}
	s.mu.Unlock()

	applog.WithOperation(s.log, "deleteEntity").Debug("entity deleted", slog.String("id", id), slog.String("slice", parentID))
	s.notify(Change{Kind: ChangeEntity, Op: "deleteEntity", ID: id})
	return true
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// AddSlice places a new slice right of the right-most slice, spaced by 1.5
// space widths, at the highest z in use. Fields set in in override the
// computed placement. The first slice of an empty document lands at
// x = -1.5 * width.
func (s *Store) AddSlice(in domain.SliceInput) domain.Slice {
	s.mu.Lock()
	step := s.space.Width * domain.SliceSpacingFactor
	sl := domain.Slice{
		ID:        s.newID(),
		X:         -step,
		Gradient:  []domain.GradientStop{},
		EntityIDs: []string{},
	}
	if len(s.slices) > 0 {
		right := s.slices[0]
		top := s.slices[0].Z
		for _, c := range s.slices[1:] {
			if c.X > right.X {
				right = c
			}
			if c.Z > top {
				top = c.Z
			}
		}
		sl.X = right.X + step
		sl.Y = right.Y
		sl.Z = top
	}
	in.Apply(&sl)
	s.slices = append(s.slices, sl)
	out := sl.Clone()
	s.mu.Unlock()

	applog.WithOperation(s.log, "addSlice").Debug("slice added", slog.String("id", out.ID), slog.Float64("x", out.X), slog.Float64("z", out.Z))
	s.notify(Change{Kind: ChangeSlice, Op: "addSlice", ID: out.ID})
	return out
}

// DeleteSlice removes slice id. Its entities stay in the entity collection.
func (s *Store) DeleteSlice(id string) bool {
	s.mu.Lock()
	i := s.sliceIndex(id)
	if i < 0 {
		s.mu.Unlock()
		s.missed("deleteSlice", id)
		return false
	}
	s.slices = append(s.slices[:i], s.slices[i+1:]...)
	s.mu.Unlock()

	applog.WithOperation(s.log, "deleteSlice").Debug("slice deleted", slog.String("id", id))
	s.notify(Change{Kind: ChangeSlice, Op: "deleteSlice", ID: id})
	return true
}

// UpdateSlice merges p into slice id.
func (s *Store) UpdateSlice(p domain.SlicePatch, id string) bool {
	return s.mutateSlice("updateSlice", id, func(sl *domain.Slice) bool {
		p.Apply(sl)
		return true
	})
}

func (s *Store) mutateSlice(op, id string, fn func(*domain.Slice) bool) bool {
	s.mu.Lock()
	i := s.sliceIndex(id)
	if i < 0 || !fn(&s.slices[i]) {
		s.mu.Unlock()
		s.missed(op, id)
		return false
	}
	s.mu.Unlock()

	applog.WithOperation(s.log, op).Debug("slice updated", slog.String("id", id))
	s.notify(Change{Kind: ChangeSlice, Op: op, ID: id})
	return true
}

// UpdateSpace merges p into the space.
func (s *Store) UpdateSpace(p domain.SpacePatch) {
	s.mu.Lock()
	p.Apply(&s.space)
	id := s.space.ID
	s.mu.Unlock()

	applog.WithOperation(s.log, "updateSpace").Debug("space updated")
	s.notify(Change{Kind: ChangeSpace, Op: "updateSpace", ID: id})
}
