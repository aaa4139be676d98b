/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package space

import "dekk/internal/domain"

// Space returns the current space.
func (s *Store) Space() domain.Space {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space
}

// Slices returns copies of all slices in document order.
func (s *Store) Slices() []domain.Slice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Slice, len(s.slices))
	for i, sl := range s.slices {
		out[i] = sl.Clone()
	}
	return out
}

func (s *Store) Slice(id string) (domain.Slice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.sliceIndex(id); i >= 0 {
		return s.slices[i].Clone(), true
	}
	return domain.Slice{}, false
}

// Entities returns copies of all entities in creation order.
func (s *Store) Entities() []domain.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id].Clone())
	}
	return out
}

func (s *Store) Entity(id string) (domain.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entities[id]; ok {
		return e.Clone(), true
	}
	return domain.Entity{}, false
}

// SliceEntities resolves the entity ids of slice id through the entity
// collection, in the slice's order. Ids without an entity are skipped.
func (s *Store) SliceEntities(id string) []domain.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.sliceIndex(id)
	if i < 0 {
		return nil
	}
	out := make([]domain.Entity, 0, len(s.slices[i].EntityIDs))
	for _, eid := range s.slices[i].EntityIDs {
		if e, ok := s.entities[eid]; ok {
			out = append(out, e.Clone())
		}
	}
	return out
}

// OwnerOf returns the first slice listing entityID.
func (s *Store) OwnerOf(entityID string) (domain.Slice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sl := range s.slices {
		if sl.Contains(entityID) {
			return sl.Clone(), true
		}
	}
	return domain.Slice{}, false
}
