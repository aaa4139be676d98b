/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package space holds the in-memory deck document: the shared space, the
// slices and the entities placed on them. Every mutation is a named operation
// that reports whether it found its target; missing ids are no-ops.
package space

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"dekk/internal/domain"
	applog "dekk/internal/log"
)

// ChangeKind names what part of the document a change touched.
type ChangeKind string

const (
	ChangeSpace    ChangeKind = "space"
	ChangeSlice    ChangeKind = "slice"
	ChangeEntity   ChangeKind = "entity"
	ChangeDocument ChangeKind = "document"
)

// Change is delivered to subscribers after an applied mutation.
type Change struct {
	Kind ChangeKind
	Op   string
	ID   string
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc replaces the uuid generator, mostly for tests.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Store is the single source of truth for one open deck. Entities live once
// in a map keyed by id; slices only list ids. It is safe for concurrent use;
// subscribers are called synchronously on the mutating goroutine after the
// lock is released.
type Store struct {
	mu       sync.RWMutex
	space    domain.Space
	slices   []domain.Slice
	entities map[string]*domain.Entity
	order    []string

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int

	newID func() string
	log   *slog.Logger
}

// New creates a store holding a deep copy of doc.
func New(doc domain.Document, opts ...Option) *Store {
	s := &Store{
		subs:  make(map[int]func(Change)),
		newID: uuid.NewString,
		log:   applog.WithComponent("space"),
	}
	for _, o := range opts {
		o(s)
	}
	s.load(doc)
	return s
}

// NewDefault creates a store with the welcome document.
func NewDefault(opts ...Option) *Store { return New(domain.DefaultDocument(), opts...) }

func (s *Store) load(doc domain.Document) {
	d := doc.Clone()
	s.space = d.Space
	s.slices = d.Slices
	s.entities = make(map[string]*domain.Entity, len(d.Entities))
	s.order = s.order[:0]
	for i := range d.Entities {
		e := d.Entities[i]
		if _, dup := s.entities[e.ID]; dup {
			continue
		}
		s.entities[e.ID] = &e
		s.order = append(s.order, e.ID)
	}
}

// Subscribe registers fn for change notifications and returns a cancel func.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	// deliver in subscription order
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (s *Store) missed(op, id string) {
	applog.WithOperation(s.log, op).Debug("target not found", slog.String("id", id), slog.Bool("found", false))
}

func (s *Store) sliceIndex(id string) int {
	for i := range s.slices {
		if s.slices[i].ID == id {
			return i
		}
	}
	return -1
}

// Document returns a deep copy of the current document. Entities are listed
// in creation order.
func (s *Store) Document() domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := domain.Document{Space: s.space, Slices: make([]domain.Slice, len(s.slices)), Entities: make([]domain.Entity, 0, len(s.order))}
	for i, sl := range s.slices {
		d.Slices[i] = sl.Clone()
	}
	for _, id := range s.order {
		d.Entities = append(d.Entities, s.entities[id].Clone())
	}
	return d
}

// Restore replaces the whole document, e.g. on undo or after loading a deck.
func (s *Store) Restore(doc domain.Document) {
	s.mu.Lock()
	s.load(doc)
	s.mu.Unlock()
	applog.WithOperation(s.log, "restore").Debug("document restored", slog.Int("slices", len(doc.Slices)), slog.Int("entities", len(doc.Entities)))
	s.notify(Change{Kind: ChangeDocument, Op: "restore"})
}
