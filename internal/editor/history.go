/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"encoding/json"
	"log/slog"
	"time"

	"dekk/internal/domain"
	applog "dekk/internal/log"
	"dekk/internal/space"
	"dekk/internal/undo"
)

// History records document checkpoints of one deck in an undo.Manager.
type History struct {
	m     *undo.Manager
	scope string
	store *space.Store
	now   func() time.Time
	log   *slog.Logger
}

func NewHistory(m *undo.Manager, scope string, store *space.Store) *History {
	return &History{m: m, scope: scope, store: store, now: time.Now, log: applog.WithComponent("history")}
}

// Checkpoint saves the current document before a change labeled label.
func (h *History) Checkpoint(label string) {
	b, err := json.Marshal(h.store.Document())
	if err != nil {
		h.log.Error("snapshot failed", slog.String("label", label), slog.Any("err", err))
		return
	}
	h.m.Checkpoint(undo.Snapshot{Scope: h.scope, Label: label, Blob: b, TS: h.now()})
}

// Do checkpoints and then runs fn, which is expected to mutate the store.
func (h *History) Do(label string, fn func()) {
	h.Checkpoint(label)
	fn()
}

func (h *History) Undo() bool { return h.travel(h.m.Undo, "undo") }
func (h *History) Redo() bool { return h.travel(h.m.Redo, "redo") }

func (h *History) CanUndo() bool { return h.m.CanUndo(h.scope) }
func (h *History) CanRedo() bool { return h.m.CanRedo(h.scope) }

func (h *History) travel(step func(string, []byte) (undo.Snapshot, bool), op string) bool {
	cur, err := json.Marshal(h.store.Document())
	if err != nil {
		h.log.Error("snapshot failed", slog.String("op", op), slog.Any("err", err))
		return false
	}
	s, ok := step(h.scope, cur)
	if !ok {
		return false
	}
	var doc domain.Document
	if err := json.Unmarshal(s.Blob, &doc); err != nil {
		h.log.Error("restore failed", slog.String("op", op), slog.Any("err", err))
		return false
	}
	h.store.Restore(doc)
	applog.WithOperation(h.log, op).Debug("history applied", slog.String("label", s.Label))
	return true
}

// Clear forgets the deck's history.
func (h *History) Clear() { h.m.Clear(h.scope) }
