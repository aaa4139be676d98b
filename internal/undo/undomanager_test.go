/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerScope: 10, MinInterval: 10 * time.Millisecond})
	sc := "deck-1"
	t0 := time.Now()
	m.Checkpoint(Snapshot{Scope: sc, Label: "move", Blob: []byte("a"), TS: t0})
	m.Checkpoint(Snapshot{Scope: sc, Label: "move", Blob: []byte("b"), TS: t0.Add(20 * time.Millisecond)})
	if _, scopes, total := m.Stats(); scopes != 1 || total != 2 {
		t.Fatalf("expected 1 scope and 2 snapshots, got scopes=%d total=%d", scopes, total)
	}
	s, ok := m.Undo(sc, []byte("c"))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = m.Redo(sc, []byte("b"))
	if !ok || string(s.Blob) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if !m.CanUndo(sc) || m.CanRedo(sc) {
		t.Fatalf("unexpected stack state after redo")
	}
}

func TestCoalesceKeepsFirstState(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerScope: 10, MinInterval: 50 * time.Millisecond})
	sc := "deck-2"
	t0 := time.Now()
	m.Checkpoint(Snapshot{Scope: sc, Label: "font", Blob: []byte("1"), TS: t0})
	m.Checkpoint(Snapshot{Scope: sc, Label: "font", Blob: []byte("2"), TS: t0.Add(10 * time.Millisecond)})
	m.Checkpoint(Snapshot{Scope: sc, Label: "color", Blob: []byte("3"), TS: t0.Add(20 * time.Millisecond)})
	if _, _, total := m.Stats(); total != 2 {
		t.Fatalf("expected 2 snapshots after coalescing, got %d", total)
	}
	m.Undo(sc, nil)
	s, ok := m.Undo(sc, nil)
	if !ok || string(s.Blob) != "1" {
		t.Fatalf("expected first state of the burst, got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestCheckpointClearsRedo(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Checkpoint(Snapshot{Scope: "d", Blob: []byte("a"), TS: t0})
	m.Undo("d", []byte("b"))
	m.Checkpoint(Snapshot{Scope: "d", Blob: []byte("c"), TS: t0.Add(time.Second)})
	if m.CanRedo("d") {
		t.Fatalf("a new checkpoint must invalidate redo")
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerScope: 2, MinInterval: time.Millisecond})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.Checkpoint(Snapshot{Scope: "d", Blob: []byte("xxxxx"), TS: t0.Add(time.Duration(i) * time.Second)})
	}
	if _, _, total := m.Stats(); total > 2 {
		t.Fatalf("expected MaxPerScope cap to limit to 2, got %d", total)
	}
}

func TestGlobalPruneAcrossScopes(t *testing.T) {
	m := NewManager(Config{MaxBytes: 8, MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Checkpoint(Snapshot{Scope: "old", Blob: []byte("xxxx"), TS: t0})
	m.Checkpoint(Snapshot{Scope: "new", Blob: []byte("yyyy"), TS: t0.Add(time.Second)})
	m.Checkpoint(Snapshot{Scope: "new", Blob: []byte("zzzz"), TS: t0.Add(2 * time.Second)})
	if _, ok := m.Undo("old", nil); ok {
		t.Fatalf("expected the oldest scope to have been pruned")
	}
	if _, ok := m.Undo("new", nil); !ok {
		t.Fatalf("expected newer scope to keep snapshots")
	}
}

func TestClearAndStats(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MinInterval: time.Millisecond})
	m.Checkpoint(Snapshot{Scope: "d", Blob: []byte("abcdef"), TS: time.Now()})
	if tb, scopes, total := m.Stats(); tb == 0 || scopes != 1 || total != 1 {
		t.Fatalf("unexpected stats before clear: tb=%d scopes=%d total=%d", tb, scopes, total)
	}
	m.Clear("d")
	if tb, scopes, total := m.Stats(); tb != 0 || scopes != 0 || total != 0 {
		t.Fatalf("expected cleared stats to be zero, got tb=%d scopes=%d total=%d", tb, scopes, total)
	}
}
