/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package space

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"dekk/internal/domain"
)

func seqIDs() Option {
	n := 0
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func emptyStore(t *testing.T) *Store {
	t.Helper()
	return New(domain.Document{Space: domain.DefaultSpace()}, seqIDs())
}

func TestAddTextEntityDefaults(t *testing.T) {
	s := emptyStore(t)
	s1 := s.AddSlice(domain.SliceInput{})
	e, ok := s.AddTextEntity(domain.TextInput{}, s1.ID)
	if !ok {
		t.Fatalf("expected entity to be added")
	}
	if e.Text.Width != 1200 || e.Text.Font.Family != "Roboto" || e.Text.Font.Size != 160 {
		t.Fatalf("unexpected defaults: %+v", e.Text)
	}
	if e.Text.AnchorX != domain.AnchorCenter || e.Text.AnchorY != domain.AnchorMiddle || e.Text.Content != "Text" {
		t.Fatalf("unexpected anchors or content: %+v", e.Text)
	}
	if got, ok := s.Entity(e.ID); !ok || !reflect.DeepEqual(got, e) {
		t.Fatalf("entity missing from collection: %+v", got)
	}
	se := s.SliceEntities(s1.ID)
	if len(se) != 1 || !reflect.DeepEqual(se[0], e) {
		t.Fatalf("entity missing from slice: %+v", se)
	}
}

func TestAddEntityUnknownSliceIsNoop(t *testing.T) {
	s := emptyStore(t)
	calls := 0
	s.Subscribe(func(Change) { calls++ })
	if _, ok := s.AddPictureEntity(domain.PictureInput{}, "nope"); ok {
		t.Fatalf("expected no-op for unknown slice")
	}
	if len(s.Entities()) != 0 || calls != 0 {
		t.Fatalf("store changed: entities=%d notifications=%d", len(s.Entities()), calls)
	}
}

func TestEntityMembershipIsConsistent(t *testing.T) {
	s := emptyStore(t)
	a := s.AddSlice(domain.SliceInput{})
	b := s.AddSlice(domain.SliceInput{})
	var want []string
	for i := 0; i < 3; i++ {
		e, _ := s.AddTextEntity(domain.TextInput{}, a.ID)
		want = append(want, e.ID)
		s.AddPictureEntity(domain.PictureInput{}, b.ID)
	}
	sl, _ := s.Slice(a.ID)
	if !reflect.DeepEqual(sl.EntityIDs, want) {
		t.Fatalf("entity ids = %v, want %v", sl.EntityIDs, want)
	}
	count := map[string]int{}
	for _, e := range s.Entities() {
		count[e.ID]++
	}
	for _, id := range want {
		if count[id] != 1 {
			t.Fatalf("entity %s appears %d times in collection", id, count[id])
		}
	}
	for i, e := range s.SliceEntities(a.ID) {
		if e.ID != want[i] {
			t.Fatalf("slice entity order mismatch at %d: %s", i, e.ID)
		}
	}
}

func TestUpdateSliceEmptyPatchLeavesSliceUnchanged(t *testing.T) {
	s := NewDefault()
	before, _ := json.Marshal(mustSlice(t, s, domain.DefaultSliceID))
	if !s.UpdateSlice(domain.SlicePatch{}, domain.DefaultSliceID) {
		t.Fatalf("expected applied")
	}
	after, _ := json.Marshal(mustSlice(t, s, domain.DefaultSliceID))
	if string(before) != string(after) {
		t.Fatalf("slice changed:\n%s\n%s", before, after)
	}
}

func mustSlice(t *testing.T, s *Store, id string) domain.Slice {
	t.Helper()
	sl, ok := s.Slice(id)
	if !ok {
		t.Fatalf("slice %s not found", id)
	}
	return sl
}

func TestUpdateTextEntityFontDeepMerge(t *testing.T) {
	s := NewDefault()
	before, _ := s.Entity(domain.DefaultEntityID)
	if !s.UpdateTextEntity(domain.TextPatch{Font: &domain.FontPatch{Size: domain.Ptr(10.0)}}, domain.DefaultEntityID) {
		t.Fatalf("expected applied")
	}
	after, _ := s.Entity(domain.DefaultEntityID)
	want := before.Clone()
	want.Text.Font.Size = 10
	if !reflect.DeepEqual(after, want) {
		t.Fatalf("deep merge changed more than font.size:\n got %+v\nwant %+v", after.Text, want.Text)
	}
	// the slice view resolves to the same values
	if se := s.SliceEntities(domain.DefaultSliceID); !reflect.DeepEqual(se[0], after) {
		t.Fatalf("slice view diverged: %+v", se[0].Text)
	}
}

func TestUpdateWrongVariantIsNoop(t *testing.T) {
	s := NewDefault()
	if s.UpdatePictureEntity(domain.PicturePatch{X: domain.Ptr(5.0)}, domain.DefaultEntityID) {
		t.Fatalf("picture patch must not apply to a text entity")
	}
	if s.UpdateTextEntity(domain.TextPatch{}, "missing") {
		t.Fatalf("unknown id must report not applied")
	}
}

func TestDeleteEntityFromForeignSlice(t *testing.T) {
	s := emptyStore(t)
	s1 := s.AddSlice(domain.SliceInput{})
	s2 := s.AddSlice(domain.SliceInput{})
	e1, _ := s.AddTextEntity(domain.TextInput{}, s2.ID)
	keep, _ := s.AddTextEntity(domain.TextInput{}, s1.ID)

	if !s.DeleteEntity(e1.ID, s1.ID) {
		t.Fatalf("expected applied")
	}
	if _, ok := s.Entity(e1.ID); ok {
		t.Fatalf("entity should be gone from the collection")
	}
	if got := mustSlice(t, s, s1.ID).EntityIDs; !reflect.DeepEqual(got, []string{keep.ID}) {
		t.Fatalf("unrelated slice changed: %v", got)
	}
	// s2 still lists the id but the dangling id resolves to nothing
	if len(s.SliceEntities(s2.ID)) != 0 {
		t.Fatalf("dangling id should be skipped on read")
	}
	if s.DeleteEntity(e1.ID, s2.ID) {
		t.Fatalf("second delete should be a no-op")
	}
}

func TestDeleteEntityRemovesFromOwner(t *testing.T) {
	s := NewDefault()
	s.DeleteEntity(domain.DefaultEntityID, domain.DefaultSliceID)
	if ids := mustSlice(t, s, domain.DefaultSliceID).EntityIDs; len(ids) != 0 {
		t.Fatalf("expected empty id list, got %v", ids)
	}
	if len(s.Entities()) != 0 {
		t.Fatalf("expected empty collection")
	}
}

func TestAddSlicePlacement(t *testing.T) {
	s := emptyStore(t)
	first := s.AddSlice(domain.SliceInput{})
	if first.X != -1.5*1600 || first.Y != 0 || first.Z != 0 {
		t.Fatalf("first slice at %v,%v,%v", first.X, first.Y, first.Z)
	}

	s = New(domain.Document{Space: domain.DefaultSpace(), Slices: []domain.Slice{{ID: "a", Y: 40, Z: 3}}}, seqIDs())
	next := s.AddSlice(domain.SliceInput{})
	if next.X != 1.5*1600 || next.Y != 40 || next.Z != 3 {
		t.Fatalf("next slice at %v,%v,%v", next.X, next.Y, next.Z)
	}
	if next.ShowGradient || len(next.Gradient) != 0 || len(next.EntityIDs) != 0 {
		t.Fatalf("unexpected slice defaults: %+v", next)
	}
	over := s.AddSlice(domain.SliceInput{Z: domain.Ptr(9.0), BackgroundColor: domain.Ptr("#111111")})
	if over.Z != 9 || over.X != next.X+1.5*1600 || over.BackgroundColor != "#111111" {
		t.Fatalf("override not applied: %+v", over)
	}
}

func TestAddSliceRightMostWins(t *testing.T) {
	s := New(domain.Document{Space: domain.DefaultSpace(), Slices: []domain.Slice{
		{ID: "a", X: 0, Z: 1},
		{ID: "b", X: 5000, Y: 7, Z: 4},
		{ID: "c", X: 100, Z: 2},
	}})
	n := s.AddSlice(domain.SliceInput{})
	if n.X != 5000+2400 || n.Y != 7 || n.Z != 4 {
		t.Fatalf("unexpected placement %+v", n)
	}
}

func TestDeleteSliceKeepsEntities(t *testing.T) {
	s := NewDefault()
	if !s.DeleteSlice(domain.DefaultSliceID) {
		t.Fatalf("expected applied")
	}
	if len(s.Slices()) != 0 {
		t.Fatalf("slice not removed")
	}
	if _, ok := s.Entity(domain.DefaultEntityID); !ok {
		t.Fatalf("entities are not cascaded")
	}
	if s.DeleteSlice(domain.DefaultSliceID) {
		t.Fatalf("second delete should be a no-op")
	}
}

func TestUpdateSpace(t *testing.T) {
	s := NewDefault()
	s.UpdateSpace(domain.SpacePatch{Width: domain.Ptr(1920.0)})
	sp := s.Space()
	if sp.Width != 1920 || sp.Height != 900 || sp.BackgroundColor != "#ffffff" {
		t.Fatalf("unexpected space %+v", sp)
	}
}

func TestGradientStops(t *testing.T) {
	s := emptyStore(t)
	sl := s.AddSlice(domain.SliceInput{})
	a, _ := s.AddGradientStop(sl.ID)
	b, _ := s.AddGradientStop(sl.ID)
	if a.Stop != 0 || b.Stop != 1 || a.Color != "#000000" {
		t.Fatalf("unexpected stops %+v %+v", a, b)
	}
	if !s.UpdateGradientStop(sl.ID, b.ID, domain.GradientStopPatch{Stop: domain.Ptr(1.5), Color: domain.Ptr("#ff00ff")}) {
		t.Fatalf("expected update applied")
	}
	g := mustSlice(t, s, sl.ID).Gradient
	if g[1].Stop != 1.5 || g[1].Color != "#ff00ff" {
		t.Fatalf("stop not stored as given: %+v", g[1])
	}
	if !s.RemoveGradientStop(sl.ID, a.ID) || len(mustSlice(t, s, sl.ID).Gradient) != 1 {
		t.Fatalf("stop not removed")
	}
	if s.RemoveGradientStop(sl.ID, a.ID) {
		t.Fatalf("removing a missing stop should be a no-op")
	}
}

func TestPictureSizeKeepsAspect(t *testing.T) {
	s := NewDefault()
	p, _ := s.AddPictureEntity(domain.PictureInput{Width: domain.Ptr(600.0), Height: domain.Ptr(400.0)}, domain.DefaultSliceID)
	s.SetPictureWidth(p.ID, 300, 0)
	got, _ := s.Entity(p.ID)
	if got.Picture.Width != 300 || got.Picture.Height != 200 {
		t.Fatalf("unexpected size %+v", got.Picture)
	}
	s.SetPictureHeight(p.ID, 100, 3)
	got, _ = s.Entity(p.ID)
	if got.Picture.Width != 300 || got.Picture.Height != 100 {
		t.Fatalf("unexpected size %+v", got.Picture)
	}
	s.SetPictureWidth(p.ID, 100, 3)
	got, _ = s.Entity(p.ID)
	if got.Picture.Height != 33.33 {
		t.Fatalf("height not rounded to 2 decimals: %v", got.Picture.Height)
	}
}

func TestFontVariantAndFamily(t *testing.T) {
	s := NewDefault()
	id := domain.DefaultEntityID
	s.SetFontVariant(id, "700italic")
	e, _ := s.Entity(id)
	if e.Text.Font.Weight != 700 || e.Text.Font.Style != domain.FontStyleItalic || e.Text.Font.Variant != "700italic" {
		t.Fatalf("unexpected font %+v", e.Text.Font)
	}
	s.SetFontFamily(id, "Montserrat")
	e, _ = s.Entity(id)
	want := domain.Font{Family: "Montserrat", Size: 160, Weight: 400, Style: domain.FontStyleNormal, Variant: "regular"}
	if e.Text.Font != want {
		t.Fatalf("font = %+v, want %+v", e.Text.Font, want)
	}
}

func TestMoveEntity(t *testing.T) {
	s := NewDefault()
	if !s.MoveEntity(domain.DefaultEntityID, 10, -20, 3) {
		t.Fatalf("expected applied")
	}
	e, _ := s.Entity(domain.DefaultEntityID)
	if e.X != 10 || e.Y != -20 || e.Z != 3 {
		t.Fatalf("unexpected position %+v", e)
	}
	if s.MoveEntity("missing", 1, 1, 1) {
		t.Fatalf("unknown id must be a no-op")
	}
}

func TestSubscribeAndCancel(t *testing.T) {
	s := NewDefault()
	var got []Change
	cancel := s.Subscribe(func(c Change) {
		// reads from inside a callback must not deadlock
		_ = s.Slices()
		got = append(got, c)
	})
	s.UpdateSlice(domain.SlicePatch{X: domain.Ptr(1.0)}, domain.DefaultSliceID)
	s.UpdateSlice(domain.SlicePatch{}, "missing")
	cancel()
	cancel()
	s.UpdateSpace(domain.SpacePatch{})
	if len(got) != 1 || got[0].Kind != ChangeSlice || got[0].ID != domain.DefaultSliceID || got[0].Op != "updateSlice" {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

func TestDocumentRestore(t *testing.T) {
	s := NewDefault()
	snap := s.Document()
	s.DeleteEntity(domain.DefaultEntityID, domain.DefaultSliceID)
	s.AddSlice(domain.SliceInput{})
	s.Restore(snap)
	if !reflect.DeepEqual(s.Document(), snap) {
		t.Fatalf("restore did not reproduce the snapshot")
	}
	// mutating the returned copy must not leak into the store
	snap.Entities[0].Text.Content = "mutated"
	if e, _ := s.Entity(domain.DefaultEntityID); e.Text.Content != domain.DefaultWelcomeText {
		t.Fatalf("store shares memory with snapshot")
	}
}
