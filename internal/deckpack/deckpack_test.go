/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package deckpack

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"dekk/internal/domain"
	"dekk/internal/storage"
)

func makeDeck(t *testing.T) *storage.DeckHandle {
	t.Helper()
	h, err := storage.InitDeck(filepath.Join(t.TempDir(), "src"), domain.NewDeck("packed", "Packed"))
	if err != nil {
		t.Fatalf("InitDeck: %v", err)
	}
	asset := filepath.Join(h.Root, storage.AssetsDirName, "img", "logo.png")
	if err := os.MkdirAll(filepath.Dir(asset), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(asset, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	return h
}

func TestPackUnpackRoundTrip(t *testing.T) {
	h := makeDeck(t)
	zipPath := filepath.Join(t.TempDir(), "out", "deck.zip")
	n, err := Pack(h.Root, zipPath)
	if err != nil || n != 2 {
		t.Fatalf("Pack = %d, %v", n, err)
	}
	d, err := ReadDeck(zipPath)
	if err != nil || d.ID != "packed" {
		t.Fatalf("ReadDeck = %+v, %v", d.ID, err)
	}
	dst := filepath.Join(t.TempDir(), "dst")
	got, written, err := Unpack(zipPath, dst)
	if err != nil || written != 2 {
		t.Fatalf("Unpack = %d, %v", written, err)
	}
	if got.Deck.Name != "Packed" {
		t.Fatalf("deck name = %q", got.Deck.Name)
	}
	b, err := os.ReadFile(filepath.Join(dst, storage.AssetsDirName, "img", "logo.png"))
	if err != nil || string(b) != "png-bytes" {
		t.Fatalf("asset = %q, %v", b, err)
	}
}

func TestUnpackSkipsEntriesOutsideLayout(t *testing.T) {
	h := makeDeck(t)
	zipPath := filepath.Join(t.TempDir(), "evil.zip")
	if _, err := Pack(h.Root, zipPath); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	// append hostile entries
	src, _ := zip.OpenReader(zipPath)
	evil := filepath.Join(t.TempDir(), "evil2.zip")
	f, _ := os.Create(evil)
	zw := zip.NewWriter(f)
	for _, e := range src.File {
		w, _ := zw.Create(e.Name)
		rc, _ := e.Open()
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		_, _ = w.Write(data)
	}
	for _, name := range []string{"../escape.txt", "assets/../../escape2.txt", "notes/readme.txt"} {
		w, _ := zw.Create(name)
		_, _ = w.Write([]byte("x"))
	}
	_ = zw.Close()
	_ = f.Close()
	_ = src.Close()

	base := t.TempDir()
	dst := filepath.Join(base, "dst")
	if _, _, err := Unpack(evil, dst); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	for _, p := range []string{filepath.Join(base, "escape.txt"), filepath.Join(base, "escape2.txt"), filepath.Join(dst, "notes")} {
		if _, err := os.Stat(p); err == nil {
			t.Fatalf("%s must not be written", p)
		}
	}
}

func TestReadDeckWithoutManifest(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.zip")
	f, _ := os.Create(p)
	zw := zip.NewWriter(f)
	_, _ = zw.Create("assets/a.png")
	_ = zw.Close()
	_ = f.Close()
	if _, err := ReadDeck(p); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("err = %v", err)
	}
}

func TestImportIntoLibrary(t *testing.T) {
	h := makeDeck(t)
	zipPath := filepath.Join(t.TempDir(), "deck.zip")
	if _, err := Pack(h.Root, zipPath); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	ctx := context.Background()
	lib, err := storage.OpenLibrary(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	defer lib.Close()

	got, err := Import(ctx, lib, zipPath)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := os.Stat(filepath.Join(got.Root, storage.AssetsDirName, "img", "logo.png")); err != nil {
		t.Fatalf("asset missing: %v", err)
	}
	list, err := lib.List(ctx)
	if err != nil || len(list) != 1 || list[0].ID != "packed" {
		t.Fatalf("List = %+v, %v", list, err)
	}
	if _, err := Import(ctx, lib, zipPath); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second import err = %v", err)
	}
}
