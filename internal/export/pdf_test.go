/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"dekk/internal/domain"
	"dekk/internal/textlayout"
)

func TestWritePDF(t *testing.T) {
	h := sampleDeck(t)
	var buf bytes.Buffer
	if err := WritePDF(context.Background(), &buf, h.Deck, Options{Scale: 0.5, Loader: NewLoader(h.Root)}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}
}

func TestExportPDFEmbedsLibraryFont(t *testing.T) {
	h := sampleDeck(t)
	lib := textlayout.NewFontLibrary()
	if err := lib.LoadBytes(domain.DefaultFontFamily, 400, false, goregular.TTF); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	p, err := ExportPDF(context.Background(), h, "deck", Options{Fonts: lib})
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if p != filepath.Join(h.Root, "exports", "deck.pdf") {
		t.Fatalf("path = %s", p)
	}
	data, err := os.ReadFile(p)
	if err != nil || len(data) == 0 {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.Contains(data, []byte("FontFile2")) {
		t.Fatalf("expected an embedded TrueType font")
	}
}

func TestWritePDFUnknownSlice(t *testing.T) {
	h := sampleDeck(t)
	err := WritePDF(context.Background(), &bytes.Buffer{}, h.Deck, Options{Slices: []string{"missing"}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestBatchWebPreset(t *testing.T) {
	h := sampleDeck(t)
	paths, err := Batch(context.Background(), h, BatchOptions{Preset: PresetWeb, Options: Options{Scale: 0.1}})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	base := filepath.Join(h.Root, "exports", "web")
	want := []string{
		filepath.Join(base, "png", "slide-1.png"),
		filepath.Join(base, "png", "slide-2.png"),
		filepath.Join(base, "svg", "slide-1.svg"),
		filepath.Join(base, "svg", "slide-2.svg"),
		filepath.Join(base, "Demo Deck.zip"),
	}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Fatalf("path %d = %s, want %s", i, paths[i], p)
		}
	}
	zr, err := zip.OpenReader(want[4])
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["1.png"] || !names["2.png"] || !names["manifest.json"] {
		t.Fatalf("zip entries = %v", names)
	}
}

func TestBatchPrintPresetAndUnknownFormat(t *testing.T) {
	h := sampleDeck(t)
	paths, err := Batch(context.Background(), h, BatchOptions{Preset: PresetPrint, Options: Options{Scale: 0.2}})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(paths) != 3 || filepath.Ext(paths[0]) != ".pdf" {
		t.Fatalf("paths = %v", paths)
	}
	if _, err := Batch(context.Background(), h, BatchOptions{Formats: []string{"epub"}}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
