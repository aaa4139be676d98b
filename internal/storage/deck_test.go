/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"dekk/internal/domain"
)

func TestInitDeckScaffoldsAndOpens(t *testing.T) {
	root := filepath.Join(t.TempDir(), "deck")
	h, err := InitDeck(root, domain.NewDeck("d1", "Talk"))
	if err != nil {
		t.Fatalf("InitDeck: %v", err)
	}
	for _, d := range []string{AssetsDirName, ExportsDirName, BackupsDirName} {
		if st, err := os.Stat(filepath.Join(root, d)); err != nil || !st.IsDir() {
			t.Fatalf("missing subdir %s: %v", d, err)
		}
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Deck.ID != "d1" || got.Deck.Name != "Talk" || got.Recovered {
		t.Fatalf("unexpected deck: %+v", got.Deck)
	}
	if len(got.Deck.Document.Slices) != 1 || got.Deck.Document.Slices[0].EntityIDs[0] != domain.DefaultEntityID {
		t.Fatalf("default document not preserved: %+v", got.Deck.Document.Slices)
	}
	if h.ManifestPath != filepath.Join(root, ManifestFileName) {
		t.Fatalf("manifest path = %s", h.ManifestPath)
	}
}

func TestSaveWritesBackupOfPreviousManifest(t *testing.T) {
	root := t.TempDir()
	h, err := InitDeck(root, domain.NewDeck("d1", "First"))
	if err != nil {
		t.Fatalf("InitDeck: %v", err)
	}
	if b, _ := Backups(root); len(b) != 0 {
		t.Fatalf("fresh deck should have no backups, got %v", b)
	}
	h.Deck.Name = "Second"
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := Backups(root)
	if err != nil || len(b) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", b, err)
	}
	data, _ := os.ReadFile(b[0])
	if !strings.Contains(string(data), `"First"`) {
		t.Fatalf("backup should hold the previous manifest")
	}
	// no temp files left behind
	ents, _ := os.ReadDir(root)
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left: %s", e.Name())
		}
	}
}

func TestOpenFallsBackToBackup(t *testing.T) {
	root := t.TempDir()
	h, err := InitDeck(root, domain.NewDeck("d1", "Good"))
	if err != nil {
		t.Fatalf("InitDeck: %v", err)
	}
	h.Deck.Name = "Newer"
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(h.ManifestPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !got.Recovered || got.Deck.Name != "Good" {
		t.Fatalf("expected recovery from backup, got %+v recovered=%v", got.Deck.Name, got.Recovered)
	}
}

func TestOpenWithoutBackupsFails(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ManifestFileName), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(root); err == nil || !strings.Contains(err.Error(), ErrNoBackups.Error()) {
		t.Fatalf("expected no-backups failure, got %v", err)
	}
}

func TestSaveRejectsInvalidDeck(t *testing.T) {
	root := t.TempDir()
	d := domain.NewDeck("d1", "Bad")
	d.Document.Space.BackgroundColor = "white"
	_, err := InitDeck(root, d)
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, ManifestFileName)); statErr == nil {
		t.Fatalf("invalid manifest must not be written")
	}
}

func TestSaveAsMovesHandle(t *testing.T) {
	h, err := InitDeck(t.TempDir(), domain.NewDeck("d1", "Orig"))
	if err != nil {
		t.Fatalf("InitDeck: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "copy")
	if err := SaveAs(h, dst); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if h.Root != dst {
		t.Fatalf("root not updated: %s", h.Root)
	}
	if _, err := Open(dst); err != nil {
		t.Fatalf("open copy: %v", err)
	}
}

func TestPruneBackupsKeepsNewest(t *testing.T) {
	root := t.TempDir()
	bdir := filepath.Join(root, BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	names := []string{"deck.json.20250101-000000.000.bak", "deck.json.20250102-000000.000.bak", "deck.json.20250103-000000.000.bak"}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(bdir, n), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	n, err := PruneBackups(root, 1)
	if err != nil || n != 2 {
		t.Fatalf("PruneBackups = %d, %v", n, err)
	}
	left, _ := Backups(root)
	if len(left) != 1 || filepath.Base(left[0]) != names[2] {
		t.Fatalf("unexpected remaining backups: %v", left)
	}
}

func TestWriteCopyLeavesManifest(t *testing.T) {
	h, err := InitDeck(t.TempDir(), domain.NewDeck("d1", "Orig"))
	if err != nil {
		t.Fatalf("InitDeck: %v", err)
	}
	before, _ := os.ReadFile(h.ManifestPath)
	h.Deck.Name = "Unsaved"
	p, err := WriteCopy(h, "crash-1")
	if err != nil {
		t.Fatalf("WriteCopy: %v", err)
	}
	after, _ := os.ReadFile(h.ManifestPath)
	if string(before) != string(after) {
		t.Fatalf("manifest changed")
	}
	data, _ := os.ReadFile(p)
	if !strings.Contains(string(data), "Unsaved") {
		t.Fatalf("copy does not hold the in-memory deck")
	}
}

func TestManifestConformsToSchema(t *testing.T) {
	ph, err := InitDeck(t.TempDir(), domain.NewDeck("schema", "Schema Test"))
	if err != nil {
		t.Fatalf("InitDeck error: %v", err)
	}
	data, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(DeckSchema()), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("manifest does not conform to schema")
	}
}

func TestSchemaRejectsEntityWithoutBody(t *testing.T) {
	bad := `{"id":"x","name":"n","document":{"space":{"id":"s","width":1,"height":1,"backgroundColor":"#fff","color":"#000"},
		"slices":[],"entities":[{"id":"e","type":"picture","x":0,"y":0,"z":0}]}}`
	if err := ValidateManifest([]byte(bad)); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
}
