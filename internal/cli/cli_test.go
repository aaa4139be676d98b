/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dekk/internal/domain"
	"dekk/internal/storage"
)

type env struct {
	t       *testing.T
	dir     string
	library string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DEKK_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("DEKK_CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("DEKK_LOG_LEVEL", "error")
	return &env{t: t, dir: dir, library: filepath.Join(dir, "library")}
}

func (e *env) run(args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	root := New(&out, &errOut).RootCommand()
	root.SetArgs(append([]string{"--library", e.library}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%v: %v", args, err)
	}
	return out
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestDeckLifecycle(t *testing.T) {
	e := newEnv(t)

	if out := e.mustRun("new", "--id", "demo", "Demo Deck"); !strings.Contains(out, "Created deck demo") {
		t.Fatalf("new output: %q", out)
	}
	if out := e.mustRun("list"); !strings.Contains(out, "Demo Deck") {
		t.Fatalf("list output: %q", out)
	}
	e.mustRun("text", "--preset", "Title", "demo", "slice:default", "Hello there")
	if out := e.mustRun("slice", "add", "demo"); !strings.Contains(out, "Added slice") {
		t.Fatalf("slice add output: %q", out)
	}

	pic := filepath.Join(e.dir, "green.png")
	writePNG(t, pic, 40, 20)
	if out := e.mustRun("picture", "demo", "slice:default", pic); !strings.Contains(out, "600x300") {
		t.Fatalf("picture output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(e.library, "demo", storage.AssetsDirName, "green.png")); err != nil {
		t.Fatalf("asset not copied: %v", err)
	}

	out := e.mustRun("show", "demo")
	for _, want := range []string{"Welcome to Dekk", "Hello there", "assets/green.png", "2. slice"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output misses %q:\n%s", want, out)
		}
	}
	if out := e.mustRun("search", "hello"); !strings.Contains(out, "demo") {
		t.Fatalf("search output: %q", out)
	}
	if out := e.mustRun("backups", "demo"); strings.Contains(out, "No backups") {
		t.Fatalf("expected backups after saves, got %q", out)
	}

	e.mustRun("delete", "demo")
	if out := e.mustRun("list"); !strings.Contains(out, "No decks") {
		t.Fatalf("list after delete: %q", out)
	}
}

func TestEditUnknownSlice(t *testing.T) {
	e := newEnv(t)
	e.mustRun("new", "--id", "demo", "Demo")
	_, err := e.run("text", "demo", "slice:nope", "x")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := e.run("text", "--preset", "Huge", "demo", "slice:default", "x"); err == nil {
		t.Fatalf("expected unknown preset error")
	}
	if _, err := e.run("show", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing deck, got %v", err)
	}
}

func TestExportOffline(t *testing.T) {
	e := newEnv(t)
	e.mustRun("new", "--id", "demo", "Demo")
	out := e.mustRun("export", "demo", "--offline", "-f", "png,svg", "--scale", "0.25")
	paths := strings.Fields(out)
	if len(paths) != 2 {
		t.Fatalf("expected 2 exported files, got %q", out)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("exported file %s: %v", p, err)
		}
	}
	if _, err := e.run("export", "demo", "--preset", "poster"); err == nil {
		t.Fatalf("expected unknown preset error")
	}
}

func TestPackAndImport(t *testing.T) {
	e := newEnv(t)
	e.mustRun("new", "--id", "demo", "Packed")
	pack := filepath.Join(e.dir, "demo.dekkpack")
	e.mustRun("pack", "demo", pack)

	other := &env{t: t, dir: e.dir, library: filepath.Join(e.dir, "other")}
	if out := other.mustRun("import", pack); !strings.Contains(out, "Imported Packed (demo)") {
		t.Fatalf("import output: %q", out)
	}
	if _, err := other.run("import", pack); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on second import, got %v", err)
	}
}

func TestPushAndPullReplace(t *testing.T) {
	ctx := context.Background()
	lib, err := storage.OpenLibrary(ctx, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer lib.Close()

	d := domain.NewDeck("remote-demo", "First")
	if err := pushDeck(ctx, lib, d); err != nil {
		t.Fatalf("push create: %v", err)
	}
	d.Name = "Second"
	if err := pullDeck(ctx, lib, d); err != nil {
		t.Fatalf("pull replace: %v", err)
	}
	got, err := lib.GetDeck(ctx, "remote-demo")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Second" {
		t.Fatalf("name = %q, want Second", got.Name)
	}
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t)
	want := filepath.Join(e.dir, "config.yaml")
	if out := e.mustRun("config", "path"); strings.TrimSpace(out) != want {
		t.Fatalf("config path = %q, want %q", out, want)
	}
	e.mustRun("config", "init")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := e.run("config", "init"); err == nil {
		t.Fatalf("expected error when config exists")
	}
	out := e.mustRun("config", "show")
	if !strings.Contains(out, "snap_threshold_px: 10") || !strings.Contains(out, "logging.level set by DEKK_LOG_LEVEL") {
		t.Fatalf("config show output:\n%s", out)
	}
	if _, err := e.run("config", "set-secret", "nope", "x"); err == nil {
		t.Fatalf("expected unknown secret error")
	}
}

func TestVersionAndCachePath(t *testing.T) {
	e := newEnv(t)
	if out := e.mustRun("version"); !strings.HasPrefix(out, "dekk ") {
		t.Fatalf("version output: %q", out)
	}
	if out := e.mustRun("cache", "path"); strings.TrimSpace(out) != filepath.Join(e.dir, "cache") {
		t.Fatalf("cache path output: %q", out)
	}
}

func TestDeckFamilies(t *testing.T) {
	doc := domain.DefaultDocument()
	doc.Entities = append(doc.Entities, domain.NewTextEntity("t2", domain.TextInput{
		Font: &domain.FontPatch{Family: domain.Ptr("Lobster")},
	}))
	got := deckFamilies([]string{"Roboto"}, doc)
	if strings.Join(got, ",") != "Roboto,Lobster" {
		t.Fatalf("families = %v", got)
	}
}
