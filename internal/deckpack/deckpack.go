/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package deckpack moves decks between machines as a single .zip holding the
// manifest and the assets folder.
package deckpack

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"dekk/internal/domain"
	applog "dekk/internal/log"
	"dekk/internal/storage"
	"dekk/internal/version"
)

// ManifestName is the human readable note at the archive root.
const ManifestName = "dekkpack.manifest.txt"

// ErrNoManifest is returned for archives without a deck manifest.
var ErrNoManifest = errors.New("pack has no " + storage.ManifestFileName)

// Pack zips deckRoot's manifest and assets folder into dest. It returns the
// number of files added, excluding the pack note.
func Pack(deckRoot, dest string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("deckpack"), "pack").With(slog.String("deck_root", deckRoot))
	if strings.TrimSpace(deckRoot) == "" {
		return 0, errors.New("deckRoot is required")
	}
	if strings.TrimSpace(dest) == "" {
		return 0, errors.New("dest is required")
	}
	h, err := storage.Open(deckRoot)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(dest)
	zf, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	note := fmt.Sprintf("Dekk deck pack\nCreated: %s\nDeck: %s (%s)\nGenerator: %s\n",
		time.Now().Format(time.RFC3339), h.Deck.ID, h.Deck.Name, version.String())
	if err := writeEntry(zw, ManifestName, strings.NewReader(note)); err != nil {
		return 0, fmt.Errorf("add note: %w", err)
	}
	// the recovered deck is packed, not a possibly corrupt deck.json
	data, err := json.MarshalIndent(h.Deck, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := writeEntry(zw, storage.ManifestFileName, strings.NewReader(string(data)+"\n")); err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	added := 1

	assets := filepath.Join(deckRoot, storage.AssetsDirName)
	err = filepath.WalkDir(assets, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(deckRoot, p)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if err := writeEntry(zw, filepath.ToSlash(rel), f); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return 0, fmt.Errorf("build zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close zip: %w", err)
	}
	l.Info("deck packed", slog.Int("files", added), slog.String("zip", dest))
	return added, nil
}

func writeEntry(zw *zip.Writer, name string, r io.Reader) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

// ReadDeck returns the deck manifest stored in a pack without extracting it.
func ReadDeck(packPath string) (domain.Deck, error) {
	r, err := zip.OpenReader(packPath)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()
	for _, f := range r.File {
		if f.Name != storage.ManifestFileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return domain.Deck{}, err
		}
		defer func() { _ = rc.Close() }()
		data, err := io.ReadAll(io.LimitReader(rc, 64<<20))
		if err != nil {
			return domain.Deck{}, err
		}
		if err := storage.ValidateManifest(data); err != nil {
			return domain.Deck{}, err
		}
		var d domain.Deck
		if err := json.Unmarshal(data, &d); err != nil {
			return domain.Deck{}, fmt.Errorf("decode manifest: %w", err)
		}
		return d, nil
	}
	return domain.Deck{}, ErrNoManifest
}

// safeRel reports the cleaned slash path of a zip entry if it is the manifest
// or lies inside the assets folder.
func safeRel(name string) (string, bool) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if clean == storage.ManifestFileName {
		return clean, true
	}
	if strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	if !strings.HasPrefix(clean, storage.AssetsDirName+"/") {
		return "", false
	}
	return clean, true
}

// Unpack extracts the manifest and assets of packPath into deckRoot. Existing
// asset files are kept; entries outside the deck layout are ignored. It
// returns the opened deck and the number of files written.
func Unpack(packPath, deckRoot string) (*storage.DeckHandle, int, error) {
	d, err := ReadDeck(packPath)
	if err != nil {
		return nil, 0, err
	}
	if _, err := storage.InitDeck(deckRoot, d); err != nil {
		return nil, 0, err
	}
	n, err := extractAssets(packPath, deckRoot)
	if err != nil {
		return nil, n + 1, err
	}
	h, err := storage.Open(deckRoot)
	if err != nil {
		return nil, n + 1, err
	}
	return h, n + 1, nil
}

// Import creates the packed deck in lib and extracts its assets. A deck with
// the same id is a conflict.
func Import(ctx context.Context, lib *storage.Library, packPath string) (*storage.DeckHandle, error) {
	d, err := ReadDeck(packPath)
	if err != nil {
		return nil, err
	}
	h, err := lib.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	if _, err := extractAssets(packPath, h.Root); err != nil {
		return nil, err
	}
	return h, nil
}

func extractAssets(packPath, deckRoot string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("deckpack"), "unpack").With(slog.String("deck_root", deckRoot))
	r, err := zip.OpenReader(packPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	written := 0
	for _, f := range r.File {
		if f.Name == ManifestName || f.FileInfo().IsDir() {
			continue
		}
		rel, ok := safeRel(f.Name)
		if !ok {
			l.Warn("skip entry outside deck layout", slog.String("entry", f.Name))
			continue
		}
		if rel == storage.ManifestFileName {
			continue
		}
		target := filepath.Join(deckRoot, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := extract(f, target); err != nil {
			return written, err
		}
		written++
	}
	l.Info("assets extracted", slog.Int("files", written))
	return written, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
