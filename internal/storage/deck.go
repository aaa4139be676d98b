/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dekk/internal/domain"
	applog "dekk/internal/log"
)

const (
	ManifestFileName = "deck.json"
	BackupsDirName   = "backups"
	AssetsDirName    = "assets"
	ExportsDirName   = "exports"

	backupStamp = "20060102-150405.000"
)

// ErrNoBackups is returned when a deck folder has no usable backup.
var ErrNoBackups = errors.New("no backups found")

var standardSubDirs = []string{AssetsDirName, ExportsDirName, BackupsDirName}

// DeckHandle is an open deck folder.
// Root is the deck directory containing deck.json and subfolders.
type DeckHandle struct {
	Root         string
	ManifestPath string
	Deck         domain.Deck
	// Recovered is set when Open fell back to a backup.
	Recovered bool
}

// InitDeck creates a deck folder at root, scaffolds the subfolders and writes
// the manifest.
func InitDeck(root string, d domain.Deck) (*DeckHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	h := &DeckHandle{Root: root, ManifestPath: filepath.Join(root, ManifestFileName), Deck: d}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create deck root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads the deck in root. A missing, unreadable or invalid manifest falls
// back to the newest backup that loads.
func Open(root string) (*DeckHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("root", root))
	mpath := filepath.Join(root, ManifestFileName)
	d, err := readManifest(mpath)
	if err == nil {
		return &DeckHandle{Root: root, ManifestPath: mpath, Deck: d}, nil
	}
	l.Warn("manifest unusable, trying backups", slog.Any("err", err))
	bd, berr := openFromLatestBackup(root)
	if berr != nil {
		return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
	}
	l.Info("recovered deck from backup")
	return &DeckHandle{Root: root, ManifestPath: mpath, Deck: bd, Recovered: true}, nil
}

func readManifest(path string) (domain.Deck, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Deck{}, err
	}
	return decodeManifest(b)
}

func decodeManifest(b []byte) (domain.Deck, error) {
	var d domain.Deck
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Deck{}, fmt.Errorf("parse manifest: %w", err)
	}
	if err := ValidateManifest(b); err != nil {
		return domain.Deck{}, err
	}
	return d, nil
}

// Save writes h.Deck to deck.json. The previous manifest is copied to a
// timestamped backup first; the new one replaces it via a synced temp file.
func Save(h *DeckHandle) error {
	if h == nil {
		return errors.New("nil DeckHandle")
	}
	if h.Root == "" || h.ManifestPath == "" {
		return errors.New("invalid DeckHandle: missing paths")
	}
	data, err := json.MarshalIndent(h.Deck, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	if err := ValidateManifest(data); err != nil {
		return err
	}

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(h.ManifestPath); statErr == nil {
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", ManifestFileName, time.Now().Format(backupStamp)))
		if cerr := copyFile(h.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	if err := writeAtomic(h.ManifestPath, data); err != nil {
		return err
	}
	h.Recovered = false
	return nil
}

// SaveAs moves the handle to newRoot and saves there.
func SaveAs(h *DeckHandle, newRoot string) error {
	if h == nil {
		return errors.New("nil DeckHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	h.Root = newRoot
	h.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(h)
}

// WriteCopy writes the deck next to the backups without touching deck.json.
// It returns the written path. Crash recovery uses it.
func WriteCopy(h *DeckHandle, suffix string) (string, error) {
	if h == nil {
		return "", errors.New("nil DeckHandle")
	}
	data, err := json.MarshalIndent(h.Deck, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.%s.json", ManifestFileName, suffix))
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// Backups lists the backup files of a deck, oldest first.
func Backups(root string) ([]string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// PruneBackups keeps the newest keep backups and removes the rest.
func PruneBackups(root string, keep int) (int, error) {
	all, err := Backups(root)
	if err != nil {
		return 0, err
	}
	if keep < 0 || len(all) <= keep {
		return 0, nil
	}
	removed := 0
	for _, p := range all[:len(all)-keep] {
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("remove backup: %w", err)
		}
		removed++
	}
	return removed, nil
}

func openFromLatestBackup(root string) (domain.Deck, error) {
	candidates, err := Backups(root)
	if err != nil {
		return domain.Deck{}, err
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if d, err := readManifest(candidates[i]); err == nil {
			return d, nil
		}
	}
	return domain.Deck{}, ErrNoBackups
}

// writeAtomic writes data to a synced temp file in the same directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
