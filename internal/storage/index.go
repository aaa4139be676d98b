/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dekk/internal/domain"
	applog "dekk/internal/log"
	"dekk/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores the library's derived data under the library root.
	IndexDirName  = ".dekk"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema of the library index.
	schemaVersion = 2
)

// IndexPath returns the full path to the library index database file.
func IndexPath(libraryRoot string) string {
	return filepath.Join(libraryRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures the library index exists at .dekk/index.sqlite,
// opens it in WAL mode and brings the schema up to date.
func InitOrOpenIndex(libraryRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", libraryRoot),
	)
	if strings.TrimSpace(libraryRoot) == "" {
		return nil, errors.New("library root is required")
	}
	if err := os.MkdirAll(filepath.Join(libraryRoot, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}

	path := IndexPath(libraryRoot)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh databases start at 1 and migrate forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SchemaVersion reports the schema number recorded in the index.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	cur, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_documents_slice ON documents(slice_id);`,
				`CREATE INDEX IF NOT EXISTS idx_decks_updated ON decks(updated_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the deck catalog and the searchable documents
// table with its FTS5 mirror.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS decks (
			deck_id    TEXT PRIMARY KEY,
			name       TEXT    NOT NULL,
			root       TEXT    NOT NULL,
			slices     INTEGER NOT NULL DEFAULT 0,
			entities   INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT    NOT NULL
		);`,
		// One row per searchable string: deck names and text entity content.
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id   INTEGER PRIMARY KEY,
			deck_id  TEXT NOT NULL,
			type     TEXT NOT NULL,
			path     TEXT NOT NULL,
			slice_id TEXT,
			text     TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_deck ON documents(deck_id);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			text,
			content='documents',
			content_rowid='doc_id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE OF text ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

type docRow struct {
	typ     string
	path    string
	sliceID sql.NullString
	text    string
}

// documentsFor lists the searchable strings of a deck.
func documentsFor(d domain.Deck) []docRow {
	rows := make([]docRow, 0, len(d.Document.Entities)+1)
	if s := strings.TrimSpace(d.Name); s != "" {
		rows = append(rows, docRow{typ: "deck_name", path: "deck:name", text: s})
	}
	owner := make(map[string]string, len(d.Document.Entities))
	for _, sl := range d.Document.Slices {
		for _, id := range sl.EntityIDs {
			owner[id] = sl.ID
		}
	}
	for _, e := range d.Document.Entities {
		if e.Text == nil {
			continue
		}
		s := strings.TrimSpace(e.Text.Content)
		if s == "" {
			continue
		}
		r := docRow{typ: "text", path: "entity:" + e.ID, text: s}
		if sid, ok := owner[e.ID]; ok {
			r.sliceID = sql.NullString{String: sid, Valid: true}
		}
		rows = append(rows, r)
	}
	return rows
}

// IndexDeck replaces the catalog row and searchable documents of one deck.
func IndexDeck(ctx context.Context, db *sql.DB, root string, d domain.Deck, updated time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := indexDeckTx(ctx, tx, root, d, updated); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func indexDeckTx(ctx context.Context, tx *sql.Tx, root string, d domain.Deck, updated time.Time) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO decks (deck_id, name, root, slices, entities, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(deck_id) DO UPDATE SET name=excluded.name, root=excluded.root,
			slices=excluded.slices, entities=excluded.entities, updated_at=excluded.updated_at`,
		d.ID, d.Name, root, len(d.Document.Slices), len(d.Document.Entities), updated.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("upsert deck: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE deck_id=?`, d.ID); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (deck_id, type, path, slice_id, text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range documentsFor(d) {
		if _, err := stmt.ExecContext(ctx, d.ID, r.typ, r.path, r.sliceID, r.text); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}
	return nil
}

// UnindexDeck removes a deck and its documents from the index.
func UnindexDeck(ctx context.Context, db *sql.DB, deckID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{`DELETE FROM documents WHERE deck_id=?`, `DELETE FROM decks WHERE deck_id=?`} {
		if _, err := tx.ExecContext(ctx, q, deckID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("unindex deck: %w", err)
		}
	}
	return tx.Commit()
}

// DetectAndRebuildIndex checks the index for corruption or a missing schema,
// and if needed backs it up, deletes it and rebuilds it by scanning deck
// folders under libraryRoot. It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, libraryRoot string) (bool, error) {
	path := IndexPath(libraryRoot)
	db, err := InitOrOpenIndex(libraryRoot)
	if err != nil {
		backupIndexFile(path)
		removeIndexFiles(path)
		if rbErr := RebuildIndex(ctx, libraryRoot); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM decks LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	removeIndexFiles(path)
	if err := RebuildIndex(ctx, libraryRoot); err != nil {
		return false, err
	}
	return true, nil
}

// RebuildIndex drops the derived tables and repopulates them from the deck
// folders found directly under libraryRoot.
func RebuildIndex(ctx context.Context, libraryRoot string) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_rebuild")
	db, err := InitOrOpenIndex(libraryRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	drops := []string{
		"DROP TRIGGER IF EXISTS documents_ai;",
		"DROP TRIGGER IF EXISTS documents_ad;",
		"DROP TRIGGER IF EXISTS documents_au;",
		"DROP TABLE IF EXISTS fts_documents;",
		"DROP TABLE IF EXISTS documents;",
		"DROP TABLE IF EXISTS decks;",
	}
	for _, q := range drops {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	if err := runMigrationsFrom(ctx, db, 1); err != nil {
		return err
	}
	ents, err := os.ReadDir(libraryRoot)
	if err != nil {
		return fmt.Errorf("scan library: %w", err)
	}
	n := 0
	for _, e := range ents {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		root := filepath.Join(libraryRoot, e.Name())
		if _, err := os.Stat(filepath.Join(root, ManifestFileName)); err != nil {
			continue
		}
		h, err := Open(root)
		if err != nil {
			l.Warn("skip unreadable deck", slog.String("root", root), slog.Any("err", err))
			continue
		}
		if err := IndexDeck(ctx, db, root, h.Deck, manifestModTime(h)); err != nil {
			return err
		}
		n++
	}
	l.Info("index rebuilt", slog.Int("decks", n))
	return nil
}

// runMigrationsFrom resets the recorded version and replays migrations so the
// recreated tables get their secondary indexes back.
func runMigrationsFrom(ctx context.Context, db *sql.DB, from int) error {
	if _, err := db.ExecContext(ctx, `UPDATE version SET schema=? WHERE id=1`, from); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	return runMigrations(ctx, db)
}

func manifestModTime(h *DeckHandle) time.Time {
	if fi, err := os.Stat(h.ManifestPath); err == nil {
		return fi.ModTime()
	}
	return time.Now()
}

// backupIndexFile copies the current index file into .dekk/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

func removeIndexFiles(indexPath string) {
	for _, p := range []string{indexPath, indexPath + "-wal", indexPath + "-shm"} {
		_ = os.Remove(p)
	}
}
