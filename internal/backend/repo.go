/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend is the remote deck store: a Postgres repository reached
// through pgx's database/sql driver, and an HTTP client for the deck API
// served by internal/server.
package backend

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dekk/internal/domain"
	applog "dekk/internal/log"
	"dekk/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Errors returned by Repo and Client. Both wrap the domain sentinels.
var (
	ErrNotFound = fmt.Errorf("deck %w", domain.ErrNotFound)
	ErrConflict = fmt.Errorf("deck %w", domain.ErrConflict)
)

const uniqueViolation = "23505"

// Repo stores decks in Postgres.
type Repo struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to dsn, pings it and applies the embedded migrations.
func Open(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	r := &Repo{db: db, log: applog.WithComponent("backend")}
	if err := r.migrate(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// Close closes the pool.
func (r *Repo) Close() error { return r.db.Close() }

// Ping checks the connection; the server's readiness probe uses it.
func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// migrate applies embedded SQL migrations in filename order, recording each
// in schema_migrations.
func (r *Repo) migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	applied := map[int64]bool{}
	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		v, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[v] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		r.log.Info("applying migration", slog.String("file", fname))
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, v, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

// ListDecks returns summaries, most recently updated first.
func (r *Repo) ListDecks(ctx context.Context) ([]domain.DeckSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slices, entities, updated_at FROM decks ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []domain.DeckSummary{}
	for rows.Next() {
		var s domain.DeckSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Slices, &s.Entities, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetDeck loads deck id.
func (r *Repo) GetDeck(ctx context.Context, id string) (domain.Deck, error) {
	var (
		d   domain.Deck
		raw []byte
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, document FROM decks WHERE id = $1`, id).Scan(&d.ID, &d.Name, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deck{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("get deck: %w", err)
	}
	if err := json.Unmarshal(raw, &d.Document); err != nil {
		return domain.Deck{}, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}

// CreateDeck inserts d, assigning a uuid when d.ID is empty.
func (r *Repo) CreateDeck(ctx context.Context, d domain.Deck) (domain.Deck, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	doc, err := json.Marshal(d.Document)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("encode document: %w", err)
	}
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO decks (id, name, document, slices, entities) VALUES ($1, $2, $3, $4, $5)`,
			d.ID, d.Name, doc, len(d.Document.Slices), len(d.Document.Entities)); err != nil {
			return err
		}
		return writeTexts(ctx, tx, d)
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.Deck{}, fmt.Errorf("%s: %w", d.ID, ErrConflict)
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("create deck: %w", err)
	}
	r.log.Info("deck created", slog.String("deck", d.ID))
	return d, nil
}

// UpdateDeck replaces an existing deck and bumps its version.
func (r *Repo) UpdateDeck(ctx context.Context, d domain.Deck) error {
	doc, err := json.Marshal(d.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE decks SET name=$2, document=$3, slices=$4, entities=$5, version=version+1, updated_at=now() WHERE id=$1`,
			d.ID, d.Name, doc, len(d.Document.Slices), len(d.Document.Entities))
		if err != nil {
			return fmt.Errorf("update deck: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%s: %w", d.ID, ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM deck_texts WHERE deck_id=$1`, d.ID); err != nil {
			return fmt.Errorf("clear texts: %w", err)
		}
		return writeTexts(ctx, tx, d)
	})
}

// DeleteDeck removes deck id and its texts.
func (r *Repo) DeleteDeck(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Repo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// writeTexts stores the searchable strings of d: its name and every
// non-empty text entity.
func writeTexts(ctx context.Context, tx *sql.Tx, d domain.Deck) error {
	ins := `INSERT INTO deck_texts (deck_id, doc_type, external_ref, slice_id, raw_text) VALUES ($1, $2, $3, $4, $5)`
	if s := strings.TrimSpace(d.Name); s != "" {
		if _, err := tx.ExecContext(ctx, ins, d.ID, "deck_name", "deck:name", nil, s); err != nil {
			return fmt.Errorf("insert text: %w", err)
		}
	}
	owner := map[string]string{}
	for _, sl := range d.Document.Slices {
		for _, id := range sl.EntityIDs {
			owner[id] = sl.ID
		}
	}
	for _, e := range d.Document.Entities {
		if e.Text == nil || strings.TrimSpace(e.Text.Content) == "" {
			continue
		}
		var slice any
		if sid, ok := owner[e.ID]; ok {
			slice = sid
		}
		if _, err := tx.ExecContext(ctx, ins, d.ID, "text", "entity:"+e.ID, slice, strings.TrimSpace(e.Text.Content)); err != nil {
			return fmt.Errorf("insert text: %w", err)
		}
	}
	return nil
}

// Search runs a full-text query over deck texts and maps rows to the same
// result type the local index returns.
func (r *Repo) Search(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if strings.TrimSpace(q.Text) != "" {
		p := place(q.Text)
		b.WriteString("SELECT t.id, t.deck_id, t.doc_type, t.external_ref, COALESCE(t.slice_id,''), ")
		b.WriteString("COALESCE(ts_headline('simple', COALESCE(t.raw_text,''), plainto_tsquery('simple', " + p + "), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM deck_texts t WHERE t.search_vector @@ plainto_tsquery('simple', " + p + ") ")
	} else {
		b.WriteString("SELECT t.id, t.deck_id, t.doc_type, t.external_ref, COALESCE(t.slice_id,''), '' FROM deck_texts t WHERE true ")
	}
	if s := strings.TrimSpace(q.DeckID); s != "" {
		b.WriteString(" AND t.deck_id = " + place(s) + " ")
	}
	if len(q.Types) > 0 {
		b.WriteString(" AND t.doc_type = ANY (" + place(q.Types) + ") ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := max(q.Offset, 0)
	b.WriteString(" ORDER BY t.deck_id, t.id LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var sr storage.SearchResult
		if err := rows.Scan(&sr.DocID, &sr.DeckID, &sr.Type, &sr.Path, &sr.SliceID, &sr.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}
