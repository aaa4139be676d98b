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
	"strings"
)

// SearchQuery describes a library search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// DeckID and Types are optional filters. Limit defaults to 100.
type SearchQuery struct {
	Text   string
	DeckID string
	Types  []string
	Limit  int
	Offset int
}

// SearchResult is one matching document.
// Snippet holds a [ ]-highlighted excerpt when Text was used.
type SearchResult struct {
	DocID   int64
	DeckID  string
	Type    string
	Path    string
	SliceID string
	Snippet string
}

// Search runs q against the index of libraryRoot.
func Search(ctx context.Context, libraryRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(libraryRoot) == "" {
		return nil, errors.New("library root is required")
	}
	db, err := InitOrOpenIndex(libraryRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	const cols = "d.doc_id, d.deck_id, d.type, d.path, COALESCE(d.slice_id,'')"
	var (
		stmt  string
		where []string
		args  []any
		order = "d.deck_id, d.doc_id"
	)
	if text := strings.TrimSpace(q.Text); text != "" {
		stmt = "SELECT " + cols + ", snippet(fts_documents, 0, '[', ']', '…', 10) " +
			"FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id"
		where = append(where, "fts_documents MATCH ?")
		args = append(args, text)
		// best matches first, stable within equal rank
		order = "bm25(fts_documents), " + order
	} else {
		stmt = "SELECT " + cols + ", '' FROM documents d"
	}
	if deck := strings.TrimSpace(q.DeckID); deck != "" {
		where = append(where, "d.deck_id = ?")
		args = append(args, deck)
	}
	if n := len(q.Types); n > 0 {
		where = append(where, "d.type IN ("+placeholders(n)+")")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := q.Limit, max(q.Offset, 0)
	if limit <= 0 {
		limit = 100
	}
	stmt += " ORDER BY " + order + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Text, err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var (
			r       SearchResult
			snippet sql.NullString
		)
		if err := rows.Scan(&r.DocID, &r.DeckID, &r.Type, &r.Path, &r.SliceID, &snippet); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		r.Snippet = snippet.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
