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
	"sync"
	"time"

	"github.com/google/uuid"

	"dekk/internal/domain"
	applog "dekk/internal/log"
)

// Library is a directory of deck folders named by deck id, plus the shared
// index under .dekk. It is safe for concurrent use.
type Library struct {
	Root string

	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger
}

// OpenLibrary opens (creating if needed) the library at root. A corrupt index
// is rebuilt from the deck folders.
func OpenLibrary(ctx context.Context, root string) (*Library, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("library root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create library root: %w", err)
	}
	if _, err := DetectAndRebuildIndex(ctx, root); err != nil {
		return nil, err
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	return &Library{Root: root, db: db, log: applog.WithComponent("library")}, nil
}

// Close releases the index.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// DeckRoot returns the folder of deck id.
func (l *Library) DeckRoot(id string) string { return filepath.Join(l.Root, id) }

func validID(id string) bool {
	return id != "" && !strings.HasPrefix(id, ".") && filepath.Base(id) == id
}

// Create initializes a new deck folder. An empty d.ID gets a fresh uuid.
func (l *Library) Create(ctx context.Context, d domain.Deck) (*DeckHandle, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if !validID(d.ID) {
		return nil, fmt.Errorf("invalid deck id %q", d.ID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	root := l.DeckRoot(d.ID)
	if _, err := os.Stat(filepath.Join(root, ManifestFileName)); err == nil {
		return nil, fmt.Errorf("deck %s: %w", d.ID, domain.ErrConflict)
	}
	h, err := InitDeck(root, d)
	if err != nil {
		return nil, err
	}
	if err := IndexDeck(ctx, l.db, root, h.Deck, time.Now()); err != nil {
		return nil, err
	}
	l.log.Info("deck created", slog.String("deck", d.ID))
	return h, nil
}

// Open loads deck id.
func (l *Library) Open(id string) (*DeckHandle, error) {
	if !validID(id) {
		return nil, fmt.Errorf("deck %q: %w", id, domain.ErrNotFound)
	}
	root := l.DeckRoot(id)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, fmt.Errorf("deck %s: %w", id, domain.ErrNotFound)
	}
	return Open(root)
}

// Save writes h and refreshes its index entry.
func (l *Library) Save(ctx context.Context, h *DeckHandle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := Save(h); err != nil {
		l.log.Error("save failed", slog.String("deck", h.Deck.ID), slog.Any("err", err))
		return err
	}
	return IndexDeck(ctx, l.db, h.Root, h.Deck, time.Now())
}

// Delete removes the deck folder and its index entry.
func (l *Library) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("deck %q: %w", id, domain.ErrNotFound)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	root := l.DeckRoot(id)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return fmt.Errorf("deck %s: %w", id, domain.ErrNotFound)
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("remove deck folder: %w", err)
	}
	l.log.Info("deck deleted", slog.String("deck", id))
	return UnindexDeck(ctx, l.db, id)
}

// List returns the indexed decks, most recently updated first.
func (l *Library) List(ctx context.Context) ([]domain.DeckSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows, err := l.db.QueryContext(ctx, `SELECT deck_id, name, slices, entities, updated_at FROM decks ORDER BY updated_at DESC, deck_id`)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()
	out := []domain.DeckSummary{}
	for rows.Next() {
		var s domain.DeckSummary
		var ts string
		if err := rows.Scan(&s.ID, &s.Name, &s.Slices, &s.Entities, &ts); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			s.UpdatedAt = t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Search runs q against this library's index.
func (l *Library) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return searchDB(ctx, l.db, q)
}

// Rebuild discards the index and rescans the deck folders.
func (l *Library) Rebuild(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db != nil {
		_ = l.db.Close()
	}
	if err := RebuildIndex(ctx, l.Root); err != nil {
		return err
	}
	db, err := InitOrOpenIndex(l.Root)
	if err != nil {
		return err
	}
	l.db = db
	return nil
}

// The methods below let a Library back the deck HTTP API.

// ListDecks lists deck summaries.
func (l *Library) ListDecks(ctx context.Context) ([]domain.DeckSummary, error) { return l.List(ctx) }

// GetDeck returns deck id.
func (l *Library) GetDeck(_ context.Context, id string) (domain.Deck, error) {
	h, err := l.Open(id)
	if err != nil {
		return domain.Deck{}, err
	}
	return h.Deck, nil
}

// CreateDeck stores d as a new deck and returns it with its id.
func (l *Library) CreateDeck(ctx context.Context, d domain.Deck) (domain.Deck, error) {
	h, err := l.Create(ctx, d)
	if err != nil {
		return domain.Deck{}, err
	}
	return h.Deck, nil
}

// UpdateDeck overwrites an existing deck.
func (l *Library) UpdateDeck(ctx context.Context, d domain.Deck) error {
	h, err := l.Open(d.ID)
	if err != nil {
		return err
	}
	h.Deck = d
	return l.Save(ctx, h)
}

// DeleteDeck removes deck id.
func (l *Library) DeleteDeck(ctx context.Context, id string) error { return l.Delete(ctx, id) }
