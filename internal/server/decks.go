/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dekk/internal/domain"
	applog "dekk/internal/log"
	"dekk/internal/storage"
)

const maxDeckBody = 32 << 20

func (s *Server) listDecks(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Decks.ListDecks(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.DeckSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getDeck(w http.ResponseWriter, r *http.Request) {
	d, err := s.opts.Decks.GetDeck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) createDeck(w http.ResponseWriter, r *http.Request) {
	d, ok := s.decodeDeck(w, r)
	if !ok {
		return
	}
	out, err := s.opts.Decks.CreateDeck(r.Context(), d)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateDeck(w http.ResponseWriter, r *http.Request) {
	d, ok := s.decodeDeck(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if d.ID != "" && d.ID != id {
		writeError(w, http.StatusBadRequest, errors.New("deck id does not match path"))
		return
	}
	d.ID = id
	if err := s.opts.Decks.UpdateDeck(r.Context(), d); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Decks.DeleteDeck(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := storage.SearchQuery{Text: v.Get("q"), DeckID: v.Get("deck")}
	if t := v.Get("type"); t != "" {
		q.Types = []string{t}
	}
	q.Limit, _ = strconv.Atoi(v.Get("limit"))
	q.Offset, _ = strconv.Atoi(v.Get("offset"))
	res, err := s.opts.Search.Search(r.Context(), q)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if res == nil {
		res = []storage.SearchResult{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) decodeDeck(w http.ResponseWriter, r *http.Request) (domain.Deck, bool) {
	var d domain.Deck
	dec := json.NewDecoder(io.LimitReader(r.Body, maxDeckBody))
	if err := dec.Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return d, false
	}
	return d, true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, storage.ErrInvalidManifest):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		applog.WithOperation(s.log, "decks").Error("deck store failed",
			slog.String("path", r.URL.Path), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeRaw(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
