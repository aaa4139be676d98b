/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server is the HTTP surface of dekk: API proxies for the font
// catalog and image search, deck CRUD, and health endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dekk/internal/backend"
	"dekk/internal/domain"
	"dekk/internal/images"
	applog "dekk/internal/log"
	"dekk/internal/storage"
	"dekk/internal/version"
)

// DeckStore is implemented by storage.Library and backend.Repo.
type DeckStore interface {
	ListDecks(ctx context.Context) ([]domain.DeckSummary, error)
	GetDeck(ctx context.Context, id string) (domain.Deck, error)
	CreateDeck(ctx context.Context, d domain.Deck) (domain.Deck, error)
	UpdateDeck(ctx context.Context, d domain.Deck) error
	DeleteDeck(ctx context.Context, id string) error
}

// Searcher answers text queries over the stored decks.
type Searcher interface {
	Search(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error)
}

// FontSource returns the raw webfonts list.
type FontSource interface {
	Raw(ctx context.Context, sort string) ([]byte, error)
}

// ImageSource returns a raw photo search page.
type ImageSource interface {
	Raw(ctx context.Context, q images.Query) ([]byte, error)
}

// Options wires the server's collaborators. Nil collaborators disable their
// routes (they answer 404).
type Options struct {
	Decks  DeckStore
	Search Searcher
	Fonts  FontSource
	Images ImageSource
	// Ready reports whether the backing store is reachable.
	Ready func(ctx context.Context) error
	// Secret signs bearer tokens for /api/decks. Empty uses a development secret.
	Secret   string
	TokenTTL time.Duration
}

const devSecret = "dev-secret-change-me"

type Server struct {
	opts Options
	log  *slog.Logger
	mux  chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{opts: opts, log: applog.WithComponent("server")}
	if s.opts.Secret == "" {
		s.log.Warn("no auth secret configured; using insecure development secret")
		s.opts.Secret = devSecret
	}
	if s.opts.TokenTTL <= 0 {
		s.opts.TokenTTL = time.Hour
	}
	s.mux = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.ready)
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(version.String()))
	})

	r.Route("/api", func(r chi.Router) {
		if s.opts.Fonts != nil {
			r.Get("/googleapis/webfonts/v1/webfonts", s.webfonts)
		}
		if s.opts.Images != nil {
			r.Get("/unsplash/search/photos", s.searchPhotos)
		}
		r.Post("/auth/token", s.issueToken)
		if s.opts.Decks != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/decks", s.listDecks)
				r.Post("/decks", s.createDeck)
				r.Get("/decks/{id}", s.getDeck)
				r.Put("/decks/{id}", s.updateDeck)
				r.Delete("/decks/{id}", s.deleteDeck)
				if s.opts.Search != nil {
					r.Get("/search", s.search)
				}
			})
		}
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", slog.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
			slog.String("req_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) webfonts(w http.ResponseWriter, r *http.Request) {
	sort := r.URL.Query().Get("sort")
	if sort == "" {
		sort = "alpha"
	}
	body, err := s.opts.Fonts.Raw(r.Context(), sort)
	if err != nil {
		s.log.Warn("webfonts proxy failed", slog.Any("err", err))
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeRaw(w, body)
}

func (s *Server) searchPhotos(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := images.Query{Text: v.Get("query")}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.PerPage, _ = strconv.Atoi(v.Get("per_page"))
	body, err := s.opts.Images.Raw(r.Context(), q)
	if err != nil {
		s.log.Warn("photo search proxy failed", slog.String("query", q.Text), slog.Any("err", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeRaw(w, body)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject    string `json:"subject"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	b, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = json.Unmarshal(b, &req)
	if req.Subject == "" {
		req.Subject = "dev"
	}
	ttl := s.opts.TokenTTL
	if req.TTLSeconds > 0 && req.TTLSeconds <= 24*3600 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	exp := time.Now().Add(ttl)
	tok, err := backend.SignToken(s.opts.Secret, req.Subject, exp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      tok,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

type subjectKey struct{}

// Subject returns the authenticated token subject stored by requireAuth.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "bearer "
		if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		sub, err := backend.VerifyToken(s.opts.Secret, strings.TrimSpace(auth[len(prefix):]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, sub)))
	})
}
