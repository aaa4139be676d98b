/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fonts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"dekk/internal/domain"
	"dekk/internal/textlayout"
)

func TestCSSURLSortsTuples(t *testing.T) {
	f := WebFont{Family: "Open Sans", Variants: []string{"700", "100italic", "regular", "italic", "100"}}
	got := CSSURL(f)
	want := "https://fonts.googleapis.com/css2?family=Open+Sans:ital,wght@0,100;0,400;0,700;1,100;1,400&display=swap"
	if got != want {
		t.Fatalf("CSSURL =\n%s\nwant\n%s", got, want)
	}
	plain := CSSURL(WebFont{Family: "Raleway", Variants: []string{"regular", "900"}})
	if strings.Contains(plain, "ital,") || !strings.HasSuffix(plain, "wght@0,400;0,900&display=swap") {
		t.Fatalf("non-italic url = %s", plain)
	}
}

func TestCatalogResolve(t *testing.T) {
	c := NewCatalog()
	if _, err := c.Resolve("Roboto", "regular"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	c.Replace([]WebFont{
		{Family: "Roboto", Variants: []string{"regular", "700"}, Files: map[string]string{"regular": "http://fonts.gstatic.com/r.ttf", "700": "http://x/b.ttf"}},
		{Family: "Comic Neue", Variants: []string{"regular"}},
	}, DefaultFamilies)
	if fams := c.Families(); len(fams) != 1 || fams[0] != "Roboto" {
		t.Fatalf("families = %v", fams)
	}
	src, err := c.Resolve("Roboto", "regular")
	if err != nil || src != "https://fonts.gstatic.com/r.ttf" {
		t.Fatalf("Resolve = %q, %v", src, err)
	}
	// self-hosted catalogs keep their scheme
	if src, _ := c.Resolve("Roboto", "700"); src != "http://x/b.ttf" {
		t.Fatalf("Resolve 700 = %q", src)
	}
	if _, err := c.Resolve("Roboto", "900italic"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
	if v, _ := c.Variants("Roboto"); len(v) != 2 {
		t.Fatalf("variants = %v", v)
	}
}

func TestCatalogMatchesIgnoresOrder(t *testing.T) {
	c := NewCatalog()
	if c.Matches([]string{"A"}) {
		t.Fatalf("empty catalog must not match")
	}
	c.Replace([]WebFont{{Family: "B"}, {Family: "A"}}, []string{"A", "B"})
	if !c.Matches([]string{"B", "A"}) {
		t.Fatalf("same set should match")
	}
	if c.Matches([]string{"A"}) {
		t.Fatalf("subset should not match")
	}
}

func newFontServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/webfonts":
			atomic.AddInt32(hits, 1)
			if r.URL.Query().Get("key") != "k" || r.URL.Query().Get("sort") != "alpha" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_ = json.NewEncoder(w).Encode(WebFontList{Kind: "webfonts#webfontList", Items: []WebFont{
				{Family: "Roboto", Variants: []string{"regular"}, Files: map[string]string{"regular": srv.URL + "/roboto.ttf"}},
				{Family: "Lobster", Variants: []string{"regular"}},
			}})
		case "/roboto.ttf":
			_, _ = w.Write(goregular.TTF)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadSkipsWhenFamiliesUnchanged(t *testing.T) {
	var hits int32
	srv := newFontServer(t, &hits)
	c := NewClient(srv.URL+"/webfonts", "k", nil)
	cat := NewCatalog()
	ctx := context.Background()
	fetched, err := c.Load(ctx, cat, []string{"Roboto"})
	if err != nil || !fetched {
		t.Fatalf("first Load = %v, %v", fetched, err)
	}
	fetched, err = c.Load(ctx, cat, []string{"Roboto"})
	if err != nil || fetched {
		t.Fatalf("second Load should be skipped: %v, %v", fetched, err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("upstream hits = %d", hits)
	}
}

func TestInstallRegistersFace(t *testing.T) {
	var hits int32
	srv := newFontServer(t, &hits)
	c := NewClient(srv.URL+"/webfonts", "k", nil)
	cat := NewCatalog()
	ctx := context.Background()
	if _, err := c.Load(ctx, cat, []string{"Roboto"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	lib := textlayout.NewFontLibrary()
	doc := domain.DefaultDocument()
	if n := c.InstallDeck(ctx, cat, lib, doc); n != 1 {
		t.Fatalf("installed %d fonts", n)
	}
	if !lib.Has("Roboto", 400, false) {
		t.Fatalf("Roboto regular not registered")
	}
	face, m := textlayout.OTProvider{Lib: lib}.Resolve(textlayout.FontSpec{Family: "Roboto", Size: 100, Weight: 400})
	if face == nil || m.Ascent < 50 {
		t.Fatalf("expected scaled opentype face, ascent %v", m.Ascent)
	}
}
