/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders decks to PDF, PNG and SVG. Each slice becomes one
// page the size of the space, scaled by Options.Scale.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"dekk/internal/domain"
	applog "dekk/internal/log"
	"dekk/internal/storage"
	"dekk/internal/textlayout"
	"dekk/internal/vector"
)

// Options controls all exporters.
type Options struct {
	// Slices selects slices by id in output order. Empty exports every slice
	// in document order.
	Slices []string
	// Scale maps world units to output units (px for PNG/SVG, pt for PDF).
	Scale float64
	// Layouter lays out text; nil uses a Layouter over Fonts, or the basic face.
	Layouter *textlayout.Layouter
	// Fonts is embedded into PDFs when it holds the requested family.
	Fonts *textlayout.FontLibrary
	// Loader fetches picture sources; nil draws placeholders.
	Loader ImageLoader
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

func (o Options) layouter() *textlayout.Layouter {
	if o.Layouter != nil {
		return o.Layouter
	}
	if o.Fonts != nil {
		return textlayout.New(textlayout.OTProvider{Lib: o.Fonts})
	}
	return textlayout.New(nil)
}

type stop struct {
	at float64
	c  domain.Color
}

type item struct {
	e     domain.Entity
	rect  vector.Rect // page units, y down
	block textlayout.Block
	color domain.Color
}

type page struct {
	index  int // 1-based
	slice  domain.Slice
	w, h   float64
	bg     []stop
	items  []item
	scale  float64
}

var (
	black = domain.Color{A: 0xff}
	white = domain.Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	// placeholder fill for pictures that cannot be loaded
	placeholder = domain.Color{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
)

// background returns the sorted stops of the slice fill. A solid fill is a
// single stop.
func background(sp domain.Space, s domain.Slice) []stop {
	bg, _ := domain.EffectiveColors(sp, s)
	if !s.ShowGradient || len(s.Gradient) == 0 {
		return []stop{{at: 0, c: domain.ParseHexOr(bg, white)}}
	}
	out := make([]stop, 0, len(s.Gradient))
	for _, g := range s.Gradient {
		out = append(out, stop{at: clamp01(g.Stop), c: domain.ParseHexOr(g.Color, black)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// gradientAt samples the stops at t in 0..1.
func gradientAt(stops []stop, t float64) domain.Color {
	if len(stops) == 0 {
		return white
	}
	if t <= stops[0].at {
		return stops[0].c
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].at {
			a, b := stops[i-1], stops[i]
			if b.at == a.at {
				return b.c
			}
			return domain.Lerp(a.c, b.c, (t-a.at)/(b.at-a.at))
		}
	}
	return stops[len(stops)-1].c
}

// gradientT projects a page point onto the top-left to bottom-right diagonal.
func (p page) gradientT(x, y float64) float64 {
	return (x*p.w + y*p.h) / (p.w*p.w + p.h*p.h)
}

func buildPages(doc domain.Document, opt Options) ([]page, error) {
	scale := opt.scale()
	lay := opt.layouter()
	sp := doc.Space

	order := doc.Slices
	if len(opt.Slices) > 0 {
		byID := make(map[string]domain.Slice, len(doc.Slices))
		for _, s := range doc.Slices {
			byID[s.ID] = s
		}
		order = make([]domain.Slice, 0, len(opt.Slices))
		for _, id := range opt.Slices {
			s, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("slice %q: %w", id, domain.ErrNotFound)
			}
			order = append(order, s)
		}
	}
	entities := make(map[string]domain.Entity, len(doc.Entities))
	for _, e := range doc.Entities {
		entities[e.ID] = e
	}

	xf := vector.SliceToPage(sp.Width, sp.Height, sp.Width*scale, sp.Height*scale)
	pages := make([]page, 0, len(order))
	for i, s := range order {
		pg := page{
			index: i + 1,
			slice: s,
			w:     sp.Width * scale,
			h:     sp.Height * scale,
			bg:    background(sp, s),
			scale: scale,
		}
		var list []domain.Entity
		for _, id := range s.EntityIDs {
			if e, ok := entities[id]; ok {
				list = append(list, e)
			}
		}
		sort.SliceStable(list, func(a, b int) bool { return list[a].Z < list[b].Z })
		for _, e := range list {
			it := item{e: e}
			switch {
			case e.Text != nil:
				it.block = lay.Layout(*e.Text)
				tl := xf.Apply(vector.V2(e.X+it.block.Left, e.Y+it.block.Top))
				it.rect = vector.R(tl.X, tl.Y, it.block.Width*scale, it.block.Height*scale)
				it.color = domain.ParseHexOr(domain.TextColor(sp, s, e), black)
			case e.Picture != nil:
				c := xf.Apply(vector.V2(e.X, e.Y))
				it.rect = vector.Centered(c.X, c.Y, e.Picture.Width*scale, e.Picture.Height*scale)
			default:
				continue
			}
			pg.items = append(pg.items, it)
		}
		pages = append(pages, pg)
	}
	return pages, nil
}

// resolveOut places relative paths under the deck's exports folder.
func resolveOut(h *storage.DeckHandle, p string) (string, error) {
	if !filepath.IsAbs(p) {
		if h == nil {
			return "", fmt.Errorf("relative output path %q needs a deck handle", p)
		}
		p = filepath.Join(h.Root, storage.ExportsDirName, p)
	}
	return p, nil
}

func createOut(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	return os.Create(path)
}

func logger(ctx context.Context, format string) *slog.Logger {
	l := applog.WithOperation(applog.WithComponent("export"), format)
	if id, ok := applog.DeckFrom(ctx); ok {
		l = l.With(slog.String("deck", id))
	}
	return l
}
