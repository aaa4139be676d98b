/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"dekk/internal/domain"
	"dekk/internal/storage"
)

// ExportSVG writes slide-<n>.svg for each selected slice into outDir.
// Pictures are referenced by their source, not embedded.
func ExportSVG(ctx context.Context, h *storage.DeckHandle, outDir string, opt Options) ([]string, error) {
	if h == nil {
		return nil, fmt.Errorf("deck handle is nil")
	}
	dir, err := resolveOut(h, outDir)
	if err != nil {
		return nil, err
	}
	pages, err := buildPages(h.Deck.Document, opt)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(pages))
	for _, pg := range pages {
		name := filepath.Join(dir, fmt.Sprintf("slide-%d.svg", pg.index))
		f, err := createOut(name)
		if err != nil {
			return paths, fmt.Errorf("create svg: %w", err)
		}
		if err := writeSVG(f, pg); err != nil {
			_ = f.Close()
			return paths, fmt.Errorf("write svg: %w", err)
		}
		if err := f.Close(); err != nil {
			return paths, fmt.Errorf("close svg: %w", err)
		}
		paths = append(paths, name)
	}
	logger(ctx, "svg").Info("exported", slog.Int("slides", len(paths)), slog.String("dir", dir))
	return paths, nil
}

// WriteSVG renders a single slice of doc.
func WriteSVG(w io.Writer, doc domain.Document, sliceID string, opt Options) error {
	opt.Slices = []string{sliceID}
	pages, err := buildPages(doc, opt)
	if err != nil {
		return err
	}
	return writeSVG(w, pages[0])
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func fill(c domain.Color) string {
	if c.A == 0xff {
		return fmt.Sprintf(`fill="%s"`, c.Hex())
	}
	return fmt.Sprintf(`fill="#%02x%02x%02x" fill-opacity="%.3f"`, c.R, c.G, c.B, float64(c.A)/255)
}

func writeSVG(w io.Writer, pg page) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%.0f" height="%.0f" viewBox="0 0 %.2f %.2f">`+"\n",
		pg.w, pg.h, pg.w, pg.h)

	if len(pg.bg) == 1 {
		fmt.Fprintf(bw, `<rect x="0" y="0" width="%.2f" height="%.2f" %s/>`+"\n", pg.w, pg.h, fill(pg.bg[0].c))
	} else {
		fmt.Fprintf(bw, `<defs><linearGradient id="bg" gradientUnits="userSpaceOnUse" x1="0" y1="0" x2="%.2f" y2="%.2f">`, pg.w, pg.h)
		for _, s := range pg.bg {
			fmt.Fprintf(bw, `<stop offset="%.4f" stop-color="#%02x%02x%02x" stop-opacity="%.3f"/>`,
				s.at, s.c.R, s.c.G, s.c.B, float64(s.c.A)/255)
		}
		fmt.Fprintf(bw, "</linearGradient></defs>\n")
		fmt.Fprintf(bw, `<rect x="0" y="0" width="%.2f" height="%.2f" fill="url(#bg)"/>`+"\n", pg.w, pg.h)
	}

	for _, it := range pg.items {
		switch {
		case it.e.Text != nil:
			writeSVGText(bw, pg, it)
		case it.e.Picture != nil:
			r := it.rect
			if it.e.Picture.Src == "" {
				fmt.Fprintf(bw, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" %s/>`+"\n", r.X, r.Y, r.W, r.H, fill(placeholder))
				continue
			}
			fmt.Fprintf(bw, `<image x="%.2f" y="%.2f" width="%.2f" height="%.2f" preserveAspectRatio="none" xlink:href="%s"/>`+"\n",
				r.X, r.Y, r.W, r.H, esc(it.e.Picture.Src))
		}
	}
	fmt.Fprintf(bw, "</svg>\n")
	return bw.Flush()
}

func writeSVGText(w io.Writer, pg page, it item) {
	spec := it.block.Spec
	weight := spec.Weight
	if weight == 0 {
		weight = 400
	}
	style := "normal"
	if spec.Italic {
		style = "italic"
	}
	fmt.Fprintf(w, `<g font-family="%s" font-size="%.2f" font-weight="%d" font-style="%s" %s`,
		esc(spec.Family), spec.Size*pg.scale, weight, style, fill(it.color))
	if it.block.Spacing != 0 {
		fmt.Fprintf(w, ` letter-spacing="%.2f"`, it.block.Spacing*pg.scale)
	}
	fmt.Fprintf(w, ">\n")
	for _, ln := range it.block.Lines {
		fmt.Fprintf(w, `<text x="%.2f" y="%.2f" xml:space="preserve"`,
			it.rect.X+ln.X*pg.scale, it.rect.Y+ln.Baseline*pg.scale)
		if ln.Gap != 0 {
			fmt.Fprintf(w, ` word-spacing="%.2f"`, ln.Gap*pg.scale)
		}
		fmt.Fprintf(w, ">%s</text>\n", esc(ln.Text))
	}
	fmt.Fprintf(w, "</g>\n")
}
