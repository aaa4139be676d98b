/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"dekk/internal/domain"
	"dekk/internal/storage"
	"dekk/internal/vector"
	"dekk/internal/version"
)

// ExportPDF writes the selected slices of the deck as one PDF, one page per
// slice. Relative paths go under the deck's exports folder.
func ExportPDF(ctx context.Context, h *storage.DeckHandle, outPath string, opt Options) (string, error) {
	if h == nil {
		return "", fmt.Errorf("deck handle is nil")
	}
	p, err := resolveOut(h, outPath)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(p), ".pdf") {
		p += ".pdf"
	}
	f, err := createOut(p)
	if err != nil {
		return "", err
	}
	if err := WritePDF(ctx, f, h.Deck, opt); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close pdf: %w", err)
	}
	logger(ctx, "pdf").Info("exported", slog.String("path", p))
	return p, nil
}

// WritePDF renders d to w. Units are points: one world unit is Scale pt.
func WritePDF(ctx context.Context, w io.Writer, d domain.Deck, opt Options) error {
	pages, err := buildPages(d.Document, opt)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("deck %s has no slices", d.ID)
	}
	size := gofpdf.SizeType{Wd: pages[0].w, Ht: pages[0].h}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: size})
	pdf.SetTitle(d.Name, true)
	pdf.SetCreator(version.String(), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	r := &pdfRenderer{pdf: pdf, opt: opt, fonts: map[string]bool{}, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		pdf.AddPageFormat("", size)
		r.background(pg)
		for i, it := range pg.items {
			switch {
			case it.e.Text != nil:
				r.text(pg, it)
			case it.e.Picture != nil:
				r.picture(ctx, fmt.Sprintf("p%d-%d", pg.index, i), it)
			}
		}
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("render slide %d: %w", pg.index, err)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfRenderer struct {
	pdf   *gofpdf.Fpdf
	opt   Options
	fonts map[string]bool
	tr    func(string) string
}

func (r *pdfRenderer) fill(c domain.Color) {
	r.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func toPoints(poly []vector.Vec2) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(poly))
	for i, p := range poly {
		out[i] = gofpdf.PointType{X: p.X, Y: p.Y}
	}
	return out
}

// background paints the first stop solid, then each stop pair as a linear
// blend clipped to its band along the diagonal, then the tail past the last
// stop. The blend runs over a square so its isolines stay perpendicular to the
// diagonal like the PNG and SVG renderings.
func (r *pdfRenderer) background(pg page) {
	r.fill(pg.bg[0].c)
	r.pdf.Rect(0, 0, pg.w, pg.h, "F")
	if len(pg.bg) == 1 {
		return
	}
	corners := vector.R(0, 0, pg.w, pg.h).Corners()
	diag := vector.V2(pg.w, pg.h)
	inv := 1 / diag.Dot(diag)
	n := diag.Scale(inv)
	band := func(a, b float64) []vector.Vec2 {
		poly := vector.ClipPolygon(corners[:], vector.Plane{Normal: n, Constant: -a})
		if b < 1 {
			poly = vector.ClipPolygon(poly, vector.Plane{Normal: n.Scale(-1), Constant: b})
		}
		return poly
	}
	side := pg.w + pg.h
	unit := func(t float64) (float64, float64) {
		return t * pg.w / side, 1 - t*pg.h/side
	}
	for i := 1; i < len(pg.bg); i++ {
		a, b := pg.bg[i-1], pg.bg[i]
		if b.at <= a.at {
			continue
		}
		poly := band(a.at, b.at)
		if len(poly) < 3 {
			continue
		}
		x1, y1 := unit(a.at)
		x2, y2 := unit(b.at)
		r.pdf.ClipPolygon(toPoints(poly), false)
		r.pdf.LinearGradient(0, 0, side, side,
			int(a.c.R), int(a.c.G), int(a.c.B),
			int(b.c.R), int(b.c.G), int(b.c.B),
			x1, y1, x2, y2)
		r.pdf.ClipEnd()
	}
	last := pg.bg[len(pg.bg)-1]
	if tail := band(last.at, 1); len(tail) >= 3 && last.at < 1 {
		r.fill(last.c)
		r.pdf.Polygon(toPoints(tail), "F")
	}
}

// setFont selects an embedded library face when available and a core font
// otherwise. It reports whether the face is UTF-8 capable.
func (r *pdfRenderer) setFont(it item, size float64) bool {
	spec := it.block.Spec
	if r.opt.Fonts != nil {
		if name, data, ok := r.opt.Fonts.Source(spec); ok {
			if !r.fonts[name] {
				r.pdf.AddUTF8FontFromBytes(name, "", data)
				r.fonts[name] = true
			}
			r.pdf.SetFont(name, "", size)
			return true
		}
	}
	style := ""
	if spec.Weight >= 600 {
		style += "B"
	}
	if spec.Italic {
		style += "I"
	}
	r.pdf.SetFont("Helvetica", style, size)
	return false
}

func (r *pdfRenderer) text(pg page, it item) {
	utf8 := r.setFont(it, it.block.Spec.Size*pg.scale)
	c := it.color
	r.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	if c.A != 0xff {
		r.pdf.SetAlpha(float64(c.A)/255, "Normal")
		defer r.pdf.SetAlpha(1, "Normal")
	}
	enc := func(s string) string {
		if utf8 {
			return s
		}
		return r.tr(s)
	}
	spacing := it.block.Spacing * pg.scale
	for _, ln := range it.block.Lines {
		x := it.rect.X + ln.X*pg.scale
		y := it.rect.Y + ln.Baseline*pg.scale
		if spacing == 0 && ln.Gap == 0 {
			r.pdf.Text(x, y, enc(ln.Text))
			continue
		}
		for _, ch := range ln.Text {
			s := enc(string(ch))
			r.pdf.Text(x, y, s)
			x += r.pdf.GetStringWidth(s) + spacing
			if ch == ' ' {
				x += ln.Gap * pg.scale
			}
		}
	}
}

func (r *pdfRenderer) picture(ctx context.Context, name string, it item) {
	rc := it.rect
	img := loadPicture(ctx, r.opt, it)
	if img == nil {
		r.fill(placeholder)
		r.pdf.Rect(rc.X, rc.Y, rc.W, rc.H, "F")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		r.fill(placeholder)
		r.pdf.Rect(rc.X, rc.Y, rc.W, rc.H, "F")
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	r.pdf.RegisterImageOptionsReader(name, opts, &buf)
	r.pdf.ImageOptions(name, rc.X, rc.Y, rc.W, rc.H, false, opts, 0, "")
}
