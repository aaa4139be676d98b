/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"dekk/internal/domain"
	"dekk/internal/storage"
	"dekk/internal/vector"
)

// RenderSlices rasterizes the selected slices of doc.
func RenderSlices(ctx context.Context, doc domain.Document, opt Options) ([]*image.RGBA, error) {
	pages, err := buildPages(doc, opt)
	if err != nil {
		return nil, err
	}
	out := make([]*image.RGBA, 0, len(pages))
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, rasterize(ctx, pg, opt))
	}
	return out, nil
}

// WritePNG encodes one rendered slice.
func WritePNG(w io.Writer, img image.Image) error { return png.Encode(w, img) }

// ExportPNG writes slide-<n>.png for each selected slice into outDir and
// returns the written paths. Relative directories go under the deck's
// exports folder.
func ExportPNG(ctx context.Context, h *storage.DeckHandle, outDir string, opt Options) ([]string, error) {
	if h == nil {
		return nil, fmt.Errorf("deck handle is nil")
	}
	dir, err := resolveOut(h, outDir)
	if err != nil {
		return nil, err
	}
	imgs, err := RenderSlices(ctx, h.Deck.Document, opt)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(imgs))
	for i, img := range imgs {
		name := filepath.Join(dir, fmt.Sprintf("slide-%d.png", i+1))
		f, err := createOut(name)
		if err != nil {
			return paths, fmt.Errorf("create png: %w", err)
		}
		if err := WritePNG(f, img); err != nil {
			_ = f.Close()
			return paths, fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return paths, fmt.Errorf("close png: %w", err)
		}
		paths = append(paths, name)
	}
	logger(ctx, "png").Info("exported", slog.Int("slides", len(paths)), slog.String("dir", dir))
	return paths, nil
}

func rasterize(ctx context.Context, pg page, opt Options) *image.RGBA {
	pw, ph := int(math.Round(pg.w)), int(math.Round(pg.h))
	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	fillBackground(img, pg)
	for _, it := range pg.items {
		switch {
		case it.e.Text != nil:
			drawText(img, pg, it, opt)
		case it.e.Picture != nil:
			drawPicture(img, it.rect, loadPicture(ctx, opt, it))
		}
	}
	return img
}

func fillBackground(img *image.RGBA, pg page) {
	if len(pg.bg) == 1 {
		draw.Draw(img, img.Bounds(), image.NewUniform(pg.bg[0].c.NRGBA()), image.Point{}, draw.Src)
		return
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := gradientAt(pg.bg, pg.gradientT(float64(x)+0.5, float64(y)+0.5))
			img.Set(x, y, c.NRGBA())
		}
	}
}

func pixelRect(r vector.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)),
	)
}

func drawPicture(img *image.RGBA, r vector.Rect, src image.Image) {
	dst := pixelRect(r)
	if src == nil {
		draw.Draw(img, dst, image.NewUniform(placeholder.NRGBA()), image.Point{}, draw.Over)
		return
	}
	xdraw.ApproxBiLinear.Scale(img, dst, src, src.Bounds(), xdraw.Over, nil)
}

func drawText(img *image.RGBA, pg page, it item, opt Options) {
	spec := it.block.Spec
	spec.Size *= pg.scale
	face, _ := opt.layouter().Provider.Resolve(spec)
	d := &font.Drawer{Dst: img, Src: image.NewUniform(it.color.NRGBA()), Face: face}
	for _, ln := range it.block.Lines {
		x := it.rect.X + ln.X*pg.scale
		y := it.rect.Y + ln.Baseline*pg.scale
		for _, r := range ln.Text {
			s := string(r)
			d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
			d.DrawString(s)
			x += float64(d.MeasureString(s))/64 + it.block.Spacing*pg.scale
			if r == ' ' {
				x += ln.Gap * pg.scale
			}
		}
	}
}
