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
	"path/filepath"
	"strings"

	"dekk/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// Format names accepted by Batch.
const (
	FormatPDF    = "pdf"
	FormatPNG    = "png"
	FormatSVG    = "svg"
	FormatBundle = "zip"
)

// BatchOptions controls export across several formats at once.
//
// Outputs land in OutDir, which defaults to the preset name and is created
// under <deck>/exports/ when relative:
//   - pdf: <name>.pdf
//   - png, svg: png/slide-<n>.png, svg/slide-<n>.svg
//   - zip: <name>.zip
type BatchOptions struct {
	Preset  PresetName
	Formats []string // empty means preset defaults
	OutDir  string
	Options Options
}

// Batch runs the exports of opt and returns the written paths.
func Batch(ctx context.Context, h *storage.DeckHandle, opt BatchOptions) ([]string, error) {
	if h == nil {
		return nil, fmt.Errorf("deck handle is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	base := opt.OutDir
	if base == "" {
		base = string(opt.Preset)
		if base == "" {
			base = "default"
		}
	}
	base, err := resolveOut(h, base)
	if err != nil {
		return nil, err
	}
	o := opt.Options
	if o.Scale <= 0 {
		o.Scale = presetScale(opt.Preset)
	}
	name := fileStem(h)

	var out []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatPDF:
			p, err := ExportPDF(ctx, h, filepath.Join(base, name+".pdf"), o)
			if err != nil {
				return out, fmt.Errorf("pdf: %w", err)
			}
			out = append(out, p)
		case FormatPNG:
			ps, err := ExportPNG(ctx, h, filepath.Join(base, "png"), o)
			out = append(out, ps...)
			if err != nil {
				return out, fmt.Errorf("png: %w", err)
			}
		case FormatSVG:
			ps, err := ExportSVG(ctx, h, filepath.Join(base, "svg"), o)
			out = append(out, ps...)
			if err != nil {
				return out, fmt.Errorf("svg: %w", err)
			}
		case FormatBundle:
			p, err := ExportBundle(ctx, h, filepath.Join(base, name+".zip"), o)
			if err != nil {
				return out, fmt.Errorf("zip: %w", err)
			}
			out = append(out, p)
		default:
			return out, fmt.Errorf("unknown format: %s", f)
		}
	}
	return out, nil
}

func fileStem(h *storage.DeckHandle) string {
	n := strings.TrimSpace(h.Deck.Name)
	if n == "" {
		n = h.Deck.ID
	}
	n = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, n)
	if n == "" {
		n = "deck"
	}
	return n
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{FormatPNG, FormatSVG, FormatBundle}
	case PresetPrint:
		return []string{FormatPDF, FormatPNG}
	default:
		return []string{FormatPDF}
	}
}

func presetScale(p PresetName) float64 {
	if p == PresetPrint {
		return 2
	}
	return 1
}
