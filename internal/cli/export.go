/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"dekk/internal/config"
	"dekk/internal/domain"
	"dekk/internal/export"
	"dekk/internal/fonts"
	"dekk/internal/storage"
	"dekk/internal/textlayout"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		preset  string
		formats []string
		outDir  string
		slices  []string
		scale   float64
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "export <deck>",
		Short: "Export the slices of a deck to PDF, PNG, SVG or a zip of PNGs",
		Long: `Export renders every slice (or the --slice selection, in that order) as one page.
Files land under the deck's exports folder unless --out is absolute.
Fonts used by text entities are downloaded from the font catalog unless --offline is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := export.PresetName(strings.ToLower(preset))
			switch p {
			case "", export.PresetWeb, export.PresetPrint:
			default:
				return fmt.Errorf("unknown preset %q (have web, print)", preset)
			}
			return c.withDeck(ctx, args[0], func(_ *storage.Library, h *storage.DeckHandle) error {
				lib := textlayout.NewFontLibrary()
				if !offline {
					c.installFonts(ctx, lib, h.Deck.Document)
				}
				paths, err := export.Batch(ctx, h, export.BatchOptions{
					Preset:  p,
					Formats: formats,
					OutDir:  outDir,
					Options: export.Options{
						Slices: slices,
						Scale:  scale,
						Fonts:  lib,
						Loader: export.NewLoader(h.Root),
					},
				})
				if err != nil {
					return err
				}
				for _, path := range paths {
					c.printf("%s\n", path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "export preset: web|print")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "formats: pdf, png, svg, zip (default per preset)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output folder (relative paths go under the deck's exports folder)")
	cmd.Flags().StringSliceVar(&slices, "slice", nil, "slice ids to export, in order")
	cmd.Flags().Float64Var(&scale, "scale", 0, "output units per world unit (default per preset)")
	cmd.Flags().BoolVar(&offline, "offline", false, "do not download fonts")
	return cmd
}

// installFonts loads the families the document uses into lib. Failures only
// degrade text rendering to the basic face.
func (c *CLI) installFonts(ctx context.Context, lib *textlayout.FontLibrary, doc domain.Document) {
	key, err := config.Secret(config.SecretGoogleAPIKey)
	if err != nil {
		c.log.Warn("font api key unavailable", slog.Any("err", err))
	}
	cache, done := c.responseCache(ctx, "fonts")
	defer done()
	client := fonts.NewClient(c.cfg.Fonts.APIURL, key, cache)
	cat := fonts.NewCatalog()
	if _, err := client.Load(ctx, cat, deckFamilies(c.cfg.Fonts.Families, doc)); err != nil {
		c.log.Warn("font catalog unavailable", slog.Any("err", err))
		return
	}
	n := client.InstallDeck(ctx, cat, lib, doc)
	c.log.Debug("fonts installed", slog.Int("count", n))
}

// deckFamilies is base plus every family the document's text uses.
func deckFamilies(base []string, doc domain.Document) []string {
	out := append([]string(nil), base...)
	seen := make(map[string]bool, len(out))
	for _, f := range out {
		seen[f] = true
	}
	for _, e := range doc.Entities {
		if e.Text == nil || e.Text.Font.Family == "" || seen[e.Text.Font.Family] {
			continue
		}
		seen[e.Text.Font.Family] = true
		out = append(out, e.Text.Font.Family)
	}
	return out
}
