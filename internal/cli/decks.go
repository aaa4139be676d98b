/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dekk/internal/domain"
	"dekk/internal/storage"
)

func (c *CLI) newCommand() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a deck with the welcome slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := c.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()
			h, err := lib.Create(cmd.Context(), domain.NewDeck(id, args[0]))
			if err != nil {
				return err
			}
			c.printf("Created deck %s at %s\n", h.Deck.ID, h.Root)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "deck id (default is a new uuid)")
	return cmd
}

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the decks of the library",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := c.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()
			decks, err := lib.List(cmd.Context())
			if err != nil {
				return err
			}
			c.printSummaries(decks)
			return nil
		},
	}
}

func (c *CLI) printSummaries(decks []domain.DeckSummary) {
	if len(decks) == 0 {
		c.printf("No decks.\n")
		return
	}
	for _, d := range decks {
		c.printf("%-36s  %-24s  %3d slices  %3d entities  %s\n", d.ID, d.Name, d.Slices, d.Entities, d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <deck>",
		Short: "Print the slices and entities of a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDeck(cmd.Context(), args[0], func(_ *storage.Library, h *storage.DeckHandle) error {
				c.printDeck(h.Deck)
				return nil
			})
		},
	}
}

func (c *CLI) printDeck(d domain.Deck) {
	doc := d.Document
	c.printf("Deck: %s (%s)\n", d.Name, d.ID)
	c.printf("Space: %gx%g background %s color %s\n", doc.Space.Width, doc.Space.Height, doc.Space.BackgroundColor, doc.Space.Color)
	byID := make(map[string]domain.Entity, len(doc.Entities))
	for _, e := range doc.Entities {
		byID[e.ID] = e
	}
	for i, sl := range doc.Slices {
		bg, _ := domain.EffectiveColors(doc.Space, sl)
		c.printf("%d. slice %s at (%g, %g, %g) background %s", i+1, sl.ID, sl.X, sl.Y, sl.Z, bg)
		if sl.ShowGradient && len(sl.Gradient) > 0 {
			stops := make([]string, 0, len(sl.Gradient))
			for _, g := range sl.Gradient {
				stops = append(stops, fmt.Sprintf("%s@%g", g.Color, g.Stop))
			}
			c.printf(" gradient %s", strings.Join(stops, " "))
		}
		c.printf("\n")
		for _, id := range sl.EntityIDs {
			e, ok := byID[id]
			if !ok {
				continue
			}
			switch {
			case e.Text != nil:
				c.printf("   text %s at (%g, %g, %g): %q %s %g\n", e.ID, e.X, e.Y, e.Z, e.Text.Content, e.Text.Font.Family, e.Text.Font.Size)
			case e.Picture != nil:
				c.printf("   picture %s at (%g, %g, %g): %s %gx%g\n", e.ID, e.X, e.Y, e.Z, e.Picture.Src, e.Picture.Width, e.Picture.Height)
			}
		}
	}
}

func (c *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <deck>",
		Aliases: []string{"rm"},
		Short:   "Delete a deck folder and its index entries",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := c.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()
			if err := lib.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.printf("Deleted deck %s\n", args[0])
			return nil
		},
	}
}

func (c *CLI) searchCommand() *cobra.Command {
	var q storage.SearchQuery
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search text across the decks of the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Text = strings.Join(args, " ")
			lib, err := c.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()
			res, err := lib.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(res) == 0 {
				c.printf("No matches.\n")
				return nil
			}
			for _, r := range res {
				c.printf("%s  %-8s %s  %s\n", r.DeckID, r.Type, r.Path, r.Snippet)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&q.DeckID, "deck", "", "only this deck")
	cmd.Flags().StringSliceVar(&q.Types, "type", nil, "document types (deck_name, text)")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum results")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "results to skip")
	return cmd
}

func (c *CLI) rebuildIndexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-index",
		Short: "Rebuild the search index from the deck folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := c.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()
			if err := lib.Rebuild(cmd.Context()); err != nil {
				return err
			}
			c.printf("Index rebuilt at %s\n", storage.IndexPath(lib.Root))
			return nil
		},
	}
}

func (c *CLI) backupsCommand() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "backups <deck>",
		Short: "List (or prune) the manifest backups of a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDeck(cmd.Context(), args[0], func(_ *storage.Library, h *storage.DeckHandle) error {
				if keep > 0 {
					n, err := storage.PruneBackups(h.Root, keep)
					if err != nil {
						return err
					}
					c.log.Info("backups pruned", slog.String("deck", h.Deck.ID), slog.Int("removed", n))
				}
				list, err := storage.Backups(h.Root)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					c.printf("No backups.\n")
					return nil
				}
				for _, p := range list {
					c.printf("%s\n", filepath.Base(p))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "prune", 0, "keep only the newest N backups")
	return cmd
}
