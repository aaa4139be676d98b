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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dekk/internal/domain"
	"dekk/internal/images"
	"dekk/internal/space"
	"dekk/internal/storage"
	"dekk/internal/textlayout"
)

// editDeck loads deck id into a store, runs fn and saves the result when fn
// reports a change.
func (c *CLI) editDeck(ctx context.Context, id string, fn func(*storage.DeckHandle, *space.Store) (bool, error)) error {
	return c.withDeck(ctx, id, func(lib *storage.Library, h *storage.DeckHandle) error {
		st := space.New(h.Deck.Document)
		changed, err := fn(h, st)
		if err != nil || !changed {
			return err
		}
		h.Deck.Document = st.Document()
		return lib.Save(ctx, h)
	})
}

func (c *CLI) sliceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slice",
		Short: "Add or remove slices",
	}

	var bg string
	add := &cobra.Command{
		Use:   "add <deck>",
		Short: "Add a slice right of the right-most slice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editDeck(cmd.Context(), args[0], func(_ *storage.DeckHandle, st *space.Store) (bool, error) {
				var in domain.SliceInput
				if bg != "" {
					if _, err := domain.ParseHex(bg); err != nil {
						return false, err
					}
					in.BackgroundColor = domain.Ptr(bg)
				}
				sl := st.AddSlice(in)
				c.printf("Added slice %s at (%g, %g)\n", sl.ID, sl.X, sl.Y)
				return true, nil
			})
		},
	}
	add.Flags().StringVar(&bg, "background", "", "background color (#rrggbb)")

	rm := &cobra.Command{
		Use:   "rm <deck> <slice>",
		Short: "Remove a slice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editDeck(cmd.Context(), args[0], func(_ *storage.DeckHandle, st *space.Store) (bool, error) {
				if !st.DeleteSlice(args[1]) {
					return false, fmt.Errorf("slice %s: %w", args[1], domain.ErrNotFound)
				}
				return true, nil
			})
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func (c *CLI) textCommand() *cobra.Command {
	var (
		preset string
		x, y   float64
	)
	cmd := &cobra.Command{
		Use:   "text <deck> <slice> <content>",
		Short: "Add a text entity to a slice",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			style, ok := textlayout.GetStyle(preset)
			if !ok {
				return fmt.Errorf("unknown preset %q (have %s)", preset, strings.Join(textlayout.ListStyles(), ", "))
			}
			return c.editDeck(cmd.Context(), args[0], func(_ *storage.DeckHandle, st *space.Store) (bool, error) {
				in := style.Input()
				in.Content = domain.Ptr(args[2])
				in.X, in.Y = domain.Ptr(x), domain.Ptr(y)
				e, ok := st.AddTextEntity(in, args[1])
				if !ok {
					return false, fmt.Errorf("slice %s: %w", args[1], domain.ErrNotFound)
				}
				c.printf("Added text %s\n", e.ID)
				return true, nil
			})
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "Body", "text preset")
	cmd.Flags().Float64Var(&x, "x", 0, "x relative to the slice center")
	cmd.Flags().Float64Var(&y, "y", 0, "y relative to the slice center")
	return cmd
}

func (c *CLI) pictureCommand() *cobra.Command {
	var (
		aspect float64
		x, y   float64
	)
	cmd := &cobra.Command{
		Use:   "picture <deck> <slice> <file-or-url>",
		Short: "Add a picture entity; local files are copied into the deck assets",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[2]
			return c.editDeck(cmd.Context(), args[0], func(h *storage.DeckHandle, st *space.Store) (bool, error) {
				var in domain.PictureInput
				if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
					in = images.PictureFor(src, aspect)
				} else {
					rel, err := storage.ImportAsset(h.Root, src)
					if err != nil {
						return false, err
					}
					in, err = images.PictureForFile(filepath.Join(h.Root, filepath.FromSlash(rel)))
					if err != nil {
						return false, err
					}
					in.Src = domain.Ptr(rel)
				}
				in.X, in.Y = domain.Ptr(x), domain.Ptr(y)
				e, ok := st.AddPictureEntity(in, args[1])
				if !ok {
					return false, fmt.Errorf("slice %s: %w", args[1], domain.ErrNotFound)
				}
				c.printf("Added picture %s (%gx%g)\n", e.ID, e.Picture.Width, e.Picture.Height)
				return true, nil
			})
		},
	}
	cmd.Flags().Float64Var(&aspect, "aspect", 1, "width/height of a remote picture")
	cmd.Flags().Float64Var(&x, "x", 0, "x relative to the slice center")
	cmd.Flags().Float64Var(&y, "y", 0, "y relative to the slice center")
	return cmd
}
