/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"github.com/spf13/cobra"

	"dekk/internal/deckpack"
	"dekk/internal/storage"
)

func (c *CLI) packCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <deck> <file.dekkpack>",
		Short: "Write a deck and its assets into a single archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDeck(cmd.Context(), args[0], func(_ *storage.Library, h *storage.DeckHandle) error {
				n, err := deckpack.Pack(h.Root, args[1])
				if err != nil {
					return err
				}
				c.printf("Packed %s (%d files) into %s\n", h.Deck.ID, n, args[1])
				return nil
			})
		},
	}
}

func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.dekkpack>",
		Short: "Add a packed deck to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := c.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()
			h, err := deckpack.Import(cmd.Context(), lib, args[0])
			if err != nil {
				return err
			}
			c.printf("Imported %s (%s) at %s\n", h.Deck.Name, h.Deck.ID, h.Root)
			return nil
		},
	}
}
