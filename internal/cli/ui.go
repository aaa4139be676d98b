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

	"dekk/internal/domain"
	"dekk/internal/ui"
)

func (c *CLI) uiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ui [deck]",
		Short: "Open the desktop editor (build with -tags fyne)",
		Long:  "Opens deck in the canvas editor. Without a deck a new untitled deck is created in the library.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ui.Supported() {
				return ui.Run(cmd.Context(), ui.Options{})
			}
			lib, err := c.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()
			id := ""
			if len(args) == 1 {
				id = args[0]
			} else {
				h, err := lib.Create(cmd.Context(), domain.NewDeck("", ""))
				if err != nil {
					return err
				}
				id = h.Deck.ID
			}
			return ui.Run(cmd.Context(), ui.Options{Library: lib, DeckID: id, Config: c.cfg})
		},
	}
}
