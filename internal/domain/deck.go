/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"strings"
	"time"
)

// Repository errors shared by the local library and the remote backend.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// DeckSummary is the listing view of a deck.
type DeckSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slices    int       `json:"slices"`
	Entities  int       `json:"entities"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summarize builds the listing view of d.
func Summarize(d Deck, updated time.Time) DeckSummary {
	return DeckSummary{
		ID:        d.ID,
		Name:      d.Name,
		Slices:    len(d.Document.Slices),
		Entities:  len(d.Document.Entities),
		UpdatedAt: updated.UTC(),
	}
}

// NewDeck returns a deck with the welcome document.
func NewDeck(id, name string) Deck {
	if strings.TrimSpace(name) == "" {
		name = "Untitled"
	}
	return Deck{ID: id, Name: name, Document: DefaultDocument()}
}
