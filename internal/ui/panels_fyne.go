//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"dekk/internal/config"
	"dekk/internal/domain"
	"dekk/internal/images"
	"dekk/internal/space"
)

// propertiesPanel edits the active text entity or slice. Fields reload only
// when the selection changes so typing is not overwritten by camera moves.
func (s *session) propertiesPanel(families []string) fyne.CanvasObject {
	title := widget.NewLabelWithStyle("Nothing selected", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	content := widget.NewMultiLineEntry()
	content.SetMinRowsVisible(3)
	size := widget.NewEntry()
	color := widget.NewEntry()
	color.SetPlaceHolder("#rrggbb (empty inherits)")
	variant := widget.NewSelect([]string{"regular"}, nil)
	family := widget.NewSelect(families, func(f string) {
		if s.catalog == nil {
			return
		}
		if vs, err := s.catalog.Variants(f); err == nil {
			variant.Options = vs
			variant.Refresh()
		}
	})

	background := widget.NewEntry()
	background.SetPlaceHolder("#rrggbb (empty inherits)")
	gradient := widget.NewCheck("Gradient", nil)

	textForm := widget.NewForm(
		widget.NewFormItem("Text", content),
		widget.NewFormItem("Size", size),
		widget.NewFormItem("Family", family),
		widget.NewFormItem("Variant", variant),
		widget.NewFormItem("Color", color),
	)
	sliceForm := widget.NewForm(
		widget.NewFormItem("Background", background),
		widget.NewFormItem("", gradient),
	)
	addStop := widget.NewButton("Add gradient stop", func() {
		id, _ := s.ed.State.Active()
		s.mutate("add gradient stop", func() { s.store.AddGradientStop(id) })
	})

	var lastSlice, lastEntity string
	load := func(force bool) {
		sliceID, entityID := s.ed.State.Active()
		if !force && sliceID == lastSlice && entityID == lastEntity {
			return
		}
		lastSlice, lastEntity = sliceID, entityID
		textForm.Hide()
		sliceForm.Hide()
		addStop.Hide()
		if e, ok := s.store.Entity(entityID); ok && e.Text != nil {
			title.SetText("Text " + e.ID)
			content.SetText(e.Text.Content)
			size.SetText(strconv.FormatFloat(e.Text.Font.Size, 'f', -1, 64))
			family.SetSelected(e.Text.Font.Family)
			variant.SetSelected(e.Text.Font.Variant)
			color.SetText(e.Text.Color)
			textForm.Show()
			return
		}
		if sl, ok := s.store.Slice(sliceID); ok && entityID == "" {
			title.SetText(fmt.Sprintf("Slice %s (%d entities)", sl.ID, len(sl.EntityIDs)))
			background.SetText(sl.BackgroundColor)
			gradient.SetChecked(sl.ShowGradient)
			sliceForm.Show()
			addStop.Show()
			return
		}
		title.SetText("Nothing selected")
	}
	s.ed.State.OnChange(func() { load(false) })
	s.store.Subscribe(func(space.Change) { load(true) })

	apply := widget.NewButton("Apply", func() {
		sliceID, entityID := s.ed.State.Active()
		if e, ok := s.store.Entity(entityID); ok && e.Text != nil {
			p := domain.TextPatch{Content: domain.Ptr(content.Text), Color: domain.Ptr(strings.TrimSpace(color.Text))}
			if v, err := strconv.ParseFloat(strings.TrimSpace(size.Text), 64); err == nil && v > 0 {
				p.Font = &domain.FontPatch{Size: domain.Ptr(v)}
			}
			if !validColor(*p.Color) {
				s.status.SetText("Invalid color " + *p.Color)
				return
			}
			s.mutate("edit text", func() {
				s.store.UpdateTextEntity(p, entityID)
				if family.Selected != "" && family.Selected != e.Text.Font.Family {
					s.store.SetFontFamily(entityID, family.Selected)
				}
				if variant.Selected != "" && variant.Selected != e.Text.Font.Variant {
					s.store.SetFontVariant(entityID, variant.Selected)
				}
			})
			return
		}
		if _, ok := s.store.Slice(sliceID); ok {
			bg := strings.TrimSpace(background.Text)
			if !validColor(bg) {
				s.status.SetText("Invalid color " + bg)
				return
			}
			show := gradient.Checked
			s.mutate("edit slice", func() {
				s.store.UpdateSlice(domain.SlicePatch{BackgroundColor: &bg, ShowGradient: &show}, sliceID)
			})
		}
	})

	textForm.Hide()
	sliceForm.Hide()
	addStop.Hide()
	return container.NewVBox(title, textForm, sliceForm, addStop, apply)
}

func validColor(s string) bool {
	if s == "" {
		return true
	}
	_, err := domain.ParseHex(s)
	return err == nil
}

// searchPanel is the picture search: typing submits a debounced query and a
// selected hit is added to the active slice.
func (s *session) searchPanel(cfg config.ImagesConfig) fyne.CanvasObject {
	key, err := config.Secret(config.SecretUnsplashAccessKey)
	if err != nil {
		s.log.Warn("unsplash key unavailable", slog.Any("err", err))
	}
	client := images.NewClient(cfg.APIURL, key, nil)

	var hits []images.Photo
	state := widget.NewLabel("")
	list := widget.NewList(
		func() int { return len(hits) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < 0 || int(i) >= len(hits) {
				return
			}
			p := hits[i]
			label := p.AltDescription
			if label == "" {
				label = p.Description
			}
			if label == "" {
				label = p.ID
			}
			o.(*widget.Label).SetText(label)
		},
	)
	list.OnSelected = func(i widget.ListItemID) {
		if int(i) < len(hits) {
			s.addPicture(images.PictureForPhoto(hits[i]))
		}
		list.UnselectAll()
	}

	searcher := images.NewSearcher(client.Search, cfg.Debounce(), func(r images.Result) {
		fyne.Do(func() {
			if r.Err != nil {
				state.SetText("Search failed: " + r.Err.Error())
				hits = nil
			} else {
				state.SetText(fmt.Sprintf("%d results", r.Photos.Total))
				hits = r.Photos.Results
			}
			list.Refresh()
		})
	})
	s.searcher = searcher
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Search pictures")
	entry.OnChanged = func(q string) {
		if strings.TrimSpace(q) == "" {
			searcher.Stop()
			hits = nil
			state.SetText("")
			list.Refresh()
			return
		}
		state.SetText("Searching…")
		searcher.Submit(images.Query{Text: q, PerPage: cfg.PerPage})
	}

	scroll := container.NewVScroll(list)
	scroll.SetMinSize(fyne.NewSize(300, 260))
	return container.NewBorder(container.NewVBox(entry, state), nil, nil, nil, scroll)
}
