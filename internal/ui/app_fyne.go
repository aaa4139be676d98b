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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"dekk/internal/config"
	"dekk/internal/crash"
	"dekk/internal/domain"
	"dekk/internal/editor"
	"dekk/internal/export"
	"dekk/internal/fonts"
	"dekk/internal/images"
	applog "dekk/internal/log"
	"dekk/internal/space"
	"dekk/internal/storage"
	"dekk/internal/textlayout"
)

const frame = 16 * time.Millisecond

func Supported() bool { return true }

// session is one open deck in the editor window.
type session struct {
	ctx   context.Context
	lib   *storage.Library
	h     *storage.DeckHandle
	store *space.Store
	ed    *editor.Editor
	dc    *DeckCanvas
	w     fyne.Window
	log   *slog.Logger

	status *widget.Label
	dirty  bool

	fontLib  *textlayout.FontLibrary
	catalog  *fonts.Catalog
	searcher *images.Searcher
}

// Run opens opts.DeckID from the library in the Fyne desktop editor and
// blocks until the window closes. Unsaved changes are saved on close.
func Run(ctx context.Context, opts Options) error {
	l := applog.WithComponent("ui")
	if opts.Library == nil {
		return errors.New("no deck library")
	}
	h, err := opts.Library.Open(opts.DeckID)
	if err != nil {
		return err
	}
	l.Info("starting UI", slog.String("deck", h.Deck.ID))

	store := space.New(h.Deck.Document)
	ed := editor.New(store, EditorOptions(opts.Config.Editor, h.Deck.ID))
	defer ed.Close()
	defer crash.RecoverLive(h, store.Document)

	a := app.NewWithID("dev.dekk.editor")
	switch opts.Config.General.Theme {
	case "dark":
		a.Settings().SetTheme(theme.DarkTheme())
	case "light":
		a.Settings().SetTheme(theme.LightTheme())
	}
	w := a.NewWindow("Dekk: " + h.Deck.Name)
	prefs := a.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	s := &session{
		ctx: ctx, lib: opts.Library, h: h, store: store, ed: ed, w: w, log: l,
		status:  widget.NewLabel("Ready"),
		fontLib: textlayout.NewFontLibrary(),
	}
	s.dc = NewDeckCanvas(ed, textlayout.New(nil), h.Root)
	s.dc.OnSelect = func(t editor.Target) { s.status.SetText("Selected " + t.ID) }
	store.Subscribe(func(space.Change) {
		s.dirty = true
		s.dc.Refresh()
	})
	ed.State.OnChange(func() { s.dc.Refresh() })

	props := s.propertiesPanel(opts.Config.Fonts.Families)
	search := s.searchPanel(opts.Config.Images)
	w.SetContent(container.NewBorder(s.toolbar(), s.status, nil, container.NewVBox(props, widget.NewSeparator(), search), s.dc))
	s.shortcuts()

	if sl := store.Slices(); len(sl) > 0 {
		ed.State.SetActive(sl[0].ID, "")
	}
	ed.State.SetViewport(editor.Size{Width: float64(winW) - 320, Height: float64(winH) - 80})
	ed.MoveToActive()

	done := make(chan struct{})
	go s.animate(done)
	go s.loadFonts(opts.Config.Fonts)

	w.SetCloseIntercept(func() {
		close(done)
		s.searcher.Stop()
		if s.dirty {
			s.save()
		}
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})
	w.ShowAndRun()
	return nil
}

// animate steps the springs once per frame while something moves.
func (s *session) animate(done <-chan struct{}) {
	t := time.NewTicker(frame)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			fyne.Do(func() {
				if s.ed.Anim.Animating() {
					s.ed.Anim.Step(frame)
					s.dc.Refresh()
				}
			})
		}
	}
}

// loadFonts installs the deck's fonts in the background and swaps in an
// OpenType layouter when done.
func (s *session) loadFonts(cfg config.FontsConfig) {
	key, err := config.Secret(config.SecretGoogleAPIKey)
	if err != nil {
		s.log.Warn("font api key unavailable", slog.Any("err", err))
	}
	client := fonts.NewClient(cfg.APIURL, key, nil)
	cat := fonts.NewCatalog()
	if _, err := client.Load(s.ctx, cat, cfg.Families); err != nil {
		s.log.Warn("font catalog unavailable", slog.Any("err", err))
		return
	}
	lib := textlayout.NewFontLibrary()
	var doc domain.Document
	fyne.DoAndWait(func() { doc = s.store.Document() })
	n := client.InstallDeck(s.ctx, cat, lib, doc)
	fyne.Do(func() {
		s.fontLib, s.catalog = lib, cat
		s.dc.SetLayouter(textlayout.New(textlayout.OTProvider{Lib: lib}))
		s.status.SetText(fmt.Sprintf("%d fonts installed", n))
	})
}

func (s *session) mutate(label string, fn func()) {
	s.ed.History.Do(label, fn)
}

func (s *session) save() {
	s.h.Deck.Document = s.store.Document()
	if err := s.lib.Save(s.ctx, s.h); err != nil {
		s.log.Error("save failed", slog.Any("err", err))
		dialog.ShowError(err, s.w)
		return
	}
	s.dirty = false
	s.status.SetText("Saved " + time.Now().Format("15:04:05"))
}

// activeSlice is the selected slice, else the first one.
func (s *session) activeSlice() string {
	id, _ := s.ed.State.Active()
	if _, ok := s.store.Slice(id); ok {
		return id
	}
	if sl := s.store.Slices(); len(sl) > 0 {
		return sl[0].ID
	}
	return ""
}

func (s *session) addSlice() {
	s.mutate("add slice", func() {
		sl := s.store.AddSlice(domain.SliceInput{})
		s.ed.State.SetActive(sl.ID, "")
	})
	s.ed.MoveToActive()
}

func (s *session) addText(preset string) {
	style, ok := textlayout.GetStyle(preset)
	if !ok {
		return
	}
	parent := s.activeSlice()
	s.mutate("add text", func() {
		if e, ok := s.store.AddTextEntity(style.Input(), parent); ok {
			s.ed.State.SetActive(parent, e.ID)
		}
	})
}

func (s *session) addPictureFile() {
	dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		rel, err := storage.ImportAsset(s.h.Root, path)
		if err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		in, err := images.PictureForFile(filepath.Join(s.h.Root, filepath.FromSlash(rel)))
		if err != nil {
			dialog.ShowError(err, s.w)
			return
		}
		in.Src = domain.Ptr(rel)
		s.addPicture(in)
	}, s.w)
}

func (s *session) addPicture(in domain.PictureInput) {
	parent := s.activeSlice()
	s.mutate("add picture", func() {
		if e, ok := s.store.AddPictureEntity(in, parent); ok {
			s.ed.State.SetActive(parent, e.ID)
		}
	})
}

func (s *session) deleteActive() {
	sliceID, entityID := s.ed.State.Active()
	switch {
	case entityID != "":
		s.mutate("delete entity", func() { s.store.DeleteEntity(entityID, sliceID) })
		s.ed.State.SetActive(sliceID, "")
	case sliceID != "":
		s.mutate("delete slice", func() { s.store.DeleteSlice(sliceID) })
		s.ed.State.SetActive("", "")
	}
}

func (s *session) exportPDF() {
	snap := *s.h
	snap.Deck.Document = s.store.Document()
	lib := s.fontLib
	s.status.SetText("Exporting…")
	go func() {
		paths, err := export.Batch(s.ctx, &snap, export.BatchOptions{
			Preset:  export.PresetPrint,
			Formats: []string{export.FormatPDF},
			Options: export.Options{Fonts: lib, Loader: export.NewLoader(snap.Root)},
		})
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, s.w)
				s.status.SetText("Export failed")
				return
			}
			s.status.SetText("Exported " + strings.Join(paths, ", "))
		})
	}()
}

func (s *session) undo() {
	if s.ed.History.Undo() {
		s.status.SetText("Undo")
	}
}

func (s *session) redo() {
	if s.ed.History.Redo() {
		s.status.SetText("Redo")
	}
}

func (s *session) toolbar() *widget.Toolbar {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentSaveIcon(), s.save),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentAddIcon(), s.addSlice),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { s.addText("Body") }),
		widget.NewToolbarAction(theme.FileImageIcon(), s.addPictureFile),
		widget.NewToolbarAction(theme.DeleteIcon(), s.deleteActive),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), s.undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), s.redo),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { s.ed.MoveToActive() }),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), s.exportPDF),
	)
}

func (s *session) shortcuts() {
	c := s.w.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { s.undo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}, func(fyne.Shortcut) { s.redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { s.save() })
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyDelete {
			s.deleteActive()
		}
	})
}
