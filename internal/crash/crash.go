/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a crash report plus an autosave of the open
// deck, then exits with status 2.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"dekk/internal/domain"
	applog "dekk/internal/log"
	"dekk/internal/storage"
	"dekk/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

const stampFormat = "20060102-150405"

// Recover captures a panic, logs it with its stack, writes a crash report
// and autosaves h (if non-nil) as backups/deck.json.crash-<stamp>.json.
//
// Usage: defer crash.Recover(h)
func Recover(h *storage.DeckHandle) {
	if r := recover(); r != nil {
		handle(h, nil, r, debug.Stack())
	}
}

// RecoverLive is Recover for an editing session: live returns the in-memory
// document, which is autosaved instead of the last saved one.
//
// Usage: defer crash.RecoverLive(h, ed.Document)
func RecoverLive(h *storage.DeckHandle, live func() domain.Document) {
	if r := recover(); r != nil {
		handle(h, live, r, debug.Stack())
	}
}

func handle(h *storage.DeckHandle, live func() domain.Document, panicVal any, stack []byte) {
	l := applog.WithComponent("crash")
	l.Error("panic recovered", slog.Any("panic", panicVal), slog.String("stack", string(stack)))

	stamp := time.Now().Format(stampFormat)
	reportPath, err := writeReport(h, stamp, panicVal, stack)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err))
	}
	if h != nil {
		if path, err := autosave(h, live, stamp); err != nil {
			l.Error("crash autosave failed", slog.Any("err", err))
		} else {
			l.Info("crash autosave written", slog.String("path", path))
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\n", version.String()); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

// autosave writes a copy of the deck; a panicking live callback falls back to
// the handle's deck.
func autosave(h *storage.DeckHandle, live func() domain.Document, stamp string) (path string, err error) {
	snap := *h
	if live != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					applog.WithComponent("crash").Warn("live document unavailable", slog.Any("panic", r))
				}
			}()
			snap.Deck.Document = live()
		}()
	}
	return storage.WriteCopy(&snap, "crash-"+stamp)
}

func writeReport(h *storage.DeckHandle, stamp string, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Root != "" {
		dir = filepath.Join(h.Root, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Dekk Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil {
		_, _ = fmt.Fprintf(&buf, "Deck: %s (%s)\n", h.Deck.ID, h.Deck.Name)
		_, _ = fmt.Fprintf(&buf, "Manifest: %s\n", h.ManifestPath)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	return path, f.Sync()
}
