/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"dekk/internal/storage"
	"dekk/internal/version"
)

// bundleManifest is written as manifest.json next to the slide images.
type bundleManifest struct {
	Deck      string    `json:"deck"`
	Name      string    `json:"name"`
	Slides    []string  `json:"slides"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Generator string    `json:"generator"`
	Created   time.Time `json:"created"`
}

// ExportBundle packages the rendered slides as zero-padded PNGs in a ZIP
// archive with a manifest.json, for sharing a deck as plain images.
func ExportBundle(ctx context.Context, h *storage.DeckHandle, outPath string, opt Options) (string, error) {
	if h == nil {
		return "", fmt.Errorf("deck handle is nil")
	}
	p, err := resolveOut(h, outPath)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(p), ".zip") {
		p += ".zip"
	}
	imgs, err := RenderSlices(ctx, h.Deck.Document, opt)
	if err != nil {
		return "", err
	}
	f, err := createOut(p)
	if err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}
	defer func() { _ = f.Close() }()
	zw := zip.NewWriter(f)

	pad := len(fmt.Sprint(len(imgs)))
	m := bundleManifest{
		Deck:      h.Deck.ID,
		Name:      h.Deck.Name,
		Generator: version.String(),
		Created:   time.Now().UTC(),
	}
	var buf bytes.Buffer
	for i, img := range imgs {
		buf.Reset()
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("encode png: %w", err)
		}
		name := fmt.Sprintf("%0*d.png", pad, i+1)
		if err := addZipFile(zw, name, buf.Bytes()); err != nil {
			return "", fmt.Errorf("zip add image: %w", err)
		}
		m.Slides = append(m.Slides, name)
		m.Width, m.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	if err := addZipFile(zw, "manifest.json", data); err != nil {
		return "", fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close zip: %w", err)
	}
	logger(ctx, "bundle").Info("exported", slog.String("path", p), slog.Int("slides", len(imgs)))
	return p, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
