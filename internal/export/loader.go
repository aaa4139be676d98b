/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp" // register decoder

	"dekk/internal/httputil"
)

// ImageLoader fetches the pixels behind a picture source.
type ImageLoader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// Loader resolves local paths against Root (usually the deck folder) and
// fetches http(s) sources. Results are memoized per source.
type Loader struct {
	Root   string
	Client *http.Client

	mu   sync.Mutex
	memo map[string]image.Image
}

// NewLoader returns a Loader rooted at root.
func NewLoader(root string) *Loader {
	return &Loader{Root: root, Client: httputil.NewHTTPClient(20 * time.Second)}
}

func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	l.mu.Lock()
	if img, ok := l.memo[src]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	var (
		img image.Image
		err error
	)
	u, perr := url.Parse(src)
	switch {
	case perr == nil && (u.Scheme == "http" || u.Scheme == "https"):
		img, err = l.fetch(ctx, src)
	case perr == nil && u.Scheme == "file":
		img, err = decodeFile(u.Path)
	default:
		p := src
		if !filepath.IsAbs(p) {
			p = filepath.Join(l.Root, filepath.FromSlash(strings.TrimPrefix(p, "/")))
		}
		img, err = decodeFile(p)
	}
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	if l.memo == nil {
		l.memo = make(map[string]image.Image)
	}
	l.memo[src] = img
	l.mu.Unlock()
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, src string) (image.Image, error) {
	client := l.Client
	if client == nil {
		client = httputil.NewHTTPClient(0)
	}
	var img image.Image
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()
		if err := httputil.CheckStatus(resp.StatusCode, src); err != nil {
			return err
		}
		img, _, err = image.Decode(io.LimitReader(resp.Body, 64<<20))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch picture %s: %w", src, err)
	}
	return img, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func loadPicture(ctx context.Context, opt Options, it item) image.Image {
	if opt.Loader == nil || it.e.Picture == nil || it.e.Picture.Src == "" {
		return nil
	}
	img, err := opt.Loader.Load(ctx, it.e.Picture.Src)
	if err != nil {
		logger(ctx, "picture").Warn("picture not loaded, drawing placeholder",
			slog.String("src", it.e.Picture.Src), slog.Any("err", err))
		return nil
	}
	return img
}
