/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fonts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dekk/internal/domain"
	"dekk/internal/httputil"
	applog "dekk/internal/log"
	"dekk/internal/textlayout"
)

// DefaultAPIURL is the upstream webfonts endpoint.
const DefaultAPIURL = "https://www.googleapis.com/webfonts/v1/webfonts"

// Client fetches the webfonts list and font files.
type Client struct {
	APIURL string
	APIKey string
	http   *http.Client
	cache  httputil.Cache
	log    *slog.Logger
}

// NewClient returns a client for apiURL (DefaultAPIURL when empty). cache may
// be nil.
func NewClient(apiURL, apiKey string, cache httputil.Cache) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if cache == nil {
		cache = httputil.NopCache{}
	}
	return &Client{
		APIURL: apiURL,
		APIKey: apiKey,
		http:   httputil.NewHTTPClient(15 * time.Second),
		cache:  cache,
		log:    applog.WithComponent("fonts"),
	}
}

// List returns the webfonts list sorted by sort ("alpha", "popularity", ...).
func (c *Client) List(ctx context.Context, sort string) (WebFontList, error) {
	if sort == "" {
		sort = "alpha"
	}
	var out WebFontList
	err := httputil.Cached(ctx, c.cache, "webfonts:"+sort, &out, func() error {
		return c.getJSON(ctx, c.listURL(sort), &out)
	})
	if err != nil {
		c.log.Warn("webfonts list failed", slog.Any("err", err))
		return WebFontList{}, err
	}
	return out, nil
}

// Raw returns the upstream response body unmodified. The server proxy uses it.
func (c *Client) Raw(ctx context.Context, sort string) ([]byte, error) {
	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		b, err := c.get(ctx, c.listURL(sort))
		body = b
		return err
	})
	return body, err
}

func (c *Client) listURL(sort string) string {
	q := url.Values{}
	q.Set("sort", sort)
	if c.APIKey != "" {
		q.Set("key", c.APIKey)
	}
	sep := "?"
	if strings.Contains(c.APIURL, "?") {
		sep = "&"
	}
	return c.APIURL + sep + q.Encode()
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	b, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode webfonts: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp.StatusCode, req.URL.Path); err != nil {
		return nil, err
	}
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}

// Load fills cat with the requested families unless it already holds exactly
// that set. It reports whether a fetch happened.
func (c *Client) Load(ctx context.Context, cat *Catalog, families []string) (bool, error) {
	if cat.Matches(families) {
		return false, nil
	}
	list, err := c.List(ctx, "alpha")
	if err != nil {
		return false, err
	}
	cat.Replace(list.Items, families)
	c.log.Debug("catalog loaded", slog.Int("families", len(cat.Families())))
	return true, nil
}

// Install downloads the file of (family, variant) and registers it in lib
// under the weight and style the variant names.
func (c *Client) Install(ctx context.Context, cat *Catalog, lib *textlayout.FontLibrary, family, variant string) error {
	weight, style := domain.ParseVariant(variant)
	italic := style == domain.FontStyleItalic
	if lib.Has(family, weight, italic) {
		return nil
	}
	src, err := cat.Resolve(family, variant)
	if err != nil {
		return err
	}
	var data []byte
	err = httputil.RetryWithBackoff(ctx, func() error {
		b, err := c.get(ctx, src)
		data = b
		return err
	})
	if err != nil {
		return fmt.Errorf("download %s %s: %w", family, variant, err)
	}
	return lib.LoadBytes(family, weight, italic, data)
}

// InstallDeck installs every font the text entities of doc use. Failures are
// logged and skipped so layout falls back to the basic face.
func (c *Client) InstallDeck(ctx context.Context, cat *Catalog, lib *textlayout.FontLibrary, doc domain.Document) int {
	n := 0
	for _, e := range doc.Entities {
		if e.Text == nil {
			continue
		}
		f := e.Text.Font
		if err := c.Install(ctx, cat, lib, f.Family, f.Variant); err != nil {
			c.log.Warn("font install failed", slog.String("family", f.Family), slog.String("variant", f.Variant), slog.Any("err", err))
			continue
		}
		n++
	}
	return n
}
