/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package images is the image search collaborator: an Unsplash search client,
// a debounce-and-replace searcher for type-ahead queries, and helpers that
// turn a chosen photo or local file into picture entity input.
package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dekk/internal/httputil"
	applog "dekk/internal/log"
)

// DefaultAPIURL is the upstream search endpoint.
const DefaultAPIURL = "https://api.unsplash.com/search/photos"

// Defaults of a search request.
const (
	DefaultPage    = 1
	DefaultPerPage = 100
)

// ErrMissingAccessKey is returned when no Unsplash access key is configured.
var ErrMissingAccessKey = errors.New("unsplash access key not configured")

// PhotoURLs are the renditions of a photo.
type PhotoURLs struct {
	Raw     string `json:"raw,omitempty"`
	Full    string `json:"full,omitempty"`
	Regular string `json:"regular"`
	Small   string `json:"small,omitempty"`
	Thumb   string `json:"thumb,omitempty"`
}

// Photo is one search hit.
type Photo struct {
	ID             string    `json:"id"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Description    string    `json:"description,omitempty"`
	AltDescription string    `json:"alt_description,omitempty"`
	URLs           PhotoURLs `json:"urls"`
}

// Aspect returns width/height, or 1 when unknown.
func (p Photo) Aspect() float64 {
	if p.Width <= 0 || p.Height <= 0 {
		return 1
	}
	return float64(p.Width) / float64(p.Height)
}

// Photos is a page of results.
type Photos struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

// Query is a search request. Zero Page and PerPage take the defaults.
type Query struct {
	Text    string
	Page    int
	PerPage int
}

func (q Query) normalized() Query {
	q.Text = strings.TrimSpace(q.Text)
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	return q
}

// Client queries the Unsplash search API.
type Client struct {
	APIURL    string
	AccessKey string
	http      *http.Client
	cache     httputil.Cache
	log       *slog.Logger
}

// NewClient returns a client for apiURL (DefaultAPIURL when empty).
func NewClient(apiURL, accessKey string, cache httputil.Cache) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if cache == nil {
		cache = httputil.NopCache{}
	}
	return &Client{
		APIURL:    apiURL,
		AccessKey: accessKey,
		http:      httputil.NewHTTPClient(15 * time.Second),
		cache:     cache,
		log:       applog.WithComponent("images"),
	}
}

// Search returns a page of photos. An empty query yields an empty page
// without contacting the API.
func (c *Client) Search(ctx context.Context, q Query) (Photos, error) {
	q = q.normalized()
	if q.Text == "" {
		return Photos{Results: []Photo{}}, nil
	}
	if c.AccessKey == "" {
		return Photos{}, ErrMissingAccessKey
	}
	key := fmt.Sprintf("unsplash:%s:%d:%d", q.Text, q.Page, q.PerPage)
	var out Photos
	err := httputil.Cached(ctx, c.cache, key, &out, func() error {
		b, err := c.get(ctx, q)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, &out)
	})
	if err != nil {
		c.log.Warn("image search failed", slog.String("query", q.Text), slog.Any("err", err))
		return Photos{}, err
	}
	if out.Results == nil {
		out.Results = []Photo{}
	}
	return out, nil
}

// Raw returns the upstream response body for q unmodified.
func (c *Client) Raw(ctx context.Context, q Query) ([]byte, error) {
	q = q.normalized()
	if c.AccessKey == "" {
		return nil, ErrMissingAccessKey
	}
	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		b, err := c.get(ctx, q)
		body = b
		return err
	})
	return body, err
}

func (c *Client) get(ctx context.Context, q Query) ([]byte, error) {
	v := url.Values{}
	v.Set("query", q.Text)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+c.AccessKey)
	req.Header.Set("Accept-Version", "v1")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp.StatusCode, req.URL.Path); err != nil {
		return nil, err
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}
