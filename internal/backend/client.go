/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dekk/internal/domain"
	"dekk/internal/httputil"
)

// Client talks to the deck API of a dekk server.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a client. baseURL may include a trailing slash.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  httputil.NewHTTPClient(timeout),
	}
}

// do sends body (JSON-encoded when non-nil) and decodes a 2xx response into
// dest. GETs are retried on transient failures.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	call := func() error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", method, u.Path, ErrNotFound)
		case http.StatusConflict:
			return fmt.Errorf("%s %s: %w", method, u.Path, ErrConflict)
		}
		if err := httputil.CheckStatus(resp.StatusCode, u.Path); err != nil {
			return err
		}
		if dest == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(dest)
	}
	if method == http.MethodGet {
		return httputil.RetryWithBackoff(ctx, call)
	}
	return call()
}

// IssueToken asks the server for a bearer token and stores it on c.
func (c *Client) IssueToken(ctx context.Context, subject string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", map[string]any{"subject": subject}, &out); err != nil {
		return err
	}
	c.Token = out.Token
	return nil
}

// ListDecks returns the deck summaries.
func (c *Client) ListDecks(ctx context.Context) ([]domain.DeckSummary, error) {
	var list []domain.DeckSummary
	if err := c.do(ctx, http.MethodGet, "/api/decks", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetDeck fetches one deck.
func (c *Client) GetDeck(ctx context.Context, id string) (domain.Deck, error) {
	var d domain.Deck
	err := c.do(ctx, http.MethodGet, "/api/decks/"+url.PathEscape(id), nil, &d)
	return d, err
}

// CreateDeck uploads d and returns it with the server-assigned id.
func (c *Client) CreateDeck(ctx context.Context, d domain.Deck) (domain.Deck, error) {
	var out domain.Deck
	err := c.do(ctx, http.MethodPost, "/api/decks", d, &out)
	return out, err
}

// UpdateDeck replaces deck d.ID.
func (c *Client) UpdateDeck(ctx context.Context, d domain.Deck) error {
	return c.do(ctx, http.MethodPut, "/api/decks/"+url.PathEscape(d.ID), d, nil)
}

// DeleteDeck removes deck id.
func (c *Client) DeleteDeck(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/decks/"+url.PathEscape(id), nil, nil)
}
