/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fonts is the font catalog collaborator. It lists families from the
// Google webfonts API, resolves (family, variant) pairs to font files, builds
// css2 stylesheet URLs and installs font files into a text layout library.
package fonts

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"dekk/internal/domain"
)

// DefaultFamilies is the family set offered in the editor.
var DefaultFamilies = []string{"Roboto", "Open Sans", "Montserrat", "Raleway", "Merriweather", "Fira Sans"}

var (
	// ErrNotLoaded is returned by Resolve before the catalog holds the family.
	ErrNotLoaded = errors.New("font family not loaded")
	// ErrUnknownVariant is returned when the family lacks the variant.
	ErrUnknownVariant = errors.New("font variant not available")
)

// WebFont is one family entry of the webfonts API.
type WebFont struct {
	Kind         string            `json:"kind,omitempty"`
	Family       string            `json:"family"`
	Category     string            `json:"category,omitempty"`
	Variants     []string          `json:"variants"`
	Subsets      []string          `json:"subsets,omitempty"`
	Version      string            `json:"version,omitempty"`
	LastModified string            `json:"lastModified,omitempty"`
	Files        map[string]string `json:"files"`
}

// WebFontList is the webfonts API response.
type WebFontList struct {
	Kind  string    `json:"kind"`
	Items []WebFont `json:"items"`
}

// HasVariant reports whether f offers variant.
func (f WebFont) HasVariant(variant string) bool {
	for _, v := range f.Variants {
		if v == variant {
			return true
		}
	}
	return false
}

// CSSURL returns the css2 stylesheet URL for f. Weight tuples are sorted and
// the ital axis is present only when the family has an italic variant.
func CSSURL(f WebFont) string {
	family := strings.ReplaceAll(f.Family, " ", "+")
	italic := ""
	tuples := make([]string, 0, len(f.Variants))
	for _, v := range f.Variants {
		w, st := domain.ParseVariant(v)
		ital := 0
		if st == domain.FontStyleItalic {
			ital = 1
			italic = "ital,"
		}
		tuples = append(tuples, strconv.Itoa(ital)+","+strconv.Itoa(w))
	}
	sort.Strings(tuples)
	return fmt.Sprintf("https://fonts.googleapis.com/css2?family=%s:%swght@%s&display=swap", family, italic, strings.Join(tuples, ";"))
}

// Catalog holds the loaded families. It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	fonts map[string]WebFont
	order []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog { return &Catalog{fonts: map[string]WebFont{}} }

// Replace keeps the entries of list whose family is in families.
func (c *Catalog) Replace(list []WebFont, families []string) {
	want := map[string]bool{}
	for _, f := range families {
		want[f] = true
	}
	fonts := map[string]WebFont{}
	var order []string
	for _, f := range list {
		if want[f.Family] {
			fonts[f.Family] = f
			order = append(order, f.Family)
		}
	}
	sort.Strings(order)
	c.mu.Lock()
	c.fonts, c.order = fonts, order
	c.mu.Unlock()
}

// Matches reports whether the loaded family set equals families, ignoring
// order. A catalog that matches needs no refetch.
func (c *Catalog) Matches(families []string) bool {
	want := append([]string(nil), families...)
	sort.Strings(want)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.order) == 0 || len(want) != len(c.order) {
		return false
	}
	for i := range want {
		if want[i] != c.order[i] {
			return false
		}
	}
	return true
}

// Families lists the loaded family names in alphabetical order.
func (c *Catalog) Families() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Font returns the entry of family.
func (c *Catalog) Font(family string) (WebFont, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.fonts[family]
	return f, ok
}

// Variants lists the variants of family.
func (c *Catalog) Variants(family string) ([]string, error) {
	f, ok := c.Font(family)
	if !ok {
		return nil, fmt.Errorf("%s: %w", family, ErrNotLoaded)
	}
	return append([]string(nil), f.Variants...), nil
}

// Resolve returns the font file URL of (family, variant).
func (c *Catalog) Resolve(family, variant string) (string, error) {
	f, ok := c.Font(family)
	if !ok {
		return "", fmt.Errorf("%s: %w", family, ErrNotLoaded)
	}
	src, ok := f.Files[variant]
	if !ok || src == "" {
		return "", fmt.Errorf("%s %s: %w", family, variant, ErrUnknownVariant)
	}
	if u, err := url.Parse(src); err == nil && u.Scheme == "http" && googleHost(u.Hostname()) {
		u.Scheme = "https"
		src = u.String()
	}
	return src, nil
}

// googleHost reports whether host serves Google font files, which the
// webfonts API lists with plain http links.
func googleHost(host string) bool {
	host = strings.ToLower(host)
	return strings.HasSuffix(host, ".gstatic.com") || strings.HasSuffix(host, ".googleapis.com")
}

// Stylesheets returns the css2 URL of every loaded family.
func (c *Catalog) Stylesheets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.order))
	for _, fam := range c.order {
		out = append(out, CSSURL(c.fonts[fam]))
	}
	return out
}
